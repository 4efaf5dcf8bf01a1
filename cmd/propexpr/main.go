package main

import (
	"context"
	"os"
	"runtime/debug"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/walteh/propexpr/cmd/propexpr/check"
	"github.com/walteh/propexpr/cmd/propexpr/common"
	"github.com/walteh/propexpr/cmd/propexpr/export"
	"github.com/walteh/propexpr/cmd/propexpr/format"
	"github.com/walteh/propexpr/cmd/propexpr/show"
	"gitlab.com/tozd/go/errors"
)

func main() {
	if err := run(); err != nil {
		println(err.Error())
		os.Exit(1)
	}
}

func newRootCommand(fs afero.Fs) *cobra.Command {
	globals := common.NewGlobals(fs)

	rootCmd := &cobra.Command{
		Use:           "propexpr",
		Short:         "Check and convert property expressions",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	globals.Register(rootCmd)
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return globals.Setup(cmd)
	}

	info, ok := debug.ReadBuildInfo()
	if !ok {
		rootCmd.Version = "unknown"
	} else {
		rootCmd.Version = info.Main.Version
	}

	rootCmd.AddCommand(check.NewCheckCommand(globals))
	rootCmd.AddCommand(export.NewExportCommand(globals))
	rootCmd.AddCommand(format.NewFormatCommand(globals))
	rootCmd.AddCommand(show.NewShowCommand(globals))
	rootCmd.AddCommand(show.NewListCommand())

	return rootCmd
}

func run() error {
	if err := newRootCommand(afero.NewOsFs()).ExecuteContext(context.Background()); err != nil {
		return errors.Errorf("failed to execute command: %w", err)
	}
	return nil
}
