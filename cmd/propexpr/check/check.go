package check

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/walteh/propexpr/cmd/propexpr/common"
	"github.com/walteh/propexpr/pkg/diagnostic"
	"github.com/walteh/propexpr/pkg/document"
	"github.com/walteh/propexpr/pkg/editor"
	"gitlab.com/tozd/go/errors"
)

var ErrProblems = errors.Base("expressions have errors")

type Handler struct {
	globals  *common.Globals
	format   string
	patterns []string
}

func NewCheckCommand(g *common.Globals) *cobra.Command {
	me := &Handler{globals: g}

	cmd := &cobra.Command{
		Use:   "check [glob...]",
		Short: "report diagnostics for expression files",
	}

	cmd.Flags().StringVar(&me.format, "format", "text", "output format: text, json, yaml or vscode")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		me.patterns = args
		if len(me.patterns) == 0 {
			me.patterns = []string{common.DefaultPattern}
		}
		return me.Run(cmd.Context(), cmd.OutOrStdout())
	}

	return cmd
}

// Run checks every matched file. Text output prefixes each line with the
// file; structured formats print the file name on its own line followed by
// its document.
func (me *Handler) Run(ctx context.Context, out io.Writer) error {
	formatter, err := diagnostic.NewFormatter(me.format)
	if err != nil {
		return err
	}

	files, err := common.Glob(me.globals.Fs, me.patterns)
	if err != nil {
		return err
	}

	failed := 0
	for _, path := range files {
		diags, err := me.checkFile(ctx, path)
		if err != nil {
			return err
		}
		if len(diags.Errors) > 0 {
			failed++
		}

		data, err := formatter.Format(diags)
		if err != nil {
			return errors.Errorf("formatting %s: %w", path, err)
		}

		if me.format == "" || me.format == "text" {
			for _, line := range strings.SplitAfter(string(data), "\n") {
				if line != "" {
					fmt.Fprintf(out, "%s:%s", path, line)
				}
			}
			continue
		}
		fmt.Fprintf(out, "%s\n%s", path, data)
		if !strings.HasSuffix(string(data), "\n") {
			fmt.Fprintln(out)
		}
	}

	zerolog.Ctx(ctx).Debug().Int("files", len(files)).Int("failed", failed).Msg("check finished")
	if failed > 0 {
		return errors.Errorf("%d of %d files: %w", failed, len(files), ErrProblems)
	}
	return nil
}

func (me *Handler) checkFile(ctx context.Context, path string) (*diagnostic.Diagnostics, error) {
	data, err := afero.ReadFile(me.globals.Fs, path)
	if err != nil {
		return nil, errors.Errorf("reading %s: %w", path, err)
	}

	e, err := editor.New(ctx, document.KindFlat, editor.WithConfig(me.globals.Config()))
	if err != nil {
		return nil, err
	}
	if err := e.InsertText(ctx, strings.TrimRight(string(data), "\r\n")); err != nil {
		return nil, errors.Errorf("checking %s: %w", path, err)
	}
	return e.Diagnostics(), nil
}
