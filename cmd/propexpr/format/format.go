package format

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/walteh/propexpr/cmd/propexpr/common"
	"github.com/walteh/propexpr/pkg/exprfmt"
	"gitlab.com/tozd/go/errors"
)

var ErrUnformatted = errors.Base("files are not formatted")

type Handler struct {
	globals  *common.Globals
	write    bool
	list     bool
	patterns []string
}

func NewFormatCommand(g *common.Globals) *cobra.Command {
	me := &Handler{globals: g}

	cmd := &cobra.Command{
		Use:   "fmt [glob...]",
		Short: "rewrite expression files with canonical spacing",
		Long:  "fmt formats expression files. Line endings and the final newline follow .editorconfig.",
	}

	cmd.Flags().BoolVarP(&me.write, "write", "w", false, "write the result back to the files")
	cmd.Flags().BoolVarP(&me.list, "list", "l", false, "list files whose formatting differs and fail if any do")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		me.patterns = args
		if len(me.patterns) == 0 {
			me.patterns = []string{common.DefaultPattern}
		}
		return me.Run(cmd.Context(), cmd.OutOrStdout())
	}

	return cmd
}

func (me *Handler) Run(ctx context.Context, out io.Writer) error {
	files, err := common.Glob(me.globals.Fs, me.patterns)
	if err != nil {
		return err
	}

	vocab := me.globals.Config().Vocabulary()
	differ := 0
	for _, path := range files {
		data, err := afero.ReadFile(me.globals.Fs, path)
		if err != nil {
			return errors.Errorf("reading %s: %w", path, err)
		}
		opts, err := exprfmt.OptionsFor(me.globals.Fs, path)
		if err != nil {
			return err
		}

		formatted := exprfmt.Source(string(data), vocab, opts)
		changed := formatted != string(data)
		if changed {
			differ++
		}
		zerolog.Ctx(ctx).Debug().Str("file", path).Bool("changed", changed).Msg("formatted")

		switch {
		case me.list:
			if changed {
				fmt.Fprintln(out, path)
			}
		case me.write:
			if changed {
				if err := afero.WriteFile(me.globals.Fs, path, []byte(formatted), 0o644); err != nil {
					return errors.Errorf("writing %s: %w", path, err)
				}
			}
		default:
			fmt.Fprint(out, formatted)
		}
	}

	if me.list && differ > 0 {
		return errors.Errorf("%d of %d files: %w", differ, len(files), ErrUnformatted)
	}
	return nil
}
