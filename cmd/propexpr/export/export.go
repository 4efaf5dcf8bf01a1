package export

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/walteh/propexpr/cmd/propexpr/common"
	"github.com/walteh/propexpr/pkg/document"
	"github.com/walteh/propexpr/pkg/editor"
	"github.com/walteh/propexpr/pkg/store"
	"gitlab.com/tozd/go/errors"
)

type Handler struct {
	globals *common.Globals
	kind    string
	db      string
	name    string
}

func NewExportCommand(g *common.Globals) *cobra.Command {
	me := &Handler{globals: g}

	cmd := &cobra.Command{
		Use:   "export <expression>",
		Short: "convert an expression to its structured state",
		Args:  cobra.ExactArgs(1),
	}

	cmd.Flags().StringVar(&me.kind, "kind", "tree", "document kind: flat or tree")
	cmd.Flags().StringVar(&me.db, "db", "", "sqlite database to save the state in")
	cmd.Flags().StringVar(&me.name, "name", "", "name to save the state under")
	cmd.MarkFlagsRequiredTogether("db", "name")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return me.Run(cmd.Context(), cmd.OutOrStdout(), args[0])
	}

	return cmd
}

func (me *Handler) Run(ctx context.Context, out io.Writer, expr string) error {
	kind, err := document.ParseKind(me.kind)
	if err != nil {
		return err
	}

	cfg := me.globals.Config()
	e, err := editor.New(ctx, kind, editor.WithConfig(cfg))
	if err != nil {
		return err
	}
	if err := e.LoadFromExpression(ctx, expr, editor.Known(cfg)); err != nil {
		return errors.Errorf("loading expression: %w", err)
	}

	st := e.ExportState()
	data, err := editor.MarshalState(st)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s\n", data)

	if me.db == "" {
		return nil
	}
	s, err := store.Open(ctx, me.db)
	if err != nil {
		return err
	}
	defer s.Close()
	return s.Save(ctx, me.name, st)
}
