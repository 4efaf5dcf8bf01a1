package show

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"github.com/walteh/propexpr/cmd/propexpr/common"
	"github.com/walteh/propexpr/pkg/diagnostic"
	"github.com/walteh/propexpr/pkg/document"
	"github.com/walteh/propexpr/pkg/editor"
	"github.com/walteh/propexpr/pkg/store"
)

type Handler struct {
	globals *common.Globals
	db      string
	name    string
	format  string
}

func NewShowCommand(g *common.Globals) *cobra.Command {
	me := &Handler{globals: g}

	cmd := &cobra.Command{
		Use:   "show",
		Short: "print a saved state with its diagnostics",
	}

	cmd.Flags().StringVar(&me.db, "db", "", "sqlite database holding the state")
	cmd.Flags().StringVar(&me.name, "name", "", "name of the saved state")
	cmd.Flags().StringVar(&me.format, "format", "text", "diagnostics format: text, json, yaml or vscode")
	_ = cmd.MarkFlagRequired("db")
	_ = cmd.MarkFlagRequired("name")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return me.Run(cmd.Context(), cmd.OutOrStdout())
	}

	return cmd
}

func (me *Handler) Run(ctx context.Context, out io.Writer) error {
	formatter, err := diagnostic.NewFormatter(me.format)
	if err != nil {
		return err
	}

	s, err := store.Open(ctx, me.db)
	if err != nil {
		return err
	}
	defer s.Close()

	st, err := s.Load(ctx, me.name)
	if err != nil {
		return err
	}

	kind := document.KindFlat
	if st.Kind != "" {
		if kind, err = document.ParseKind(st.Kind); err != nil {
			return err
		}
	}

	e, err := editor.New(ctx, kind, editor.WithConfig(me.globals.Config()))
	if err != nil {
		return err
	}
	if err := e.ImportState(ctx, st); err != nil {
		return err
	}

	data, err := formatter.Format(e.Diagnostics())
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s\n%s", e.PlainProjection(), data)
	return nil
}

type ListHandler struct {
	db string
}

func NewListCommand() *cobra.Command {
	me := &ListHandler{}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "list the saved states",
	}

	cmd.Flags().StringVar(&me.db, "db", "", "sqlite database holding the states")
	_ = cmd.MarkFlagRequired("db")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return me.Run(cmd.Context(), cmd.OutOrStdout())
	}

	return cmd
}

func (me *ListHandler) Run(ctx context.Context, out io.Writer) error {
	s, err := store.Open(ctx, me.db)
	if err != nil {
		return err
	}
	defer s.Close()

	entries, err := s.List(ctx)
	if err != nil {
		return err
	}
	for _, e := range entries {
		fmt.Fprintf(out, "%s\t%s\t%s\n", e.Name, e.Kind, e.UpdatedAt.Format(time.RFC3339))
	}
	return nil
}
