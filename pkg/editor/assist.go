package editor

import (
	"context"

	"github.com/walteh/propexpr/pkg/completion"
	"github.com/walteh/propexpr/pkg/hover"
	"gitlab.com/tozd/go/errors"
)

// Completions lists what can be inserted for the word at the cursor. Nothing
// is offered inside a token or with a non-empty selection.
func (e *Editor) Completions() []completion.Item {
	if !e.sel.Empty() {
		return nil
	}
	if _, ok := e.tracker.FindTokenStrictlyContaining(e.sel.From); ok {
		return nil
	}
	projection := e.doc.Projection()
	return completion.Complete(completion.NewContext(projection, e.sel.From), projection, e.cfg)
}

// AcceptCompletion replaces the word at the cursor with item.
func (e *Editor) AcceptCompletion(ctx context.Context, item completion.Item) error {
	c := completion.NewContext(e.doc.Projection(), e.sel.From)
	if !c.Range.Empty() {
		if err := e.SetSelection(c.Range); err != nil {
			return err
		}
	}

	switch item.Kind {
	case completion.KindFunction:
		return e.InsertFunction(ctx, item.Label)
	case completion.KindProperty:
		if item.Property == nil {
			return errors.Errorf("completing %q: %w", item.Label, ErrUnknownProperty)
		}
		_, err := e.InsertToken(ctx, item.Property.Ref())
		return err
	}
	return errors.Errorf("completing %q: unknown kind %q", item.Label, item.Kind)
}

// Hover describes what sits at pos.
func (e *Editor) Hover(pos int) (*hover.Info, bool) {
	return hover.At(hover.Input{
		Tokens:  e.tokens,
		Tracked: e.tracker.Tokens(),
		Errors:  e.errs,
		Config:  e.cfg,
	}, pos)
}

// HoverAtCursor is Hover at the start of the selection.
func (e *Editor) HoverAtCursor() (*hover.Info, bool) {
	return e.Hover(e.sel.From)
}
