package editor

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/walteh/propexpr/pkg/dragdrop"
	"gitlab.com/tozd/go/errors"
)

func (e *Editor) resolver() (*dragdrop.Resolver, error) {
	if e.drag == nil {
		return nil, errors.Errorf("%s document: %w", e.doc.Kind(), dragdrop.ErrNotTree)
	}
	return e.drag, nil
}

// DragStart starts dragging a token and returns the drag payload. It is not
// handled for flat documents or when instanceID is not a token.
func (e *Editor) DragStart(ctx context.Context, instanceID string) ([]byte, bool) {
	r, err := e.resolver()
	if err != nil {
		return nil, false
	}
	return r.Start(ctx, instanceID)
}

func (e *Editor) DragOver(ctx context.Context, p dragdrop.Point) {
	if r, err := e.resolver(); err == nil {
		r.Over(ctx, p)
	}
}

// Drop moves the dragged token. A malformed payload is not handled and
// changes nothing.
func (e *Editor) Drop(ctx context.Context, p dragdrop.Point, data []byte) (bool, error) {
	r, err := e.resolver()
	if err != nil {
		return false, err
	}

	m, err := r.Drop(ctx, p, data)
	if err != nil {
		zerolog.Ctx(ctx).Debug().Str("editor", e.id.String()).Err(err).Msg("drop ignored")
		return false, nil
	}
	if err := e.apply(ctx, m); err != nil {
		return false, errors.Errorf("dropping: %w", err)
	}
	return true, nil
}

// DragEnd clears drag state, dropped or not.
func (e *Editor) DragEnd() {
	if e.drag != nil {
		e.drag.End()
	}
}

func (e *Editor) DragDecorations() dragdrop.Decorations {
	if e.drag == nil {
		return dragdrop.Decorations{}
	}
	return e.drag.Decorations()
}
