package store_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/propexpr/pkg/diff"
	"github.com/walteh/propexpr/pkg/document"
	"github.com/walteh/propexpr/pkg/editor"
	"github.com/walteh/propexpr/pkg/store"
)

func open(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(context.Background(), filepath.Join(t.TempDir(), "states.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSaveLoad(t *testing.T) {
	ctx := context.Background()
	s := open(t)

	want := editor.State{
		Kind: "tree",
		Content: []editor.Node{
			{Type: editor.NodeProperty, Attrs: &editor.NodeAttrs{ID: "1", Label: "temperature", Value: "25C"}},
			{Type: editor.NodeText, Text: " + 1"},
			{Type: editor.NodeBreak},
			{Type: editor.NodeText, Text: "2"},
		},
	}
	require.NoError(t, s.Save(ctx, "first", want))

	got, err := s.Load(ctx, "first")
	require.NoError(t, err)
	if d := diff.Structs(want, got); d != "" {
		t.Fatal(d)
	}

	want.Content = want.Content[:1]
	require.NoError(t, s.Save(ctx, "first", want), "saving again replaces")
	got, err = s.Load(ctx, "first")
	require.NoError(t, err)
	assert.Len(t, got.Content, 1)
}

func TestNotFound(t *testing.T) {
	ctx := context.Background()
	s := open(t)

	_, err := s.Load(ctx, "missing")
	require.ErrorIs(t, err, store.ErrNotFound)
	require.ErrorIs(t, s.Delete(ctx, "missing"), store.ErrNotFound)
	require.Error(t, s.Save(ctx, "", editor.State{}))
}

func TestListDelete(t *testing.T) {
	ctx := context.Background()
	s := open(t)

	for _, name := range []string{"b", "a", "c"} {
		require.NoError(t, s.Save(ctx, name, editor.State{Kind: "flat", Content: []editor.Node{}}))
	}
	require.NoError(t, s.Delete(ctx, "b"))

	entries, err := s.List(ctx)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name)
		assert.Equal(t, "flat", e.Kind)
		assert.False(t, e.UpdatedAt.IsZero())
	}
	assert.Equal(t, []string{"a", "c"}, names)
}

func TestEditorStateSurvivesStore(t *testing.T) {
	ctx := context.Background()
	s := open(t)

	e, err := editor.New(ctx, document.KindTree)
	require.NoError(t, err)
	require.NoError(t, e.LoadFromExpression(ctx, "speed * 2", editor.Known(e.Config())))
	require.NoError(t, s.Save(ctx, "expr", e.ExportState()))

	st, err := s.Load(ctx, "expr")
	require.NoError(t, err)
	other, err := editor.New(ctx, document.KindTree)
	require.NoError(t, err)
	require.NoError(t, other.ImportState(ctx, st))
	assert.Equal(t, e.Projection(), other.Projection())
	assert.Equal(t, "speed * 2", other.PlainProjection())
}
