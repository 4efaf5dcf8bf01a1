package widget_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/propexpr/pkg/document"
	"github.com/walteh/propexpr/pkg/position"
	"github.com/walteh/propexpr/pkg/widget"
)

var (
	temperature = widget.PropertyRef{ID: "1", Label: "temperature", Value: "25C"}
	speed       = widget.PropertyRef{ID: "2", Label: "speed", Value: "60"}
)

func sequentialIDs() widget.Option {
	n := 0
	return widget.WithIDGenerator(func() string {
		n++
		return fmt.Sprintf("tok-%d", n)
	})
}

// insert creates a token for ref at pos, applies the insertion to doc and
// hands the mutation to the tracker.
func insert(t *testing.T, doc document.Document, tr *widget.Tracker, ref widget.PropertyRef, pos int, before, after string) widget.Token {
	t.Helper()
	tok := tr.CreateToken(ref, pos+len([]rune(before)))
	m := &document.Mutation{Steps: []document.Step{
		document.InsertStep(pos,
			document.TextFragment(before),
			document.PropertyFragment(tok.Property()),
			document.TextFragment(after),
		),
	}}
	mapping, err := doc.Apply(m)
	require.NoError(t, err)
	tr.OnMutationApplied(m, mapping)
	got, ok := tr.Get(tok.InstanceID)
	require.True(t, ok, "token should be active after its mutation")
	return got
}

func TestCreateToken(t *testing.T) {
	tr := widget.NewTracker(document.KindFlat)
	tok := tr.CreateToken(temperature, 4)

	assert.Equal(t, "temperature (25C)", tok.Placeholder())
	assert.Equal(t, position.NewRange(4, 21), tok.Range)
	assert.Len(t, tok.InstanceID, 36, "instance ids are random uuids")
	assert.Equal(t, 0, tr.Len(), "token is pending until its mutation is applied")

	other := tr.CreateToken(temperature, 4)
	assert.NotEqual(t, tok.InstanceID, other.InstanceID)
}

func TestStalePendingTokenIsForgotten(t *testing.T) {
	doc := document.NewFlatFromText("x")
	tr := widget.NewTracker(document.KindFlat, sequentialIDs())
	stale := tr.CreateToken(temperature, 0)
	require.Equal(t, 1, tr.Pending())

	m := &document.Mutation{Steps: []document.Step{document.InsertStep(1, document.TextFragment(" + 1"))}}
	mapping, err := doc.Apply(m)
	require.NoError(t, err)
	tr.OnMutationApplied(m, mapping)
	assert.Equal(t, 0, tr.Pending(), "a mutation not carrying the token drops it")

	m = &document.Mutation{Steps: []document.Step{document.InsertStep(0, document.PropertyFragment(stale.Property()))}}
	mapping, err = doc.Apply(m)
	require.NoError(t, err)
	tr.OnMutationApplied(m, mapping)
	assert.Equal(t, 0, tr.Len(), "a forgotten token is not activated later")
}

func TestRemapThroughMutations(t *testing.T) {
	doc := document.NewFlatFromText("x + ")
	tr := widget.NewTracker(document.KindFlat, sequentialIDs())
	tok := insert(t, doc, tr, temperature, 4, "", "")
	require.Equal(t, position.NewRange(4, 21), tok.Range)
	require.Equal(t, tok.Placeholder(), string([]rune(doc.Text())[tok.Range.From:tok.Range.To]))

	t.Run("empty_mutation_is_identity", func(t *testing.T) {
		m := &document.Mutation{}
		mapping, err := doc.Apply(m)
		require.NoError(t, err)
		tr.OnMutationApplied(m, mapping)
		got, _ := tr.Get(tok.InstanceID)
		assert.Equal(t, tok.Range, got.Range)
	})

	t.Run("insert_before_shifts", func(t *testing.T) {
		m := &document.Mutation{Steps: []document.Step{document.InsertStep(0, document.TextFragment("abc"))}}
		mapping, err := doc.Apply(m)
		require.NoError(t, err)
		tr.OnMutationApplied(m, mapping)
		got, _ := tr.Get(tok.InstanceID)
		assert.Equal(t, position.NewRange(7, 24), got.Range)
	})

	t.Run("insert_at_end_does_not_grow", func(t *testing.T) {
		m := &document.Mutation{Steps: []document.Step{document.InsertStep(24, document.TextFragment(" + 1"))}}
		mapping, err := doc.Apply(m)
		require.NoError(t, err)
		tr.OnMutationApplied(m, mapping)
		got, _ := tr.Get(tok.InstanceID)
		assert.Equal(t, position.NewRange(7, 24), got.Range)
		assert.Equal(t, "abcx + temperature (25C) + 1", doc.Text())
	})

	t.Run("explicit_delete_command", func(t *testing.T) {
		m := &document.Mutation{
			Steps:        []document.Step{document.DeleteStep(position.NewRange(7, 24))},
			DeleteTokens: []string{tok.InstanceID},
		}
		mapping, err := doc.Apply(m)
		require.NoError(t, err)
		released := tr.OnMutationApplied(m, mapping)
		assert.Empty(t, released, "explicitly deleted tokens are not reported as released")
		assert.Equal(t, 0, tr.Len())
	})
}

func TestSwallowedTokenIsReleased(t *testing.T) {
	doc := document.NewFlat()
	tr := widget.NewTracker(document.KindFlat, sequentialIDs())
	tok := insert(t, doc, tr, speed, 0, "a ", " b")

	m := &document.Mutation{Steps: []document.Step{
		{Delete: doc.ContentRange(), Insert: []document.Fragment{document.TextFragment("z")}},
	}}
	mapping, err := doc.Apply(m)
	require.NoError(t, err)
	released := tr.OnMutationApplied(m, mapping)
	assert.Equal(t, []string{tok.InstanceID}, released)
	assert.Equal(t, 0, tr.Len())
}

func TestCompoundInsertThenDelete(t *testing.T) {
	doc := document.NewTree()
	tr := widget.NewTracker(document.KindTree, sequentialIDs())
	a := insert(t, doc, tr, temperature, 1, "x ", " ")
	b := insert(t, doc, tr, speed, a.Range.To+1, "", " ")

	// move b in front of a: insert a copy at a.From, then delete the original
	// which has shifted right by the copy's size
	moved := tr.CreateToken(b.Ref(), a.Range.From)
	m := &document.Mutation{
		Steps: []document.Step{
			document.InsertStep(a.Range.From, document.PropertyFragment(moved.Property())),
			document.DeleteStep(position.NewRange(b.Range.From+b.Range.Len(), b.Range.To+b.Range.Len())),
		},
		DeleteTokens: []string{b.InstanceID},
	}
	mapping, err := doc.Apply(m)
	require.NoError(t, err)
	tr.OnMutationApplied(m, mapping)

	tokens := tr.Tokens()
	require.Len(t, tokens, 2)
	assert.Equal(t, moved.InstanceID, tokens[0].InstanceID)
	assert.Equal(t, position.NewRange(a.Range.From, a.Range.From+b.Range.Len()), tokens[0].Range)
	assert.Equal(t, a.InstanceID, tokens[1].InstanceID)
	assert.Equal(t, tokens[0].Range.To, tokens[1].Range.From)
	for _, tok := range tokens {
		p, ok := doc.PropertyAt(tok.Range.From)
		require.True(t, ok, "tracker range should start on a property node")
		assert.Equal(t, tok.InstanceID, p.InstanceID)
	}
}

func TestQueries(t *testing.T) {
	doc := document.NewFlat()
	tr := widget.NewTracker(document.KindFlat, sequentialIDs())
	a := insert(t, doc, tr, speed, 0, "", " ")
	b := insert(t, doc, tr, temperature, a.Range.To+1, "", "")

	got, ok := tr.FindTokenEndingAt(a.Range.To)
	require.True(t, ok)
	assert.Equal(t, a.InstanceID, got.InstanceID)

	got, ok = tr.FindTokenStartingAt(b.Range.From)
	require.True(t, ok)
	assert.Equal(t, b.InstanceID, got.InstanceID)

	_, ok = tr.FindTokenContaining(a.Range.To, false)
	assert.False(t, ok, "exclusive end excludes the boundary")
	got, ok = tr.FindTokenContaining(a.Range.To, true)
	require.True(t, ok)
	assert.Equal(t, a.InstanceID, got.InstanceID)

	assert.Len(t, tr.Overlapping(position.NewRange(0, b.Range.From+1)), 2)
	assert.Equal(t, []int{a.Range.From, a.Range.To, b.Range.From, b.Range.To}, tr.Boundaries())

	tr.DeleteToken("missing")
	assert.Equal(t, 2, tr.Len(), "deleting an unknown id is a no-op")
	tr.DeleteToken(a.InstanceID)
	tr.DeleteToken(a.InstanceID)
	assert.Equal(t, 1, tr.Len())
}
