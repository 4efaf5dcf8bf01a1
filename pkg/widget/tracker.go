// Package widget owns the property tokens embedded in a document and keeps
// their ranges in step with every applied mutation.
package widget

import (
	"slices"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/walteh/propexpr/pkg/document"
	"github.com/walteh/propexpr/pkg/position"
)

// PropertyRef identifies the external property a token points at.
type PropertyRef struct {
	ID    string
	Label string
	Value string
}

// Token is a property token instance. Callers receive copies; the tracker
// is the only writer of Range.
type Token struct {
	ID         string
	InstanceID string
	Label      string
	Value      string
	Range      position.Range
}

func (t Token) Placeholder() string {
	return document.Placeholder(t.Label, t.Value)
}

// Property converts the token to the attributes stored in a document.
func (t Token) Property() document.Property {
	return document.Property{ID: t.ID, InstanceID: t.InstanceID, Label: t.Label, Value: t.Value}
}

func (t Token) Ref() PropertyRef {
	return PropertyRef{ID: t.ID, Label: t.Label, Value: t.Value}
}

// Tracker is the authoritative index of tokens. It is not safe for
// concurrent use; all calls come from the editor's single event loop.
type Tracker struct {
	kind    document.Kind
	active  []*Token
	pending map[string]*Token
	newID   func() string
}

type Option func(*Tracker)

// WithIDGenerator replaces the random instance id source.
func WithIDGenerator(fn func() string) Option {
	return func(t *Tracker) {
		t.newID = fn
	}
}

// NewTracker creates a tracker for a document of the given kind.
func NewTracker(kind document.Kind, opts ...Option) *Tracker {
	t := &Tracker{
		kind:    kind,
		pending: make(map[string]*Token),
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// CreateToken registers a token for ref whose range starts at atOffset. The
// token stays pending until the mutation inserting it is applied, at which
// point its range is taken from the position its fragment lands on.
func (t *Tracker) CreateToken(ref PropertyRef, atOffset int) Token {
	placeholder := document.Placeholder(ref.Label, ref.Value)
	tok := &Token{
		ID:         ref.ID,
		InstanceID: t.newID(),
		Label:      ref.Label,
		Value:      ref.Value,
		Range:      position.NewRange(atOffset, atOffset+utf8.RuneCountInString(placeholder)),
	}
	t.pending[tok.InstanceID] = tok
	return *tok
}

// DeleteToken removes a token. Unknown ids are ignored.
func (t *Tracker) DeleteToken(instanceID string) {
	delete(t.pending, instanceID)
	t.active = slices.DeleteFunc(t.active, func(tok *Token) bool {
		return tok.InstanceID == instanceID
	})
}

// Discard drops every pending token, used when the mutation carrying them
// was rejected.
func (t *Tracker) Discard() {
	clear(t.pending)
}

// OnMutationApplied remaps every token through mapping, activates tokens
// inserted by m and drops the ones m deletes. Pending tokens m does not
// insert are stale and forgotten. It returns the instance ids of
// tokens released because their whole range was deleted without an explicit
// delete command.
func (t *Tracker) OnMutationApplied(m *document.Mutation, mapping *position.Mapping) []string {
	defer clear(t.pending)
	if m.Empty() {
		return nil
	}

	for _, tok := range t.active {
		tok.Range = mapping.MapRange(tok.Range)
	}

	for i, step := range m.Steps {
		off := step.Delete.From
		for _, frag := range step.Insert {
			size := frag.Size(t.kind)
			if frag.Property != nil {
				if tok, ok := t.pending[frag.Property.InstanceID]; ok {
					delete(t.pending, tok.InstanceID)
					tok.Range = mapping.Slice(i + 1).MapRange(position.NewRange(off, off+size))
					t.active = append(t.active, tok)
				}
			}
			off += size
		}
	}

	for _, id := range m.DeleteTokens {
		t.DeleteToken(id)
	}

	var released []string
	t.active = slices.DeleteFunc(t.active, func(tok *Token) bool {
		if tok.Range.Empty() {
			released = append(released, tok.InstanceID)
			return true
		}
		return false
	})

	slices.SortStableFunc(t.active, func(a, b *Token) int {
		return a.Range.From - b.Range.From
	})

	return released
}

// Reset forgets every token.
func (t *Tracker) Reset() {
	t.active = nil
	clear(t.pending)
}

func (t *Tracker) Len() int {
	return len(t.active)
}

// Pending counts tokens created but not yet inserted.
func (t *Tracker) Pending() int {
	return len(t.pending)
}

// Tokens returns copies of the active tokens in document order.
func (t *Tracker) Tokens() []Token {
	out := make([]Token, 0, len(t.active))
	for _, tok := range t.active {
		out = append(out, *tok)
	}
	return out
}

func (t *Tracker) Get(instanceID string) (Token, bool) {
	for _, tok := range t.active {
		if tok.InstanceID == instanceID {
			return *tok, true
		}
	}
	return Token{}, false
}

func (t *Tracker) find(fn func(*Token) bool) (Token, bool) {
	for _, tok := range t.active {
		if fn(tok) {
			return *tok, true
		}
	}
	return Token{}, false
}

func (t *Tracker) FindTokenEndingAt(pos int) (Token, bool) {
	return t.find(func(tok *Token) bool { return tok.Range.To == pos })
}

func (t *Tracker) FindTokenStartingAt(pos int) (Token, bool) {
	return t.find(func(tok *Token) bool { return tok.Range.From == pos })
}

func (t *Tracker) FindTokenContaining(pos int, inclusiveEnd bool) (Token, bool) {
	return t.find(func(tok *Token) bool { return tok.Range.Contains(pos, inclusiveEnd) })
}

// FindTokenStrictlyContaining finds a token with pos on neither of its edges.
func (t *Tracker) FindTokenStrictlyContaining(pos int) (Token, bool) {
	return t.find(func(tok *Token) bool { return tok.Range.StrictlyContains(pos) })
}

// FindTokenMatching finds the token whose range is exactly r.
func (t *Tracker) FindTokenMatching(r position.Range) (Token, bool) {
	return t.find(func(tok *Token) bool { return tok.Range == r })
}

// Overlapping returns the tokens sharing at least one position with r.
func (t *Tracker) Overlapping(r position.Range) []Token {
	var out []Token
	for _, tok := range t.active {
		if tok.Range.Overlaps(r) {
			out = append(out, *tok)
		}
	}
	return out
}

// Boundaries returns every token edge in ascending order.
func (t *Tracker) Boundaries() []int {
	var out []int
	for _, tok := range t.active {
		out = append(out, tok.Range.From, tok.Range.To)
	}
	slices.Sort(out)
	return slices.Compact(out)
}
