// Package document holds the two document variants property tokens live in:
// a flat rune buffer and a tree of paragraphs with inline text and property
// nodes. Both are addressed by rune offsets and change only through Mutations.
package document

import (
	"fmt"
	"unicode/utf8"

	"github.com/walteh/propexpr/pkg/position"
	"gitlab.com/tozd/go/errors"
)

var (
	ErrInvalidRange = errors.Base("invalid range")
	ErrPartialToken = errors.Base("step cuts through a property")
)

type Kind int

const (
	KindFlat Kind = iota + 1
	KindTree
)

func (k Kind) String() string {
	switch k {
	case KindFlat:
		return "flat"
	case KindTree:
		return "tree"
	default:
		return "unknown"
	}
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "flat":
		return KindFlat, nil
	case "tree":
		return KindTree, nil
	}
	return 0, errors.Errorf("unknown document kind %q", s)
}

// Property carries the attributes of an inline property token.
type Property struct {
	ID         string
	InstanceID string
	Label      string
	Value      string
}

// Placeholder is the canonical rendered text of a property token.
func Placeholder(label, value string) string {
	return fmt.Sprintf("%s (%s)", label, value)
}

func (p Property) Placeholder() string {
	return Placeholder(p.Label, p.Value)
}

// Size is the number of positions the property occupies.
func (p Property) Size() int {
	return utf8.RuneCountInString(p.Placeholder())
}

// Fragment is one piece of inserted content: literal text, a property, or a
// paragraph break.
type Fragment struct {
	Text     string
	Property *Property
	Break    bool
}

func TextFragment(s string) Fragment {
	return Fragment{Text: s}
}

func PropertyFragment(p Property) Fragment {
	return Fragment{Property: &p}
}

func BreakFragment() Fragment {
	return Fragment{Break: true}
}

// Size is the number of positions the fragment occupies in a document of
// kind k.
func (f Fragment) Size(k Kind) int {
	switch {
	case f.Break && k == KindTree:
		return 2
	case f.Break:
		return 1
	case f.Property != nil:
		return f.Property.Size()
	default:
		return utf8.RuneCountInString(f.Text)
	}
}

// Step replaces Delete with Insert. Its offsets are those of the document
// produced by the preceding steps of the same mutation.
type Step struct {
	Delete position.Range
	Insert []Fragment
}

func InsertStep(pos int, frags ...Fragment) Step {
	return Step{Delete: position.Cursor(pos), Insert: frags}
}

func DeleteStep(r position.Range) Step {
	return Step{Delete: r}
}

// Mutation is an atomic batch of steps. DeleteTokens names the property
// instances released together with the content change.
type Mutation struct {
	Steps        []Step
	DeleteTokens []string
	Selection    *position.Range
}

func (m *Mutation) Empty() bool {
	return m == nil || (len(m.Steps) == 0 && len(m.DeleteTokens) == 0)
}

// CharKind classifies the unit occupying one position.
type CharKind int

const (
	CharNone CharKind = iota
	CharText
	CharToken
	CharBlockStart
	CharBlockEnd
)

type Char struct {
	Kind CharKind
	Rune rune
}

// IsSpace reports whether the unit is literal whitespace text.
func (c Char) IsSpace() bool {
	return c.Kind == CharText && (c.Rune == ' ' || c.Rune == '\t' || c.Rune == '\n' || c.Rune == '\r')
}

// Document is the contract shared by both variants.
type Document interface {
	Kind() Kind
	// Size is the number of addressable positions.
	Size() int
	// ContentRange is what select-all selects.
	ContentRange() position.Range
	// Projection returns exactly Size() runes: text as is, properties as
	// their placeholder, block boundaries as spaces.
	Projection() string
	CharAt(pos int) Char
	Apply(m *Mutation) (*position.Mapping, error)
	Reset()
}

func checkBounds(r position.Range, size int) error {
	if !r.Valid() || r.To > size {
		return errors.Errorf("%s outside [0,%d]: %w", r, size, ErrInvalidRange)
	}
	return nil
}
