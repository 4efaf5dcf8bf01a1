package document

import (
	"slices"

	"github.com/walteh/propexpr/pkg/position"
	"gitlab.com/tozd/go/errors"
)

// Flat is plain text in which property tokens are spans of placeholder text.
// It has no notion of where those spans are; the widget tracker keeps that.
type Flat struct {
	text []rune
}

var _ Document = (*Flat)(nil)

func NewFlat() *Flat {
	return &Flat{}
}

func NewFlatFromText(s string) *Flat {
	return &Flat{text: []rune(s)}
}

func (f *Flat) Kind() Kind { return KindFlat }

func (f *Flat) Size() int { return len(f.text) }

func (f *Flat) ContentRange() position.Range {
	return position.NewRange(0, len(f.text))
}

func (f *Flat) Projection() string { return string(f.text) }

func (f *Flat) Text() string { return string(f.text) }

func (f *Flat) CharAt(pos int) Char {
	if pos < 0 || pos >= len(f.text) {
		return Char{Kind: CharNone}
	}
	return Char{Kind: CharText, Rune: f.text[pos]}
}

func (f *Flat) Reset() {
	f.text = nil
}

func (f *Flat) Apply(m *Mutation) (*position.Mapping, error) {
	mapping := position.NewMapping()
	if m == nil {
		return mapping, nil
	}

	text := f.text
	for i, step := range m.Steps {
		if err := checkBounds(step.Delete, len(text)); err != nil {
			return nil, errors.Errorf("applying step %d: %w", i, err)
		}
		ins := flatRunes(step.Insert)
		text = slices.Concat(text[:step.Delete.From], ins, text[step.Delete.To:])
		mapping.Append(position.StepMap{Deleted: step.Delete, Inserted: len(ins)})
	}

	f.text = text
	return mapping, nil
}

func flatRunes(frags []Fragment) []rune {
	var out []rune
	for _, frag := range frags {
		switch {
		case frag.Break:
			out = append(out, '\n')
		case frag.Property != nil:
			out = append(out, []rune(frag.Property.Placeholder())...)
		default:
			out = append(out, []rune(frag.Text)...)
		}
	}
	return out
}
