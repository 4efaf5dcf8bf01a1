package document

import (
	"slices"
	"strings"

	"github.com/walteh/propexpr/pkg/position"
	"gitlab.com/tozd/go/errors"
)

const ParagraphType = "paragraph"

type itemKind int

const (
	itemOpen itemKind = iota
	itemClose
	itemRune
	itemProperty
)

// item is one addressable position. A property of size n is stored as n
// items sharing the same *Property, numbered by part.
type item struct {
	kind itemKind
	r    rune
	prop *Property
	part int
}

// Tree is a document of paragraphs holding text and property nodes. As in a
// ProseMirror document, opening and closing a paragraph take one position
// each, and a property node takes the length of its placeholder.
type Tree struct {
	items []item
}

var _ Document = (*Tree)(nil)

func NewTree() *Tree {
	t := &Tree{}
	t.Reset()
	return t
}

func (t *Tree) Kind() Kind { return KindTree }

func (t *Tree) Size() int { return len(t.items) }

func (t *Tree) Reset() {
	t.items = []item{{kind: itemOpen}, {kind: itemClose}}
}

func (t *Tree) ContentRange() position.Range {
	if len(t.items) < 2 {
		return position.Cursor(0)
	}
	return position.NewRange(1, len(t.items)-1)
}

func (t *Tree) Projection() string {
	var sb strings.Builder
	for _, it := range t.items {
		switch it.kind {
		case itemRune:
			sb.WriteRune(it.r)
		case itemProperty:
			sb.WriteRune([]rune(it.prop.Placeholder())[it.part])
		default:
			sb.WriteByte(' ')
		}
	}
	return sb.String()
}

func (t *Tree) CharAt(pos int) Char {
	if pos < 0 || pos >= len(t.items) {
		return Char{Kind: CharNone}
	}
	switch it := t.items[pos]; it.kind {
	case itemOpen:
		return Char{Kind: CharBlockStart}
	case itemClose:
		return Char{Kind: CharBlockEnd}
	case itemProperty:
		return Char{Kind: CharToken, Rune: []rune(it.prop.Placeholder())[it.part]}
	default:
		return Char{Kind: CharText, Rune: it.r}
	}
}

// PropertyAt returns the property node starting at pos.
func (t *Tree) PropertyAt(pos int) (Property, bool) {
	if pos < 0 || pos >= len(t.items) {
		return Property{}, false
	}
	it := t.items[pos]
	if it.kind != itemProperty || it.part != 0 {
		return Property{}, false
	}
	return *it.prop, true
}

func (t *Tree) Apply(m *Mutation) (*position.Mapping, error) {
	mapping := position.NewMapping()
	if m == nil {
		return mapping, nil
	}

	items := t.items
	for i, step := range m.Steps {
		if err := checkTreeStep(items, step); err != nil {
			return nil, errors.Errorf("applying step %d: %w", i, err)
		}
		ins := treeItems(step.Insert)
		items = slices.Concat(items[:step.Delete.From], ins, items[step.Delete.To:])
		mapping.Append(position.StepMap{Deleted: step.Delete, Inserted: len(ins)})
	}

	t.items = items
	return mapping, nil
}

func checkTreeStep(items []item, step Step) error {
	r := step.Delete
	if err := checkBounds(r, len(items)); err != nil {
		return err
	}
	if depthAt(items, r.From) != 1 || depthAt(items, r.To) != 1 {
		return errors.Errorf("%s does not start and end inside a paragraph: %w", r, ErrInvalidRange)
	}
	if cutsProperty(items, r.From) || cutsProperty(items, r.To) {
		return errors.Errorf("%s: %w", r, ErrPartialToken)
	}
	return nil
}

func depthAt(items []item, pos int) int {
	depth := 0
	for _, it := range items[:pos] {
		switch it.kind {
		case itemOpen:
			depth++
		case itemClose:
			depth--
		}
	}
	return depth
}

func cutsProperty(items []item, pos int) bool {
	return pos < len(items) && items[pos].kind == itemProperty && items[pos].part > 0
}

func treeItems(frags []Fragment) []item {
	var out []item
	for _, frag := range frags {
		switch {
		case frag.Break:
			out = append(out, item{kind: itemClose}, item{kind: itemOpen})
		case frag.Property != nil:
			p := *frag.Property
			for part := 0; part < p.Size(); part++ {
				out = append(out, item{kind: itemProperty, prop: &p, part: part})
			}
		default:
			for _, r := range frag.Text {
				out = append(out, item{kind: itemRune, r: r})
			}
		}
	}
	return out
}

// Inline is a child of a paragraph: *TextNode or *PropertyNode.
type Inline interface {
	Size() int
	isInline()
}

type TextNode struct {
	Text string
}

func (n *TextNode) Size() int { return len([]rune(n.Text)) }
func (*TextNode) isInline()   {}

type PropertyNode struct {
	Property Property
}

func (n *PropertyNode) Size() int { return n.Property.Size() }
func (*PropertyNode) isInline()   {}

// Block is a typed block node and its inline children.
type Block struct {
	Type     string
	Children []Inline
	// Pos is the offset of the block's opening position.
	Pos int
}

// Blocks returns the typed view of the document.
func (t *Tree) Blocks() []Block {
	var blocks []Block
	var cur *Block
	var text []rune
	flush := func() {
		if cur != nil && len(text) > 0 {
			cur.Children = append(cur.Children, &TextNode{Text: string(text)})
		}
		text = text[:0]
	}
	for pos, it := range t.items {
		switch it.kind {
		case itemOpen:
			blocks = append(blocks, Block{Type: ParagraphType, Pos: pos})
			cur = &blocks[len(blocks)-1]
		case itemClose:
			flush()
			cur = nil
		case itemRune:
			text = append(text, it.r)
		case itemProperty:
			if it.part == 0 {
				flush()
				cur.Children = append(cur.Children, &PropertyNode{Property: *it.prop})
			}
		}
	}
	return blocks
}

// Walk calls fn for every inline node in document order with the offset the
// node starts at. Returning false stops the walk.
func (t *Tree) Walk(fn func(n Inline, pos int) bool) {
	for _, b := range t.Blocks() {
		pos := b.Pos + 1
		for _, child := range b.Children {
			if !fn(child, pos) {
				return
			}
			pos += child.Size()
		}
	}
}
