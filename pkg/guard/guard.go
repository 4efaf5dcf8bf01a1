// Package guard decides what destructive keystrokes do to a document holding
// property tokens. Tokens are only ever removed whole.
package guard

import (
	"unicode/utf8"

	"github.com/apparentlymart/go-textseg/v13/textseg"
	"github.com/walteh/propexpr/pkg/document"
	"github.com/walteh/propexpr/pkg/position"
	"github.com/walteh/propexpr/pkg/widget"
)

type Key int

const (
	KeyBackspace Key = iota + 1
	KeyDelete
	KeySelectAll
)

func (k Key) String() string {
	switch k {
	case KeyBackspace:
		return "Backspace"
	case KeyDelete:
		return "Delete"
	case KeySelectAll:
		return "SelectAll"
	default:
		return "unknown"
	}
}

// Decision is the outcome of a keystroke. A handled decision without a
// mutation consumes the key; Selection, when set, replaces the selection.
type Decision struct {
	Rule      string
	Handled   bool
	Mutation  *document.Mutation
	Selection *position.Range
}

type input struct {
	key Key
	sel position.Range
	// dir is -1 for Backspace and +1 for Delete
	dir int
}

type rule struct {
	name  string
	apply func(g *Guard, in input) (Decision, bool)
}

// rules run in order; the first one that matches decides.
var rules = []rule{
	{"select-all", (*Guard).selectAll},
	{"arm", (*Guard).arm},
	{"delete-token", (*Guard).deleteToken},
	{"delete-selection", (*Guard).deleteSelection},
	{"protect-token", (*Guard).protect},
	{"join-blocks", (*Guard).joinBlocks},
	{"delete-char", (*Guard).deleteChar},
}

// maxClusterRunes bounds how far the guard looks for a grapheme cluster.
const maxClusterRunes = 32

type Guard struct {
	doc     document.Document
	tracker *widget.Tracker
}

func New(doc document.Document, tracker *widget.Tracker) *Guard {
	return &Guard{doc: doc, tracker: tracker}
}

// Handle evaluates key against the current selection.
func (g *Guard) Handle(key Key, sel position.Range) Decision {
	in := input{key: key, sel: sel, dir: -1}
	if key == KeyDelete {
		in.dir = 1
	}
	for _, r := range rules {
		if d, ok := r.apply(g, in); ok {
			d.Rule = r.name
			return d
		}
	}
	return Decision{Rule: "none"}
}

func (g *Guard) selectAll(in input) (Decision, bool) {
	if in.key != KeySelectAll {
		return Decision{}, false
	}
	all := g.doc.ContentRange()
	return Decision{Handled: true, Selection: &all}, true
}

// arm selects the token the cursor touches from the side the key deletes
// towards, so that only the next press removes it.
func (g *Guard) arm(in input) (Decision, bool) {
	if !in.sel.Empty() {
		return Decision{}, false
	}
	var tok widget.Token
	var ok bool
	if in.dir < 0 {
		tok, ok = g.tracker.FindTokenEndingAt(in.sel.From)
	} else {
		tok, ok = g.tracker.FindTokenStartingAt(in.sel.From)
	}
	if !ok {
		return Decision{}, false
	}
	r := tok.Range
	return Decision{Handled: true, Selection: &r}, true
}

func (g *Guard) deleteToken(in input) (Decision, bool) {
	var tok widget.Token
	var ok bool
	if in.sel.Empty() {
		tok, ok = g.tracker.FindTokenStrictlyContaining(in.sel.From)
	} else {
		tok, ok = g.tracker.FindTokenMatching(in.sel)
	}
	if !ok {
		return Decision{}, false
	}

	del := tok.Range
	if g.doc.CharAt(del.From - 1).IsSpace() {
		del.From--
	} else if g.doc.CharAt(del.To).IsSpace() {
		del.To++
	}

	cursor := position.Cursor(del.From)
	return Decision{
		Handled: true,
		Mutation: &document.Mutation{
			Steps:        []document.Step{document.DeleteStep(del)},
			DeleteTokens: []string{tok.InstanceID},
			Selection:    &cursor,
		},
		Selection: &cursor,
	}, true
}

func (g *Guard) deleteSelection(in input) (Decision, bool) {
	if in.sel.Empty() {
		return Decision{}, false
	}
	m := DeleteRange(g.tracker, in.sel)
	return Decision{Handled: true, Mutation: m, Selection: m.Selection}, true
}

// protect swallows a keystroke whose grapheme cluster would bite into a token.
func (g *Guard) protect(in input) (Decision, bool) {
	cluster, ok := g.cluster(in)
	if !ok {
		return Decision{}, false
	}
	if len(g.tracker.Overlapping(cluster)) == 0 {
		return Decision{}, false
	}
	return Decision{Handled: true}, true
}

// joinBlocks merges a paragraph with its neighbour when the cursor sits on a
// paragraph edge of the tree variant.
func (g *Guard) joinBlocks(in input) (Decision, bool) {
	p := in.sel.From
	var edge, beyond document.CharKind
	var join position.Range
	if in.dir < 0 {
		edge, beyond = g.doc.CharAt(p-1).Kind, g.doc.CharAt(p-2).Kind
		join = position.NewRange(p-2, p)
		if edge != document.CharBlockStart {
			return Decision{}, false
		}
		if beyond != document.CharBlockEnd {
			return Decision{Handled: true}, true
		}
	} else {
		edge, beyond = g.doc.CharAt(p).Kind, g.doc.CharAt(p+1).Kind
		join = position.NewRange(p, p+2)
		if edge != document.CharBlockEnd {
			return Decision{}, false
		}
		if beyond != document.CharBlockStart {
			return Decision{Handled: true}, true
		}
	}

	cursor := position.Cursor(join.From)
	return Decision{
		Handled: true,
		Mutation: &document.Mutation{
			Steps:     []document.Step{document.DeleteStep(join)},
			Selection: &cursor,
		},
		Selection: &cursor,
	}, true
}

func (g *Guard) deleteChar(in input) (Decision, bool) {
	cluster, ok := g.cluster(in)
	if !ok {
		// nothing to delete at a document edge
		return Decision{Handled: true}, true
	}
	cursor := position.Cursor(cluster.From)
	return Decision{
		Handled: true,
		Mutation: &document.Mutation{
			Steps:     []document.Step{document.DeleteStep(cluster)},
			Selection: &cursor,
		},
		Selection: &cursor,
	}, true
}

// cluster returns the range of the grapheme cluster the key would remove.
func (g *Guard) cluster(in input) (position.Range, bool) {
	p := in.sel.From
	var run []rune
	if in.dir < 0 {
		for i := p - 1; i >= 0 && len(run) < maxClusterRunes; i-- {
			c := g.doc.CharAt(i)
			if !inline(c) {
				break
			}
			run = append([]rune{c.Rune}, run...)
		}
		if len(run) == 0 {
			return position.Range{}, false
		}
		return position.NewRange(p-lastClusterLen(string(run)), p), true
	}

	for i := p; len(run) < maxClusterRunes; i++ {
		c := g.doc.CharAt(i)
		if !inline(c) {
			break
		}
		run = append(run, c.Rune)
	}
	if len(run) == 0 {
		return position.Range{}, false
	}
	return position.NewRange(p, p+firstClusterLen(string(run))), true
}

// inline reports whether c takes part in grapheme segmentation. Token
// characters are included so that a cluster straddling a token edge is seen.
func inline(c document.Char) bool {
	return c.Kind == document.CharText || c.Kind == document.CharToken
}

func firstClusterLen(s string) int {
	_, tok, err := textseg.ScanGraphemeClusters([]byte(s), true)
	if err != nil || len(tok) == 0 {
		return 1
	}
	return utf8.RuneCount(tok)
}

func lastClusterLen(s string) int {
	data := []byte(s)
	n := 1
	for len(data) > 0 {
		adv, tok, err := textseg.ScanGraphemeClusters(data, true)
		if err != nil || adv == 0 {
			break
		}
		n = utf8.RuneCount(tok)
		data = data[adv:]
	}
	return n
}

// DeleteRange builds the mutation removing r, widened so that every token it
// touches goes whole.
func DeleteRange(tracker *widget.Tracker, r position.Range) *document.Mutation {
	m := &document.Mutation{}
	for _, tok := range tracker.Overlapping(r) {
		r = r.Union(tok.Range)
		m.DeleteTokens = append(m.DeleteTokens, tok.InstanceID)
	}
	cursor := position.Cursor(r.From)
	m.Steps = []document.Step{document.DeleteStep(r)}
	m.Selection = &cursor
	return m
}
