package editor

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"

	"github.com/rs/zerolog"
	"github.com/walteh/propexpr/pkg/document"
	"github.com/walteh/propexpr/pkg/widget"
	"gitlab.com/tozd/go/errors"
)

var ErrMalformedState = errors.Base("malformed state")

const (
	NodeText     = "text"
	NodeProperty = "property"
	NodeBreak    = "break"
)

// State is the structured form of a document: its content in order, with
// paragraph breaks between paragraphs.
type State struct {
	Kind    string `json:"kind"`
	Content []Node `json:"content"`
}

type Node struct {
	Type  string     `json:"type"`
	Text  string     `json:"text,omitempty"`
	Attrs *NodeAttrs `json:"attrs,omitempty"`
}

type NodeAttrs struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Value string `json:"value"`
}

// ExportState captures the document.
func (e *Editor) ExportState() State {
	st := State{Kind: e.doc.Kind().String(), Content: []Node{}}

	starts := map[int]widget.Token{}
	for _, tok := range e.tracker.Tokens() {
		starts[tok.Range.From] = tok
	}

	var text strings.Builder
	flush := func() {
		if text.Len() > 0 {
			st.Content = append(st.Content, Node{Type: NodeText, Text: text.String()})
			text.Reset()
		}
	}

	content := e.doc.ContentRange()
	for pos := content.From; pos < content.To; {
		if tok, ok := starts[pos]; ok {
			flush()
			st.Content = append(st.Content, Node{
				Type:  NodeProperty,
				Attrs: &NodeAttrs{ID: tok.ID, Label: tok.Label, Value: tok.Value},
			})
			pos = tok.Range.To
			continue
		}
		c := e.doc.CharAt(pos)
		switch c.Kind {
		case document.CharBlockEnd:
			flush()
			st.Content = append(st.Content, Node{Type: NodeBreak})
			// skip the closing and the next opening position
			pos += 2
			continue
		case document.CharText, document.CharToken:
			text.WriteRune(c.Rune)
		}
		pos++
	}
	flush()
	return st
}

// entry is one node of a validated state: a fragment, or a property still
// to be turned into a token.
type entry struct {
	frag document.Fragment
	ref  *widget.PropertyRef
}

func (st State) entries() ([]entry, error) {
	if st.Kind != "" {
		if _, err := document.ParseKind(st.Kind); err != nil {
			return nil, errors.Errorf("%s: %w", err, ErrMalformedState)
		}
	}

	var out []entry
	for i, n := range st.Content {
		switch n.Type {
		case NodeText:
			if n.Text != "" {
				out = append(out, entry{frag: document.TextFragment(n.Text)})
			}
		case NodeBreak:
			out = append(out, entry{frag: document.BreakFragment()})
		case NodeProperty:
			if n.Attrs == nil || n.Attrs.Label == "" {
				return nil, errors.Errorf("node %d: property without a label: %w", i, ErrMalformedState)
			}
			out = append(out, entry{ref: &widget.PropertyRef{ID: n.Attrs.ID, Label: n.Attrs.Label, Value: n.Attrs.Value}})
		default:
			return nil, errors.Errorf("node %d: unknown type %q: %w", i, n.Type, ErrMalformedState)
		}
	}
	return out, nil
}

// ImportState replaces the document with st. A malformed state leaves the
// document untouched.
func (e *Editor) ImportState(ctx context.Context, st State) error {
	entries, err := st.entries()
	if err != nil {
		zerolog.Ctx(ctx).Debug().Str("editor", e.id.String()).Err(err).Msg("state rejected")
		return err
	}

	frags := make([]document.Fragment, 0, len(entries))
	offset := e.doc.ContentRange().From
	for _, en := range entries {
		f := en.frag
		if en.ref != nil {
			tok := e.tracker.CreateToken(*en.ref, offset)
			f = document.PropertyFragment(tok.Property())
		}
		frags = append(frags, f)
		offset += f.Size(e.doc.Kind())
	}

	if err := e.replaceContent(ctx, frags); err != nil {
		return errors.Errorf("importing state: %w", err)
	}
	return nil
}

func MarshalState(st State) ([]byte, error) {
	data, err := json.Marshal(st)
	if err != nil {
		return nil, errors.Errorf("encoding state: %w", err)
	}
	return data, nil
}

func UnmarshalState(data []byte) (State, error) {
	var st State
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&st); err != nil {
		return State{}, errors.Errorf("decoding state: %s: %w", err, ErrMalformedState)
	}
	if _, err := st.entries(); err != nil {
		return State{}, err
	}
	return st, nil
}
