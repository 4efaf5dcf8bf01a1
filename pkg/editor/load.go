package editor

import (
	"context"
	"regexp"
	"slices"
	"strings"

	"github.com/rs/zerolog"
	"github.com/walteh/propexpr/pkg/config"
	"github.com/walteh/propexpr/pkg/document"
	"github.com/walteh/propexpr/pkg/widget"
	"gitlab.com/tozd/go/errors"
	"go.uber.org/multierr"
)

// KnownProperty is a property an expression may name.
type KnownProperty struct {
	ID    string
	Name  string
	Value string
}

// Known lists the properties of cfg.
func Known(cfg *config.Config) []KnownProperty {
	out := make([]KnownProperty, 0, len(cfg.Properties))
	for _, p := range cfg.Properties {
		out = append(out, KnownProperty{ID: p.ID, Name: p.Label, Value: p.Value})
	}
	return out
}

var number = regexp.MustCompile(`^[0-9]+(\.[0-9]+)?$`)

// LoadFromExpression replaces the document with expr, split on whitespace.
// Operators, numbers and configured function names stay literal text; every
// other word must name a known property and becomes a token. Nothing is
// installed unless every word is recognized; the error lists every
// unrecognized word.
func (e *Editor) LoadFromExpression(ctx context.Context, expr string, known []KnownProperty) error {
	words := strings.Fields(expr)

	var err error
	var frags []document.Fragment
	var text []string
	flush := func() {
		if len(text) > 0 {
			frags = append(frags, document.TextFragment(strings.Join(text, "")))
			text = text[:0]
		}
	}

	offset := e.doc.ContentRange().From
	for i, w := range words {
		if i > 0 {
			text = append(text, " ")
			offset++
		}
		if slices.Contains(operators, w) || number.MatchString(w) || e.cfg.IsFunction(w) {
			text = append(text, w)
			offset += len([]rune(w))
			continue
		}
		k := slices.IndexFunc(known, func(p KnownProperty) bool { return p.Name == w })
		if k < 0 {
			err = multierr.Append(err, errors.Errorf("word %d %q: %w", i+1, w, ErrUnknownProperty))
			continue
		}
		flush()
		tok := e.tracker.CreateToken(widget.PropertyRef{ID: known[k].ID, Label: known[k].Name, Value: known[k].Value}, offset)
		frags = append(frags, document.PropertyFragment(tok.Property()))
		offset += tok.Range.Len()
	}
	flush()

	if err != nil {
		e.tracker.Discard()
		zerolog.Ctx(ctx).Debug().Str("editor", e.id.String()).Int("errors", len(multierr.Errors(err))).Msg("expression not loaded")
		return err
	}

	if err := e.replaceContent(ctx, frags); err != nil {
		return errors.Errorf("loading expression: %w", err)
	}
	return nil
}

// ValidateAgainstKnownProperties checks every token in the document against
// known by name and returns one error per unknown token.
func (e *Editor) ValidateAgainstKnownProperties(known []KnownProperty) error {
	var err error
	for _, tok := range e.tracker.Tokens() {
		if !slices.ContainsFunc(known, func(p KnownProperty) bool { return p.Name == tok.Label }) {
			err = multierr.Append(err, errors.Errorf("token %q at %s: %w", tok.Label, tok.Range, ErrUnknownProperty))
		}
	}
	return err
}
