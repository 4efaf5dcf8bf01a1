// Package editor ties a document, its property tokens and the expression
// analysis together behind the commands a user interface issues. Every
// accepted mutation is applied, the tokens remapped, the projection
// re-tokenized and re-validated before the call returns.
package editor

import (
	"context"
	"slices"
	"strings"

	"github.com/rs/xid"
	"github.com/rs/zerolog"
	"github.com/walteh/propexpr/pkg/config"
	"github.com/walteh/propexpr/pkg/diagnostic"
	"github.com/walteh/propexpr/pkg/document"
	"github.com/walteh/propexpr/pkg/dragdrop"
	"github.com/walteh/propexpr/pkg/guard"
	"github.com/walteh/propexpr/pkg/position"
	"github.com/walteh/propexpr/pkg/semtok"
	"github.com/walteh/propexpr/pkg/widget"
	"gitlab.com/tozd/go/errors"
)

var (
	ErrUnknownProperty = errors.Base("unknown property")
	ErrUnknownFunction = errors.Base("unknown function")
	ErrUnknownOperator = errors.Base("unknown operator")
)

// Editor is not safe for concurrent use.
type Editor struct {
	id      xid.ID
	cfg     *config.Config
	doc     document.Document
	tracker *widget.Tracker
	guard   *guard.Guard
	drag    *dragdrop.Resolver

	sel    position.Range
	tokens []semtok.Token
	errs   []diagnostic.SyntaxError
	diags  *diagnostic.Diagnostics
}

type options struct {
	cfg     *config.Config
	layout  dragdrop.Layout
	tracker []widget.Option
}

type Option func(*options)

func WithConfig(cfg *config.Config) Option {
	return func(o *options) { o.cfg = cfg }
}

// WithLayout supplies the geometry drag and drop resolves against.
func WithLayout(l dragdrop.Layout) Option {
	return func(o *options) { o.layout = l }
}

func WithTrackerOptions(opts ...widget.Option) Option {
	return func(o *options) { o.tracker = append(o.tracker, opts...) }
}

// nopLayout knows nothing about geometry, so drops snap to the nearest
// token boundary.
type nopLayout struct{}

func (nopLayout) TokenAt(dragdrop.Point) (string, dragdrop.Box, bool) {
	return "", dragdrop.Box{}, false
}

func (nopLayout) PosAtCoords(dragdrop.Point) (int, bool) { return 0, false }

// New creates an empty editor over a document of the given kind.
func New(ctx context.Context, kind document.Kind, opts ...Option) (*Editor, error) {
	o := &options{cfg: config.Default(), layout: nopLayout{}}
	for _, opt := range opts {
		opt(o)
	}

	var doc document.Document
	switch kind {
	case document.KindFlat:
		doc = document.NewFlat()
	case document.KindTree:
		doc = document.NewTree()
	default:
		return nil, errors.Errorf("creating editor: unknown document kind %d", kind)
	}

	e := &Editor{
		id:      xid.New(),
		cfg:     o.cfg,
		doc:     doc,
		tracker: widget.NewTracker(kind, o.tracker...),
	}
	e.guard = guard.New(e.doc, e.tracker)
	if kind == document.KindTree {
		r, err := dragdrop.New(e.doc, e.tracker, o.layout)
		if err != nil {
			return nil, errors.Errorf("creating drag resolver: %w", err)
		}
		e.drag = r
	}
	e.sel = position.Cursor(e.doc.ContentRange().From)
	e.refresh()

	zerolog.Ctx(ctx).Debug().Str("editor", e.id.String()).Stringer("kind", kind).Msg("editor created")
	return e, nil
}

func (e *Editor) ID() string { return e.id.String() }

func (e *Editor) Kind() document.Kind { return e.doc.Kind() }

func (e *Editor) Config() *config.Config { return e.cfg }

// Projection is the document's linear text view.
func (e *Editor) Projection() string { return e.doc.Projection() }

func (e *Editor) Selection() position.Range { return e.sel }

// SetSelection replaces the selection, clamped to the document content.
func (e *Editor) SetSelection(r position.Range) error {
	if !r.Valid() {
		return errors.Errorf("selection %s: %w", r, document.ErrInvalidRange)
	}
	content := e.doc.ContentRange()
	e.sel = position.NewRange(clamp(r.From, content), clamp(r.To, content))
	return nil
}

func clamp(pos int, r position.Range) int {
	return min(max(pos, r.From), r.To)
}

// Tokens returns the lexical tokens of the current projection.
func (e *Editor) Tokens() []semtok.Token { return slices.Clone(e.tokens) }

// TrackedTokens returns copies of the property tokens in document order.
func (e *Editor) TrackedTokens() []widget.Token { return e.tracker.Tokens() }

func (e *Editor) SyntaxErrors() []diagnostic.SyntaxError { return slices.Clone(e.errs) }

func (e *Editor) Diagnostics() *diagnostic.Diagnostics { return e.diags }

// MatchBracket returns the bracket at the cursor and its partner.
func (e *Editor) MatchBracket() (at, partner semtok.Token, ok bool) {
	return semtok.MatchBracket(e.tokens, e.sel.To)
}

// Stats counts property tokens in the document and in the selection.
type Stats struct {
	Total    int
	Selected int
}

func (e *Editor) Stats() Stats {
	s := Stats{Total: e.tracker.Len()}
	if e.sel.Empty() {
		return s
	}
	for _, tok := range e.tracker.Tokens() {
		if e.sel.Covers(tok.Range) {
			s.Selected++
		}
	}
	return s
}

// PlainProjection joins the text runs and token labels of the document with
// single spaces.
func (e *Editor) PlainProjection() string {
	runes := []rune(e.doc.Projection())
	var parts []string
	addText := func(from, to int) {
		if s := strings.TrimSpace(string(runes[from:to])); s != "" {
			parts = append(parts, s)
		}
	}

	cursor := 0
	for _, tok := range e.tracker.Tokens() {
		addText(cursor, tok.Range.From)
		parts = append(parts, tok.Label)
		cursor = tok.Range.To
	}
	addText(cursor, len(runes))
	return strings.Join(parts, " ")
}

// Apply applies m. A single-step deletion that cuts into a token is widened
// so that the token goes whole, and a single-step insertion point inside a
// token moves to the token's end. A mutation of several steps must not cut
// into any token, including ones its earlier steps insert.
func (e *Editor) Apply(ctx context.Context, m *document.Mutation) error {
	if m == nil {
		return nil
	}
	if len(m.Steps) != 1 {
		if err := e.checkSteps(m); err != nil {
			e.tracker.Discard()
			zerolog.Ctx(ctx).Debug().Str("editor", e.id.String()).Err(err).Msg("mutation rejected")
			return errors.Errorf("applying mutation: %w", err)
		}
		return e.apply(ctx, m)
	}

	step := m.Steps[0]
	if step.Delete.Empty() {
		if tok, ok := e.tracker.FindTokenStrictlyContaining(step.Delete.From); ok {
			step.Delete = position.Cursor(tok.Range.To)
		}
	} else {
		w := guard.DeleteRange(e.tracker, step.Delete)
		step.Delete = w.Steps[0].Delete
		for _, id := range w.DeleteTokens {
			if !slices.Contains(m.DeleteTokens, id) {
				m.DeleteTokens = append(m.DeleteTokens, id)
			}
		}
	}
	m.Steps[0] = step
	return e.apply(ctx, m)
}

// checkSteps walks the token ranges through m step by step and fails on the
// first step that deletes part of a token or inserts strictly inside one.
func (e *Editor) checkSteps(m *document.Mutation) error {
	var ranges []position.Range
	for _, tok := range e.tracker.Tokens() {
		ranges = append(ranges, tok.Range)
	}

	for i, step := range m.Steps {
		for _, r := range ranges {
			if step.Delete.Overlaps(r) && !step.Delete.Covers(r) {
				return errors.Errorf("step %d at %s cuts %s: %w", i, step.Delete, r, document.ErrPartialToken)
			}
		}

		inserted := 0
		var added []position.Range
		for _, frag := range step.Insert {
			size := frag.Size(e.doc.Kind())
			if frag.Property != nil {
				at := step.Delete.From + inserted
				added = append(added, position.NewRange(at, at+size))
			}
			inserted += size
		}

		mapping := position.NewMapping(position.StepMap{Deleted: step.Delete, Inserted: inserted})
		next := make([]position.Range, 0, len(ranges)+len(added))
		for _, r := range ranges {
			if r = mapping.MapRange(r); !r.Empty() {
				next = append(next, r)
			}
		}
		ranges = append(next, added...)
	}
	return nil
}

// apply runs the mutation pipeline: apply, remap, tokenize, validate.
func (e *Editor) apply(ctx context.Context, m *document.Mutation) error {
	log := zerolog.Ctx(ctx).With().Str("editor", e.id.String()).Logger()

	mapping, err := e.doc.Apply(m)
	if err != nil {
		e.tracker.Discard()
		log.Debug().Err(err).Msg("mutation rejected")
		return errors.Errorf("applying mutation: %w", err)
	}

	released := e.tracker.OnMutationApplied(m, mapping)
	if len(released) > 0 {
		log.Debug().Strs("released", released).Msg("tokens released")
	}

	if m.Selection != nil {
		e.sel = *m.Selection
	} else if e.sel.Empty() {
		e.sel = position.Cursor(mapping.Map(e.sel.From, position.BiasForward))
	} else {
		e.sel = mapping.MapRange(e.sel)
	}
	content := e.doc.ContentRange()
	from, to := clamp(e.sel.From, content), clamp(e.sel.To, content)
	e.sel = position.NewRange(min(from, to), max(from, to))

	e.refresh()
	log.Trace().
		Int("steps", len(m.Steps)).
		Int("tokens", e.tracker.Len()).
		Int("syntax_errors", len(e.errs)).
		Stringer("selection", e.sel).
		Msg("mutation applied")
	return nil
}

func (e *Editor) refresh() {
	projection := e.doc.Projection()
	var atoms []semtok.Atom
	for _, tok := range e.tracker.Tokens() {
		atoms = append(atoms, semtok.Atom{Range: tok.Range, Label: tok.Label})
	}
	e.tokens = semtok.Tokenize(projection, atoms, e.cfg.Vocabulary())
	e.errs = diagnostic.Validate(e.tokens)
	e.diags = diagnostic.Generate(projection, e.tokens)
}

// replacement returns the range a command inserting at the selection
// replaces, widened over any token it touches, and the tokens it removes.
func (e *Editor) replacement() (position.Range, []string) {
	if e.sel.Empty() {
		if tok, ok := e.tracker.FindTokenStrictlyContaining(e.sel.From); ok {
			return position.Cursor(tok.Range.To), nil
		}
		return e.sel, nil
	}
	w := guard.DeleteRange(e.tracker, e.sel)
	return w.Steps[0].Delete, w.DeleteTokens
}

// padded reports whether the unit at pos needs a separating space.
func padded(c document.Char) bool {
	switch c.Kind {
	case document.CharNone, document.CharBlockStart, document.CharBlockEnd:
		return false
	default:
		return !c.IsSpace()
	}
}

// InsertToken replaces the selection with a token for ref, padding it with a
// space on either side where the neighbour is neither whitespace nor a
// boundary.
func (e *Editor) InsertToken(ctx context.Context, ref widget.PropertyRef) (widget.Token, error) {
	if ref.Label == "" {
		return widget.Token{}, errors.Errorf("inserting token %q: empty label: %w", ref.ID, ErrUnknownProperty)
	}

	r, deleted := e.replacement()
	var frags []document.Fragment
	at := r.From
	if padded(e.doc.CharAt(r.From - 1)) {
		frags = append(frags, document.TextFragment(" "))
		at++
	}
	tok := e.tracker.CreateToken(ref, at)
	frags = append(frags, document.PropertyFragment(tok.Property()))
	end := tok.Range.To
	if padded(e.doc.CharAt(r.To)) {
		frags = append(frags, document.TextFragment(" "))
		end++
	}

	cursor := position.Cursor(end)
	err := e.apply(ctx, &document.Mutation{
		Steps:        []document.Step{{Delete: r, Insert: frags}},
		DeleteTokens: deleted,
		Selection:    &cursor,
	})
	if err != nil {
		return widget.Token{}, errors.Errorf("inserting token %q: %w", ref.Label, err)
	}

	got, _ := e.tracker.Get(tok.InstanceID)
	return got, nil
}

// InsertText replaces the selection with s. Line breaks become paragraph
// breaks.
func (e *Editor) InsertText(ctx context.Context, s string) error {
	r, deleted := e.replacement()

	var frags []document.Fragment
	size := 0
	for i, line := range strings.Split(s, "\n") {
		if i > 0 {
			frags = append(frags, document.BreakFragment())
		}
		if line != "" {
			frags = append(frags, document.TextFragment(line))
		}
	}
	for _, f := range frags {
		size += f.Size(e.doc.Kind())
	}

	cursor := position.Cursor(r.From + size)
	if err := e.apply(ctx, &document.Mutation{
		Steps:        []document.Step{{Delete: r, Insert: frags}},
		DeleteTokens: deleted,
		Selection:    &cursor,
	}); err != nil {
		return errors.Errorf("inserting text: %w", err)
	}
	return nil
}

var operators = []string{"+", "-", "*", "/", "(", ")", ","}

// InsertOperator inserts op followed by a space.
func (e *Editor) InsertOperator(ctx context.Context, op string) error {
	if !slices.Contains(operators, op) {
		return errors.Errorf("inserting %q: %w", op, ErrUnknownOperator)
	}
	return e.InsertText(ctx, op+" ")
}

// InsertFunction inserts an empty call of a configured function.
func (e *Editor) InsertFunction(ctx context.Context, name string) error {
	if !e.cfg.IsFunction(name) {
		return errors.Errorf("inserting %q: %w", name, ErrUnknownFunction)
	}
	return e.InsertText(ctx, name+"() ")
}

// KeyDown routes a destructive key through the edit guard. It reports whether
// the key was handled.
func (e *Editor) KeyDown(ctx context.Context, key guard.Key) (bool, error) {
	d := e.guard.Handle(key, e.sel)
	zerolog.Ctx(ctx).Trace().Str("editor", e.id.String()).Stringer("key", key).Str("rule", d.Rule).Msg("key down")

	if d.Mutation != nil {
		if err := e.apply(ctx, d.Mutation); err != nil {
			return d.Handled, errors.Errorf("handling %s: %w", key, err)
		}
	}
	if d.Selection != nil {
		e.sel = *d.Selection
	}
	return d.Handled, nil
}

// replaceContent swaps the whole document for frags in one mutation.
func (e *Editor) replaceContent(ctx context.Context, frags []document.Fragment) error {
	var ids []string
	for _, tok := range e.tracker.Tokens() {
		ids = append(ids, tok.InstanceID)
	}
	content := e.doc.ContentRange()
	end := content.From
	for _, f := range frags {
		end += f.Size(e.doc.Kind())
	}
	cursor := position.Cursor(end)
	return e.apply(ctx, &document.Mutation{
		Steps:        []document.Step{{Delete: content, Insert: frags}},
		DeleteTokens: ids,
		Selection:    &cursor,
	})
}

// Reset empties the document.
func (e *Editor) Reset(ctx context.Context) error {
	return e.replaceContent(ctx, nil)
}
