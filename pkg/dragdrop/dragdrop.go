// Package dragdrop moves property tokens of a tree document by drag and drop.
// Geometry comes from a Layout supplied by the renderer; the resolver only
// turns gestures into mutations.
package dragdrop

import (
	"context"
	"encoding/json"
	"slices"

	"github.com/rs/zerolog"
	"github.com/walteh/propexpr/pkg/document"
	"github.com/walteh/propexpr/pkg/position"
	"github.com/walteh/propexpr/pkg/widget"
	"gitlab.com/tozd/go/errors"
)

var (
	ErrNotTree          = errors.Base("drag and drop needs a tree document")
	ErrMalformedPayload = errors.Base("malformed drag payload")
	ErrUnknownToken     = errors.Base("unknown token")
)

const PayloadType = "property"

type Point struct {
	X, Y float64
}

type Box struct {
	Left, Top, Width, Height float64
}

// Layout answers geometry questions about the rendered document.
type Layout interface {
	// TokenAt returns the token under p and its rendered box.
	TokenAt(p Point) (instanceID string, box Box, ok bool)
	// PosAtCoords resolves p to a document offset.
	PosAtCoords(p Point) (int, bool)
}

type Side int

const (
	SideNone Side = iota
	SideBefore
	SideAfter
)

func (s Side) String() string {
	switch s {
	case SideBefore:
		return "before"
	case SideAfter:
		return "after"
	default:
		return "none"
	}
}

type State int

const (
	StateIdle State = iota
	StateDragging
	StateHovering
)

func (s State) String() string {
	switch s {
	case StateDragging:
		return "dragging"
	case StateHovering:
		return "hovering"
	default:
		return "idle"
	}
}

// Attrs are the property attributes carried by a drag.
type Attrs struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Value string `json:"value"`
}

// Payload is the data transferred from drag start to drop.
type Payload struct {
	Type  string `json:"type"`
	Attrs Attrs  `json:"attrs"`
	Pos   int    `json:"pos"`
}

// ParsePayload decodes and checks drag data.
func ParsePayload(data []byte) (Payload, error) {
	var p Payload
	if err := json.Unmarshal(data, &p); err != nil {
		return Payload{}, errors.Errorf("decoding payload: %s: %w", err, ErrMalformedPayload)
	}
	if p.Type != PayloadType || p.Attrs.Label == "" {
		return Payload{}, errors.Errorf("payload type %q label %q: %w", p.Type, p.Attrs.Label, ErrMalformedPayload)
	}
	return p, nil
}

// Context exists between drag start and drag end.
type Context struct {
	Source widget.Token
	// Target is the range of the hovered token, if any
	Target    *position.Range
	TargetID  string
	Side      Side
	Candidate int
}

// Decorations is what the renderer needs to draw the drag.
type Decorations struct {
	Active bool
	Lifted string
	Over   string
	Side   Side
}

type Resolver struct {
	tracker *widget.Tracker
	layout  Layout
	state   State
	ctx     *Context
}

func New(doc document.Document, tracker *widget.Tracker, layout Layout) (*Resolver, error) {
	if doc.Kind() != document.KindTree {
		return nil, errors.Errorf("%s document: %w", doc.Kind(), ErrNotTree)
	}
	return &Resolver{tracker: tracker, layout: layout}, nil
}

func (r *Resolver) State() State {
	return r.state
}

// Context returns the active drag context, nil when idle.
func (r *Resolver) Context() *Context {
	return r.ctx
}

// Start begins dragging the token instanceID and returns the drag payload.
// It is not handled when instanceID is not a tracked token.
func (r *Resolver) Start(ctx context.Context, instanceID string) ([]byte, bool) {
	tok, ok := r.tracker.Get(instanceID)
	if !ok {
		zerolog.Ctx(ctx).Debug().Str("instance", instanceID).Msg("drag start outside a token")
		return nil, false
	}

	data, err := json.Marshal(Payload{
		Type:  PayloadType,
		Attrs: Attrs{ID: tok.ID, Label: tok.Label, Value: tok.Value},
		Pos:   tok.Range.From,
	})
	if err != nil {
		return nil, false
	}

	r.ctx = &Context{Source: tok}
	r.state = StateDragging
	zerolog.Ctx(ctx).Debug().Str("instance", instanceID).Stringer("range", tok.Range).Msg("drag started")
	return data, true
}

// Over tracks the hover target under p. A candidate is kept only when it is a
// token boundary other than 0.
func (r *Resolver) Over(ctx context.Context, p Point) {
	if r.ctx == nil {
		return
	}
	r.clearTarget()

	id, box, ok := r.layout.TokenAt(p)
	if !ok {
		return
	}
	tok, ok := r.tracker.Get(id)
	if !ok {
		return
	}

	side := SideAfter
	candidate := tok.Range.To
	if p.X < box.Left+box.Width/2 {
		side = SideBefore
		candidate = tok.Range.From
	}
	if !r.valid(candidate) {
		return
	}

	target := tok.Range
	r.ctx.Target = &target
	r.ctx.TargetID = id
	r.ctx.Side = side
	r.ctx.Candidate = candidate
	r.state = StateHovering
	zerolog.Ctx(ctx).Trace().Str("over", id).Stringer("side", side).Int("candidate", candidate).Msg("drag over")
}

func (r *Resolver) clearTarget() {
	r.ctx.Target = nil
	r.ctx.TargetID = ""
	r.ctx.Side = SideNone
	r.ctx.Candidate = 0
	r.state = StateDragging
}

func (r *Resolver) valid(pos int) bool {
	return pos != 0 && slices.Contains(r.tracker.Boundaries(), pos)
}

// nearest snaps pos to the closest token boundary, preferring the earlier one
// on ties.
func (r *Resolver) nearest(pos int) (int, bool) {
	best, found := 0, false
	for _, b := range r.tracker.Boundaries() {
		if b == 0 {
			continue
		}
		if !found || abs(b-pos) < abs(best-pos) {
			best, found = b, true
		}
	}
	return best, found
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// Drop builds the move mutation: a new token with the payload's attributes
// inserted at the destination, then the original deleted. The caller applies
// it; the new token stays pending in the tracker until then, and the next
// mutation applied without it forgets it. A malformed payload yields an error
// and no mutation.
func (r *Resolver) Drop(ctx context.Context, p Point, data []byte) (*document.Mutation, error) {
	payload, err := ParsePayload(data)
	if err != nil {
		return nil, err
	}

	orig, err := r.source(payload)
	if err != nil {
		return nil, err
	}

	dest, ok := r.destination(p)
	if !ok {
		return nil, errors.Errorf("no token boundary to drop on: %w", ErrUnknownToken)
	}

	moved := r.tracker.CreateToken(widget.PropertyRef{
		ID:    payload.Attrs.ID,
		Label: payload.Attrs.Label,
		Value: payload.Attrs.Value,
	}, dest)
	size := moved.Range.Len()

	deletePos := orig.Range.From
	cursor := position.Cursor(dest)
	if dest <= orig.Range.From {
		deletePos += size
		cursor = position.Cursor(dest + size)
	}

	zerolog.Ctx(ctx).Debug().
		Str("source", orig.InstanceID).
		Str("moved", moved.InstanceID).
		Int("destination", dest).
		Int("delete", deletePos).
		Msg("drop")

	return &document.Mutation{
		Steps: []document.Step{
			document.InsertStep(dest, document.PropertyFragment(moved.Property())),
			document.DeleteStep(position.NewRange(deletePos, deletePos+orig.Range.Len())),
		},
		DeleteTokens: []string{orig.InstanceID},
		Selection:    &cursor,
	}, nil
}

// source finds the original token: the dragged one when a drag is active,
// otherwise the token at the payload position.
func (r *Resolver) source(payload Payload) (widget.Token, error) {
	if r.ctx != nil {
		if tok, ok := r.tracker.Get(r.ctx.Source.InstanceID); ok {
			return tok, nil
		}
	}
	tok, ok := r.tracker.FindTokenStartingAt(payload.Pos)
	if !ok || tok.ID != payload.Attrs.ID {
		return widget.Token{}, errors.Errorf("no token with id %q at %d: %w", payload.Attrs.ID, payload.Pos, ErrUnknownToken)
	}
	return tok, nil
}

func (r *Resolver) destination(p Point) (int, bool) {
	if r.ctx != nil && r.ctx.Target != nil && r.valid(r.ctx.Candidate) {
		return r.ctx.Candidate, true
	}
	pos, ok := r.layout.PosAtCoords(p)
	if ok && r.valid(pos) {
		return pos, true
	}
	return r.nearest(pos)
}

// End clears the drag, dropped or not.
func (r *Resolver) End() {
	r.ctx = nil
	r.state = StateIdle
}

func (r *Resolver) Decorations() Decorations {
	if r.ctx == nil {
		return Decorations{}
	}
	return Decorations{
		Active: true,
		Lifted: r.ctx.Source.InstanceID,
		Over:   r.ctx.TargetID,
		Side:   r.ctx.Side,
	}
}
