package position

// Bias resolves positions that sit exactly on a pure insertion point.
type Bias int

const (
	// BiasBackward keeps the position in front of inserted content.
	BiasBackward Bias = -1
	// BiasForward moves the position past inserted content.
	BiasForward Bias = 1
)

// Mapper maps positions from a document to the document produced by an edit.
type Mapper interface {
	Map(pos int, bias Bias) int
}

// StepMap describes a single replacement: Deleted is removed and Inserted
// positions take its place.
type StepMap struct {
	Deleted  Range
	Inserted int
}

func (s StepMap) Delta() int {
	return s.Inserted - s.Deleted.Len()
}

func (s StepMap) Map(pos int, bias Bias) int {
	switch {
	case pos < s.Deleted.From:
		return pos
	case pos > s.Deleted.To:
		return pos + s.Delta()
	case s.Deleted.Empty():
		// pure insertion exactly at pos
		if bias == BiasForward {
			return pos + s.Inserted
		}
		return pos
	case pos == s.Deleted.From:
		return pos
	case pos == s.Deleted.To:
		return s.Deleted.From + s.Inserted
	default:
		// strictly inside the deleted span
		return s.Deleted.From
	}
}

// Mapping composes step maps left to right. Each step is expressed in the
// coordinates produced by the steps before it.
type Mapping struct {
	Steps []StepMap
}

func NewMapping(steps ...StepMap) *Mapping {
	return &Mapping{Steps: steps}
}

func (m *Mapping) Append(s StepMap) {
	m.Steps = append(m.Steps, s)
}

func (m *Mapping) Map(pos int, bias Bias) int {
	if m == nil {
		return pos
	}
	for _, s := range m.Steps {
		pos = s.Map(pos, bias)
	}
	return pos
}

// MapRange maps a token-like range: From sticks to following content and To
// to preceding content, so insertions at either edge never grow the range.
// A range swallowed whole by a deletion collapses to the deletion start.
func (m *Mapping) MapRange(r Range) Range {
	if m == nil {
		return r
	}
	for _, s := range m.Steps {
		if !s.Deleted.Empty() && s.Deleted.Covers(r) {
			r = Cursor(s.Deleted.From)
			continue
		}
		from := s.Map(r.From, BiasForward)
		to := s.Map(r.To, BiasBackward)
		if to < from {
			to = from
		}
		r = Range{From: from, To: to}
	}
	return r
}

// Slice returns the mapping made of the steps starting at index start.
func (m *Mapping) Slice(start int) *Mapping {
	if m == nil || start >= len(m.Steps) {
		return &Mapping{}
	}
	return &Mapping{Steps: m.Steps[start:]}
}

var _ Mapper = (*Mapping)(nil)
var _ Mapper = StepMap{}
