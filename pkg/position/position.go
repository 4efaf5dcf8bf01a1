package position

import (
	"fmt"
)

type Place struct {
	Line      int
	Character int
}

type LineRange struct {
	Start Place
	End   Place
}

// Range is a half-open span [From, To) of rune offsets into a document's
// linear projection.
type Range struct {
	From int
	To   int
}

func NewRange(from, to int) Range {
	return Range{From: from, To: to}
}

// Cursor returns the empty range at pos.
func Cursor(pos int) Range {
	return Range{From: pos, To: pos}
}

func (r Range) Len() int {
	return r.To - r.From
}

func (r Range) Empty() bool {
	return r.From == r.To
}

func (r Range) Valid() bool {
	return r.From >= 0 && r.From <= r.To
}

// Contains reports whether pos lies inside the range. The start is always
// inclusive; the end only when inclusiveEnd is set.
func (r Range) Contains(pos int, inclusiveEnd bool) bool {
	if inclusiveEnd {
		return pos >= r.From && pos <= r.To
	}
	return pos >= r.From && pos < r.To
}

// StrictlyContains reports whether pos is inside the range and on neither edge.
func (r Range) StrictlyContains(pos int) bool {
	return pos > r.From && pos < r.To
}

// Covers reports whether other lies entirely inside r.
func (r Range) Covers(other Range) bool {
	return other.From >= r.From && other.To <= r.To
}

// Overlaps reports whether the two ranges share at least one position.
// Zero-length ranges overlap a range they fall strictly inside of.
func (r Range) Overlaps(other Range) bool {
	if r.Empty() {
		return other.StrictlyContains(r.From)
	}
	if other.Empty() {
		return r.StrictlyContains(other.From)
	}
	return other.From < r.To && other.To > r.From
}

// Union returns the smallest range covering both.
func (r Range) Union(other Range) Range {
	return Range{From: min(r.From, other.From), To: max(r.To, other.To)}
}

func (r Range) String() string {
	return fmt.Sprintf("[%d,%d)", r.From, r.To)
}

// LineAndColumn returns the zero-based line and column of a rune offset in text.
func LineAndColumn(text string, offset int) (line, col int) {
	lastNewline := -1
	i := 0
	for _, r := range text {
		if i >= offset {
			break
		}
		if r == '\n' {
			line++
			lastNewline = i
		}
		i++
	}
	return line, offset - lastNewline - 1
}

// Lines converts the range to line/column coordinates within text.
func (r Range) Lines(text string) LineRange {
	startLine, startCol := LineAndColumn(text, r.From)
	endLine, endCol := LineAndColumn(text, r.To)
	return LineRange{
		Start: Place{Line: startLine, Character: startCol},
		End:   Place{Line: endLine, Character: endCol},
	}
}
