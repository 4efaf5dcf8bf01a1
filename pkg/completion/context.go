package completion

import (
	"unicode"

	"github.com/walteh/propexpr/pkg/position"
)

// Context is the word being typed at a cursor.
type Context struct {
	Cursor int
	// Prefix is the identifier text between Range.From and the cursor.
	Prefix string
	// Range is what accepting a completion replaces.
	Range position.Range
}

func identRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// NewContext finds the identifier prefix ending at cursor in projection.
// Offsets are in runes. A prefix starting with a digit is a number, not a
// word, and yields an empty prefix.
func NewContext(projection string, cursor int) *Context {
	runes := []rune(projection)
	cursor = min(max(cursor, 0), len(runes))

	from := cursor
	for from > 0 && identRune(runes[from-1]) {
		from--
	}
	if from < cursor && unicode.IsDigit(runes[from]) {
		from = cursor
	}

	return &Context{
		Cursor: cursor,
		Prefix: string(runes[from:cursor]),
		Range:  position.NewRange(from, cursor),
	}
}

// AfterValue reports whether the word sits right after a closing bracket or
// a letter-free value, where an operator is expected rather than a name.
func (c *Context) AfterValue(projection string) bool {
	runes := []rune(projection)
	for i := c.Range.From - 1; i >= 0; i-- {
		switch r := runes[i]; {
		case unicode.IsSpace(r):
			continue
		case r == ')' || unicode.IsDigit(r):
			return true
		default:
			return false
		}
	}
	return false
}
