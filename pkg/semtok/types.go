package semtok

import (
	"slices"

	"github.com/walteh/propexpr/pkg/position"
)

// Kind is the lexical class of a token
type Kind int

const (
	// KindOperator is one of + - * / and the comma
	KindOperator Kind = iota + 1

	// KindBracket is ( or )
	KindBracket

	// KindNumber is an integer or decimal literal
	KindNumber

	// KindFunction is an identifier naming a known function
	KindFunction

	// KindProperty is a property token or an identifier naming a known property
	KindProperty

	// KindError is an identifier that names nothing known
	KindError
)

func (k Kind) String() string {
	switch k {
	case KindOperator:
		return "operator"
	case KindBracket:
		return "bracket"
	case KindNumber:
		return "number"
	case KindFunction:
		return "function"
	case KindProperty:
		return "property"
	case KindError:
		return "error"
	default:
		return "unknown"
	}
}

// Token is one classified run of the projection.
type Token struct {
	Kind  Kind
	Range position.Range
	Text  string
}

// IsOperand reports whether the token stands for a value in an expression.
func (t Token) IsOperand() bool {
	return t.Kind == KindProperty || t.Kind == KindNumber || t.Kind == KindError
}

func (t Token) IsComma() bool {
	return t.Kind == KindOperator && t.Text == ","
}

func (t Token) IsOpen() bool {
	return t.Kind == KindBracket && t.Text == "("
}

func (t Token) IsClose() bool {
	return t.Kind == KindBracket && t.Text == ")"
}

// Atom is a property token as the tokenizer sees it.
type Atom struct {
	Range position.Range
	Label string
}

// DefaultFunctions are the function names known when none are configured.
var DefaultFunctions = []string{"Avg", "Sum", "Scale"}

// Vocabulary names the identifiers the tokenizer can classify.
type Vocabulary struct {
	Functions  []string
	Properties []string
}

func (v Vocabulary) isFunction(s string) bool {
	return slices.Contains(v.Functions, s)
}

func (v Vocabulary) isProperty(s string) bool {
	return slices.Contains(v.Properties, s)
}
