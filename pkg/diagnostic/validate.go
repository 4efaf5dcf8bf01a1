package diagnostic

import (
	"fmt"

	"github.com/walteh/propexpr/pkg/position"
	"github.com/walteh/propexpr/pkg/semtok"
)

// SyntaxError is a grammar violation anchored at the offending token.
type SyntaxError struct {
	Range   position.Range
	Message string
}

func (e SyntaxError) Error() string {
	return fmt.Sprintf("%s at %s", e.Message, e.Range)
}

type frame struct {
	open semtok.Token
	call bool
}

type validator struct {
	expectingOperand bool
	expectingComma   bool
	stack            []frame
	prev             *semtok.Token
	errs             []SyntaxError
}

func (v *validator) insideFunction() bool {
	return len(v.stack) > 0 && v.stack[len(v.stack)-1].call
}

// adjacent reports whether tok follows another value with nothing joining
// them. Only an operator or an opening bracket may precede a value.
func (v *validator) adjacent() bool {
	if v.expectingOperand || v.prev == nil {
		return false
	}
	return v.prev.Kind != semtok.KindOperator && !v.prev.IsOpen()
}

func (v *validator) fail(tok semtok.Token, format string, args ...any) {
	v.errs = append(v.errs, SyntaxError{Range: tok.Range, Message: fmt.Sprintf(format, args...)})
}

// Validate checks tokens against the expression grammar in one pass and
// returns every violation found.
func Validate(tokens []semtok.Token) []SyntaxError {
	v := &validator{expectingOperand: true}

	for i := range tokens {
		tok := tokens[i]
		switch {
		case tok.Kind == semtok.KindFunction:
			if v.insideFunction() && v.expectingComma {
				v.fail(tok, "expected comma between function arguments")
			} else if v.adjacent() {
				v.fail(tok, "missing operator before function")
			}
			v.expectingOperand = false
			v.expectingComma = v.insideFunction()

		case tok.IsOpen():
			call := v.prev != nil && v.prev.Kind == semtok.KindFunction
			if !call && v.adjacent() {
				v.fail(tok, "missing operator before '('")
			}
			v.stack = append(v.stack, frame{open: tok, call: call})
			v.expectingOperand = true
			v.expectingComma = false

		case tok.IsClose():
			if len(v.stack) == 0 {
				v.fail(tok, "unmatched closing parenthesis")
			} else {
				v.stack = v.stack[:len(v.stack)-1]
			}
			v.expectingOperand = false
			// a closed group is a finished argument of the enclosing call
			v.expectingComma = v.insideFunction()

		case tok.IsComma():
			if !v.insideFunction() {
				v.fail(tok, "unexpected comma outside function call")
			} else if !v.expectingComma {
				v.fail(tok, "unexpected comma")
			} else {
				v.expectingOperand = true
				v.expectingComma = false
			}

		case tok.Kind == semtok.KindOperator:
			if v.insideFunction() {
				v.fail(tok, "operators not allowed inside function arguments")
			} else if v.expectingOperand {
				v.fail(tok, "unexpected operator")
			}
			v.expectingOperand = true
			v.expectingComma = false

		case tok.IsOperand():
			if v.insideFunction() && v.expectingComma {
				v.fail(tok, "expected comma between function arguments")
			} else if v.adjacent() {
				v.fail(tok, "missing operator between '%s' and '%s'", v.prev.Text, tok.Text)
			}
			v.expectingOperand = false
			v.expectingComma = v.insideFunction()
		}
		v.prev = &tokens[i]
	}

	for _, f := range v.stack {
		v.fail(f.open, "unclosed parenthesis")
	}
	if v.prev != nil && v.prev.Kind == semtok.KindOperator {
		v.fail(*v.prev, "expression cannot end with operator")
	}
	return v.errs
}
