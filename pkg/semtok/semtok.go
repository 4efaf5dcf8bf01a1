package semtok

import (
	"slices"
	"unicode/utf8"

	"github.com/alecthomas/participle/v2/lexer"
	"github.com/walteh/propexpr/pkg/position"
)

var (
	// expressionLexer lexes the free text between atoms; rules are tried in
	// order and Char swallows anything outside the grammar
	expressionLexer = lexer.MustSimple([]lexer.SimpleRule{
		{Name: "Whitespace", Pattern: `\s+`},
		{Name: "Operator", Pattern: `[-+*/,]`},
		{Name: "Bracket", Pattern: `[()]`},
		{Name: "Number", Pattern: `[0-9]+(?:\.[0-9]+)?`},
		{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_]*`},
		{Name: "Char", Pattern: `.`},
	})

	symbols = expressionLexer.Symbols()
)

// Tokenize classifies projection. Atoms mark the ranges of property tokens;
// they may come in any order and must not overlap.
func Tokenize(projection string, atoms []Atom, vocab Vocabulary) []Token {
	runes := []rune(projection)
	sorted := slices.Clone(atoms)
	slices.SortFunc(sorted, func(a, b Atom) int { return a.Range.From - b.Range.From })

	var out []Token
	cursor := 0
	for _, atom := range sorted {
		if atom.Range.From < cursor || atom.Range.To > len(runes) || !atom.Range.Valid() {
			continue
		}
		out = append(out, lexSegment(runes[cursor:atom.Range.From], cursor, vocab)...)
		out = append(out, Token{Kind: KindProperty, Range: atom.Range, Text: atom.Label})
		cursor = atom.Range.To
	}
	return append(out, lexSegment(runes[cursor:], cursor, vocab)...)
}

// lexSegment lexes free text starting at rune offset base.
func lexSegment(seg []rune, base int, vocab Vocabulary) []Token {
	if len(seg) == 0 {
		return nil
	}
	text := string(seg)
	lex, err := expressionLexer.LexString("", text)
	if err != nil {
		return nil
	}

	var out []Token
	for {
		tok, err := lex.Next()
		if err != nil || tok.EOF() {
			return out
		}
		kind, ok := classify(tok, vocab)
		if !ok {
			continue
		}
		from := base + utf8.RuneCountInString(text[:tok.Pos.Offset])
		out = append(out, Token{
			Kind:  kind,
			Range: position.NewRange(from, from+utf8.RuneCountInString(tok.Value)),
			Text:  tok.Value,
		})
	}
}

func classify(tok lexer.Token, vocab Vocabulary) (Kind, bool) {
	switch tok.Type {
	case symbols["Operator"]:
		return KindOperator, true
	case symbols["Bracket"]:
		return KindBracket, true
	case symbols["Number"]:
		return KindNumber, true
	case symbols["Ident"]:
		switch {
		case vocab.isFunction(tok.Value):
			return KindFunction, true
		case vocab.isProperty(tok.Value):
			return KindProperty, true
		default:
			return KindError, true
		}
	default:
		return 0, false
	}
}

// MatchBracket finds the bracket next to cursor and its partner. The bracket
// ending at cursor wins over the one starting there. ok is false when there
// is no bracket at cursor or it is unbalanced.
func MatchBracket(tokens []Token, cursor int) (at, partner Token, ok bool) {
	var brackets []Token
	for _, tok := range tokens {
		if tok.Kind == KindBracket {
			brackets = append(brackets, tok)
		}
	}

	idx := slices.IndexFunc(brackets, func(t Token) bool { return t.Range.To == cursor })
	if idx < 0 {
		idx = slices.IndexFunc(brackets, func(t Token) bool { return t.Range.From == cursor })
	}
	if idx < 0 {
		return Token{}, Token{}, false
	}

	at = brackets[idx]
	depth := 0
	if at.IsOpen() {
		for i := idx; i < len(brackets); i++ {
			if brackets[i].IsOpen() {
				depth++
			} else {
				depth--
			}
			if depth == 0 {
				return at, brackets[i], true
			}
		}
	} else {
		for i := idx; i >= 0; i-- {
			if brackets[i].IsClose() {
				depth++
			} else {
				depth--
			}
			if depth == 0 {
				return at, brackets[i], true
			}
		}
	}
	return at, Token{}, false
}
