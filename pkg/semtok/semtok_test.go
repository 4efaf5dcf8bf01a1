package semtok_test

import (
	"strings"
	"testing"
	"unicode"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/propexpr/pkg/position"
	"github.com/walteh/propexpr/pkg/semtok"
)

var vocab = semtok.Vocabulary{
	Functions:  semtok.DefaultFunctions,
	Properties: []string{"temperature", "speed", "pressure"},
}

type tok struct {
	kind semtok.Kind
	text string
	from int
}

func simplify(tokens []semtok.Token) []tok {
	out := make([]tok, 0, len(tokens))
	for _, t := range tokens {
		out = append(out, tok{kind: t.Kind, text: t.Text, from: t.Range.From})
	}
	return out
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		atoms    []semtok.Atom
		expected []tok
	}{
		{
			name:     "empty",
			input:    "",
			expected: []tok{},
		},
		{
			name:  "operators_and_numbers",
			input: "1 + 2.5*3",
			expected: []tok{
				{semtok.KindNumber, "1", 0},
				{semtok.KindOperator, "+", 2},
				{semtok.KindNumber, "2.5", 4},
				{semtok.KindOperator, "*", 7},
				{semtok.KindNumber, "3", 8},
			},
		},
		{
			name:  "function_call",
			input: "Avg(speed, x)",
			expected: []tok{
				{semtok.KindFunction, "Avg", 0},
				{semtok.KindBracket, "(", 3},
				{semtok.KindProperty, "speed", 4},
				{semtok.KindOperator, ",", 9},
				{semtok.KindError, "x", 11},
				{semtok.KindBracket, ")", 12},
			},
		},
		{
			name:  "unknown_characters_are_skipped",
			input: "1 % 2 $",
			expected: []tok{
				{semtok.KindNumber, "1", 0},
				{semtok.KindNumber, "2", 4},
			},
		},
		{
			name:  "atom_is_one_property_token",
			input: "Avg(temperature (25C)) - 1",
			atoms: []semtok.Atom{{Range: position.NewRange(4, 21), Label: "temperature"}},
			expected: []tok{
				{semtok.KindFunction, "Avg", 0},
				{semtok.KindBracket, "(", 3},
				{semtok.KindProperty, "temperature", 4},
				{semtok.KindBracket, ")", 21},
				{semtok.KindOperator, "-", 23},
				{semtok.KindNumber, "1", 25},
			},
		},
		{
			name:  "rune_offsets_after_multibyte_text",
			input: "\u00e9 + 1",
			expected: []tok{
				{semtok.KindOperator, "+", 2},
				{semtok.KindNumber, "1", 4},
			},
		},
		{
			name:  "atom_label_is_not_relexed",
			input: "a (b)c",
			atoms: []semtok.Atom{{Range: position.NewRange(0, 5), Label: "a"}},
			expected: []tok{
				{semtok.KindProperty, "a", 0},
				{semtok.KindError, "c", 5},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := semtok.Tokenize(tt.input, tt.atoms, vocab)
			assert.Equal(t, tt.expected, simplify(got), "tokens should match")
		})
	}
}

func TestTokenizeCoverage(t *testing.T) {
	inputs := []string{
		"temperature + pressure",
		"Avg(temperature,speed) / 2",
		"  (1+2)*   Scale(3 , 4.25)  ",
		"x\ty\nz",
		"a$b%c",
	}

	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			tokens := semtok.Tokenize(input, nil, vocab)
			runes := []rune(input)

			covered := make([]bool, len(runes))
			last := 0
			for _, tk := range tokens {
				require.GreaterOrEqual(t, tk.Range.From, last, "tokens are ordered and disjoint")
				assert.Equal(t, string(runes[tk.Range.From:tk.Range.To]), tk.Text, "text is the literal span")
				for i := tk.Range.From; i < tk.Range.To; i++ {
					covered[i] = true
				}
				last = tk.Range.To
			}

			var rebuilt, want []string
			for _, tk := range tokens {
				rebuilt = append(rebuilt, tk.Text)
			}
			for i, r := range runes {
				if unicode.IsSpace(r) || strings.ContainsRune("$%", r) {
					assert.False(t, covered[i], "skipped character at %d is not emitted", i)
					continue
				}
				assert.True(t, covered[i], "grammar character %q at %d is covered", r, i)
			}
			for _, f := range strings.FieldsFunc(input, func(r rune) bool { return unicode.IsSpace(r) || r == '$' || r == '%' }) {
				want = append(want, f)
			}
			assert.Equal(t, strings.Join(want, ""), strings.Join(rebuilt, ""), "tokens reproduce the non-skipped content")
		})
	}
}

func TestMatchBracket(t *testing.T) {
	tokens := semtok.Tokenize("Avg((1+2), 3)", nil, vocab)

	tests := []struct {
		name        string
		cursor      int
		ok          bool
		atFrom      int
		partnerFrom int
	}{
		{name: "after_outer_open", cursor: 4, ok: true, atFrom: 3, partnerFrom: 12},
		{name: "before_inner_close", cursor: 8, ok: true, atFrom: 8, partnerFrom: 4},
		{name: "after_outer_close", cursor: 13, ok: true, atFrom: 12, partnerFrom: 3},
		{name: "between_inner_pair_edges", cursor: 9, ok: true, atFrom: 8, partnerFrom: 4},
		{name: "no_bracket", cursor: 1, ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			at, partner, ok := semtok.MatchBracket(tokens, tt.cursor)
			require.Equal(t, tt.ok, ok)
			if !ok {
				return
			}
			assert.Equal(t, tt.atFrom, at.Range.From)
			assert.Equal(t, tt.partnerFrom, partner.Range.From)
		})
	}

	_, _, ok := semtok.MatchBracket(semtok.Tokenize("(1", nil, vocab), 1)
	assert.False(t, ok, "unbalanced bracket has no partner")
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "function", semtok.KindFunction.String())
	assert.Equal(t, "unknown", semtok.Kind(0).String())
}
