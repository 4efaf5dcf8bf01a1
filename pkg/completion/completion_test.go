package completion_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/walteh/propexpr/pkg/completion"
	"github.com/walteh/propexpr/pkg/config"
	"github.com/walteh/propexpr/pkg/position"
)

func TestNewContext(t *testing.T) {
	tests := []struct {
		name       string
		projection string
		cursor     int
		wantPrefix string
		wantRange  position.Range
	}{
		{name: "start", projection: "", cursor: 0, wantPrefix: "", wantRange: position.Cursor(0)},
		{name: "word_at_end", projection: "1 + tem", cursor: 7, wantPrefix: "tem", wantRange: position.NewRange(4, 7)},
		{name: "middle_of_word", projection: "speed", cursor: 2, wantPrefix: "sp", wantRange: position.NewRange(0, 2)},
		{name: "after_bracket", projection: "Avg(s", cursor: 5, wantPrefix: "s", wantRange: position.NewRange(4, 5)},
		{name: "number_is_not_a_word", projection: "1 + 25", cursor: 6, wantPrefix: "", wantRange: position.Cursor(6)},
		{name: "cursor_clamped", projection: "ab", cursor: 9, wantPrefix: "ab", wantRange: position.NewRange(0, 2)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := completion.NewContext(tt.projection, tt.cursor)
			assert.Equal(t, tt.wantPrefix, c.Prefix)
			assert.Equal(t, tt.wantRange, c.Range)
		})
	}
}

func labels(items []completion.Item) []string {
	var out []string
	for _, it := range items {
		out = append(out, it.Label)
	}
	return out
}

func TestComplete(t *testing.T) {
	cfg := config.Default()

	tests := []struct {
		name       string
		projection string
		cursor     int
		want       []string
	}{
		{name: "everything_at_start", projection: "", cursor: 0, want: []string{"Avg", "Sum", "Scale", "temperature", "speed", "pressure"}},
		{name: "prefix_ignores_case", projection: "1 + S", cursor: 5, want: []string{"Sum", "Scale", "speed"}},
		{name: "property_only", projection: "te", cursor: 2, want: []string{"temperature"}},
		{name: "no_match", projection: "xyz", cursor: 3, want: nil},
		{name: "after_closing_bracket", projection: "Avg(1) ", cursor: 7, want: nil},
		{name: "after_number", projection: "2 ", cursor: 2, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := completion.NewContext(tt.projection, tt.cursor)
			assert.Equal(t, tt.want, labels(completion.Complete(c, tt.projection, cfg)))
		})
	}
}

func TestCompleteDetail(t *testing.T) {
	items := completion.Complete(completion.NewContext("pre", 3), "pre", config.Default())
	assert.Equal(t, []completion.Item{{
		Label:    "pressure",
		Kind:     completion.KindProperty,
		Detail:   "pressure (1013 hPa)",
		Property: &config.Property{ID: "3", Label: "pressure", Value: "1013 hPa"},
	}}, items)
}
