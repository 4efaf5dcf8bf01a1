// Package hover describes what sits under a position of an expression.
package hover

import (
	"fmt"

	"github.com/walteh/propexpr/pkg/config"
	"github.com/walteh/propexpr/pkg/diagnostic"
	"github.com/walteh/propexpr/pkg/position"
	"github.com/walteh/propexpr/pkg/semtok"
	"github.com/walteh/propexpr/pkg/widget"
)

// Info is the hover content for a range of the document.
type Info struct {
	Content []string
	Range   position.Range
}

// Input is the analysed state of a document.
type Input struct {
	Tokens  []semtok.Token
	Tracked []widget.Token
	Errors  []diagnostic.SyntaxError
	Config  *config.Config
}

func at(r position.Range, pos int) bool {
	return r.Contains(pos, false)
}

// At returns the hover for pos. Property tokens describe their attributes,
// lexical tokens their kind, and any syntax error covering pos is appended.
func At(in Input, pos int) (*Info, bool) {
	info := &Info{}

	for _, tok := range in.Tracked {
		if at(tok.Range, pos) {
			info.Range = tok.Range
			info.Content = append(info.Content,
				fmt.Sprintf("property %s", tok.Label),
				fmt.Sprintf("value: %s", tok.Value),
				fmt.Sprintf("id: %s", tok.ID))
			break
		}
	}

	if info.Range.Empty() {
		for _, tok := range in.Tokens {
			if !at(tok.Range, pos) {
				continue
			}
			info.Range = tok.Range
			info.Content = append(info.Content, describe(tok, in.Config)...)
			break
		}
	}

	for _, e := range in.Errors {
		if at(e.Range, pos) {
			if info.Range.Empty() {
				info.Range = e.Range
			}
			info.Content = append(info.Content, "error: "+e.Message)
		}
	}

	if len(info.Content) == 0 {
		return nil, false
	}
	return info, true
}

func describe(tok semtok.Token, cfg *config.Config) []string {
	switch tok.Kind {
	case semtok.KindFunction:
		return []string{fmt.Sprintf("function %s(arg, ...)", tok.Text)}
	case semtok.KindNumber:
		return []string{"number " + tok.Text}
	case semtok.KindProperty:
		if cfg != nil {
			if p, ok := cfg.Property(tok.Text); ok {
				return []string{fmt.Sprintf("property %s", p.Label), fmt.Sprintf("value: %s", p.Value)}
			}
		}
		return []string{fmt.Sprintf("property %s", tok.Text)}
	case semtok.KindError:
		return []string{fmt.Sprintf("unknown property '%s'", tok.Text)}
	default:
		return []string{fmt.Sprintf("%s %s", tok.Kind, tok.Text)}
	}
}
