// Package completion suggests the functions and properties that can be
// inserted at a cursor.
package completion

import (
	"strings"

	"github.com/walteh/propexpr/pkg/config"
	"github.com/walteh/propexpr/pkg/document"
)

type Kind string

const (
	KindFunction Kind = "function"
	KindProperty Kind = "property"
)

type Item struct {
	Label  string `json:"label"`
	Kind   Kind   `json:"kind"`
	Detail string `json:"detail,omitempty"`
	// Property is set for property items.
	Property *config.Property `json:"-"`
}

// Complete lists the functions, then the properties, of cfg whose names start
// with the context prefix, ignoring case. Nothing is offered right after a
// value.
func Complete(c *Context, projection string, cfg *config.Config) []Item {
	if c.AfterValue(projection) {
		return nil
	}
	prefix := strings.ToLower(c.Prefix)

	var items []Item
	for _, fn := range cfg.Functions {
		if strings.HasPrefix(strings.ToLower(fn), prefix) {
			items = append(items, Item{Label: fn, Kind: KindFunction, Detail: fn + "()"})
		}
	}
	for i := range cfg.Properties {
		p := cfg.Properties[i]
		if strings.HasPrefix(strings.ToLower(p.Label), prefix) {
			items = append(items, Item{
				Label:    p.Label,
				Kind:     KindProperty,
				Detail:   document.Placeholder(p.Label, p.Value),
				Property: &p,
			})
		}
	}
	return items
}
