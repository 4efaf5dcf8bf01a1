// Package diff renders readable differences for test failures.
package diff

import (
	"strings"

	"github.com/k0kubun/pp/v3"
	"github.com/kylelemons/godebug/diff"
)

// Structs pretty prints the exported fields of want and got and returns their
// line diff, or "" when they print the same.
func Structs[T any](want, got T) string {
	printer := pp.New()
	printer.SetExportedOnly(true)
	printer.SetColoringEnabled(false)
	return Lines(printer.Sprint(want), printer.Sprint(got))
}

// Lines diffs two multi-line strings, marking what got adds with + and what it
// lacks with -.
func Lines(want, got string) string {
	d := diff.Diff(want, got)
	if d == "" {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("\n\nwant (-) got (+):\n\n")
	sb.WriteString(d)
	return sb.String()
}
