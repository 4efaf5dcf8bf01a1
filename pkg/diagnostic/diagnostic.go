// Package diagnostic validates expression tokens and reports the findings in
// formats suitable for editors and terminals.
package diagnostic

import (
	"fmt"

	"github.com/walteh/propexpr/pkg/position"
	"github.com/walteh/propexpr/pkg/semtok"
)

// Diagnostics represents diagnostic information that can be formatted in different ways
type Diagnostics struct {
	Errors   []Diagnostic `json:"errors" yaml:"errors"`
	Warnings []Diagnostic `json:"warnings" yaml:"warnings"`
	Hints    []Diagnostic `json:"hints" yaml:"hints"`
}

// Diagnostic represents a single diagnostic message. Line and column values
// are one-based.
type Diagnostic struct {
	Message  string             `json:"message" yaml:"message"`
	Range    position.Range     `json:"-" yaml:"-"`
	Line     int                `json:"line" yaml:"line"`
	Column   int                `json:"column" yaml:"column"`
	EndLine  int                `json:"endLine" yaml:"endLine"`
	EndCol   int                `json:"endCol" yaml:"endCol"`
	Severity DiagnosticSeverity `json:"severity" yaml:"severity"`
}

// DiagnosticSeverity represents the severity level of a diagnostic
type DiagnosticSeverity string

const (
	Error   DiagnosticSeverity = "error"
	Warning DiagnosticSeverity = "warning"
	Info    DiagnosticSeverity = "info"
	Hint    DiagnosticSeverity = "hint"
)

func (d *Diagnostics) Empty() bool {
	return d == nil || len(d.Errors)+len(d.Warnings)+len(d.Hints) == 0
}

func (d *Diagnostics) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Errors) + len(d.Warnings) + len(d.Hints)
}

func newDiagnostic(projection string, r position.Range, severity DiagnosticSeverity, msg string) Diagnostic {
	lines := r.Lines(projection)
	return Diagnostic{
		Message:  msg,
		Range:    r,
		Line:     lines.Start.Line + 1,
		Column:   lines.Start.Character + 1,
		EndLine:  lines.End.Line + 1,
		EndCol:   lines.End.Character + 1,
		Severity: severity,
	}
}

// Generate builds the diagnostics of an expression: grammar violations are
// errors, unknown identifiers are warnings and calls without arguments are
// hints.
func Generate(projection string, tokens []semtok.Token) *Diagnostics {
	diagnostics := &Diagnostics{
		Errors:   make([]Diagnostic, 0),
		Warnings: make([]Diagnostic, 0),
		Hints:    make([]Diagnostic, 0),
	}

	for _, e := range Validate(tokens) {
		diagnostics.Errors = append(diagnostics.Errors, newDiagnostic(projection, e.Range, Error, e.Message))
	}

	for i, tok := range tokens {
		switch tok.Kind {
		case semtok.KindError:
			diagnostics.Warnings = append(diagnostics.Warnings,
				newDiagnostic(projection, tok.Range, Warning, fmt.Sprintf("unknown property '%s'", tok.Text)))
		case semtok.KindFunction:
			if i+2 < len(tokens) && tokens[i+1].IsOpen() && tokens[i+2].IsClose() {
				diagnostics.Hints = append(diagnostics.Hints,
					newDiagnostic(projection, position.NewRange(tok.Range.From, tokens[i+2].Range.To), Hint,
						fmt.Sprintf("%s is called without arguments", tok.Text)))
			}
		}
	}

	return diagnostics
}
