package diagnostic

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/fatih/color"
	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"
)

// Formatter formats diagnostics into different output formats
type Formatter interface {
	// Format formats diagnostics into a specific output format
	Format(diagnostics *Diagnostics) ([]byte, error)
}

// NewFormatter returns the formatter registered under name.
func NewFormatter(name string) (Formatter, error) {
	switch name {
	case "", "text":
		return NewTextFormatter(), nil
	case "json":
		return NewJSONFormatter(), nil
	case "yaml":
		return NewYAMLFormatter(), nil
	case "vscode":
		return NewVSCodeFormatter(), nil
	}
	return nil, errors.Errorf("unknown format %q", name)
}

// VSCodeFormatter formats diagnostics into VSCode-compatible format
type VSCodeFormatter struct{}

func NewVSCodeFormatter() *VSCodeFormatter {
	return &VSCodeFormatter{}
}

type vscodePosition struct {
	Line      int `json:"line"`
	Character int `json:"character"`
}

type vscodeRange struct {
	Start vscodePosition `json:"start"`
	End   vscodePosition `json:"end"`
}

type vscodeDiagnostic struct {
	Severity int         `json:"severity"`
	Message  string      `json:"message"`
	Range    vscodeRange `json:"range"`
	Source   string      `json:"source"`
}

// VSCode severities: Error = 1, Warning = 2, Information = 3, Hint = 4
var vscodeSeverity = map[DiagnosticSeverity]int{
	Error:   1,
	Warning: 2,
	Info:    3,
	Hint:    4,
}

func (f *VSCodeFormatter) Format(diagnostics *Diagnostics) ([]byte, error) {
	if diagnostics == nil {
		return nil, errors.Errorf("diagnostics is nil")
	}

	result := make([]vscodeDiagnostic, 0, diagnostics.Len())
	for _, group := range [][]Diagnostic{diagnostics.Errors, diagnostics.Warnings, diagnostics.Hints} {
		for _, d := range group {
			result = append(result, vscodeDiagnostic{
				Severity: vscodeSeverity[d.Severity],
				Message:  d.Message,
				Source:   "propexpr",
				// VSCode is 0-based
				Range: vscodeRange{
					Start: vscodePosition{Line: d.Line - 1, Character: d.Column - 1},
					End:   vscodePosition{Line: d.EndLine - 1, Character: d.EndCol - 1},
				},
			})
		}
	}

	return json.Marshal(result)
}

type JSONFormatter struct{}

func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{}
}

func (f *JSONFormatter) Format(diagnostics *Diagnostics) ([]byte, error) {
	if diagnostics == nil {
		return nil, errors.Errorf("diagnostics is nil")
	}
	return json.MarshalIndent(diagnostics, "", "  ")
}

type YAMLFormatter struct{}

func NewYAMLFormatter() *YAMLFormatter {
	return &YAMLFormatter{}
}

func (f *YAMLFormatter) Format(diagnostics *Diagnostics) ([]byte, error) {
	if diagnostics == nil {
		return nil, errors.Errorf("diagnostics is nil")
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(diagnostics); err != nil {
		return nil, errors.Errorf("encoding diagnostics: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, errors.Errorf("closing yaml encoder: %w", err)
	}
	return buf.Bytes(), nil
}

// TextFormatter renders one line per diagnostic, colored by severity unless
// color output is disabled.
type TextFormatter struct {
	NoColor bool
}

func NewTextFormatter() *TextFormatter {
	return &TextFormatter{NoColor: color.NoColor}
}

var severityColor = map[DiagnosticSeverity]color.Attribute{
	Error:   color.FgRed,
	Warning: color.FgYellow,
	Info:    color.FgCyan,
	Hint:    color.FgHiBlack,
}

func (f *TextFormatter) Format(diagnostics *Diagnostics) ([]byte, error) {
	if diagnostics == nil {
		return nil, errors.Errorf("diagnostics is nil")
	}

	var buf bytes.Buffer
	for _, group := range [][]Diagnostic{diagnostics.Errors, diagnostics.Warnings, diagnostics.Hints} {
		for _, d := range group {
			sev := color.New(severityColor[d.Severity], color.Bold)
			if f.NoColor {
				sev.DisableColor()
			} else {
				sev.EnableColor()
			}
			fmt.Fprintf(&buf, "%d:%d: %s: %s\n", d.Line, d.Column, sev.Sprint(d.Severity), d.Message)
		}
	}
	return buf.Bytes(), nil
}
