// Package exprfmt rewrites expression text with canonical spacing.
package exprfmt

import (
	"bytes"
	"path"
	"strings"

	"github.com/editorconfig/editorconfig-core-go/v2"
	"github.com/spf13/afero"
	"github.com/walteh/propexpr/pkg/semtok"
	"gitlab.com/tozd/go/errors"
)

// Options control the file level layout of formatted output.
type Options struct {
	CRLF               bool
	InsertFinalNewline bool
}

var DefaultOptions = Options{InsertFinalNewline: true}

// spaced reports whether a space separates prev and cur.
func spaced(prev, cur semtok.Token) bool {
	switch {
	case prev.IsOpen(), cur.IsClose(), cur.IsComma():
		return false
	case prev.Kind == semtok.KindFunction && cur.IsOpen():
		return false
	}
	return true
}

// Line formats one line of expression text. Runes the tokenizer does not
// classify are kept where they were.
func Line(line string, vocab semtok.Vocabulary) string {
	runes := []rune(line)
	tokens := semtok.Tokenize(line, nil, vocab)

	var sb strings.Builder
	cursor := 0
	for i, tok := range tokens {
		gap := strings.TrimSpace(string(runes[cursor:tok.Range.From]))
		if gap != "" {
			if sb.Len() > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteString(gap)
		}
		if sb.Len() > 0 && (gap != "" || i == 0 || spaced(tokens[i-1], tok)) {
			sb.WriteByte(' ')
		}
		sb.WriteString(string(runes[tok.Range.From:tok.Range.To]))
		cursor = tok.Range.To
	}
	if rest := strings.TrimSpace(string(runes[cursor:])); rest != "" {
		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(rest)
	}
	return sb.String()
}

// Source formats every line of src. Trailing blank lines are dropped.
func Source(src string, vocab semtok.Vocabulary, opts Options) string {
	src = strings.ReplaceAll(src, "\r\n", "\n")
	lines := strings.Split(strings.TrimRight(src, "\n"), "\n")
	for i, l := range lines {
		lines[i] = Line(l, vocab)
	}

	eol := "\n"
	if opts.CRLF {
		eol = "\r\n"
	}
	out := strings.Join(lines, eol)
	if opts.InsertFinalNewline && out != "" {
		out += eol
	}
	return out
}

// OptionsFor resolves the options for file, a slash separated path relative
// to the root of fs, from the .editorconfig files in its directory and above,
// nearest first, stopping at one marked root.
func OptionsFor(fs afero.Fs, file string) (Options, error) {
	opts := DefaultOptions
	var eol string
	var final *bool

	file = path.Clean(strings.TrimPrefix(file, "/"))
	for dir := path.Dir(file); ; dir = path.Dir(dir) {
		cfgPath := path.Join(dir, ".editorconfig")
		data, err := afero.ReadFile(fs, cfgPath)
		if err == nil {
			ec, err := editorconfig.Parse(bytes.NewReader(data))
			if err != nil {
				return Options{}, errors.Errorf("parsing %s: %w", cfgPath, err)
			}
			rel := file
			if dir != "." {
				rel = strings.TrimPrefix(file, dir+"/")
			}
			def, err := ec.GetDefinitionForFilename("/" + rel)
			if err != nil {
				return Options{}, errors.Errorf("matching %s in %s: %w", file, cfgPath, err)
			}
			if eol == "" {
				eol = def.EndOfLine
			}
			if final == nil {
				final = def.InsertFinalNewline
			}
			if ec.Root {
				break
			}
		}
		if dir == "." || dir == "/" {
			break
		}
	}

	opts.CRLF = eol == editorconfig.EndOfLineCrLf
	if final != nil {
		opts.InsertFinalNewline = *final
	}
	return opts, nil
}
