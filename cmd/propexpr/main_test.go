package main

import (
	"bytes"
	"context"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/propexpr/cmd/propexpr/check"
	"github.com/walteh/propexpr/cmd/propexpr/format"
	"github.com/walteh/propexpr/pkg/editor"
	"github.com/walteh/propexpr/pkg/store"
)

func execute(t *testing.T, fs afero.Fs, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand(fs)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func files(t *testing.T, contents map[string]string) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	for path, content := range contents {
		require.NoError(t, afero.WriteFile(fs, path, []byte(content), 0o644))
	}
	return fs
}

func TestCheck(t *testing.T) {
	fs := files(t, map[string]string{
		"good.expr":    "temperature + speed\n",
		"sub/bad.expr": "temperature +\n",
		"notes.txt":    "+",
	})

	tests := []struct {
		name     string
		args     []string
		wantErr  error
		contains []string
		excludes []string
	}{
		{
			name:     "default_pattern",
			args:     []string{"check"},
			wantErr:  check.ErrProblems,
			contains: []string{"sub/bad.expr:1:", "error: expression cannot end with operator"},
			excludes: []string{"good.expr", "notes.txt"},
		},
		{
			name: "clean_file_prints_nothing",
			args: []string{"check", "./good.expr"},
		},
		{
			name:     "json",
			args:     []string{"check", "--format", "json", "good.expr"},
			contains: []string{"good.expr\n{", `"errors": []`},
		},
		{
			name:     "vscode",
			args:     []string{"check", "--format", "vscode", "sub/*.expr"},
			wantErr:  check.ErrProblems,
			contains: []string{"sub/bad.expr\n", `"source":"propexpr"`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, fs, tt.args...)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}
			for _, s := range tt.contains {
				assert.Contains(t, out, s)
			}
			for _, s := range tt.excludes {
				assert.NotContains(t, out, s)
			}
		})
	}
}

func TestCheckErrors(t *testing.T) {
	fs := files(t, map[string]string{"a.expr": "1"})

	_, err := execute(t, fs, "check", "missing/*.expr")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no files match")

	_, err = execute(t, fs, "check", "--format", "xml")
	require.Error(t, err)
}

func TestCheckWithConfig(t *testing.T) {
	fs := files(t, map[string]string{
		"props.yaml": "functions: [Max]\nproperties:\n  - id: \"9\"\n    label: humidity\n    value: 40%\n",
		"h.expr":     "Max ( humidity , 2 )",
	})

	out, err := execute(t, fs, "--config", "props.yaml", "check", "h.expr")
	require.NoError(t, err)
	assert.Empty(t, out)

	_, err = execute(t, fs, "--config", "missing.yaml", "check", "h.expr")
	require.Error(t, err)
}

func TestExportShowList(t *testing.T) {
	fs := afero.NewMemMapFs()
	db := filepath.Join(t.TempDir(), "states.db")

	out, err := execute(t, fs, "export", "temperature + 1", "--db", db, "--name", "first")
	require.NoError(t, err)
	st, err := editor.UnmarshalState([]byte(strings.TrimSpace(out)))
	require.NoError(t, err)
	assert.Equal(t, "tree", st.Kind)
	require.Len(t, st.Content, 2)
	assert.Equal(t, "temperature", st.Content[0].Attrs.Label)

	out, err = execute(t, fs, "show", "--db", db, "--name", "first")
	require.NoError(t, err)
	assert.Equal(t, "temperature + 1\n", out)

	out, err = execute(t, fs, "list", "--db", db)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "first\ttree\t"), out)

	_, err = execute(t, fs, "show", "--db", db, "--name", "other")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestExportRejectsUnknownWords(t *testing.T) {
	out, err := execute(t, afero.NewMemMapFs(), "export", "--kind", "flat", "foo + temperature")
	require.ErrorIs(t, err, editor.ErrUnknownProperty)
	assert.Empty(t, out)
}

func TestFormat(t *testing.T) {
	fs := files(t, map[string]string{
		".editorconfig": "root = true\n\n[*.expr]\ninsert_final_newline = false\n",
		"a.expr":        "Avg(temperature,2)+1\n",
		"b.expr":        "speed * 2",
	})

	out, err := execute(t, fs, "fmt", "a.expr")
	require.NoError(t, err)
	assert.Equal(t, "Avg(temperature, 2) + 1", out)

	out, err = execute(t, fs, "fmt", "-l")
	require.ErrorIs(t, err, format.ErrUnformatted)
	assert.Equal(t, "a.expr\n", out)

	_, err = execute(t, fs, "fmt", "-w")
	require.NoError(t, err)
	data, err := afero.ReadFile(fs, "a.expr")
	require.NoError(t, err)
	assert.Equal(t, "Avg(temperature, 2) + 1", string(data))

	_, err = execute(t, fs, "fmt", "-l")
	require.NoError(t, err)
}
