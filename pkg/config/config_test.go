package config_test

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/propexpr/pkg/config"
	"github.com/walteh/propexpr/pkg/semtok"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		content  string
		expected *config.Config
		wantErr  bool
	}{
		{
			name: "yaml",
			path: "props.yaml",
			content: `
functions: [Avg, Max]
properties:
  - id: "1"
    label: temperature
    value: 25C
  - id: "2"
    label: speed
`,
			expected: &config.Config{
				Functions: []string{"Avg", "Max"},
				Properties: []config.Property{
					{ID: "1", Label: "temperature", Value: "25C"},
					{ID: "2", Label: "speed"},
				},
			},
		},
		{
			name: "hcl",
			path: "props.hcl",
			content: `
property "temperature" {
  id    = "1"
  value = "25C"
}

property "pressure" {
  id = "3"
}
`,
			expected: &config.Config{
				Functions: semtok.DefaultFunctions,
				Properties: []config.Property{
					{ID: "1", Label: "temperature", Value: "25C"},
					{ID: "3", Label: "pressure"},
				},
			},
		},
		{
			name:    "yaml_unknown_field",
			path:    "props.yml",
			content: "propertys: []\n",
			wantErr: true,
		},
		{
			name:    "hcl_syntax_error",
			path:    "props.hcl",
			content: `property "x" {`,
			wantErr: true,
		},
		{
			name:    "missing_file",
			path:    "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			path := tt.path
			if path != "" {
				require.NoError(t, afero.WriteFile(fs, path, []byte(tt.content), 0o644))
			} else {
				path = "nope.yaml"
			}

			got, err := config.Load(fs, path)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got, "config should match")
		})
	}
}

func TestValidate(t *testing.T) {
	cfg := &config.Config{
		Functions: []string{"Avg", "Avg", "not valid"},
		Properties: []config.Property{
			{ID: "1", Label: "temperature"},
			{ID: "1", Label: "speed"},
			{ID: "", Label: "temperature"},
			{ID: "4", Label: "Avg"},
			{ID: "5", Label: "with space"},
		},
	}

	err := cfg.Validate()
	require.Error(t, err)
	require.ErrorIs(t, err, config.ErrInvalidConfig)
	for _, msg := range []string{
		`function "Avg" declared twice`,
		`function "not valid" is not an identifier`,
		`property id "1" declared twice`,
		`property "temperature" has no id`,
		`property label "temperature" declared twice`,
		`property label "Avg" shadows a function`,
		`property label "with space" is not an identifier`,
	} {
		assert.Contains(t, err.Error(), msg)
	}

	require.NoError(t, config.Default().Validate())
}

func TestVocabulary(t *testing.T) {
	cfg := config.Default()
	v := cfg.Vocabulary()
	assert.Equal(t, []string{"Avg", "Sum", "Scale"}, v.Functions)
	assert.Equal(t, []string{"temperature", "speed", "pressure"}, v.Properties)

	p, ok := cfg.Property("speed")
	require.True(t, ok)
	assert.Equal(t, "60 km/h", p.Ref().Value)
	_, ok = cfg.Property("altitude")
	assert.False(t, ok)

	assert.True(t, cfg.IsFunction("Sum"))
	assert.False(t, cfg.IsFunction("sum"))
}
