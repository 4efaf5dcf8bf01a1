// Package config loads the vocabulary an editor works with: the properties
// that can be inserted as tokens and the function names of the expression
// grammar.
package config

import (
	"bytes"
	"path/filepath"
	"regexp"
	"slices"

	"github.com/hashicorp/go-multierror"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/spf13/afero"
	"github.com/walteh/propexpr/pkg/semtok"
	"github.com/walteh/propexpr/pkg/widget"
	"github.com/zclconf/go-cty/cty"
	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"
)

var ErrInvalidConfig = errors.Base("invalid config")

// Config file structure
type Config struct {
	Functions  []string   `json:"functions,omitempty" yaml:"functions,omitempty" hcl:"functions,optional"`
	Properties []Property `json:"properties" yaml:"properties" hcl:"property,block"`
}

// Property is an insertable property
type Property struct {
	Label string `json:"label" yaml:"label" hcl:"label,label"`
	ID    string `json:"id" yaml:"id" hcl:"id,attr"`
	Value string `json:"value,omitempty" yaml:"value,omitempty" hcl:"value,optional"`
}

func (p Property) Ref() widget.PropertyRef {
	return widget.PropertyRef{ID: p.ID, Label: p.Label, Value: p.Value}
}

func Default() *Config {
	return &Config{
		Functions: slices.Clone(semtok.DefaultFunctions),
		Properties: []Property{
			{ID: "1", Label: "temperature", Value: "25°C"},
			{ID: "2", Label: "speed", Value: "60 km/h"},
			{ID: "3", Label: "pressure", Value: "1013 hPa"},
		},
	}
}

// Load reads a config from fs. Files ending in .yaml or .yml are YAML,
// anything else is HCL. Functions default when the file names none.
func Load(fs afero.Fs, path string) (*Config, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, errors.Errorf("reading config file: %w", err)
	}

	var cfg *Config
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		cfg, err = parseYAML(data)
	default:
		cfg, err = parseHCL(data, path)
	}
	if err != nil {
		return nil, err
	}

	if len(cfg.Functions) == 0 {
		cfg.Functions = slices.Clone(semtok.DefaultFunctions)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func parseYAML(data []byte) (*Config, error) {
	var cfg Config
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, errors.Errorf("parsing YAML: %w", err)
	}
	return &cfg, nil
}

func parseHCL(data []byte, path string) (*Config, error) {
	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCL(data, path)
	if diags.HasErrors() {
		return nil, errors.Errorf("parsing HCL: %s", diags.Error())
	}

	ctx := &hcl.EvalContext{
		Variables: map[string]cty.Value{},
	}

	var cfg Config
	diags = gohcl.DecodeBody(hclFile.Body, ctx, &cfg)
	if diags.HasErrors() {
		return nil, errors.Errorf("decoding HCL: %s", diags.Error())
	}
	return &cfg, nil
}

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Validate reports every problem in the config at once.
func (c *Config) Validate() error {
	var result *multierror.Error

	seenFunc := map[string]bool{}
	for _, fn := range c.Functions {
		if !identifier.MatchString(fn) {
			result = multierror.Append(result, errors.Errorf("function %q is not an identifier: %w", fn, ErrInvalidConfig))
		}
		if seenFunc[fn] {
			result = multierror.Append(result, errors.Errorf("function %q declared twice: %w", fn, ErrInvalidConfig))
		}
		seenFunc[fn] = true
	}

	seenID := map[string]bool{}
	seenLabel := map[string]bool{}
	for _, p := range c.Properties {
		if p.ID == "" {
			result = multierror.Append(result, errors.Errorf("property %q has no id: %w", p.Label, ErrInvalidConfig))
		} else if seenID[p.ID] {
			result = multierror.Append(result, errors.Errorf("property id %q declared twice: %w", p.ID, ErrInvalidConfig))
		}
		if !identifier.MatchString(p.Label) {
			result = multierror.Append(result, errors.Errorf("property label %q is not an identifier: %w", p.Label, ErrInvalidConfig))
		} else if seenLabel[p.Label] {
			result = multierror.Append(result, errors.Errorf("property label %q declared twice: %w", p.Label, ErrInvalidConfig))
		} else if seenFunc[p.Label] {
			result = multierror.Append(result, errors.Errorf("property label %q shadows a function: %w", p.Label, ErrInvalidConfig))
		}
		seenID[p.ID] = true
		seenLabel[p.Label] = true
	}

	return result.ErrorOrNil()
}

// Vocabulary is what the tokenizer needs to classify identifiers.
func (c *Config) Vocabulary() semtok.Vocabulary {
	v := semtok.Vocabulary{Functions: slices.Clone(c.Functions)}
	for _, p := range c.Properties {
		v.Properties = append(v.Properties, p.Label)
	}
	return v
}

// Property looks a property up by label.
func (c *Config) Property(label string) (Property, bool) {
	i := slices.IndexFunc(c.Properties, func(p Property) bool { return p.Label == label })
	if i < 0 {
		return Property{}, false
	}
	return c.Properties[i], true
}

func (c *Config) IsFunction(name string) bool {
	return slices.Contains(c.Functions, name)
}
