// Package common holds the flags and setup shared by every propexpr command.
package common

import (
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fatih/color"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/walteh/propexpr/pkg/config"
	"github.com/walteh/propexpr/pkg/debug"
	"gitlab.com/tozd/go/errors"
)

type Globals struct {
	Fs         afero.Fs
	ConfigPath string
	Debug      bool
	Trace      bool

	cfg *config.Config
}

func NewGlobals(fs afero.Fs) *Globals {
	return &Globals{Fs: fs}
}

// Register adds the global flags to the root command.
func (g *Globals) Register(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(&g.ConfigPath, "config", "", "property configuration file (yaml or hcl)")
	cmd.PersistentFlags().BoolVar(&g.Debug, "debug", false, "enable debug logging")
	cmd.PersistentFlags().BoolVar(&g.Trace, "trace", false, "enable trace logging")
	_ = cmd.PersistentFlags().MarkHidden("trace")
}

// Setup loads the configuration and puts a logger in the command context.
func (g *Globals) Setup(cmd *cobra.Command) error {
	logger := debug.NewLogger(cmd.ErrOrStderr(), g.Debug, g.Trace, !color.NoColor)
	cmd.SetContext(logger.WithContext(cmd.Context()))

	if g.ConfigPath == "" {
		g.cfg = config.Default()
		return nil
	}

	cfg, err := config.Load(g.Fs, g.ConfigPath)
	if err != nil {
		return errors.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return errors.Errorf("config %s: %w", g.ConfigPath, err)
	}
	logger.Debug().Str("path", g.ConfigPath).Int("properties", len(cfg.Properties)).Msg("config loaded")
	g.cfg = cfg
	return nil
}

func (g *Globals) Config() *config.Config {
	if g.cfg == nil {
		return config.Default()
	}
	return g.cfg
}

// DefaultPattern matches expression files anywhere below the working
// directory.
const DefaultPattern = "**/*.expr"

// Glob expands doublestar patterns against fs into a sorted list of files.
// Matching nothing is an error.
func Glob(fs afero.Fs, patterns []string) ([]string, error) {
	fsys := afero.NewIOFS(fs)
	var out []string
	for _, pattern := range patterns {
		pattern = strings.TrimPrefix(pattern, "./")
		matches, err := doublestar.Glob(fsys, pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, errors.Errorf("matching %q: %w", pattern, err)
		}
		out = append(out, matches...)
	}
	slices.Sort(out)
	out = slices.Compact(out)
	if len(out) == 0 {
		return nil, errors.Errorf("no files match %s", strings.Join(patterns, " "))
	}
	return out, nil
}
