package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/fakeyudi/gitwork/internal/timeline"
)

// ProjectFile is the per-directory config file name.
const ProjectFile = ".gitwork.toml"

// SessionConfig holds the segmentation thresholds. Nil fields are unset so
// that an explicit zero in a file still overrides a lower layer.
type SessionConfig struct {
	GapMinutes            *int `toml:"gap_minutes,omitempty"`
	AnchorLookbackMinutes *int `toml:"anchor_lookback_minutes,omitempty"`
	MergeGapMinutes       *int `toml:"merge_gap_minutes,omitempty"`
}

// Config holds all configurable gitwork settings.
type Config struct {
	Repos         []string      `toml:"repos,omitempty"`
	Author        string        `toml:"author,omitempty"`
	DefaultFormat string        `toml:"default_format"` // "markdown" | "json"
	OutputDir     string        `toml:"output_dir"`
	Sessions      SessionConfig `toml:"sessions"`
}

// Defaults returns sensible default configuration values.
func Defaults() Config {
	return Config{
		Repos:         []string{},
		DefaultFormat: "markdown",
		OutputDir:     ".",
		Sessions: SessionConfig{
			GapMinutes:            intPtr(timeline.DefaultGapThresholdMinutes),
			AnchorLookbackMinutes: intPtr(timeline.DefaultAnchorLookbackMinutes),
			MergeGapMinutes:       intPtr(timeline.DefaultMergeGapMinutes),
		},
	}
}

// GlobalPath returns $XDG_CONFIG_HOME/gitwork/config.toml, falling back to
// ~/.config/gitwork/config.toml.
func GlobalPath() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "gitwork", "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "gitwork", "config.toml"), nil
}

// LoadGlobal reads the user config file.
// Returns defaults if the file is absent.
func LoadGlobal() (*Config, error) {
	path, err := GlobalPath()
	if err != nil {
		return nil, err
	}
	return loadFile(path, true)
}

// LoadProject reads .gitwork.toml in dir.
// Returns nil (no error) if the file is absent.
func LoadProject(dir string) (*Config, error) {
	return loadFile(filepath.Join(dir, ProjectFile), false)
}

func loadFile(path string, returnDefaults bool) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if returnDefaults {
				d := Defaults()
				return &d, nil
			}
			return nil, nil
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}
	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	for i, r := range cfg.Repos {
		expanded, err := expandPath(r)
		if err != nil {
			return nil, fmt.Errorf("expand repos[%d]: %w", i, err)
		}
		cfg.Repos[i] = expanded
	}
	if cfg.OutputDir, err = expandPath(cfg.OutputDir); err != nil {
		return nil, fmt.Errorf("expand output_dir: %w", err)
	}
	return &cfg, nil
}

// Merge combines global and project configs, with project taking precedence.
// Missing keys fall back to global, then defaults.
func Merge(global, project *Config) Config {
	result := Defaults()
	for _, layer := range []*Config{global, project} {
		if layer == nil {
			continue
		}
		if len(layer.Repos) > 0 {
			result.Repos = layer.Repos
		}
		if layer.Author != "" {
			result.Author = layer.Author
		}
		if layer.DefaultFormat != "" {
			result.DefaultFormat = layer.DefaultFormat
		}
		if layer.OutputDir != "" {
			result.OutputDir = layer.OutputDir
		}
		if layer.Sessions.GapMinutes != nil {
			result.Sessions.GapMinutes = layer.Sessions.GapMinutes
		}
		if layer.Sessions.AnchorLookbackMinutes != nil {
			result.Sessions.AnchorLookbackMinutes = layer.Sessions.AnchorLookbackMinutes
		}
		if layer.Sessions.MergeGapMinutes != nil {
			result.Sessions.MergeGapMinutes = layer.Sessions.MergeGapMinutes
		}
	}
	return result
}

// Options converts the session section into engine options. Unset fields
// take the engine defaults.
func (c Config) Options() timeline.Options {
	opts := timeline.DefaultOptions()
	if c.Sessions.GapMinutes != nil {
		opts.GapThresholdMinutes = *c.Sessions.GapMinutes
	}
	if c.Sessions.AnchorLookbackMinutes != nil {
		opts.AnchorLookbackMinutes = *c.Sessions.AnchorLookbackMinutes
	}
	if c.Sessions.MergeGapMinutes != nil {
		opts.MergeGapMinutes = *c.Sessions.MergeGapMinutes
	}
	return opts
}

// Validate checks the output format and the session thresholds.
func (c Config) Validate() error {
	switch c.DefaultFormat {
	case "markdown", "json":
	default:
		return fmt.Errorf("invalid default_format %q: must be \"markdown\" or \"json\"", c.DefaultFormat)
	}
	return c.Options().Validate()
}

// Encode writes cfg as TOML.
func Encode(w io.Writer, cfg Config) error {
	return toml.NewEncoder(w).Encode(cfg)
}

// ParseError is returned when a config file exists but cannot be parsed.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return "failed to parse config file " + e.Path + ": " + e.Err.Error()
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// expandPath expands a leading ~ to the user's home directory.
func expandPath(path string) (string, error) {
	if path == "~" {
		return os.UserHomeDir()
	}
	if len(path) >= 2 && path[:2] == "~/" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, path[2:]), nil
	}
	return path, nil
}

func intPtr(v int) *int { return &v }
