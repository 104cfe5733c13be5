// Package config loads the runner's own settings. The formatter's
// configuration is never read here; it is only passed through.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/andyballingall/cmake-format-runner/internal/discover"
	"github.com/andyballingall/cmake-format-runner/internal/formatter"
	rfs "github.com/andyballingall/cmake-format-runner/internal/fs"
)

// FileName is looked up in the working directory when no path is given.
const FileName = ".cmake-format-runner.yml"

const (
	// EnvBinary overrides the formatter binary.
	EnvBinary = "CMAKE_FORMAT_BINARY"
	// EnvLogFile enables the JSON log file.
	EnvLogFile = "CMAKE_FORMAT_RUNNER_LOG_FILE"
)

// Config holds runner settings. Command-line flags are applied on top by the caller.
type Config struct {
	Formatter string   `yaml:"formatter"`
	Exclude   []string `yaml:"exclude"`
	Suffixes  []string `yaml:"suffixes"`
	Filenames []string `yaml:"filenames"`
	Jobs      int      `yaml:"jobs"`
	Style     string   `yaml:"style"`

	LogFile string `yaml:"-"`
	// Path is the file the settings came from, or "" for defaults.
	Path string `yaml:"-"`
}

// Default returns the built-in settings.
func Default() *Config {
	m := discover.DefaultMatcher()
	return &Config{
		Formatter: formatter.DefaultBinary,
		Suffixes:  m.Suffixes,
		Filenames: m.Names,
		Style:     formatter.StyleFile,
	}
}

// Load reads path over the defaults and then applies the environment.
// A missing file is only an error when required is set, which the caller
// does when the user named the file explicitly.
func Load(path string, required bool, env rfs.EnvProvider) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist) && !required:
	case errors.Is(err, fs.ErrNotExist):
		return nil, &MissingConfigError{Path: path}
	case err != nil:
		return nil, err
	default:
		if err := cfg.decode(data); err != nil {
			return nil, err
		}
		cfg.Path = path
		// A relative style file is relative to the config file that names it.
		if cfg.Style != formatter.StyleFile && cfg.Style != "" && !filepath.IsAbs(cfg.Style) {
			cfg.Style = filepath.Join(filepath.Dir(path), cfg.Style)
		}
	}

	if env != nil {
		cfg.applyEnv(env)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) decode(data []byte) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return &InvalidYAMLError{Wrapped: err}
	}
	return nil
}

func (c *Config) applyEnv(env rfs.EnvProvider) {
	if v := env.Get(EnvBinary); v != "" {
		c.Formatter = v
	}
	if v := env.Get(EnvLogFile); v != "" {
		c.LogFile = v
	}
}

// Validate checks property values.
func (c *Config) Validate() error {
	if c.Formatter == "" {
		return &MissingPropertyError{Property: "formatter"}
	}
	if c.Style == "" {
		return &MissingPropertyError{Property: "style"}
	}
	if c.Jobs < 0 {
		return &InvalidPropertyError{Property: "jobs", Value: fmt.Sprint(c.Jobs), Reason: "must be zero or positive"}
	}
	if len(c.Suffixes) == 0 && len(c.Filenames) == 0 {
		return &MissingPropertyError{Property: "suffixes or filenames"}
	}
	for _, s := range c.Suffixes {
		if !strings.HasPrefix(s, ".") || len(s) < 2 {
			return &InvalidPropertyError{Property: "suffixes", Value: s, Reason: "must start with a dot"}
		}
	}
	for _, p := range c.Exclude {
		if _, err := discover.NewPatterns(p); err != nil {
			return &InvalidPropertyError{Property: "exclude", Value: p, Reason: err.Error()}
		}
	}
	return nil
}

// Matcher returns the recognised file matcher.
func (c *Config) Matcher() discover.Matcher {
	return discover.Matcher{Suffixes: c.Suffixes, Names: c.Filenames}
}
