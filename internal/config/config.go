// Package config loads stixoutline settings from the embedded defaults, a
// user file and the environment.
package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed default_config.yaml
var embeddedDefaultConfig []byte

var (
	embeddedConfigOnce sync.Once
	embeddedConfig     Config
	embeddedConfigErr  error
)

// RenameMode selects which span a rename rewrites when the target is the
// value of a property. RenameKey, the default, rewrites the property name,
// so renaming the value of {"name": "old"} to "new" gives {"new": "old"}.
// RenameValue rewrites the value itself and gives {"name": "new"}.
type RenameMode string

const (
	RenameKey   RenameMode = "key"
	RenameValue RenameMode = "value"
)

type Config struct {
	App     AppConfig     `yaml:"app"`
	Outline OutlineConfig `yaml:"outline"`
	Parser  ParserConfig  `yaml:"parser"`
	Rename  RenameConfig  `yaml:"rename"`
	Icons   IconsConfig   `yaml:"icons"`
	Render  RenderConfig  `yaml:"render"`
	TUI     TUIConfig     `yaml:"tui"`
	Server  ServerConfig  `yaml:"server"`
}

type AppConfig struct {
	About AboutConfig `yaml:"about"`
}

type AboutConfig struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

type OutlineConfig struct {
	AutoRefresh bool     `yaml:"autorefresh"`
	Languages   []string `yaml:"languages"`
	Schemes     []string `yaml:"schemes"`
	ContextKey  string   `yaml:"context_key"`
}

type ParserConfig struct {
	AllowComments      bool `yaml:"allow_comments"`
	AllowTrailingComma bool `yaml:"allow_trailing_comma"`
}

type RenameConfig struct {
	Mode        RenameMode `yaml:"mode"`
	Placeholder string     `yaml:"placeholder"`
}

type IconsConfig struct {
	Root        string `yaml:"root"`
	STIXDir     string `yaml:"stix_dir"`
	DarkSTIXDir string `yaml:"dark_stix_dir"`
	LightDir    string `yaml:"light_dir"`
	DarkDir     string `yaml:"dark_dir"`
	CacheSize   int    `yaml:"cache_size"`
}

type RenderConfig struct {
	Depth int  `yaml:"depth"`
	Icons bool `yaml:"icons"`
}

type TUIConfig struct {
	PollInterval time.Duration `yaml:"poll_interval"`
}

type ServerConfig struct {
	Listen string `yaml:"listen"`
}

// DefaultConfigYAML returns a copy of the embedded default config.
func DefaultConfigYAML() []byte {
	return append([]byte(nil), embeddedDefaultConfig...)
}

// Default returns the embedded default configuration.
func Default() (Config, error) {
	embeddedConfigOnce.Do(func() {
		if len(embeddedDefaultConfig) == 0 {
			embeddedConfigErr = fmt.Errorf("embedded default config is empty")
			return
		}
		if err := decodeStrict(embeddedDefaultConfig, &embeddedConfig); err != nil {
			embeddedConfigErr = fmt.Errorf("decode embedded default config: %w", err)
		}
	})
	return embeddedConfig.clone(), embeddedConfigErr
}

// Load merges the file at path over the defaults. An empty path loads the
// defaults only. The result is validated.
func Load(path string) (Config, error) {
	cfg, err := Default()
	if err != nil {
		return cfg, err
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := decodeStrict(data, &cfg); err != nil {
			return cfg, fmt.Errorf("decode config %s: %w", path, err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", displayPath(path), err)
	}
	return cfg, nil
}

// decodeStrict decodes data on top of out; keys missing from data keep
// their current value and unknown keys are an error.
func decodeStrict(data []byte, out *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// Validate checks values a file or environment could get wrong.
func (c Config) Validate() error {
	var errs []error
	switch c.Rename.Mode {
	case RenameKey, RenameValue:
	default:
		errs = append(errs, fmt.Errorf("rename.mode %q must be %q or %q", c.Rename.Mode, RenameKey, RenameValue))
	}
	if len(c.Outline.Languages) == 0 {
		errs = append(errs, errors.New("outline.languages must not be empty"))
	}
	if len(c.Outline.Schemes) == 0 {
		errs = append(errs, errors.New("outline.schemes must not be empty"))
	}
	if c.Icons.CacheSize <= 0 {
		errs = append(errs, fmt.Errorf("icons.cache_size must be positive, got %d", c.Icons.CacheSize))
	}
	if c.Render.Depth < 0 {
		errs = append(errs, fmt.Errorf("render.depth must not be negative, got %d", c.Render.Depth))
	}
	if c.TUI.PollInterval < 0 {
		errs = append(errs, fmt.Errorf("tui.poll_interval must not be negative, got %s", c.TUI.PollInterval))
	}
	return errors.Join(errs...)
}

// OutlineEnabledFor reports whether a document with this scheme and
// language gets an outline.
func (c Config) OutlineEnabledFor(scheme, languageID string) bool {
	return slices.Contains(c.Outline.Schemes, scheme) && slices.Contains(c.Outline.Languages, languageID)
}

func (c Config) clone() Config {
	c.Outline.Languages = slices.Clone(c.Outline.Languages)
	c.Outline.Schemes = slices.Clone(c.Outline.Schemes)
	return c
}

// ResolvePath returns explicit if set, otherwise the XDG config file
// ($XDG_CONFIG_HOME/stixoutline/config.yaml, falling back to
// ~/.config/stixoutline/config.yaml) when it exists.
func ResolvePath(explicit, appName string) string {
	if explicit != "" {
		return explicit
	}
	xdg := os.Getenv("XDG_CONFIG_HOME")
	candidate := ""
	if xdg != "" {
		candidate = filepath.Join(xdg, appName, "config.yaml")
	} else if home, err := os.UserHomeDir(); err == nil {
		candidate = filepath.Join(home, ".config", appName, "config.yaml")
	}
	if candidate != "" {
		if st, err := os.Stat(candidate); err == nil && !st.IsDir() {
			return candidate
		}
	}
	return ""
}

func displayPath(path string) string {
	if path == "" {
		return "defaults"
	}
	return path
}
