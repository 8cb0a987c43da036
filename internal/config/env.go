package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Environment variables that override file settings.
const (
	EnvAutoRefresh = "STIXOUTLINE_AUTOREFRESH"
	EnvAssetRoot   = "STIXOUTLINE_ASSET_ROOT"
	EnvRenameMode  = "STIXOUTLINE_RENAME_MODE"
)

// LoadDotEnv reads .env style files into the process environment without
// overriding variables that are already set. Missing files are skipped.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load env file %s: %w", f, err)
		}
	}
	return nil
}

// ApplyEnv overrides cfg from the environment read through lookup, which is
// usually os.LookupEnv. The result is validated.
func ApplyEnv(cfg Config, lookup func(string) (string, bool)) (Config, error) {
	if v, ok := lookup(EnvAutoRefresh); ok && strings.TrimSpace(v) != "" {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return cfg, fmt.Errorf("%s: %w", EnvAutoRefresh, err)
		}
		cfg.Outline.AutoRefresh = b
	}
	if v, ok := lookup(EnvAssetRoot); ok && v != "" {
		cfg.Icons.Root = v
	}
	if v, ok := lookup(EnvRenameMode); ok && strings.TrimSpace(v) != "" {
		cfg.Rename.Mode = RenameMode(strings.ToLower(strings.TrimSpace(v)))
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("environment: %w", err)
	}
	return cfg, nil
}
