package cmd

import (
	"os"

	"github.com/oakwood-commons/stixoutline/internal/config"
	"github.com/oakwood-commons/stixoutline/internal/icons"
	"github.com/oakwood-commons/stixoutline/pkg/settings"
)

// loadConfig layers the embedded defaults, the user file, dotenv files and
// the environment, in that order.
func loadConfig(run *settings.Run) (config.Config, error) {
	if err := config.LoadDotEnv(run.EnvFiles...); err != nil {
		return config.Config{}, err
	}
	cfg, err := config.Load(config.ResolvePath(run.ConfigFile, settings.CliBinaryName))
	if err != nil {
		return cfg, err
	}
	return config.ApplyEnv(cfg, os.LookupEnv)
}

// newIconResolver serves assets from icons.root on disk. Without a root no
// asset exists and every STIX type gets the generic icon.
func newIconResolver(cfg config.Config) (*icons.Resolver, error) {
	opts := icons.Options{
		Root:        cfg.Icons.Root,
		STIXDir:     cfg.Icons.STIXDir,
		DarkSTIXDir: cfg.Icons.DarkSTIXDir,
		LightDir:    cfg.Icons.LightDir,
		DarkDir:     cfg.Icons.DarkDir,
		CacheSize:   cfg.Icons.CacheSize,
	}
	if cfg.Icons.Root == "" {
		return icons.New(nil, opts)
	}
	return icons.New(os.DirFS(cfg.Icons.Root), opts)
}
