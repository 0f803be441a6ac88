package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/alnah/go-md2site/internal/config"
	"github.com/alnah/go-md2site/internal/hints"
)

// loadConfig resolves the config file and applies environment overrides.
// Name precedence: --config, then MD2SITE_CONFIG, then the default name.
// A missing default config is not an error; DefaultConfig is used instead.
func loadConfig(common commonFlags, env *Environment) (*config.Config, error) {
	if env.Environ != nil {
		warnUnknownEnvVars(env.Stderr, env.Environ())
	}
	envCfg := loadEnvConfig(env.Getenv)

	name := common.config
	if name == "" {
		name = envCfg.ConfigPath
	}

	var cfg *config.Config
	var err error
	if name != "" {
		cfg, err = config.LoadConfig(name)
		if err != nil {
			if errors.Is(err, config.ErrConfigNotFound) {
				return nil, fmt.Errorf("%w%s", err, hints.ForConfigNotFound(config.SearchPaths(name)))
			}
			return nil, err
		}
	} else {
		cfg, err = config.LoadConfig(config.DefaultName)
		if errors.Is(err, config.ErrConfigNotFound) {
			cfg, err = config.DefaultConfig(), nil
		}
		if err != nil {
			return nil, err
		}
	}

	applyEnvConfig(envCfg, cfg)
	return cfg, nil
}

// loadSiteConfig loads the config and applies site flags on top.
func loadSiteConfig(common commonFlags, f *siteFlags, env *Environment) (*config.Config, error) {
	cfg, err := loadConfig(common, env)
	if err != nil {
		return nil, err
	}
	if err := mergeSiteFlags(f, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// mergeContentFlags applies listing flags to config.
func mergeContentFlags(f *contentFlags, cfg *config.Config) {
	if f.draftPrefixSet {
		cfg.Site.DraftPrefix = f.draftPrefix
	}
	if f.dateFormat != "" {
		cfg.Site.DateFormat = f.dateFormat
	}
}

// mergeEngineFlags applies engine flags to config.
func mergeEngineFlags(f *engineFlags, cfg *config.Config) error {
	if f.path != "" {
		cfg.Engine.Path = f.path
	}
	if f.searchRoot != "" {
		cfg.Engine.SearchRoot = f.searchRoot
	}
	if f.timeout != "" {
		d, err := parseTimeout(f.timeout)
		if err != nil {
			return err
		}
		cfg.Engine.Timeout = d
	}
	if f.poolSize != 0 {
		if f.poolSize < 0 {
			return fmt.Errorf("%w: --pool-size must be >= 0, got %d", ErrUsage, f.poolSize)
		}
		cfg.Engine.PoolSize = f.poolSize
	}
	if f.noSandbox {
		cfg.Engine.NoSandbox = true
	}
	if f.noDiagrams {
		cfg.Diagram.Disabled = true
	}
	return nil
}

// mergeSiteFlags applies every site flag to config.
// CLI flags > env vars > config file > defaults.
func mergeSiteFlags(f *siteFlags, cfg *config.Config) error {
	if f.workers < 0 {
		return fmt.Errorf("%w: --workers must be >= 0, got %d", ErrUsage, f.workers)
	}
	if f.workers > 0 {
		cfg.Workers = f.workers
	}

	mergeContentFlags(&f.content, cfg)
	if err := mergeEngineFlags(&f.engine, cfg); err != nil {
		return err
	}

	if f.highlight.style != "" {
		cfg.Highlight.Style = f.highlight.style
	}
	if f.highlight.plainText != nil {
		cfg.Highlight.PlainText = f.highlight.plainText
	}

	if f.assets.base != "" {
		cfg.Assets.BaseURL = f.assets.base
	}
	if f.assets.path != "" {
		cfg.Assets.BasePath = f.assets.path
	}
	return nil
}

// parseTimeout parses a positive duration flag value.
func parseTimeout(s string) (time.Duration, error) {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid --timeout %q: %v", ErrUsage, s, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%w: --timeout must be positive, got %s", ErrUsage, s)
	}
	return d, nil
}

// resolveContentDir returns the content directory from the first positional
// argument, falling back to config.
func resolveContentDir(args []string, cfg *config.Config) string {
	if len(args) > 0 && args[0] != "" {
		return args[0]
	}
	return cfg.Content.Dir
}

// resolveOutputDir returns the output directory from flag or config.
func resolveOutputDir(flagOutput string, cfg *config.Config) string {
	if flagOutput != "" {
		return flagOutput
	}
	return cfg.Output.Dir
}
