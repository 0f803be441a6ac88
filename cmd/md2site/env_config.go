package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/alnah/go-md2site/internal/config"
)

// envConfig holds configuration from environment variables.
// Provides CI/CD-friendly overrides without requiring YAML files.
type envConfig struct {
	// Tier 1 - Essential
	ConfigPath string        // MD2SITE_CONFIG: config file name or path
	ContentDir string        // MD2SITE_CONTENT_DIR: posts directory
	OutputDir  string        // MD2SITE_OUTPUT_DIR: build output directory
	Engine     string        // MD2SITE_ENGINE: Chromium binary
	Timeout    time.Duration // MD2SITE_TIMEOUT: per-diagram timeout

	// Tier 2 - Rendering
	Workers        int    // MD2SITE_WORKERS: parallel renders
	DraftPrefix    string // MD2SITE_DRAFT_PREFIX: unlisted title prefix
	HighlightStyle string // MD2SITE_HIGHLIGHT_STYLE: chroma style
	AssetBase      string // MD2SITE_ASSET_BASE: URL prefix for relative links
	NoSandbox      bool   // MD2SITE_NO_SANDBOX: disable Chromium sandbox
}

// knownEnvVars lists valid MD2SITE_* environment variables.
// Used to detect typos and warn users about unknown variables.
var knownEnvVars = map[string]bool{
	// Tier 1 - Essential
	"MD2SITE_CONFIG":      true,
	"MD2SITE_CONTENT_DIR": true,
	"MD2SITE_OUTPUT_DIR":  true,
	"MD2SITE_ENGINE":      true,
	"MD2SITE_TIMEOUT":     true,
	// Tier 2 - Rendering
	"MD2SITE_WORKERS":         true,
	"MD2SITE_DRAFT_PREFIX":    true,
	"MD2SITE_HIGHLIGHT_STYLE": true,
	"MD2SITE_ASSET_BASE":      true,
	"MD2SITE_NO_SANDBOX":      true,
	// Read by doctor
	"MD2SITE_CONTAINER": true,
}

// loadEnvConfig reads configuration from environment variables.
// Malformed numbers and durations are ignored.
func loadEnvConfig(getenv func(string) string) *envConfig {
	cfg := &envConfig{
		ConfigPath:     getenv("MD2SITE_CONFIG"),
		ContentDir:     getenv("MD2SITE_CONTENT_DIR"),
		OutputDir:      getenv("MD2SITE_OUTPUT_DIR"),
		Engine:         getenv("MD2SITE_ENGINE"),
		DraftPrefix:    getenv("MD2SITE_DRAFT_PREFIX"),
		HighlightStyle: getenv("MD2SITE_HIGHLIGHT_STYLE"),
		AssetBase:      getenv("MD2SITE_ASSET_BASE"),
		NoSandbox:      getenv("MD2SITE_NO_SANDBOX") == "1",
	}

	if timeout := getenv("MD2SITE_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil && d > 0 {
			cfg.Timeout = d
		}
	}

	if workers := getenv("MD2SITE_WORKERS"); workers != "" {
		if w, err := strconv.Atoi(workers); err == nil && w > 0 {
			cfg.Workers = w
		}
	}

	return cfg
}

// warnUnknownEnvVars logs warnings for unrecognized MD2SITE_* variables.
// Helps catch typos like MD2SITE_ENGIN instead of MD2SITE_ENGINE.
func warnUnknownEnvVars(w io.Writer, environ []string) {
	for _, env := range environ {
		if strings.HasPrefix(env, "MD2SITE_") {
			name, _, _ := strings.Cut(env, "=")
			if !knownEnvVars[name] {
				fmt.Fprintf(w, "warning: unknown environment variable %s (typo?)\n", name)
			}
		}
	}
}

// applyEnvConfig applies environment variable values to config.
// Set variables override the config file; CLI flags are applied afterwards
// via mergeSiteFlags, giving: CLI flags > env vars > config file > defaults.
func applyEnvConfig(env *envConfig, cfg *config.Config) {
	if env.ContentDir != "" {
		cfg.Content.Dir = env.ContentDir
	}
	if env.OutputDir != "" {
		cfg.Output.Dir = env.OutputDir
	}
	if env.Engine != "" {
		cfg.Engine.Path = env.Engine
	}
	if env.Timeout > 0 {
		cfg.Engine.Timeout = env.Timeout
	}
	if env.Workers > 0 {
		cfg.Workers = env.Workers
	}
	if env.DraftPrefix != "" {
		cfg.Site.DraftPrefix = env.DraftPrefix
	}
	if env.HighlightStyle != "" {
		cfg.Highlight.Style = env.HighlightStyle
	}
	if env.AssetBase != "" {
		cfg.Assets.BaseURL = env.AssetBase
	}
	if env.NoSandbox {
		cfg.Engine.NoSandbox = true
	}
}
