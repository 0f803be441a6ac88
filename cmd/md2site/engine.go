package main

import (
	"github.com/go-rod/rod/lib/launcher"
	"go.uber.org/zap"

	md2site "github.com/alnah/go-md2site"
	"github.com/alnah/go-md2site/internal/config"
	"github.com/alnah/go-md2site/internal/dateutil"
	"github.com/alnah/go-md2site/internal/fileutil"
	"github.com/alnah/go-md2site/internal/hints"
)

// Engine sources, in lookup order.
const (
	sourceConfig     = "config"
	sourceEnv        = "ROD_BROWSER_BIN"
	sourcePlaywright = "playwright"
	sourcePath       = "PATH"
)

// lookPath finds a system Chrome. Replaced in tests.
var lookPath = launcher.LookPath

// engineResolution describes where the Mermaid engine was found.
type engineResolution struct {
	Path       string `json:"path,omitempty"`
	Source     string `json:"source,omitempty"`
	Found      bool   `json:"found"`
	SearchRoot string `json:"search_root,omitempty"`
}

// resolveEngine locates a Chromium binary.
// An explicit path (flag, env, or config) is final: when it does not exist
// the result is not found, without falling back to discovery.
func resolveEngine(cfg config.EngineConfig, getenv func(string) string) engineResolution {
	if cfg.Path != "" {
		return engineResolution{Path: cfg.Path, Source: sourceConfig, Found: fileutil.FileExists(cfg.Path)}
	}

	if bin := getenv("ROD_BROWSER_BIN"); bin != "" && fileutil.FileExists(bin) {
		return engineResolution{Path: bin, Source: sourceEnv, Found: true}
	}

	root := cfg.SearchRoot
	if root == "" {
		root = md2site.DefaultSearchRoot()
	}
	if path, ok := md2site.FindExecutable(root); ok {
		return engineResolution{Path: path, Source: sourcePlaywright, Found: true, SearchRoot: root}
	}

	if path, ok := lookPath(); ok {
		return engineResolution{Path: path, Source: sourcePath, Found: true, SearchRoot: root}
	}
	return engineResolution{SearchRoot: root}
}

// siteOptions translates config into Site options.
// Without a usable engine, Mermaid fences stay code blocks and a warning
// is logged once.
func siteOptions(cfg *config.Config, getenv func(string) string, logger *zap.Logger) []md2site.Option {
	opts := []md2site.Option{
		md2site.WithLogger(logger),
		md2site.WithWorkers(cfg.Workers),
		md2site.WithIndexOptions(
			md2site.WithDraftPrefix(cfg.Site.DraftPrefix),
			md2site.WithDisplayFormat(displayFormat(cfg)),
		),
		md2site.WithHighlight(cfg.Highlight.Style, cfg.Highlight.PlainText),
		md2site.WithAssetBase(cfg.Assets.BaseURL),
		md2site.WithAssetPath(cfg.Assets.BasePath),
	}

	if cfg.Diagram.Disabled {
		return append(opts, md2site.WithoutDiagrams())
	}
	if cfg.Engine.Disabled {
		logger.Debug("mermaid engine disabled by config")
		return opts
	}

	eng := resolveEngine(cfg.Engine, getenv)
	if !eng.Found {
		fields := []zap.Field{zap.String("hint", hints.ForEngineNotFound())}
		if eng.Path != "" {
			fields = append(fields, zap.String("path", eng.Path))
		}
		logger.Warn("mermaid engine not found; mermaid blocks stay as code", fields...)
		return opts
	}

	logger.Debug("mermaid engine", zap.String("path", eng.Path), zap.String("source", eng.Source))
	return append(opts,
		md2site.WithEngine(eng.Path),
		md2site.WithMermaid(md2site.MermaidConfig{
			NoSandbox:     cfg.Engine.NoSandbox || getenv("ROD_NO_SANDBOX") == "1",
			PoolSize:      cfg.Engine.PoolSize,
			Timeout:       cfg.Engine.Timeout,
			ScriptSrc:     cfg.Diagram.MermaidScript,
			SecurityLevel: cfg.Diagram.SecurityLevel,
			Theme:         cfg.Diagram.MermaidTheme,
		}),
	)
}

// displayFormat returns the configured date format or the library default.
func displayFormat(cfg *config.Config) string {
	if cfg.Site.DateFormat != "" {
		return cfg.Site.DateFormat
	}
	return dateutil.DefaultDisplayFormat
}

// newSite opens contentDir and builds a Site from config.
func newSite(cfg *config.Config, contentDir string, env *Environment, logger *zap.Logger) (*md2site.Site, error) {
	return md2site.NewSite(md2site.NewFSRepository(contentDir), siteOptions(cfg, env.Getenv, logger)...)
}
