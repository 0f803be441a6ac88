package main

// Notes:
// - loadConfig: the default-name lookup reads the working directory and the
//   user config dir; tests use explicit paths to stay hermetic.

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/alnah/go-md2site/internal/config"
)

// ---------------------------------------------------------------------------
// TestLoadConfig_Precedence - flags > env > file > defaults
// ---------------------------------------------------------------------------

func TestLoadConfig_Precedence(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "site.yaml")
	writeFile(t, path, "site:\n  title: From File\n  draftPrefix: FILE\nworkers: 2\nhighlight:\n  style: monokai\n")

	t.Run("file over defaults", func(t *testing.T) {
		t.Parallel()

		env, _, _ := newTestEnv(nil)
		cfg, err := loadConfig(commonFlags{config: path}, env)
		if err != nil {
			t.Fatalf("loadConfig() error = %v", err)
		}
		if cfg.Site.Title != "From File" || cfg.Workers != 2 {
			t.Errorf("cfg = %+v", cfg.Site)
		}
	})

	t.Run("env over file", func(t *testing.T) {
		t.Parallel()

		env, _, _ := newTestEnv(map[string]string{
			"MD2SITE_DRAFT_PREFIX": "ENV",
			"MD2SITE_WORKERS":      "3",
		})
		cfg, err := loadConfig(commonFlags{config: path}, env)
		if err != nil {
			t.Fatalf("loadConfig() error = %v", err)
		}
		if cfg.Site.DraftPrefix != "ENV" || cfg.Workers != 3 {
			t.Errorf("DraftPrefix = %q, Workers = %d", cfg.Site.DraftPrefix, cfg.Workers)
		}
	})

	t.Run("MD2SITE_CONFIG names the file", func(t *testing.T) {
		t.Parallel()

		env, _, _ := newTestEnv(map[string]string{"MD2SITE_CONFIG": path})
		cfg, err := loadConfig(commonFlags{}, env)
		if err != nil {
			t.Fatalf("loadConfig() error = %v", err)
		}
		if cfg.Site.Title != "From File" {
			t.Errorf("Title = %q", cfg.Site.Title)
		}
	})

	t.Run("flags over env", func(t *testing.T) {
		t.Parallel()

		env, _, _ := newTestEnv(map[string]string{"MD2SITE_HIGHLIGHT_STYLE": "dracula"})
		f := &siteFlags{
			workers:   5,
			content:   contentFlags{draftPrefix: "", draftPrefixSet: true},
			highlight: highlightFlags{style: "github"},
		}
		cfg, err := loadSiteConfig(commonFlags{config: path}, f, env)
		if err != nil {
			t.Fatalf("loadSiteConfig() error = %v", err)
		}
		if cfg.Workers != 5 || cfg.Site.DraftPrefix != "" || cfg.Highlight.Style != "github" {
			t.Errorf("Workers = %d, DraftPrefix = %q, Style = %q",
				cfg.Workers, cfg.Site.DraftPrefix, cfg.Highlight.Style)
		}
	})

	t.Run("missing explicit config", func(t *testing.T) {
		t.Parallel()

		env, _, _ := newTestEnv(nil)
		_, err := loadConfig(commonFlags{config: filepath.Join(dir, "nope.yaml")}, env)
		if !errors.Is(err, config.ErrConfigNotFound) {
			t.Fatalf("error = %v, want ErrConfigNotFound", err)
		}
		if !strings.Contains(err.Error(), "hint: use --config") {
			t.Errorf("error %q has no hint", err)
		}
	})

	t.Run("invalid flag value fails validation", func(t *testing.T) {
		t.Parallel()

		env, _, _ := newTestEnv(nil)
		f := &siteFlags{highlight: highlightFlags{style: "no-such-style"}}
		_, err := loadSiteConfig(commonFlags{config: path}, f, env)
		if !errors.Is(err, config.ErrInvalidValue) {
			t.Errorf("error = %v, want ErrInvalidValue", err)
		}
	})
}

// ---------------------------------------------------------------------------
// TestMergeSiteFlags - Flag application
// ---------------------------------------------------------------------------

func TestMergeSiteFlags(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		flags   siteFlags
		check   func(t *testing.T, cfg *config.Config)
		wantErr error
	}{
		{
			name:  "zero flags keep config",
			flags: siteFlags{},
			check: func(t *testing.T, cfg *config.Config) {
				if diff := cmp.Diff(config.DefaultConfig(), cfg); diff != "" {
					t.Errorf("config changed (-want +got):\n%s", diff)
				}
			},
		},
		{
			name: "engine flags",
			flags: siteFlags{engine: engineFlags{
				path: "/bin/chrome", searchRoot: "/cache", timeout: "45s",
				poolSize: 2, noSandbox: true, noDiagrams: true,
			}},
			check: func(t *testing.T, cfg *config.Config) {
				want := config.EngineConfig{
					Path: "/bin/chrome", SearchRoot: "/cache", Timeout: 45 * time.Second,
					PoolSize: 2, NoSandbox: true,
				}
				if diff := cmp.Diff(want, cfg.Engine); diff != "" {
					t.Errorf("Engine mismatch (-want +got):\n%s", diff)
				}
				if !cfg.Diagram.Disabled {
					t.Error("Diagram.Disabled = false, want true")
				}
			},
		},
		{
			name:  "highlight and assets",
			flags: siteFlags{highlight: highlightFlags{plainText: []string{"log"}}, assets: assetFlags{base: "/s/", path: "tpl"}},
			check: func(t *testing.T, cfg *config.Config) {
				if diff := cmp.Diff([]string{"log"}, cfg.Highlight.PlainText); diff != "" {
					t.Errorf("PlainText mismatch (-want +got):\n%s", diff)
				}
				if cfg.Assets.BaseURL != "/s/" || cfg.Assets.BasePath != "tpl" {
					t.Errorf("Assets = %+v", cfg.Assets)
				}
			},
		},
		{
			name:  "unset draft prefix flag keeps config",
			flags: siteFlags{content: contentFlags{draftPrefix: ""}},
			check: func(t *testing.T, cfg *config.Config) {
				if cfg.Site.DraftPrefix != config.DefaultDraftPrefix {
					t.Errorf("DraftPrefix = %q", cfg.Site.DraftPrefix)
				}
			},
		},
		{
			name:    "negative workers",
			flags:   siteFlags{workers: -1},
			wantErr: ErrUsage,
		},
		{
			name:    "negative pool size",
			flags:   siteFlags{engine: engineFlags{poolSize: -1}},
			wantErr: ErrUsage,
		},
		{
			name:    "bad timeout",
			flags:   siteFlags{engine: engineFlags{timeout: "-5s"}},
			wantErr: ErrUsage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := config.DefaultConfig()
			err := mergeSiteFlags(&tt.flags, cfg)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("mergeSiteFlags() = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("mergeSiteFlags() error = %v", err)
			}
			tt.check(t, cfg)
		})
	}
}

// ---------------------------------------------------------------------------
// TestParseTimeout - Duration flag parsing
// ---------------------------------------------------------------------------

func TestParseTimeout(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input   string
		want    time.Duration
		wantErr bool
	}{
		{"30s", 30 * time.Second, false},
		{"2m", 2 * time.Minute, false},
		{"0s", 0, true},
		{"-1s", 0, true},
		{"soon", 0, true},
	}

	for _, tt := range tests {
		got, err := parseTimeout(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseTimeout(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if err != nil && !errors.Is(err, ErrUsage) {
			t.Errorf("parseTimeout(%q) error = %v, want ErrUsage", tt.input, err)
		}
		if got != tt.want {
			t.Errorf("parseTimeout(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

// ---------------------------------------------------------------------------
// TestResolveDirs - Positional and flag directories
// ---------------------------------------------------------------------------

func TestResolveDirs(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultConfig()

	if got := resolveContentDir(nil, cfg); got != config.DefaultContentDir {
		t.Errorf("resolveContentDir(nil) = %q", got)
	}
	if got := resolveContentDir([]string{"articles"}, cfg); got != "articles" {
		t.Errorf("resolveContentDir(articles) = %q", got)
	}
	if got := resolveOutputDir("", cfg); got != config.DefaultOutputDir {
		t.Errorf("resolveOutputDir(\"\") = %q", got)
	}
	if got := resolveOutputDir("dist", cfg); got != "dist" {
		t.Errorf("resolveOutputDir(dist) = %q", got)
	}
}
