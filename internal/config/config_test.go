package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func writeConfig(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()

	if cfg.Content.Dir != DefaultContentDir {
		t.Errorf("Content.Dir = %q, want %q", cfg.Content.Dir, DefaultContentDir)
	}
	if cfg.Site.DraftPrefix != "WIP" {
		t.Errorf("Site.DraftPrefix = %q, want WIP", cfg.Site.DraftPrefix)
	}
	if cfg.Engine.Timeout != 30*time.Second {
		t.Errorf("Engine.Timeout = %v, want 30s", cfg.Engine.Timeout)
	}
	if diff := cmp.Diff([]string{"txt", "text"}, cfg.Highlight.PlainText); diff != "" {
		t.Errorf("Highlight.PlainText mismatch (-want +got):\n%s", diff)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("DefaultConfig().Validate() = %v", err)
	}

	// Defaults must not share the package-level slice.
	cfg.Highlight.PlainText[0] = "mutated"
	if DefaultPlainText[0] != "txt" {
		t.Error("DefaultConfig aliases DefaultPlainText")
	}
}

func TestValidateFieldLength(t *testing.T) {
	t.Parallel()

	if err := validateFieldLength("f", "1234567890", 10); err != nil {
		t.Errorf("value at limit: unexpected error %v", err)
	}
	err := validateFieldLength("site.title", "12345678901", 10)
	if !errors.Is(err, ErrFieldTooLong) {
		t.Fatalf("error = %v, want ErrFieldTooLong", err)
	}
	if !strings.Contains(err.Error(), "site.title") {
		t.Errorf("error %q does not name the field", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
		errText string
	}{
		{
			name:   "defaults are valid",
			mutate: func(*Config) {},
		},
		{
			name:    "title too long",
			mutate:  func(c *Config) { c.Site.Title = strings.Repeat("x", MaxTitleLength+1) },
			wantErr: ErrFieldTooLong,
		},
		{
			name:    "draft prefix too long",
			mutate:  func(c *Config) { c.Site.DraftPrefix = strings.Repeat("W", MaxDraftPrefixLength+1) },
			wantErr: ErrFieldTooLong,
		},
		{
			name:    "bad date format",
			mutate:  func(c *Config) { c.Site.DateFormat = "[YYYY" },
			errText: "site.dateFormat",
		},
		{
			name:    "negative timeout",
			mutate:  func(c *Config) { c.Engine.Timeout = -time.Second },
			wantErr: ErrInvalidValue,
		},
		{
			name:    "timeout above limit",
			mutate:  func(c *Config) { c.Engine.Timeout = MaxTimeout + time.Second },
			wantErr: ErrInvalidValue,
		},
		{
			name:    "negative pool size",
			mutate:  func(c *Config) { c.Engine.PoolSize = -1 },
			wantErr: ErrInvalidValue,
		},
		{
			name:    "too many workers",
			mutate:  func(c *Config) { c.Workers = MaxWorkers + 1 },
			wantErr: ErrInvalidValue,
		},
		{
			name:    "unknown security level",
			mutate:  func(c *Config) { c.Diagram.SecurityLevel = "none" },
			wantErr: ErrInvalidValue,
		},
		{
			name:    "unknown chroma style",
			mutate:  func(c *Config) { c.Highlight.Style = "no-such-style" },
			wantErr: ErrInvalidValue,
		},
		{
			name:    "relative base url",
			mutate:  func(c *Config) { c.Assets.BaseURL = "static" },
			wantErr: ErrInvalidValue,
		},
		{
			name:   "rooted base url",
			mutate: func(c *Config) { c.Assets.BaseURL = "/blog/" },
		},
		{
			name:   "absolute base url",
			mutate: func(c *Config) { c.Assets.BaseURL = "https://cdn.example.com/posts/" },
		},
		{
			name:   "known chroma style",
			mutate: func(c *Config) { c.Highlight.Style = "monokai" },
		},
		{
			name:    "empty plain text language",
			mutate:  func(c *Config) { c.Highlight.PlainText = []string{"txt", ""} },
			wantErr: ErrInvalidValue,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()

			switch {
			case tt.wantErr != nil:
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
				}
			case tt.errText != "":
				if err == nil || !strings.Contains(err.Error(), tt.errText) {
					t.Errorf("Validate() = %v, want error containing %q", err, tt.errText)
				}
			default:
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
			}
		})
	}
}

func TestLoadConfig(t *testing.T) {
	t.Parallel()

	t.Run("empty name", func(t *testing.T) {
		t.Parallel()

		if _, err := LoadConfig(""); !errors.Is(err, ErrEmptyConfigName) {
			t.Errorf("LoadConfig(\"\") = %v, want ErrEmptyConfigName", err)
		}
	})

	t.Run("missing file path", func(t *testing.T) {
		t.Parallel()

		_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
		if !errors.Is(err, ErrConfigNotFound) {
			t.Errorf("LoadConfig() = %v, want ErrConfigNotFound", err)
		}
	})

	t.Run("full file", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		path := writeConfig(t, dir, "site.yaml", `
content:
  dir: articles
output:
  dir: /srv/www
site:
  title: Notes
  draftPrefix: DRAFT
engine:
  timeout: 45s
  noSandbox: true
highlight:
  style: monokai
  plainText: [txt, text, console]
workers: 4
`)

		cfg, err := LoadConfig(path)
		if err != nil {
			t.Fatalf("LoadConfig() error = %v", err)
		}

		if want := filepath.Join(dir, "articles"); cfg.Content.Dir != want {
			t.Errorf("Content.Dir = %q, want %q", cfg.Content.Dir, want)
		}
		if cfg.Output.Dir != "/srv/www" {
			t.Errorf("Output.Dir = %q, want absolute path kept", cfg.Output.Dir)
		}
		if cfg.Site.DraftPrefix != "DRAFT" {
			t.Errorf("Site.DraftPrefix = %q, want DRAFT", cfg.Site.DraftPrefix)
		}
		if cfg.Engine.Timeout != 45*time.Second || !cfg.Engine.NoSandbox {
			t.Errorf("Engine = %+v", cfg.Engine)
		}
		if diff := cmp.Diff([]string{"txt", "text", "console"}, cfg.Highlight.PlainText); diff != "" {
			t.Errorf("PlainText mismatch (-want +got):\n%s", diff)
		}
		if cfg.Workers != 4 {
			t.Errorf("Workers = %d, want 4", cfg.Workers)
		}
	})

	t.Run("partial file keeps defaults", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		path := writeConfig(t, dir, "site.yaml", "site:\n  title: Blog\n")

		cfg, err := LoadConfig(path)
		if err != nil {
			t.Fatalf("LoadConfig() error = %v", err)
		}
		if cfg.Site.DraftPrefix != DefaultDraftPrefix {
			t.Errorf("DraftPrefix = %q, want default", cfg.Site.DraftPrefix)
		}
		if cfg.Diagram.MermaidScript != DefaultMermaidScript {
			t.Errorf("MermaidScript = %q, want default", cfg.Diagram.MermaidScript)
		}
		if want := filepath.Join(dir, DefaultContentDir); cfg.Content.Dir != want {
			t.Errorf("Content.Dir = %q, want %q", cfg.Content.Dir, want)
		}
	})

	t.Run("unknown field is rejected", func(t *testing.T) {
		t.Parallel()

		path := writeConfig(t, t.TempDir(), "site.yaml", "site:\n  titel: typo\n")
		if _, err := LoadConfig(path); !errors.Is(err, ErrConfigParse) {
			t.Errorf("LoadConfig() = %v, want ErrConfigParse", err)
		}
	})

	t.Run("invalid value fails validation", func(t *testing.T) {
		t.Parallel()

		path := writeConfig(t, t.TempDir(), "site.yaml", "workers: 1000\n")
		if _, err := LoadConfig(path); !errors.Is(err, ErrInvalidValue) {
			t.Errorf("LoadConfig() = %v, want ErrInvalidValue", err)
		}
	})
}

func TestLoadConfig_ByName(t *testing.T) {
	// Changes the working directory; not parallel.
	dir := t.TempDir()
	writeConfig(t, dir, "blog.yml", "site:\n  title: From Name\n")
	t.Chdir(dir)

	cfg, err := LoadConfig("blog")
	if err != nil {
		t.Fatalf("LoadConfig(blog) error = %v", err)
	}
	if cfg.Site.Title != "From Name" {
		t.Errorf("Site.Title = %q, want %q", cfg.Site.Title, "From Name")
	}

	_, err = LoadConfig("absent")
	if !errors.Is(err, ErrConfigNotFound) {
		t.Fatalf("LoadConfig(absent) = %v, want ErrConfigNotFound", err)
	}
	if !strings.Contains(err.Error(), "absent.yaml") {
		t.Errorf("error %q does not list tried paths", err)
	}
}

func TestSearchPaths(t *testing.T) {
	t.Parallel()

	paths := SearchPaths("md2site")
	if len(paths) < 2 {
		t.Fatalf("SearchPaths() = %v, want at least local paths", paths)
	}
	if paths[0] != "md2site.yaml" || paths[1] != "md2site.yml" {
		t.Errorf("local paths = %v, want md2site.yaml then md2site.yml", paths[:2])
	}
	for _, p := range paths[2:] {
		if !strings.Contains(p, userConfigSubdir) {
			t.Errorf("user path %q not under %s", p, userConfigSubdir)
		}
	}
}
