// Package config loads and validates the md2site YAML configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/alecthomas/chroma/v2/styles"

	"github.com/alnah/go-md2site/internal/dateutil"
	"github.com/alnah/go-md2site/internal/fileutil"
	"github.com/alnah/go-md2site/internal/yamlutil"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrEmptyConfigName = errors.New("config name cannot be empty")
	ErrConfigParse     = errors.New("failed to parse config")
	ErrFieldTooLong    = errors.New("field exceeds maximum length")
	ErrInvalidValue    = errors.New("invalid config value")
)

// DefaultName is the config name looked up when none is given.
const DefaultName = "md2site"

// userConfigSubdir is the directory under os.UserConfigDir searched by name.
const userConfigSubdir = "go-md2site"

// Field length limits.
const (
	MaxPathLength        = 4096
	MaxURLLength         = 2048
	MaxTitleLength       = 200
	MaxDraftPrefixLength = 20
	MaxStyleLength       = 50
	MaxLanguageLength    = 30
	MaxWorkers           = 64
	MaxTimeout           = 10 * time.Minute
)

// Defaults applied by DefaultConfig and to zero-valued fields after loading.
const (
	DefaultContentDir    = "posts"
	DefaultOutputDir     = "public"
	DefaultDraftPrefix   = "WIP"
	DefaultHighlight     = "github"
	DefaultMermaidScript = "https://cdn.jsdelivr.net/npm/mermaid@10/dist/mermaid.min.js"
	DefaultMermaidTheme  = "default"
	DefaultTimeout       = 30 * time.Second
)

// DefaultPlainText lists the fence languages rendered without highlighting.
var DefaultPlainText = []string{"txt", "text"}

// Config holds all configuration for a site build.
type Config struct {
	Content   ContentConfig   `yaml:"content"`
	Output    OutputConfig    `yaml:"output"`
	Site      SiteConfig      `yaml:"site"`
	Engine    EngineConfig    `yaml:"engine"`
	Diagram   DiagramConfig   `yaml:"diagram"`
	Highlight HighlightConfig `yaml:"highlight"`
	Assets    AssetsConfig    `yaml:"assets"`
	Workers   int             `yaml:"workers"` // 0 = one per CPU
}

// ContentConfig locates the Markdown posts.
type ContentConfig struct {
	Dir string `yaml:"dir"`
}

// OutputConfig locates the generated JSON and CSS.
type OutputConfig struct {
	Dir string `yaml:"dir"`
}

// SiteConfig holds listing options.
type SiteConfig struct {
	Title       string `yaml:"title"`
	DateFormat  string `yaml:"dateFormat"`  // dateutil token format for display dates
	DraftPrefix string `yaml:"draftPrefix"` // titles with this prefix are unlisted
}

// EngineConfig controls the headless browser used for Mermaid diagrams.
type EngineConfig struct {
	Path       string        `yaml:"path"`       // explicit binary, skips discovery
	SearchRoot string        `yaml:"searchRoot"` // empty = user cache dir
	Disabled   bool          `yaml:"disabled"`
	NoSandbox  bool          `yaml:"noSandbox"`
	Timeout    time.Duration `yaml:"timeout"` // per diagram
	PoolSize   int           `yaml:"poolSize"` // 0 = auto
}

// DiagramConfig controls diagram rendering.
type DiagramConfig struct {
	Disabled      bool   `yaml:"disabled"`
	MermaidScript string `yaml:"mermaidScript"` // URL or local path to mermaid.min.js
	MermaidTheme  string `yaml:"mermaidTheme"`
	SecurityLevel string `yaml:"securityLevel"` // strict, loose, antiscript, sandbox
}

// HighlightConfig controls code highlighting.
type HighlightConfig struct {
	Style     string   `yaml:"style"`     // chroma style name
	PlainText []string `yaml:"plainText"` // fence languages left unhighlighted
}

// AssetsConfig defines asset loading options.
type AssetsConfig struct {
	BasePath string `yaml:"basePath"` // Empty = use embedded assets
	BaseURL  string `yaml:"baseURL"`  // prefix for relative links; "/" path or absolute URL
}

var securityLevels = []string{"strict", "loose", "antiscript", "sandbox"}

// Validate checks field lengths and enumerated values.
// Called automatically by LoadConfig, but available for consumers
// who construct Config manually.
func (c *Config) Validate() error {
	paths := []struct{ name, value string }{
		{"content.dir", c.Content.Dir},
		{"output.dir", c.Output.Dir},
		{"engine.path", c.Engine.Path},
		{"engine.searchRoot", c.Engine.SearchRoot},
		{"assets.basePath", c.Assets.BasePath},
	}
	for _, p := range paths {
		if err := validateFieldLength(p.name, p.value, MaxPathLength); err != nil {
			return err
		}
	}

	if err := validateFieldLength("site.title", c.Site.Title, MaxTitleLength); err != nil {
		return err
	}
	if err := validateFieldLength("site.draftPrefix", c.Site.DraftPrefix, MaxDraftPrefixLength); err != nil {
		return err
	}
	if c.Site.DateFormat != "" {
		if _, err := dateutil.ParseDateFormat(c.Site.DateFormat); err != nil {
			return fmt.Errorf("site.dateFormat: %w", err)
		}
	}

	if c.Engine.Timeout < 0 || c.Engine.Timeout > MaxTimeout {
		return fmt.Errorf("%w: engine.timeout must be between 0 and %s, got %s", ErrInvalidValue, MaxTimeout, c.Engine.Timeout)
	}
	if c.Engine.PoolSize < 0 {
		return fmt.Errorf("%w: engine.poolSize must not be negative, got %d", ErrInvalidValue, c.Engine.PoolSize)
	}
	if c.Workers < 0 || c.Workers > MaxWorkers {
		return fmt.Errorf("%w: workers must be between 0 and %d, got %d", ErrInvalidValue, MaxWorkers, c.Workers)
	}

	if err := validateFieldLength("assets.baseURL", c.Assets.BaseURL, MaxURLLength); err != nil {
		return err
	}
	if c.Assets.BaseURL != "" && !strings.HasPrefix(c.Assets.BaseURL, "/") && !fileutil.IsURL(c.Assets.BaseURL) {
		return fmt.Errorf("%w: assets.baseURL %q must be an absolute path or URL", ErrInvalidValue, c.Assets.BaseURL)
	}

	if err := validateFieldLength("diagram.mermaidScript", c.Diagram.MermaidScript, MaxURLLength); err != nil {
		return err
	}
	if c.Diagram.SecurityLevel != "" && !slices.Contains(securityLevels, c.Diagram.SecurityLevel) {
		return fmt.Errorf("%w: diagram.securityLevel %q (must be one of %s)",
			ErrInvalidValue, c.Diagram.SecurityLevel, strings.Join(securityLevels, ", "))
	}

	if err := validateFieldLength("highlight.style", c.Highlight.Style, MaxStyleLength); err != nil {
		return err
	}
	if c.Highlight.Style != "" && !slices.Contains(styles.Names(), c.Highlight.Style) {
		return fmt.Errorf("%w: highlight.style %q is not a chroma style", ErrInvalidValue, c.Highlight.Style)
	}
	for i, lang := range c.Highlight.PlainText {
		if lang == "" {
			return fmt.Errorf("%w: highlight.plainText[%d] is empty", ErrInvalidValue, i)
		}
		if err := validateFieldLength(fmt.Sprintf("highlight.plainText[%d]", i), lang, MaxLanguageLength); err != nil {
			return err
		}
	}

	return nil
}

// validateFieldLength checks if a field exceeds its maximum allowed length.
func validateFieldLength(fieldName, value string, maxLength int) error {
	if len(value) > maxLength {
		return fmt.Errorf("%w: %s (%d chars, max %d)", ErrFieldTooLong, fieldName, len(value), maxLength)
	}
	return nil
}

// DefaultConfig returns the configuration used when no file is found.
func DefaultConfig() *Config {
	return &Config{
		Content: ContentConfig{Dir: DefaultContentDir},
		Output:  OutputConfig{Dir: DefaultOutputDir},
		Site: SiteConfig{
			DateFormat:  dateutil.DefaultDisplayFormat,
			DraftPrefix: DefaultDraftPrefix,
		},
		Engine: EngineConfig{Timeout: DefaultTimeout},
		Diagram: DiagramConfig{
			MermaidScript: DefaultMermaidScript,
			MermaidTheme:  DefaultMermaidTheme,
			SecurityLevel: "loose",
		},
		Highlight: HighlightConfig{
			Style:     DefaultHighlight,
			PlainText: slices.Clone(DefaultPlainText),
		},
	}
}

// applyDefaults fills fields a config file left empty.
func (c *Config) applyDefaults() {
	def := DefaultConfig()
	setIfEmpty(&c.Content.Dir, def.Content.Dir)
	setIfEmpty(&c.Output.Dir, def.Output.Dir)
	setIfEmpty(&c.Site.DateFormat, def.Site.DateFormat)
	setIfEmpty(&c.Site.DraftPrefix, def.Site.DraftPrefix)
	setIfEmpty(&c.Diagram.MermaidScript, def.Diagram.MermaidScript)
	setIfEmpty(&c.Diagram.MermaidTheme, def.Diagram.MermaidTheme)
	setIfEmpty(&c.Diagram.SecurityLevel, def.Diagram.SecurityLevel)
	setIfEmpty(&c.Highlight.Style, def.Highlight.Style)
	if c.Engine.Timeout == 0 {
		c.Engine.Timeout = def.Engine.Timeout
	}
	if c.Highlight.PlainText == nil {
		c.Highlight.PlainText = def.Highlight.PlainText
	}
}

func setIfEmpty(dst *string, value string) {
	if *dst == "" {
		*dst = value
	}
}

// LoadConfig loads configuration from a file path or config name.
// If nameOrPath contains a path separator, it's treated as a file path.
// Otherwise, it's treated as a config name and searched in standard locations.
// Relative content and output directories are resolved against the
// directory holding the config file.
func LoadConfig(nameOrPath string) (*Config, error) {
	if nameOrPath == "" {
		return nil, ErrEmptyConfigName
	}

	var configPath string
	var err error

	if fileutil.IsFilePath(nameOrPath) {
		configPath = nameOrPath
	} else {
		configPath, err = resolveConfigPath(nameOrPath)
		if err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(configPath) // #nosec G304 -- config path is user-provided
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := yamlutil.UnmarshalStrict(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}
	cfg.applyDefaults()
	cfg.resolveRelative(filepath.Dir(configPath))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// resolveRelative anchors relative directories at base.
func (c *Config) resolveRelative(base string) {
	for _, p := range []*string{&c.Content.Dir, &c.Output.Dir, &c.Engine.SearchRoot, &c.Assets.BasePath} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(base, *p)
		}
	}
}

// SearchPaths lists the files LoadConfig tries for a config name, in order.
func SearchPaths(name string) []string {
	extensions := []string{".yaml", ".yml"}
	paths := make([]string, 0, len(extensions)*2)

	for _, ext := range extensions {
		paths = append(paths, name+ext)
	}
	if userConfigDir, err := os.UserConfigDir(); err == nil {
		for _, ext := range extensions {
			paths = append(paths, filepath.Join(userConfigDir, userConfigSubdir, name+ext))
		}
	}
	return paths
}

// resolveConfigPath searches for a config file by name in standard locations:
// current directory first, then ~/.config/go-md2site/.
func resolveConfigPath(name string) (string, error) {
	tried := SearchPaths(name)
	for _, p := range tried {
		if fileutil.FileExists(p) {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: tried %s", ErrConfigNotFound, strings.Join(tried, ", "))
}
