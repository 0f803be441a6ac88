package md2site

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/alnah/go-md2site/internal/assets"
	"github.com/alnah/go-md2site/internal/diagram"
	"github.com/alnah/go-md2site/internal/pipeline"
)

// MermaidConfig tunes the browser-backed Mermaid renderer.
// Zero values select defaults.
type MermaidConfig struct {
	NoSandbox     bool
	PoolSize      int
	Timeout       time.Duration
	ScriptSrc     string
	SecurityLevel string
	Theme         string
}

type siteConfig struct {
	logger     *zap.Logger
	engine     string
	workers    int
	stages     []pipeline.Stage
	noDiagrams bool
	mermaid    MermaidConfig
	style      string
	plainText  []string
	assetBase  string
	assetPath  string
	indexOpts  []IndexOption
	renderers  map[string]pipeline.DiagramRenderer
}

// Option configures a Site.
type Option func(*siteConfig)

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(c *siteConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithEngine sets the Chromium binary used for Mermaid diagrams.
// Without an engine, Mermaid blocks are left as code blocks.
func WithEngine(path string) Option {
	return func(c *siteConfig) {
		c.engine = path
	}
}

// WithWorkers bounds the number of posts Build renders concurrently.
func WithWorkers(n int) Option {
	return func(c *siteConfig) {
		if n > 0 {
			c.workers = n
		}
	}
}

// WithStages replaces the default pipeline with stages, in order.
// Diagram, highlight and asset options are ignored when set.
func WithStages(stages ...pipeline.Stage) Option {
	return func(c *siteConfig) {
		c.stages = stages
	}
}

// WithoutDiagrams leaves every diagram fence as a plain code block.
func WithoutDiagrams() Option {
	return func(c *siteConfig) {
		c.noDiagrams = true
	}
}

// WithMermaid tunes the Mermaid renderer. It has no effect without an engine.
func WithMermaid(cfg MermaidConfig) Option {
	return func(c *siteConfig) {
		c.mermaid = cfg
	}
}

// WithDiagramRenderer registers a renderer for a fence language, replacing
// the built-in one.
func WithDiagramRenderer(lang string, r pipeline.DiagramRenderer) Option {
	return func(c *siteConfig) {
		if c.renderers == nil {
			c.renderers = make(map[string]pipeline.DiagramRenderer)
		}
		c.renderers[lang] = r
	}
}

// WithHighlight sets the chroma style and the fence languages rendered as
// plain text. A nil plainText keeps the defaults.
func WithHighlight(style string, plainText []string) Option {
	return func(c *siteConfig) {
		c.style = style
		c.plainText = plainText
	}
}

// WithAssetBase rewrites relative image and link URLs against base.
func WithAssetBase(base string) Option {
	return func(c *siteConfig) {
		c.assetBase = base
	}
}

// WithAssetPath sets a directory whose templates override the embedded ones.
func WithAssetPath(dir string) Option {
	return func(c *siteConfig) {
		c.assetPath = dir
	}
}

// WithIndexOptions sets the options Index and Build pass to BuildIndex.
func WithIndexOptions(opts ...IndexOption) Option {
	return func(c *siteConfig) {
		c.indexOpts = append(c.indexOpts, opts...)
	}
}

// Site ties a post repository to a content pipeline.
// Create with NewSite and Close when done; a Site is safe for concurrent use.
type Site struct {
	repo     PostRepository
	pipeline *pipeline.Pipeline
	logger   *zap.Logger
	workers  int
	style    string
	index    []IndexOption
	closers  []io.Closer
}

// NewSite creates a Site over repo.
// Browsers for Mermaid diagrams start lazily on the first diagram.
func NewSite(repo PostRepository, opts ...Option) (*Site, error) {
	if repo == nil {
		return nil, fmt.Errorf("%w: nil repository", ErrStorage)
	}

	cfg := siteConfig{
		logger:  zap.NewNop(),
		workers: DefaultWorkers(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	s := &Site{
		repo:    repo,
		logger:  cfg.logger,
		workers: cfg.workers,
		style:   cfg.style,
		index:   cfg.indexOpts,
	}

	stages := cfg.stages
	if stages == nil {
		renderers, err := s.diagramRenderers(&cfg)
		if err != nil {
			return nil, err
		}
		stages, err = pipeline.DefaultStages(pipeline.Options{
			Logger:         cfg.logger,
			Diagrams:       renderers,
			HighlightStyle: cfg.style,
			PlainText:      cfg.plainText,
			AssetBase:      cfg.assetBase,
		})
		if err != nil {
			_ = s.Close()
			return nil, err
		}
	}

	p, err := pipeline.New(cfg.logger, stages...)
	if err != nil {
		_ = s.Close()
		return nil, err
	}
	s.pipeline = p

	cfg.logger.Debug("site ready",
		zap.Strings("stages", p.StageNames()),
		zap.Int("workers", s.workers),
		zap.String("engine", cfg.engine))

	return s, nil
}

// diagramRenderers builds the built-in renderers, letting explicit
// registrations win. The Mermaid renderer is tracked for Close.
func (s *Site) diagramRenderers(cfg *siteConfig) (map[string]pipeline.DiagramRenderer, error) {
	if cfg.noDiagrams {
		return nil, nil
	}

	renderers := map[string]pipeline.DiagramRenderer{
		"d2": diagram.NewD2Renderer(),
	}

	if cfg.engine != "" && cfg.renderers["mermaid"] == nil {
		loader, err := assets.Resolve(cfg.assetPath)
		if err != nil {
			return nil, err
		}
		if cfg.assetPath != "" {
			s.logger.Debug("custom templates", zap.String("dir", cfg.assetPath))
		}

		m, err := diagram.NewMermaidRenderer(diagram.MermaidOptions{
			Engine:        cfg.engine,
			NoSandbox:     cfg.mermaid.NoSandbox,
			PoolSize:      cfg.mermaid.PoolSize,
			Timeout:       cfg.mermaid.Timeout,
			ScriptSrc:     cfg.mermaid.ScriptSrc,
			SecurityLevel: cfg.mermaid.SecurityLevel,
			Theme:         cfg.mermaid.Theme,
			Assets:        loader,
			Logger:        cfg.logger,
		})
		if err != nil {
			return nil, err
		}
		renderers["mermaid"] = m
		s.closers = append(s.closers, m)
	}

	for lang, r := range cfg.renderers {
		renderers[lang] = r
	}
	return renderers, nil
}

// DefaultWorkers returns the default Build concurrency.
func DefaultWorkers() int {
	return max(1, runtime.GOMAXPROCS(0))
}

// Stages lists the pipeline stages in execution order.
func (s *Site) Stages() []string {
	return s.pipeline.StageNames()
}

// Index returns the published posts, newest first.
func (s *Site) Index(ctx context.Context) ([]PostSummary, error) {
	return BuildIndex(ctx, s.repo, s.index...)
}

// Post reads a post by ID and renders its body. Drafts are rendered too.
func (s *Site) Post(ctx context.Context, id string) (*Post, error) {
	post, err := s.repo.ReadPost(ctx, id)
	if err != nil {
		return nil, err
	}

	html, err := s.Render(ctx, id, post.Body)
	if err != nil {
		return nil, err
	}
	post.ContentHTML = html
	return post, nil
}

// Render converts a Markdown body to an HTML fragment. id labels errors and
// log lines only. Failures are returned as *RenderError.
// Recovers from stage panics so one bad post cannot crash a build.
func (s *Site) Render(ctx context.Context, id, markdown string) (html string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &RenderError{ID: id, Err: fmt.Errorf("internal error: %v", r)}
		}
	}()

	html, err = s.pipeline.Render(ctx, id, []byte(markdown))
	if err != nil {
		var se *pipeline.StageError
		if errors.As(err, &se) {
			return "", &RenderError{ID: id, Stage: se.Stage, Err: se.Err}
		}
		return "", &RenderError{ID: id, Err: err}
	}
	return html, nil
}

// HighlightCSS returns the stylesheet for the configured highlight style.
func (s *Site) HighlightCSS() (string, error) {
	return pipeline.HighlightCSS(s.style)
}

// PostResult is the outcome of rendering one post during Build.
type PostResult struct {
	ID       string
	Post     *Post
	Err      error
	Duration time.Duration
}

// BuildReport is the output of Build. Posts are in repository order.
type BuildReport struct {
	Index []PostSummary
	Posts []PostResult
}

// Failed returns the results that carry an error.
func (r *BuildReport) Failed() []PostResult {
	var failed []PostResult
	for _, p := range r.Posts {
		if p.Err != nil {
			failed = append(failed, p)
		}
	}
	return failed
}

// Build computes the index and renders every post, drafts included.
// Per-post failures are recorded in the report: a post whose metadata is
// malformed (ErrParse) is left out of the index and not rendered. The
// returned error is kept for failures that affect every post, such as an
// unreadable repository or a canceled ctx.
func (s *Site) Build(ctx context.Context) (*BuildReport, error) {
	scan, err := scanIndex(ctx, s.repo, s.index)
	if err != nil {
		return nil, err
	}

	ids := scan.ids
	results := make([]PostResult, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	for i, id := range ids {
		if err := scan.failed[id]; err != nil {
			results[i] = PostResult{ID: id, Err: err}
			s.logger.Warn("post skipped", zap.String("post", id), zap.Error(err))
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				results[i] = PostResult{ID: id, Err: err}
				return err
			}

			start := time.Now()
			post, err := s.Post(gctx, id)
			results[i] = PostResult{ID: id, Post: post, Err: err, Duration: time.Since(start)}

			if err != nil {
				s.logger.Warn("post failed", zap.String("post", id), zap.Error(err))
				// Only cancellation stops the other workers.
				if ctxErr := ctx.Err(); ctxErr != nil {
					return ctxErr
				}
				return nil
			}
			s.logger.Debug("post rendered", zap.String("post", id), zap.Duration("took", results[i].Duration))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &BuildReport{Index: scan.summaries, Posts: results}, nil
}

// Close stops any browsers started for diagrams.
func (s *Site) Close() error {
	var errs []error
	for _, c := range s.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}
