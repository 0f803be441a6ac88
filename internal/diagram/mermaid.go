package diagram

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"

	"github.com/alnah/go-md2site/internal/assets"
	"github.com/alnah/go-md2site/internal/fileutil"
	"github.com/alnah/go-md2site/internal/process"
)

// DefaultTimeout bounds a single Mermaid render.
const DefaultTimeout = 30 * time.Second

// renderJS renders one diagram with a unique element id and resolves to the
// SVG markup. Page.Eval awaits the returned promise.
const renderJS = `(id, code) => mermaid.render(id, code).then(r => r.svg)`

// MermaidOptions configures a MermaidRenderer.
type MermaidOptions struct {
	Engine        string // Chromium binary; required
	NoSandbox     bool
	PoolSize      int           // 0 = ResolvePoolSize(0)
	Timeout       time.Duration // per diagram; 0 = DefaultTimeout
	ScriptSrc     string        // URL or local path of mermaid.min.js
	SecurityLevel string
	Theme         string
	Assets        assets.Loader // nil = built-in templates
	Logger        *zap.Logger
}

// MermaidRenderer renders Mermaid diagrams in pooled headless browsers.
type MermaidRenderer struct {
	pool     *BrowserPool
	timeout  time.Duration
	cleanup  func()
	logger   *zap.Logger
	closeErr error
	once     sync.Once
}

// NewMermaidRenderer writes the host page and prepares a lazily populated
// browser pool. No browser starts until the first diagram is rendered.
func NewMermaidRenderer(opts MermaidOptions) (*MermaidRenderer, error) {
	if opts.Engine == "" {
		return nil, ErrNoEngine
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	page, err := assets.RenderMermaidPage(opts.Assets, assets.MermaidPage{
		ScriptSrc:     scriptURL(opts.ScriptSrc),
		SecurityLevel: opts.SecurityLevel,
		Theme:         opts.Theme,
	})
	if err != nil {
		return nil, err
	}
	hostPath, cleanup, err := fileutil.WriteTempFile(page, "html")
	if err != nil {
		return nil, err
	}

	logger := opts.Logger.With(zap.String("engine", opts.Engine))
	launch := func(ctx context.Context) (session, error) {
		s, err := launchBrowser(ctx, opts.Engine, opts.NoSandbox, hostPath, logger)
		if err != nil {
			return nil, err
		}
		return s, nil
	}

	return &MermaidRenderer{
		pool:    newBrowserPool(ResolvePoolSize(opts.PoolSize), launch),
		timeout: opts.Timeout,
		cleanup: cleanup,
		logger:  logger,
	}, nil
}

// RenderSVG renders Mermaid source to an SVG document.
func (m *MermaidRenderer) RenderSVG(ctx context.Context, source string) ([]byte, error) {
	if strings.TrimSpace(source) == "" {
		return nil, ErrEmptySource
	}

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	s, err := m.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}

	svg, err := s.Render(ctx, source)
	if err != nil {
		// A timed-out or crashed page may be left mid-render.
		if errors.Is(err, ErrBrowserConnect) || ctx.Err() != nil {
			m.pool.Discard(s)
		} else {
			m.pool.Release(s)
		}
		return nil, err
	}
	m.pool.Release(s)
	return []byte(svg), nil
}

// Close stops every browser and removes the host page.
func (m *MermaidRenderer) Close() error {
	m.once.Do(func() {
		m.closeErr = m.pool.Close()
		m.cleanup()
	})
	return m.closeErr
}

// scriptURL turns a local mermaid.js path into a file:// URL.
func scriptURL(src string) string {
	if src == "" || fileutil.IsURL(src) {
		return src
	}
	abs, err := filepath.Abs(src)
	if err != nil {
		return src
	}
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}).String()
}

// ---------------------------------------------------------------------------
// browser session
// ---------------------------------------------------------------------------

// browserSession is one Chromium process with the host page open.
type browserSession struct {
	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *rod.Page
	logger   *zap.Logger

	mu  sync.Mutex
	seq int
}

func launchBrowser(ctx context.Context, bin string, noSandbox bool, hostPath string, logger *zap.Logger) (*browserSession, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l := launcher.New().
		Context(ctx).
		Bin(bin).
		Headless(true).
		NoSandbox(noSandbox)

	u, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}

	s := &browserSession{launcher: l, logger: logger}

	s.browser = rod.New().ControlURL(u)
	if err := s.browser.Connect(); err != nil {
		s.kill()
		return nil, fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}

	hostURL := (&url.URL{Scheme: "file", Path: filepath.ToSlash(hostPath)}).String()
	page, err := s.browser.Page(proto.TargetCreateTarget{URL: hostURL})
	if err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("%w: %v", ErrPageLoad, err)
	}
	if err := page.Context(ctx).WaitLoad(); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("%w: %v", ErrPageLoad, err)
	}
	s.page = page

	logger.Debug("browser launched", zap.Int("pid", l.PID()))
	return s, nil
}

// Render evaluates mermaid.render on the host page.
func (s *browserSession) Render(ctx context.Context, code string) (string, error) {
	s.mu.Lock()
	s.seq++
	id := fmt.Sprintf("md2site-diagram-%d", s.seq)
	s.mu.Unlock()

	res, err := s.page.Context(ctx).Eval(renderJS, id, code)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", fmt.Errorf("%w: %w", ErrMermaidRender, ctxErr)
		}
		return "", fmt.Errorf("%w: %v", ErrMermaidRender, err)
	}

	svg := res.Value.Str()
	if !strings.Contains(svg, "<svg") {
		return "", fmt.Errorf("%w: result is not an SVG document", ErrMermaidRender)
	}
	return svg, nil
}

// Close shuts the browser down and kills its process group so no renderer
// or GPU helper outlives the build.
func (s *browserSession) Close() error {
	var err error
	if s.browser != nil {
		err = s.browser.Close()
	}
	s.kill()
	return err
}

func (s *browserSession) kill() {
	if s.launcher == nil {
		return
	}
	process.KillProcessGroup(s.launcher.PID())
	s.launcher.Kill()
	s.launcher.Cleanup()
}

// Compile-time interface check.
var _ session = (*browserSession)(nil)
