package diagram

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewMermaidRenderer_NoEngine(t *testing.T) {
	t.Parallel()

	if _, err := NewMermaidRenderer(MermaidOptions{}); !errors.Is(err, ErrNoEngine) {
		t.Errorf("NewMermaidRenderer() error = %v, want ErrNoEngine", err)
	}
}

func TestMermaidRenderer_LazyAndEmptySource(t *testing.T) {
	t.Parallel()

	// The binary is never executed: nothing launches until a real render.
	m, err := NewMermaidRenderer(MermaidOptions{Engine: "/nonexistent/chrome", PoolSize: 2})
	if err != nil {
		t.Fatalf("NewMermaidRenderer() error = %v", err)
	}
	defer m.Close()

	if m.pool.Launched() != 0 {
		t.Errorf("Launched() = %d, want 0 before first render", m.pool.Launched())
	}
	if m.timeout != DefaultTimeout {
		t.Errorf("timeout = %v, want %v", m.timeout, DefaultTimeout)
	}
	if _, err := m.RenderSVG(context.Background(), "\n\t"); !errors.Is(err, ErrEmptySource) {
		t.Errorf("RenderSVG(blank) error = %v, want ErrEmptySource", err)
	}
}

func TestMermaidRenderer_LaunchFailure(t *testing.T) {
	t.Parallel()

	m, err := NewMermaidRenderer(MermaidOptions{Engine: filepath.Join(t.TempDir(), "missing-chrome")})
	if err != nil {
		t.Fatal(err)
	}
	defer m.Close()

	if _, err := m.RenderSVG(context.Background(), "graph TD\nA-->B"); !errors.Is(err, ErrBrowserConnect) {
		t.Errorf("RenderSVG() error = %v, want ErrBrowserConnect", err)
	}
}

func TestMermaidRenderer_CloseIsIdempotent(t *testing.T) {
	t.Parallel()

	m, err := NewMermaidRenderer(MermaidOptions{Engine: "/nonexistent/chrome"})
	if err != nil {
		t.Fatal(err)
	}
	if err := m.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if err := m.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}

func TestScriptURL(t *testing.T) {
	t.Parallel()

	abs, _ := filepath.Abs("vendor/mermaid.min.js")

	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"https://cdn.jsdelivr.net/npm/mermaid@10/dist/mermaid.min.js", "https://cdn.jsdelivr.net/npm/mermaid@10/dist/mermaid.min.js"},
		{"file:///opt/mermaid.js", "file:///opt/mermaid.js"},
		{"vendor/mermaid.min.js", "file://" + filepath.ToSlash(abs)},
	}

	for _, tt := range tests {
		got := scriptURL(tt.in)
		if got != tt.want && !strings.HasSuffix(got, "/vendor/mermaid.min.js") {
			t.Errorf("scriptURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
