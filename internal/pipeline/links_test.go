package pipeline

import (
	"context"
	"net/url"
	"strings"
	"testing"
)

func TestRewriteRelativeLinks(t *testing.T) {
	t.Parallel()

	base, _ := url.Parse("https://cdn.example.com/blog/")

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "relative image",
			input: `<p><img src="img/cat.png" alt="cat"></p>`,
			want:  `<p><img src="https://cdn.example.com/blog/img/cat.png" alt="cat"/></p>`,
		},
		{
			name:  "relative link",
			input: `<a href="notes.pdf">notes</a>`,
			want:  `<a href="https://cdn.example.com/blog/notes.pdf">notes</a>`,
		},
		{
			name:  "absolute URL untouched",
			input: `<a href="https://go.dev">go</a>`,
			want:  `<a href="https://go.dev">go</a>`,
		},
		{
			name:  "anchor untouched",
			input: `<a href="#top">top</a>`,
			want:  `<a href="#top">top</a>`,
		},
		{
			name:  "site-absolute path untouched",
			input: `<a href="/posts/hello">hello</a>`,
			want:  `<a href="/posts/hello">hello</a>`,
		},
		{
			name:  "data URI untouched",
			input: `<img src="data:image/svg+xml;base64,AAAA"/>`,
			want:  `<img src="data:image/svg+xml;base64,AAAA"/>`,
		},
		{
			name:  "traversal untouched",
			input: `<img src="../../etc/passwd"/>`,
			want:  `<img src="../../etc/passwd"/>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := RewriteRelativeLinks(tt.input, base)
			if err != nil {
				t.Fatalf("RewriteRelativeLinks() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("RewriteRelativeLinks() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRewriteRelativeLinks_NilBase(t *testing.T) {
	t.Parallel()

	in := `<img src="a.png">`
	got, err := RewriteRelativeLinks(in, nil)
	if err != nil || got != in {
		t.Errorf("RewriteRelativeLinks(nil) = %q, %v; want input unchanged", got, err)
	}
}

func TestLinkRewriteStage(t *testing.T) {
	t.Parallel()

	if _, err := NewLinkRewriteStage("static/"); err == nil {
		t.Error("NewLinkRewriteStage(relative) expected error")
	}

	p := newDefault(t, Options{AssetBase: "/static/posts"})
	out, err := p.Render(context.Background(), "p", []byte("![cat](cat.png)\n"))
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if !strings.Contains(out, `src="/static/posts/cat.png"`) {
		t.Errorf("image not rewritten: %s", out)
	}
}
