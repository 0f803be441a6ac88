package main

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	md2site "github.com/alnah/go-md2site"
)

// ---------------------------------------------------------------------------
// TestRunRender - Single post rendering
// ---------------------------------------------------------------------------

func TestRunRender(t *testing.T) {
	t.Parallel()

	content := newContentDir(t)

	t.Run("html", func(t *testing.T) {
		t.Parallel()

		env, stdout, _ := newTestEnv(nil)
		if err := runRender(context.Background(), []string{"hello", content, "--no-diagrams"}, env); err != nil {
			t.Fatalf("runRender() error = %v", err)
		}
		if !strings.Contains(stdout.String(), "Hello</h1>") {
			t.Errorf("stdout = %q, want rendered heading", stdout)
		}
	})

	t.Run("draft renders", func(t *testing.T) {
		t.Parallel()

		env, stdout, _ := newTestEnv(nil)
		if err := runRender(context.Background(), []string{"draft", content, "--no-diagrams"}, env); err != nil {
			t.Fatalf("runRender() error = %v", err)
		}
		if !strings.Contains(stdout.String(), "Not yet.") {
			t.Errorf("stdout = %q", stdout)
		}
	})

	t.Run("json", func(t *testing.T) {
		t.Parallel()

		env, stdout, _ := newTestEnv(nil)
		if err := runRender(context.Background(), []string{"later", content, "--json", "--no-diagrams"}, env); err != nil {
			t.Fatalf("runRender() error = %v", err)
		}

		var post map[string]any
		if err := json.Unmarshal(stdout.Bytes(), &post); err != nil {
			t.Fatalf("decoding: %v", err)
		}
		if post["id"] != "later" || post["title"] != "Later" || post["date"] != "2024-06-01" {
			t.Errorf("post = %v", post)
		}
		if html, _ := post["contentHtml"].(string); !strings.Contains(html, "<code>code</code>") {
			t.Errorf("contentHtml = %q", html)
		}
	})

	t.Run("asset base rewrites links", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		writePost(t, dir, "pic", "Pic", "2024-01-01", "![cat](img/cat.png)\n")

		env, stdout, _ := newTestEnv(nil)
		args := []string{"pic", dir, "--no-diagrams", "--asset-base", "/static/"}
		if err := runRender(context.Background(), args, env); err != nil {
			t.Fatalf("runRender() error = %v", err)
		}
		if !strings.Contains(stdout.String(), `src="/static/img/cat.png"`) {
			t.Errorf("stdout = %q, want rewritten src", stdout)
		}
	})

	t.Run("not found lists ids", func(t *testing.T) {
		t.Parallel()

		env, _, _ := newTestEnv(nil)
		err := runRender(context.Background(), []string{"nope", content, "--no-diagrams"}, env)
		if !errors.Is(err, md2site.ErrNotFound) {
			t.Fatalf("error = %v, want ErrNotFound", err)
		}
		if !strings.Contains(err.Error(), "available: draft, hello, later") {
			t.Errorf("error %q does not list ids", err)
		}
	})

	t.Run("invalid id has no listing", func(t *testing.T) {
		t.Parallel()

		env, _, _ := newTestEnv(nil)
		err := runRender(context.Background(), []string{"../etc/passwd", content, "--no-diagrams"}, env)
		if !errors.Is(err, md2site.ErrInvalidID) {
			t.Fatalf("error = %v, want ErrInvalidID", err)
		}
		if strings.Contains(err.Error(), "available:") {
			t.Errorf("error %q should not list ids", err)
		}
	})

	t.Run("usage errors", func(t *testing.T) {
		t.Parallel()

		for _, args := range [][]string{{}, {"a", "b", "c"}} {
			env, _, _ := newTestEnv(nil)
			if err := runRender(context.Background(), args, env); !errors.Is(err, ErrUsage) {
				t.Errorf("runRender(%v) = %v, want ErrUsage", args, err)
			}
		}
	})
}
