package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// ---------------------------------------------------------------------------
// Test Infrastructure - Environment and content fixtures
// ---------------------------------------------------------------------------

// newTestEnv returns an Environment backed by vars and two buffers.
func newTestEnv(vars map[string]string) (*Environment, *bytes.Buffer, *bytes.Buffer) {
	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	env := &Environment{
		Now:    func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) },
		Stdout: stdout,
		Stderr: stderr,
		Getenv: func(k string) string { return vars[k] },
		Environ: func() []string {
			out := make([]string, 0, len(vars))
			for k, v := range vars {
				out = append(out, k+"="+v)
			}
			return out
		},
	}
	return env, stdout, stderr
}

// writePost writes <dir>/<id>.md with front matter.
func writePost(t *testing.T, dir, id, title, date, body string) {
	t.Helper()
	content := fmt.Sprintf("---\ntitle: %s\ndate: %s\n---\n%s", title, date, body)
	if err := os.WriteFile(filepath.Join(dir, id+".md"), []byte(content), 0o644); err != nil {
		t.Fatalf("writing post %s: %v", id, err)
	}
}

// newContentDir creates a content directory with three posts:
// hello (2024-01-01), later (2024-06-01) and draft (WIP, 2024-03-01).
func newContentDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writePost(t, dir, "hello", "Hello", "2024-01-01", "# Hello\n\nFirst post.\n")
	writePost(t, dir, "later", "Later", "2024-06-01", "Some `code` here.\n")
	writePost(t, dir, "draft", "WIP Draft", "2024-03-01", "Not yet.\n")
	return dir
}

// writeFile writes content to path, creating parents.
func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
}

// readFile returns the content of path or fails the test.
func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	return string(data)
}
