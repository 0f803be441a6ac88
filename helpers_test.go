package md2site

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

// writePosts creates a content directory holding files (name -> content).
func writePosts(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func post(title, date, body string) string {
	fm := "---\n"
	if title != "" {
		fm += "title: " + title + "\n"
	}
	if date != "" {
		fm += "date: " + date + "\n"
	}
	return fm + "---\n" + body
}

// memRepo is an in-memory PostRepository.
type memRepo struct {
	ids   []string
	posts map[string]*Post
	err   error
}

func newMemRepo(posts ...*Post) *memRepo {
	r := &memRepo{posts: make(map[string]*Post)}
	for _, p := range posts {
		r.ids = append(r.ids, p.ID)
		r.posts[p.ID] = p
	}
	return r
}

func (r *memRepo) ListPostIDs(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if r.err != nil {
		return nil, r.err
	}
	return append([]string(nil), r.ids...), nil
}

func (r *memRepo) ReadPost(_ context.Context, id string) (*Post, error) {
	p, ok := r.posts[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func memPost(id, title, date string) *Post {
	return &Post{ID: id, Metadata: Metadata{Title: title, Date: date}, Body: "# " + title}
}
