package md2site

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/alnah/go-md2site/internal/dateutil"
	"github.com/alnah/go-md2site/internal/frontmatter"
)

// PostExt is the file extension of post sources.
const PostExt = ".md"

// PostRepository reads posts from storage.
// Implementations never filter drafts.
type PostRepository interface {
	ListPostIDs(ctx context.Context) ([]string, error)
	ReadPost(ctx context.Context, id string) (*Post, error)
}

var _ PostRepository = (*FSRepository)(nil)

// FSRepository reads posts from a flat directory of <id>.md files.
type FSRepository struct {
	dir string
}

// NewFSRepository returns a repository rooted at dir.
// The directory is not checked until the first read.
func NewFSRepository(dir string) *FSRepository {
	return &FSRepository{dir: dir}
}

// Dir returns the content directory.
func (r *FSRepository) Dir() string {
	return r.dir
}

// ListPostIDs returns the IDs of every regular .md file, in file name order.
// Subdirectories are not descended into.
func (r *FSRepository) ListPostIDs(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if !strings.HasSuffix(name, PostExt) || len(name) == len(PostExt) {
			continue
		}
		if !r.isRegular(e) {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, PostExt))
	}
	return ids, nil
}

// isRegular follows symlinks so a linked post still counts.
func (r *FSRepository) isRegular(e fs.DirEntry) bool {
	if e.Type().IsRegular() {
		return true
	}
	if e.Type()&fs.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(filepath.Join(r.dir, e.Name()))
	return err == nil && info.Mode().IsRegular()
}

// ReadPost reads and splits <id>.md. The returned post has no ContentHTML.
func (r *FSRepository) ReadPost(ctx context.Context, id string) (*Post, error) {
	if err := ValidateID(id); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := filepath.Join(r.dir, id+PostExt)
	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("%w: reading %s: %v", ErrStorage, id, err)
	}

	doc, err := frontmatter.Parse(content)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrParse, id, err)
	}

	return &Post{
		ID:       id,
		Metadata: metadataFrom(doc.Fields),
		Body:     string(doc.Body),
	}, nil
}

// ValidateID rejects IDs that would resolve outside the content directory.
func ValidateID(id string) error {
	if id == "" {
		return ErrEmptyID
	}
	if strings.ContainsAny(id, `/\`+"\x00") || id == "." || id == ".." {
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	if !filepath.IsLocal(id + PostExt) {
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return nil
}

// metadataFrom lifts date and title out of the front matter fields.
// YAML timestamps become ISO strings; other scalars are stringified.
func metadataFrom(fields map[string]any) Metadata {
	meta := Metadata{Params: make(map[string]any, len(fields))}
	for k, v := range fields {
		switch k {
		case "date":
			meta.Date = scalarString(v)
		case "title":
			meta.Title = scalarString(v)
		default:
			meta.Params[k] = v
		}
	}
	return meta
}

func scalarString(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := dateutil.Normalize(v); ok {
		return s
	}
	switch v.(type) {
	case map[string]any, []any:
		return ""
	}
	return fmt.Sprint(v)
}
