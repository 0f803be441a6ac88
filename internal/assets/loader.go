package assets

import (
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

//go:embed templates/*.html
var embedded embed.FS

// Loader loads an HTML template by name (without the .html extension).
type Loader interface {
	LoadTemplate(name string) (string, error)
}

// templatePath maps a template name to its slash-separated path under a
// template root. Names are single path elements without dots.
func templatePath(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("%w: empty name", ErrInvalidAssetName)
	}
	if strings.ContainsAny(name, `/\.`) {
		return "", fmt.Errorf("%w: %q", ErrInvalidAssetName, name)
	}
	return path.Join("templates", name+".html"), nil
}

// embeddedLoader serves the templates compiled into the binary.
type embeddedLoader struct{}

// Embedded returns the loader for the built-in templates.
func Embedded() Loader { return embeddedLoader{} }

func (embeddedLoader) LoadTemplate(name string) (string, error) {
	p, err := templatePath(name)
	if err != nil {
		return "", err
	}
	data, err := fs.ReadFile(embedded, p)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrTemplateNotFound, name)
	}
	return string(data), nil
}

// dirLoader reads {dir}/templates/{name}.html. Every read goes through
// os.OpenInRoot, so symlinks cannot lead outside dir.
type dirLoader struct {
	dir string
}

// Dir returns a loader for a template directory on disk.
func Dir(dir string) (Loader, error) {
	if dir == "" {
		return nil, fmt.Errorf("%w: empty path", ErrInvalidBasePath)
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBasePath, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBasePath, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: not a directory: %s", ErrInvalidBasePath, abs)
	}
	return dirLoader{dir: abs}, nil
}

func (l dirLoader) LoadTemplate(name string) (string, error) {
	p, err := templatePath(name)
	if err != nil {
		return "", err
	}

	f, err := os.OpenInRoot(l.dir, filepath.FromSlash(p))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %q", ErrTemplateNotFound, name)
		}
		return "", fmt.Errorf("%w: %v", ErrAssetRead, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAssetRead, err)
	}
	return string(data), nil
}

// overlay prefers a custom directory and falls back to the built-in
// templates for names it does not define.
type overlay struct {
	custom Loader
}

// Resolve returns the built-in templates, overlaid by dir when dir is set.
func Resolve(dir string) (Loader, error) {
	if dir == "" {
		return Embedded(), nil
	}
	custom, err := Dir(dir)
	if err != nil {
		return nil, err
	}
	return overlay{custom: custom}, nil
}

func (o overlay) LoadTemplate(name string) (string, error) {
	content, err := o.custom.LoadTemplate(name)
	if errors.Is(err, ErrTemplateNotFound) {
		return Embedded().LoadTemplate(name)
	}
	return content, err
}
