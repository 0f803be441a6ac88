package md2site

import (
	"errors"
	"fmt"
)

// Sentinel errors for library operations.
var (
	ErrStorage  = errors.New("content storage unavailable")
	ErrNotFound = errors.New("post not found")
	ErrParse    = errors.New("post front matter is invalid")
	ErrRender   = errors.New("post rendering failed")

	// Post identifier validation errors.
	ErrEmptyID   = errors.New("post id cannot be empty")
	ErrInvalidID = fmt.Errorf("%w: invalid post id", ErrNotFound)
)

// RenderError reports which post and pipeline stage failed.
// It matches ErrRender with errors.Is and unwraps to the stage cause.
type RenderError struct {
	ID    string
	Stage string
	Err   error
}

func (e *RenderError) Error() string {
	if e.Stage == "" {
		return fmt.Sprintf("rendering post %q: %v", e.ID, e.Err)
	}
	return fmt.Sprintf("rendering post %q: stage %s: %v", e.ID, e.Stage, e.Err)
}

func (e *RenderError) Unwrap() error {
	return e.Err
}

// Is reports ErrRender as a match so callers can branch on the category.
func (e *RenderError) Is(target error) bool {
	return target == ErrRender
}
