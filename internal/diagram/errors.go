package diagram

import "errors"

// Sentinel errors for diagram rendering.
var (
	ErrEmptySource    = errors.New("diagram source is empty")
	ErrNoEngine       = errors.New("no browser engine configured")
	ErrBrowserConnect = errors.New("failed to connect to browser")
	ErrPageLoad       = errors.New("failed to load mermaid host page")
	ErrMermaidRender  = errors.New("mermaid render failed")
	ErrD2Render       = errors.New("d2 render failed")
	ErrPoolClosed     = errors.New("browser pool is closed")
)
