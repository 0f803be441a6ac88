package diagram

import (
	"context"
	"fmt"
	"strings"

	"oss.terrastruct.com/d2/d2graph"
	"oss.terrastruct.com/d2/d2layouts/d2dagrelayout"
	"oss.terrastruct.com/d2/d2lib"
	"oss.terrastruct.com/d2/d2renderers/d2svg"
	"oss.terrastruct.com/d2/d2themes/d2themescatalog"
	"oss.terrastruct.com/d2/lib/textmeasure"
)

// D2Renderer compiles D2 source with the dagre layout engine.
type D2Renderer struct {
	themeID int64
}

// NewD2Renderer creates a D2Renderer using the neutral default theme.
func NewD2Renderer() *D2Renderer {
	return &D2Renderer{themeID: d2themescatalog.NeutralDefault.ID}
}

// RenderSVG compiles source and returns the SVG document.
func (r *D2Renderer) RenderSVG(ctx context.Context, source string) ([]byte, error) {
	if strings.TrimSpace(source) == "" {
		return nil, ErrEmptySource
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// A ruler holds font faces and is not safe to share between goroutines.
	ruler, err := textmeasure.NewRuler()
	if err != nil {
		return nil, fmt.Errorf("%w: text ruler: %v", ErrD2Render, err)
	}

	layout := func(ctx context.Context, g *d2graph.Graph) error {
		return d2dagrelayout.Layout(ctx, g, nil)
	}
	diagram, _, err := d2lib.Compile(ctx, source, &d2lib.CompileOptions{
		Layout: layout,
		Ruler:  ruler,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrD2Render, err)
	}

	svg, err := d2svg.Render(diagram, &d2svg.RenderOpts{
		Pad:     d2svg.DEFAULT_PADDING,
		ThemeID: r.themeID,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrD2Render, err)
	}
	return svg, nil
}
