package pipeline

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/util"
	"go.uber.org/zap"
)

// DiagramRenderer turns diagram source into an SVG document.
type DiagramRenderer interface {
	RenderSVG(ctx context.Context, source string) ([]byte, error)
}

// DiagramLanguages are the fence languages treated as diagrams.
var DiagramLanguages = []string{"mermaid", "d2"}

// KindDiagram is the node kind of a rendered diagram.
var KindDiagram = ast.NewNodeKind("Diagram")

// Diagram is a block node holding a rendered SVG.
type Diagram struct {
	ast.BaseBlock
	Language string
	SVG      []byte
}

// NewDiagram creates a Diagram node.
func NewDiagram(language string, svg []byte) *Diagram {
	return &Diagram{Language: language, SVG: svg}
}

func (n *Diagram) Kind() ast.NodeKind { return KindDiagram }

func (n *Diagram) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{
		"Language": n.Language,
		"SVG":      fmt.Sprintf("%d bytes", len(n.SVG)),
	}, nil)
}

// DiagramStage replaces diagram fences with rendered SVG images.
// A diagram language without a renderer is left as a code block.
type DiagramStage struct {
	renderers map[string]DiagramRenderer
	logger    *zap.Logger
}

// NewDiagramStage creates a DiagramStage. Nil entries in renderers are
// treated as missing.
func NewDiagramStage(renderers map[string]DiagramRenderer, logger *zap.Logger) *DiagramStage {
	if logger == nil {
		logger = zap.NewNop()
	}
	active := make(map[string]DiagramRenderer, len(renderers))
	for lang, r := range renderers {
		if r != nil {
			active[lang] = r
		}
	}
	return &DiagramStage{renderers: active, logger: logger}
}

func (s *DiagramStage) Name() string { return StageDiagram }

func (s *DiagramStage) Extend(m goldmark.Markdown) {
	m.Renderer().AddOptions(renderer.WithNodeRenderers(
		util.Prioritized(&diagramHTMLRenderer{}, 500),
	))
}

func (s *DiagramStage) Transform(ctx context.Context, doc *Document) error {
	if err := requireRoot(doc); err != nil {
		return err
	}

	var fences []*ast.FencedCodeBlock
	err := ast.Walk(doc.Root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if fence, ok := n.(*ast.FencedCodeBlock); ok {
			if isDiagramLanguage(string(fence.Language(doc.Source))) {
				fences = append(fences, fence)
			}
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return err
	}

	for _, fence := range fences {
		lang := string(fence.Language(doc.Source))
		r, ok := s.renderers[lang]
		if !ok {
			s.logger.Warn("no renderer for diagram, leaving code block",
				zap.String("post", doc.ID), zap.String("language", lang))
			continue
		}

		svg, err := r.RenderSVG(ctx, fenceText(fence, doc.Source))
		if err != nil {
			return fmt.Errorf("%s diagram at line %d: %w", lang, fenceLine(fence, doc.Source), err)
		}

		parent := fence.Parent()
		parent.ReplaceChild(parent, fence, NewDiagram(lang, svg))
	}
	return nil
}

func isDiagramLanguage(lang string) bool {
	for _, l := range DiagramLanguages {
		if l == lang {
			return true
		}
	}
	return false
}

// fenceText joins the raw lines of a fenced block.
func fenceText(fence *ast.FencedCodeBlock, source []byte) string {
	var buf bytes.Buffer
	lines := fence.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		buf.Write(seg.Value(source))
	}
	return buf.String()
}

// fenceLine returns the 1-based source line of the opening fence.
func fenceLine(fence *ast.FencedCodeBlock, source []byte) int {
	var offset int
	switch {
	case fence.Info != nil:
		offset = fence.Info.Segment.Start
	case fence.Lines().Len() > 0:
		offset = fence.Lines().At(0).Start
	default:
		return 0
	}
	return bytes.Count(source[:offset], []byte("\n")) + 1
}

// diagramHTMLRenderer writes Diagram nodes as figures with a data-URI image.
type diagramHTMLRenderer struct{}

func (r *diagramHTMLRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(KindDiagram, r.renderDiagram)
}

func (r *diagramHTMLRenderer) renderDiagram(w util.BufWriter, _ []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	n := node.(*Diagram)
	_, _ = w.WriteString(`<figure class="diagram diagram-`)
	_, _ = w.Write(util.EscapeHTML([]byte(n.Language)))
	_, _ = w.WriteString(`"><img alt="`)
	_, _ = w.Write(util.EscapeHTML([]byte(n.Language)))
	_, _ = w.WriteString(` diagram" src="data:image/svg+xml;base64,`)
	_, _ = w.WriteString(base64.StdEncoding.EncodeToString(n.SVG))
	_, _ = w.WriteString("\"></figure>\n")
	return ast.WalkSkipChildren, nil
}

// Compile-time interface checks.
var (
	_ goldmark.Extender     = (*DiagramStage)(nil)
	_ renderer.NodeRenderer = (*diagramHTMLRenderer)(nil)
)
