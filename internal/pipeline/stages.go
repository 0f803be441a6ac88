package pipeline

import (
	"context"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
)

// GFMStage enables GitHub Flavored Markdown: tables, strikethrough,
// autolinks and task lists.
type GFMStage struct{}

func (GFMStage) Name() string { return StageGFM }

func (GFMStage) Extend(m goldmark.Markdown) { extension.GFM.Extend(m) }

func (GFMStage) Transform(context.Context, *Document) error { return nil }

// ---------------------------------------------------------------------------
// highlight
// ---------------------------------------------------------------------------

// nohl makes goldmark-highlighting write a fence without chroma markup.
const nohlAttr = "nohl"

// HighlightStage highlights fenced code with chroma CSS classes.
// Fences whose language is listed as plain text are left unhighlighted.
type HighlightStage struct {
	style string
	plain map[string]bool
}

// NewHighlightStage creates a HighlightStage using a chroma style name.
func NewHighlightStage(style string, plainText []string) *HighlightStage {
	plain := make(map[string]bool, len(plainText))
	for _, lang := range plainText {
		plain[lang] = true
	}
	return &HighlightStage{style: style, plain: plain}
}

func (s *HighlightStage) Name() string { return StageHighlight }

func (s *HighlightStage) Extend(m goldmark.Markdown) {
	opts := []highlighting.Option{
		// Classes keep the HTML small and leave colors to HighlightCSS.
		highlighting.WithFormatOptions(chromahtml.WithClasses(true)),
	}
	if s.style != "" {
		opts = append(opts, highlighting.WithStyle(s.style))
	}
	highlighting.NewHighlighting(opts...).Extend(m)
}

func (s *HighlightStage) Transform(_ context.Context, doc *Document) error {
	if err := requireRoot(doc); err != nil {
		return err
	}
	if len(s.plain) == 0 {
		return nil
	}
	return ast.Walk(doc.Root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		fence, ok := n.(*ast.FencedCodeBlock)
		if !ok {
			return ast.WalkContinue, nil
		}
		if s.plain[string(fence.Language(doc.Source))] {
			fence.SetAttributeString(nohlAttr, true)
		}
		return ast.WalkSkipChildren, nil
	})
}

// Compile-time interface checks.
var (
	_ goldmark.Extender = GFMStage{}
	_ goldmark.Extender = (*HighlightStage)(nil)
)
