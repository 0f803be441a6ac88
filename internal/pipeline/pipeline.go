package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"go.uber.org/zap"
)

// Sentinel errors for pipeline construction and ordering.
var (
	ErrNoStages  = errors.New("pipeline has no stages")
	ErrNotParsed = errors.New("document was not parsed")
)

// Stage is one step of the content pipeline.
type Stage interface {
	Name() string
	Transform(ctx context.Context, doc *Document) error
}

// Document is the state threaded through the stages of one render.
type Document struct {
	ID     string
	Source []byte
	Root   ast.Node // set by the parse stage
	HTML   []byte   // set by the serialize stage

	md goldmark.Markdown
}

// Markdown returns the goldmark instance configured by the pipeline.
func (d *Document) Markdown() goldmark.Markdown {
	return d.md
}

// StageError reports the stage that failed.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Pipeline renders Markdown through an ordered list of stages.
// A Pipeline is safe for concurrent use if its stages are.
type Pipeline struct {
	stages []Stage
	md     goldmark.Markdown
	logger *zap.Logger
}

// New builds a Pipeline over stages, installing goldmark extensions in
// stage order.
func New(logger *zap.Logger, stages ...Stage) (*Pipeline, error) {
	if len(stages) == 0 {
		return nil, ErrNoStages
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	var exts []goldmark.Extender
	for _, s := range stages {
		if ext, ok := s.(goldmark.Extender); ok {
			exts = append(exts, ext)
		}
	}

	return &Pipeline{
		stages: stages,
		md:     goldmark.New(goldmark.WithExtensions(exts...)),
		logger: logger,
	}, nil
}

// StageNames lists the stages in execution order.
func (p *Pipeline) StageNames() []string {
	names := make([]string, len(p.stages))
	for i, s := range p.stages {
		names[i] = s.Name()
	}
	return names
}

// Render runs every stage over source and returns the HTML fragment.
// Failures are returned as *StageError.
func (p *Pipeline) Render(ctx context.Context, id string, source []byte) (string, error) {
	doc := &Document{ID: id, Source: source, md: p.md}

	for _, s := range p.stages {
		if err := ctx.Err(); err != nil {
			return "", &StageError{Stage: s.Name(), Err: err}
		}
		if err := s.Transform(ctx, doc); err != nil {
			return "", &StageError{Stage: s.Name(), Err: err}
		}
		p.logger.Debug("stage done", zap.String("post", id), zap.String("stage", s.Name()))
	}

	return string(doc.HTML), nil
}

// ---------------------------------------------------------------------------
// parse / serialize
// ---------------------------------------------------------------------------

// Stage names, in default order.
const (
	StageParse      = "parse"
	StageMath       = "math"
	StageGFM        = "gfm"
	StageDiagram    = "diagram"
	StageHighlight  = "highlight"
	StageSerialize  = "serialize"
	StageHanSpacing = "han-spacing"
	StageLinks      = "rewrite-links"
)

// ParseStage parses Document.Source into Document.Root.
type ParseStage struct{}

func (ParseStage) Name() string { return StageParse }

func (ParseStage) Transform(_ context.Context, doc *Document) error {
	doc.Root = doc.md.Parser().Parse(text.NewReader(doc.Source))
	return nil
}

// SerializeStage renders Document.Root into Document.HTML.
type SerializeStage struct{}

func (SerializeStage) Name() string { return StageSerialize }

func (SerializeStage) Transform(_ context.Context, doc *Document) error {
	if err := requireRoot(doc); err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := doc.md.Renderer().Render(&buf, doc.Source, doc.Root); err != nil {
		return err
	}
	doc.HTML = buf.Bytes()
	return nil
}

// requireRoot fails stages that run before parse.
func requireRoot(doc *Document) error {
	if doc.Root == nil {
		return ErrNotParsed
	}
	return nil
}
