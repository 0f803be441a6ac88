package pipeline

import "go.uber.org/zap"

// DefaultPlainText lists fence languages rendered without highlighting.
var DefaultPlainText = []string{"txt", "text"}

// Options configures the default stage list.
type Options struct {
	Logger         *zap.Logger
	Diagrams       map[string]DiagramRenderer // by fence language
	HighlightStyle string
	PlainText      []string // nil = DefaultPlainText
	AssetBase      string   // empty = relative links untouched
}

// DefaultStages returns the stages in their load-bearing order: syntax
// extensions before the AST transforms that depend on them, HTML passes
// after serialization.
func DefaultStages(opts Options) ([]Stage, error) {
	plain := opts.PlainText
	if plain == nil {
		plain = DefaultPlainText
	}

	stages := []Stage{
		ParseStage{},
		MathStage{},
		GFMStage{},
		NewDiagramStage(opts.Diagrams, opts.Logger),
		NewHighlightStage(opts.HighlightStyle, plain),
		SerializeStage{},
	}

	if opts.AssetBase != "" {
		links, err := NewLinkRewriteStage(opts.AssetBase)
		if err != nil {
			return nil, err
		}
		stages = append(stages, links)
	}

	return append(stages, HanSpacingStage{}), nil
}

// NewDefault builds a Pipeline with DefaultStages.
func NewDefault(opts Options) (*Pipeline, error) {
	stages, err := DefaultStages(opts)
	if err != nil {
		return nil, err
	}
	return New(opts.Logger, stages...)
}
