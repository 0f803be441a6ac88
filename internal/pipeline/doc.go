// Package pipeline turns a post's Markdown body into an HTML fragment.
//
// A Pipeline is an explicit, ordered list of Stage values that share one
// Document. The default order is:
//
//	parse          Markdown source to goldmark AST
//	math           $...$ and $$ fences become MathML (treeblood)
//	gfm            tables, strikethrough, autolinks, task lists
//	diagram        mermaid and d2 fences become inline SVG images
//	highlight      chroma classes on fenced code, plain-text fences skipped
//	serialize      AST to HTML
//	rewrite-links  relative src/href resolved against a base URL (optional)
//	han-spacing    whitespace between two Han characters removed
//
// Stages that add syntax or node renderers also implement goldmark.Extender.
// Their extensions are installed in stage order when the Pipeline is built,
// so parsing already produces math and table nodes and serialization already
// knows how to write diagrams. Each stage's Transform then only touches the
// Document.
//
// Raw HTML embedded in Markdown is not passed through; goldmark runs in its
// default safe mode.
package pipeline
