package pipeline

import (
	"bytes"
	"context"
	"slices"
	"strings"

	"github.com/wyatt915/treeblood"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Node kinds for parsed math.
var (
	KindMathInline = ast.NewNodeKind("MathInline")
	KindMathBlock  = ast.NewNodeKind("MathBlock")
)

// MathInline is $...$ (or $$...$$) inside a line of text.
type MathInline struct {
	ast.BaseInline
	TeX text.Segment
}

func (n *MathInline) Kind() ast.NodeKind { return KindMathInline }

func (n *MathInline) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{
		"TeX": string(n.TeX.Value(source)),
	}, nil)
}

// MathBlock is display math between two $$ fence lines. Its lines hold
// the TeX.
type MathBlock struct {
	ast.BaseBlock
}

func (n *MathBlock) Kind() ast.NodeKind { return KindMathBlock }

func (n *MathBlock) IsRaw() bool { return true }

func (n *MathBlock) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, nil, nil)
}

// MathStage recognizes TeX math and renders it as MathML.
// The work happens inside the parsers and renderer it installs.
type MathStage struct{}

func (MathStage) Name() string { return StageMath }

func (MathStage) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(
		// Ahead of fenced code (700) and emphasis (500).
		parser.WithBlockParsers(util.Prioritized(mathBlockParser{}, 690)),
		parser.WithInlineParsers(util.Prioritized(mathInlineParser{}, 150)),
	)
	m.Renderer().AddOptions(renderer.WithNodeRenderers(
		util.Prioritized(&mathHTMLRenderer{}, 500),
	))
}

func (MathStage) Transform(context.Context, *Document) error { return nil }

// dollarRun counts the leading '$' bytes of b.
func dollarRun(b []byte) int {
	n := 0
	for n < len(b) && b[n] == '$' {
		n++
	}
	return n
}

// ---------------------------------------------------------------------------
// inline
// ---------------------------------------------------------------------------

// mathInlineParser matches a run of one or two dollars closed by a run of
// the same length on the same line, the way code spans match backticks.
type mathInlineParser struct{}

func (mathInlineParser) Trigger() []byte { return []byte{'$'} }

func (mathInlineParser) Parse(_ ast.Node, block text.Reader, _ parser.Context) ast.Node {
	// The tail of a longer run is not an opener.
	if block.PrecendingCharacter() == '$' {
		return nil
	}
	line, seg := block.PeekLine()
	open := dollarRun(line)
	if open == 0 || open > 2 {
		return nil
	}

	for i := open; i < len(line); {
		if line[i] != '$' {
			i++
			continue
		}
		run := dollarRun(line[i:])
		if run == open && line[i-1] != '\\' {
			if util.IsBlank(line[open:i]) {
				return nil
			}
			block.Advance(i + run)
			return &MathInline{TeX: text.NewSegment(seg.Start+open, seg.Start+i)}
		}
		i += run
	}
	return nil
}

// ---------------------------------------------------------------------------
// block
// ---------------------------------------------------------------------------

// mathBlockParser reads display math fenced by lines of two or more
// dollars. Text after the opening fence is ignored; an opening line that
// closes itself ($$x$$) is left to the inline parser. An unclosed fence
// runs to the end of its container, like fenced code.
type mathBlockParser struct{}

type mathFence struct {
	indent int
	length int
	node   ast.Node
}

var mathFenceKey = parser.NewContextKey()

func (mathBlockParser) Trigger() []byte { return []byte{'$'} }

func (mathBlockParser) Open(_ ast.Node, reader text.Reader, pc parser.Context) (ast.Node, parser.State) {
	line, _ := reader.PeekLine()
	pos := pc.BlockOffset()
	if pos < 0 || line[pos] != '$' {
		return nil, parser.NoChildren
	}
	length := dollarRun(line[pos:])
	if length < 2 || bytes.IndexByte(line[pos+length:], '$') >= 0 {
		return nil, parser.NoChildren
	}

	node := &MathBlock{}
	pc.Set(mathFenceKey, &mathFence{indent: pos, length: length, node: node})
	return node, parser.NoChildren
}

func (mathBlockParser) Continue(node ast.Node, reader text.Reader, pc parser.Context) parser.State {
	line, segment := reader.PeekLine()
	fence := pc.Get(mathFenceKey).(*mathFence)

	if w, pos := util.IndentWidth(line, reader.LineOffset()); w < 4 {
		length := dollarRun(line[pos:])
		if length >= fence.length && util.IsBlank(line[pos+length:]) {
			newline := 1
			if line[len(line)-1] != '\n' {
				newline = 0
			}
			reader.Advance(segment.Stop - segment.Start - newline + segment.Padding)
			return parser.Close
		}
	}

	pos, padding := util.IndentPositionPadding(line, reader.LineOffset(), segment.Padding, fence.indent)
	if pos < 0 {
		pos = max(0, util.FirstNonSpacePosition(line)) - segment.Padding
		padding = 0
	}
	seg := text.NewSegmentPadding(segment.Start+pos, segment.Stop, padding)
	seg.ForceNewline = true
	node.Lines().Append(seg)
	reader.AdvanceAndSetPadding(segment.Stop-segment.Start-pos-1, padding)
	return parser.Continue | parser.NoChildren
}

func (mathBlockParser) Close(node ast.Node, _ text.Reader, pc parser.Context) {
	if fence, ok := pc.Get(mathFenceKey).(*mathFence); ok && fence.node == node {
		pc.Set(mathFenceKey, nil)
	}
}

func (mathBlockParser) CanInterruptParagraph() bool { return true }

func (mathBlockParser) CanAcceptIndentedLine() bool { return false }

// ---------------------------------------------------------------------------
// render
// ---------------------------------------------------------------------------

// MathML renders TeX as one MathML element on a single line. Display math
// gets display="block". Attributes are sorted so equal input always gives
// equal bytes.
func MathML(tex string, display bool) (string, error) {
	// A Pitziil keeps per-expression state; one per call is safe to use
	// from concurrent renders.
	pitz := treeblood.NewDocument(nil, false)
	pitz.PrintOneLine = true

	render := pitz.TextStyle
	if display {
		render = pitz.DisplayStyle
	}
	mml, err := render(tex)
	if err != nil {
		return "", err
	}
	return sortAttributes(strings.TrimSpace(mml))
}

// sortAttributes re-serializes an HTML fragment with every element's
// attributes, and the declarations of its style attribute, in key order.
func sortAttributes(fragment string) (string, error) {
	body := &html.Node{Type: html.ElementNode, DataAtom: atom.Body, Data: "body"}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), body)
	if err != nil {
		return "", err
	}

	var sortNode func(*html.Node)
	sortNode = func(n *html.Node) {
		slices.SortStableFunc(n.Attr, func(a, b html.Attribute) int {
			return strings.Compare(a.Key, b.Key)
		})
		for i, a := range n.Attr {
			if a.Key == "style" {
				n.Attr[i].Val = sortDeclarations(a.Val)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			sortNode(c)
		}
	}

	var b strings.Builder
	for _, n := range nodes {
		sortNode(n)
		if err := html.Render(&b, n); err != nil {
			return "", err
		}
	}
	return b.String(), nil
}

func sortDeclarations(style string) string {
	var decls []string
	for d := range strings.SplitSeq(style, ";") {
		if d = strings.TrimSpace(d); d != "" {
			decls = append(decls, d)
		}
	}
	slices.Sort(decls)
	return strings.Join(decls, ";") + ";"
}

// mathHTMLRenderer writes math nodes as MathML. TeX that treeblood rejects
// is kept visible as escaped code.
type mathHTMLRenderer struct{}

func (r *mathHTMLRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(KindMathInline, r.renderInline)
	reg.Register(KindMathBlock, r.renderBlock)
}

func (r *mathHTMLRenderer) renderInline(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if entering {
		writeMath(w, string(node.(*MathInline).TeX.Value(source)), false)
	}
	return ast.WalkSkipChildren, nil
}

func (r *mathHTMLRenderer) renderBlock(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	var tex bytes.Buffer
	lines := node.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		tex.Write(seg.Value(source))
	}
	writeMath(w, strings.TrimSpace(tex.String()), true)
	_ = w.WriteByte('\n')
	return ast.WalkSkipChildren, nil
}

func writeMath(w util.BufWriter, tex string, display bool) {
	mml, err := MathML(tex, display)
	if err != nil || mml == "" {
		_, _ = w.WriteString(`<code class="math-error">`)
		_, _ = w.Write(util.EscapeHTML([]byte(tex)))
		_, _ = w.WriteString("</code>")
		return
	}
	_, _ = w.WriteString(mml)
}

// Compile-time interface checks.
var (
	_ goldmark.Extender     = MathStage{}
	_ parser.InlineParser   = mathInlineParser{}
	_ parser.BlockParser    = mathBlockParser{}
	_ renderer.NodeRenderer = (*mathHTMLRenderer)(nil)
)
