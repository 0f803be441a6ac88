package pipeline

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// LinkRewriteStage resolves relative image and link targets against a base
// URL, so posts can reference assets next to their Markdown file.
// It runs on serialized HTML.
type LinkRewriteStage struct {
	base *url.URL
}

// NewLinkRewriteStage creates a LinkRewriteStage for base, which must be an
// absolute URL or an absolute path such as "/static/posts/".
func NewLinkRewriteStage(base string) (*LinkRewriteStage, error) {
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("parsing asset base: %w", err)
	}
	if !u.IsAbs() && !strings.HasPrefix(u.Path, "/") {
		return nil, fmt.Errorf("asset base %q must be an absolute URL or path", base)
	}
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	return &LinkRewriteStage{base: u}, nil
}

func (s *LinkRewriteStage) Name() string { return StageLinks }

func (s *LinkRewriteStage) Transform(_ context.Context, doc *Document) error {
	out, err := RewriteRelativeLinks(string(doc.HTML), s.base)
	if err != nil {
		return err
	}
	doc.HTML = []byte(out)
	return nil
}

// RewriteRelativeLinks resolves relative img[src] and a[href] values in an
// HTML fragment against base. Targets that would climb above base, anchors,
// absolute paths and URLs with a scheme are left untouched.
func RewriteRelativeLinks(fragment string, base *url.URL) (string, error) {
	if base == nil {
		return fragment, nil
	}

	body := &html.Node{Type: html.ElementNode, DataAtom: atom.Body, Data: "body"}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), body)
	if err != nil {
		return "", err
	}

	var buf strings.Builder
	for _, n := range nodes {
		rewriteNode(n, base)
		if err := html.Render(&buf, n); err != nil {
			return "", err
		}
	}
	return buf.String(), nil
}

// rewriteNode traverses the DOM and rewrites relative targets.
func rewriteNode(n *html.Node, base *url.URL) {
	if n.Type == html.ElementNode {
		switch n.DataAtom {
		case atom.Img:
			rewriteAttr(n, "src", base)
		case atom.A:
			rewriteAttr(n, "href", base)
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		rewriteNode(c, base)
	}
}

func rewriteAttr(n *html.Node, key string, base *url.URL) {
	for i, attr := range n.Attr {
		if attr.Key != key || !isRelativeLink(attr.Val) {
			continue
		}
		ref, err := url.Parse(attr.Val)
		if err != nil {
			continue
		}
		// Lexically cleaned, a target that escapes base starts with "..".
		if cleaned := path.Clean(ref.Path); cleaned == ".." || strings.HasPrefix(cleaned, "../") {
			continue
		}
		n.Attr[i].Val = base.ResolveReference(ref).String()
	}
}

// isRelativeLink returns true for document-relative targets.
func isRelativeLink(v string) bool {
	if v == "" || strings.HasPrefix(v, "#") || strings.HasPrefix(v, "/") {
		return false
	}
	u, err := url.Parse(v)
	if err != nil {
		return false
	}
	return u.Scheme == "" && u.Host == ""
}
