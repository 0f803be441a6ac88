// Package md2site turns a directory of Markdown posts into the two data
// shapes a blog front end needs: an ordered listing and rendered posts.
//
// # Quick Start
//
// Point a repository at the content directory, build a site, and close it
// when done:
//
//	repo := md2site.NewFSRepository("posts")
//	site, err := md2site.NewSite(repo)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer site.Close()
//
//	index, err := site.Index(ctx)      // []PostSummary, newest first
//	post, err := site.Post(ctx, "hello") // *Post with ContentHTML
//
// # Posts
//
// A post is <content>/<id>.md. An optional YAML front matter block delimited
// by "---" lines carries the metadata; "title" and "date" are lifted into
// Metadata and every other key is kept in Metadata.Params.
//
// Titles starting with "WIP" are drafts: BuildIndex leaves them out of the
// listing, but they can still be read and rendered by ID. Dates are parsed
// (ISO 8601 date, date-time, or RFC 3339) and the listing is sorted newest
// first; posts with equal dates keep their file name order.
//
// # Content Pipeline
//
// Rendering runs an explicit, ordered list of stages (see internal/pipeline):
//
//  1. parse: Goldmark parses the body into an AST (raw HTML is dropped)
//  2. math: $...$ and $$...$$ become MathML
//  3. gfm: tables, strikethrough, autolinks, task lists
//  4. diagram: ```mermaid and ```d2 fences become inline SVG images
//  5. highlight: chroma syntax highlighting with CSS classes; txt/text fences stay plain
//  6. serialize: the AST is written as HTML
//  7. han-spacing: whitespace between two Han characters is removed
//
// Use WithStages to replace the list and WithoutDiagrams to skip diagram
// rendering.
//
// # Diagrams
//
// D2 diagrams render in process. Mermaid diagrams need a Chromium binary,
// injected with WithEngine; without one, Mermaid fences are left as code
// blocks and a warning is logged. FindExecutable locates a Playwright
// installed Chromium:
//
//	engine, ok := md2site.FindExecutable(md2site.DefaultSearchRoot())
//	if ok {
//	    opts = append(opts, md2site.WithEngine(engine))
//	}
//
// Browsers are pooled and started lazily, one per concurrent render up to
// the pool size.
//
// # Building
//
// Site.Build computes the index and renders every post concurrently.
// A post that fails to render is reported in BuildReport and does not stop
// the others.
//
// # Errors
//
// Errors match the package sentinels with errors.Is: ErrStorage, ErrNotFound,
// ErrParse and ErrRender. Render failures are *RenderError values carrying the
// post ID and the failing stage.
package md2site
