package md2site

import (
	"bytes"
	"encoding/json"
	"maps"
)

// Metadata holds a post's front matter.
// Date and Title are lifted out; every other key stays in Params.
type Metadata struct {
	Date   string
	Title  string
	Params map[string]any
}

// Post is one Markdown file from the content directory.
// ContentHTML is empty until the post has been rendered.
type Post struct {
	ID          string
	Metadata    Metadata
	Body        string
	ContentHTML string
}

// MarshalJSON encodes the post the way page templates consume it: front
// matter keys at top level, then id, contentHtml, date and title.
// The fixed keys win over front matter keys of the same name. HTML is not
// escaped so contentHtml stays readable.
func (p Post) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(p.Metadata.Params)+4)
	maps.Copy(out, p.Metadata.Params)
	out["id"] = p.ID
	out["contentHtml"] = p.ContentHTML
	out["date"] = p.Metadata.Date
	out["title"] = p.Metadata.Title

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(out); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// PostSummary is one entry of the post listing.
type PostSummary struct {
	ID          string `json:"id"`
	Date        string `json:"date"`
	Title       string `json:"title"`
	DisplayDate string `json:"displayDate,omitempty"`
}
