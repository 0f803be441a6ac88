// Package frontmatter separates a YAML metadata block from a Markdown body.
//
// A block is recognized only when the very first line of the file is "---".
// It ends at the next line consisting of "---" (or "..."), and everything after
// that line is the body. Files without an opening delimiter have no metadata.
package frontmatter

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/alnah/go-md2site/internal/yamlutil"
)

// Sentinel errors for front matter parsing.
var (
	ErrUnterminated = errors.New("front matter start delimiter found but closing delimiter is missing")
	ErrInvalidYAML  = errors.New("front matter is not valid YAML")
)

const delimiter = "---"

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Document is a parsed content file.
type Document struct {
	Fields map[string]any
	Body   []byte
	Found  bool // true if the file carried a front matter block
}

// Split returns the raw metadata block (without delimiters) and the body.
// If the content does not open with a delimiter line, found is false and body
// is the full input.
func Split(content []byte) (block, body []byte, found bool, err error) {
	content = bytes.TrimPrefix(content, utf8BOM)

	first, rest, ok := cutLine(content)
	if !ok && len(first) == 0 {
		return nil, content, false, nil
	}
	if string(trimLine(first)) != delimiter {
		return nil, content, false, nil
	}

	start := len(content) - len(rest)
	pos := start
	for pos <= len(content) {
		line, next, more := cutLine(content[pos:])
		switch string(trimLine(line)) {
		case delimiter, "...":
			block = content[start:pos]
			body = next
			return block, body, true, nil
		}
		if !more {
			break
		}
		pos = len(content) - len(next)
	}

	return nil, nil, false, ErrUnterminated
}

// Parse splits content and decodes the metadata block into a map.
func Parse(content []byte) (*Document, error) {
	block, body, found, err := Split(content)
	if err != nil {
		return nil, err
	}
	if !found {
		return &Document{Fields: map[string]any{}, Body: body}, nil
	}

	fields, err := yamlutil.UnmarshalMapping(block)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}

	return &Document{Fields: fields, Body: body, Found: true}, nil
}

// cutLine returns the first line (without its newline) and the remainder.
// more is false when no newline was found.
func cutLine(b []byte) (line, rest []byte, more bool) {
	idx := bytes.IndexByte(b, '\n')
	if idx < 0 {
		return b, nil, false
	}
	return b[:idx], b[idx+1:], true
}

// trimLine drops a trailing carriage return and trailing blanks.
func trimLine(line []byte) []byte {
	return bytes.TrimRight(line, " \t\r")
}
