package pipeline

import (
	"context"
	"unicode"
	"unicode/utf8"
)

// HanSpacingStage removes whitespace between two Han characters in the
// rendered HTML, undoing the spaces Markdown soft line breaks leave inside
// Chinese sentences.
type HanSpacingStage struct{}

func (HanSpacingStage) Name() string { return StageHanSpacing }

func (HanSpacingStage) Transform(_ context.Context, doc *Document) error {
	doc.HTML = RemoveHanSpaces(doc.HTML)
	return nil
}

// RemoveHanSpaces deletes every whitespace run whose neighbours on both
// sides are Han characters. Applying it twice gives the same result.
func RemoveHanSpaces(b []byte) []byte {
	out := make([]byte, 0, len(b))
	prevHan := false

	for i := 0; i < len(b); {
		r, size := utf8.DecodeRune(b[i:])
		if !isSpace(r) {
			out = append(out, b[i:i+size]...)
			prevHan = unicode.Is(unicode.Han, r)
			i += size
			continue
		}

		// Measure the whitespace run and peek past it.
		end := i
		for end < len(b) {
			sr, ssize := utf8.DecodeRune(b[end:])
			if !isSpace(sr) {
				break
			}
			end += ssize
		}
		next, _ := utf8.DecodeRune(b[end:])
		if !(prevHan && end < len(b) && unicode.Is(unicode.Han, next)) {
			out = append(out, b[i:end]...)
		}
		prevHan = false
		i = end
	}
	return out
}

// isSpace matches the whitespace class of ECMAScript regular expressions:
// Unicode White_Space without NEL (U+0085), plus the byte order mark.
func isSpace(r rune) bool {
	if r == '\u0085' {
		return false
	}
	return unicode.IsSpace(r) || r == '\uFEFF'
}

// cjkBasic reports whether r is in the CJK Unified Ideographs block used for
// Han/Latin spacing (U+4E00 to U+9FA5).
func cjkBasic(r rune) bool {
	return r >= 0x4E00 && r <= 0x9FA5
}

func asciiLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

// AddHanLatinSpaces inserts a space wherever a CJK ideograph directly
// touches an ASCII letter, in either order.
func AddHanLatinSpaces(s string) string {
	out := make([]byte, 0, len(s)+len(s)/8)
	var prev rune = -1

	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if prev >= 0 && ((cjkBasic(prev) && asciiLetter(r)) || (asciiLetter(prev) && cjkBasic(r))) {
			out = append(out, ' ')
		}
		out = append(out, s[i:i+size]...)
		prev = r
		i += size
	}
	return string(out)
}
