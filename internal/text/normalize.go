package text

import (
	"errors"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

// ErrEmptyText is returned when the input text is empty or whitespace-only.
var ErrEmptyText = errors.New("text is empty")

// ideographicSpace separates words after ToFullWidth.
const ideographicSpace = "　"

// Normalize cleans raw request or CLI text. Line endings become \n,
// invalid UTF-8, byte order marks and control characters other than
// \n and \t are removed, and the result is trimmed.
func Normalize(s string) (string, error) {
	s = strings.ToValidUTF8(s, "")
	s = strings.NewReplacer("\r\n", "\n", "\r", "\n").Replace(s)
	s = strings.Map(func(r rune) rune {
		switch {
		case r == '\n', r == '\t':
			return r
		case r == '\uFEFF', unicode.IsControl(r):
			return -1
		}
		return r
	}, s)

	if s = strings.TrimSpace(s); s == "" {
		return "", ErrEmptyText
	}
	return s, nil
}

// ToFullWidth folds s into the full-width form the dictionary is keyed on.
// NFKC composes half-width katakana and voicing marks first, then ASCII is
// widened. Whitespace runs become one ideographic space.
func ToFullWidth(s string) string {
	s = norm.NFKC.String(s)
	s = strings.Join(strings.Fields(s), ideographicSpace)
	return width.Widen.String(s)
}
