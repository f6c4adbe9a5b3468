package text

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// endsSentence reports whether the rune at text[i:] closes a sentence. A
// period between two digits is a decimal point.
func endsSentence(text string, i int, r rune) bool {
	switch r {
	case '。', '！', '？', '!', '?':
		return true
	case '.', '．':
		prev, _ := utf8.DecodeLastRuneInString(text[:i])
		next, _ := utf8.DecodeRuneInString(text[i+utf8.RuneLen(r):])
		return !(isDigit(prev) && isDigit(next))
	}
	return false
}

func isDigit(r rune) bool {
	return r != utf8.RuneError && unicode.IsDigit(r)
}

// splitSentences cuts text after each sentence terminator. Runs of
// terminators stay with the sentence they close; blank pieces are dropped.
func splitSentences(text string) []string {
	var out []string
	start := 0
	closing := false

	for i, r := range text {
		if endsSentence(text, i, r) {
			closing = true
			continue
		}
		if closing {
			if s := strings.TrimSpace(text[start:i]); s != "" {
				out = append(out, s)
			}
			start = i
			closing = false
		}
	}
	if s := strings.TrimSpace(text[start:]); s != "" {
		out = append(out, s)
	}
	return out
}
