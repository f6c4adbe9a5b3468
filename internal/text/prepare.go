package text

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Counter is the minimal interface required by PrepareChunks.
// It is satisfied by the tokenizer package's Kagome tokenizer.
type Counter interface {
	Count(text string) (int, error)
}

// Chunk is one prepared piece of input, small enough for a single
// front-end run.
type Chunk struct {
	Text         string // prepared chunk text
	NumMorphemes int
	NumRunes     int
}

// PrepareText applies the input preparation every chunk goes through:
//  1. Fold to full width and collapse whitespace (ToFullWidth).
//  2. Add a trailing 。 if the last character is a letter or digit.
func PrepareText(input string) string {
	s := ToFullWidth(input)

	if s != "" {
		last, _ := utf8.DecodeLastRuneInString(s)
		if unicode.IsLetter(last) || unicode.IsDigit(last) {
			s += "。"
		}
	}

	return s
}

// PrepareChunks splits text at sentence boundaries and groups sentences
// greedily into chunks of at most maxMorphemes morphemes. A sentence that
// alone exceeds the budget becomes its own chunk. maxMorphemes <= 0 disables
// splitting.
func PrepareChunks(input string, c Counter, maxMorphemes int) ([]Chunk, error) {
	if strings.TrimSpace(input) == "" {
		return nil, ErrEmptyText
	}

	sentences := []string{input}
	if maxMorphemes > 0 {
		sentences = splitSentences(input)
	}

	var chunks []Chunk
	var pending []string
	pendingCount := 0

	flush := func() {
		if len(pending) == 0 {
			return
		}
		prepared := PrepareText(strings.Join(pending, ""))
		chunks = append(chunks, Chunk{
			Text:         prepared,
			NumMorphemes: pendingCount,
			NumRunes:     utf8.RuneCountInString(prepared),
		})
		pending = pending[:0]
		pendingCount = 0
	}

	for _, sent := range sentences {
		n, err := c.Count(PrepareText(sent))
		if err != nil {
			return nil, fmt.Errorf("count morphemes in %q: %w", sent, err)
		}

		if len(pending) > 0 && maxMorphemes > 0 && pendingCount+n > maxMorphemes {
			flush()
		}
		pending = append(pending, sent)
		pendingCount += n
	}
	flush()

	return chunks, nil
}
