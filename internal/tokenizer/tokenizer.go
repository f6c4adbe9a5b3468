// Package tokenizer splits Japanese text into morpheme rows for the feature
// store. The default implementation wraps kagome with the IPA dictionary and
// fills accent fields from an accent lexicon.
package tokenizer

import (
	"context"
	"errors"

	"github.com/example/go-jtalk/internal/njd"
)

// ErrTokenize wraps every failure to produce rows for a text.
var ErrTokenize = errors.New("tokenize failed")

// Tokenizer turns text into ordered morpheme rows.
type Tokenizer interface {
	Tokenize(ctx context.Context, text string) ([]njd.Row, error)
}

// Func adapts a plain function to Tokenizer.
type Func func(ctx context.Context, text string) ([]njd.Row, error)

// Tokenize calls f.
func (f Func) Tokenize(ctx context.Context, text string) ([]njd.Row, error) {
	return f(ctx, text)
}
