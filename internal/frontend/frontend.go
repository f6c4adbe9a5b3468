// Package frontend runs the full text-to-label pipeline for one utterance.
package frontend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/go-jtalk/internal/accent"
	"github.com/example/go-jtalk/internal/digit"
	"github.com/example/go-jtalk/internal/label"
	"github.com/example/go-jtalk/internal/longvowel"
	"github.com/example/go-jtalk/internal/njd"
	"github.com/example/go-jtalk/internal/pronunciation"
	textpkg "github.com/example/go-jtalk/internal/text"
	"github.com/example/go-jtalk/internal/tokenizer"
	"github.com/example/go-jtalk/internal/unvoiced"
)

// ErrFormatMismatch is returned by CheckFormat when an engine expects labels
// in a layout other than label.Format.
var ErrFormatMismatch = errors.New("label format mismatch")

// Stage names, in pipeline order.
const (
	StageNormalize     = "normalize"
	StageTokenize      = "tokenize"
	StageImport        = "import"
	StagePronunciation = "pronunciation"
	StageDigit         = "digit"
	StageAccentPhrase  = "accent_phrase"
	StageAccentType    = "accent_type"
	StageUnvoiced      = "unvoiced"
	StageLongVowel     = "long_vowel"
	StageCompile       = "compile"
)

// Observer receives the wall time of every completed stage.
type Observer func(stage string, d time.Duration)

// Result is the outcome of one Run.
type Result struct {
	Text   string // normalized input
	Store  *njd.Store
	Labels []string
	// Remap maps imported node indices to node ranges after digit expansion.
	Remap njd.Remap
	// Recovered lists the rule lookups stages answered with a fallback.
	Recovered []*njd.RuleLookupError
}

// Frontend turns text into labels. It holds no per-utterance state and is
// safe for concurrent use if its tokenizer is.
type Frontend struct {
	tok      tokenizer.Tokenizer
	logger   *slog.Logger
	observer Observer
}

// Option configures a Frontend.
type Option func(*Frontend)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(f *Frontend) { f.logger = l }
}

// WithObserver sets the stage timing observer.
func WithObserver(o Observer) Option {
	return func(f *Frontend) { f.observer = o }
}

// New returns a Frontend using tok.
func New(tok tokenizer.Tokenizer, opts ...Option) *Frontend {
	f := &Frontend{tok: tok, logger: slog.Default()}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

type stage struct {
	name string
	run  func(*njd.Store) error
}

// Run normalizes text and drives it through every stage. The context is
// checked between stages; a cancelled run returns no labels.
func (f *Frontend) Run(ctx context.Context, text string) (*Result, error) {
	start := time.Now()
	res := &Result{}

	t0 := time.Now()
	normalized, err := textpkg.Normalize(text)
	if err != nil {
		return nil, err
	}
	res.Text = textpkg.ToFullWidth(normalized)
	f.observe(StageNormalize, t0)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	t0 = time.Now()
	rows, err := f.tok.Tokenize(ctx, res.Text)
	if err != nil {
		return nil, fmt.Errorf("tokenize: %w", err)
	}
	f.observe(StageTokenize, t0)

	t0 = time.Now()
	store, err := njd.Import(rows)
	if err != nil {
		return nil, err
	}
	f.observe(StageImport, t0)

	stages := []stage{
		{StagePronunciation, pronunciation.Set},
		{StageDigit, func(s *njd.Store) error {
			remap, err := digit.Set(s)
			res.Remap = remap
			return err
		}},
		{StageAccentPhrase, accent.SetPhrases},
		{StageAccentType, accent.SetTypes},
		{StageUnvoiced, unvoiced.Set},
		{StageLongVowel, longvowel.Set},
	}
	for _, st := range stages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		t0 = time.Now()
		if err := st.run(store); err != nil {
			return nil, fmt.Errorf("%s: %w", st.name, err)
		}
		f.observe(st.name, t0)
		for _, e := range store.TakeRecovered() {
			f.logger.Debug("rule lookup recovered",
				slog.String("stage", e.Stage),
				slog.Int("node", e.Index),
				slog.String("surface", e.Surface),
				slog.String("key", e.Key),
				slog.String("fallback", e.Fallback),
			)
			res.Recovered = append(res.Recovered, e)
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	t0 = time.Now()
	labels, err := label.Compile(store)
	if err != nil {
		return nil, err
	}
	f.observe(StageCompile, t0)

	res.Store = store
	res.Labels = labels
	f.logger.Debug("frontend run complete",
		slog.Int("morphemes", store.Len()),
		slog.Int("labels", len(labels)),
		slog.Duration("elapsed", time.Since(start)),
	)
	return res, nil
}

// Labels is Run without the intermediate results.
func (f *Frontend) Labels(ctx context.Context, text string) ([]string, error) {
	res, err := f.Run(ctx, text)
	if err != nil {
		return nil, err
	}
	return res.Labels, nil
}

func (f *Frontend) observe(name string, t0 time.Time) {
	if f.observer != nil {
		f.observer(name, time.Since(t0))
	}
}

// CheckFormat reports whether an engine declaring format can consume the
// labels produced here.
func CheckFormat(format string) error {
	if format != label.Format {
		return fmt.Errorf("%w: engine wants %q, front-end emits %q", ErrFormatMismatch, format, label.Format)
	}
	return nil
}
