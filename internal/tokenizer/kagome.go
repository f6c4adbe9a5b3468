package tokenizer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/example/go-jtalk/internal/njd"
	"github.com/ikawaha/kagome-dict/dict"
	"github.com/ikawaha/kagome-dict/ipa"
	"github.com/ikawaha/kagome/v2/tokenizer"
)

// Kagome tokenizes with kagome and the IPA dictionary. It is safe for
// concurrent use.
type Kagome struct {
	t       *tokenizer.Tokenizer
	lexicon *Lexicon
	logger  *slog.Logger
}

type kagomeConfig struct {
	lexicon  *Lexicon
	userDict string
	logger   *slog.Logger
}

// Option configures NewKagome.
type Option func(*kagomeConfig)

// WithLexicon sets the accent lexicon. The default is DefaultLexicon.
func WithLexicon(l *Lexicon) Option {
	return func(c *kagomeConfig) { c.lexicon = l }
}

// WithUserDictionary loads a kagome user dictionary file
// (surface,segments,readings,pos per line).
func WithUserDictionary(path string) Option {
	return func(c *kagomeConfig) { c.userDict = path }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *kagomeConfig) { c.logger = l }
}

// NewKagome builds the IPA dictionary tokenizer.
func NewKagome(opts ...Option) (*Kagome, error) {
	cfg := kagomeConfig{logger: slog.Default()}
	for _, opt := range opts {
		opt(&cfg)
	}

	kopts := []tokenizer.Option{tokenizer.OmitBosEos()}
	if cfg.userDict != "" {
		udict, err := dict.NewUserDict(cfg.userDict)
		if err != nil {
			return nil, fmt.Errorf("load user dictionary %q: %w", cfg.userDict, err)
		}
		kopts = append(kopts, tokenizer.UserDict(udict))
	}

	t, err := tokenizer.New(ipa.Dict(), kopts...)
	if err != nil {
		return nil, fmt.Errorf("init kagome: %w", err)
	}

	lex := cfg.lexicon
	if lex == nil {
		lex, err = DefaultLexicon()
		if err != nil {
			return nil, err
		}
	}
	return &Kagome{t: t, lexicon: lex, logger: cfg.logger}, nil
}

// Tokenize returns one row per morpheme. Whitespace tokens are dropped.
func (k *Kagome) Tokenize(ctx context.Context, text string) ([]njd.Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTokenize, err)
	}
	if k == nil || k.t == nil {
		return nil, fmt.Errorf("%w: tokenizer not initialized", ErrTokenize)
	}

	toks := k.t.Tokenize(text)
	rows := make([]njd.Row, 0, len(toks))
	for _, tok := range toks {
		if tok.Class == tokenizer.DUMMY || strings.TrimSpace(tok.Surface) == "" {
			continue
		}
		row := toRow(tok)
		if e, ok := k.lexicon.Lookup(row.Surface, row.Orig, row.POS); ok {
			row.Acc = e.accMora()
			row.ChainRule = e.ChainRule
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no morphemes in %q", ErrTokenize, text)
	}
	k.logger.Debug("tokenized", "morphemes", len(rows))
	return rows, nil
}

// Count reports the number of morphemes in text.
func (k *Kagome) Count(text string) (int, error) {
	rows, err := k.Tokenize(context.Background(), text)
	if err != nil {
		return 0, err
	}
	return len(rows), nil
}

func toRow(tok tokenizer.Token) njd.Row {
	pos := tok.POS()
	row := njd.Row{
		Surface:   tok.Surface,
		POS:       field(pos, 0),
		POSGroup1: field(pos, 1),
		POSGroup2: field(pos, 2),
		POSGroup3: field(pos, 3),
		CType:     value(tok.InflectionalType()),
		CForm:     value(tok.InflectionalForm()),
		Orig:      value(tok.BaseForm()),
		Read:      value(tok.Reading()),
		Pron:      value(tok.Pronunciation()),
	}
	if tok.Class == tokenizer.USER {
		// Features of a user entry are pos, segments and readings, the last
		// two joined with "/".
		yomi, _ := tok.FeatureAt(2)
		yomi = strings.ReplaceAll(yomi, "/", "")
		row.Orig, row.Read, row.Pron = tok.Surface, yomi, yomi
		if !knownPOS[row.POS] {
			// Free-form POS; treat the entry as a proper noun.
			row.POS, row.POSGroup1 = njd.POSNoun, njd.GroupProperNoun
			row.POSGroup2, row.POSGroup3 = "", ""
		}
	}
	return row
}

var knownPOS = map[string]bool{
	njd.POSNoun: true, njd.POSVerb: true, njd.POSAdjective: true, njd.POSAdverb: true,
	njd.POSAdnominal: true, njd.POSConjunction: true, njd.POSInterjection: true,
	njd.POSParticle: true, njd.POSAuxVerb: true, njd.POSPrefix: true, njd.POSSymbol: true,
	njd.POSFiller: true, njd.POSOther: true,
}

func field(f []string, i int) string {
	if i >= len(f) || f[i] == njd.Unknown {
		return ""
	}
	return f[i]
}

func value(s string, ok bool) string {
	if !ok || s == njd.Unknown {
		return ""
	}
	return s
}
