package tokenizer

import (
	_ "embed"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

//go:embed lexicon.csv
var builtinLexicon string

// Entry is the accent information of one word.
type Entry struct {
	Acc       int
	Mora      int
	ChainRule string
}

func (e Entry) accMora() string {
	if e.Mora <= 0 {
		return strconv.Itoa(e.Acc)
	}
	return strconv.Itoa(e.Acc) + "/" + strconv.Itoa(e.Mora)
}

// Lexicon maps words to accent entries. Keys are the surface or base form,
// optionally restricted to one part of speech.
type Lexicon struct {
	entries map[string]Entry
}

const lexiconFields = 5

// ParseLexicon reads "surface,pos,accent,morae,chain_rule" records. Lines
// starting with '#' are comments.
func ParseLexicon(r io.Reader) (*Lexicon, error) {
	cr := csv.NewReader(r)
	cr.Comment = '#'
	cr.FieldsPerRecord = lexiconFields
	cr.TrimLeadingSpace = true

	l := &Lexicon{entries: make(map[string]Entry)}
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return l, nil
		}
		if err != nil {
			return nil, fmt.Errorf("parse accent lexicon: %w", err)
		}
		line, _ := cr.FieldPos(0)
		surface := strings.TrimSpace(rec[0])
		if surface == "" {
			return nil, fmt.Errorf("accent lexicon line %d: empty surface", line)
		}
		acc, err := strconv.Atoi(strings.TrimSpace(rec[2]))
		if err != nil || acc < 0 {
			return nil, fmt.Errorf("accent lexicon line %d: bad accent %q", line, rec[2])
		}
		mora := 0
		if m := strings.TrimSpace(rec[3]); m != "" {
			mora, err = strconv.Atoi(m)
			if err != nil || mora < 0 {
				return nil, fmt.Errorf("accent lexicon line %d: bad mora count %q", line, rec[3])
			}
		}
		l.entries[key(surface, strings.TrimSpace(rec[1]))] = Entry{
			Acc:       acc,
			Mora:      mora,
			ChainRule: strings.TrimSpace(rec[4]),
		}
	}
}

// LoadLexicon reads a lexicon file.
func LoadLexicon(path string) (*Lexicon, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open accent lexicon: %w", err)
	}
	defer f.Close()
	return ParseLexicon(f)
}

// DefaultLexicon returns a fresh copy of the built-in lexicon.
func DefaultLexicon() (*Lexicon, error) {
	return ParseLexicon(strings.NewReader(builtinLexicon))
}

// Merge adds every entry of other to l, replacing entries with the same key.
func (l *Lexicon) Merge(other *Lexicon) {
	for k, e := range other.entries {
		l.entries[k] = e
	}
}

// Len returns the number of entries.
func (l *Lexicon) Len() int { return len(l.entries) }

// Lookup finds the entry for a morpheme, trying the surface before the base
// form and a POS-specific entry before a generic one.
func (l *Lexicon) Lookup(surface, orig, pos string) (Entry, bool) {
	if l == nil {
		return Entry{}, false
	}
	for _, w := range []string{surface, orig} {
		if w == "" {
			continue
		}
		if e, ok := l.entries[key(w, pos)]; ok {
			return e, true
		}
		if e, ok := l.entries[key(w, "")]; ok {
			return e, true
		}
	}
	return Entry{}, false
}

func key(word, pos string) string {
	return word + "\x00" + pos
}
