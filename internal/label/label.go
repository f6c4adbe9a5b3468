// Package label compiles an annotated feature store into HTS full-context
// labels, one per phoneme.
package label

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/example/go-jtalk/internal/njd"
)

// Format identifies the label layout produced by Compile. A synthesis
// engine must declare the same identifier.
const Format = "HTS_TTS_JPN"

const na = "xx"

const (
	phonSil = njd.PhonSil
	phonPau = njd.PhonPause
)

type word struct {
	pos, ctype, cform string
}

type phrase struct {
	moras         int
	acc           int
	interrogative bool
	breath        int
	inBreath      int // index within the breath group
	moraInBreath  int // moras before this phrase in its breath group
	index         int
}

type breath struct {
	phrases     int
	moras       int
	firstPhrase int
	firstMora   int
}

// unit is one phoneme. Sounding units point at their word, phrase and
// breath group; sil and pau units have cur* set to -1 and only carry the
// neighbouring context.
type unit struct {
	symbol string
	mora   int // 1-based position in the phrase

	curWord, prevWord, nextWord       int
	curPhrase, prevPhrase, nextPhrase int
	curBreath, prevBreath, nextBreath int
}

type utterance struct {
	units   []unit
	words   []word
	phrases []phrase
	breaths []breath
	moras   int
}

// Compile emits the labels for s. The store must have been through every
// annotation stage; missing bookkeeping is reported as *njd.CompileError.
// A store with nothing to pronounce compiles to the sil boundaries alone.
func Compile(s *njd.Store) ([]string, error) {
	if s == nil || s.Len() == 0 {
		return nil, &njd.CompileError{Phrase: -1, Node: -1, Reason: "empty feature store"}
	}
	u, err := build(s)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(u.units))
	for i := range u.units {
		out[i] = u.label(i)
	}
	return out, nil
}

func build(s *njd.Store) (*utterance, error) {
	u := &utterance{}
	nodes := s.Nodes()
	u.units = append(u.units, boundary(phonSil))

	pending := false
	for pi, p := range s.Phrases() {
		if p.Pause {
			if len(u.phrases) > 0 {
				pending = true
			}
			continue
		}
		if p.MoraSize == 0 {
			continue
		}
		head := nodes[p.Start]
		if head.PhraseAcc < 0 {
			return nil, &njd.CompileError{Phrase: pi, Node: p.Start, Reason: "accent type unset"}
		}
		if head.PhraseAcc > p.MoraSize {
			return nil, &njd.CompileError{Phrase: pi, Node: p.Start, Reason: "accent nucleus outside phrase"}
		}

		if len(u.breaths) == 0 || pending || p.BreathStart {
			if len(u.breaths) > 0 {
				u.units = append(u.units, boundary(phonPau))
			}
			u.breaths = append(u.breaths, breath{firstPhrase: len(u.phrases), firstMora: u.moras})
			pending = false
		}
		bi := len(u.breaths) - 1
		bg := &u.breaths[bi]

		ph := phrase{
			acc:           head.PhraseAcc,
			interrogative: p.Interrogative,
			breath:        bi,
			inBreath:      bg.phrases,
			moraInBreath:  bg.moras,
			index:         len(u.phrases),
		}
		for ni := p.Start; ni < p.End; ni++ {
			n := nodes[ni]
			if !n.Resolved() {
				return nil, &njd.CompileError{Phrase: pi, Node: ni, Reason: "pronunciation unresolved"}
			}
			if njd.CountMoras(n.Moras) != n.MoraSize {
				return nil, &njd.CompileError{Phrase: pi, Node: ni, Reason: "mora count mismatch"}
			}
			if n.IsSilent() || n.IsPause() {
				continue
			}
			u.words = append(u.words, word{
				pos:   posCode(n),
				ctype: prefixCode(ctypeCodes, n.CType),
				cform: prefixCode(cformCodes, n.CForm),
			})
			for _, m := range n.Moras {
				if m.IsPause() {
					continue
				}
				if m.IsElongation() {
					return nil, &njd.CompileError{Phrase: pi, Node: ni, Reason: "unresolved elongation mark"}
				}
				ph.moras++
				for _, sym := range phonemes(m) {
					u.units = append(u.units, unit{
						symbol:    sym,
						mora:      ph.moras,
						curWord:   len(u.words) - 1,
						curPhrase: ph.index,
						curBreath: bi,
					})
				}
			}
		}
		if ph.moras != p.MoraSize {
			return nil, &njd.CompileError{Phrase: pi, Node: -1, Reason: "phrase mora count mismatch"}
		}
		u.phrases = append(u.phrases, ph)
		bg.phrases++
		bg.moras += ph.moras
		u.moras += ph.moras
	}
	// An utterance of symbols only is the two silence labels.
	u.units = append(u.units, boundary(phonSil))
	u.link()
	return u, nil
}

func boundary(symbol string) unit {
	return unit{symbol: symbol, curWord: -1, curPhrase: -1, curBreath: -1}
}

func phonemes(m njd.Mora) []string {
	v := m.Vowel
	if m.Unvoiced && m.IsVowel() {
		v = strings.ToUpper(v)
	}
	if m.Consonant == "" {
		return []string{v}
	}
	return []string{m.Consonant, v}
}

// link fills the previous and next word, phrase and breath group of every
// unit. Sounding units are numbered in order, so only sil and pau need a
// scan.
func (u *utterance) link() {
	w, p, b := -1, -1, -1
	for i := range u.units {
		x := &u.units[i]
		if x.curWord >= 0 {
			w, p, b = x.curWord, x.curPhrase, x.curBreath
			x.prevWord, x.prevPhrase, x.prevBreath = w-1, p-1, b-1
			x.nextWord = next(w, len(u.words))
			x.nextPhrase = next(p, len(u.phrases))
			x.nextBreath = next(b, len(u.breaths))
			continue
		}
		x.prevWord, x.prevPhrase, x.prevBreath = w, p, b
		x.nextWord = next(w, len(u.words))
		x.nextPhrase = next(p, len(u.phrases))
		x.nextBreath = next(b, len(u.breaths))
	}
}

func next(i, n int) int {
	if i+1 >= n {
		return -1
	}
	return i + 1
}

func (u *utterance) symbol(i int) string {
	if i < 0 || i >= len(u.units) {
		return na
	}
	return u.units[i].symbol
}

func (u *utterance) label(i int) string {
	x := u.units[i]
	var b strings.Builder
	fmt.Fprintf(&b, "%s^%s-%s+%s=%s", u.symbol(i-2), u.symbol(i-1), x.symbol, u.symbol(i+1), u.symbol(i+2))

	// A: mora position relative to the nucleus, forward, backward.
	if x.curPhrase >= 0 {
		p := u.phrases[x.curPhrase]
		acc := p.acc
		if acc == 0 {
			acc = p.moras
		}
		fmt.Fprintf(&b, "/A:%d+%d+%d", x.mora-acc, x.mora, p.moras-x.mora+1)
	} else {
		b.WriteString("/A:xx+xx+xx")
	}

	pw, cw, nw := u.wordAt(x.prevWord), u.wordAt(x.curWord), u.wordAt(x.nextWord)
	fmt.Fprintf(&b, "/B:%s-%s_%s", pw.pos, pw.ctype, pw.cform)
	fmt.Fprintf(&b, "/C:%s_%s+%s", cw.pos, cw.ctype, cw.cform)
	fmt.Fprintf(&b, "/D:%s+%s_%s", nw.pos, nw.ctype, nw.cform)

	sounding := x.curPhrase >= 0
	e := u.phraseFields(x.prevPhrase)
	fmt.Fprintf(&b, "/E:%s_%s!%s_xx-%s", e[0], e[1], e[2], u.joined(x.prevPhrase, x.curPhrase, sounding))

	if sounding {
		p := u.phrases[x.curPhrase]
		bg := u.breaths[p.breath]
		fmt.Fprintf(&b, "/F:%d_%d#%s_xx@%d_%d|%d_%d",
			p.moras, p.acc, flag(p.interrogative),
			p.inBreath+1, bg.phrases-p.inBreath,
			p.moraInBreath+1, bg.moras-p.moraInBreath)
	} else {
		b.WriteString("/F:xx_xx#xx_xx@xx_xx|xx_xx")
	}

	g := u.phraseFields(x.nextPhrase)
	fmt.Fprintf(&b, "/G:%s_%s%%%s_xx_%s", g[0], g[1], g[2], u.joined(x.curPhrase, x.nextPhrase, sounding))

	h := u.breathFields(x.prevBreath)
	fmt.Fprintf(&b, "/H:%s_%s", h[0], h[1])

	if sounding {
		p := u.phrases[x.curPhrase]
		bg := u.breaths[p.breath]
		fmt.Fprintf(&b, "/I:%d-%d@%d+%d&%d-%d|%d+%d",
			bg.phrases, bg.moras,
			p.breath+1, len(u.breaths)-p.breath,
			bg.firstPhrase+1, len(u.phrases)-bg.firstPhrase,
			bg.firstMora+1, u.moras-bg.firstMora)
	} else {
		b.WriteString("/I:xx-xx@xx+xx&xx-xx|xx+xx")
	}

	j := u.breathFields(x.nextBreath)
	fmt.Fprintf(&b, "/J:%s_%s", j[0], j[1])

	fmt.Fprintf(&b, "/K:%d+%d-%d", len(u.breaths), len(u.phrases), u.moras)
	return b.String()
}

func (u *utterance) wordAt(i int) word {
	if i < 0 {
		return word{na, na, na}
	}
	return u.words[i]
}

// phraseFields returns mora count, accent type and interrogative flag.
func (u *utterance) phraseFields(i int) [3]string {
	if i < 0 {
		return [3]string{na, na, na}
	}
	p := u.phrases[i]
	return [3]string{strconv.Itoa(p.moras), strconv.Itoa(p.acc), flag(p.interrogative)}
}

func (u *utterance) breathFields(i int) [2]string {
	if i < 0 {
		return [2]string{na, na}
	}
	bg := u.breaths[i]
	return [2]string{strconv.Itoa(bg.phrases), strconv.Itoa(bg.moras)}
}

// joined reports "1" when phrases a and b share a breath group, "0" when a
// pause separates them.
func (u *utterance) joined(a, b int, sounding bool) string {
	if !sounding || a < 0 || b < 0 {
		return na
	}
	if u.phrases[a].breath == u.phrases[b].breath {
		return "1"
	}
	return "0"
}

func flag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
