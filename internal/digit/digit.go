// Package digit rewrites runs of arabic numerals into their spoken reading.
package digit

import (
	"strconv"
	"strings"

	"github.com/example/go-jtalk/internal/njd"
)

// ruleCompound is the chain rule given to every unit after the first, so the
// rightmost accented unit decides the accent of the number.
const ruleCompound = "C1"

type unit struct {
	word
	src int
}

type digitRef struct {
	d   int
	src int
}

// run is a maximal span of numeral nodes [start, end).
type run struct {
	start, end int
	integer    []digitRef
	fraction   []digitRef
	point      int
}

// Set expands every numeral run in s. The sequence is rebuilt rather than
// spliced, and the returned Remap maps each old node index to the range of
// nodes that replaced it. Non-numeral nodes map to a single node and are
// left untouched, except that a counter directly after a run may take an
// alternate reading.
func Set(s *njd.Store) (njd.Remap, error) {
	nodes := s.Nodes()
	out := make([]*njd.Node, 0, len(nodes))
	remap := make(njd.Remap, len(nodes))

	for i := 0; i < len(nodes); {
		r, ok := scan(nodes, i)
		if !ok {
			remap[i] = njd.Span{Start: len(out), End: len(out) + 1}
			out = append(out, nodes[i])
			i++
			continue
		}

		units := read(r)
		if r.end < len(nodes) && isCounter(nodes[r.end]) {
			units = applyCounter(units, nodes[r.end], value(r))
		}

		k := 0
		for src := r.start; src < r.end; src++ {
			remap[src].Start = len(out)
			for ; k < len(units) && units[k].src == src; k++ {
				out = append(out, newNode(units[k], nodes[r.start], k == 0))
			}
			remap[src].End = len(out)
		}
		i = r.end
	}

	s.Replace(out)
	return remap, nil
}

func scan(nodes []*njd.Node, i int) (run, bool) {
	ds, ok := digits(nodes[i].Surface)
	if !ok {
		return run{}, false
	}
	r := run{start: i, point: -1}
	r.integer = appendRefs(r.integer, ds, i)

	j := i + 1
	for j < len(nodes) {
		if ds, ok := digits(nodes[j].Surface); ok {
			if r.point >= 0 {
				r.fraction = appendRefs(r.fraction, ds, j)
			} else {
				r.integer = appendRefs(r.integer, ds, j)
			}
			j++
			continue
		}
		if j+1 < len(nodes) {
			if _, next := digits(nodes[j+1].Surface); next {
				switch nodes[j].Surface {
				case "，", ",":
					if r.point < 0 {
						j++
						continue
					}
				case "．", ".":
					if r.point < 0 {
						r.point = j
						j++
						continue
					}
				}
			}
		}
		break
	}
	r.end = j
	return r, true
}

func appendRefs(refs []digitRef, ds []int, src int) []digitRef {
	for _, d := range ds {
		refs = append(refs, digitRef{d: d, src: src})
	}
	return refs
}

// digits parses a surface made only of ASCII or full-width digits.
func digits(surface string) ([]int, bool) {
	if surface == "" {
		return nil, false
	}
	var out []int
	for _, r := range surface {
		switch {
		case r >= '0' && r <= '9':
			out = append(out, int(r-'0'))
		case r >= '０' && r <= '９':
			out = append(out, int(r-'０'))
		default:
			return nil, false
		}
	}
	return out, true
}

func read(r run) []unit {
	var units []unit
	if (len(r.integer) > 1 && r.integer[0].d == 0) || len(r.integer) > maxGroupedDigits {
		units = readDigitByDigit(r.integer)
	} else {
		units = readGrouped(r.integer)
	}
	if r.point >= 0 {
		units = append(units, unit{word: wordPoint, src: r.point})
		units = append(units, readDigitByDigit(r.fraction)...)
	}
	return units
}

func readDigitByDigit(refs []digitRef) []unit {
	units := make([]unit, 0, len(refs))
	for _, ref := range refs {
		units = append(units, unit{word: digitWords[ref.d], src: ref.src})
	}
	return units
}

func readGrouped(refs []digitRef) []unit {
	if allZero(refs) {
		return []unit{{word: digitWords[0], src: refs[0].src}}
	}
	var units []unit
	groupHasDigit := false
	for i, ref := range refs {
		pos := len(refs) - 1 - i
		place, large := pos%4, pos/4
		if ref.d != 0 {
			groupHasDigit = true
			units = append(units, readPosition(ref, place, large)...)
		}
		if place == 0 && large > 0 && groupHasDigit {
			lw := largePlaces[large]
			if last := len(units) - 1; last >= 0 {
				if largePlaceGemination[lw.surface][units[last].surface] {
					units[last].pron = geminated(units[last].pron)
				}
			}
			units = append(units, unit{word: lw, src: ref.src})
			groupHasDigit = false
		}
	}
	return units
}

func readPosition(ref digitRef, place, large int) []unit {
	dw := digitWords[ref.d]
	var forms euphonic
	var pw word
	switch place {
	case 0:
		return []unit{{word: dw, src: ref.src}}
	case 1:
		if ref.d == 1 {
			return []unit{{word: wordTen, src: ref.src}}
		}
		return []unit{{word: dw, src: ref.src}, {word: wordTen, src: ref.src}}
	case 2:
		forms, pw = hundredsForms, wordHundred
	default:
		forms, pw = thousandsForms, wordThousand
	}

	f, ok := forms[ref.d]
	if place == 3 && ref.d == 1 && large > 0 {
		f, ok = thousandBeforeLarge, true
	}
	if !ok {
		return []unit{{word: dw, src: ref.src}, {word: pw, src: ref.src}}
	}
	var units []unit
	if f[0] != "" {
		units = append(units, unit{word: word{dw.surface, f[0], dw.acc}, src: ref.src})
	}
	return append(units, unit{word: word{pw.surface, f[1], pw.acc}, src: ref.src})
}

func allZero(refs []digitRef) bool {
	for _, ref := range refs {
		if ref.d != 0 {
			return false
		}
	}
	return true
}

// value is the integer value of r without leading zeros, or "" when r has a
// fractional part.
func value(r run) string {
	if r.point >= 0 {
		return ""
	}
	var b strings.Builder
	for _, ref := range r.integer {
		if b.Len() == 0 && ref.d == 0 {
			continue
		}
		b.WriteString(strconv.Itoa(ref.d))
	}
	if b.Len() == 0 {
		return "0"
	}
	return b.String()
}

func isCounter(n *njd.Node) bool {
	return n.Is(njd.POSNoun, njd.GroupSuffix, njd.GroupCounter) || isKnownCounter(n.Surface)
}

func isKnownCounter(surface string) bool {
	for k := range counterRules {
		if k.counter == surface {
			return true
		}
	}
	for k := range wholeRules {
		if k.counter == surface {
			return true
		}
	}
	return false
}

// applyCounter rewrites the final unit (or, for whole-number rules, the
// entire number) and the counter reading for the counter that follows.
func applyCounter(units []unit, counter *njd.Node, val string) []unit {
	if len(units) == 0 {
		return units
	}
	if rule, ok := wholeRules[counterKey{counter.Surface, val}]; ok {
		var surface strings.Builder
		for _, u := range units {
			surface.WriteString(u.surface)
		}
		units = []unit{{word: word{surface.String(), rule.digit, 0}, src: units[0].src}}
		counter.SetPron(rule.counter)
		return units
	}
	last := len(units) - 1
	rule, ok := counterRules[counterKey{counter.Surface, units[last].surface}]
	if !ok {
		return units
	}
	switch rule.digit {
	case "":
	case geminate:
		units[last].pron = geminated(units[last].pron)
	default:
		units[last].pron = rule.digit
	}
	if rule.counter != "" {
		counter.SetPron(rule.counter)
	}
	return units
}

// geminated replaces the last mora of pron with ッ: イチ -> イッ, ジュー -> ジュッ.
func geminated(pron string) string {
	moras := njd.SplitMoras(pron)
	if len(moras) == 0 {
		return pron
	}
	return njd.JoinKana(moras[:len(moras)-1]) + geminate
}

func newNode(u unit, first *njd.Node, head bool) *njd.Node {
	n := &njd.Node{
		Surface:   u.surface,
		POS:       njd.POSNoun,
		POSGroup1: njd.GroupNumber,
		POSGroup2: njd.Unknown,
		POSGroup3: njd.Unknown,
		CType:     njd.Unknown,
		CForm:     njd.Unknown,
		Orig:      u.surface,
		Read:      u.pron,
		Acc:       u.acc,
		ChainRule: ruleCompound,
		ChainFlag: njd.ChainJoin,
		PhraseAcc: -1,
	}
	if head {
		n.ChainRule = first.ChainRule
		n.ChainFlag = first.ChainFlag
	}
	n.SetPron(u.pron)
	return n
}
