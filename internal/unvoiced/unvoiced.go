// Package unvoiced marks vowels that are devoiced in running speech.
package unvoiced

import "github.com/example/go-jtalk/internal/njd"

type class int

const (
	classNone class = iota // no consonant
	classVoiced
	classVoiceless
	classPause // pause or utterance end
)

var voiceless = map[string]bool{
	"k": true, "ky": true, "s": true, "sh": true, "t": true, "ch": true,
	"ts": true, "h": true, "hy": true, "f": true, "p": true, "py": true,
}

// key selects a devoicing decision: the mora's own consonant class, its
// vowel, the class of the next sounding consonant, whether the mora carries
// the accent nucleus, and whether it is the final す of a polite auxiliary.
type key struct {
	own     class
	vowel   string
	next    class
	nucleus bool
	polite  bool
}

var rules = map[key]bool{
	{classVoiceless, njd.VowelI, classVoiceless, false, false}: true,
	{classVoiceless, njd.VowelU, classVoiceless, false, false}: true,
	{classVoiceless, njd.VowelU, classVoiceless, false, true}:  true,
	{classVoiceless, njd.VowelU, classPause, false, true}:      true,
}

var politeAux = map[string]bool{"です": true, "ます": true}

type ref struct {
	node, mora int
	nucleus    bool
	polite     bool
}

// Set recomputes the Unvoiced flag of every mora. A mora directly after a
// devoiced one always stays voiced.
func Set(s *njd.Store) error {
	nodes := s.Nodes()
	refs := collect(s)
	at := func(r ref) *njd.Mora { return &nodes[r.node].Moras[r.mora] }

	prevDevoiced := false
	for i, r := range refs {
		m := at(r)
		m.Unvoiced = false
		if prevDevoiced || m.IsPause() {
			prevDevoiced = false
			continue
		}
		k := key{
			own:     classOf(m.Consonant),
			vowel:   m.Vowel,
			next:    nextClass(refs[i+1:], at),
			nucleus: r.nucleus,
			polite:  r.polite,
		}
		m.Unvoiced = rules[k]
		prevDevoiced = m.Unvoiced
	}
	return nil
}

func collect(s *njd.Store) []ref {
	nodes := s.Nodes()
	var refs []ref
	for _, p := range s.Phrases() {
		pos := 0
		nucleus, hasNucleus := p.Nucleus()
		for ni := p.Start; ni < p.End; ni++ {
			n := nodes[ni]
			polite := n.POS == njd.POSAuxVerb && politeAux[n.Surface]
			for mi, m := range n.Moras {
				refs = append(refs, ref{
					node:    ni,
					mora:    mi,
					nucleus: hasNucleus && !m.IsPause() && pos == nucleus,
					polite:  polite && mi == len(n.Moras)-1 && m.Kana == "ス",
				})
				if !m.IsPause() {
					pos++
				}
			}
		}
	}
	return refs
}

// nextClass classifies the consonant of the next sounding mora. Geminate
// closures are skipped so キップ sees the p.
func nextClass(rest []ref, at func(ref) *njd.Mora) class {
	for _, r := range rest {
		m := at(r)
		switch {
		case m.IsPause():
			return classPause
		case m.Vowel == njd.PhonCl:
			continue
		case m.Consonant == "":
			return classVoiced
		}
		return classOf(m.Consonant)
	}
	return classPause
}

func classOf(consonant string) class {
	switch {
	case consonant == "":
		return classNone
	case voiceless[consonant]:
		return classVoiceless
	}
	return classVoiced
}
