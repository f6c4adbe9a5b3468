// Package longvowel resolves the elongation mark ー into concrete moras.
package longvowel

import "github.com/example/go-jtalk/internal/njd"

type action int

const (
	repeat action = iota // ー becomes a copy of the preceding vowel
	merge                // ー lengthens the preceding mora and disappears
)

var actions = map[string]action{
	njd.VowelA: repeat,
	njd.VowelI: repeat,
	njd.VowelU: repeat,
	njd.VowelE: repeat,
	njd.VowelO: repeat,
	njd.PhonN:  merge,
	njd.PhonCl: merge,
}

// Set rewrites every unresolved ー mora using the mora before it in the
// utterance. An ー with nothing sounding before it in its breath group is
// dropped. Running Set twice gives the same result as running it once.
func Set(s *njd.Store) error {
	var prev *njd.Mora
	for _, n := range s.Nodes() {
		out := n.Moras[:0]
		removed := false
		for _, m := range n.Moras {
			if m.IsPause() {
				prev = nil
				out = append(out, m)
				continue
			}
			if !m.IsElongation() {
				out = append(out, m)
				prev = &out[len(out)-1]
				continue
			}
			act, ok := actions[vowelOf(prev)]
			switch {
			case !ok:
				removed = true
			case act == merge:
				prev.Duration = njd.Long
				removed = true
			default:
				out = append(out, njd.Mora{
					Kana:     m.Kana,
					Vowel:    prev.Vowel,
					Unvoiced: prev.Unvoiced,
					Duration: njd.Long,
				})
				prev = &out[len(out)-1]
			}
		}
		n.Moras = out
		if removed {
			n.Pron = njd.JoinKana(out)
			n.MoraSize = njd.CountMoras(out)
			if n.Acc > n.MoraSize {
				n.Acc = n.MoraSize
			}
		}
	}

	for _, p := range s.Phrases() {
		head := s.Node(p.Start)
		if head.PhraseAcc > p.MoraSize {
			head.PhraseAcc = p.MoraSize
		}
	}
	return nil
}

func vowelOf(m *njd.Mora) string {
	if m == nil {
		return ""
	}
	return m.Vowel
}
