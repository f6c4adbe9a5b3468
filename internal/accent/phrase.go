// Package accent segments a feature store into accent phrases and assigns
// each phrase its accent type.
package accent

import "github.com/example/go-jtalk/internal/njd"

type predicate func(n *njd.Node) bool

// chainRule decides whether cur continues the accent phrase of prev.
type chainRule struct {
	name string
	prev predicate
	cur  predicate
	join bool
}

func anyNode(*njd.Node) bool { return true }

func pos(tags ...string) predicate {
	return func(n *njd.Node) bool { return n.Is(tags...) }
}

func isBoundary(n *njd.Node) bool {
	return n.IsPause() || n.POS == njd.POSSymbol
}

func isFunctionWord(n *njd.Node) bool { return n.IsFunctionWord() }

func isContentNoun(n *njd.Node) bool {
	return n.POS == njd.POSNoun && !n.IsPause()
}

// phraseRules are tried in order; the first rule whose predicates both hold
// decides. An explicit dictionary chain flag is consulted after the
// boundary rules and before the rest.
var phraseRules = []chainRule{
	{"boundary after", isBoundary, anyNode, false},
	{"boundary before", anyNode, isBoundary, false},
	{"silent", anyNode, (*njd.Node).IsSilent, true},
	{"prefix", pos(njd.POSPrefix), anyNode, true},
	{"function word", anyNode, isFunctionWord, true},
	{"noun suffix", anyNode, pos(njd.POSNoun, njd.GroupSuffix), true},
	{"dependent noun", anyNode, pos(njd.POSNoun, njd.GroupDependent), true},
	{"dependent verb", anyNode, pos(njd.POSVerb, njd.GroupDependent), true},
	{"verb suffix", anyNode, pos(njd.POSVerb, njd.GroupSuffix), true},
	{"dependent adjective", anyNode, pos(njd.POSAdjective, njd.GroupDependent), true},
	{"noun compound", isContentNoun, isContentNoun, true},
}

const structuralRules = 2

// SetPhrases marks PhraseStart and BreathStart on every node in one forward
// pass. A leading node always opens a phrase and a breath group; a pause
// node forms a phrase of its own and the node after it opens a new breath
// group.
func SetPhrases(s *njd.Store) error {
	nodes := s.Nodes()
	for i, n := range nodes {
		n.PhraseAcc = -1
		if i == 0 {
			n.PhraseStart = true
			n.BreathStart = true
			continue
		}
		prev := nodes[i-1]
		n.PhraseStart = !chains(prev, n)
		n.BreathStart = prev.IsPause() && !n.IsPause()
	}
	return nil
}

func chains(prev, cur *njd.Node) bool {
	for i, r := range phraseRules {
		if i == structuralRules {
			switch cur.ChainFlag {
			case njd.ChainJoin:
				return true
			case njd.ChainBreak:
				return false
			}
		}
		if r.prev(prev) && r.cur(cur) {
			return r.join
		}
	}
	return false
}
