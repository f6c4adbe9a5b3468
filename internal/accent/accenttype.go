package accent

import (
	"strconv"
	"strings"

	"github.com/example/go-jtalk/internal/njd"
)

const stageType = "accent_type"

// ruleFunc returns the phrase accent after attaching cur. acc is the accent
// so far and before the mora count of the phrase preceding cur.
type ruleFunc func(acc, before, n int, cur *njd.Node) int

// ruleKinds is the chain rule table. C rules join content words, F rules
// attach function words, P rules are carried by a prefix and applied at the
// word after it.
var ruleKinds = map[string]ruleFunc{
	"C1": func(acc, before, _ int, cur *njd.Node) int {
		if cur.Acc > 0 {
			return before + cur.Acc
		}
		return acc
	},
	"C2": func(_, before, _ int, _ *njd.Node) int { return before + 1 },
	"C3": func(_, before, _ int, _ *njd.Node) int { return before },
	"C4": func(int, int, int, *njd.Node) int { return 0 },
	"C5": func(acc, _, _ int, _ *njd.Node) int { return acc },

	"F1": func(acc, _, _ int, _ *njd.Node) int { return acc },
	"F2": func(acc, before, n int, _ *njd.Node) int {
		if acc == 0 {
			return before + n
		}
		return acc
	},
	"F3": func(acc, before, n int, _ *njd.Node) int {
		if acc != 0 {
			return before + n
		}
		return acc
	},
	"F4": func(_, before, n int, _ *njd.Node) int { return before + n },
	"F5": func(int, int, int, *njd.Node) int { return 0 },
	"F6": func(acc, before, n int, _ *njd.Node) int {
		if acc == 0 {
			return before + n
		}
		return before
	},

	"P1": func(_, before, _ int, cur *njd.Node) int {
		if cur.Acc > 0 {
			return before + cur.Acc
		}
		return 0
	},
	"P2": func(_, before, _ int, cur *njd.Node) int {
		if cur.Acc > 0 {
			return before + cur.Acc
		}
		return before + 1
	},
	"P4": func(acc, before, _ int, cur *njd.Node) int {
		if cur.Acc > 0 {
			return before + cur.Acc
		}
		return acc
	},
	"P6": func(int, int, int, *njd.Node) int { return 0 },
}

// surfaceRules cover frequent auxiliaries that reach the assigner without a
// dictionary chain rule.
var surfaceRules = map[string]string{
	"ます": "F4@1",
	"まし": "F4@1",
	"ませ": "F4@1",
	"です": "F2@1",
	"でし": "F2@1",
}

const (
	defaultContent  = "C1"
	defaultFunction = "F1"
)

// rule is one parsed alternative of a chain rule string.
type rule struct {
	kind string
	n    int
}

// parseRule picks the alternative of raw that applies after a word with
// part of speech prevPOS. Alternatives are separated by '/', and may carry
// a selector ("動詞%F2@1"); an alternative without one matches anything.
func parseRule(raw, prevPOS string) (rule, bool) {
	if raw == "" || raw == njd.Unknown {
		return rule{}, false
	}
	var fallback string
	for _, alt := range strings.Split(raw, "/") {
		sel, body, ok := strings.Cut(alt, "%")
		if !ok {
			if fallback == "" {
				fallback = alt
			}
			continue
		}
		if sel == prevPOS {
			return parseKind(body)
		}
	}
	if fallback == "" {
		return rule{}, false
	}
	return parseKind(fallback)
}

func parseKind(s string) (rule, bool) {
	kind, arg, hasArg := strings.Cut(s, "@")
	if _, ok := ruleKinds[kind]; !ok {
		return rule{}, false
	}
	r := rule{kind: kind}
	if hasArg {
		n, err := strconv.Atoi(arg)
		if err != nil {
			return rule{}, false
		}
		r.n = n
	}
	return r, true
}

// SetTypes computes the accent type of every phrase and stores it in the
// phrase head's PhraseAcc. Rule lookups that fail fall back to a default
// rule and are recorded on the store.
func SetTypes(s *njd.Store) error {
	nodes := s.Nodes()
	for _, p := range s.Phrases() {
		head := nodes[p.Start]
		if p.Pause || p.MoraSize == 0 {
			head.PhraseAcc = 0
			continue
		}

		acc := lexicalAcc(s, p.Start, head)
		before := head.MoraSize
		for i := p.Start + 1; i < p.End; i++ {
			cur, prev := nodes[i], nodes[i-1]
			r := ruleFor(s, i, cur, prev)
			acc = ruleKinds[r.kind](acc, before, r.n, withAcc(s, i, cur))
			before += cur.MoraSize
		}
		head.PhraseAcc = clamp(acc, p.MoraSize)
	}
	return nil
}

func ruleFor(s *njd.Store, i int, cur, prev *njd.Node) rule {
	if prev.POS == njd.POSPrefix {
		if r, ok := parseRule(prev.ChainRule, ""); ok && strings.HasPrefix(r.kind, "P") {
			return r
		}
	}
	if r, ok := parseRule(cur.ChainRule, prev.POS); ok {
		return r
	}
	if raw, ok := surfaceRules[cur.Surface]; ok && cur.POS == njd.POSAuxVerb {
		r, _ := parseKind(raw)
		return r
	}
	def := defaultContent
	if cur.IsFunctionWord() {
		def = defaultFunction
	}
	if cur.ChainRule != njd.Unknown && cur.ChainRule != "" {
		s.Recover(&njd.RuleLookupError{Stage: stageType, Index: i, Surface: cur.Surface, Key: cur.ChainRule, Fallback: def})
	}
	r, _ := parseKind(def)
	return r
}

func lexicalAcc(s *njd.Store, i int, n *njd.Node) int {
	if n.Acc == njd.AccUnknown {
		if !n.IsFunctionWord() {
			s.Recover(&njd.RuleLookupError{Stage: stageType, Index: i, Surface: n.Surface, Key: "acc", Fallback: "0"})
		}
		return 0
	}
	return n.Acc
}

// withAcc returns n itself when its lexical accent is known, otherwise a
// flat copy for the rule to read.
func withAcc(s *njd.Store, i int, n *njd.Node) *njd.Node {
	if n.Acc != njd.AccUnknown {
		return n
	}
	c := *n
	c.Acc = lexicalAcc(s, i, n)
	return &c
}

func clamp(acc, moraSize int) int {
	switch {
	case acc < 0:
		return 0
	case acc > moraSize:
		return moraSize
	}
	return acc
}
