// Package njd holds the linguistic feature store shared by every front-end
// stage: one Node per morpheme, kept in input order for a single utterance.
package njd

import "strings"

// Unknown marks an optional field the tokenizer did not resolve. It is
// distinct from a resolved empty string.
const Unknown = "*"

// AccUnknown marks a node whose lexical accent type was not supplied.
const AccUnknown = -1

// PauseMarker is the pronunciation given to punctuation that becomes a pause.
const PauseMarker = "、"

// Part-of-speech labels used by the rule tables (IPA dictionary tag set).
const (
	POSNoun         = "名詞"
	POSVerb         = "動詞"
	POSAdjective    = "形容詞"
	POSAdverb       = "副詞"
	POSAdnominal    = "連体詞"
	POSConjunction  = "接続詞"
	POSInterjection = "感動詞"
	POSParticle     = "助詞"
	POSAuxVerb      = "助動詞"
	POSPrefix       = "接頭詞"
	POSSymbol       = "記号"
	POSFiller       = "フィラー"
	POSOther        = "その他"

	GroupSuffix      = "接尾"
	GroupNumber      = "数"
	GroupDependent   = "非自立"
	GroupCounter     = "助数詞"
	GroupAdjStem     = "形容動詞語幹"
	GroupSahen       = "サ変接続"
	GroupProperNoun  = "固有名詞"
	GroupBinding     = "係助詞"
	GroupCase        = "格助詞"
	GroupSentenceEnd = "終助詞"
)

// ChainFlag records whether a node continues the accent phrase of its
// predecessor.
type ChainFlag int

const (
	ChainUnset ChainFlag = iota
	ChainBreak
	ChainJoin
)

func (f ChainFlag) String() string {
	switch f {
	case ChainBreak:
		return "0"
	case ChainJoin:
		return "1"
	default:
		return Unknown
	}
}

// Node is one morpheme record. Fields up to Pron come from the tokenizer;
// the rest are filled in by later stages.
type Node struct {
	Surface   string
	POS       string
	POSGroup1 string
	POSGroup2 string
	POSGroup3 string
	CType     string
	CForm     string
	Orig      string
	Read      string
	Pron      string

	// Acc is the lexical accent type (1-based mora of the pitch fall, 0 flat).
	Acc       int
	MoraSize  int
	ChainRule string
	ChainFlag ChainFlag

	// PhraseStart is set by the accent phrase segmenter on the first node of
	// each accent phrase. PhraseAcc is valid on those nodes only.
	PhraseStart bool
	PhraseAcc   int
	BreathStart bool

	Moras []Mora
}

// SetPron replaces the pronunciation and re-derives the mora sequence.
func (n *Node) SetPron(pron string) {
	n.Pron = pron
	n.Moras = SplitMoras(pron)
	n.MoraSize = CountMoras(n.Moras)
}

// Resolved reports whether the pronunciation stage has run on n.
func (n *Node) Resolved() bool {
	return n.Pron != Unknown
}

// IsPause reports whether n stands for a pause rather than spoken moras.
func (n *Node) IsPause() bool {
	return len(n.Moras) > 0 && n.Moras[0].IsPause()
}

// IsSilent reports whether n produces no sound at all.
func (n *Node) IsSilent() bool {
	return len(n.Moras) == 0
}

// Is reports whether the node's POS hierarchy starts with the given tags.
// Empty tags match anything.
func (n *Node) Is(tags ...string) bool {
	fields := [...]string{n.POS, n.POSGroup1, n.POSGroup2, n.POSGroup3}
	for i, tag := range tags {
		if i >= len(fields) {
			return false
		}
		if tag != "" && fields[i] != tag {
			return false
		}
	}
	return true
}

// IsFunctionWord reports whether the node is a particle or auxiliary verb.
func (n *Node) IsFunctionWord() bool {
	return n.POS == POSParticle || n.POS == POSAuxVerb
}

// Clone returns a deep copy of n.
func (n *Node) Clone() *Node {
	c := *n
	c.Moras = append([]Mora(nil), n.Moras...)
	return &c
}

func (n *Node) String() string {
	var b strings.Builder
	b.WriteString(n.Surface)
	for _, f := range []string{n.POS, n.POSGroup1, n.POSGroup2, n.POSGroup3, n.CType, n.CForm, n.Orig, n.Read, n.Pron} {
		b.WriteByte(',')
		b.WriteString(f)
	}
	return b.String()
}
