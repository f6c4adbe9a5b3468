package njd

// Store is the ordered feature store for one utterance. Stages receive it,
// rewrite it in place and hand it back; nothing in it is shared across
// utterances.
type Store struct {
	nodes     []*Node
	recovered []*RuleLookupError
}

// NewStore wraps nodes in a store. The slice is owned by the store afterwards.
func NewStore(nodes []*Node) *Store {
	return &Store{nodes: nodes}
}

// Len returns the number of nodes.
func (s *Store) Len() int { return len(s.nodes) }

// Node returns the i-th node.
func (s *Store) Node(i int) *Node { return s.nodes[i] }

// Nodes returns the node slice. Callers may mutate the nodes but must use
// Replace to change the sequence itself.
func (s *Store) Nodes() []*Node { return s.nodes }

// Replace swaps in a rebuilt node sequence.
func (s *Store) Replace(nodes []*Node) { s.nodes = nodes }

// Recover records a rule lookup that a stage answered with a fallback.
func (s *Store) Recover(e *RuleLookupError) { s.recovered = append(s.recovered, e) }

// TakeRecovered returns the lookups recorded since the previous call.
func (s *Store) TakeRecovered() []*RuleLookupError {
	out := s.recovered
	s.recovered = nil
	return out
}

// Prev returns the node before i, or nil.
func (s *Store) Prev(i int) *Node {
	if i <= 0 {
		return nil
	}
	return s.nodes[i-1]
}

// Next returns the node after i, or nil.
func (s *Store) Next(i int) *Node {
	if i+1 >= len(s.nodes) {
		return nil
	}
	return s.nodes[i+1]
}

// Span is a half-open node index range.
type Span struct {
	Start int
	End   int
}

// Len returns the number of nodes in the span.
func (sp Span) Len() int { return sp.End - sp.Start }

// Remap records, for every node index before a rebuild, the range of node
// indices that replaced it.
type Remap []Span

// Identity returns the remap of an unchanged sequence of n nodes.
func Identity(n int) Remap {
	r := make(Remap, n)
	for i := range r {
		r[i] = Span{Start: i, End: i + 1}
	}
	return r
}

// Phrase is one accent phrase: a contiguous run of nodes.
type Phrase struct {
	Span
	// Acc is the 1-based mora of the pitch fall; 0 means flat, -1 unset.
	Acc      int
	MoraSize int
	// Pause is true for phrases made only of pause nodes.
	Pause         bool
	BreathStart   bool
	Interrogative bool
}

// Nucleus returns the 0-based mora index of the accent nucleus.
func (p Phrase) Nucleus() (int, bool) {
	if p.Acc <= 0 {
		return 0, false
	}
	return p.Acc - 1, true
}

// Phrases groups the nodes into accent phrases using the PhraseStart flags.
// The first node always opens a phrase, so the result partitions the store.
func (s *Store) Phrases() []Phrase {
	var out []Phrase
	for i, n := range s.nodes {
		if i == 0 || n.PhraseStart {
			out = append(out, Phrase{
				Span:        Span{Start: i, End: i + 1},
				Acc:         n.PhraseAcc,
				Pause:       true,
				BreathStart: i == 0 || n.BreathStart,
			})
		} else {
			out[len(out)-1].End = i + 1
		}
		p := &out[len(out)-1]
		p.MoraSize += n.MoraSize
		if !n.IsPause() {
			p.Pause = false
		}
	}
	for i := range out {
		last := s.nodes[out[i].End-1]
		if last.Surface == "？" || last.Surface == "?" {
			out[i].Interrogative = true
			if i > 0 && out[i].Pause {
				out[i-1].Interrogative = true
			}
		}
	}
	return out
}
