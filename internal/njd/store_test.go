package njd

import "testing"

func newNode(surface, pron string, phraseStart bool) *Node {
	n := &Node{Surface: surface, POS: POSNoun, PhraseStart: phraseStart, PhraseAcc: -1}
	n.SetPron(pron)
	return n
}

func TestPhrases_PartitionStore(t *testing.T) {
	s := NewStore([]*Node{
		newNode("今日", "キョー", true),
		newNode("は", "ワ", false),
		newNode("、", PauseMarker, true),
		newNode("雨", "アメ", true),
		newNode("です", "デス", false),
	})
	s.Node(2).BreathStart = false
	s.Node(3).BreathStart = true

	phrases := s.Phrases()
	if len(phrases) != 3 {
		t.Fatalf("len(Phrases) = %d; want 3", len(phrases))
	}

	next := 0
	for i, p := range phrases {
		if p.Start != next {
			t.Errorf("phrase %d starts at %d; want %d", i, p.Start, next)
		}
		if p.Len() < 1 {
			t.Errorf("phrase %d is empty", i)
		}
		next = p.End
	}
	if next != s.Len() {
		t.Errorf("phrases end at %d; want %d", next, s.Len())
	}

	if phrases[0].MoraSize != 3 || phrases[2].MoraSize != 4 {
		t.Errorf("mora sizes = %d, %d; want 3, 4", phrases[0].MoraSize, phrases[2].MoraSize)
	}
	if !phrases[1].Pause || phrases[0].Pause {
		t.Error("pause flag wrong")
	}
	if !phrases[0].BreathStart || !phrases[2].BreathStart {
		t.Error("breath group starts not carried onto phrases")
	}
}

func TestPhrases_FirstNodeAlwaysOpens(t *testing.T) {
	s := NewStore([]*Node{newNode("が", "ガ", false)})
	if got := len(s.Phrases()); got != 1 {
		t.Errorf("len(Phrases) = %d; want 1", got)
	}
}

func TestPhrase_Nucleus(t *testing.T) {
	if _, ok := (Phrase{Acc: 0}).Nucleus(); ok {
		t.Error("flat phrase reported a nucleus")
	}
	if _, ok := (Phrase{Acc: -1}).Nucleus(); ok {
		t.Error("unset phrase reported a nucleus")
	}
	if idx, ok := (Phrase{Acc: 2}).Nucleus(); !ok || idx != 1 {
		t.Errorf("Nucleus() = %d, %v; want 1, true", idx, ok)
	}
}

func TestIdentityRemap(t *testing.T) {
	r := Identity(3)
	for i, sp := range r {
		if sp.Start != i || sp.Len() != 1 {
			t.Errorf("Identity[%d] = %+v", i, sp)
		}
	}
}

func TestNodeIs(t *testing.T) {
	n := &Node{POS: POSNoun, POSGroup1: GroupSuffix, POSGroup2: GroupCounter}
	if !n.Is(POSNoun, GroupSuffix) {
		t.Error("Is(名詞,接尾) = false")
	}
	if !n.Is(POSNoun, "", GroupCounter) {
		t.Error("Is with wildcard = false")
	}
	if n.Is(POSVerb) {
		t.Error("Is(動詞) = true")
	}
}
