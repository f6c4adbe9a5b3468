package label

import (
	"errors"
	"strings"
	"testing"

	"github.com/example/go-jtalk/internal/njd"
)

func node(surface, pos, pron string, phraseStart bool, phraseAcc int) *njd.Node {
	n := &njd.Node{
		Surface:     surface,
		POS:         pos,
		POSGroup1:   njd.Unknown,
		CType:       njd.Unknown,
		CForm:       njd.Unknown,
		PhraseStart: phraseStart,
		PhraseAcc:   phraseAcc,
	}
	n.SetPron(pron)
	return n
}

func centers(labels []string) []string {
	out := make([]string, len(labels))
	for i, l := range labels {
		cur := l[strings.Index(l, "-")+1 : strings.Index(l, "+")]
		out[i] = cur
	}
	return out
}

func TestCompile_SingleMorpheme(t *testing.T) {
	s := njd.NewStore([]*njd.Node{node("雨", njd.POSNoun, "アメ", true, 1)})
	labels, err := Compile(s)
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	want := []string{
		"xx^xx-sil+a=m/A:xx+xx+xx/B:xx-xx_xx/C:xx_xx+xx/D:02+xx_xx/E:xx_xx!xx_xx-xx/F:xx_xx#xx_xx@xx_xx|xx_xx/G:2_1%0_xx_xx/H:xx_xx/I:xx-xx@xx+xx&xx-xx|xx+xx/J:1_2/K:1+1-2",
		"xx^sil-a+m=e/A:0+1+2/B:xx-xx_xx/C:02_xx+xx/D:xx+xx_xx/E:xx_xx!xx_xx-xx/F:2_1#0_xx@1_1|1_2/G:xx_xx%xx_xx_xx/H:xx_xx/I:1-2@1+1&1-1|1+2/J:xx_xx/K:1+1-2",
		"sil^a-m+e=sil/A:1+2+1/B:xx-xx_xx/C:02_xx+xx/D:xx+xx_xx/E:xx_xx!xx_xx-xx/F:2_1#0_xx@1_1|1_2/G:xx_xx%xx_xx_xx/H:xx_xx/I:1-2@1+1&1-1|1+2/J:xx_xx/K:1+1-2",
		"a^m-e+sil=xx/A:1+2+1/B:xx-xx_xx/C:02_xx+xx/D:xx+xx_xx/E:xx_xx!xx_xx-xx/F:2_1#0_xx@1_1|1_2/G:xx_xx%xx_xx_xx/H:xx_xx/I:1-2@1+1&1-1|1+2/J:xx_xx/K:1+1-2",
		"m^e-sil+xx=xx/A:xx+xx+xx/B:02-xx_xx/C:xx_xx+xx/D:xx+xx_xx/E:2_1!0_xx-xx/F:xx_xx#xx_xx@xx_xx|xx_xx/G:xx_xx%xx_xx_xx/H:1_2/I:xx-xx@xx+xx&xx-xx|xx+xx/J:xx_xx/K:1+1-2",
	}
	if len(labels) != len(want) {
		t.Fatalf("got %d labels; want %d:\n%s", len(labels), len(want), strings.Join(labels, "\n"))
	}
	for i := range want {
		if labels[i] != want[i] {
			t.Errorf("label %d:\n got %s\nwant %s", i, labels[i], want[i])
		}
	}
}

func TestCompile_BreathGroupsAndDevoicing(t *testing.T) {
	s := njd.NewStore([]*njd.Node{
		node("北", njd.POSNoun, "キタ", true, 0),
		node("、", njd.POSSymbol, njd.PauseMarker, true, 0),
		node("雨", njd.POSNoun, "アメ", true, 1),
	})
	s.Node(0).Moras[0].Unvoiced = true
	s.Node(2).BreathStart = true

	labels, err := Compile(s)
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	got := strings.Join(centers(labels), " ")
	if want := "sil k I t a pau a m e sil"; got != want {
		t.Fatalf("phonemes = %q; want %q", got, want)
	}

	pau := labels[5]
	for _, part := range []string{"/A:xx+xx+xx/", "/B:02-xx_xx/", "/D:02+xx_xx/", "/E:2_0!0_xx-xx/", "/G:2_1%0_xx_xx/", "/H:1_2/", "/J:1_2/", "/K:2+2-4"} {
		if !strings.Contains(pau, part) {
			t.Errorf("pau label %s missing %s", pau, part)
		}
	}

	second := labels[6]
	for _, part := range []string{"/A:0+1+2/", "/E:2_0!0_xx-0/", "/I:1-2@2+1&2-1|3+2/", "/H:1_2/", "/J:xx_xx/"} {
		if !strings.Contains(second, part) {
			t.Errorf("label %s missing %s", second, part)
		}
	}

	first := labels[1]
	if !strings.Contains(first, "/A:-1+1+2/") || !strings.Contains(first, "/G:2_1%0_xx_0/") {
		t.Errorf("first phrase label %s: flat accent or pause flag wrong", first)
	}
}

func TestCompile_JoinedPhrases(t *testing.T) {
	s := njd.NewStore([]*njd.Node{
		node("雨", njd.POSNoun, "アメ", true, 1),
		node("降る", njd.POSVerb, "フル", true, 1),
	})
	labels, err := Compile(s)
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	// f of フル
	l := labels[4]
	for _, part := range []string{"/B:02-xx_xx/", "/C:20_xx+xx/", "/E:2_1!0_xx-1/", "/F:2_1#0_xx@2_1|3_2/", "/I:2-4@1+1&1-2|1+4/"} {
		if !strings.Contains(l, part) {
			t.Errorf("label %s missing %s", l, part)
		}
	}
}

func TestCompile_Interrogative(t *testing.T) {
	s := njd.NewStore([]*njd.Node{
		node("雨", njd.POSNoun, "アメ", true, 1),
		node("？", njd.POSSymbol, njd.PauseMarker, true, 0),
	})
	labels, err := Compile(s)
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	if len(labels) != 5 {
		t.Fatalf("got %d labels; want 5 (trailing pause folds into sil)", len(labels))
	}
	if !strings.Contains(labels[1], "/F:2_1#1_xx@") {
		t.Errorf("label %s not interrogative", labels[1])
	}
}

func TestCompile_Errors(t *testing.T) {
	unset := node("雨", njd.POSNoun, "アメ", true, -1)
	mismatch := node("雨", njd.POSNoun, "アメ", true, 1)
	mismatch.MoraSize = 3
	elong := node("カー", njd.POSNoun, "カー", true, 0)

	tests := []struct {
		name   string
		store  *njd.Store
		phrase int
	}{
		{"empty store", njd.NewStore(nil), -1},
		{"accent unset", njd.NewStore([]*njd.Node{unset}), 0},
		{"mora bookkeeping", njd.NewStore([]*njd.Node{mismatch}), 0},
		{"unresolved elongation", njd.NewStore([]*njd.Node{elong}), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compile(tt.store)
			var ce *njd.CompileError
			if !errors.As(err, &ce) {
				t.Fatalf("Compile() error = %v; want *njd.CompileError", err)
			}
			if ce.Phrase != tt.phrase {
				t.Errorf("Phrase = %d; want %d", ce.Phrase, tt.phrase)
			}
		})
	}
}

func TestCompile_NothingToPronounce(t *testing.T) {
	star := node("☆", njd.POSSymbol, "", true, 0)
	tests := []struct {
		name  string
		nodes []*njd.Node
	}{
		{"pause only", []*njd.Node{node("！", njd.POSSymbol, njd.PauseMarker, true, 0)}},
		{"silent symbol", []*njd.Node{star}},
		{"pauses and symbols", []*njd.Node{
			node("…", njd.POSSymbol, njd.PauseMarker, true, 0),
			node("☆", njd.POSSymbol, "", true, 0),
			node("。", njd.POSSymbol, njd.PauseMarker, true, 0),
		}},
	}
	const rest = "/A:xx+xx+xx/B:xx-xx_xx/C:xx_xx+xx/D:xx+xx_xx/E:xx_xx!xx_xx-xx" +
		"/F:xx_xx#xx_xx@xx_xx|xx_xx/G:xx_xx%xx_xx_xx/H:xx_xx" +
		"/I:xx-xx@xx+xx&xx-xx|xx+xx/J:xx_xx/K:0+0-0"
	want := []string{"xx^xx-sil+sil=xx" + rest, "xx^sil-sil+xx=xx" + rest}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			labels, err := Compile(njd.NewStore(tt.nodes))
			if err != nil {
				t.Fatalf("Compile() error = %v", err)
			}
			if len(labels) != len(want) {
				t.Fatalf("got %d labels; want %d:\n%s", len(labels), len(want), strings.Join(labels, "\n"))
			}
			for i := range want {
				if labels[i] != want[i] {
					t.Errorf("label %d:\n got %s\nwant %s", i, labels[i], want[i])
				}
			}
		})
	}
}
