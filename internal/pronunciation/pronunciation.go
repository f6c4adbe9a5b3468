// Package pronunciation resolves the katakana pronunciation of every node in
// a feature store and derives its moras.
package pronunciation

import (
	"strings"
	"unicode"

	"github.com/example/go-jtalk/internal/njd"
)

const stage = "pronunciation"

// pauseSymbols become a pause in speech.
var pauseSymbols = map[string]bool{
	"、": true, "。": true, "，": true, "．": true, "！": true, "？": true,
	"：": true, "；": true, "…": true, "‥": true, "・": true,
	",": true, ".": true, "!": true, "?": true, ":": true, ";": true,
}

// symbolReadings gives spoken forms for symbols that are read aloud.
var symbolReadings = map[string]string{
	"％": "パーセント", "%": "パーセント",
	"＋": "プラス", "+": "プラス",
	"＝": "イコール", "=": "イコール",
	"＆": "アンド", "&": "アンド",
	"＠": "アット", "@": "アット",
	"＃": "シャープ", "#": "シャープ",
	"￥": "エン", "¥": "エン",
	"＄": "ドル", "$": "ドル",
	"℃": "ド",
}

// spellings reads single latin letters and digits.
var spellings = map[rune]string{
	'A': "エー", 'B': "ビー", 'C': "シー", 'D': "ディー", 'E': "イー", 'F': "エフ",
	'G': "ジー", 'H': "エイチ", 'I': "アイ", 'J': "ジェー", 'K': "ケー", 'L': "エル",
	'M': "エム", 'N': "エヌ", 'O': "オー", 'P': "ピー", 'Q': "キュー", 'R': "アール",
	'S': "エス", 'T': "ティー", 'U': "ユー", 'V': "ブイ", 'W': "ダブリュー", 'X': "エックス",
	'Y': "ワイ", 'Z': "ゼット",
	'0': "ゼロ", '1': "イチ", '2': "ニ", '3': "サン", '4': "ヨン",
	'5': "ゴ", '6': "ロク", '7': "ナナ", '8': "ハチ", '9': "キュー",
}

type particleKey struct {
	pos     string
	group1  string
	surface string
}

// particleReadings are fixed readings of particles, whatever the dictionary
// reading says.
var particleReadings = map[particleKey]string{
	{njd.POSParticle, njd.GroupBinding, "は"}: "ワ",
	{njd.POSParticle, njd.GroupCase, "へ"}:    "エ",
	{njd.POSParticle, njd.GroupCase, "を"}:    "オ",
}

// unreadable is the literal reading of a character with no known reading.
const unreadable = "モジ"

// Set fills the pronunciation and moras of every node. It never removes or
// reorders nodes. Symbols with no spoken form become silent; words with no
// reading are read out character by character.
func Set(s *njd.Store) error {
	nodes := s.Nodes()
	for i, n := range nodes {
		n.SetPron(resolve(s, i, n))
	}
	for i, n := range nodes {
		applyRewrites(i, n, s.Prev(i))
	}
	return nil
}

func resolve(s *njd.Store, i int, n *njd.Node) string {
	if n.POS == njd.POSSymbol || isPunctuation(n.Surface) {
		if pauseSymbols[n.Surface] {
			return njd.PauseMarker
		}
		if r, ok := symbolReadings[n.Surface]; ok {
			return r
		}
		return ""
	}
	if usable(n.Pron) {
		return normalizeKana(n.Pron)
	}
	if usable(n.Read) {
		return normalizeKana(n.Read)
	}
	if njd.IsKana(n.Surface) {
		return normalizeKana(n.Surface)
	}
	if spelled, ok := spell(n.Surface); ok {
		return spelled
	}
	lit := literal(n.Surface)
	s.Recover(&njd.RuleLookupError{Stage: stage, Index: i, Surface: n.Surface, Key: "reading", Fallback: lit})
	return lit
}

func applyRewrites(i int, n, prev *njd.Node) {
	if r, ok := particleReadings[particleKey{n.POS, n.POSGroup1, n.Surface}]; ok {
		n.SetPron(r)
		return
	}
	// Volitional う after an o-final mora is an elongation: ショ+ウ -> ショー.
	if n.POS == njd.POSAuxVerb && (n.Surface == "う" || n.Surface == "ウ") && prev != nil && len(prev.Moras) > 0 {
		if prev.Moras[len(prev.Moras)-1].Vowel == njd.VowelO {
			n.SetPron(njd.LongMark)
		}
	}
}

func usable(s string) bool {
	return s != "" && s != njd.Unknown && njd.IsKana(s)
}

func normalizeKana(s string) string {
	s = njd.ToKatakana(s)
	return strings.ReplaceAll(s, "ヲ", "オ")
}

func spell(surface string) (string, bool) {
	var b strings.Builder
	for _, r := range surface {
		r = narrow(r)
		out, ok := spellings[unicode.ToUpper(r)]
		if !ok {
			return "", false
		}
		b.WriteString(out)
	}
	return b.String(), b.Len() > 0
}

// literal reads surface one character at a time: kana as written, latin
// letters and digits spelled, any other letter or number as unreadable.
// Marks and symbols inside the word are skipped.
func literal(surface string) string {
	var b strings.Builder
	for _, r := range surface {
		if njd.IsKana(string(r)) {
			b.WriteString(normalizeKana(string(r)))
			continue
		}
		if out, ok := spellings[unicode.ToUpper(narrow(r))]; ok {
			b.WriteString(out)
			continue
		}
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			b.WriteString(unreadable)
		}
	}
	return b.String()
}

// narrow maps full-width ASCII variants to ASCII.
func narrow(r rune) rune {
	if r >= 0xFF01 && r <= 0xFF5E {
		return r - 0xFEE0
	}
	return r
}

func isPunctuation(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsPunct(r) && !unicode.IsSymbol(r) {
			return false
		}
	}
	return true
}
