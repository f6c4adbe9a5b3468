package njd

import "unicode/utf8"

// Phoneme symbols shared by the stages and the label compiler.
const (
	VowelA = "a"
	VowelI = "i"
	VowelU = "u"
	VowelE = "e"
	VowelO = "o"

	PhonN     = "N"   // moraic nasal
	PhonCl    = "cl"  // geminate closure
	PhonPause = "pau" // pause between breath groups
	PhonSil   = "sil" // utterance edge silence

	// LongMark is the vowel slot of an elongation mora before the
	// long-vowel normalizer resolves it.
	LongMark = "ー"
)

// Duration is the duration class of a mora.
type Duration int

const (
	Short Duration = iota
	Long
)

// Mora is one timing unit of a pronunciation.
type Mora struct {
	Kana      string
	Consonant string
	Vowel     string
	Unvoiced  bool
	Duration  Duration
}

// IsPause reports whether m is a pause mora.
func (m Mora) IsPause() bool { return m.Vowel == PhonPause }

// IsElongation reports whether m is an unresolved elongation mark.
func (m Mora) IsElongation() bool { return m.Vowel == LongMark }

// IsVowel reports whether the mora ends in a plain vowel.
func (m Mora) IsVowel() bool {
	switch m.Vowel {
	case VowelA, VowelI, VowelU, VowelE, VowelO:
		return true
	}
	return false
}

// Phonemes returns the phoneme symbols of m in order.
func (m Mora) Phonemes() []string {
	if m.Consonant == "" {
		return []string{m.Vowel}
	}
	return []string{m.Consonant, m.Vowel}
}

type kanaEntry struct {
	consonant string
	vowel     string
}

// kanaTable maps katakana to consonant/vowel pairs. Two-rune entries (yoon
// and loanword combinations) are matched before single runes.
var kanaTable = map[string]kanaEntry{
	"ア": {"", VowelA}, "イ": {"", VowelI}, "ウ": {"", VowelU}, "エ": {"", VowelE}, "オ": {"", VowelO},
	"カ": {"k", VowelA}, "キ": {"k", VowelI}, "ク": {"k", VowelU}, "ケ": {"k", VowelE}, "コ": {"k", VowelO},
	"ガ": {"g", VowelA}, "ギ": {"g", VowelI}, "グ": {"g", VowelU}, "ゲ": {"g", VowelE}, "ゴ": {"g", VowelO},
	"サ": {"s", VowelA}, "シ": {"sh", VowelI}, "ス": {"s", VowelU}, "セ": {"s", VowelE}, "ソ": {"s", VowelO},
	"ザ": {"z", VowelA}, "ジ": {"j", VowelI}, "ズ": {"z", VowelU}, "ゼ": {"z", VowelE}, "ゾ": {"z", VowelO},
	"タ": {"t", VowelA}, "チ": {"ch", VowelI}, "ツ": {"ts", VowelU}, "テ": {"t", VowelE}, "ト": {"t", VowelO},
	"ダ": {"d", VowelA}, "ヂ": {"j", VowelI}, "ヅ": {"z", VowelU}, "デ": {"d", VowelE}, "ド": {"d", VowelO},
	"ナ": {"n", VowelA}, "ニ": {"n", VowelI}, "ヌ": {"n", VowelU}, "ネ": {"n", VowelE}, "ノ": {"n", VowelO},
	"ハ": {"h", VowelA}, "ヒ": {"h", VowelI}, "フ": {"f", VowelU}, "ヘ": {"h", VowelE}, "ホ": {"h", VowelO},
	"バ": {"b", VowelA}, "ビ": {"b", VowelI}, "ブ": {"b", VowelU}, "ベ": {"b", VowelE}, "ボ": {"b", VowelO},
	"パ": {"p", VowelA}, "ピ": {"p", VowelI}, "プ": {"p", VowelU}, "ペ": {"p", VowelE}, "ポ": {"p", VowelO},
	"マ": {"m", VowelA}, "ミ": {"m", VowelI}, "ム": {"m", VowelU}, "メ": {"m", VowelE}, "モ": {"m", VowelO},
	"ヤ": {"y", VowelA}, "ユ": {"y", VowelU}, "ヨ": {"y", VowelO},
	"ラ": {"r", VowelA}, "リ": {"r", VowelI}, "ル": {"r", VowelU}, "レ": {"r", VowelE}, "ロ": {"r", VowelO},
	"ワ": {"w", VowelA}, "ヰ": {"", VowelI}, "ヱ": {"", VowelE}, "ヲ": {"", VowelO},
	"ヴ": {"v", VowelU},
	"ァ": {"", VowelA}, "ィ": {"", VowelI}, "ゥ": {"", VowelU}, "ェ": {"", VowelE}, "ォ": {"", VowelO},
	"ャ": {"y", VowelA}, "ュ": {"y", VowelU}, "ョ": {"y", VowelO}, "ヮ": {"w", VowelA},
	"ン": {"", PhonN}, "ッ": {"", PhonCl}, "ー": {"", LongMark},
	PauseMarker: {"", PhonPause},

	"キャ": {"ky", VowelA}, "キュ": {"ky", VowelU}, "キェ": {"ky", VowelE}, "キョ": {"ky", VowelO},
	"ギャ": {"gy", VowelA}, "ギュ": {"gy", VowelU}, "ギェ": {"gy", VowelE}, "ギョ": {"gy", VowelO},
	"シャ": {"sh", VowelA}, "シュ": {"sh", VowelU}, "シェ": {"sh", VowelE}, "ショ": {"sh", VowelO},
	"ジャ": {"j", VowelA}, "ジュ": {"j", VowelU}, "ジェ": {"j", VowelE}, "ジョ": {"j", VowelO},
	"ヂャ": {"j", VowelA}, "ヂュ": {"j", VowelU}, "ヂェ": {"j", VowelE}, "ヂョ": {"j", VowelO},
	"チャ": {"ch", VowelA}, "チュ": {"ch", VowelU}, "チェ": {"ch", VowelE}, "チョ": {"ch", VowelO},
	"ニャ": {"ny", VowelA}, "ニュ": {"ny", VowelU}, "ニェ": {"ny", VowelE}, "ニョ": {"ny", VowelO},
	"ヒャ": {"hy", VowelA}, "ヒュ": {"hy", VowelU}, "ヒェ": {"hy", VowelE}, "ヒョ": {"hy", VowelO},
	"ビャ": {"by", VowelA}, "ビュ": {"by", VowelU}, "ビェ": {"by", VowelE}, "ビョ": {"by", VowelO},
	"ピャ": {"py", VowelA}, "ピュ": {"py", VowelU}, "ピェ": {"py", VowelE}, "ピョ": {"py", VowelO},
	"ミャ": {"my", VowelA}, "ミュ": {"my", VowelU}, "ミェ": {"my", VowelE}, "ミョ": {"my", VowelO},
	"リャ": {"ry", VowelA}, "リュ": {"ry", VowelU}, "リェ": {"ry", VowelE}, "リョ": {"ry", VowelO},
	"ティ": {"t", VowelI}, "トゥ": {"t", VowelU}, "テュ": {"ty", VowelU},
	"ディ": {"d", VowelI}, "ドゥ": {"d", VowelU}, "デュ": {"dy", VowelU},
	"ファ": {"f", VowelA}, "フィ": {"f", VowelI}, "フェ": {"f", VowelE}, "フォ": {"f", VowelO}, "フュ": {"hy", VowelU},
	"ウィ": {"w", VowelI}, "ウェ": {"w", VowelE}, "ウォ": {"w", VowelO},
	"ヴァ": {"v", VowelA}, "ヴィ": {"v", VowelI}, "ヴェ": {"v", VowelE}, "ヴォ": {"v", VowelO}, "ヴュ": {"by", VowelU},
	"ツァ": {"ts", VowelA}, "ツィ": {"ts", VowelI}, "ツェ": {"ts", VowelE}, "ツォ": {"ts", VowelO},
	"スィ": {"s", VowelI}, "ズィ": {"z", VowelI}, "イェ": {"y", VowelE},
	"クァ": {"kw", VowelA}, "グァ": {"gw", VowelA},
}

// SplitMoras decomposes a katakana pronunciation into moras. Runes the
// table does not know are skipped.
func SplitMoras(pron string) []Mora {
	if pron == "" || pron == Unknown {
		return nil
	}
	var out []Mora
	for i := 0; i < len(pron); {
		_, size := utf8.DecodeRuneInString(pron[i:])
		if i+size < len(pron) {
			_, next := utf8.DecodeRuneInString(pron[i+size:])
			pair := pron[i : i+size+next]
			if e, ok := kanaTable[pair]; ok {
				out = append(out, Mora{Kana: pair, Consonant: e.consonant, Vowel: e.vowel})
				i += size + next
				continue
			}
		}
		single := pron[i : i+size]
		if e, ok := kanaTable[single]; ok {
			out = append(out, Mora{Kana: single, Consonant: e.consonant, Vowel: e.vowel})
		}
		i += size
	}
	return out
}

// CountMoras returns the number of spoken moras, excluding pauses.
func CountMoras(moras []Mora) int {
	n := 0
	for _, m := range moras {
		if !m.IsPause() {
			n++
		}
	}
	return n
}

// JoinKana concatenates the kana of moras.
func JoinKana(moras []Mora) string {
	var b []byte
	for _, m := range moras {
		b = append(b, m.Kana...)
	}
	return string(b)
}

// IsKatakana reports whether s consists of katakana (including the
// elongation mark) only.
func IsKatakana(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if (r < 'ァ' || r > 'ヺ') && r != 'ー' {
			return false
		}
	}
	return true
}

// IsKana reports whether s consists of hiragana or katakana only.
func IsKana(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if (r < 'ぁ' || r > 'ゖ') && (r < 'ァ' || r > 'ヺ') && r != 'ー' {
			return false
		}
	}
	return true
}

// ToKatakana converts hiragana in s to katakana.
func ToKatakana(s string) string {
	runes := []rune(s)
	for i, r := range runes {
		if r >= 'ぁ' && r <= 'ゖ' {
			runes[i] = r + 0x60
		}
	}
	return string(runes)
}
