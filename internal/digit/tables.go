package digit

type word struct {
	surface string
	pron    string
	acc     int
}

var digitWords = [10]word{
	{"〇", "ゼロ", 1},
	{"一", "イチ", 2},
	{"二", "ニ", 1},
	{"三", "サン", 0},
	{"四", "ヨン", 1},
	{"五", "ゴ", 1},
	{"六", "ロク", 2},
	{"七", "ナナ", 1},
	{"八", "ハチ", 2},
	{"九", "キュー", 1},
}

var (
	wordTen      = word{"十", "ジュー", 1}
	wordHundred  = word{"百", "ヒャク", 2}
	wordThousand = word{"千", "セン", 1}
	wordPoint    = word{"点", "テン", 0}
)

// largePlaces are the myriad units, indexed by power of 10000.
var largePlaces = [...]word{
	{},
	{"万", "マン", 1},
	{"億", "オク", 1},
	{"兆", "チョー", 1},
}

// maxGroupedDigits is the longest integer part read with myriad units.
const maxGroupedDigits = 4 * len(largePlaces)

// euphonic gives the (digit, place) readings of a digit in the hundreds or
// thousands position that differ from plain concatenation. An empty digit
// reading drops the digit word.
type euphonic map[int][2]string

var hundredsForms = euphonic{
	1: {"", "ヒャク"},
	3: {"サン", "ビャク"},
	6: {"ロッ", "ピャク"},
	8: {"ハッ", "ピャク"},
}

var thousandsForms = euphonic{
	1: {"", "セン"},
	3: {"サン", "ゼン"},
	8: {"ハッ", "セン"},
}

// thousandBeforeLarge replaces 千 when a myriad unit follows (一千万).
var thousandBeforeLarge = [2]string{"イッ", "セン"}

// geminate in a rule replaces the last mora of the unit reading with ッ.
const geminate = "ッ"

// largePlaceGemination lists, per myriad unit, the preceding units that
// geminate before it (一兆 イッチョー).
var largePlaceGemination = map[string]map[string]bool{
	"兆": {"一": true, "八": true, "十": true, "百": true},
}

type counterRule struct {
	digit   string
	counter string
}

type counterKey struct {
	counter string
	final   string
}

// counterRules apply when a counter follows a number whose final unit has
// the given surface.
var counterRules = map[counterKey]counterRule{
	{"本", "一"}: {geminate, "ポン"}, {"本", "三"}: {"", "ボン"}, {"本", "六"}: {geminate, "ポン"},
	{"本", "八"}: {geminate, "ポン"}, {"本", "十"}: {geminate, "ポン"}, {"本", "百"}: {geminate, "ポン"},
	{"本", "千"}: {"", "ボン"}, {"本", "万"}: {"", "ボン"},

	{"匹", "一"}: {geminate, "ピキ"}, {"匹", "三"}: {"", "ビキ"}, {"匹", "六"}: {geminate, "ピキ"},
	{"匹", "八"}: {geminate, "ピキ"}, {"匹", "十"}: {geminate, "ピキ"}, {"匹", "百"}: {geminate, "ピキ"},
	{"匹", "千"}: {"", "ビキ"},

	{"杯", "一"}: {geminate, "パイ"}, {"杯", "三"}: {"", "バイ"}, {"杯", "六"}: {geminate, "パイ"},
	{"杯", "八"}: {geminate, "パイ"}, {"杯", "十"}: {geminate, "パイ"}, {"杯", "百"}: {geminate, "パイ"},
	{"杯", "千"}: {"", "バイ"},

	{"分", "一"}: {geminate, "プン"}, {"分", "三"}: {"", "プン"}, {"分", "四"}: {"", "プン"},
	{"分", "六"}: {geminate, "プン"}, {"分", "八"}: {geminate, "プン"}, {"分", "十"}: {geminate, "プン"},
	{"分", "百"}: {geminate, "プン"}, {"分", "千"}: {"", "プン"},

	{"個", "一"}: {geminate, ""}, {"個", "六"}: {geminate, ""}, {"個", "八"}: {geminate, ""},
	{"個", "十"}: {geminate, ""}, {"個", "百"}: {geminate, ""},

	{"回", "一"}: {geminate, ""}, {"回", "六"}: {geminate, ""}, {"回", "八"}: {geminate, ""},
	{"回", "十"}: {geminate, ""}, {"回", "百"}: {geminate, ""},

	{"階", "一"}: {geminate, ""}, {"階", "三"}: {"", "ガイ"}, {"階", "六"}: {geminate, ""},
	{"階", "八"}: {geminate, ""}, {"階", "十"}: {geminate, ""}, {"階", "百"}: {geminate, ""},

	{"歳", "一"}: {geminate, ""}, {"歳", "八"}: {geminate, ""}, {"歳", "十"}: {geminate, ""},
	{"冊", "一"}: {geminate, ""}, {"冊", "八"}: {geminate, ""}, {"冊", "十"}: {geminate, ""},
	{"点", "一"}: {geminate, ""}, {"点", "六"}: {geminate, ""}, {"点", "八"}: {geminate, ""}, {"点", "十"}: {geminate, ""},

	{"年", "四"}: {"ヨ", ""}, {"年", "七"}: {"シチ", ""},
	{"時", "四"}: {"ヨ", ""}, {"時", "七"}: {"シチ", ""}, {"時", "九"}: {"ク", ""},
	{"月", "四"}: {"シ", ""}, {"月", "七"}: {"シチ", ""}, {"月", "九"}: {"ク", ""},
	{"円", "四"}: {"ヨ", ""},
	{"人", "四"}: {"ヨ", ""},
}

// wholeRules replace the reading of the entire number when it has the given
// value, e.g. 1日 is ツイタチ rather than イチニチ.
var wholeRules = map[counterKey]counterRule{
	{"日", "1"}: {"ツイ", "タチ"}, {"日", "2"}: {"フツ", "カ"}, {"日", "3"}: {"ミッ", "カ"},
	{"日", "4"}: {"ヨッ", "カ"}, {"日", "5"}: {"イツ", "カ"}, {"日", "6"}: {"ムイ", "カ"},
	{"日", "7"}: {"ナノ", "カ"}, {"日", "8"}: {"ヨー", "カ"}, {"日", "9"}: {"ココノ", "カ"},
	{"日", "10"}: {"トー", "カ"}, {"日", "20"}: {"ハツ", "カ"},

	{"人", "1"}: {"ヒト", "リ"}, {"人", "2"}: {"フタ", "リ"},
}
