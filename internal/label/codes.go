package label

import (
	"strings"

	"github.com/example/go-jtalk/internal/njd"
)

// posCodes maps "pos" or "pos,group1" to the two-digit word class code used
// in the B, C and D fields. The longer key wins.
var posCodes = map[string]string{}

func init() {
	for _, e := range []struct{ key, code string }{
		{"名詞", "02"},
		{"名詞,一般", "02"},
		{"名詞,サ変接続", "03"},
		{"名詞,代名詞", "04"},
		{"名詞,数", "05"},
		{"名詞,固有名詞", "18"},
		{"名詞,非自立", "22"},
		{"名詞,接尾", "15"},
		{"副詞", "06"},
		{"連体詞", "07"},
		{"接続詞", "08"},
		{"感動詞", "09"},
		{"助動詞", "10"},
		{"助詞", "23"},
		{"助詞,副助詞", "11"},
		{"助詞,接続助詞", "12"},
		{"助詞,格助詞", "13"},
		{"助詞,終助詞", "17"},
		{"助詞,係助詞", "24"},
		{"接頭詞", "16"},
		{"形容詞", "19"},
		{"動詞", "20"},
		{"動詞,非自立", "21"},
		{"動詞,接尾", "15"},
		{"フィラー", "25"},
	} {
		posCodes[e.key] = e.code
	}
}

// ctypeCodes and cformCodes are matched by prefix against the IPA
// conjugation type and form.
var ctypeCodes = []struct{ prefix, code string }{
	{"五段", "1"},
	{"四段", "1"},
	{"上二", "2"},
	{"下二", "2"},
	{"一段", "3"},
	{"サ変", "4"},
	{"カ変", "5"},
	{"特殊", "6"},
	{"形容詞", "7"},
	{"不変化", "6"},
	{"文語", "6"},
}

var cformCodes = []struct{ prefix, code string }{
	{"未然", "0"},
	{"連用", "1"},
	{"基本形", "2"},
	{"終止", "2"},
	{"体言接続", "3"},
	{"連体", "3"},
	{"仮定", "4"},
	{"命令", "5"},
	{"ガル接続", "1"},
}

func posCode(n *njd.Node) string {
	if c, ok := posCodes[n.POS+","+n.POSGroup1]; ok {
		return c
	}
	if c, ok := posCodes[n.POS]; ok {
		return c
	}
	return na
}

func prefixCode(table []struct{ prefix, code string }, v string) string {
	if v == "" || v == njd.Unknown {
		return na
	}
	for _, e := range table {
		if strings.HasPrefix(v, e.prefix) {
			return e.code
		}
	}
	return na
}
