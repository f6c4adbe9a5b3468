package njd

import (
	"strconv"
	"strings"
)

// Row is one morpheme as produced by the tokenizer. An empty field means the
// tokenizer did not provide it.
type Row struct {
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
	// Acc is "accent/mora", e.g. "1/3".
	Acc       string
	ChainRule string
	ChainFlag string
}

const (
	minFeatureFields = 10
	maxFeatureFields = 13
)

// ParseFeature parses a comma-separated feature line:
//
//	surface,pos,pos1,pos2,pos3,ctype,cform,orig,read,pron[,acc/mora[,chain_rule[,chain_flag]]]
func ParseFeature(line string) (Row, error) {
	f := strings.Split(line, ",")
	if len(f) < minFeatureFields || len(f) > maxFeatureFields {
		return Row{}, &ImportError{
			Row:    -1,
			Reason: "malformed field count " + strconv.Itoa(len(f)),
		}
	}
	for len(f) < maxFeatureFields {
		f = append(f, "")
	}
	return Row{
		Surface:   f[0],
		POS:       f[1],
		POSGroup1: f[2],
		POSGroup2: f[3],
		POSGroup3: f[4],
		CType:     f[5],
		CForm:     f[6],
		Orig:      f[7],
		Read:      f[8],
		Pron:      f[9],
		Acc:       f[10],
		ChainRule: f[11],
		ChainFlag: f[12],
	}, nil
}

// ParseFeatures parses every line and imports the result. The row index in
// a returned *ImportError refers to lines.
func ParseFeatures(lines []string) (*Store, error) {
	rows := make([]Row, 0, len(lines))
	for i, line := range lines {
		row, err := ParseFeature(line)
		if err != nil {
			err.(*ImportError).Row = i
			return nil, err
		}
		rows = append(rows, row)
	}
	return Import(rows)
}

// Import converts tokenizer rows into a fresh store. Import is atomic: the
// first bad row aborts it with an *ImportError naming that row, and no
// store is returned.
func Import(rows []Row) (*Store, error) {
	nodes := make([]*Node, 0, len(rows))
	for i, row := range rows {
		n, err := importRow(row)
		if err != nil {
			err.Row = i
			return nil, err
		}
		nodes = append(nodes, n)
	}
	return NewStore(nodes), nil
}

func importRow(row Row) (*Node, *ImportError) {
	if row.Surface == "" {
		return nil, &ImportError{Field: "surface", Reason: "missing surface form"}
	}
	n := &Node{
		Surface:   row.Surface,
		POS:       orUnknown(row.POS),
		POSGroup1: orUnknown(row.POSGroup1),
		POSGroup2: orUnknown(row.POSGroup2),
		POSGroup3: orUnknown(row.POSGroup3),
		CType:     orUnknown(row.CType),
		CForm:     orUnknown(row.CForm),
		Orig:      orUnknown(row.Orig),
		Read:      orUnknown(row.Read),
		Pron:      orUnknown(row.Pron),
		Acc:       AccUnknown,
		ChainRule: orUnknown(row.ChainRule),
		PhraseAcc: -1,
	}

	if row.Acc != "" && row.Acc != Unknown {
		acc, mora, ok := parseAccMora(row.Acc)
		if !ok {
			return nil, &ImportError{Field: "acc", Reason: "want accent/mora, got " + strconv.Quote(row.Acc)}
		}
		n.Acc = acc
		n.MoraSize = mora
	}

	switch row.ChainFlag {
	case "", Unknown, "-1":
		n.ChainFlag = ChainUnset
	case "0":
		n.ChainFlag = ChainBreak
	case "1":
		n.ChainFlag = ChainJoin
	default:
		return nil, &ImportError{Field: "chain_flag", Reason: "want -1, 0 or 1, got " + strconv.Quote(row.ChainFlag)}
	}
	return n, nil
}

func parseAccMora(s string) (acc, mora int, ok bool) {
	a, m, found := strings.Cut(s, "/")
	acc, err := strconv.Atoi(a)
	if err != nil || acc < 0 {
		return 0, 0, false
	}
	if !found {
		return acc, 0, true
	}
	mora, err = strconv.Atoi(m)
	if err != nil || mora < 0 {
		return 0, 0, false
	}
	return acc, mora, true
}

func orUnknown(s string) string {
	if s == "" {
		return Unknown
	}
	return s
}
