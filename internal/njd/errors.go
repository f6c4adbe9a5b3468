package njd

import "fmt"

// ImportError reports a tokenizer row that cannot become a Node.
type ImportError struct {
	Row    int
	Field  string
	Reason string
}

func (e *ImportError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("import row %d: %s", e.Row, e.Reason)
	}
	return fmt.Sprintf("import row %d: field %s: %s", e.Row, e.Field, e.Reason)
}

// RuleLookupError reports a rule table miss. Stages recover from it with a
// fallback annotation and record it with Store.Recover.
type RuleLookupError struct {
	Stage   string
	Index   int
	Surface string
	Key     string
	// Fallback is the value used in place of the missing rule.
	Fallback string
}

func (e *RuleLookupError) Error() string {
	return fmt.Sprintf("%s: no rule for %q at node %d (%s)", e.Stage, e.Key, e.Index, e.Surface)
}

// CompileError is an internal consistency fault found while compiling
// labels. It always aborts the utterance.
type CompileError struct {
	Phrase int
	Node   int
	Reason string
}

func (e *CompileError) Error() string {
	switch {
	case e.Phrase >= 0 && e.Node >= 0:
		return fmt.Sprintf("compile: phrase %d node %d: %s", e.Phrase, e.Node, e.Reason)
	case e.Phrase >= 0:
		return fmt.Sprintf("compile: phrase %d: %s", e.Phrase, e.Reason)
	case e.Node >= 0:
		return fmt.Sprintf("compile: node %d: %s", e.Node, e.Reason)
	default:
		return "compile: " + e.Reason
	}
}
