package layout

import (
	"golang.org/x/text/unicode/bidi"
)

type runClass int

const (
	runLTR runClass = iota
	runRTL
	runSeparator // whitespace and neutral punctuation only
)

// classifyRun buckets a run of text by the bidi classes of its
// codepoints. Any strong right-to-left character makes the run RTL; a
// run with no strong characters at all is a separator.
func classifyRun(s string) runClass {
	hasStrongLTR := false
	for _, r := range s {
		p, _ := bidi.LookupRune(r)
		switch p.Class() {
		case bidi.R, bidi.AL, bidi.AN:
			return runRTL
		case bidi.L:
			hasStrongLTR = true
		}
	}
	if hasStrongLTR {
		return runLTR
	}
	return runSeparator
}

// reorderRTL rewrites a visual-order run sequence into logical order:
// consecutive RTL runs (and the separators between them) accumulate on
// a stack that flushes in reverse when a left-to-right run or the end
// of the line arrives. LTR runs pass through untouched.
func reorderRTL(runs []string) []string {
	out := make([]string, 0, len(runs))
	var stack []string
	flush := func() {
		for i := len(stack) - 1; i >= 0; i-- {
			out = append(out, stack[i])
		}
		stack = stack[:0]
	}
	for _, run := range runs {
		switch classifyRun(run) {
		case runRTL:
			stack = append(stack, run)
		case runSeparator:
			if len(stack) > 0 {
				stack = append(stack, run)
			} else {
				out = append(out, run)
			}
		default:
			flush()
			out = append(out, run)
		}
	}
	flush()
	return out
}
