package compare

import "graph-differ/options"

// Equal reports whether two graphs are structurally equivalent. The walk
// stops on the first difference. The second result is false only when no
// outcome was ever recorded (empty or degenerate graphs); callers can treat
// that as "equal" for practical purposes.
//
// Recursion depth equals graph depth; no explicit limit is imposed.
func Equal(left, right any, opts *options.Options) (eq bool, recorded bool) {
	var failed bool

	c := New(opts, func(_ Pair, out OutcomeEnum) bool {
		recorded = true
		if !out.Equalish() {
			failed = true
			return false
		}
		return true
	})
	c.Compare(left, right)

	return recorded && !failed, recorded
}
