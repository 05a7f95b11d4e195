package compare

import (
	"reflect"

	"graph-differ/node"
)

// compareSets pairs unique-value-collection members by containment rather
// than by index: each left member consumes the first unconsumed right member
// it matches in search mode. Re-keying one member of a set is observably a
// deletion-then-append, so differences are generated from the last position
// backward, keeping earlier positions valid while later ones are mutated.
func (c *Comparator) compareSets(p Pair, ctx *runCtx) bool {
	ls := childNodes(p.Left, setValues(p.Left))
	rs := childNodes(p.Right, setValues(p.Right))

	match, consumed := c.firstFit(ls, rs)

	if c.opts.StrictSetOrder && fullMatch(match, consumed) {
		// Identical membership with strict ordering: a member whose position
		// moved cannot be repositioned in place (re-adding an existing member
		// keeps its slot), so a move is a deletion plus a re-append. Removals
		// go tail first, re-appends follow in final order.
		for i := len(ls) - 1; i >= 0; i-- {
			if match[i] == i {
				if !c.emit(Pair{Left: ls[i], Right: rs[i]}, OutcomeEqual) {
					return false
				}
				continue
			}
			if !c.emit(Pair{Left: ls[i]}, OutcomeNoRight) {
				return false
			}
		}
		for j := range rs {
			if match[j] == j {
				continue
			}
			if !c.emit(Pair{Right: rs[j]}, OutcomeNoLeft) {
				return false
			}
		}
		return true
	}

	for i := len(ls) - 1; i >= 0; i-- {
		if match[i] >= 0 {
			if !c.emit(Pair{Left: ls[i], Right: rs[match[i]]}, OutcomeEqual) {
				return false
			}
			continue
		}
		if !c.compare(Pair{Left: ls[i]}, ctx) {
			return false
		}
	}
	for j := 0; j < len(rs); j++ {
		if consumed[j] {
			continue
		}
		if !c.compare(Pair{Right: rs[j]}, ctx) {
			return false
		}
	}
	return true
}

// compareSlices dispatches between the strict (index-by-index) and lax
// (order-insensitive) sequence comparison modes.
func (c *Comparator) compareSlices(p Pair, ctx *runCtx) bool {
	if c.opts.LaxSliceOrder {
		return c.compareSlicesLax(p, ctx)
	}

	lv, rv := sliceOf(p.Left.Value), sliceOf(p.Right.Value)

	// Tail first: an edit at a higher index never invalidates a
	// not-yet-visited lower index.
	top := lv.Len()
	if rv.Len() > top {
		top = rv.Len()
	}
	for i := top - 1; i >= 0; i-- {
		var child Pair
		if i < lv.Len() {
			child.Left = node.NewChild(p.Left, lv.Index(i).Interface(), i, i)
		}
		if i < rv.Len() {
			child.Right = node.NewChild(p.Right, rv.Index(i).Interface(), i, i)
		}
		if !c.compare(child, ctx) {
			return false
		}
	}
	return true
}

// compareSlicesLax matches each left element, in index order, against the
// first unconsumed right element of the same kind that compares equal in
// search mode. First fit, not a minimum-edit assignment.
//
// Emission order rebuilds the sequence correctly: equal pairs in descending
// left-index order, removals in descending left-index order, then additions
// in ascending right-index order so each addition lands at its final
// destination as the sequence is rebuilt head to tail.
func (c *Comparator) compareSlicesLax(p Pair, ctx *runCtx) bool {
	lv, rv := sliceOf(p.Left.Value), sliceOf(p.Right.Value)

	ls := make([]*node.Node, lv.Len())
	for i := range ls {
		ls[i] = node.NewChild(p.Left, lv.Index(i).Interface(), i, node.NoPosition)
	}
	rs := make([]*node.Node, rv.Len())
	for j := range rs {
		rs[j] = node.NewChild(p.Right, rv.Index(j).Interface(), j, node.NoPosition)
	}

	match, consumed := c.firstFit(ls, rs)

	for i := len(ls) - 1; i >= 0; i-- {
		if match[i] < 0 {
			continue
		}
		if !c.emit(Pair{Left: ls[i], Right: rs[match[i]]}, OutcomeEqual) {
			return false
		}
	}
	for i := len(ls) - 1; i >= 0; i-- {
		if match[i] >= 0 {
			continue
		}
		if !c.compare(Pair{Left: ls[i]}, ctx) {
			return false
		}
	}
	for j := 0; j < len(rs); j++ {
		if consumed[j] {
			continue
		}
		if !c.compare(Pair{Right: rs[j]}, ctx) {
			return false
		}
	}
	return true
}

// firstFit scans left elements in index order and pairs each with the first
// unconsumed same-kind right element that matches in search mode. Ties break
// by right inspection order.
func (c *Comparator) firstFit(ls, rs []*node.Node) (match []int, consumed []bool) {
	match = make([]int, len(ls))
	consumed = make([]bool, len(rs))

	for i, ln := range ls {
		match[i] = -1
		for j, rn := range rs {
			if consumed[j] || ln.Kind() != rn.Kind() {
				continue
			}
			if c.searchMatch(ln, rn) {
				match[i] = j
				consumed[j] = true
				break
			}
		}
	}
	return match, consumed
}

func fullMatch(match []int, consumed []bool) bool {
	if len(match) != len(consumed) {
		return false
	}
	for _, m := range match {
		if m < 0 {
			return false
		}
	}
	return true
}

func childNodes(parent *node.Node, values []any) []*node.Node {
	out := make([]*node.Node, len(values))
	for i, v := range values {
		out[i] = node.NewChild(parent, v, nil, i)
	}
	return out
}

func sliceOf(v any) reflect.Value {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Ptr {
		rv = rv.Elem()
	}
	return rv
}
