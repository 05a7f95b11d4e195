// Package compare implements the dual comparator: a lockstep walk over two
// graphs that classifies every node pair, dispatches to kind-specific
// comparison, and reports a stream of outcomes to its consumer. Equality
// testing stops the walk on the first difference; diff generation keeps it
// running and records every outcome.
package compare

import (
	"reflect"
	"sort"

	"github.com/emirpasic/gods/sets"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"graph-differ/internal/trace"
	"graph-differ/node"
	"graph-differ/options"
	"graph-differ/traverse"
)

// Pair is the explicit (left, right) node tuple threaded down the recursion.
// Either side is nil when the counterpart is absent.
type Pair struct {
	Left  *node.Node
	Right *node.Node
}

// Report receives every recorded outcome. Returning false stops the walk,
// propagated up through all enclosing frames.
type Report func(p Pair, out OutcomeEnum) bool

// Comparator holds the per-call configuration. All mutable walk state lives
// in the runCtx threaded by parameter, so independent calls never share data.
type Comparator struct {
	opts   *options.Options
	coll   *collate.Collator
	report Report
}

type runCtx struct {
	visited []uintptr
}

func (c *runCtx) seen(id uintptr) bool {
	for _, v := range c.visited {
		if v == id {
			return true
		}
	}
	c.visited = append(c.visited, id)
	return false
}

func New(opts *options.Options, report Report) *Comparator {
	return &Comparator{
		opts:   opts.Norm(),
		coll:   collate.New(language.Und),
		report: report,
	}
}

// Compare walks both roots in lockstep, reporting outcomes as it goes.
func (c *Comparator) Compare(left, right any) {
	c.compare(Pair{node.NewRoot(left), node.NewRoot(right)}, &runCtx{})
}

func (c *Comparator) emit(p Pair, out OutcomeEnum) bool {
	if trace.Enabled() {
		trace.Debugf(">> compare %s", out)
	}
	return c.report(p, out)
}

// compare decides the outcome for one node pair and recurses into children.
// Returns false once the consumer asked to stop.
func (c *Comparator) compare(p Pair, ctx *runCtx) bool {
	l, r := p.Left, p.Right

	// Absent counterparts resolve to fixed outcomes so diff generation can
	// tell additions and removals apart from changes.
	switch {
	case l == nil && r == nil:
		return c.emit(p, OutcomeIdentical)
	case l == nil:
		return c.emit(p, OutcomeNoLeft)
	case r == nil:
		return c.emit(p, OutcomeNoRight)
	}

	if sameIdentity(l.Value, r.Value) {
		return c.emit(p, OutcomeIdentical)
	}

	lk, rk := l.Kind(), r.Kind()
	if lk != rk {
		if c.opts.LooseEquality {
			return c.emit(p, c.looseLeaf(l.Value, r.Value))
		}
		return c.emit(p, OutcomeNotEqual)
	}

	if lk.IsContainer() {
		return c.compareContainers(p, lk, ctx)
	}
	return c.emit(p, c.compareLeaf(l.Value, r.Value, lk))
}

func (c *Comparator) compareContainers(p Pair, kind node.KindEnum, ctx *runCtx) bool {
	if c.opts.GuardCycles {
		if id, ok := traverse.IdentityOf(p.Left.Value); ok && ctx.seen(id) {
			// Already compared elsewhere, decline to descend.
			return c.emit(p, OutcomeEqual)
		}
	}

	// Matching container shapes record an equal outcome of their own, so
	// that comparing two empty containers still counts as a recorded result.
	if !c.emit(p, OutcomeEqual) {
		return false
	}

	switch kind {
	case node.KindStruct, node.KindMap:
		return c.compareKeyed(p, ctx)
	case node.KindSet:
		return c.compareSets(p, ctx)
	default:
		return c.compareSlices(p, ctx)
	}
}

// compareKeyed handles records and keyed mappings: the symmetric difference
// between the child-key sets decides which keys are additions, removals, or
// shared pairwise recursions.
func (c *Comparator) compareKeyed(p Pair, ctx *runCtx) bool {
	leftKeys := p.Left.ChildKeys(c.opts.Props, c.opts.PropFilter)
	rightKeys := p.Right.ChildKeys(c.opts.Props, c.opts.PropFilter)

	shared, leftOnly, rightOnly := splitKeys(leftKeys, rightKeys)

	// Strict key ordering engages for ordered mappings only, and only while
	// both sides hold the exact same key set. Changing membership forfeits
	// it for this comparison.
	if c.strictKeyOrder(p, leftOnly, rightOnly) {
		return c.compareKeyedStrict(p, leftKeys, rightKeys, ctx)
	}

	for _, k := range shared {
		lv, _ := node.Get(p.Left.Value, k)
		rv, _ := node.Get(p.Right.Value, k)
		child := Pair{
			Left:  node.NewChild(p.Left, lv, k, node.NoPosition),
			Right: node.NewChild(p.Right, rv, k, node.NoPosition),
		}
		if !c.compare(child, ctx) {
			return false
		}
	}
	for _, k := range leftOnly {
		lv, _ := node.Get(p.Left.Value, k)
		child := Pair{Left: node.NewChild(p.Left, lv, k, node.NoPosition)}
		if !c.compare(child, ctx) {
			return false
		}
	}
	for _, k := range rightOnly {
		rv, _ := node.Get(p.Right.Value, k)
		child := Pair{Right: node.NewChild(p.Right, rv, k, node.NoPosition)}
		if !c.compare(child, ctx) {
			return false
		}
	}
	return true
}

// compareKeyedStrict walks an ordered mapping pair whose key sets are
// identical. Keys that kept their slot compare pairwise; a moved key cannot
// be repositioned in place (storing an existing key keeps its slot), so a
// move is a deletion plus a re-insert at the final position. Removals go
// tail first, re-inserts follow in final order.
func (c *Comparator) compareKeyedStrict(p Pair, leftKeys, rightKeys []any, ctx *runCtx) bool {
	posR := keyPositions(rightKeys)

	var moved []any
	for i, k := range leftKeys {
		if posR[k] != i {
			moved = append(moved, k)
			continue
		}
		lv, _ := node.Get(p.Left.Value, k)
		rv, _ := node.Get(p.Right.Value, k)
		child := Pair{
			Left:  node.NewChild(p.Left, lv, k, i),
			Right: node.NewChild(p.Right, rv, k, i),
		}
		if !c.compare(child, ctx) {
			return false
		}
	}

	for i := len(moved) - 1; i >= 0; i-- {
		lv, _ := node.Get(p.Left.Value, moved[i])
		child := Pair{Left: node.NewChild(p.Left, lv, moved[i], node.NoPosition)}
		if !c.emit(child, OutcomeNoRight) {
			return false
		}
	}
	sort.Slice(moved, func(a, b int) bool { return posR[moved[a]] < posR[moved[b]] })
	for _, k := range moved {
		rv, _ := node.Get(p.Right.Value, k)
		child := Pair{Right: node.NewChild(p.Right, rv, k, node.NoPosition)}
		if !c.emit(child, OutcomeNoLeft) {
			return false
		}
	}
	return true
}

func (c *Comparator) strictKeyOrder(p Pair, leftOnly, rightOnly []any) bool {
	if !c.opts.StrictMapOrder || p.Left.Kind() != node.KindMap {
		return false
	}
	if len(leftOnly) != 0 || len(rightOnly) != 0 {
		return false
	}
	// Native Go maps expose no stable order, nothing to be strict about.
	return reflect.ValueOf(p.Left.Value).Kind() != reflect.Map &&
		reflect.ValueOf(p.Right.Value).Kind() != reflect.Map
}

// searchMatch runs a sub-comparison in search mode: a fresh context that
// records its outcome separately and never mutates the enclosing result.
func (c *Comparator) searchMatch(left, right *node.Node) bool {
	failed := false
	sub := &Comparator{
		opts: c.opts,
		coll: c.coll,
		report: func(_ Pair, out OutcomeEnum) bool {
			if !out.Equalish() {
				failed = true
				return false
			}
			return true
		},
	}
	// Fresh roots: the candidates' own positions must not influence the
	// search verdict.
	sub.compare(Pair{node.NewRoot(left.Value), node.NewRoot(right.Value)}, &runCtx{})
	return !failed
}

func keyPositions(keys []any) map[any]int {
	out := make(map[any]int, len(keys))
	for i, k := range keys {
		out[k] = i
	}
	return out
}

// splitKeys partitions two ordered key lists into shared keys (left order),
// keys unique to the left, and keys unique to the right.
func splitKeys(left, right []any) (shared, leftOnly, rightOnly []any) {
	inRight := make(map[any]struct{}, len(right))
	for _, k := range right {
		inRight[k] = struct{}{}
	}
	inLeft := make(map[any]struct{}, len(left))
	for _, k := range left {
		inLeft[k] = struct{}{}
	}

	for _, k := range left {
		if _, ok := inRight[k]; ok {
			shared = append(shared, k)
		} else {
			leftOnly = append(leftOnly, k)
		}
	}
	for _, k := range right {
		if _, ok := inLeft[k]; !ok {
			rightOnly = append(rightOnly, k)
		}
	}
	return shared, leftOnly, rightOnly
}

func setValues(n *node.Node) []any {
	return n.Value.(sets.Set).Values()
}
