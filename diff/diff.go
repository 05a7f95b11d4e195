// Package diff runs the dual comparator in non-short-circuiting mode and
// turns every recorded difference into a reversible, path-addressed change.
package diff

import (
	"fmt"

	"graph-differ/clone"
	"graph-differ/compare"
	"graph-differ/node"
	"graph-differ/options"
	"graph-differ/patch"
	"graph-differ/utils"
)

// Diff returns the edit operations that, applied to left (or a structural
// copy of it) in order, make it equal to right. The walk never stops early:
// sibling differences are all discovered. Recursion depth equals graph depth.
//
// The returned error is non-nil only when CloneValues is set and a right-hand
// value could not be deep-copied.
func Diff(left, right any, opts *options.Options) (patch.Changes, error) {
	o := opts.Norm()

	var changes patch.Changes
	var embedErr error

	c := compare.New(o, func(p compare.Pair, out compare.OutcomeEnum) bool {
		switch out {
		case compare.OutcomeNoLeft:
			val, err := embedValue(p.Right.Value, o)
			if err != nil {
				embedErr = err
				return false
			}
			changes = append(changes, patch.NewAdd(pathOf(p.Right, o, true), val))

		case compare.OutcomeNoRight:
			changes = append(changes, patch.NewRemove(pathOf(p.Left, o, false)))

		case compare.OutcomeNotEqual:
			val, err := embedValue(p.Right.Value, o)
			if err != nil {
				embedErr = err
				return false
			}
			changes = append(changes, patch.NewEdit(pathOf(p.Right, o, false), val))
		}
		return true
	})
	c.Compare(left, right)

	if embedErr != nil {
		return nil, fmt.Errorf("embedding right-hand value: %w", embedErr)
	}
	return changes, nil
}

// pathOf builds the stable root-to-node path. Members of unique-value
// collections without an assigned position are keyed by a content hash of
// their value; lax-mode sequence additions carry the insert marker so the
// patch layer splices instead of overwriting.
func pathOf(n *node.Node, o *options.Options, add bool) patch.Path {
	var segs []patch.Segment
	for cur := n; cur.Parent != nil; cur = cur.Parent {
		seg := patch.Segment{Kind: cur.Parent.Kind(), Key: cur.Key}
		if cur.Parent.Kind() == node.KindSet && cur.Key == nil {
			seg.Key = node.ContentHash(cur.Value)
		}
		segs = append(segs, seg)
	}
	utils.Reverse(segs)

	if add && len(segs) > 0 {
		last := &segs[len(segs)-1]
		// Strict-mode additions only occur past the end of the left
		// sequence and grow it in place; lax-mode destinations splice.
		if last.Kind == node.KindSlice && o.LaxSliceOrder {
			last.Insert = true
		}
	}
	return patch.Path(segs)
}

func embedValue(v any, o *options.Options) (any, error) {
	if !o.CloneValues {
		return v, nil
	}
	return clone.Clone(v, o)
}
