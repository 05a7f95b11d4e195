package traverse_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"graph-differ/node"
	"graph-differ/options"
	"graph-differ/traverse"
)

func collectLeaves(v any, opts *options.Options) []any {
	var leaves []any
	vis := traverse.Visitor{
		// Otherwise also catches container kinds whose hook is unset.
		Otherwise: func(n *node.Node, _ *traverse.Context) (traverse.ActionEnum, []*node.Node) {
			if n.Kind().IsContainer() {
				return traverse.ActionDescend, nil
			}
			leaves = append(leaves, n.Value)
			return traverse.ActionSkip, nil
		},
	}
	traverse.Walk(node.NewRoot(v), vis, traverse.NewContext(opts))
	return leaves
}

func TestWalkVisitsLeavesInEnumerationOrder(t *testing.T) {
	type inner struct{ A, B int }
	g := map[string]any{
		"m": inner{A: 1, B: 2},
		"s": []any{"x", "y"},
	}

	// Native map keys enumerate sorted, struct fields in declaration order.
	assert.Equal(t, []any{1, 2, "x", "y"}, collectLeaves(g, nil))
}

func TestWalkStopPropagates(t *testing.T) {
	visited := 0
	vis := traverse.Visitor{
		Slice: func(n *node.Node, _ *traverse.Context) (traverse.ActionEnum, []*node.Node) {
			return traverse.ActionDescend, nil
		},
		Otherwise: func(n *node.Node, _ *traverse.Context) (traverse.ActionEnum, []*node.Node) {
			visited++
			return traverse.ActionStop, nil
		},
	}

	act := traverse.Walk(node.NewRoot([]any{1, 2, 3}), vis, traverse.NewContext(nil))
	assert.Equal(t, traverse.ActionStop, act)
	assert.Equal(t, 1, visited)
}

func TestWalkExplicitChildren(t *testing.T) {
	var seen []any
	vis := traverse.Visitor{
		Slice: func(n *node.Node, _ *traverse.Context) (traverse.ActionEnum, []*node.Node) {
			// Substitute a single synthetic child for the real ones.
			return traverse.ActionDescend, []*node.Node{node.NewChild(n, "only", 0, 0)}
		},
		Otherwise: func(n *node.Node, _ *traverse.Context) (traverse.ActionEnum, []*node.Node) {
			seen = append(seen, n.Value)
			return traverse.ActionSkip, nil
		},
	}

	traverse.Walk(node.NewRoot([]any{1, 2, 3}), vis, traverse.NewContext(nil))
	assert.Equal(t, []any{"only"}, seen)
}

func TestWalkCycleGuard(t *testing.T) {
	g := map[string]any{}
	g["self"] = g

	containers := 0
	vis := traverse.Visitor{
		Map: func(n *node.Node, _ *traverse.Context) (traverse.ActionEnum, []*node.Node) {
			containers++
			return traverse.ActionDescend, nil
		},
	}

	ctx := traverse.NewContext(&options.Options{GuardCycles: true})
	act := traverse.Walk(node.NewRoot(g), vis, ctx)

	assert.Equal(t, traverse.ActionDescend, act)
	// Visited once as the root, once as its own child; descended only once.
	assert.Equal(t, 2, containers)
}

func TestWalkPostRunsOnGuardedRevisit(t *testing.T) {
	g := map[string]any{}
	g["self"] = g

	posts := 0
	vis := traverse.Visitor{
		Map: func(n *node.Node, _ *traverse.Context) (traverse.ActionEnum, []*node.Node) {
			return traverse.ActionDescend, nil
		},
		Post: func(n *node.Node, _ *traverse.Context) { posts++ },
	}

	ctx := traverse.NewContext(&options.Options{GuardCycles: true})
	traverse.Walk(node.NewRoot(g), vis, ctx)

	// Once for the guarded revisit, once for the root itself.
	assert.Equal(t, 2, posts)
}

func TestIdentityOf(t *testing.T) {
	m := map[string]int{}
	id1, ok := traverse.IdentityOf(m)
	assert.True(t, ok)
	id2, _ := traverse.IdentityOf(m)
	assert.Equal(t, id1, id2)

	_, ok = traverse.IdentityOf(42)
	assert.False(t, ok)
}
