package patch_test

import (
	"testing"

	"github.com/emirpasic/gods/maps/linkedhashmap"
	"github.com/emirpasic/gods/sets/linkedhashset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"graph-differ/node"
	"graph-differ/patch"
)

func mapPath(keys ...any) patch.Path {
	p := make(patch.Path, len(keys))
	for i, k := range keys {
		p[i] = patch.Segment{Kind: node.KindMap, Key: k}
	}
	return p
}

func slicePath(prefix patch.Path, idx int, insert bool) patch.Path {
	return append(append(patch.Path{}, prefix...),
		patch.Segment{Kind: node.KindSlice, Key: idx, Insert: insert})
}

func TestEditMapValue(t *testing.T) {
	target := map[string]any{"k": 1}

	undo, err := patch.NewEdit(mapPath("k"), 2).Apply(target, false)
	require.NoError(t, err)
	assert.Equal(t, 2, target["k"])

	redo, err := undo.Undo()
	require.NoError(t, err)
	assert.Equal(t, 1, target["k"])

	undo, err = redo.Redo()
	require.NoError(t, err)
	assert.Equal(t, 2, target["k"])

	_, err = undo.Undo()
	require.NoError(t, err)
	assert.Equal(t, 1, target["k"])
}

func TestAddAndRemoveMapKey(t *testing.T) {
	target := map[string]any{"a": 1}

	undo, err := patch.NewAdd(mapPath("b"), 2).Apply(target, false)
	require.NoError(t, err)
	assert.Equal(t, 2, target["b"])

	_, err = undo.Undo()
	require.NoError(t, err)
	_, ok := target["b"]
	assert.False(t, ok, "undo of an add must remove the key")

	undo, err = patch.NewRemove(mapPath("a")).Apply(target, false)
	require.NoError(t, err)
	_, ok = target["a"]
	assert.False(t, ok)

	_, err = undo.Undo()
	require.NoError(t, err)
	assert.Equal(t, 1, target["a"])
}

func TestOrderedMapOperations(t *testing.T) {
	m := linkedhashmap.New()
	m.Put("a", 1)

	undo, err := patch.NewEdit(mapPath("a"), 5).Apply(m, false)
	require.NoError(t, err)
	v, _ := m.Get("a")
	assert.Equal(t, 5, v)

	_, err = undo.Undo()
	require.NoError(t, err)
	v, _ = m.Get("a")
	assert.Equal(t, 1, v)

	_, err = patch.NewAdd(mapPath("b"), 2).Apply(m, false)
	require.NoError(t, err)
	v, _ = m.Get("b")
	assert.Equal(t, 2, v)
}

func TestStructFieldEditAndRemove(t *testing.T) {
	type account struct {
		Name string
		Age  int
	}
	target := &account{Name: "x", Age: 30}
	path := patch.Path{{Kind: node.KindStruct, Key: "Age"}}

	undo, err := patch.NewEdit(path, 31).Apply(target, false)
	require.NoError(t, err)
	assert.Equal(t, 31, target.Age)

	_, err = undo.Undo()
	require.NoError(t, err)
	assert.Equal(t, 30, target.Age)

	// Record fields cannot be deleted, removal resets to the zero value.
	undo, err = patch.NewRemove(patch.Path{{Kind: node.KindStruct, Key: "Name"}}).Apply(target, false)
	require.NoError(t, err)
	assert.Equal(t, "", target.Name)

	_, err = undo.Undo()
	require.NoError(t, err)
	assert.Equal(t, "x", target.Name)
}

func TestValueStructInsideMap(t *testing.T) {
	type point struct{ X, Y int }
	target := map[string]any{"p": point{X: 1, Y: 2}}

	path := patch.Path{
		{Kind: node.KindMap, Key: "p"},
		{Kind: node.KindStruct, Key: "Y"},
	}
	undo, err := patch.NewEdit(path, 9).Apply(target, false)
	require.NoError(t, err)
	assert.Equal(t, point{X: 1, Y: 9}, target["p"])

	_, err = undo.Undo()
	require.NoError(t, err)
	assert.Equal(t, point{X: 1, Y: 2}, target["p"])
}

func TestSliceEdit(t *testing.T) {
	target := map[string]any{"s": []int{1, 2, 3}}

	undo, err := patch.NewEdit(slicePath(mapPath("s"), 1, false), 5).Apply(target, false)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 5, 3}, target["s"])

	_, err = undo.Undo()
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, target["s"])
}

func TestSliceInsertAndRemove(t *testing.T) {
	target := map[string]any{"s": []int{1, 3}}

	undo, err := patch.NewAdd(slicePath(mapPath("s"), 1, true), 2).Apply(target, false)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, target["s"])

	_, err = undo.Undo()
	require.NoError(t, err)
	assert.Equal(t, []int{1, 3}, target["s"])

	undo, err = patch.NewRemove(slicePath(mapPath("s"), 0, false)).Apply(target, false)
	require.NoError(t, err)
	assert.Equal(t, []int{3}, target["s"])

	_, err = undo.Undo()
	require.NoError(t, err)
	assert.Equal(t, []int{1, 3}, target["s"])
}

func TestSliceGrowthAndTrim(t *testing.T) {
	target := map[string]any{"s": []int{1}}

	// A plain add past the end grows the sequence with zero values.
	undo, err := patch.NewAdd(slicePath(mapPath("s"), 3, false), 9).Apply(target, false)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 0, 0, 9}, target["s"])

	redo, err := undo.Undo()
	require.NoError(t, err)
	assert.Equal(t, []int{1}, target["s"])

	_, err = redo.Redo()
	require.NoError(t, err)
	assert.Equal(t, []int{1, 0, 0, 9}, target["s"])
}

func TestRootReplacement(t *testing.T) {
	// An edit with an empty path swaps the whole target behind a pointer.
	var target any = 1

	undo, err := patch.NewEdit(patch.Path{}, "two").Apply(&target, false)
	require.NoError(t, err)
	assert.Equal(t, "two", target)

	redo, err := undo.Undo()
	require.NoError(t, err)
	assert.Equal(t, 1, target)

	_, err = redo.Redo()
	require.NoError(t, err)
	assert.Equal(t, "two", target)

	// Without a pointer there is nothing to reassign.
	_, err = patch.NewEdit(patch.Path{}, 3).Apply(target, false)
	assert.ErrorIs(t, err, patch.ErrPathMismatch)

	// Adds and removes have no root form.
	_, err = patch.NewRemove(patch.Path{}).Apply(&target, false)
	assert.ErrorIs(t, err, patch.ErrPathMismatch)
}

func TestRootSliceNeedsPointerTarget(t *testing.T) {
	var target any = []int{1, 2}

	_, err := patch.NewRemove(patch.Path{{Kind: node.KindSlice, Key: 0}}).Apply(target, false)
	assert.ErrorIs(t, err, patch.ErrPathMismatch)

	undo, err := patch.NewRemove(patch.Path{{Kind: node.KindSlice, Key: 0}}).Apply(&target, false)
	require.NoError(t, err)
	assert.Equal(t, []int{2}, target)

	_, err = undo.Undo()
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, target)
}

func TestSetOperations(t *testing.T) {
	target := linkedhashset.New(1, 2)

	undo, err := patch.NewAdd(patch.Path{{Kind: node.KindSet, Key: node.ContentHash(3)}}, 3).Apply(target, false)
	require.NoError(t, err)
	assert.True(t, target.Contains(3))

	_, err = undo.Undo()
	require.NoError(t, err)
	assert.False(t, target.Contains(3))

	// Members are addressable by the content hash of their value.
	undo, err = patch.NewRemove(patch.Path{{Kind: node.KindSet, Key: node.ContentHash(2)}}).Apply(target, false)
	require.NoError(t, err)
	assert.False(t, target.Contains(2))

	_, err = undo.Undo()
	require.NoError(t, err)
	assert.True(t, target.Contains(2))
}

func TestPathMismatches(t *testing.T) {
	target := map[string]any{"k": 1, "s": []int{1}}

	cases := []patch.Change{
		patch.NewEdit(patch.Path{}, 1),
		patch.NewEdit(mapPath("missing"), 1),
		patch.NewEdit(patch.Path{{Kind: node.KindSlice, Key: 0}}, 1),
		patch.NewEdit(slicePath(mapPath("s"), 7, false), 1),
		patch.NewEdit(mapPath("k", "nested"), 1),
		patch.NewRemove(mapPath("missing")),
	}
	for _, ch := range cases {
		_, err := ch.Apply(target, false)
		assert.ErrorIs(t, err, patch.ErrPathMismatch, "%s %s", ch.Op(), ch.Path())
	}

	_, err := patch.NewEdit(mapPath("k"), 1).Apply(nil, false)
	assert.ErrorIs(t, err, patch.ErrPathMismatch)

	// The failed terminal never mutates anything.
	assert.Equal(t, 1, target["k"])
	assert.Equal(t, []int{1}, target["s"])
}

func TestChangesApplyRollsBackOnFailure(t *testing.T) {
	var target any = map[string]any{"a": 1, "b": 2}

	cs := patch.Changes{
		patch.NewEdit(mapPath("a"), 10),
		patch.NewEdit(mapPath("missing"), 0),
	}
	_, err := cs.Apply(&target)
	assert.ErrorIs(t, err, patch.ErrPathMismatch)

	m := target.(map[string]any)
	assert.Equal(t, 1, m["a"], "applied prefix must be rolled back")
	assert.Equal(t, 2, m["b"])
}

func TestChangesListUndo(t *testing.T) {
	var target any = map[string]any{"a": 1}

	cs := patch.Changes{
		patch.NewEdit(mapPath("a"), 2),
		patch.NewAdd(mapPath("b"), 3),
	}
	undo, err := cs.Apply(&target)
	require.NoError(t, err)

	m := target.(map[string]any)
	assert.Equal(t, 2, m["a"])
	assert.Equal(t, 3, m["b"])

	require.NoError(t, undo.Undo())
	assert.Equal(t, 1, m["a"])
	_, ok := m["b"]
	assert.False(t, ok)
}

func TestMaterializedUndoDetachesPriorValues(t *testing.T) {
	prior := []any{1}
	target := map[string]any{"k": prior}

	undo, err := patch.NewEdit(mapPath("k"), "next").Apply(target, true)
	require.NoError(t, err)

	// Mutating the displaced instance must not leak into the restored state.
	prior[0] = 99

	_, err = undo.Undo()
	require.NoError(t, err)
	restored := target["k"].([]any)
	assert.Equal(t, 1, restored[0])
}
