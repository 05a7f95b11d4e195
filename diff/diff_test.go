package diff_test

import (
	"testing"

	"github.com/emirpasic/gods/maps/linkedhashmap"
	"github.com/emirpasic/gods/sets/linkedhashset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"graph-differ/clone"
	"graph-differ/compare"
	"graph-differ/diff"
	"graph-differ/options"
	"graph-differ/patch"
)

// roundTrip applies the diff between left and right to a deep copy of left and
// checks the result compares equal to right; the list undo must then restore
// the copy to compare equal to left again.
func roundTrip(t *testing.T, left, right any, opts *options.Options) patch.Changes {
	t.Helper()

	changes, err := diff.Diff(left, right, opts)
	require.NoError(t, err)

	target, err := clone.Clone(left, opts)
	require.NoError(t, err)

	undo, err := changes.Apply(&target)
	require.NoError(t, err)
	eq, _ := compare.Equal(target, right, opts)
	assert.True(t, eq, "after apply: got %v, want %v", target, right)

	require.NoError(t, undo.Undo())
	eq, _ = compare.Equal(target, left, opts)
	assert.True(t, eq, "after undo: got %v, want %v", target, left)

	return changes
}

func TestDiffEqualGraphsAreEmpty(t *testing.T) {
	changes, err := diff.Diff(map[string]any{}, map[string]any{}, nil)
	require.NoError(t, err)
	assert.Empty(t, changes)

	changes, err = diff.Diff(
		map[string]any{"a": 1, "b": []any{"x", 2.0}},
		map[string]any{"a": 1, "b": []any{"x", 2.0}}, nil)
	require.NoError(t, err)
	assert.Empty(t, changes)
}

func TestDiffMapAddition(t *testing.T) {
	left := map[string]any{"a": 1}
	right := map[string]any{"a": 1, "b": 2}

	changes := roundTrip(t, left, right, nil)
	require.Len(t, changes, 1)
	assert.Equal(t, patch.OpAdd, changes[0].Op())
	assert.Equal(t, "/b", changes[0].Path().String())
}

func TestDiffMapRemoval(t *testing.T) {
	left := map[string]any{"a": 1, "b": 2}
	right := map[string]any{"a": 1}

	changes := roundTrip(t, left, right, nil)
	require.Len(t, changes, 1)
	assert.Equal(t, patch.OpRemove, changes[0].Op())
	assert.Equal(t, "/b", changes[0].Path().String())
}

func TestDiffNullToValueIsAnEdit(t *testing.T) {
	// A null value is still a value: the key exists on both sides.
	left := map[string]any{"k": nil}
	right := map[string]any{"k": "v"}

	changes := roundTrip(t, left, right, nil)
	require.Len(t, changes, 1)
	assert.Equal(t, patch.OpEdit, changes[0].Op())
	assert.Equal(t, "/k", changes[0].Path().String())
}

func TestDiffNestedEdit(t *testing.T) {
	left := map[string]any{"a": map[string]any{"x": 1, "y": true}}
	right := map[string]any{"a": map[string]any{"x": 2, "y": true}}

	changes := roundTrip(t, left, right, nil)
	require.Len(t, changes, 1)
	assert.Equal(t, patch.OpEdit, changes[0].Op())
	assert.Equal(t, "/a/x", changes[0].Path().String())
}

func TestDiffStrictSliceTailFirst(t *testing.T) {
	// Differences come out tail first so earlier indices stay valid while
	// later ones are being applied.
	left := map[string]any{"s": []any{1, 2, 3}}
	right := map[string]any{"s": []any{1, 5}}

	changes := roundTrip(t, left, right, nil)
	require.Len(t, changes, 2)
	assert.Equal(t, patch.OpRemove, changes[0].Op())
	assert.Equal(t, "/s/2", changes[0].Path().String())
	assert.Equal(t, patch.OpEdit, changes[1].Op())
	assert.Equal(t, "/s/1", changes[1].Path().String())
}

func TestDiffStrictSliceGrowth(t *testing.T) {
	left := map[string]any{"s": []any{1}}
	right := map[string]any{"s": []any{1, 2, 3}}

	changes := roundTrip(t, left, right, nil)
	require.Len(t, changes, 2)
	assert.Equal(t, "/s/2", changes[0].Path().String())
	assert.Equal(t, "/s/1", changes[1].Path().String())
}

func TestDiffLaxPermutationIsEmpty(t *testing.T) {
	lax := &options.Options{LaxSliceOrder: true}
	changes, err := diff.Diff([]any{1, 2, 3}, []any{3, 1, 2}, lax)
	require.NoError(t, err)
	assert.Empty(t, changes)
}

func TestDiffLaxSliceSplice(t *testing.T) {
	lax := &options.Options{LaxSliceOrder: true}
	left := map[string]any{"s": []any{1, 2, 3}}
	right := map[string]any{"s": []any{2, 2, 3}}

	changes := roundTrip(t, left, right, lax)
	require.Len(t, changes, 2)
	assert.Equal(t, patch.OpRemove, changes[0].Op())
	assert.Equal(t, "/s/0", changes[0].Path().String())
	assert.Equal(t, patch.OpAdd, changes[1].Op())
	assert.Equal(t, "/s/1+", changes[1].Path().String())
}

func TestDiffSets(t *testing.T) {
	left := map[string]any{"tags": linkedhashset.New(1, 2)}
	right := map[string]any{"tags": linkedhashset.New(1, 3)}

	changes := roundTrip(t, left, right, nil)
	require.Len(t, changes, 2)
	assert.Equal(t, patch.OpRemove, changes[0].Op())
	assert.Equal(t, patch.OpAdd, changes[1].Op())
}

func TestDiffLeafRoots(t *testing.T) {
	changes := roundTrip(t, 1, 2, nil)
	require.Len(t, changes, 1)
	assert.Equal(t, patch.OpEdit, changes[0].Op())
	assert.Equal(t, "/", changes[0].Path().String())

	roundTrip(t, "a", "b", nil)
	roundTrip(t, nil, true, nil)
}

func TestDiffStrictSetOrderRoundTrip(t *testing.T) {
	strict := &options.Options{StrictSetOrder: true}

	// A moved member is deleted tail first and re-appended in final order.
	changes := roundTrip(t, linkedhashset.New(1, 2), linkedhashset.New(2, 1), strict)
	require.Len(t, changes, 4)
	assert.Equal(t, patch.OpRemove, changes[0].Op())
	assert.Equal(t, patch.OpRemove, changes[1].Op())
	assert.Equal(t, patch.OpAdd, changes[2].Op())
	assert.Equal(t, patch.OpAdd, changes[3].Op())

	// Members still in place are untouched.
	changes = roundTrip(t, linkedhashset.New("a", "b", "c"), linkedhashset.New("a", "c", "b"), strict)
	assert.Len(t, changes, 4)
}

func TestDiffStrictMapOrderRoundTrip(t *testing.T) {
	strict := &options.Options{StrictMapOrder: true}

	left := linkedhashmap.New()
	left.Put("a", 1)
	left.Put("b", 2)
	right := linkedhashmap.New()
	right.Put("b", 2)
	right.Put("a", 1)

	changes := roundTrip(t, left, right, strict)
	require.Len(t, changes, 4)
	assert.Equal(t, patch.OpRemove, changes[0].Op())
	assert.Equal(t, "/b", changes[0].Path().String())
	assert.Equal(t, patch.OpRemove, changes[1].Op())
	assert.Equal(t, "/a", changes[1].Path().String())
	assert.Equal(t, patch.OpAdd, changes[2].Op())
	assert.Equal(t, "/b", changes[2].Path().String())
	assert.Equal(t, patch.OpAdd, changes[3].Op())
	assert.Equal(t, "/a", changes[3].Path().String())

	// A key in its slot with a changed value stays a plain edit.
	edited := linkedhashmap.New()
	edited.Put("a", 9)
	edited.Put("b", 2)
	changes = roundTrip(t, left, edited, strict)
	require.Len(t, changes, 1)
	assert.Equal(t, patch.OpEdit, changes[0].Op())
	assert.Equal(t, "/a", changes[0].Path().String())
}

func TestDiffRecords(t *testing.T) {
	type profile struct {
		Name string
		Age  int
	}

	changes := roundTrip(t,
		map[string]any{"p": &profile{Name: "a", Age: 1}},
		map[string]any{"p": &profile{Name: "a", Age: 2}}, nil)
	require.Len(t, changes, 1)
	assert.Equal(t, patch.OpEdit, changes[0].Op())
	assert.Equal(t, "/p/Age", changes[0].Path().String())
}

func TestDiffFindsAllSiblingDifferences(t *testing.T) {
	left := map[string]any{"a": 1, "b": 2, "c": 3}
	right := map[string]any{"a": 9, "b": 2, "c": 9}

	changes := roundTrip(t, left, right, nil)
	assert.Len(t, changes, 2)
}

func TestDiffCloneValuesDetachesEmbeds(t *testing.T) {
	inner := map[string]any{"x": 1}
	left := map[string]any{}
	right := map[string]any{"k": inner}

	changes, err := diff.Diff(left, right, &options.Options{CloneValues: true})
	require.NoError(t, err)
	require.Len(t, changes, 1)

	add := changes[0].(*patch.Add)
	embedded := add.Value.(map[string]any)
	embedded["x"] = 99
	assert.Equal(t, 1, inner["x"], "embedded value must not alias the right graph")
}
