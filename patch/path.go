// Package patch models reversible edit operations: Add, Remove and Edit
// changes addressed by a root-to-target path. Applying a change yields an
// undo token that restores the pre-apply state; undoing yields a redo token.
//
// Paths stay valid for replay against any structurally equal copy of the
// graph they were generated from, not just the exact instance.
package patch

import (
	"fmt"
	"strings"

	"graph-differ/node"
)

// Segment is one path step: the kind of the container being stepped through
// and the key used to reach the next value. Keys are field names for records,
// map keys for keyed mappings, integer indices for ordered sequences, and a
// position or content hash for unique-value-collection members.
type Segment struct {
	Kind node.KindEnum
	Key  any
	// Insert marks an ordered-sequence terminal that splices the value in
	// rather than overwriting the index.
	Insert bool
}

func (s Segment) String() string {
	if s.Insert {
		return fmt.Sprintf("%v+", s.Key)
	}
	return fmt.Sprint(s.Key)
}

// Path addresses one value, root to target.
type Path []Segment

func (p Path) String() string {
	parts := make([]string, len(p))
	for i, s := range p {
		parts[i] = s.String()
	}
	return "/" + strings.Join(parts, "/")
}

// withInsert returns a copy of the path with the terminal insert marker set
// or cleared.
func (p Path) withInsert(insert bool) Path {
	out := make(Path, len(p))
	copy(out, p)
	if len(out) > 0 {
		out[len(out)-1].Insert = insert
	}
	return out
}
