// Package node holds the graph node model shared by the traversal, comparison,
// diff and clone machinery: a uniform wrapper around one value carrying its
// classified kind, its owner, the key that locates it within the owner, and a
// lazily computed child-key list.
//
// Nodes are created fresh for every traversal and discarded with it; the kind
// and the child-key list are computed at most once per node and never change
// afterwards.
package node

import (
	"fmt"
	"reflect"
	"sort"

	"github.com/emirpasic/gods/maps"
)

// NoPosition marks a node whose parent does not expose a stable ordinal for it.
const NoPosition = -1

// Node describes one value within a traversal.
type Node struct {
	// Value is the underlying datum.
	Value any
	// Parent is the owning node, nil for the root. Used only for path
	// reconstruction; a node never owns its parent.
	Parent *Node
	// Key is the name/index/position by which Parent reaches this node:
	// a field name for structs, an index for slices, the map key for maps.
	// Nil for set members unless strict ordering assigned a position.
	Key any
	// Position is the stable ordinal within the parent's child enumeration,
	// NoPosition when the parent exposes none.
	Position int

	kind      KindEnum
	childKeys []any
	keysDone  bool
}

// NewRoot wraps a root value.
func NewRoot(v any) *Node {
	return &Node{Value: v, Position: NoPosition}
}

// NewChild wraps a child value reached from parent by key.
func NewChild(parent *Node, v any, key any, position int) *Node {
	return &Node{Value: v, Parent: parent, Key: key, Position: position}
}

// Kind classifies the node's value on first use and pins the result.
func (n *Node) Kind() KindEnum {
	if n.kind == KindEnum(0) {
		n.kind = Classify(n.Value)
	}
	return n.kind
}

// ChildKeys returns the node's child keys, computing and caching them on first
// use. Struct keys come from the enumeration strategy, gods map keys keep
// insertion order, native map keys are sorted by display form so enumeration
// stays deterministic. Non-record, non-mapping kinds have no child keys.
func (n *Node) ChildKeys(props Props, filter Filter) []any {
	if n.keysDone {
		return n.childKeys
	}
	n.keysDone = true

	switch n.Kind() {
	case KindStruct:
		rv := deref(reflect.ValueOf(n.Value))
		for _, name := range props(rv) {
			if filter != nil && !filter(n.Value, name) {
				continue
			}
			n.childKeys = append(n.childKeys, name)
		}
	case KindMap:
		if gm, ok := n.Value.(maps.Map); ok {
			n.childKeys = append(n.childKeys, gm.Keys()...)
			break
		}
		rv := reflect.ValueOf(n.Value)
		keys := rv.MapKeys()
		sort.Slice(keys, func(i, j int) bool {
			return fmt.Sprint(keys[i].Interface()) < fmt.Sprint(keys[j].Interface())
		})
		for _, k := range keys {
			n.childKeys = append(n.childKeys, k.Interface())
		}
	}

	return n.childKeys
}

// Get resolves a child value of a record or keyed mapping by key.
func Get(container any, key any) (any, bool) {
	if gm, ok := container.(maps.Map); ok {
		return gm.Get(key)
	}

	rv := deref(reflect.ValueOf(container))
	switch rv.Kind() {
	case reflect.Map:
		kv := reflect.ValueOf(key)
		if !kv.IsValid() || !kv.Type().AssignableTo(rv.Type().Key()) {
			return nil, false
		}
		val := rv.MapIndex(kv)
		if !val.IsValid() {
			return nil, false
		}
		return val.Interface(), true
	case reflect.Struct:
		name, ok := key.(string)
		if !ok {
			return nil, false
		}
		f := rv.FieldByName(name)
		if !f.IsValid() {
			return nil, false
		}
		return f.Interface(), true
	default:
		return nil, false
	}
}

func deref(rv reflect.Value) reflect.Value {
	for rv.Kind() == reflect.Ptr && !rv.IsNil() {
		rv = rv.Elem()
	}
	return rv
}
