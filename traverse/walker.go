// Package traverse implements the single-graph walker: it classifies a node's
// kind, discovers its children through the pluggable enumeration strategy, and
// invokes kind-specific visit hooks. A hook can stop the whole walk, decline
// to descend, or substitute an explicit child list.
package traverse

import (
	"reflect"

	"github.com/emirpasic/gods/maps"
	"github.com/emirpasic/gods/sets"

	"graph-differ/node"
	"graph-differ/options"
)

type ActionEnum int

const (
	// ActionDescend continues into the node's children.
	ActionDescend ActionEnum = iota
	// ActionSkip keeps walking siblings but not this node's children.
	ActionSkip
	// ActionStop aborts the traversal, propagated through all ancestors.
	ActionStop
)

// VisitFunc is one kind-specific visit hook. A non-nil node list substitutes
// the returned nodes for the node's discovered children.
type VisitFunc func(n *node.Node, ctx *Context) (ActionEnum, []*node.Node)

// Visitor is the capability set a consumer implements. Nil hooks default to
// descend. Post, when set, runs after a container's children were walked;
// consumers that assemble a result bottom-up (cloning) hang on to it.
type Visitor struct {
	Struct    VisitFunc
	Map       VisitFunc
	Set       VisitFunc
	Slice     VisitFunc
	Otherwise VisitFunc
	Post      func(n *node.Node, ctx *Context)
}

func (v Visitor) pick(k node.KindEnum) VisitFunc {
	switch k {
	case node.KindStruct:
		if v.Struct != nil {
			return v.Struct
		}
	case node.KindMap:
		if v.Map != nil {
			return v.Map
		}
	case node.KindSet:
		if v.Set != nil {
			return v.Set
		}
	case node.KindSlice:
		if v.Slice != nil {
			return v.Slice
		}
	}
	return v.Otherwise
}

// Context is the per-walk accumulator: options plus the visited-identity list
// for circular-reference detection. One Context serves exactly one top-level
// call; nothing here is shared across calls.
type Context struct {
	Opts    *options.Options
	visited []uintptr
}

func NewContext(opts *options.Options) *Context {
	return &Context{Opts: opts.Norm()}
}

// seen registers an identity and reports whether it was already present.
// Linear scan: identity lists stay small for realistic graphs.
func (c *Context) seen(id uintptr) bool {
	for _, v := range c.visited {
		if v == id {
			return true
		}
	}
	c.visited = append(c.visited, id)
	return false
}

// IdentityOf returns a cycle-tracking identity for a value. Only values with
// reference semantics carry one; value-typed data cannot form cycles.
func IdentityOf(v any) (uintptr, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func, reflect.UnsafePointer:
		return rv.Pointer(), true
	default:
		return 0, false
	}
}

// Walk visits n and, unless the hook declines, its children. Returns
// ActionStop when a hook aborted the traversal.
func Walk(n *node.Node, vis Visitor, ctx *Context) ActionEnum {
	kind := n.Kind()

	var (
		act      = ActionDescend
		explicit []*node.Node
	)
	if fn := vis.pick(kind); fn != nil {
		act, explicit = fn(n, ctx)
	}
	if act != ActionDescend {
		return act
	}
	if !kind.IsContainer() {
		return ActionDescend
	}

	if ctx.Opts.GuardCycles {
		if id, ok := IdentityOf(n.Value); ok && ctx.seen(id) {
			// Already fully visited elsewhere: children are not re-walked,
			// but the node still completes.
			if vis.Post != nil {
				vis.Post(n, ctx)
			}
			return ActionDescend
		}
	}

	children := explicit
	if children == nil {
		children = Children(n, ctx.Opts)
	}
	for _, child := range children {
		if Walk(child, vis, ctx) == ActionStop {
			return ActionStop
		}
	}
	if vis.Post != nil {
		vis.Post(n, ctx)
	}
	return ActionDescend
}

// Children builds one child node per discovered key/index/member of a
// container node, in enumeration order.
func Children(n *node.Node, opts *options.Options) []*node.Node {
	switch n.Kind() {
	case node.KindStruct:
		keys := n.ChildKeys(opts.Props, opts.PropFilter)
		out := make([]*node.Node, 0, len(keys))
		for _, k := range keys {
			v, _ := node.Get(n.Value, k)
			// Record children carry no position so ordering never
			// affects their comparison.
			out = append(out, node.NewChild(n, v, k, node.NoPosition))
		}
		return out

	case node.KindMap:
		keys := n.ChildKeys(opts.Props, opts.PropFilter)
		_, ordered := n.Value.(maps.Map)
		out := make([]*node.Node, 0, len(keys))
		for i, k := range keys {
			v, _ := node.Get(n.Value, k)
			pos := node.NoPosition
			if ordered {
				pos = i
			}
			out = append(out, node.NewChild(n, v, k, pos))
		}
		return out

	case node.KindSet:
		vals := n.Value.(sets.Set).Values()
		out := make([]*node.Node, 0, len(vals))
		for i, v := range vals {
			out = append(out, node.NewChild(n, v, nil, i))
		}
		return out

	case node.KindSlice:
		rv := reflect.ValueOf(n.Value)
		for rv.Kind() == reflect.Ptr {
			rv = rv.Elem()
		}
		out := make([]*node.Node, 0, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			out = append(out, node.NewChild(n, rv.Index(i).Interface(), i, i))
		}
		return out

	default:
		return nil
	}
}
