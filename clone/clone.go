// Package clone manufactures structurally independent copies of value graphs
// over the single-graph traversal framework. Immutable leaves are reused,
// mutable leaves and containers are copy-constructed, and an opt-in cycle
// guard reattaches the existing copy of a revisited original.
package clone

import (
	"bytes"
	"fmt"
	"reflect"
	"regexp"
	"time"

	"github.com/emirpasic/gods/maps"
	"github.com/emirpasic/gods/maps/hashmap"
	"github.com/emirpasic/gods/maps/linkedhashmap"
	"github.com/emirpasic/gods/sets"
	"github.com/emirpasic/gods/sets/hashset"
	"github.com/emirpasic/gods/sets/linkedhashset"

	"graph-differ/node"
	"graph-differ/options"
	"graph-differ/traverse"
)

// Clone returns a deep copy of v. Recursion depth equals graph depth; enable
// GuardCycles in opts for self-referential graphs.
func Clone(v any, opts *options.Options) (any, error) {
	c := &cloner{
		opts:  opts.Norm(),
		slots: map[*node.Node]reflect.Value{},
	}
	ctx := traverse.NewContext(c.opts)

	vis := traverse.Visitor{
		Struct:    c.container,
		Map:       c.container,
		Set:       c.container,
		Slice:     c.container,
		Otherwise: c.leaf,
		Post:      c.post,
	}
	traverse.Walk(node.NewRoot(v), vis, ctx)

	if c.err != nil {
		return nil, c.err
	}
	return c.result, nil
}

type cloner struct {
	opts  *options.Options
	slots map[*node.Node]reflect.Value

	// Parallel identity lists: revisiting an already-cloned original
	// reattaches the existing copy instead of recursing forever.
	seenIDs []uintptr
	copies  []any

	result any
	err    error
}

func (c *cloner) container(n *node.Node, _ *traverse.Context) (traverse.ActionEnum, []*node.Node) {
	if c.opts.GuardCycles {
		if id, ok := traverse.IdentityOf(n.Value); ok {
			for i, seen := range c.seenIDs {
				if seen == id {
					c.attach(n, reflect.ValueOf(c.copies[i]))
					return traverse.ActionSkip, nil
				}
			}
		}
	}

	base, descend, err := c.instantiate(n)
	if err != nil {
		c.err = err
		return traverse.ActionStop, nil
	}

	if c.opts.GuardCycles {
		if id, ok := traverse.IdentityOf(n.Value); ok {
			c.seenIDs = append(c.seenIDs, id)
			c.copies = append(c.copies, base.Interface())
		}
	}

	if !descend {
		c.attach(n, base)
		return traverse.ActionSkip, nil
	}
	c.slots[n] = base
	return traverse.ActionDescend, nil
}

func (c *cloner) leaf(n *node.Node, _ *traverse.Context) (traverse.ActionEnum, []*node.Node) {
	base, _, err := c.instantiate(n)
	if err != nil {
		c.err = err
		return traverse.ActionStop, nil
	}
	c.attach(n, base)
	return traverse.ActionSkip, nil
}

// post attaches a completed container into its parent. Attachment waits for
// the children so value-typed containers (struct values, arrays) are full
// before the parent stores a copy of them.
func (c *cloner) post(n *node.Node, _ *traverse.Context) {
	if base, ok := c.slots[n]; ok {
		c.attach(n, base)
	}
}

func (c *cloner) attach(n *node.Node, v reflect.Value) {
	if c.err != nil {
		return
	}
	if n.Parent == nil {
		if v.IsValid() {
			c.result = v.Interface()
		}
		return
	}

	parent, ok := c.slots[n.Parent]
	if !ok {
		panic("child attach requested outside of its container's traversal")
	}

	switch n.Parent.Kind() {
	case node.KindStruct:
		sv := derefValue(parent)
		f := sv.FieldByName(n.Key.(string))
		if f.IsValid() && f.CanSet() {
			f.Set(fit(v, f.Type()))
		}
	case node.KindMap:
		if gm, ok := parent.Interface().(maps.Map); ok {
			gm.Put(n.Key, iface(v))
			return
		}
		mv := derefValue(parent)
		mv.SetMapIndex(fit(reflect.ValueOf(n.Key), mv.Type().Key()), fit(v, mv.Type().Elem()))
	case node.KindSet:
		parent.Interface().(sets.Set).Add(iface(v))
	case node.KindSlice:
		sv := derefValue(parent)
		sv.Index(n.Position).Set(fit(v, sv.Type().Elem()))
	}
}

// instantiate manufactures the bare base instance for a node: the caller's
// strategy first, then the default per-kind rules. descend=false means the
// instance is final and children are not walked (reused leaves, opaque
// containers copied wholesale).
func (c *cloner) instantiate(n *node.Node) (base reflect.Value, descend bool, err error) {
	if c.opts.Instantiate != nil {
		if v, ok := c.opts.Instantiate(n); ok {
			return reflect.ValueOf(v), n.Kind().IsContainer(), nil
		}
	}

	switch n.Kind() {
	case node.KindNull:
		return reflect.Value{}, false, nil

	case node.KindBool, node.KindNumber, node.KindString, node.KindOther:
		// Immutable (or identity-bearing opaque) leaves are reused as-is.
		return reflect.ValueOf(n.Value), false, nil

	case node.KindTime:
		if p, ok := n.Value.(*time.Time); ok {
			t := *p
			return reflect.ValueOf(&t), false, nil
		}
		return reflect.ValueOf(n.Value), false, nil

	case node.KindRegexp:
		re := n.Value.(*regexp.Regexp)
		return reflect.ValueOf(regexp.MustCompile(re.String())), false, nil

	case node.KindBytes:
		return cloneBytes(n.Value), false, nil

	case node.KindBuffer:
		buf := n.Value.(*bytes.Buffer)
		cp := bytes.NewBuffer(append([]byte(nil), buf.Bytes()...))
		return reflect.ValueOf(cp), false, nil

	case node.KindSet:
		switch n.Value.(type) {
		case *linkedhashset.Set:
			return reflect.ValueOf(linkedhashset.New()), true, nil
		case *hashset.Set:
			return reflect.ValueOf(hashset.New()), true, nil
		default:
			// Unknown collection implementation: reuse rather than fail.
			return reflect.ValueOf(n.Value), false, nil
		}

	case node.KindMap:
		switch n.Value.(type) {
		case *linkedhashmap.Map:
			return reflect.ValueOf(linkedhashmap.New()), true, nil
		case *hashmap.Map:
			return reflect.ValueOf(hashmap.New()), true, nil
		}
		if gm, ok := n.Value.(maps.Map); ok {
			return reflect.ValueOf(gm), false, nil
		}
		rv := reflect.ValueOf(n.Value)
		return reflect.MakeMapWithSize(rv.Type(), rv.Len()), true, nil

	case node.KindSlice:
		rv := reflect.ValueOf(n.Value)
		ptr := rv.Kind() == reflect.Ptr
		if ptr {
			rv = rv.Elem()
		}
		var out reflect.Value
		if rv.Kind() == reflect.Array {
			out = reflect.New(rv.Type()).Elem()
		} else {
			out = reflect.MakeSlice(rv.Type(), rv.Len(), rv.Len())
		}
		if ptr {
			p := reflect.New(out.Type())
			p.Elem().Set(out)
			out = p
		}
		return out, true, nil

	case node.KindStruct:
		rv := reflect.ValueOf(n.Value)
		if rv.Kind() == reflect.Ptr {
			return reflect.New(rv.Type().Elem()), true, nil
		}
		return reflect.New(rv.Type()).Elem(), true, nil

	default:
		return reflect.Value{}, false, fmt.Errorf("cannot instantiate value of kind %s", n.Kind())
	}
}

func cloneBytes(v any) reflect.Value {
	if b, ok := v.([]byte); ok {
		return reflect.ValueOf(append([]byte(nil), b...))
	}
	rv := reflect.ValueOf(v)
	out := reflect.New(rv.Type()).Elem()
	reflect.Copy(out, rv)
	return out
}

func fit(v reflect.Value, t reflect.Type) reflect.Value {
	if !v.IsValid() {
		return reflect.Zero(t)
	}
	if v.Type().AssignableTo(t) {
		return v
	}
	return reflect.Zero(t)
}

func iface(v reflect.Value) any {
	if !v.IsValid() {
		return nil
	}
	return v.Interface()
}

func derefValue(v reflect.Value) reflect.Value {
	for v.Kind() == reflect.Ptr && !v.IsNil() {
		v = v.Elem()
	}
	return v
}
