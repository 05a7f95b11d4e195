package patch

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/emirpasic/gods/maps"
	"github.com/emirpasic/gods/sets"

	"graph-differ/clone"
	"graph-differ/node"
	"graph-differ/utils"
)

// ErrPathMismatch reports that a change's path does not resolve against the
// given target: the target is not structurally consistent with the graph the
// change was generated from. The target is never left partially mutated.
var ErrPathMismatch = errors.New("path does not resolve against target")

type frame struct {
	owner reflect.Value // concrete container this segment steps through
	seg   Segment
}

type mutation struct {
	prior    any
	priorOK  bool
	grewFrom int // prior length of a grown sequence, -1 otherwise
}

func apply(target any, p Path, op OpEnum, value any, materialize bool) (*UndoToken, error) {
	if len(p) == 0 {
		// Two unequal root leaves diff to an Edit with an empty path: the
		// whole target is replaced through a pointer.
		if op != OpEdit {
			return nil, fmt.Errorf("%w: empty path for %s", ErrPathMismatch, op)
		}
		return replaceRoot(target, value, materialize)
	}

	root, frames, err := resolve(target, p)
	if err != nil {
		return nil, err
	}

	res, err := mutate(root, frames, op, value)
	if err != nil {
		return nil, err
	}

	inv, err := buildInverse(p, op, value, res, materialize)
	if err != nil {
		return nil, err
	}
	return &UndoToken{inverse: inv, target: target, materialize: materialize}, nil
}

// resolve validates the full path against the target before anything mutates:
// apply succeeds or fails atomically for a single change.
func resolve(target any, p Path) (reflect.Value, []frame, error) {
	rv := reflect.ValueOf(target)
	if !rv.IsValid() {
		return reflect.Value{}, nil, fmt.Errorf("%w: nil target", ErrPathMismatch)
	}
	if rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return reflect.Value{}, nil, fmt.Errorf("%w: nil target pointer", ErrPathMismatch)
		}
		switch target.(type) {
		case maps.Map, sets.Set:
			// Keyed collections are pointer-shaped already, keep them whole.
		default:
			rv = rv.Elem()
		}
	}

	frames := make([]frame, 0, len(p))
	cur := rv
	for i, seg := range p {
		cur = concrete(cur)
		if !cur.IsValid() {
			return reflect.Value{}, nil, fmt.Errorf("%w: nil container at %s", ErrPathMismatch, p[:i])
		}
		if got := node.Classify(cur.Interface()); got != seg.Kind {
			return reflect.Value{}, nil, fmt.Errorf("%w: expected %s at %s, found %s",
				ErrPathMismatch, seg.Kind, p[:i], got)
		}
		frames = append(frames, frame{owner: cur, seg: seg})
		if i == len(p)-1 {
			break
		}
		child, err := stepInto(cur, seg, p[:i+1])
		if err != nil {
			return reflect.Value{}, nil, err
		}
		cur = child
	}
	return rv, frames, nil
}

func stepInto(owner reflect.Value, seg Segment, at Path) (reflect.Value, error) {
	switch seg.Kind {
	case node.KindStruct:
		name, ok := seg.Key.(string)
		if !ok {
			return reflect.Value{}, fmt.Errorf("%w: record key %v at %s is not a field name", ErrPathMismatch, seg.Key, at)
		}
		f := derefValue(owner).FieldByName(name)
		if !f.IsValid() {
			return reflect.Value{}, fmt.Errorf("%w: no field %q at %s", ErrPathMismatch, name, at)
		}
		return f, nil

	case node.KindMap:
		if gm, ok := owner.Interface().(maps.Map); ok {
			v, found := gm.Get(seg.Key)
			if !found {
				return reflect.Value{}, fmt.Errorf("%w: no key %v at %s", ErrPathMismatch, seg.Key, at)
			}
			return reflect.ValueOf(v), nil
		}
		mv := derefValue(owner)
		kv, err := convertTo(seg.Key, mv.Type().Key(), at)
		if err != nil {
			return reflect.Value{}, err
		}
		v := mv.MapIndex(kv)
		if !v.IsValid() {
			return reflect.Value{}, fmt.Errorf("%w: no key %v at %s", ErrPathMismatch, seg.Key, at)
		}
		return v, nil

	case node.KindSet:
		vals := owner.Interface().(sets.Set).Values()
		idx, err := locateSetMember(vals, seg.Key, at)
		if err != nil {
			return reflect.Value{}, err
		}
		return reflect.ValueOf(vals[idx]), nil

	case node.KindSlice:
		sv := derefValue(owner)
		idx, ok := seg.Key.(int)
		if !ok || !utils.IsInRange(0, idx, sv.Len()-1) {
			return reflect.Value{}, fmt.Errorf("%w: index %v out of range at %s", ErrPathMismatch, seg.Key, at)
		}
		return sv.Index(idx), nil

	default:
		return reflect.Value{}, fmt.Errorf("%w: cannot step through %s at %s", ErrPathMismatch, seg.Kind, at)
	}
}

// mutate performs the terminal operation. Every failure mode is checked
// before the first write; replaced containers (grown sequences, copied record
// values) are written back up the frame chain afterwards.
func mutate(root reflect.Value, frames []frame, op OpEnum, value any) (mutation, error) {
	last := len(frames) - 1
	fr := frames[last]
	res := mutation{grewFrom: -1}

	switch fr.seg.Kind {
	case node.KindStruct:
		return mutateStruct(root, frames, op, value)

	case node.KindMap:
		return mutateMap(fr, op, value)

	case node.KindSet:
		return mutateSet(fr, op, value)

	case node.KindSlice:
		return mutateSlice(root, frames, op, value)

	default:
		return res, fmt.Errorf("%w: cannot apply %s through %s", ErrPathMismatch, op, fr.seg.Kind)
	}
}

func mutateStruct(root reflect.Value, frames []frame, op OpEnum, value any) (mutation, error) {
	last := len(frames) - 1
	fr := frames[last]
	res := mutation{grewFrom: -1}

	name, ok := fr.seg.Key.(string)
	if !ok {
		return res, fmt.Errorf("%w: record key %v is not a field name", ErrPathMismatch, fr.seg.Key)
	}
	sv := derefValue(fr.owner)
	f := sv.FieldByName(name)
	if !f.IsValid() {
		return res, fmt.Errorf("%w: no field %q at %s", ErrPathMismatch, name, pathOfFrames(frames))
	}

	next := value
	if op == OpRemove {
		next = nil // record fields reset to zero, they cannot be deleted
	}
	nv, err := convertTo(next, f.Type(), pathOfFrames(frames))
	if err != nil {
		return res, err
	}

	res.prior, res.priorOK = f.Interface(), true
	if f.CanSet() {
		f.Set(nv)
		return res, nil
	}

	// Value-typed record inside a mapping: mutate a copy, write it back.
	tmp := reflect.New(sv.Type()).Elem()
	tmp.Set(sv)
	tmp.FieldByName(name).Set(nv)
	if err := writeBack(root, frames, last, tmp); err != nil {
		return mutation{grewFrom: -1}, err
	}
	return res, nil
}

func mutateMap(fr frame, op OpEnum, value any) (mutation, error) {
	res := mutation{grewFrom: -1}

	if gm, ok := fr.owner.Interface().(maps.Map); ok {
		prior, found := gm.Get(fr.seg.Key)
		if !found && op != OpAdd {
			return res, fmt.Errorf("%w: no key %v for %s", ErrPathMismatch, fr.seg.Key, op)
		}
		res.prior, res.priorOK = prior, found
		if op == OpRemove {
			gm.Remove(fr.seg.Key)
		} else {
			gm.Put(fr.seg.Key, value)
		}
		return res, nil
	}

	mv := derefValue(fr.owner)
	kv, err := convertTo(fr.seg.Key, mv.Type().Key(), nil)
	if err != nil {
		return res, err
	}
	existing := mv.MapIndex(kv)
	if !existing.IsValid() && op != OpAdd {
		return res, fmt.Errorf("%w: no key %v for %s", ErrPathMismatch, fr.seg.Key, op)
	}
	if existing.IsValid() {
		res.prior, res.priorOK = existing.Interface(), true
	}

	if op == OpRemove {
		mv.SetMapIndex(kv, reflect.Value{})
		return res, nil
	}
	nv, err := convertTo(value, mv.Type().Elem(), nil)
	if err != nil {
		return res, err
	}
	mv.SetMapIndex(kv, nv)
	return res, nil
}

func mutateSet(fr frame, op OpEnum, value any) (mutation, error) {
	res := mutation{grewFrom: -1}
	s := fr.owner.Interface().(sets.Set)

	if op == OpAdd {
		s.Add(value)
		return res, nil
	}

	vals := s.Values()
	idx, err := locateSetMember(vals, fr.seg.Key, nil)
	if err != nil {
		return res, err
	}
	res.prior, res.priorOK = vals[idx], true

	if op == OpRemove {
		vals = append(vals[:idx], vals[idx+1:]...)
	} else {
		vals[idx] = value
	}
	rebuildSet(s, vals)
	return res, nil
}

func mutateSlice(root reflect.Value, frames []frame, op OpEnum, value any) (mutation, error) {
	last := len(frames) - 1
	fr := frames[last]
	res := mutation{grewFrom: -1}

	sv := derefValue(fr.owner)
	idx, ok := fr.seg.Key.(int)
	if !ok || idx < 0 {
		return res, fmt.Errorf("%w: sequence index %v", ErrPathMismatch, fr.seg.Key)
	}
	elemType := sv.Type().Elem()

	switch {
	case op == OpEdit, op == OpAdd && !fr.seg.Insert && idx < sv.Len():
		if idx >= sv.Len() {
			return res, fmt.Errorf("%w: index %d out of range for %s", ErrPathMismatch, idx, op)
		}
		nv, err := convertTo(value, elemType, pathOfFrames(frames))
		if err != nil {
			return res, err
		}
		res.prior, res.priorOK = sv.Index(idx).Interface(), true
		sv.Index(idx).Set(nv)
		return res, nil

	case op == OpAdd && fr.seg.Insert:
		if idx > sv.Len() {
			return res, fmt.Errorf("%w: insert index %d beyond length %d", ErrPathMismatch, idx, sv.Len())
		}
		nv, err := convertTo(value, elemType, pathOfFrames(frames))
		if err != nil {
			return res, err
		}
		// Fresh backing array: a reused one would alias the pre-apply state
		// that undo must restore.
		ns := reflect.MakeSlice(sv.Type(), sv.Len()+1, sv.Len()+1)
		reflect.Copy(ns.Slice(0, idx), sv.Slice(0, idx))
		ns.Index(idx).Set(nv)
		reflect.Copy(ns.Slice(idx+1, ns.Len()), sv.Slice(idx, sv.Len()))
		return res, replaceOwner(root, frames, last, ns, sv)

	case op == OpAdd: // plain set past the end: grow with zero values
		res.grewFrom = sv.Len()
		ns := reflect.MakeSlice(sv.Type(), idx+1, idx+1)
		reflect.Copy(ns, sv)
		nv, err := convertTo(value, elemType, pathOfFrames(frames))
		if err != nil {
			return mutation{grewFrom: -1}, err
		}
		ns.Index(idx).Set(nv)
		return res, replaceOwner(root, frames, last, ns, sv)

	case op == OpRemove:
		if idx >= sv.Len() {
			return res, fmt.Errorf("%w: index %d out of range for remove", ErrPathMismatch, idx)
		}
		res.prior, res.priorOK = sv.Index(idx).Interface(), true
		ns := reflect.MakeSlice(sv.Type(), sv.Len()-1, sv.Len()-1)
		reflect.Copy(ns.Slice(0, idx), sv.Slice(0, idx))
		reflect.Copy(ns.Slice(idx, ns.Len()), sv.Slice(idx+1, sv.Len()))
		return res, replaceOwner(root, frames, last, ns, sv)

	default:
		return res, fmt.Errorf("%w: cannot apply %s to a sequence", ErrPathMismatch, op)
	}
}

// replaceOwner installs a rebuilt sequence either in place, when the owner is
// settable, or up the frame chain.
func replaceOwner(root reflect.Value, frames []frame, idx int, ns, old reflect.Value) error {
	if old.CanSet() {
		old.Set(ns)
		return nil
	}
	return writeBack(root, frames, idx, ns)
}

// replaceRoot swaps the entire target value behind a pointer.
func replaceRoot(target any, value any, materialize bool) (*UndoToken, error) {
	rv := reflect.ValueOf(target)
	if !rv.IsValid() || rv.Kind() != reflect.Ptr || rv.IsNil() {
		return nil, fmt.Errorf("%w: replacing the root requires a pointer target", ErrPathMismatch)
	}

	root := rv.Elem()
	prior := root.Interface()
	nv, err := convertTo(value, root.Type(), nil)
	if err != nil {
		return nil, err
	}
	if materialize {
		cloned, err := clone.Clone(prior, nil)
		if err != nil {
			return nil, fmt.Errorf("materializing prior value: %w", err)
		}
		prior = cloned
	}
	root.Set(nv)

	return &UndoToken{inverse: NewEdit(nil, prior), target: target, materialize: materialize}, nil
}

// writeBack installs a replaced container into the nearest ancestor that can
// absorb it in place. Falls back to replacing the root, which requires the
// target to have been passed as a pointer.
func writeBack(root reflect.Value, frames []frame, idx int, nv reflect.Value) error {
	cur := nv
	for j := idx - 1; j >= 0; j-- {
		fr := frames[j]
		switch fr.seg.Kind {
		case node.KindMap:
			if gm, ok := fr.owner.Interface().(maps.Map); ok {
				gm.Put(fr.seg.Key, cur.Interface())
				return nil
			}
			mv := derefValue(fr.owner)
			kv, err := convertTo(fr.seg.Key, mv.Type().Key(), nil)
			if err != nil {
				return err
			}
			ev, err := convertTo(cur.Interface(), mv.Type().Elem(), nil)
			if err != nil {
				return err
			}
			mv.SetMapIndex(kv, ev)
			return nil

		case node.KindSlice:
			sv := derefValue(fr.owner)
			i := fr.seg.Key.(int)
			ev, err := convertTo(cur.Interface(), sv.Type().Elem(), nil)
			if err != nil {
				return err
			}
			sv.Index(i).Set(ev)
			return nil

		case node.KindSet:
			s := fr.owner.Interface().(sets.Set)
			vals := s.Values()
			i, err := locateSetMember(vals, fr.seg.Key, nil)
			if err != nil {
				return err
			}
			vals[i] = cur.Interface()
			rebuildSet(s, vals)
			return nil

		case node.KindStruct:
			sv := derefValue(fr.owner)
			f := sv.FieldByName(fr.seg.Key.(string))
			ev, err := convertTo(cur.Interface(), f.Type(), nil)
			if err != nil {
				return err
			}
			if f.CanSet() {
				f.Set(ev)
				return nil
			}
			tmp := reflect.New(sv.Type()).Elem()
			tmp.Set(sv)
			tmp.FieldByName(fr.seg.Key.(string)).Set(ev)
			cur = tmp
		}
	}

	if !root.CanSet() {
		return fmt.Errorf("%w: target must be a pointer to replace its root container", ErrPathMismatch)
	}
	ev, err := convertTo(cur.Interface(), root.Type(), nil)
	if err != nil {
		return err
	}
	root.Set(ev)
	return nil
}

func buildInverse(p Path, op OpEnum, value any, res mutation, materialize bool) (Change, error) {
	prior := res.prior
	if materialize && res.priorOK {
		cloned, err := clone.Clone(prior, nil)
		if err != nil {
			return nil, fmt.Errorf("materializing prior value: %w", err)
		}
		prior = cloned
	}

	term := p[len(p)-1]
	switch op {
	case OpEdit:
		return NewEdit(p, prior), nil

	case OpAdd:
		switch term.Kind {
		case node.KindSlice:
			if term.Insert {
				return NewRemove(p.withInsert(false)), nil
			}
			if res.grewFrom >= 0 {
				return &trim{path: p, length: res.grewFrom, back: NewAdd(p, value)}, nil
			}
			return NewEdit(p, prior), nil
		case node.KindSet:
			return NewRemove(withSetKey(p, node.ContentHash(value))), nil
		default:
			if res.priorOK {
				return NewEdit(p, prior), nil
			}
			return NewRemove(p), nil
		}

	case OpRemove:
		switch term.Kind {
		case node.KindSlice:
			return NewAdd(p.withInsert(true), prior), nil
		case node.KindSet:
			return NewAdd(withSetKey(p, node.ContentHash(prior)), prior), nil
		case node.KindStruct:
			return NewEdit(p, prior), nil
		default:
			return NewAdd(p, prior), nil
		}

	default:
		panic("inverse requested for an invalid operation")
	}
}

// trim restores the prior length of a sequence grown by an out-of-range add.
type trim struct {
	path   Path
	length int
	back   Change
}

func (t *trim) Op() OpEnum { return OpRemove }
func (t *trim) Path() Path { return t.path }

func (t *trim) Apply(target any, materialize bool) (*UndoToken, error) {
	root, frames, err := resolve(target, t.path)
	if err != nil {
		return nil, err
	}
	sv := derefValue(frames[len(frames)-1].owner)
	if sv.Len() < t.length {
		return nil, fmt.Errorf("%w: sequence shorter than pre-apply length %d", ErrPathMismatch, t.length)
	}
	ns := reflect.MakeSlice(sv.Type(), t.length, t.length)
	reflect.Copy(ns, sv)
	if err := replaceOwner(root, frames, len(frames)-1, ns, sv); err != nil {
		return nil, err
	}
	return &UndoToken{inverse: t.back, target: target, materialize: materialize}, nil
}

func locateSetMember(vals []any, key any, at Path) (int, error) {
	switch k := key.(type) {
	case int:
		if !utils.IsInRange(0, k, len(vals)-1) {
			return 0, fmt.Errorf("%w: collection position %d out of range at %s", ErrPathMismatch, k, at)
		}
		return k, nil
	case string:
		for i, v := range vals {
			if node.ContentHash(v) == k {
				return i, nil
			}
		}
		return 0, fmt.Errorf("%w: no collection member with content key %s at %s", ErrPathMismatch, k, at)
	default:
		return 0, fmt.Errorf("%w: collection key %v at %s", ErrPathMismatch, key, at)
	}
}

func rebuildSet(s sets.Set, vals []any) {
	s.Clear()
	s.Add(vals...)
}

func withSetKey(p Path, key string) Path {
	out := make(Path, len(p))
	copy(out, p)
	out[len(out)-1].Key = key
	return out
}

func pathOfFrames(frames []frame) Path {
	out := make(Path, len(frames))
	for i, fr := range frames {
		out[i] = fr.seg
	}
	return out
}

func convertTo(v any, t reflect.Type, at Path) (reflect.Value, error) {
	if v == nil {
		return reflect.Zero(t), nil
	}
	rv := reflect.ValueOf(v)
	if rv.Type().AssignableTo(t) {
		return rv, nil
	}
	// Conversion is restricted to numeric widening/narrowing; anything wider
	// (int to string, say) silently changes meaning.
	if isNumeric(rv.Type()) && isNumeric(t) && rv.Type().ConvertibleTo(t) {
		return rv.Convert(t), nil
	}
	return reflect.Value{}, fmt.Errorf("%w: value of type %s does not fit %s at %s", ErrPathMismatch, rv.Type(), t, at)
}

func isNumeric(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}

func concrete(v reflect.Value) reflect.Value {
	for v.Kind() == reflect.Interface {
		v = v.Elem()
	}
	return v
}

func derefValue(v reflect.Value) reflect.Value {
	for v.Kind() == reflect.Ptr && !v.IsNil() {
		v = v.Elem()
	}
	return v
}
