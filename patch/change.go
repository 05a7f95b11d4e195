package patch

import (
	"fmt"

	"graph-differ/utils"
)

type OpEnum int

const (
	_ OpEnum = iota // skip zero value, use it as a default (invalid) value for OpEnum

	OpAdd
	OpRemove
	OpEdit

	// OpTotal is a constant that represents the total number of operations defined
	OpTotal = int(iota)
)

func (o OpEnum) String() string {
	switch o {
	case OpAdd:
		return "add"
	case OpRemove:
		return "remove"
	case OpEdit:
		return "edit"
	default:
		return "invalid"
	}
}

// Change is one reversible edit operation. Apply mutates target at the
// change's path and returns an undo token; with materialize set, values held
// for undo are deep copies instead of the original instances, waiving the
// identity-for-identity restoration guarantee.
type Change interface {
	Op() OpEnum
	Path() Path
	Apply(target any, materialize bool) (*UndoToken, error)
}

// Add inserts a value at a path: a splice for insert-marked ordered-sequence
// segments, a plain set otherwise.
type Add struct {
	path  Path
	Value any
}

func NewAdd(p Path, v any) *Add { return &Add{path: p, Value: v} }

func (a *Add) Op() OpEnum { return OpAdd }
func (a *Add) Path() Path { return a.path }
func (a *Add) String() string {
	return fmt.Sprintf("add %s = %v", a.path, a.Value)
}

func (a *Add) Apply(target any, materialize bool) (*UndoToken, error) {
	return apply(target, a.path, OpAdd, a.Value, materialize)
}

// Remove deletes the value at a path. Record fields are reset to their zero
// value, mapping keys and sequence members are removed outright.
type Remove struct {
	path Path
}

func NewRemove(p Path) *Remove { return &Remove{path: p} }

func (r *Remove) Op() OpEnum { return OpRemove }
func (r *Remove) Path() Path { return r.path }
func (r *Remove) String() string {
	return fmt.Sprintf("remove %s", r.path)
}

func (r *Remove) Apply(target any, materialize bool) (*UndoToken, error) {
	return apply(target, r.path, OpRemove, nil, materialize)
}

// Edit replaces the value at a path.
type Edit struct {
	path  Path
	Value any
}

func NewEdit(p Path, v any) *Edit { return &Edit{path: p, Value: v} }

func (e *Edit) Op() OpEnum { return OpEdit }
func (e *Edit) Path() Path { return e.path }
func (e *Edit) String() string {
	return fmt.Sprintf("edit %s = %v", e.path, e.Value)
}

func (e *Edit) Apply(target any, materialize bool) (*UndoToken, error) {
	return apply(target, e.path, OpEdit, e.Value, materialize)
}

// UndoToken reverses one applied change.
type UndoToken struct {
	inverse     Change
	target      any
	materialize bool
}

// Undo restores the target to its pre-apply state.
func (u *UndoToken) Undo() (*RedoToken, error) {
	tok, err := u.inverse.Apply(u.target, u.materialize)
	if err != nil {
		return nil, err
	}
	return (*RedoToken)(tok), nil
}

// RedoToken re-applies an undone change.
type RedoToken UndoToken

// Redo re-applies the change this token's undo reversed.
func (r *RedoToken) Redo() (*UndoToken, error) {
	return r.inverse.Apply(r.target, r.materialize)
}

// Changes applies a whole diff in emission order. On the first failure every
// already-applied change is undone, so the target never observes a partially
// applied list.
type Changes []Change

func (cs Changes) Apply(target any) (*ListUndo, error) {
	applied := make([]*UndoToken, 0, len(cs))
	for _, ch := range cs {
		tok, err := ch.Apply(target, false)
		if err != nil {
			// Rollback of a just-applied change cannot miss its path.
			for _, u := range utils.Reverse(applied) {
				_, _ = u.Undo()
			}
			return nil, fmt.Errorf("applying %s %s: %w", ch.Op(), ch.Path(), err)
		}
		applied = append(applied, tok)
	}
	return &ListUndo{tokens: applied}, nil
}

// ListUndo undoes a whole applied change list in reverse order.
type ListUndo struct {
	tokens []*UndoToken
}

func (l *ListUndo) Undo() error {
	for i := len(l.tokens) - 1; i >= 0; i-- {
		if _, err := l.tokens[i].Undo(); err != nil {
			return err
		}
	}
	return nil
}
