// Package options carries the configuration recognized by the Equal, Diff and
// Clone entry points.
package options

import (
	"math"

	"graph-differ/node"
)

// Instantiator manufactures the bare base instance of a node's value during
// cloning, before children are attached. Returning false defers to the
// default strategy.
type Instantiator func(n *node.Node) (base any, ok bool)

type Options struct {
	// LooseEquality enables relaxed cross-kind leaf comparison
	// (number-like strings and bools coerce to numbers).
	LooseEquality bool
	// Epsilon is the numeric comparison tolerance. Zero means machine epsilon.
	Epsilon float64
	// LaxSliceOrder compares ordered sequences order-insensitively using
	// first-fit matching, not a minimum-edit alignment.
	LaxSliceOrder bool
	// StrictMapOrder preserves insertion position of gods maps, engaged only
	// when both sides hold the exact same key set.
	StrictMapOrder bool
	// StrictSetOrder preserves insertion position of sets, engaged only when
	// both sides hold the exact same membership.
	StrictSetOrder bool
	// GuardCycles tracks visited container identities and declines to descend
	// into one seen before.
	GuardCycles bool
	// CloneValues makes Diff embed deep copies of right-hand values in Add and
	// Edit changes instead of the original instances.
	CloneValues bool

	// Props is the record enumeration strategy. Nil means exported fields.
	Props node.Props
	// PropFilter drops individual record keys discovered by Props.
	PropFilter node.Filter
	// Instantiate overrides base-instance creation during cloning.
	Instantiate Instantiator
}

// MachineEpsilon is the default numeric tolerance.
var MachineEpsilon = math.Nextafter(1, 2) - 1

// Norm returns a defaults-filled copy; safe to call on a nil receiver.
func (o *Options) Norm() *Options {
	var out Options
	if o != nil {
		out = *o
	}
	if out.Epsilon == 0 {
		out.Epsilon = MachineEpsilon
	}
	if out.Props == nil {
		out.Props = node.ExportedFields
	}
	return &out
}
