package node

import (
	"encoding/hex"

	"github.com/davecgh/go-spew/spew"
	"lukechampine.com/blake3"
)

// Canonical rendering: map keys sorted, no addresses or capacities, so the
// same content always dumps to the same bytes regardless of instance identity.
var dumper = spew.ConfigState{
	Indent:                  " ",
	SortKeys:                true,
	DisablePointerAddresses: true,
	DisableCapacities:       true,
	DisableMethods:          true,
}

// ContentHash returns a stable hash of a value's content. It keys members of
// unique-value collections in diff paths, where no natural key exists: the
// hash stays meaningful against any structurally equal copy of the graph.
func ContentHash(v any) string {
	sum := blake3.Sum256([]byte(dumper.Sdump(v)))
	return hex.EncodeToString(sum[:])
}
