package node

import "reflect"

// Props selects which keys of a record are visible to the engine as children.
// The engine never invents its own enumeration policy.
type Props func(record reflect.Value) []string

// Filter decides per key whether a record child discovered by a Props strategy
// is kept.
type Filter func(owner any, key string) bool

// ExportedFields is the default enumeration strategy: every exported field of
// the struct, in declaration order.
func ExportedFields(record reflect.Value) []string {
	if record.Kind() != reflect.Struct {
		return nil
	}

	t := record.Type()
	keys := make([]string, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		if f := t.Field(i); f.IsExported() {
			keys = append(keys, f.Name)
		}
	}
	return keys
}
