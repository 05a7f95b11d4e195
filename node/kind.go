package node

import (
	"bytes"
	"reflect"
	"regexp"
	"time"

	"github.com/emirpasic/gods/maps"
	"github.com/emirpasic/gods/sets"
)

//go:generate go tool stringer -type=KindEnum -output=kind_string.go

type KindEnum int

const (
	_ KindEnum = iota // skip zero value, use it as a default (invalid) value for KindEnum

	KindNull
	KindBool
	KindNumber
	KindString
	KindSlice  // ordered sequence: slices and arrays
	KindSet    // unique-value collection: gods sets.Set
	KindMap    // keyed mapping: native maps and gods maps.Map
	KindStruct // record: struct or pointer to struct
	KindTime
	KindRegexp
	KindBytes  // []byte and byte arrays
	KindBuffer // *bytes.Buffer
	KindOther  // unclassifiable scalar: func, chan, complex, ...

	// KindTotal is a constant that represents the total number of kinds defined
	KindTotal = int(iota)
)

// IsContainer reports whether values of this kind have children.
func (k KindEnum) IsContainer() bool {
	switch k {
	default:
		return false
	case KindSlice, KindSet, KindMap, KindStruct:
		return true
	}
}

// IsLeaf reports whether values of this kind are compared directly by value.
func (k KindEnum) IsLeaf() bool {
	return k != KindEnum(0) && !k.IsContainer()
}

// IsMutableLeaf reports whether a leaf of this kind can be mutated in place
// and therefore must be copy-constructed when cloning.
func (k KindEnum) IsMutableLeaf() bool {
	switch k {
	default:
		return false
	case KindTime, KindRegexp, KindBytes, KindBuffer:
		return true
	}
}

// Classify computes the kind of an arbitrary value from its runtime shape.
// Nil interfaces, nil pointers, nil slices and nil maps all classify as KindNull.
func Classify(v any) KindEnum {
	if v == nil {
		return KindNull
	}

	switch t := v.(type) {
	case bool:
		return KindBool
	case string:
		return KindString
	case time.Time:
		return KindTime
	case *time.Time:
		if t == nil {
			return KindNull
		}
		return KindTime
	case *regexp.Regexp:
		if t == nil {
			return KindNull
		}
		return KindRegexp
	case *bytes.Buffer:
		if t == nil {
			return KindNull
		}
		return KindBuffer
	case []byte:
		if t == nil {
			return KindNull
		}
		return KindBytes
	}

	// gods containers are pointers to unexported structs, match by interface.
	if _, ok := v.(sets.Set); ok {
		return KindSet
	}
	if _, ok := v.(maps.Map); ok {
		return KindMap
	}

	return classifyReflect(reflect.ValueOf(v))
}

func classifyReflect(rv reflect.Value) KindEnum {
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return KindNumber
	case reflect.Bool:
		return KindBool
	case reflect.String:
		return KindString
	case reflect.Slice:
		if rv.IsNil() {
			return KindNull
		}
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return KindBytes
		}
		return KindSlice
	case reflect.Array:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return KindBytes
		}
		return KindSlice
	case reflect.Map:
		if rv.IsNil() {
			return KindNull
		}
		return KindMap
	case reflect.Struct:
		return KindStruct
	case reflect.Ptr:
		if rv.IsNil() {
			return KindNull
		}
		return classifyReflect(rv.Elem())
	default:
		return KindOther
	}
}

// NumberValue extracts a float64 view of any numeric value.
func NumberValue(v any) (float64, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	default:
		return 0, false
	}
}
