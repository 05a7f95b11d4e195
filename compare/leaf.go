package compare

import (
	"bytes"
	"math"
	"reflect"
	"regexp"
	"strconv"
	"time"

	"graph-differ/node"
)

// compareLeaf applies the kind-specific rule for two leaves of the same kind.
func (c *Comparator) compareLeaf(l, r any, kind node.KindEnum) OutcomeEnum {
	switch kind {
	case node.KindNull:
		return OutcomeIdentical

	case node.KindString:
		ls, rs := l.(string), r.(string)
		if ls == rs {
			return OutcomeIdentical
		}
		// Locale-aware ordering: equal iff the collation comparison is zero.
		if c.coll.CompareString(ls, rs) == 0 {
			return OutcomeEqual
		}
		return OutcomeNotEqual

	case node.KindNumber:
		return c.compareNumbers(l, r)

	case node.KindTime:
		lt, rt := timeOf(l), timeOf(r)
		if lt.Equal(rt) {
			return OutcomeEqual
		}
		return OutcomeNotEqual

	case node.KindRegexp:
		lre, rre := l.(*regexp.Regexp), r.(*regexp.Regexp)
		if lre.String() == rre.String() {
			return OutcomeEqual
		}
		return OutcomeNotEqual

	case node.KindBytes:
		lb, rb := bytesOf(l), bytesOf(r)
		if len(lb) != len(rb) {
			return OutcomeNotEqual
		}
		if bytes.Equal(lb, rb) {
			return OutcomeEqual
		}
		return OutcomeNotEqual

	case node.KindBuffer:
		lb, rb := l.(*bytes.Buffer), r.(*bytes.Buffer)
		if lb.Len() != rb.Len() {
			return OutcomeNotEqual
		}
		if bytes.Equal(lb.Bytes(), rb.Bytes()) {
			return OutcomeEqual
		}
		return OutcomeNotEqual

	default:
		// Degenerate input falls back to identity, then optional loose
		// equality, then strict value equality. Never an error.
		if sameIdentity(l, r) {
			return OutcomeIdentical
		}
		if c.opts.LooseEquality {
			if out := c.looseLeaf(l, r); out.Equalish() {
				return out
			}
		}
		if reflect.DeepEqual(l, r) {
			return OutcomeEqual
		}
		return OutcomeNotEqual
	}
}

// compareNumbers: NaN on both sides is equal-but-distinct, NaN against a real
// number is not equal, identical values are identical, values within epsilon
// are equal-but-distinct.
func (c *Comparator) compareNumbers(l, r any) OutcomeEnum {
	lf, _ := node.NumberValue(l)
	rf, _ := node.NumberValue(r)

	switch {
	case math.IsNaN(lf) && math.IsNaN(rf):
		return OutcomeEqual
	case math.IsNaN(lf) || math.IsNaN(rf):
		return OutcomeNotEqual
	case sameIdentity(l, r):
		return OutcomeIdentical
	case math.Abs(lf-rf) <= c.opts.Epsilon:
		return OutcomeEqual
	default:
		return OutcomeNotEqual
	}
}

// looseLeaf is the relaxed cross-kind comparison: bools and number-like
// strings coerce to numbers before an epsilon comparison.
func (c *Comparator) looseLeaf(l, r any) OutcomeEnum {
	lf, lok := coerceNumber(l)
	rf, rok := coerceNumber(r)
	if !lok || !rok {
		return OutcomeNotEqual
	}
	if math.IsNaN(lf) && math.IsNaN(rf) {
		return OutcomeEqual
	}
	if math.Abs(lf-rf) <= c.opts.Epsilon {
		return OutcomeEqual
	}
	return OutcomeNotEqual
}

func coerceNumber(v any) (float64, bool) {
	if f, ok := node.NumberValue(v); ok {
		return f, true
	}
	switch t := v.(type) {
	case bool:
		if t {
			return 1, true
		}
		return 0, true
	case string:
		f, err := strconv.ParseFloat(t, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// sameIdentity reports whether two values are the same instance: equal
// reference identity for pointer-shaped values, strict equality for
// comparable value types.
func sameIdentity(l, r any) bool {
	if l == nil || r == nil {
		return l == nil && r == nil
	}

	lv, rv := reflect.ValueOf(l), reflect.ValueOf(r)
	if lv.Type() != rv.Type() {
		return false
	}

	switch lv.Kind() {
	case reflect.Ptr, reflect.Chan, reflect.Func, reflect.Map, reflect.UnsafePointer:
		return lv.Pointer() == rv.Pointer()
	case reflect.Slice:
		return lv.Pointer() == rv.Pointer() && lv.Len() == rv.Len()
	default:
		if !lv.Type().Comparable() {
			return false
		}
		return l == r
	}
}

func timeOf(v any) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t
	case *time.Time:
		return *t
	default:
		return time.Time{}
	}
}

func bytesOf(v any) []byte {
	if b, ok := v.([]byte); ok {
		return b
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Array && rv.Type().Elem().Kind() == reflect.Uint8 {
		out := make([]byte, rv.Len())
		reflect.Copy(reflect.ValueOf(out), rv)
		return out
	}
	return nil
}
