// Package value defines the runtime value conventions shared by the
// evaluator and the builtin function library: the undefined marker,
// truthiness, numeric and string coercion, and the loose and strict
// equality rules.
//
// Values are plain Go data: float64 and the integer kinds for
// numbers, string, bool, nil for null, map[string]any for records,
// []any for lists, and Undefined for absent data.
package value

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
)

// Undefined marks a lookup that resolved to nothing: a missing
// record field, an absent binding, an out-of-range index. It is
// falsy, loosely equal to null, and numerically NaN.
type Undefined struct{}

// String implements fmt.Stringer.
func (Undefined) String() string { return "undefined" }

// IsUndefined reports whether v is the undefined marker.
func IsUndefined(v any) bool {
	_, ok := v.(Undefined)
	return ok
}

// IsNullish reports whether v is nil or undefined.
func IsNullish(v any) bool {
	return v == nil || IsUndefined(v)
}

// IsTruthy reports whether a value reads as true in a condition.
// nil, undefined, false, empty strings, zero, and NaN are falsy;
// everything else is truthy.
func IsTruthy(v any) bool {
	switch val := v.(type) {
	case nil, Undefined:
		return false
	case bool:
		return val
	case string:
		return val != ""
	case float64:
		return val != 0 && !math.IsNaN(val)
	case float32:
		return val != 0
	case int:
		return val != 0
	case int64:
		return val != 0
	case int32:
		return val != 0
	default:
		return true
	}
}

// ToFloat64 coerces a value for numeric comparison. Booleans read as
// 0 or 1, the empty string as 0, unparseable strings and undefined
// as NaN (so ordered comparisons against them are always false), and
// nil as 0.
func ToFloat64(v any) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case float32:
		return float64(val)
	case int:
		return float64(val)
	case int64:
		return float64(val)
	case int32:
		return float64(val)
	case bool:
		if val {
			return 1
		}
		return 0
	case nil:
		return 0
	case Undefined:
		return math.NaN()
	case string:
		s := strings.TrimSpace(val)
		if s == "" {
			return 0
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
		return math.NaN()
	default:
		return math.NaN()
	}
}

// ToString coerces a value for substring, prefix, and pattern tests.
// Numbers render without a trailing ".0", booleans as "true"/"false",
// nil and undefined as the empty string, and lists comma-joined.
func ToString(v any) string {
	switch val := v.(type) {
	case nil, Undefined:
		return ""
	case string:
		return val
	case bool:
		if val {
			return "true"
		}
		return "false"
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case int32:
		return strconv.FormatInt(int64(val), 10)
	case []any:
		parts := make([]string, len(val))
		for i, item := range val {
			parts[i] = ToString(item)
		}
		return strings.Join(parts, ",")
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprintf("%v", val)
	}
}

// isNumeric reports whether v is one of the numeric kinds.
func isNumeric(v any) bool {
	switch v.(type) {
	case float64, float32, int, int64, int32:
		return true
	default:
		return false
	}
}

// LooseEquals compares with cross-type coercion: null and undefined
// are equal to each other, numbers compare numerically across kinds,
// a string or boolean against a number coerces to a number, and
// anything else falls back to deep equality.
func LooseEquals(a, b any) bool {
	if IsNullish(a) || IsNullish(b) {
		return IsNullish(a) && IsNullish(b)
	}
	if isNumeric(a) && isNumeric(b) {
		return ToFloat64(a) == ToFloat64(b)
	}
	sa, aIsStr := a.(string)
	sb, bIsStr := b.(string)
	if aIsStr && bIsStr {
		return sa == sb
	}
	ba, aIsBool := a.(bool)
	bb, bIsBool := b.(bool)
	if aIsBool && bIsBool {
		return ba == bb
	}
	// Mixed string/bool/number pairs coerce numerically.
	if (aIsStr || aIsBool || isNumeric(a)) && (bIsStr || bIsBool || isNumeric(b)) {
		fa, fb := ToFloat64(a), ToFloat64(b)
		if math.IsNaN(fa) || math.IsNaN(fb) {
			return false
		}
		return fa == fb
	}
	return reflect.DeepEqual(a, b)
}

// StrictEquals compares without coercion beyond normalizing the
// numeric kinds: both sides must be the same class and equal.
func StrictEquals(a, b any) bool {
	if isNumeric(a) && isNumeric(b) {
		return ToFloat64(a) == ToFloat64(b)
	}
	if isNumeric(a) != isNumeric(b) {
		return false
	}
	switch av := a.(type) {
	case nil:
		return b == nil
	case Undefined:
		return IsUndefined(b)
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	default:
		return reflect.DeepEqual(a, b)
	}
}
