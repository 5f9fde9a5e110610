package eval

import (
	"math"
	"strings"

	"github.com/talekit/trigger/pkg/trigger/pattern"
	"github.com/talekit/trigger/pkg/trigger/value"
)

// Query is the predicate form of an object-query node: a dotted
// field path, an operator, and the already-evaluated comparison
// value. It is what a text-context evaluation of "path.op: value"
// yields, and what object-context evaluation applies to the record
// under test.
type Query struct {
	Path  string
	Op    string
	Value any
}

// Test applies the predicate to a candidate record. A record missing
// the queried field fails every operator, and any internal failure
// (an invalid pattern, a non-numeric comparison) reads as false.
func (q *Query) Test(record map[string]any) bool {
	field := resolvePath(record, q.Path)
	if value.IsUndefined(field) {
		return false
	}

	switch q.Op {
	case "equals":
		return value.LooseEquals(field, q.Value)
	case "contains", "includes":
		return strings.Contains(foldString(field), foldString(q.Value))
	case "startsWith":
		return strings.HasPrefix(foldString(field), foldString(q.Value))
	case "endsWith":
		return strings.HasSuffix(foldString(field), foldString(q.Value))
	case "match", "regex":
		p, ok := q.Value.(*pattern.Pattern)
		if !ok {
			var err error
			p, err = pattern.Compile(value.ToString(q.Value), "")
			if err != nil {
				return false
			}
		}
		return p.Match(value.ToString(field))
	case "gt", "lt", "gte", "lte":
		f := value.ToFloat64(field)
		v := value.ToFloat64(q.Value)
		if math.IsNaN(f) || math.IsNaN(v) {
			return false
		}
		switch q.Op {
		case "gt":
			return f > v
		case "lt":
			return f < v
		case "gte":
			return f >= v
		default:
			return f <= v
		}
	default:
		return false
	}
}

// resolvePath walks a dotted path through nested records, returning
// undefined as soon as a segment is missing or the intermediate
// value is not a record.
func resolvePath(record map[string]any, path string) any {
	var current any = record
	for _, segment := range strings.Split(path, ".") {
		m, ok := current.(map[string]any)
		if !ok {
			return value.Undefined{}
		}
		current, ok = m[segment]
		if !ok {
			return value.Undefined{}
		}
	}
	return current
}

// foldString coerces to a lower-cased string: the substring and
// prefix operators compare case-insensitively, matching the posture
// of the text-matching builtins.
func foldString(v any) string {
	return strings.ToLower(value.ToString(v))
}
