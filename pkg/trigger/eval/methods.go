package eval

import (
	"fmt"
	"strings"

	"github.com/talekit/trigger/pkg/trigger/value"
)

// callMethod dispatches a method call on an evaluated receiver.
// Strings carry the usual text predicates and case conversions;
// lists carry the higher-order methods whose function argument is an
// arrow closure over the ambient scope. An unknown method or an
// undefined receiver is an evaluation error, which the public entry
// points collapse to false.
func (c *Compiled) callMethod(recv any, name string, args []any) (any, error) {
	switch r := recv.(type) {
	case string:
		return stringMethod(r, name, args)
	case []any:
		return listMethod(r, name, args)
	case map[string]any:
		if name == "has" && len(args) > 0 {
			_, ok := r[value.ToString(args[0])]
			return ok, nil
		}
	case nil, value.Undefined:
		return nil, fmt.Errorf("%w: %s of undefined", ErrUnknownMethod, name)
	}
	return nil, fmt.Errorf("%w: %s on %T", ErrUnknownMethod, name, recv)
}

func stringMethod(recv, name string, args []any) (any, error) {
	arg := func(i int) string {
		if i >= len(args) {
			return ""
		}
		return value.ToString(args[i])
	}
	switch name {
	case "includes", "contains":
		return strings.Contains(recv, arg(0)), nil
	case "startsWith":
		return strings.HasPrefix(recv, arg(0)), nil
	case "endsWith":
		return strings.HasSuffix(recv, arg(0)), nil
	case "toLowerCase":
		return strings.ToLower(recv), nil
	case "toUpperCase":
		return strings.ToUpper(recv), nil
	case "trim":
		return strings.TrimSpace(recv), nil
	case "indexOf":
		return float64(strings.Index(recv, arg(0))), nil
	default:
		return nil, fmt.Errorf("%w: %s on string", ErrUnknownMethod, name)
	}
}

func listMethod(recv []any, name string, args []any) (any, error) {
	switch name {
	case "includes", "contains":
		if len(args) == 0 {
			return false, nil
		}
		for _, item := range recv {
			if value.LooseEquals(item, args[0]) {
				return true, nil
			}
		}
		return false, nil
	case "join":
		sep := ","
		if len(args) > 0 {
			sep = value.ToString(args[0])
		}
		parts := make([]string, len(recv))
		for i, item := range recv {
			parts[i] = value.ToString(item)
		}
		return strings.Join(parts, sep), nil
	case "filter", "map", "some", "every", "find":
		fn, err := functionArg(name, args)
		if err != nil {
			return nil, err
		}
		return iterate(recv, name, fn)
	default:
		return nil, fmt.Errorf("%w: %s on list", ErrUnknownMethod, name)
	}
}

func functionArg(method string, args []any) (callable, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("%w: %s wants a function argument", ErrNotCallable, method)
	}
	fn, ok := args[0].(callable)
	if !ok {
		return nil, fmt.Errorf("%w: %s argument", ErrNotCallable, method)
	}
	return fn, nil
}

func iterate(items []any, method string, fn callable) (any, error) {
	switch method {
	case "filter":
		var kept []any
		for _, item := range items {
			v, err := fn.call([]any{item})
			if err != nil {
				return nil, err
			}
			if value.IsTruthy(v) {
				kept = append(kept, item)
			}
		}
		return kept, nil
	case "map":
		mapped := make([]any, len(items))
		for i, item := range items {
			v, err := fn.call([]any{item})
			if err != nil {
				return nil, err
			}
			mapped[i] = v
		}
		return mapped, nil
	case "some":
		for _, item := range items {
			v, err := fn.call([]any{item})
			if err != nil {
				return nil, err
			}
			if value.IsTruthy(v) {
				return true, nil
			}
		}
		return false, nil
	case "every":
		for _, item := range items {
			v, err := fn.call([]any{item})
			if err != nil {
				return nil, err
			}
			if !value.IsTruthy(v) {
				return false, nil
			}
		}
		return true, nil
	default: // "find"
		for _, item := range items {
			v, err := fn.call([]any{item})
			if err != nil {
				return nil, err
			}
			if value.IsTruthy(v) {
				return item, nil
			}
		}
		return value.Undefined{}, nil
	}
}
