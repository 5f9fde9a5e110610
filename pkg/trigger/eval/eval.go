// Package eval compiles a parsed trigger expression into an
// evaluator and walks the tree against an evaluation input.
//
// A Compiled evaluator is immutable: it captures only the AST and
// its context kind, so one evaluator may be invoked repeatedly and
// concurrently with different inputs. All runtime failures surface
// as errors from Run; Test collapses them to false so a malformed
// expression can never abort the caller's processing step.
package eval

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/talekit/trigger/pkg/trigger/ast"
	"github.com/talekit/trigger/pkg/trigger/builtin"
	"github.com/talekit/trigger/pkg/trigger/value"
)

// Context selects what a compiled expression evaluates against.
type Context int

const (
	// Text evaluates against a block of narrative text.
	Text Context = iota
	// Object evaluates against a structured record.
	Object
)

// String returns the context name used in logs and cache keys.
func (c Context) String() string {
	if c == Object {
		return "object"
	}
	return "text"
}

// Runtime failure modes.
var (
	ErrNotCallable   = errors.New("value is not callable")
	ErrUnknownMethod = errors.New("unknown method")
)

// Input carries everything one evaluation may read: the value under
// test, the caller's ambient bindings, host globals, and the builtin
// table. Inputs are read-only to the evaluator.
type Input struct {
	// Text is the narrative text under test. Builtin text-matching
	// functions always receive it as their implicit first argument.
	Text string

	// Record is the structured record under test in object context.
	Record map[string]any

	// Bindings are the caller's per-evaluation ambient namespaces,
	// conventionally a state-like and an info-like map plus the raw
	// input. Missing names resolve to undefined.
	Bindings map[string]any

	// Globals is the host-global fallback scope.
	Globals map[string]any

	// Builtins is the function table consulted after record fields.
	Builtins *builtin.Registry
}

// Compiled is an evaluator produced from one AST root and context
// kind. Safe for concurrent use.
type Compiled struct {
	root ast.Node
	kind Context
}

// Compile wraps an AST root as an evaluator for the given context.
func Compile(root ast.Node, kind Context) *Compiled {
	return &Compiled{root: root, kind: kind}
}

// Context returns the context kind the evaluator was built for.
func (c *Compiled) Context() Context { return c.kind }

// Run evaluates the expression and returns its raw value.
func (c *Compiled) Run(in Input) (any, error) {
	sc := &scope{in: &in, kind: c.kind}
	return c.eval(c.root, sc)
}

// Test evaluates the expression as a predicate: errors and falsy
// results read as false.
func (c *Compiled) Test(in Input) bool {
	v, err := c.Run(in)
	if err != nil {
		return false
	}
	return value.IsTruthy(v)
}

func (c *Compiled) eval(n ast.Node, sc *scope) (any, error) {
	switch node := n.(type) {
	case *ast.Literal:
		switch node.Kind {
		case ast.Null:
			return nil, nil
		case ast.Undefined:
			return value.Undefined{}, nil
		default:
			return node.Value, nil
		}

	case *ast.Identifier:
		return sc.resolve(node.Name), nil

	case *ast.Member:
		return c.evalMember(node, sc)

	case *ast.Call:
		return c.evalCall(node, sc)

	case *ast.Unary:
		operand, err := c.eval(node.Operand, sc)
		if err != nil {
			return nil, err
		}
		switch node.Op {
		case "!":
			return !value.IsTruthy(operand), nil
		case "-":
			return -value.ToFloat64(operand), nil
		default: // "+"
			return value.ToFloat64(operand), nil
		}

	case *ast.Binary:
		left, err := c.eval(node.Left, sc)
		if err != nil {
			return nil, err
		}
		right, err := c.eval(node.Right, sc)
		if err != nil {
			return nil, err
		}
		return evalBinary(node.Op, left, right), nil

	case *ast.Logical:
		left, err := c.eval(node.Left, sc)
		if err != nil {
			return nil, err
		}
		// Short circuit: the right operand is not evaluated once the
		// left side determines the result.
		if node.Op == "&&" {
			if !value.IsTruthy(left) {
				return left, nil
			}
		} else {
			if value.IsTruthy(left) {
				return left, nil
			}
		}
		return c.eval(node.Right, sc)

	case *ast.Arrow:
		return &closure{param: node.Param, body: node.Body, sc: sc, c: c}, nil

	case *ast.ObjectQuery:
		rv, err := c.eval(node.Value, sc)
		if err != nil {
			return nil, err
		}
		q := &Query{Path: node.Path, Op: node.Op, Value: rv}
		// In object context the predicate applies immediately to the
		// record under test, so queries compose under && and ||.
		if c.kind == Object {
			return q.Test(sc.in.Record), nil
		}
		return q, nil

	default:
		return nil, fmt.Errorf("unsupported node %T", n)
	}
}

func (c *Compiled) evalCall(node *ast.Call, sc *scope) (any, error) {
	// Method call: callee is a non-computed member expression.
	if member, ok := node.Callee.(*ast.Member); ok && !member.Computed {
		recv, err := c.eval(member.Object, sc)
		if err != nil {
			return nil, err
		}
		name := member.Property.(*ast.Identifier).Name
		args, err := c.evalArgs(node.Args, sc)
		if err != nil {
			return nil, err
		}
		return c.callMethod(recv, name, args)
	}

	fn, err := c.eval(node.Callee, sc)
	if err != nil {
		return nil, err
	}
	target, ok := fn.(callable)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotCallable, describeCallee(node.Callee))
	}
	args, err := c.evalArgs(node.Args, sc)
	if err != nil {
		return nil, err
	}
	return target.call(args)
}

func (c *Compiled) evalArgs(nodes []ast.Node, sc *scope) ([]any, error) {
	args := make([]any, len(nodes))
	for i, n := range nodes {
		v, err := c.eval(n, sc)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	return args, nil
}

func (c *Compiled) evalMember(node *ast.Member, sc *scope) (any, error) {
	recv, err := c.eval(node.Object, sc)
	if err != nil {
		return nil, err
	}

	var key any
	if node.Computed {
		key, err = c.eval(node.Property, sc)
		if err != nil {
			return nil, err
		}
	} else {
		key = node.Property.(*ast.Identifier).Name
	}
	return member(recv, key), nil
}

// member resolves one property access. Absent properties and
// unsupported receivers read as undefined rather than failing.
func member(recv, key any) any {
	switch r := recv.(type) {
	case map[string]any:
		if v, ok := r[value.ToString(key)]; ok {
			return v
		}
		return value.Undefined{}
	case []any:
		if s, ok := key.(string); ok && s == "length" {
			return float64(len(r))
		}
		idx := value.ToFloat64(key)
		if math.IsNaN(idx) || idx < 0 || int(idx) >= len(r) {
			return value.Undefined{}
		}
		return r[int(idx)]
	case string:
		if s, ok := key.(string); ok && s == "length" {
			return float64(len([]rune(r)))
		}
		rs := []rune(r)
		idx := value.ToFloat64(key)
		if math.IsNaN(idx) || idx < 0 || int(idx) >= len(rs) {
			return value.Undefined{}
		}
		return string(rs[int(idx)])
	default:
		return value.Undefined{}
	}
}

func evalBinary(op string, left, right any) any {
	switch op {
	case "+":
		if _, ok := left.(string); ok {
			return left.(string) + value.ToString(right)
		}
		if _, ok := right.(string); ok {
			return value.ToString(left) + right.(string)
		}
		return value.ToFloat64(left) + value.ToFloat64(right)
	case "-":
		return value.ToFloat64(left) - value.ToFloat64(right)
	case "*":
		return value.ToFloat64(left) * value.ToFloat64(right)
	case "/":
		return value.ToFloat64(left) / value.ToFloat64(right)
	case "%":
		return math.Mod(value.ToFloat64(left), value.ToFloat64(right))
	case "==":
		return value.LooseEquals(left, right)
	case "!=":
		return !value.LooseEquals(left, right)
	case "===":
		return value.StrictEquals(left, right)
	case "!==":
		return !value.StrictEquals(left, right)
	default:
		ls, lok := left.(string)
		rs, rok := right.(string)
		if lok && rok {
			return compareOrdered(op, strings.Compare(ls, rs) < 0, ls == rs, strings.Compare(ls, rs) > 0)
		}
		lf, rf := value.ToFloat64(left), value.ToFloat64(right)
		if math.IsNaN(lf) || math.IsNaN(rf) {
			return false
		}
		return compareOrdered(op, lf < rf, lf == rf, lf > rf)
	}
}

func compareOrdered(op string, less, equal, greater bool) bool {
	switch op {
	case "<":
		return less
	case "<=":
		return less || equal
	case ">":
		return greater
	case ">=":
		return greater || equal
	default:
		return false
	}
}

func describeCallee(n ast.Node) string {
	if id, ok := n.(*ast.Identifier); ok {
		return id.Name
	}
	return "expression"
}
