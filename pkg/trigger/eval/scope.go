package eval

import (
	"github.com/talekit/trigger/pkg/trigger/ast"
	"github.com/talekit/trigger/pkg/trigger/builtin"
	"github.com/talekit/trigger/pkg/trigger/value"
)

// scope is the evaluator's name-resolution chain. Arrow-function
// invocations extend it with one local binding; the base scope
// consults, in fixed priority order: the record's own fields (object
// context only), the builtin table, the caller's ambient bindings,
// and the host globals. Names that resolve nowhere read as undefined
// so expressions over absent data degrade to falsy comparisons.
type scope struct {
	in   *Input
	kind Context

	// One arrow parameter per frame; nil parent marks the base.
	parent *scope
	name   string
	val    any
}

// child extends the scope with an arrow parameter binding.
func (s *scope) child(name string, v any) *scope {
	return &scope{
		in:     s.in,
		kind:   s.kind,
		parent: s,
		name:   name,
		val:    v,
	}
}

func (s *scope) resolve(name string) any {
	// Innermost arrow parameters shadow everything.
	for frame := s; frame.parent != nil; frame = frame.parent {
		if frame.name == name {
			return frame.val
		}
	}

	base := s
	for base.parent != nil {
		base = base.parent
	}
	in := base.in

	if base.kind == Object && in.Record != nil {
		if v, ok := in.Record[name]; ok {
			return v
		}
	}
	if in.Builtins != nil {
		if fn, ok := in.Builtins.Get(name); ok {
			return &builtinFunc{name: name, fn: fn, text: in.Text}
		}
	}
	if v, ok := in.Bindings[name]; ok {
		return v
	}
	if v, ok := in.Globals[name]; ok {
		return v
	}
	return value.Undefined{}
}

// callable is any value the Call node can invoke.
type callable interface {
	call(args []any) (any, error)
}

// builtinFunc adapts a registry function to a callable, binding the
// evaluation text as the implicit first argument regardless of how
// the call reads in the expression.
type builtinFunc struct {
	name string
	fn   builtin.Func
	text string
}

func (b *builtinFunc) call(args []any) (any, error) {
	return b.fn(b.text, args)
}

// closure is a materialized arrow function: its body plus the scope
// it captured, invoked with the parameter bound in a child frame.
type closure struct {
	param string
	body  ast.Node
	sc    *scope
	c     *Compiled
}

func (cl *closure) call(args []any) (any, error) {
	var arg any = value.Undefined{}
	if len(args) > 0 {
		arg = args[0]
	}
	return cl.c.eval(cl.body, cl.sc.child(cl.param, arg))
}
