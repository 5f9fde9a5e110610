// Package ast defines the node types produced by the trigger
// expression parser. Trees are built once per parse and are never
// mutated afterward, so a tree may be shared by any number of
// compiled evaluators.
package ast

// Node is implemented by every expression node.
type Node interface {
	node()
}

// LiteralKind distinguishes literal value classes.
type LiteralKind int

const (
	Number LiteralKind = iota
	String
	Bool
	Null
	Undefined
)

// Literal is a constant value: a number, string, boolean, null, or
// undefined. Value holds float64, string, bool, or nil for the last two.
type Literal struct {
	Kind  LiteralKind
	Value any
}

// Identifier is a bare name resolved against the evaluation scopes.
type Identifier struct {
	Name string
}

// Member is a property access. Property is an *Identifier for dotted
// access (a.b) and an arbitrary expression when Computed (a[expr]).
type Member struct {
	Object   Node
	Property Node
	Computed bool
}

// Call invokes a builtin function, a method on a member expression,
// or a closure bound in scope.
type Call struct {
	Callee Node
	Args   []Node
}

// Unary applies "!", "-", or "+" to a single operand.
type Unary struct {
	Op      string
	Operand Node
}

// Binary applies an arithmetic, equality, or relational operator.
type Binary struct {
	Op    string
	Left  Node
	Right Node
}

// Logical applies a short-circuiting "&&" or "||".
type Logical struct {
	Op    string
	Left  Node
	Right Node
}

// Arrow is a single-parameter function expression (x => body) that
// captures the ambient scope at evaluation time. Arrows are only
// legal as call arguments.
type Arrow struct {
	Param string
	Body  Node
}

// ObjectQuery tests one field of a record: a dotted field path, an
// operator name (equals, contains, gt, ...), and the expression that
// yields the comparison value.
type ObjectQuery struct {
	Path  string
	Op    string
	Value Node
}

func (*Literal) node()     {}
func (*Identifier) node()  {}
func (*Member) node()      {}
func (*Call) node()        {}
func (*Unary) node()       {}
func (*Binary) node()      {}
func (*Logical) node()     {}
func (*Arrow) node()       {}
func (*ObjectQuery) node() {}
