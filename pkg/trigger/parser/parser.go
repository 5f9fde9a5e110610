// Package parser turns a trigger expression string into a single AST
// root via recursive descent with precedence climbing.
//
// Precedence, lowest to highest: logical-or, logical-and, equality,
// relational, additive, multiplicative, unary, postfix. The postfix
// loop handles member access, method calls, computed indexing,
// ordinary calls after a bare identifier, and the two object-query
// forms ("path: value" and "path.op: value").
package parser

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/talekit/trigger/pkg/trigger/ast"
	"github.com/talekit/trigger/pkg/trigger/lexer"
	"github.com/talekit/trigger/pkg/trigger/token"
)

// Parse failure modes. Returned wrapped in *Error with a position.
var (
	ErrUnexpectedToken = errors.New("unexpected token")
	ErrTrailingTokens  = errors.New("expression not fully consumed")
	ErrBadQueryPath    = errors.New("object query requires a field path")
	ErrBadArrowParam   = errors.New("arrow function requires a single identifier parameter")
)

// Error is a positioned parse error.
type Error struct {
	Pos int
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("parse error at offset %d: %v", e.Pos, e.Err)
}

// Unwrap returns the underlying failure for errors.Is support.
func (e *Error) Unwrap() error { return e.Err }

// Parse lexes and parses src, requiring the entire token stream to be
// consumed. Lexical errors pass through as *lexer.Error.
func Parse(src string) (ast.Node, error) {
	toks, err := lexer.Scan(src)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	root, err := p.expression()
	if err != nil {
		return nil, err
	}
	if p.peek().Kind != token.EOF {
		return nil, &Error{Pos: p.peek().Pos, Err: ErrTrailingTokens}
	}
	return root, nil
}

type parser struct {
	toks []token.Token
	i    int
}

func (p *parser) peek() token.Token { return p.toks[p.i] }

func (p *parser) peekAhead(n int) token.Token {
	if p.i+n >= len(p.toks) {
		return p.toks[len(p.toks)-1] // EOF
	}
	return p.toks[p.i+n]
}

func (p *parser) advance() token.Token {
	t := p.toks[p.i]
	if t.Kind != token.EOF {
		p.i++
	}
	return t
}

func (p *parser) match(kinds ...token.Kind) bool {
	for _, k := range kinds {
		if p.peek().Kind == k {
			p.advance()
			return true
		}
	}
	return false
}

func (p *parser) expect(k token.Kind) (token.Token, error) {
	if p.peek().Kind != k {
		return token.Token{}, p.unexpected(fmt.Sprintf("expected %v", k))
	}
	return p.advance(), nil
}

func (p *parser) unexpected(context string) error {
	t := p.peek()
	return &Error{
		Pos: t.Pos,
		Err: fmt.Errorf("%w %v (%s)", ErrUnexpectedToken, t.Kind, context),
	}
}

func (p *parser) expression() (ast.Node, error) {
	return p.logicalOr()
}

func (p *parser) logicalOr() (ast.Node, error) {
	left, err := p.logicalAnd()
	if err != nil {
		return nil, err
	}
	for p.match(token.Or) {
		right, err := p.logicalAnd()
		if err != nil {
			return nil, err
		}
		left = &ast.Logical{Op: "||", Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) logicalAnd() (ast.Node, error) {
	left, err := p.equality()
	if err != nil {
		return nil, err
	}
	for p.match(token.And) {
		right, err := p.equality()
		if err != nil {
			return nil, err
		}
		left = &ast.Logical{Op: "&&", Left: left, Right: right}
	}
	return left, nil
}

var equalityOps = map[token.Kind]string{
	token.Eq:          "==",
	token.NotEq:       "!=",
	token.StrictEq:    "===",
	token.StrictNotEq: "!==",
}

func (p *parser) equality() (ast.Node, error) {
	left, err := p.relational()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := equalityOps[p.peek().Kind]
		if !ok {
			return left, nil
		}
		p.advance()
		right, err := p.relational()
		if err != nil {
			return nil, err
		}
		left = &ast.Binary{Op: op, Left: left, Right: right}
	}
}

var relationalOps = map[token.Kind]string{
	token.Less:      "<",
	token.LessEq:    "<=",
	token.Greater:   ">",
	token.GreaterEq: ">=",
}

func (p *parser) relational() (ast.Node, error) {
	left, err := p.additive()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := relationalOps[p.peek().Kind]
		if !ok {
			return left, nil
		}
		p.advance()
		right, err := p.additive()
		if err != nil {
			return nil, err
		}
		left = &ast.Binary{Op: op, Left: left, Right: right}
	}
}

func (p *parser) additive() (ast.Node, error) {
	left, err := p.multiplicative()
	if err != nil {
		return nil, err
	}
	for {
		var op string
		switch p.peek().Kind {
		case token.Plus:
			op = "+"
		case token.Minus:
			op = "-"
		default:
			return left, nil
		}
		p.advance()
		right, err := p.multiplicative()
		if err != nil {
			return nil, err
		}
		left = &ast.Binary{Op: op, Left: left, Right: right}
	}
}

func (p *parser) multiplicative() (ast.Node, error) {
	left, err := p.unary()
	if err != nil {
		return nil, err
	}
	for {
		var op string
		switch p.peek().Kind {
		case token.Star:
			op = "*"
		case token.Slash:
			op = "/"
		case token.Percent:
			op = "%"
		default:
			return left, nil
		}
		p.advance()
		right, err := p.unary()
		if err != nil {
			return nil, err
		}
		left = &ast.Binary{Op: op, Left: left, Right: right}
	}
}

func (p *parser) unary() (ast.Node, error) {
	var op string
	switch p.peek().Kind {
	case token.Not:
		op = "!"
	case token.Minus:
		op = "-"
	case token.Plus:
		op = "+"
	default:
		return p.postfix()
	}
	p.advance()
	operand, err := p.unary()
	if err != nil {
		return nil, err
	}
	return &ast.Unary{Op: op, Operand: operand}, nil
}

// postfix parses a primary expression and then repeatedly applies
// postfix forms, left to right.
func (p *parser) postfix() (ast.Node, error) {
	left, err := p.primary()
	if err != nil {
		return nil, err
	}
	for {
		switch p.peek().Kind {
		case token.Dot:
			left, err = p.afterDot(left)
			if err != nil {
				return nil, err
			}
		case token.Colon:
			// Bare "path: value" object query.
			left, err = p.objectQuery(left, "equals")
			if err != nil {
				return nil, err
			}
		case token.LBracket:
			p.advance()
			index, err := p.expression()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(token.RBracket); err != nil {
				return nil, err
			}
			left = &ast.Member{Object: left, Property: index, Computed: true}
		case token.LParen:
			// An ordinary call binds only directly to a bare identifier;
			// method calls are produced in afterDot.
			if _, ok := left.(*ast.Identifier); !ok {
				return left, nil
			}
			args, err := p.callArgs()
			if err != nil {
				return nil, err
			}
			left = &ast.Call{Callee: left, Args: args}
		default:
			return left, nil
		}
	}
}

// afterDot handles the three dotted postfix forms: member access,
// method call, and the "path.op: value" object-query sugar.
func (p *parser) afterDot(left ast.Node) (ast.Node, error) {
	p.advance() // '.'
	t := p.peek()
	if t.Kind != token.Ident && t.Kind != token.OpFunc {
		return nil, p.unexpected("expected property name after '.'")
	}
	if t.Kind == token.OpFunc && p.peekAhead(1).Kind == token.Colon {
		p.advance()
		return p.objectQuery(left, t.Lit)
	}
	p.advance()
	member := &ast.Member{Object: left, Property: &ast.Identifier{Name: t.Lit}}
	if p.peek().Kind == token.LParen {
		args, err := p.callArgs()
		if err != nil {
			return nil, err
		}
		return &ast.Call{Callee: member, Args: args}, nil
	}
	return member, nil
}

// objectQuery consumes the ':' and the value sub-expression. The
// value parses at equality precedence so a following '&&' or '||'
// combines whole queries rather than being swallowed by the value.
func (p *parser) objectQuery(left ast.Node, op string) (ast.Node, error) {
	colon, err := p.expect(token.Colon)
	if err != nil {
		return nil, err
	}
	path, ok := fieldPath(left)
	if !ok {
		return nil, &Error{Pos: colon.Pos, Err: ErrBadQueryPath}
	}
	value, err := p.equality()
	if err != nil {
		return nil, err
	}
	return &ast.ObjectQuery{Path: path, Op: op, Value: value}, nil
}

// fieldPath flattens a chain of non-computed member accesses rooted
// at an identifier into a dotted path string.
func fieldPath(n ast.Node) (string, bool) {
	switch v := n.(type) {
	case *ast.Identifier:
		return v.Name, true
	case *ast.Member:
		if v.Computed {
			return "", false
		}
		prop, ok := v.Property.(*ast.Identifier)
		if !ok {
			return "", false
		}
		base, ok := fieldPath(v.Object)
		if !ok {
			return "", false
		}
		return base + "." + prop.Name, true
	default:
		return "", false
	}
}

// callArgs parses a parenthesized argument list. An argument of the
// form "ident => expr" becomes an arrow-function node.
func (p *parser) callArgs() ([]ast.Node, error) {
	if _, err := p.expect(token.LParen); err != nil {
		return nil, err
	}
	var args []ast.Node
	if p.match(token.RParen) {
		return args, nil
	}
	for {
		arg, err := p.callArg()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		if p.match(token.Comma) {
			continue
		}
		if _, err := p.expect(token.RParen); err != nil {
			return nil, err
		}
		return args, nil
	}
}

func (p *parser) callArg() (ast.Node, error) {
	if p.peek().Kind == token.Ident && p.peekAhead(1).Kind == token.Arrow {
		param := p.advance().Lit
		p.advance() // '=>'
		body, err := p.logicalOr()
		if err != nil {
			return nil, err
		}
		return &ast.Arrow{Param: param, Body: body}, nil
	}
	if p.peek().Kind == token.Arrow {
		return nil, &Error{Pos: p.peek().Pos, Err: ErrBadArrowParam}
	}
	return p.expression()
}

func (p *parser) primary() (ast.Node, error) {
	t := p.peek()
	switch t.Kind {
	case token.Number:
		p.advance()
		f, err := strconv.ParseFloat(t.Lit, 64)
		if err != nil {
			return nil, &Error{Pos: t.Pos, Err: fmt.Errorf("bad number literal %q: %w", t.Lit, err)}
		}
		return &ast.Literal{Kind: ast.Number, Value: f}, nil
	case token.String:
		p.advance()
		return &ast.Literal{Kind: ast.String, Value: t.Lit}, nil
	case token.Bool:
		p.advance()
		return &ast.Literal{Kind: ast.Bool, Value: strings.EqualFold(t.Lit, "true")}, nil
	case token.Null:
		p.advance()
		return &ast.Literal{Kind: ast.Null}, nil
	case token.Undefined:
		p.advance()
		return &ast.Literal{Kind: ast.Undefined}, nil
	case token.Ident, token.OpFunc:
		// Operator keywords double as ordinary call names (regex(...)).
		p.advance()
		return &ast.Identifier{Name: t.Lit}, nil
	case token.LParen:
		p.advance()
		inner, err := p.expression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.RParen); err != nil {
			return nil, err
		}
		return inner, nil
	default:
		return nil, p.unexpected("expected an expression")
	}
}
