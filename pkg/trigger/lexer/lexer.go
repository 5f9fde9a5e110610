// Package lexer converts a trigger expression string into a token
// stream. The stream is always terminated by an EOF token; lexical
// failures carry the byte offset of the offending character.
//
// One piece of syntax is handled entirely here: a regex literal
// written ~pattern~flags desugars at lex time into the token sequence
// for a call to the builtin regex function, so the parser never sees
// a dedicated regex token kind.
package lexer

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/talekit/trigger/pkg/trigger/token"
)

// Lexical failure modes. Returned wrapped in *Error with a position.
var (
	ErrUnterminatedString = errors.New("unterminated string literal")
	ErrUnterminatedRegex  = errors.New("unterminated regex literal")
	ErrUnexpectedChar     = errors.New("unexpected character")
)

// Error is a positioned lexical error.
type Error struct {
	Pos int
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("lex error at offset %d: %v", e.Pos, e.Err)
}

// Unwrap returns the underlying failure for errors.Is support.
func (e *Error) Unwrap() error { return e.Err }

// Lexer scans a single expression string.
type Lexer struct {
	src string
	pos int // byte offset of the next unread character
}

// New creates a Lexer over src.
func New(src string) *Lexer {
	return &Lexer{src: src}
}

// Scan tokenizes the whole source and returns the token slice,
// including the terminal EOF token, or a positioned *Error.
func Scan(src string) ([]token.Token, error) {
	return New(src).Scan()
}

// Scan tokenizes the remaining source.
func (l *Lexer) Scan() ([]token.Token, error) {
	toks := make([]token.Token, 0, 16)
	for {
		l.skipSpace()
		if l.eof() {
			toks = append(toks, token.Token{Kind: token.EOF, Pos: l.pos})
			return toks, nil
		}

		start := l.pos
		r := l.peek()
		switch {
		case r == '~':
			desugared, err := l.regexLiteral()
			if err != nil {
				return nil, err
			}
			toks = append(toks, desugared...)
		case r == '\'' || r == '"':
			s, err := l.stringLiteral()
			if err != nil {
				return nil, err
			}
			toks = append(toks, token.Token{Kind: token.String, Lit: s, Pos: start})
		case isDigit(r):
			toks = append(toks, token.Token{Kind: token.Number, Lit: l.number(), Pos: start})
		case isIdentStart(r):
			kind, lit := token.Lookup(l.ident())
			toks = append(toks, token.Token{Kind: kind, Lit: lit, Pos: start})
		default:
			kind, ok := l.operator()
			if !ok {
				return nil, &Error{Pos: start, Err: fmt.Errorf("%w %q", ErrUnexpectedChar, r)}
			}
			toks = append(toks, token.Token{Kind: kind, Pos: start})
		}
	}
}

func (l *Lexer) eof() bool { return l.pos >= len(l.src) }

func (l *Lexer) peek() rune {
	r, _ := utf8.DecodeRuneInString(l.src[l.pos:])
	return r
}

func (l *Lexer) next() rune {
	r, size := utf8.DecodeRuneInString(l.src[l.pos:])
	l.pos += size
	return r
}

func (l *Lexer) skipSpace() {
	for !l.eof() && unicode.IsSpace(l.peek()) {
		l.next()
	}
}

// Operator tables, longest form first. Fixed for the lifetime of the
// language, so they live at package scope like token's keyword table.
var (
	threeCharOps = map[string]token.Kind{
		"===": token.StrictEq,
		"!==": token.StrictNotEq,
	}

	twoCharOps = map[string]token.Kind{
		"==": token.Eq,
		"!=": token.NotEq,
		"<=": token.LessEq,
		">=": token.GreaterEq,
		"&&": token.And,
		"||": token.Or,
		"=>": token.Arrow,
	}

	oneCharOps = map[rune]token.Kind{
		'(': token.LParen,
		')': token.RParen,
		'[': token.LBracket,
		']': token.RBracket,
		'.': token.Dot,
		',': token.Comma,
		':': token.Colon,
		'+': token.Plus,
		'-': token.Minus,
		'*': token.Star,
		'/': token.Slash,
		'%': token.Percent,
		'=': token.Assign,
		'<': token.Less,
		'>': token.Greater,
		'!': token.Not,
	}
)

// operator recognizes punctuation and operators, longest match first:
// three characters, then two, then one.
func (l *Lexer) operator() (token.Kind, bool) {
	rest := l.src[l.pos:]

	for text, kind := range threeCharOps {
		if strings.HasPrefix(rest, text) {
			l.pos += 3
			return kind, true
		}
	}
	for text, kind := range twoCharOps {
		if strings.HasPrefix(rest, text) {
			l.pos += 2
			return kind, true
		}
	}
	if kind, ok := oneCharOps[l.peek()]; ok {
		l.next()
		return kind, true
	}
	return 0, false
}

// number scans an integer or decimal literal. Exponent and hex forms
// are not part of the language.
func (l *Lexer) number() string {
	start := l.pos
	for !l.eof() && isDigit(l.peek()) {
		l.next()
	}
	if !l.eof() && l.peek() == '.' && l.pos+1 < len(l.src) && isDigit(rune(l.src[l.pos+1])) {
		l.next()
		for !l.eof() && isDigit(l.peek()) {
			l.next()
		}
	}
	return l.src[start:l.pos]
}

// stringLiteral scans a quoted string and decodes its escapes.
// An unknown escape keeps the escaped character as written.
func (l *Lexer) stringLiteral() (string, error) {
	start := l.pos
	quote := l.next()
	var b strings.Builder
	for !l.eof() {
		r := l.next()
		switch r {
		case quote:
			return b.String(), nil
		case '\\':
			if l.eof() {
				return "", &Error{Pos: start, Err: ErrUnterminatedString}
			}
			switch esc := l.next(); esc {
			case 'n':
				b.WriteByte('\n')
			case 'r':
				b.WriteByte('\r')
			case 't':
				b.WriteByte('\t')
			case '\\', '"', '\'':
				b.WriteRune(esc)
			default:
				b.WriteRune(esc)
			}
		default:
			b.WriteRune(r)
		}
	}
	return "", &Error{Pos: start, Err: ErrUnterminatedString}
}

// ident scans an identifier: letters, digits, underscore, and the $
// sigil, not starting with a digit.
func (l *Lexer) ident() string {
	start := l.pos
	for !l.eof() && isIdentPart(l.peek()) {
		l.next()
	}
	return l.src[start:l.pos]
}

// regexLiteral scans ~pattern~flags and returns the token sequence
// for the call regex("pattern", "flags"). A backslash escapes the
// delimiter inside the pattern; the escape is kept so the pattern
// compiler sees an escaped literal tilde.
func (l *Lexer) regexLiteral() ([]token.Token, error) {
	start := l.pos
	l.next() // opening ~

	var pat strings.Builder
	closed := false
	for !l.eof() {
		r := l.next()
		if r == '\\' && !l.eof() && l.peek() == '~' {
			pat.WriteByte('\\')
			pat.WriteRune(l.next())
			continue
		}
		if r == '~' {
			closed = true
			break
		}
		pat.WriteRune(r)
	}
	if !closed {
		return nil, &Error{Pos: start, Err: ErrUnterminatedRegex}
	}

	flagStart := l.pos
	for !l.eof() && isFlagLetter(l.peek()) {
		l.next()
	}
	flags := l.src[flagStart:l.pos]

	return []token.Token{
		{Kind: token.Ident, Lit: "regex", Pos: start},
		{Kind: token.LParen, Pos: start},
		{Kind: token.String, Lit: pat.String(), Pos: start},
		{Kind: token.Comma, Pos: start},
		{Kind: token.String, Lit: flags, Pos: start},
		{Kind: token.RParen, Pos: start},
	}, nil
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }

func isIdentStart(r rune) bool {
	return r == '_' || r == '$' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return isIdentStart(r) || isDigit(r)
}

func isFlagLetter(r rune) bool {
	return r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z'
}
