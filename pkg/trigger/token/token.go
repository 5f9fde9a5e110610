// Package token defines the lexical tokens of the trigger expression
// language and the keyword tables shared by the lexer and parser.
package token

import "fmt"

// Kind identifies the lexical class of a token.
type Kind int

const (
	// EOF terminates every token stream produced by the lexer.
	EOF Kind = iota

	// Literals and names.
	Number    // 42, 3.14
	String    // 'text', "text"
	Bool      // true, false
	Null      // null
	Undefined // undefined
	Ident     // gold, $state, _hp
	OpFunc    // contains, startsWith, gt, ... (object-query operator keywords)

	// Punctuation.
	LParen   // (
	RParen   // )
	LBracket // [
	RBracket // ]
	Dot      // .
	Comma    // ,
	Colon    // :

	// Operators.
	Plus        // +
	Minus       // -
	Star        // *
	Slash       // /
	Percent     // %
	Assign      // =
	Eq          // ==
	NotEq       // !=
	StrictEq    // ===
	StrictNotEq // !==
	Less        // <
	LessEq      // <=
	Greater     // >
	GreaterEq   // >=
	And         // && or AND
	Or          // || or OR
	Not         // ! or NOT
	Arrow       // =>
)

var kindNames = map[Kind]string{
	EOF:         "end of expression",
	Number:      "number",
	String:      "string",
	Bool:        "boolean",
	Null:        "null",
	Undefined:   "undefined",
	Ident:       "identifier",
	OpFunc:      "operator keyword",
	LParen:      "'('",
	RParen:      "')'",
	LBracket:    "'['",
	RBracket:    "']'",
	Dot:         "'.'",
	Comma:       "','",
	Colon:       "':'",
	Plus:        "'+'",
	Minus:       "'-'",
	Star:        "'*'",
	Slash:       "'/'",
	Percent:     "'%'",
	Assign:      "'='",
	Eq:          "'=='",
	NotEq:       "'!='",
	StrictEq:    "'==='",
	StrictNotEq: "'!=='",
	Less:        "'<'",
	LessEq:      "'<='",
	Greater:     "'>'",
	GreaterEq:   "'>='",
	And:         "'&&'",
	Or:          "'||'",
	Not:         "'!'",
	Arrow:       "'=>'",
}

// String returns a human-readable name for error messages.
func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("token(%d)", int(k))
}

// Token is a single lexical unit with its source position.
// Lit holds the literal text for Number, String, Ident, and OpFunc
// tokens (decoded for strings, canonical for operator keywords).
type Token struct {
	Kind Kind
	Lit  string
	Pos  int // byte offset into the source expression
}

// keywords maps reserved identifier spellings to token kinds.
// The word-form logical operators are accepted in both the upper-case
// spelling used by trigger authors and the lower-case one.
var keywords = map[string]Kind{
	"true":      Bool,
	"false":     Bool,
	"null":      Null,
	"undefined": Undefined,
	"AND":       And,
	"and":       And,
	"OR":        Or,
	"or":        Or,
	"NOT":       Not,
	"not":       Not,
}

// opFuncs maps the closed set of object-query operator keywords to
// their canonical names. Short spellings alias the long ones.
var opFuncs = map[string]string{
	"contains":   "contains",
	"includes":   "includes",
	"startsWith": "startsWith",
	"starts":     "startsWith",
	"endsWith":   "endsWith",
	"ends":       "endsWith",
	"match":      "match",
	"regex":      "regex",
	"gt":         "gt",
	"lt":         "lt",
	"gte":        "gte",
	"lte":        "lte",
}

// Lookup classifies an identifier spelling. It returns the keyword
// kind for reserved words, OpFunc (with the canonical name) for
// operator keywords, and Ident otherwise.
func Lookup(ident string) (Kind, string) {
	if k, ok := keywords[ident]; ok {
		return k, ident
	}
	if canonical, ok := opFuncs[ident]; ok {
		return OpFunc, canonical
	}
	return Ident, ident
}
