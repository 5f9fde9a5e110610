package trigger

import (
	"errors"
	"fmt"
)

// ErrNoEvaluator indicates an expression that failed to lex or
// parse. Compile wraps the underlying positioned error; Parse and
// the Evaluate entry points report the same condition softly, as
// "no evaluator" and false respectively.
var ErrNoEvaluator = errors.New("expression invalid")

// CompileError wraps a lex or parse failure with the offending
// expression and context kind.
type CompileError struct {
	Expr    string
	Context Context
	Err     error
}

// Error implements the error interface.
func (e *CompileError) Error() string {
	return fmt.Sprintf("compile %s expression %q: %v", e.Context, e.Expr, e.Err)
}

// Unwrap returns the underlying lexer or parser error.
func (e *CompileError) Unwrap() error { return e.Err }

// Is reports ErrNoEvaluator for any compile failure.
func (e *CompileError) Is(target error) bool { return target == ErrNoEvaluator }
