// Package builtin provides the named text-matching functions that
// trigger expressions call against narrative text, and the registry
// the evaluator resolves them from.
//
// Every builtin receives the evaluation text as an implicit first
// argument; the explicit arguments follow. Invalid input fails soft:
// a builtin prefers returning false over returning an error, and the
// errors it does return are converted to false at the evaluator's
// outer boundary.
package builtin

import (
	"errors"
	"fmt"
	"sync"

	"github.com/talekit/trigger/pkg/trigger/value"
)

// DefaultFuzzyThreshold is the similarity cutoff used by fuzzy and
// fuzzyAny when the caller does not pass one.
const DefaultFuzzyThreshold = 0.8

// ErrArgCount reports a call with too few arguments.
var ErrArgCount = errors.New("wrong number of arguments")

// Func is a builtin function. text is the narrative text under
// evaluation; args are the evaluated explicit arguments.
type Func func(text string, args []any) (any, error)

// Registry holds builtins by name. Reads vastly outnumber writes, so
// lookups take a read lock only. A Registry is safe for concurrent
// use; the standard library is registered at construction and hosts
// may add their own functions alongside it.
type Registry struct {
	mu    sync.RWMutex
	funcs map[string]Func
}

// Option configures a Registry.
type Option func(*settings)

type settings struct {
	fuzzyThreshold float64
}

// WithFuzzyThreshold overrides the default fuzzy similarity cutoff.
func WithFuzzyThreshold(t float64) Option {
	return func(s *settings) {
		if t >= 0 && t <= 1 {
			s.fuzzyThreshold = t
		}
	}
}

// NewRegistry creates a Registry pre-populated with the standard
// text-matching library.
func NewRegistry(opts ...Option) *Registry {
	s := settings{fuzzyThreshold: DefaultFuzzyThreshold}
	for _, opt := range opts {
		opt(&s)
	}
	r := &Registry{funcs: make(map[string]Func, 16)}
	for name, fn := range standardFuncs(s) {
		r.funcs[name] = fn
	}
	return r
}

// Register adds or replaces a function.
func (r *Registry) Register(name string, fn Func) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.funcs[name] = fn
}

// Get returns the function for a name and whether it exists.
func (r *Registry) Get(name string) (Func, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.funcs[name]
	return fn, ok
}

// Has reports whether a name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.Get(name)
	return ok
}

// Names returns all registered names in no particular order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.funcs))
	for name := range r.funcs {
		names = append(names, name)
	}
	return names
}

// standardFuncs builds the standard library closed over the registry
// settings.
func standardFuncs(s settings) map[string]Func {
	return map[string]Func{
		"any":       anyFn,
		"all":       allFn,
		"none":      noneFn,
		"count":     countFn,
		"near":      nearFn,
		"sequence":  sequenceFn,
		"seq":       sequenceFn,
		"regex":     regexFn,
		"fuzzy":     fuzzyFn(s.fuzzyThreshold),
		"fuzzyFind": fuzzyFindFn,
		"fuzzyAny":  fuzzyAnyFn(s.fuzzyThreshold),
	}
}

// needArgs returns an error when fewer than n explicit arguments were
// passed.
func needArgs(name string, args []any, n int) error {
	if len(args) < n {
		return fmt.Errorf("%w: %s wants at least %d, got %d", ErrArgCount, name, n, len(args))
	}
	return nil
}

// argString coerces argument i to a string.
func argString(args []any, i int) string {
	return value.ToString(args[i])
}

// argFloat coerces argument i to a number, or def when absent.
func argFloat(args []any, i int, def float64) float64 {
	if i >= len(args) {
		return def
	}
	return value.ToFloat64(args[i])
}
