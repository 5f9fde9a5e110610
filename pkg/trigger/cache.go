package trigger

import (
	"context"
	"time"

	"github.com/talekit/trigger/pkg/trigger/eval"
	"github.com/talekit/trigger/pkg/trigger/observability"
	"github.com/talekit/trigger/pkg/trigger/parser"
)

// msDuration converts a TimedOperation reading back to a duration.
func msDuration(ms float64) time.Duration {
	return time.Duration(ms * float64(time.Millisecond))
}

// cacheKey is the composite, content-addressed cache key. Two
// expressions with identical text but different context or target
// kinds compile to distinct evaluators.
type cacheKey struct {
	expr   string
	kind   Context
	target string
}

// getOrCompile returns the cached evaluator for the key or lexes,
// parses, and compiles on a miss. Failures are never cached, so a
// corrected expression succeeds on retry.
func (e *Engine) getOrCompile(ctx context.Context, key cacheKey) (*eval.Compiled, error) {
	e.mu.RLock()
	compiled, ok := e.cache[key]
	e.mu.RUnlock()
	e.metrics.RecordCacheLookup(ctx, ok)
	if ok {
		return compiled, nil
	}

	ctx, span := e.spans.StartCompileSpan(ctx, e.id, key.kind.String())
	done := observability.TimedOperation()

	root, err := parser.Parse(key.expr)
	if err != nil {
		cerr := &CompileError{Expr: key.expr, Context: key.kind, Err: err}
		e.metrics.RecordCompile(ctx, key.kind.String(), msDuration(done()), err)
		e.spans.EndSpanWithError(span, cerr)
		observability.LogCompileError(e.logger, key.expr, key.kind.String(), err)
		return nil, cerr
	}
	compiled = eval.Compile(root, key.kind)

	e.mu.Lock()
	if e.settings.CacheLimit > 0 && len(e.cache) >= e.settings.CacheLimit {
		e.cache = make(map[cacheKey]*eval.Compiled)
	}
	e.cache[key] = compiled
	e.mu.Unlock()

	ms := done()
	e.metrics.RecordCompile(ctx, key.kind.String(), msDuration(ms), nil)
	e.spans.EndSpanWithError(span, nil)
	observability.LogCompile(e.logger, key.expr, key.kind.String(), ms)
	return compiled, nil
}

// ClearCache empties the cache unconditionally. Hosts call it at a
// natural processing boundary (once per turn) to bound memory from
// ad hoc expressions; correctness never depends on it, since keys
// are content-addressed.
func (e *Engine) ClearCache() {
	e.mu.Lock()
	entries := len(e.cache)
	e.cache = make(map[cacheKey]*eval.Compiled)
	e.mu.Unlock()
	observability.LogCacheCleared(e.logger, entries)
}

// CacheSize returns the number of cached evaluators.
func (e *Engine) CacheSize() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.cache)
}
