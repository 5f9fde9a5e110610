package trigger

import (
	"context"
	"maps"

	"github.com/talekit/trigger/pkg/trigger/eval"
	"github.com/talekit/trigger/pkg/trigger/observability"
	"github.com/talekit/trigger/pkg/trigger/value"
)

// Evaluator is a compiled expression bound to its engine. Immutable
// and safe for repeated, concurrent invocation.
type Evaluator struct {
	eng      *Engine
	compiled *eval.Compiled
	expr     string
	target   string
}

// Compile compiles an expression for the given context, or returns a
// *CompileError wrapping the positioned lex/parse failure. The
// result is cached under (expression, context kind, target kind).
func (e *Engine) Compile(expr string, kind Context) (*Evaluator, error) {
	return e.CompileTarget(expr, kind, "")
}

// CompileTarget is Compile with an explicit target kind, for hosts
// that key expressions to a class of record.
func (e *Engine) CompileTarget(expr string, kind Context, target string) (*Evaluator, error) {
	compiled, err := e.getOrCompile(context.Background(), cacheKey{expr: expr, kind: kind, target: target})
	if err != nil {
		return nil, err
	}
	return &Evaluator{eng: e, compiled: compiled, expr: expr, target: target}, nil
}

// Parse is the soft form of Compile: an invalid expression yields
// (nil, false) instead of an error. The failure is logged for
// diagnostics and never retried automatically.
func (e *Engine) Parse(expr string, kind Context) (*Evaluator, bool) {
	ev, err := e.Compile(expr, kind)
	return ev, err == nil
}

// EvaluateText compiles expr for text context and tests it against
// narrative text. Any failure, from lexing through evaluation, reads
// as false.
func (e *Engine) EvaluateText(ctx context.Context, expr, text string, binds Bindings) bool {
	ev, ok := e.Parse(expr, ContextText)
	if !ok {
		return false
	}
	return ev.TestText(ctx, text, binds)
}

// EvaluateRecord compiles expr for object context and tests it
// against a record. Any failure reads as false.
func (e *Engine) EvaluateRecord(ctx context.Context, expr string, record map[string]any, binds Bindings) bool {
	ev, ok := e.Parse(expr, ContextObject)
	if !ok {
		return false
	}
	return ev.TestRecord(ctx, record, binds)
}

// Context returns the context kind the evaluator was compiled for.
func (ev *Evaluator) Context() Context { return ev.compiled.Context() }

// TestText tests narrative text. Internal evaluation errors read as
// false, never propagate.
func (ev *Evaluator) TestText(ctx context.Context, text string, binds Bindings) bool {
	v, err := ev.run(ctx, ev.input(text, nil, binds))
	if err != nil {
		return false
	}
	return value.IsTruthy(v)
}

// TestRecord tests a record. Internal evaluation errors read as
// false, never propagate.
func (ev *Evaluator) TestRecord(ctx context.Context, record map[string]any, binds Bindings) bool {
	v, err := ev.run(ctx, ev.input("", record, binds))
	if err != nil {
		return false
	}
	return value.IsTruthy(v)
}

// ValueText evaluates against narrative text and returns the raw
// result, for value-shaped expressions such as fuzzyFind.
func (ev *Evaluator) ValueText(ctx context.Context, text string, binds Bindings) (any, error) {
	return ev.run(ctx, ev.input(text, nil, binds))
}

// input assembles the evaluation input, exposing the raw input to
// expressions under the conventional "input" binding unless the
// caller bound that name itself.
func (ev *Evaluator) input(text string, record map[string]any, binds Bindings) eval.Input {
	var raw any = text
	if record != nil {
		raw = record
	}
	bindings := map[string]any(binds)
	if _, bound := bindings["input"]; !bound {
		merged := make(map[string]any, len(bindings)+1)
		maps.Copy(merged, bindings)
		merged["input"] = raw
		bindings = merged
	}
	return eval.Input{
		Text:     text,
		Record:   record,
		Bindings: bindings,
		Globals:  ev.eng.globals,
		Builtins: ev.eng.builtins,
	}
}

func (ev *Evaluator) run(ctx context.Context, in eval.Input) (any, error) {
	e := ev.eng
	kind := ev.compiled.Context().String()

	ctx, span := e.spans.StartEvalSpan(ctx, e.id, kind)
	done := observability.TimedOperation()

	v, err := ev.compiled.Run(in)

	e.metrics.RecordEvaluation(ctx, kind, msDuration(done()), err != nil)
	e.spans.EndSpanWithError(span, err)
	if err != nil {
		observability.LogSoftFailure(e.logger, ev.expr, kind, err)
	}
	return v, err
}
