package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// tracer is the trigger tracer instance, backed by the global OTel
// tracer provider.
var tracer = otel.Tracer("trigger")

// SpanManager handles trace span lifecycle.
// Use NewSpanManager() for OTel tracing or NoopSpanManager{} when disabled.
type SpanManager interface {
	// StartCompileSpan starts a span covering lex, parse, and compile
	// of one expression.
	StartCompileSpan(ctx context.Context, engineID, contextKind string) (context.Context, trace.Span)

	// StartEvalSpan starts a span for one evaluation.
	StartEvalSpan(ctx context.Context, engineID, contextKind string) (context.Context, trace.Span)

	// EndSpanWithError completes a span, optionally recording an error.
	EndSpanWithError(span trace.Span, err error)

	// AddSpanEvent adds an event to the current span in context.
	AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue)
}

// otelSpanManager implements SpanManager using OpenTelemetry.
type otelSpanManager struct{}

// NewSpanManager returns a SpanManager that uses OpenTelemetry.
//
// The span manager uses the global OTel tracer provider. Configure
// the provider before calling this function:
//
//	import "go.opentelemetry.io/otel"
//	otel.SetTracerProvider(yourProvider)
func NewSpanManager() SpanManager {
	return &otelSpanManager{}
}

// StartCompileSpan starts a span for one compilation.
func (m *otelSpanManager) StartCompileSpan(ctx context.Context, engineID, contextKind string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "trigger.compile",
		trace.WithAttributes(
			attribute.String("engine.id", engineID),
			attribute.String("expr.context", contextKind),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// StartEvalSpan starts a span for one evaluation.
func (m *otelSpanManager) StartEvalSpan(ctx context.Context, engineID, contextKind string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "trigger.eval",
		trace.WithAttributes(
			attribute.String("engine.id", engineID),
			attribute.String("expr.context", contextKind),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// EndSpanWithError completes a span, optionally recording an error.
func (m *otelSpanManager) EndSpanWithError(span trace.Span, err error) {
	if span == nil {
		return
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// AddSpanEvent adds an event to the current span.
func (m *otelSpanManager) AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	span := trace.SpanFromContext(ctx)
	if span == nil || !span.IsRecording() {
		return
	}
	span.AddEvent(name, trace.WithAttributes(attrs...))
}
