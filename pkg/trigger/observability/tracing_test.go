package observability

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// setupTracingTest installs an in-memory span exporter and returns it
// plus a cleanup function.
func setupTracingTest(t *testing.T) (*tracetest.InMemoryExporter, func()) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(exporter),
	)

	originalProvider := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)

	// Update the package-level tracer
	tracer = otel.Tracer("trigger")

	cleanup := func() {
		otel.SetTracerProvider(originalProvider)
		if err := tp.Shutdown(context.Background()); err != nil {
			t.Logf("Error shutting down tracer provider: %v", err)
		}
	}

	return exporter, cleanup
}

func TestStartCompileSpan(t *testing.T) {
	exporter, cleanup := setupTracingTest(t)
	defer cleanup()

	m := NewSpanManager()

	ctx := context.Background()
	newCtx, span := m.StartCompileSpan(ctx, "engine-7", "text")
	require.NotNil(t, span)
	assert.NotEqual(t, ctx, newCtx)

	span.End()

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)

	s := spans[0]
	assert.Equal(t, "trigger.compile", s.Name)

	var engineID, contextKind string
	for _, attr := range s.Attributes {
		switch attr.Key {
		case "engine.id":
			engineID = attr.Value.AsString()
		case "expr.context":
			contextKind = attr.Value.AsString()
		}
	}
	assert.Equal(t, "engine-7", engineID)
	assert.Equal(t, "text", contextKind)
}

func TestStartEvalSpan(t *testing.T) {
	exporter, cleanup := setupTracingTest(t)
	defer cleanup()

	m := NewSpanManager()

	_, span := m.StartEvalSpan(context.Background(), "engine-7", "object")
	span.End()

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "trigger.eval", spans[0].Name)
}

func TestEndSpanWithError(t *testing.T) {
	exporter, cleanup := setupTracingTest(t)
	defer cleanup()

	m := NewSpanManager()

	t.Run("records error and sets error status", func(t *testing.T) {
		exporter.Reset()

		_, span := m.StartEvalSpan(context.Background(), "engine-7", "text")
		m.EndSpanWithError(span, errors.New("evaluation failed"))

		spans := exporter.GetSpans()
		require.Len(t, spans, 1)

		s := spans[0]
		assert.Equal(t, codes.Error, s.Status.Code)
		require.NotEmpty(t, s.Events)
		assert.Equal(t, "exception", s.Events[0].Name)
	})

	t.Run("sets ok status without error", func(t *testing.T) {
		exporter.Reset()

		_, span := m.StartEvalSpan(context.Background(), "engine-7", "text")
		m.EndSpanWithError(span, nil)

		spans := exporter.GetSpans()
		require.Len(t, spans, 1)
		assert.Equal(t, codes.Ok, spans[0].Status.Code)
	})

	t.Run("tolerates nil span", func(t *testing.T) {
		assert.NotPanics(t, func() {
			m.EndSpanWithError(nil, errors.New("ignored"))
		})
	})
}

func TestAddSpanEvent(t *testing.T) {
	exporter, cleanup := setupTracingTest(t)
	defer cleanup()

	m := NewSpanManager()

	t.Run("adds event to recording span", func(t *testing.T) {
		exporter.Reset()

		ctx, span := m.StartEvalSpan(context.Background(), "engine-7", "text")
		m.AddSpanEvent(ctx, "cache.hit", attribute.String("expr", `any("gold")`))
		span.End()

		spans := exporter.GetSpans()
		require.Len(t, spans, 1)
		require.NotEmpty(t, spans[0].Events)
		assert.Equal(t, "cache.hit", spans[0].Events[0].Name)
	})

	t.Run("no-op without a span in context", func(t *testing.T) {
		assert.NotPanics(t, func() {
			m.AddSpanEvent(context.Background(), "orphan")
		})
	})
}
