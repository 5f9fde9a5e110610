package observability

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsRecorder records trigger-engine metrics.
// Use NewMetricsRecorder() for OTel metrics or NoopMetrics{} when disabled.
type MetricsRecorder interface {
	// RecordCompile records one compilation attempt with its duration
	// and whether it failed.
	RecordCompile(ctx context.Context, contextKind string, duration time.Duration, err error)

	// RecordCacheLookup records a cache hit or miss.
	RecordCacheLookup(ctx context.Context, hit bool)

	// RecordEvaluation records one evaluation with its duration and
	// whether an internal error was converted to a soft default.
	RecordEvaluation(ctx context.Context, contextKind string, duration time.Duration, soft bool)
}

// otelMetrics implements MetricsRecorder using OpenTelemetry.
type otelMetrics struct {
	compiles       metric.Int64Counter
	compileErrors  metric.Int64Counter
	compileLatency metric.Float64Histogram
	cacheHits      metric.Int64Counter
	cacheMisses    metric.Int64Counter
	evalLatency    metric.Float64Histogram
	softFailures   metric.Int64Counter
}

var (
	defaultMetrics     *otelMetrics
	defaultMetricsOnce sync.Once
	defaultMetricsErr  error
)

// getDefaultMetrics lazily initializes the default OTel metrics
// instance on first use.
func getDefaultMetrics() (*otelMetrics, error) {
	defaultMetricsOnce.Do(func() {
		defaultMetrics, defaultMetricsErr = newOtelMetrics()
	})
	return defaultMetrics, defaultMetricsErr
}

// newOtelMetrics creates a new OTel metrics instance.
func newOtelMetrics() (*otelMetrics, error) {
	meter := otel.Meter("trigger")

	compiles, err := meter.Int64Counter("trigger.compile.count",
		metric.WithDescription("Number of expression compilations"),
	)
	if err != nil {
		return nil, err
	}

	compileErrors, err := meter.Int64Counter("trigger.compile.errors",
		metric.WithDescription("Number of lex/parse failures"),
	)
	if err != nil {
		return nil, err
	}

	compileLatency, err := meter.Float64Histogram("trigger.compile.latency_ms",
		metric.WithDescription("Expression compilation latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	cacheHits, err := meter.Int64Counter("trigger.cache.hits",
		metric.WithDescription("Number of compiled-evaluator cache hits"),
	)
	if err != nil {
		return nil, err
	}

	cacheMisses, err := meter.Int64Counter("trigger.cache.misses",
		metric.WithDescription("Number of compiled-evaluator cache misses"),
	)
	if err != nil {
		return nil, err
	}

	evalLatency, err := meter.Float64Histogram("trigger.eval.latency_ms",
		metric.WithDescription("Expression evaluation latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	softFailures, err := meter.Int64Counter("trigger.eval.soft_failures",
		metric.WithDescription("Number of evaluation errors converted to soft defaults"),
	)
	if err != nil {
		return nil, err
	}

	return &otelMetrics{
		compiles:       compiles,
		compileErrors:  compileErrors,
		compileLatency: compileLatency,
		cacheHits:      cacheHits,
		cacheMisses:    cacheMisses,
		evalLatency:    evalLatency,
		softFailures:   softFailures,
	}, nil
}

// NewMetricsRecorder returns a MetricsRecorder that uses OpenTelemetry.
// If metrics initialization fails, returns a no-op recorder.
//
// The recorder uses the global OTel meter provider. Configure the
// provider before calling this function:
//
//	import "go.opentelemetry.io/otel"
//	otel.SetMeterProvider(yourProvider)
func NewMetricsRecorder() MetricsRecorder {
	m, err := getDefaultMetrics()
	if err != nil {
		return NoopMetrics{}
	}
	return m
}

// RecordCompile records one compilation attempt.
func (m *otelMetrics) RecordCompile(ctx context.Context, contextKind string, duration time.Duration, err error) {
	attrs := metric.WithAttributes(attribute.String("context", contextKind))
	m.compiles.Add(ctx, 1, attrs)
	m.compileLatency.Record(ctx, float64(duration)/float64(time.Millisecond), attrs)
	if err != nil {
		m.compileErrors.Add(ctx, 1, attrs)
	}
}

// RecordCacheLookup records a cache hit or miss.
func (m *otelMetrics) RecordCacheLookup(ctx context.Context, hit bool) {
	if hit {
		m.cacheHits.Add(ctx, 1)
		return
	}
	m.cacheMisses.Add(ctx, 1)
}

// RecordEvaluation records one evaluation.
func (m *otelMetrics) RecordEvaluation(ctx context.Context, contextKind string, duration time.Duration, soft bool) {
	attrs := metric.WithAttributes(attribute.String("context", contextKind))
	m.evalLatency.Record(ctx, float64(duration)/float64(time.Millisecond), attrs)
	if soft {
		m.softFailures.Add(ctx, 1, attrs)
	}
}
