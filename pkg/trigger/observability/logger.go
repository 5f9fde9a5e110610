// Package observability provides the diagnostic surface of the
// trigger engine: structured logging via slog, metrics and tracing
// via OpenTelemetry. Everything is opt-in; a nil logger and the
// no-op implementations disable the corresponding channel entirely,
// which matters because a busy host may compile and evaluate
// thousands of expressions per processing turn.
package observability

import (
	"log/slog"
	"time"
)

// EnrichLogger tags a logger with the owning engine's identity.
// Returns a new logger carrying an engine_id field.
func EnrichLogger(logger *slog.Logger, engineID string) *slog.Logger {
	if logger == nil {
		return nil
	}
	return logger.With(slog.String("engine_id", engineID))
}

// LogCompile logs a successful expression compilation.
func LogCompile(logger *slog.Logger, expr, contextKind string, durationMs float64) {
	if logger == nil {
		return
	}
	logger.Debug("expression compiled",
		slog.String("expr", expr),
		slog.String("context", contextKind),
		slog.Float64("duration_ms", durationMs),
	)
}

// LogCompileError logs a lex or parse failure. The failure is not
// retried and never cached; this log line is its only visibility.
func LogCompileError(logger *slog.Logger, expr, contextKind string, err error) {
	if logger == nil {
		return
	}
	logger.Debug("expression invalid",
		slog.String("expr", expr),
		slog.String("context", contextKind),
		slog.String("error", err.Error()),
	)
}

// LogSoftFailure logs an evaluation error that was converted to the
// context default.
func LogSoftFailure(logger *slog.Logger, expr, contextKind string, err error) {
	if logger == nil {
		return
	}
	logger.Debug("evaluation failed soft",
		slog.String("expr", expr),
		slog.String("context", contextKind),
		slog.String("error", err.Error()),
	)
}

// LogCacheCleared logs an explicit cache clear.
func LogCacheCleared(logger *slog.Logger, entries int) {
	if logger == nil {
		return
	}
	logger.Debug("expression cache cleared",
		slog.Int("entries", entries),
	)
}

// TimedOperation measures the duration of an operation. The returned
// function reports the elapsed time in milliseconds.
func TimedOperation() func() float64 {
	start := time.Now()
	return func() float64 {
		return float64(time.Since(start)) / float64(time.Millisecond)
	}
}
