package trigger

import (
	"log/slog"
	"maps"
	"sync"

	"github.com/google/uuid"

	"github.com/talekit/trigger/pkg/trigger/builtin"
	"github.com/talekit/trigger/pkg/trigger/config"
	"github.com/talekit/trigger/pkg/trigger/eval"
	"github.com/talekit/trigger/pkg/trigger/observability"
)

// Context selects what a compiled expression evaluates against.
type Context = eval.Context

const (
	// ContextText evaluates against narrative text.
	ContextText = eval.Text
	// ContextObject evaluates against a structured record.
	ContextObject = eval.Object
)

// Bindings are the caller's per-evaluation ambient namespaces,
// exposed to expressions as bare identifiers. Missing names resolve
// to undefined.
type Bindings map[string]any

// Settings tune engine behavior.
type Settings struct {
	// FuzzyThreshold is the default similarity cutoff for the fuzzy
	// builtins. Zero means the default of 0.8.
	FuzzyThreshold float64

	// CacheLimit bounds the number of cached evaluators; when
	// exceeded the whole cache is dropped, since keys are
	// content-addressed and correctness never depends on retention.
	// Zero means unlimited.
	CacheLimit int
}

// DefaultSettings returns the default engine settings.
func DefaultSettings() Settings {
	return Settings{FuzzyThreshold: builtin.DefaultFuzzyThreshold}
}

// SettingsFromConfig reads engine settings from a config section:
//
//	fuzzy_threshold: 0.85
//	cache_limit: 4096
func SettingsFromConfig(cfg config.Config) Settings {
	def := DefaultSettings()
	return Settings{
		FuzzyThreshold: cfg.Float("fuzzy_threshold", def.FuzzyThreshold),
		CacheLimit:     cfg.Int("cache_limit", def.CacheLimit),
	}
}

// Engine compiles and evaluates trigger expressions. Each engine
// owns its own cache, builtin table, and host globals; sessions that
// must not share cache or globals get one engine each.
type Engine struct {
	id       string
	logger   *slog.Logger
	metrics  observability.MetricsRecorder
	spans    observability.SpanManager
	globals  map[string]any
	builtins *builtin.Registry
	settings Settings

	mu    sync.RWMutex
	cache map[cacheKey]*eval.Compiled
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the diagnostic logger. Nil (the default) disables
// diagnostic logging.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithMetrics sets the metrics recorder. Defaults to a no-op.
func WithMetrics(m observability.MetricsRecorder) Option {
	return func(e *Engine) {
		if m != nil {
			e.metrics = m
		}
	}
}

// WithSpans sets the trace span manager. Defaults to a no-op.
func WithSpans(sm observability.SpanManager) Option {
	return func(e *Engine) {
		if sm != nil {
			e.spans = sm
		}
	}
}

// WithGlobals sets the host-global fallback scope, consulted after
// record fields, builtins, and ambient bindings.
func WithGlobals(globals map[string]any) Option {
	return func(e *Engine) { e.globals = maps.Clone(globals) }
}

// WithBuiltins replaces the builtin function registry.
func WithBuiltins(r *builtin.Registry) Option {
	return func(e *Engine) {
		if r != nil {
			e.builtins = r
		}
	}
}

// WithSettings applies engine settings.
func WithSettings(s Settings) Option {
	return func(e *Engine) { e.settings = s }
}

// New creates an Engine.
func New(opts ...Option) *Engine {
	e := &Engine{
		id:       uuid.NewString(),
		metrics:  observability.NoopMetrics{},
		spans:    observability.NoopSpanManager{},
		settings: DefaultSettings(),
		cache:    make(map[cacheKey]*eval.Compiled),
	}
	for _, opt := range opts {
		opt(e)
	}
	// A zero threshold means the caller tuned other settings and left
	// this one alone; an explicit cutoff of 0 stays expressible per
	// call as fuzzy(word, 0.0).
	if e.settings.FuzzyThreshold == 0 {
		e.settings.FuzzyThreshold = builtin.DefaultFuzzyThreshold
	}
	if e.builtins == nil {
		e.builtins = builtin.NewRegistry(
			builtin.WithFuzzyThreshold(e.settings.FuzzyThreshold),
		)
	}
	e.logger = observability.EnrichLogger(e.logger, e.id)
	return e
}

// ID returns the engine's identity, used in logs and spans.
func (e *Engine) ID() string { return e.id }

// Builtins returns the engine's builtin registry, so hosts can add
// functions of their own.
func (e *Engine) Builtins() *builtin.Registry { return e.builtins }
