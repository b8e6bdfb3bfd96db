package middleware

import (
	"errors"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/statebus/statebus/pkg/store"
)

// MetricsConfig configures the Prometheus store instrumentation.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "statebus").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for mutation duration.
	// Default: prometheus.DefBuckets.
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer.
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus store instrumentation.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "statebus",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// metrics holds the Prometheus collectors for store activity.
type metrics struct {
	mutationsTotal   *prometheus.CounterVec
	mutationDuration *prometheus.HistogramVec
	mutationErrors   *prometheus.CounterVec
	firesTotal       *prometheus.CounterVec
	observersFired   *prometheus.CounterVec
}

// globalMetrics is the singleton registered against the default registry.
// Registering the same collectors twice panics, so Prometheus() with the
// default registry always reuses this instance.
var (
	globalMetrics     *metrics
	globalMetricsOnce sync.Once
)

func initMetrics(config MetricsConfig) *metrics {
	factory := promauto.With(config.Registry)

	return &metrics{
		mutationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "mutations_total",
			Help:        "Total store mutations by operation, namespace, and status",
			ConstLabels: config.ConstLabels,
		}, []string{"op", "namespace", "status"}),

		mutationDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "mutation_duration_seconds",
			Help:        "Mutation duration in seconds, fan-out included",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"op"}),

		mutationErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "mutation_errors_total",
			Help:        "Total failed store mutations by operation and error type",
			ConstLabels: config.ConstLabels,
		}, []string{"op", "error_type"}),

		firesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "fires_total",
			Help:        "Total notification fan-outs by namespace",
			ConstLabels: config.ConstLabels,
		}, []string{"namespace"}),

		observersFired: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "observers_fired_total",
			Help:        "Total observer callbacks invoked by namespace",
			ConstLabels: config.ConstLabels,
		}, []string{"namespace"}),
	}
}

// Prometheus creates store instrumentation that collects Prometheus metrics.
//
// Metrics collected:
//   - statebus_mutations_total: Counter of mutations by op, namespace, status
//   - statebus_mutation_duration_seconds: Histogram of mutation duration
//   - statebus_mutation_errors_total: Counter of failed mutations by error type
//   - statebus_fires_total: Counter of notification fan-outs per namespace
//   - statebus_observers_fired_total: Counter of callbacks invoked per namespace
//
// Example:
//
//	engine := store.New(
//	    store.WithInstrumentation(middleware.Prometheus()),
//	)
func Prometheus(opts ...MetricsOption) store.Instrumentation {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}

	var m *metrics
	if config.Registry == prometheus.DefaultRegisterer {
		globalMetricsOnce.Do(func() {
			globalMetrics = initMetrics(config)
		})
		m = globalMetrics
	} else {
		m = initMetrics(config)
	}

	return &promInstrumentation{metrics: m}
}

type promInstrumentation struct {
	metrics *metrics
}

// MutationObserved implements store.Instrumentation.
func (p *promInstrumentation) MutationObserved(op, namespace string, duration time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
		p.metrics.mutationErrors.WithLabelValues(op, errorType(err)).Inc()
	}
	p.metrics.mutationsTotal.WithLabelValues(op, namespace, status).Inc()
	p.metrics.mutationDuration.WithLabelValues(op).Observe(duration.Seconds())
}

// FireObserved implements store.Instrumentation.
func (p *promInstrumentation) FireObserved(namespace string, observers int) {
	p.metrics.firesTotal.WithLabelValues(namespace).Inc()
	p.metrics.observersFired.WithLabelValues(namespace).Add(float64(observers))
}

// errorType maps store errors to a low-cardinality label value.
func errorType(err error) string {
	switch {
	case errors.Is(err, store.ErrNoInitialData):
		return "no_initial_data"
	case errors.Is(err, store.ErrUnknownNamespace):
		return "unknown_namespace"
	case errors.Is(err, store.ErrNotMergeable):
		return "not_mergeable"
	default:
		return "other"
	}
}
