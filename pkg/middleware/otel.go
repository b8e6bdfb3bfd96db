package middleware

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/statebus/statebus/pkg/store"
)

// Default tracer name for statebus instrumentation.
const defaultTracerName = "statebus"

// OTelConfig configures the OpenTelemetry store instrumentation.
type OTelConfig struct {
	// TracerName is the name of the tracer (default: "statebus").
	TracerName string

	// Filter determines which namespaces to trace. Return true to trace.
	// If nil, all namespaces are traced.
	Filter func(namespace string) bool

	// tracer is the resolved tracer instance.
	tracer trace.Tracer
}

// OTelOption configures the OpenTelemetry store instrumentation.
type OTelOption func(*OTelConfig)

// WithTracerName sets the tracer name.
func WithTracerName(name string) OTelOption {
	return func(c *OTelConfig) {
		c.TracerName = name
	}
}

// WithNamespaceFilter sets a filter for which namespaces produce spans.
func WithNamespaceFilter(filter func(namespace string) bool) OTelOption {
	return func(c *OTelConfig) {
		c.Filter = filter
	}
}

// WithTracer sets an explicit tracer, bypassing the global provider.
// Mainly useful in tests.
func WithTracer(tracer trace.Tracer) OTelOption {
	return func(c *OTelConfig) {
		c.tracer = tracer
	}
}

// OTel creates store instrumentation that records one span per mutation.
// Store operations carry no context (they are synchronous and in-process),
// so spans are rooted in context.Background with timestamps reconstructed
// from the reported duration.
//
// Example:
//
//	engine := store.New(
//	    store.WithInstrumentation(middleware.OTel()),
//	)
func OTel(opts ...OTelOption) store.Instrumentation {
	config := OTelConfig{
		TracerName: defaultTracerName,
	}
	for _, opt := range opts {
		opt(&config)
	}
	if config.tracer == nil {
		config.tracer = otel.Tracer(config.TracerName)
	}

	return &otelInstrumentation{config: config}
}

type otelInstrumentation struct {
	config OTelConfig
}

// MutationObserved implements store.Instrumentation.
func (o *otelInstrumentation) MutationObserved(op, namespace string, duration time.Duration, err error) {
	if o.config.Filter != nil && !o.config.Filter(namespace) {
		return
	}

	end := time.Now()
	_, span := o.config.tracer.Start(context.Background(), "store."+op,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithTimestamp(end.Add(-duration)),
		trace.WithAttributes(
			attribute.String("statebus.op", op),
			attribute.String("statebus.namespace", namespace),
		),
	)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.RecordError(err)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End(trace.WithTimestamp(end))
}

// FireObserved implements store.Instrumentation. Fan-outs become their own
// short spans carrying the observer count; the mutation span has already
// been sized by the time nested fan-out counts are known, so events on it
// would land out of order.
func (o *otelInstrumentation) FireObserved(namespace string, observers int) {
	if o.config.Filter != nil && !o.config.Filter(namespace) {
		return
	}

	_, span := o.config.tracer.Start(context.Background(), "store.fire",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("statebus.namespace", namespace),
			attribute.Int("statebus.observers", observers),
		),
	)
	span.End()
}
