// Package middleware provides observability instrumentation for the store.
//
// Two collectors implement store.Instrumentation:
//
//   - Prometheus() records mutation counters, duration histograms, and
//     fan-out counters against a Prometheus registry.
//   - OTel() records one OpenTelemetry span per mutation and per fan-out.
//
// Attach either (or both, via store.MultiInstrumentation) when constructing
// an engine:
//
//	engine := store.New(
//	    store.WithInstrumentation(store.MultiInstrumentation{
//	        middleware.Prometheus(),
//	        middleware.OTel(),
//	    }),
//	)
//
// Instrumentation is strictly passive: collectors never call back into the
// engine and never affect store semantics.
package middleware
