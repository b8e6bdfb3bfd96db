package store

import "time"

// Mutation operation names reported to Instrumentation.
const (
	opInit   = "init"
	opUpdate = "update"
	opSet    = "set"
)

// Instrumentation receives engine activity, one call per mutation attempt
// and one per fan-out. Implementations must be cheap and must not call back
// into the engine; they run on the mutating caller's goroutine.
//
// The middleware package provides Prometheus and OpenTelemetry
// implementations.
type Instrumentation interface {
	// MutationObserved is called after every Init, Update, or Set attempt,
	// including failed ones. op is "init", "update", or "set"; namespace is
	// empty for Init.
	MutationObserved(op, namespace string, duration time.Duration, err error)

	// FireObserved is called once per fan-out with the number of observers
	// in the fire snapshot.
	FireObserved(namespace string, observers int)
}

// MultiInstrumentation fans engine activity out to several collectors.
type MultiInstrumentation []Instrumentation

// MutationObserved implements Instrumentation.
func (m MultiInstrumentation) MutationObserved(op, namespace string, duration time.Duration, err error) {
	for _, instr := range m {
		instr.MutationObserved(op, namespace, duration, err)
	}
}

// FireObserved implements Instrumentation.
func (m MultiInstrumentation) FireObserved(namespace string, observers int) {
	for _, instr := range m {
		instr.FireObserved(namespace, observers)
	}
}
