package store

import "errors"

// ErrNoInitialData is returned by Init when called with no namespaces.
// A store cannot exist without at least one declared namespace, since
// namespaces can never be created after initialization.
var ErrNoInitialData = errors.New("store: init requires a non-empty namespace map")

// ErrUnknownNamespace is returned when an operation references a namespace
// that was not declared at Init time. Namespaces are fixed for the lifetime
// of an initialization; mutating or subscribing to an undeclared one is a
// caller bug, not a recoverable condition.
var ErrUnknownNamespace = errors.New("store: unknown namespace")

// ErrNotMergeable is returned by Update when merge is requested but either
// the namespace value or the incoming data is not an object. Shallow merge
// is only defined between two key/value objects; use merge=false to replace
// a scalar or list value outright.
var ErrNotMergeable = errors.New("store: merge requires object values on both sides")
