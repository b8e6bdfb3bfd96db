package store

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Engine is a namespaced, observable, in-memory state store. Namespaces are
// declared once at Init and hold one JSON-model value subtree each; observers
// subscribe per namespace and are fired synchronously on every mutation.
//
// The engine serializes its own storage and registry access, and callbacks
// are always invoked outside the internal lock, so an observer may issue
// further mutations from within its own invocation. Per-namespace ordering
// guarantees assume a single mutating goroutine; hosts driving one engine
// from several goroutines must serialize multi-step protocols themselves.
type Engine struct {
	mu        sync.Mutex
	storage   map[string]any
	observers map[string][]observer

	debug  bool
	logger *slog.Logger
	instr  Instrumentation
}

// observer is one registered callback. The registry keeps observers in
// insertion order so fire order is deterministic.
type observer struct {
	id string
	fn func(any)
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the structured logger used for the debug storage trace.
// If not set, slog.Default() is used.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithInstrumentation attaches mutation/fire instrumentation, e.g. the
// Prometheus or OTel collectors from the middleware package.
func WithInstrumentation(instr Instrumentation) Option {
	return func(e *Engine) {
		e.instr = instr
	}
}

// New creates an empty engine. Init must be called before any other
// operation; until then every namespace is unknown and Get resolves nothing.
func New(opts ...Option) *Engine {
	e := &Engine{
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Init replaces the engine's entire contents with a sanitized deep copy of
// data, one namespace per top-level key. The observer registry is reset to an
// empty set per namespace: observers registered before a re-Init are
// discarded and callers must resubscribe.
//
// The debug flag enables a diagnostic trace of the full storage snapshot
// after every mutation. It has no effect on store semantics.
//
// Returns ErrNoInitialData on a nil or empty map; prior state, if any, is
// left untouched in that case.
func (e *Engine) Init(data map[string]any, debug bool) error {
	start := time.Now()
	err := e.doInit(data, debug)
	e.observeMutation(opInit, "", start, err)
	return err
}

func (e *Engine) doInit(data map[string]any, debug bool) error {
	if len(data) == 0 {
		return ErrNoInitialData
	}

	storage := make(map[string]any, len(data))
	observers := make(map[string][]observer, len(data))
	for namespace, value := range data {
		storage[namespace] = sanitize(value)
		observers[namespace] = nil
	}

	e.mu.Lock()
	e.storage = storage
	e.observers = observers
	e.debug = debug
	e.mu.Unlock()

	e.trace(opInit, "")
	return nil
}

// Update mutates a namespace and fires its observers with the new full value.
//
// With merge true the sanitized data is shallow-merged into the existing
// namespace value: keys in data overwrite, unmentioned keys are preserved.
// Both sides must be objects or ErrNotMergeable is returned. With merge
// false the namespace value is replaced outright.
//
// Returns ErrUnknownNamespace if the namespace was not declared at Init; a
// failed update never fires.
func (e *Engine) Update(namespace string, data any, merge bool) error {
	start := time.Now()
	err := e.doUpdate(namespace, data, merge)
	e.observeMutation(opUpdate, namespace, start, err)
	return err
}

func (e *Engine) doUpdate(namespace string, data any, merge bool) error {
	clean := sanitize(data)

	e.mu.Lock()
	current, ok := e.storage[namespace]
	if !ok {
		e.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrUnknownNamespace, namespace)
	}

	if merge {
		target, tok := current.(map[string]any)
		incoming, iok := clean.(map[string]any)
		if !tok || !iok {
			e.mu.Unlock()
			return fmt.Errorf("%w: namespace %q", ErrNotMergeable, namespace)
		}
		for k, v := range incoming {
			target[k] = v
		}
	} else {
		e.storage[namespace] = clean
	}
	e.mu.Unlock()

	e.trace(opUpdate, namespace)
	e.fire(namespace)
	return nil
}

// Set sanitizes value and deep-sets it at a dot-delimited path whose first
// segment names the namespace, creating intermediate object containers as
// needed. Observers of the namespace are then fired with the namespace's
// full current value, not just the nested fragment. A bare namespace name
// replaces the namespace value outright.
//
// Returns ErrUnknownNamespace if the path's first segment was not declared
// at Init: namespaces are fixed and Set never creates one.
func (e *Engine) Set(key string, value any) error {
	start := time.Now()
	namespace, rest := splitPath(key)
	err := e.doSet(namespace, rest, value)
	e.observeMutation(opSet, namespace, start, err)
	return err
}

func (e *Engine) doSet(namespace string, rest []string, value any) error {
	clean := sanitize(value)

	e.mu.Lock()
	current, ok := e.storage[namespace]
	if !ok {
		e.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrUnknownNamespace, namespace)
	}
	e.storage[namespace] = setPath(current, rest, clean)
	e.mu.Unlock()

	e.trace(opSet, namespace)
	e.fire(namespace)
	return nil
}

// Get resolves a dot-delimited path and returns the value there, or nil if
// any segment fails to resolve. Get never errors, even on paths into
// namespaces that were never declared.
//
// Object-like results are returned as a shallow copy: only the top level is
// protected against caller mutation. Nested containers still alias the
// stored value. This asymmetry with the deep-copying write path is
// intentional, preserved behavior; treat nested results as read-only.
func (e *Engine) Get(key string) any {
	namespace, rest := splitPath(key)

	e.mu.Lock()
	root, ok := e.storage[namespace]
	e.mu.Unlock()
	if !ok {
		return nil
	}

	return shallowCopy(lookupPath(root, rest))
}

// Subscribe registers fn as an observer of namespace and returns its
// observer id. fn is invoked with the namespace's full current value on
// every subsequent Update or Set touching the namespace, until the id is
// passed to Unsubscribe.
//
// Returns ErrUnknownNamespace if the namespace was not declared at Init.
func (e *Engine) Subscribe(namespace string, fn func(data any)) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.storage[namespace]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownNamespace, namespace)
	}

	id := generateObserverID(namespace)
	e.observers[namespace] = append(e.observers[namespace], observer{id: id, fn: fn})
	return id, nil
}

// Unsubscribe removes the registration for observerID under namespace. It is
// a no-op if the id is already gone or the namespace itself is unknown, so
// teardown paths never need to order their cleanup carefully.
func (e *Engine) Unsubscribe(namespace, observerID string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	list := e.observers[namespace]
	for i, o := range list {
		if o.id == observerID {
			e.observers[namespace] = append(list[:i:i], list[i+1:]...)
			return
		}
	}
}

// Namespaces returns the declared namespace names. Order is unspecified.
func (e *Engine) Namespaces() []string {
	e.mu.Lock()
	defer e.mu.Unlock()

	names := make([]string, 0, len(e.storage))
	for namespace := range e.storage {
		names = append(names, namespace)
	}
	return names
}

// Snapshot returns a sanitized deep copy of the entire storage map. It is a
// diagnostic read used by the debug trace and the inspector; hot paths
// should use Get.
func (e *Engine) Snapshot() map[string]any {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

func (e *Engine) snapshotLocked() map[string]any {
	out := make(map[string]any, len(e.storage))
	for namespace, value := range e.storage {
		out[namespace] = sanitize(value)
	}
	return out
}

// fire invokes every observer registered for namespace, in insertion order,
// from a snapshot of the registry taken at fire time. Each callback receives
// the namespace's current value as of its own invocation, so a reentrant
// mutation issued inside a callback runs its complete fire cycle first and
// later callbacks in this cycle still observe the newest value.
func (e *Engine) fire(namespace string) {
	e.mu.Lock()
	snapshot := make([]observer, len(e.observers[namespace]))
	copy(snapshot, e.observers[namespace])
	e.mu.Unlock()

	if e.instr != nil {
		e.instr.FireObserved(namespace, len(snapshot))
	}

	for _, o := range snapshot {
		e.mu.Lock()
		value := shallowCopy(e.storage[namespace])
		e.mu.Unlock()
		o.fn(value)
	}
}

// shallowCopy copies the top level of object-like values. Scalars pass
// through unchanged.
func shallowCopy(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, x := range val {
			out[k] = x
		}
		return out
	case []any:
		out := make([]any, len(val))
		copy(out, val)
		return out
	default:
		return v
	}
}

// trace emits the full storage snapshot when the debug flag is set.
func (e *Engine) trace(op, namespace string) {
	e.mu.Lock()
	if !e.debug {
		e.mu.Unlock()
		return
	}
	snapshot := e.snapshotLocked()
	e.mu.Unlock()

	e.logger.Info("storage snapshot", "op", op, "namespace", namespace, "storage", snapshot)
}

func (e *Engine) observeMutation(op, namespace string, start time.Time, err error) {
	if e.instr != nil {
		e.instr.MutationObserved(op, namespace, time.Since(start), err)
	}
}

// generateObserverID returns a namespace-scoped random observer id. Ids only
// need to be unique within their namespace while registered; the namespace
// prefix keeps them readable in logs.
func generateObserverID(namespace string) string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		panic(fmt.Sprintf("crypto/rand failed: %v", err))
	}
	return namespace + "-" + hex.EncodeToString(b)
}
