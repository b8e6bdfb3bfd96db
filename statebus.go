// Package statebus is the application-boundary convenience layer over the
// store engine.
//
// Most applications want exactly one store shared across their UI; this
// package holds that single default engine and mirrors its API as
// package-level functions:
//
//	statebus.Init(map[string]any{
//	    "cart": map[string]any{"items": []any{}},
//	}, false)
//
//	id, _ := statebus.Subscribe("cart", onCartChange)
//	statebus.Set("cart.items", []any{"sku-1"})
//	statebus.Unsubscribe("cart", id)
//
// Code needing isolation (tests, multi-tenant hosts) should instantiate
// engines directly via pkg/store instead of sharing the default.
package statebus

import (
	"sync"

	"github.com/statebus/statebus/pkg/bind"
	"github.com/statebus/statebus/pkg/store"
)

// Re-exported sentinel errors, so callers of the default instance don't need
// a second import just for errors.Is.
var (
	ErrNoInitialData    = store.ErrNoInitialData
	ErrUnknownNamespace = store.ErrUnknownNamespace
	ErrNotMergeable     = store.ErrNotMergeable
)

var (
	defaultMu     sync.Mutex
	defaultEngine = store.New()
)

// Configure replaces the default engine with a freshly constructed one using
// the given options. Call it once at application bootstrap, before Init;
// configuring later silently discards all state and observers, exactly like
// a re-Init does.
func Configure(opts ...store.Option) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultEngine = store.New(opts...)
}

// Default returns the process-wide default engine.
func Default() *store.Engine {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	return defaultEngine
}

// Init initializes the default engine. See store.Engine.Init.
func Init(data map[string]any, log bool) error {
	return Default().Init(data, log)
}

// Update mutates a namespace on the default engine. See store.Engine.Update.
func Update(namespace string, data any, merge bool) error {
	return Default().Update(namespace, data, merge)
}

// Set deep-sets a dot-path on the default engine. See store.Engine.Set.
func Set(key string, value any) error {
	return Default().Set(key, value)
}

// Get resolves a dot-path on the default engine. See store.Engine.Get.
func Get(key string) any {
	return Default().Get(key)
}

// Subscribe registers an observer on the default engine.
// See store.Engine.Subscribe.
func Subscribe(namespace string, fn func(data any)) (string, error) {
	return Default().Subscribe(namespace, fn)
}

// Unsubscribe removes an observer from the default engine.
// See store.Engine.Unsubscribe.
func Unsubscribe(namespace, observerID string) {
	Default().Unsubscribe(namespace, observerID)
}

// Bind creates an unmounted binding from a UI component to a namespace of
// the default engine. See the bind package.
func Bind(namespace string, render bind.RenderFunc, opts ...bind.Option) *bind.Binding {
	return bind.New(Default(), namespace, render, opts...)
}
