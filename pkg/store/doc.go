// Package store implements a namespaced, observable, in-memory state store.
//
// A store holds one JSON-model value per namespace. Namespaces are declared
// once, at Init, and are fixed for the lifetime of that initialization;
// mutations replace or merge a namespace's value and synchronously notify
// every observer subscribed to it.
//
// Usage:
//
//	engine := store.New()
//	engine.Init(map[string]any{
//	    "cart": map[string]any{"items": []any{}},
//	}, false)
//
//	id, _ := engine.Subscribe("cart", func(data any) {
//	    render(data)
//	})
//
//	engine.Update("cart", map[string]any{"open": true}, true)
//	engine.Set("cart.items", []any{"sku-1"})
//
//	engine.Unsubscribe("cart", id)
//
// Every value entering the store is sanitized: normalized into the JSON
// value model and deep-copied, so stored state never shares identity with
// caller-owned objects. Reads via Get return a shallow copy of object-like
// values; nested containers alias storage and must be treated as read-only.
//
// Notification is synchronous and unbatched. A mutation's fan-out runs to
// completion on the caller's stack before the mutating call returns, and a
// mutation issued from inside an observer callback nests its own complete
// fan-out (see Engine.fire). There is no background goroutine and no I/O.
package store
