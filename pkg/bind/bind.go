package bind

import (
	"fmt"
	"sync"

	"github.com/statebus/statebus/pkg/store"
)

// RenderFunc receives the merged view of a binding's static props and its
// namespace data, and renders the component however the host UI layer sees
// fit. It is called once on Mount and once per store notification.
type RenderFunc func(props map[string]any)

// Binding connects one UI component to one store namespace. While mounted it
// re-invokes its render callback with fresh namespace data on every
// notification; unmounting unsubscribes and stops all rendering.
type Binding struct {
	engine    *store.Engine
	namespace string
	render    RenderFunc

	mu         sync.Mutex
	props      map[string]any
	observerID string
	mounted    bool
}

// Option configures a Binding.
type Option func(*Binding)

// WithProps sets static inputs that are merged underneath the namespace data
// on every render. Namespace keys win on collision.
func WithProps(props map[string]any) Option {
	return func(b *Binding) {
		b.props = props
	}
}

// New creates an unmounted binding for namespace on engine. The render
// callback must be non-nil.
func New(engine *store.Engine, namespace string, render RenderFunc, opts ...Option) *Binding {
	b := &Binding{
		engine:    engine,
		namespace: namespace,
		render:    render,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Mount subscribes the binding to its namespace and performs the initial
// render from the namespace's current value, before any notification
// arrives. Mounting an already-mounted binding is an error; the caller's
// activation/deactivation pairing is broken in that case.
func (b *Binding) Mount() error {
	b.mu.Lock()
	if b.mounted {
		b.mu.Unlock()
		return fmt.Errorf("bind: binding for %q already mounted", b.namespace)
	}
	b.mu.Unlock()

	id, err := b.engine.Subscribe(b.namespace, b.handle)
	if err != nil {
		return err
	}

	b.mu.Lock()
	b.observerID = id
	b.mounted = true
	b.mu.Unlock()

	b.handle(b.engine.Get(b.namespace))
	return nil
}

// Unmount unsubscribes the binding. It is idempotent: unmounting a binding
// that never mounted, or twice, is a no-op, mirroring the store's tolerant
// unsubscribe so teardown order never matters.
func (b *Binding) Unmount() {
	b.mu.Lock()
	if !b.mounted {
		b.mu.Unlock()
		return
	}
	id := b.observerID
	b.mounted = false
	b.observerID = ""
	b.mu.Unlock()

	b.engine.Unsubscribe(b.namespace, id)
}

// Mounted reports whether the binding is currently subscribed.
func (b *Binding) Mounted() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.mounted
}

// ObserverID returns the store observer id for the current mount, or "" when
// unmounted. Exposed for diagnostics.
func (b *Binding) ObserverID() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.observerID
}

// handle merges namespace data over the static props and renders.
func (b *Binding) handle(data any) {
	b.mu.Lock()
	merged := make(map[string]any, len(b.props)+1)
	for k, v := range b.props {
		merged[k] = v
	}
	b.mu.Unlock()

	if obj, ok := data.(map[string]any); ok {
		for k, v := range obj {
			merged[k] = v
		}
	} else {
		merged["data"] = data
	}

	b.render(merged)
}
