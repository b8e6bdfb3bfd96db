// Package bind connects UI components to store namespaces.
//
// A Binding is the thin adapter between a rendering callback and the store's
// subscribe/unsubscribe/get contract: Mount subscribes and renders once from
// the current namespace value, every subsequent store notification renders
// again with the new value merged over the binding's static props, and
// Unmount tears the subscription down.
//
//	binding := bind.New(engine, "cart", func(props map[string]any) {
//	    widget.Draw(props)
//	}, bind.WithProps(map[string]any{"title": "Cart"}))
//
//	binding.Mount()
//	defer binding.Unmount()
//
// Rendering mechanics are entirely the callback's concern; the package knows
// nothing about any particular UI layer.
package bind
