// Package inspect provides a development-time debugging surface for a store
// engine.
//
// The inspector is read-only: it serves the current storage snapshot and
// namespace values as JSON, and streams per-mutation change events over a
// WebSocket at /live. It is the HTTP sibling of the engine's debug log flag
// and, like it, has no effect on store semantics.
//
//	srv := inspect.New(engine)
//	go srv.ListenAndServe(ctx, "127.0.0.1:7070")
//
// Routes:
//
//	GET /api/snapshot              full storage snapshot
//	GET /api/namespaces            declared namespace names
//	GET /api/namespaces/{ns}       one namespace's value
//	GET /live[?namespace=ns]       WebSocket change stream
//
// Do not expose the inspector beyond development environments; it has no
// authentication and accepts any origin.
package inspect
