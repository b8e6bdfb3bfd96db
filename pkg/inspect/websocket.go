package inspect

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// ChangeEvent is one store mutation as seen by a live stream client.
type ChangeEvent struct {
	Namespace string    `json:"namespace"`
	Data      any       `json:"data"`
	Time      time.Time `json:"time"`
}

const (
	// eventBuffer bounds the per-client queue. Store callbacks run on the
	// mutating goroutine and must never block on a slow client, so events
	// beyond the buffer are dropped.
	eventBuffer = 256

	writeTimeout = 10 * time.Second
)

// upgrader accepts any origin: the inspector is a dev tool that is expected
// to be reached from whatever port the host app runs on.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// handleLive upgrades the connection and streams a ChangeEvent per store
// mutation. An optional ?namespace= query restricts the stream to one
// namespace; by default every declared namespace is watched.
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	namespaces := s.engine.Namespaces()
	if ns := r.URL.Query().Get("namespace"); ns != "" {
		if !s.knownNamespace(ns) {
			s.writeJSON(w, http.StatusNotFound, map[string]any{
				"error": "unknown namespace",
			})
			return
		}
		namespaces = []string{ns}
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	events := make(chan ChangeEvent, eventBuffer)

	// One observer per watched namespace. Callbacks run on the mutating
	// goroutine; a full queue drops rather than blocks.
	type registration struct{ namespace, id string }
	var regs []registration
	for _, namespace := range namespaces {
		namespace := namespace
		id, err := s.engine.Subscribe(namespace, func(data any) {
			select {
			case events <- ChangeEvent{Namespace: namespace, Data: data, Time: time.Now()}:
			default:
				s.logger.Warn("live stream backlogged, dropping event", "namespace", namespace)
			}
		})
		if err != nil {
			s.logger.Error("live stream subscribe failed", "namespace", namespace, "error", err)
			continue
		}
		regs = append(regs, registration{namespace: namespace, id: id})
	}

	unsubscribe := func() {
		for _, reg := range regs {
			s.engine.Unsubscribe(reg.namespace, reg.id)
		}
	}

	done := make(chan struct{})

	// Read loop: the client sends nothing meaningful; this only detects
	// close and ping/pong traffic.
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err,
					websocket.CloseGoingAway,
					websocket.CloseAbnormalClosure,
					websocket.CloseNormalClosure) {
					s.logger.Error("live stream read error", "error", err)
				}
				return
			}
		}
	}()

	// Write loop.
	for {
		select {
		case <-done:
			unsubscribe()
			conn.Close()
			return
		case ev := <-events:
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteJSON(ev); err != nil {
				s.logger.Error("live stream write error", "error", err)
				unsubscribe()
				conn.Close()
				return
			}
		}
	}
}
