// Package hub fans lifecycle events out to connected observers. Delivery is
// best-effort: a connection that fails a write is pruned from the set and
// the remaining observers are unaffected.
package hub

import (
	"log/slog"
	"sync"

	"github.com/carsch18/AI-OPS/internal/models"
)

// Conn is one observer channel. The production implementation is a fiber
// websocket connection; tests substitute a double.
type Conn interface {
	WriteJSON(v interface{}) error
}

// observer wraps a connection with its own write mutex. The underlying
// websocket connection allows at most one concurrent writer, and broadcasts
// from separate in-flight requests would otherwise race on it.
type observer struct {
	mu   sync.Mutex
	conn Conn
}

func (o *observer) send(v interface{}) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.conn.WriteJSON(v)
}

// Hub owns the set of connected observers.
type Hub struct {
	mu      sync.RWMutex
	conns   map[Conn]*observer
	pending func() []models.Action // snapshot source for newly connected observers
}

// New creates a hub. pending supplies the current PENDING actions sent to
// each observer as its first message.
func New(pending func() []models.Action) *Hub {
	return &Hub{
		conns:   make(map[Conn]*observer),
		pending: pending,
	}
}

// Register adds an observer and sends it the pending-action snapshot. The
// snapshot is written under the hub lock so the observer sees a consistent
// state and only deltas afterwards.
func (h *Hub) Register(c Conn) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	var snapshot []models.Action
	if h.pending != nil {
		snapshot = h.pending()
	}
	if snapshot == nil {
		snapshot = []models.Action{}
	}

	o := &observer{conn: c}
	if err := o.send(map[string]interface{}{
		"type":            "initial",
		"pending_actions": snapshot,
	}); err != nil {
		return err
	}

	h.conns[c] = o
	slog.Info("observer connected", "observers", len(h.conns))
	return nil
}

// Unregister drops an observer, typically when its read loop ends.
func (h *Hub) Unregister(c Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.conns[c]; ok {
		delete(h.conns, c)
		slog.Info("observer disconnected", "observers", len(h.conns))
	}
}

// Count returns the number of connected observers.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// Shutdown drops every observer, closing connections that support it.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.conns {
		if closer, ok := c.(interface{ Close() error }); ok {
			closer.Close()
		}
		delete(h.conns, c)
	}
	slog.Info("observers drained")
}

// Broadcast delivers event to every observer and returns how many writes
// succeeded. Writes are serialized per connection; failed connections are
// removed from the set.
func (h *Hub) Broadcast(event interface{}) int {
	h.mu.RLock()
	observers := make(map[Conn]*observer, len(h.conns))
	for c, o := range h.conns {
		observers[c] = o
	}
	h.mu.RUnlock()

	var dead []Conn
	delivered := 0
	for c, o := range observers {
		if err := o.send(event); err != nil {
			dead = append(dead, c)
			continue
		}
		delivered++
	}

	if len(dead) > 0 {
		h.mu.Lock()
		for _, c := range dead {
			delete(h.conns, c)
		}
		h.mu.Unlock()
		slog.Info("pruned dead observers", "pruned", len(dead), "observers", h.Count())
	}
	return delivered
}

// PendingAction announces a newly proposed action.
func (h *Hub) PendingAction(a *models.Action) int {
	return h.Broadcast(map[string]interface{}{
		"type":   "pending_action",
		"action": a,
	})
}

// ActionResolved announces a recorded human decision.
func (h *Hub) ActionResolved(actionID, decision string) int {
	return h.Broadcast(map[string]interface{}{
		"type":      "action_resolved",
		"action_id": actionID,
		"decision":  decision,
	})
}

// AutomationResult announces an executor callback.
func (h *Hub) AutomationResult(actionID, status string, success bool, message string) int {
	return h.Broadcast(map[string]interface{}{
		"type":      "automation_result",
		"action_id": actionID,
		"status":    status,
		"success":   success,
		"message":   message,
	})
}
