package handlers

import (
	"log/slog"

	"github.com/carsch18/AI-OPS/internal/hub"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

// WSHandler attaches observers to the notification hub.
type WSHandler struct {
	hub *hub.Hub
}

func NewWSHandler(h *hub.Hub) *WSHandler {
	return &WSHandler{hub: h}
}

// UpgradeCheck is middleware that rejects non-websocket requests.
func (h *WSHandler) UpgradeCheck() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	}
}

// HandleObserver registers the connection with the hub, which sends the
// pending-action snapshot first, then keeps the read side alive until the
// observer goes away. Writes happen only through the hub.
func (h *WSHandler) HandleObserver() fiber.Handler {
	return websocket.New(func(c *websocket.Conn) {
		if err := h.hub.Register(c); err != nil {
			slog.Warn("observer rejected, initial snapshot failed", "error", err)
			return
		}
		defer h.hub.Unregister(c)

		for {
			// Observers do not speak; reading only detects disconnects.
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	})
}
