package handlers

import (
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"

	"github.com/wardline-health/staff-access-service/internal/auth"
	"github.com/wardline-health/staff-access-service/internal/service"
	"github.com/wardline-health/staff-access-service/internal/ws"
)

const wsClientKey = "ws_client"

// WSHandler upgrades authenticated callers onto the access-request feed.
type WSHandler struct {
	hub    *ws.Hub
	access *service.AccessService
}

// NewWSHandler constructs handler.
func NewWSHandler(hub *ws.Hub, access *service.AccessService) *WSHandler {
	return &WSHandler{hub: hub, access: access}
}

// Upgrade rejects plain HTTP and records who is connecting before the handshake.
func (h *WSHandler) Upgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return c.SendStatus(fiber.StatusUpgradeRequired)
	}
	identity, err := auth.IdentityFromContext(c)
	if err != nil {
		return err
	}
	c.Locals(wsClientKey, &ws.Client{
		Email:   identity.Email,
		Manager: h.access.IsManager(c.UserContext(), identity),
	})
	return c.Next()
}

// Stream handles GET /ws/access-requests.
func (h *WSHandler) Stream() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		client, ok := conn.Locals(wsClientKey).(*ws.Client)
		if !ok {
			conn.Close()
			return
		}
		client.Conn = conn
		h.hub.Register(client)
		defer h.hub.Unregister(client)

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
	})
}
