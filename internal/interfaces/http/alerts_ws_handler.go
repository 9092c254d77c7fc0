package http

import (
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Gestion-api/internal/infrastructure/notify"
)

// tokenFromQuery permite autenticar el websocket con ?token=, ya que el navegador no envía headers.
func tokenFromQuery(c *fiber.Ctx) error {
	if c.Get(fiber.HeaderAuthorization) == "" {
		if tok := c.Query("token"); tok != "" {
			c.Request().Header.Set(fiber.HeaderAuthorization, "Bearer "+tok)
		}
	}
	return c.Next()
}

// requireUpgrade rechaza peticiones que no son websocket.
func requireUpgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// AlertsWebSocket suscribe la conexión al hub hasta que el cliente se desconecta.
// Los mensajes entrantes se descartan.
func AlertsWebSocket(hub *notify.Hub) fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		if !hub.Subscribe(conn) {
			return
		}
		defer hub.Unsubscribe(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
}
