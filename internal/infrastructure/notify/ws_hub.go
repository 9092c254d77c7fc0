package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/gofiber/contrib/websocket"
	"github.com/rs/zerolog"

	"github.com/jhoicas/Gestion-api/internal/application/inventory"
)

// Hub mantiene los clientes websocket suscritos a alertas y les reenvía cada mensaje.
type Hub struct {
	Clients    map[*websocket.Conn]bool
	Register   chan *websocket.Conn
	Unregister chan *websocket.Conn
	Broadcast  chan []byte
	mutex      sync.Mutex
	done       chan struct{}
	log        zerolog.Logger
}

func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		Clients:    make(map[*websocket.Conn]bool),
		Register:   make(chan *websocket.Conn),
		Unregister: make(chan *websocket.Conn),
		Broadcast:  make(chan []byte, 64),
		done:       make(chan struct{}),
		log:        log,
	}
}

// Run atiende registros y difusiones hasta que ctx termina; al salir cierra las conexiones.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mutex.Lock()
			for conn := range h.Clients {
				_ = conn.Close()
				delete(h.Clients, conn)
			}
			h.mutex.Unlock()
			return

		case conn := <-h.Register:
			h.mutex.Lock()
			h.Clients[conn] = true
			n := len(h.Clients)
			h.mutex.Unlock()
			h.log.Debug().Int("clients", n).Msg("cliente ws de alertas conectado")

		case conn := <-h.Unregister:
			h.mutex.Lock()
			if _, ok := h.Clients[conn]; ok {
				delete(h.Clients, conn)
				_ = conn.Close()
			}
			h.mutex.Unlock()

		case message := <-h.Broadcast:
			h.mutex.Lock()
			for conn := range h.Clients {
				if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
					_ = conn.Close()
					delete(h.Clients, conn)
				}
			}
			h.mutex.Unlock()
		}
	}
}

// Subscribe registra la conexión; false si el hub ya terminó.
func (h *Hub) Subscribe(conn *websocket.Conn) bool {
	select {
	case h.Register <- conn:
		return true
	case <-h.done:
		return false
	}
}

// Unsubscribe retira la conexión. Con el hub terminado no hace nada: Run ya cerró todas.
func (h *Hub) Unsubscribe(conn *websocket.Conn) {
	select {
	case h.Unregister <- conn:
	case <-h.done:
	}
}

// ClientCount clientes conectados.
func (h *Hub) ClientCount() int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return len(h.Clients)
}

var _ inventory.NotificationChannel = (*WSChannel)(nil)

// WSChannel publica la alerta en JSON a todos los clientes del hub.
type WSChannel struct {
	hub *Hub
}

func NewWSChannel(hub *Hub) *WSChannel {
	return &WSChannel{hub: hub}
}

func (c *WSChannel) Name() string { return "websocket" }

func (c *WSChannel) Send(ctx context.Context, n inventory.Notification) error {
	payload, err := json.Marshal(n.Alert)
	if err != nil {
		return fmt.Errorf("serializar alerta: %w", err)
	}
	select {
	case c.hub.Broadcast <- payload:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("hub de alertas ocupado: %w", ctx.Err())
	}
}
