package notify

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/jhoicas/Gestion-api/internal/application/inventory"
)

var _ inventory.NotificationChannel = (*LogChannel)(nil)

// LogChannel escribe cada alerta como evento estructurado. Siempre activo.
type LogChannel struct {
	log zerolog.Logger
}

// NewLogChannel construye el canal sobre el logger de la app.
func NewLogChannel(log zerolog.Logger) *LogChannel {
	return &LogChannel{log: log.With().Str("component", "stock-alerts").Logger()}
}

func (c *LogChannel) Name() string { return "log" }

func (c *LogChannel) Send(_ context.Context, n inventory.Notification) error {
	a := n.Alert
	ev := c.log.Warn()
	if a.Kind == inventory.AlertRestocked {
		ev = c.log.Info()
	}
	ev.Str("alert", string(a.Kind)).
		Str("product_id", a.ProductID).
		Str("product", a.ProductName).
		Int("quantity", a.Quantity).
		Int("previous", a.Previous).
		Int("min_stock", a.MinStock).
		Int("max_stock", a.MaxStock).
		Str("origin", a.Context).
		Msg(n.Subject)
	return nil
}
