package inventory

import (
	"context"

	"github.com/jhoicas/Gestion-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando repositorios atados a esa tx.
// Garantiza atomicidad del libro: o se confirman todas las escrituras o ninguna.
// La implementación puede reintentar fn ante contención transitoria; fn debe ser repetible.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		movRepo repository.MovementRepository,
		productRepo repository.ProductRepository,
	) error) error
}

// StockNotifier efecto posterior al commit; nunca devuelve error al llamador.
type StockNotifier interface {
	CheckAndNotify(ctx context.Context, change StockChange, origin string)
}

// NotificationChannel canal de entrega de alertas (correo, log, websocket).
type NotificationChannel interface {
	Name() string
	Send(ctx context.Context, n Notification) error
}

// AlertThrottle evita repetir la misma alerta dentro de una ventana.
// Allow devuelve true si la alerta con esa clave puede enviarse ahora;
// Reset libera la clave e indica si estaba vigente.
type AlertThrottle interface {
	Allow(ctx context.Context, key string) (bool, error)
	Reset(ctx context.Context, key string) (bool, error)
}

// ReceiptGenerator genera el comprobante PDF de un movimiento.
type ReceiptGenerator interface {
	GenerateMovementPDF(ctx context.Context, data ReceiptData) ([]byte, error)
}
