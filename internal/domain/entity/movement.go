package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// MovementKind tipo de movimiento del libro: compra, venta o abastecimiento interno.
type MovementKind string

const (
	MovementPurchase MovementKind = "PURCHASE"
	MovementSale     MovementKind = "SALE"
	MovementSupply   MovementKind = "SUPPLY"
)

// Valid indica si el tipo es uno de los soportados.
func (k MovementKind) Valid() bool {
	switch k {
	case MovementPurchase, MovementSale, MovementSupply:
		return true
	}
	return false
}

// Movement cabecera de un movimiento (compra, venta o abastecimiento).
// Active distingue vigente de anulado. StockApplied registra si el efecto sobre
// existencias está aplicado en este momento; es la única fuente para revertirlo.
type Movement struct {
	ID             string
	Kind           MovementKind
	CounterpartyID *string // proveedor, cliente o empleado según Kind; nil en venta anónima
	StateID        *string // estado de proceso (compras y ventas)
	Reference      string
	Subtotal       decimal.Decimal
	Tax            decimal.Decimal
	Total          decimal.Decimal
	Active         bool
	StockApplied   bool
	CreatedBy      string
	CreatedAt      time.Time
	UpdatedAt      time.Time

	Details  []MovementDetail `db:"-"`
	Services []ServiceLine    `db:"-"`
}

// MovementDetail línea de producto. UnitPrice es la foto del precio al crear la línea.
type MovementDetail struct {
	ID         string
	MovementID string
	ProductID  string
	Quantity   int
	UnitPrice  decimal.Decimal
	Subtotal   decimal.Decimal
}

// ServiceLine línea de servicio de una venta; nunca toca existencias.
type ServiceLine struct {
	ID            string
	MovementID    string
	ServiceID     string
	AppointmentID *string
	Quantity      int
	UnitPrice     decimal.Decimal
	Subtotal      decimal.Decimal
}
