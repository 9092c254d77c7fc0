package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// MovementLineRequest línea de producto. UnitPrice vacío toma el precio vigente del producto
// (excepto en compras, donde es obligatorio).
type MovementLineRequest struct {
	ProductID string           `json:"product_id" validate:"required"`
	Quantity  int              `json:"quantity" validate:"gt=0"`
	UnitPrice *decimal.Decimal `json:"unit_price,omitempty"`
}

// ServiceLineRequest línea de servicio (solo ventas). Quantity 0 se toma como 1.
type ServiceLineRequest struct {
	ServiceID     string           `json:"service_id" validate:"required"`
	AppointmentID *string          `json:"appointment_id,omitempty"`
	Quantity      int              `json:"quantity" validate:"gte=0"`
	UnitPrice     *decimal.Decimal `json:"unit_price,omitempty"`
}

// CreateMovementRequest entrada para registrar una compra, venta o abastecimiento.
// CounterpartyID es proveedor (compra), cliente (venta, opcional) o empleado (abastecimiento).
type CreateMovementRequest struct {
	CounterpartyID *string               `json:"counterparty_id,omitempty"`
	StateID        *string               `json:"state_id,omitempty"`
	Reference      string                `json:"reference" validate:"max=120"`
	Lines          []MovementLineRequest `json:"lines" validate:"dive"`
	Services       []ServiceLineRequest  `json:"services" validate:"dive"`
	Tax            *decimal.Decimal      `json:"tax,omitempty"`
	Total          *decimal.Decimal      `json:"total,omitempty"`
}

// UpdateLineRequest línea en una edición; Quantity 0 elimina la línea.
type UpdateLineRequest struct {
	ProductID string           `json:"product_id" validate:"required"`
	Quantity  int              `json:"quantity" validate:"gte=0"`
	UnitPrice *decimal.Decimal `json:"unit_price,omitempty"`
}

// UpdateMovementRequest edición parcial; los campos nil no se modifican.
// Lines y Services, si vienen, reemplazan el conjunto completo de líneas.
type UpdateMovementRequest struct {
	CounterpartyID *string               `json:"counterparty_id,omitempty"`
	Reference      *string               `json:"reference,omitempty" validate:"omitempty,max=120"`
	Lines          *[]UpdateLineRequest  `json:"lines,omitempty" validate:"omitempty,dive"`
	Services       *[]ServiceLineRequest `json:"services,omitempty" validate:"omitempty,dive"`
	Tax            *decimal.Decimal      `json:"tax,omitempty"`
	Total          *decimal.Decimal      `json:"total,omitempty"`
}

// ChangeStateRequest cambio de estado de proceso.
type ChangeStateRequest struct {
	StateID string `json:"state_id" validate:"required"`
}

// MovementFilterRequest filtros de listado (query string).
type MovementFilterRequest struct {
	PageRequest
	Active         *bool      `query:"active"`
	CounterpartyID string     `query:"counterparty_id"`
	StateID        string     `query:"state_id"`
	From           *time.Time `query:"-"`
	To             *time.Time `query:"-"`
}

// MovementDetailResponse línea de producto.
type MovementDetailResponse struct {
	ID        string          `json:"id"`
	ProductID string          `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// ServiceLineResponse línea de servicio.
type ServiceLineResponse struct {
	ID            string          `json:"id"`
	ServiceID     string          `json:"service_id"`
	AppointmentID *string         `json:"appointment_id,omitempty"`
	Quantity      int             `json:"quantity"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	Subtotal      decimal.Decimal `json:"subtotal"`
}

// MovementResponse agregado persistido (cabecera + líneas).
type MovementResponse struct {
	ID             string                   `json:"id"`
	Kind           string                   `json:"kind"`
	CounterpartyID *string                  `json:"counterparty_id,omitempty"`
	StateID        *string                  `json:"state_id,omitempty"`
	Reference      string                   `json:"reference"`
	Subtotal       decimal.Decimal          `json:"subtotal"`
	Tax            decimal.Decimal          `json:"tax"`
	Total          decimal.Decimal          `json:"total"`
	Active         bool                     `json:"active"`
	StockApplied   bool                     `json:"stock_applied"`
	CreatedBy      string                   `json:"created_by"`
	CreatedAt      time.Time                `json:"created_at"`
	UpdatedAt      time.Time                `json:"updated_at"`
	Details        []MovementDetailResponse `json:"details"`
	Services       []ServiceLineResponse    `json:"services,omitempty"`
}

// MovementListResponse lista paginada de movimientos.
type MovementListResponse struct {
	Items []MovementResponse `json:"items"`
	Page  PageResponse       `json:"page"`
}
