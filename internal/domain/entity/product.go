package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// UsageKind clasifica el uso del producto: venta al público o consumo interno.
type UsageKind string

const (
	UsageSale     UsageKind = "SALE"
	UsageInternal UsageKind = "INTERNAL"
)

// Product es el registro del libro de existencias.
// Quantity solo la escribe el primitivo de ajuste de stock; MaxStock = 0 significa sin tope.
type Product struct {
	ID        string
	Name      string
	Price     decimal.Decimal // precio unitario vigente
	Quantity  int
	MinStock  int
	MaxStock  int
	Active    bool
	UsageKind UsageKind
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsLowStock indica si la existencia está en o por debajo del mínimo.
func (p *Product) IsLowStock() bool {
	return p.Quantity <= p.MinStock
}

// IsOverstock indica si la existencia supera el máximo configurado.
func (p *Product) IsOverstock() bool {
	return p.MaxStock > 0 && p.Quantity > p.MaxStock
}
