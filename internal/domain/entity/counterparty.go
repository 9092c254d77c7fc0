package entity

import "github.com/shopspring/decimal"

// CounterpartyKind directorio al que pertenece la contraparte de un movimiento.
type CounterpartyKind string

const (
	CounterpartySupplier CounterpartyKind = "SUPPLIER"
	CounterpartyClient   CounterpartyKind = "CLIENT"
	CounterpartyEmployee CounterpartyKind = "EMPLOYEE"
)

// Counterparty proveedor, cliente o empleado (CRUD externo; aquí solo lectura).
type Counterparty struct {
	ID     string
	Kind   CounterpartyKind `db:"-"`
	Name   string
	Email  string
	Active bool
}

// ProcessState estado de proceso de compras y ventas.
// AffectsStock marca explícitamente los estados en los que la venta descuenta existencias.
type ProcessState struct {
	ID           string
	Name         string
	AffectsStock bool
}

// ServiceItem servicio del catálogo que se puede vender junto a productos.
type ServiceItem struct {
	ID     string
	Name   string
	Price  decimal.Decimal
	Active bool
}
