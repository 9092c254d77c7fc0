package inventory

import (
	"github.com/jhoicas/Gestion-api/internal/domain/entity"
	ledger "github.com/jhoicas/Gestion-api/internal/domain/inventory"
)

// Policy reglas que diferencian compra, venta y abastecimiento dentro del servicio genérico.
type Policy struct {
	Kind                 entity.MovementKind
	Label                string // nombre legible, usado en alertas y comprobantes
	Direction            ledger.Direction
	Counterparty         entity.CounterpartyKind
	CounterpartyRequired bool
	Usage                entity.UsageKind // vacío = cualquier uso
	RequiresState        bool
	HasState             bool
	StateGatesStock      bool // la venta solo descuenta si el estado tiene affects_stock
	AllowsServices       bool
	Taxed                bool
	RequiresUnitPrice    bool
	PriceFromProduct     bool // ignora el precio recibido y usa el vigente del producto
}

// PurchasePolicy compra a proveedor: siempre suma existencias; el estado es informativo.
var PurchasePolicy = Policy{
	Kind:                 entity.MovementPurchase,
	Label:                "compra",
	Direction:            ledger.Inbound,
	Counterparty:         entity.CounterpartySupplier,
	CounterpartyRequired: true,
	HasState:             true,
	Taxed:                true,
	RequiresUnitPrice:    true,
}

// SalePolicy venta a cliente (o anónima) de productos de venta y servicios.
var SalePolicy = Policy{
	Kind:            entity.MovementSale,
	Label:           "venta",
	Direction:       ledger.Outbound,
	Counterparty:    entity.CounterpartyClient,
	Usage:           entity.UsageSale,
	RequiresState:   true,
	HasState:        true,
	StateGatesStock: true,
	AllowsServices:  true,
	Taxed:           true,
}

// SupplyPolicy abastecimiento interno a un empleado: sin impuesto, al precio del producto.
var SupplyPolicy = Policy{
	Kind:                 entity.MovementSupply,
	Label:                "abastecimiento",
	Direction:            ledger.Outbound,
	Counterparty:         entity.CounterpartyEmployee,
	CounterpartyRequired: true,
	Usage:                entity.UsageInternal,
	PriceFromProduct:     true,
}

// PolicyFor devuelve la política del tipo de movimiento.
func PolicyFor(kind entity.MovementKind) (Policy, bool) {
	switch kind {
	case entity.MovementPurchase:
		return PurchasePolicy, true
	case entity.MovementSale:
		return SalePolicy, true
	case entity.MovementSupply:
		return SupplyPolicy, true
	}
	return Policy{}, false
}

// affectsStock indica si una cabecera con ese estado activo/proceso debe tener el efecto aplicado.
func (p Policy) affectsStock(active bool, state *entity.ProcessState) bool {
	if !active {
		return false
	}
	if !p.StateGatesStock {
		return true
	}
	return state != nil && state.AffectsStock
}
