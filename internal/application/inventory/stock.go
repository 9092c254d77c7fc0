package inventory

import (
	"context"
	"fmt"

	"github.com/jhoicas/Gestion-api/internal/domain"
	"github.com/jhoicas/Gestion-api/internal/domain/entity"
	ledger "github.com/jhoicas/Gestion-api/internal/domain/inventory"
	"github.com/jhoicas/Gestion-api/internal/domain/repository"
)

// StockChange resultado de un ajuste: el producto ya actualizado y la existencia previa.
type StockChange struct {
	Product  entity.Product
	Previous int
	Delta    int
}

// AdjustStock es el único camino que escribe existencias. Debe recibir el repositorio atado
// a la transacción del llamador: bloquea la fila, calcula quantity+delta, rechaza negativos
// y persiste. Las alertas quedan a cargo del llamador, después del commit.
func AdjustStock(ctx context.Context, productRepo repository.ProductRepository, productID string, delta int) (*StockChange, error) {
	product, err := productRepo.GetForUpdate(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("bloquear producto %s: %w", productID, err)
	}
	if product == nil {
		return nil, domain.NewNotFound("PRODUCT_NOT_FOUND", "producto no encontrado").WithDetail("product_id", productID)
	}
	newQty := product.Quantity + delta
	if newQty < 0 {
		return nil, domain.NewInsufficientStock(productID, -delta, product.Quantity)
	}
	if err := productRepo.UpdateQuantity(ctx, productID, newQty); err != nil {
		return nil, fmt.Errorf("actualizar existencia %s: %w", productID, err)
	}
	previous := product.Quantity
	product.Quantity = newQty
	return &StockChange{Product: *product, Previous: previous, Delta: delta}, nil
}

// applyDeltas ajusta cada producto en orden ascendente de ID; todas las transacciones
// bloquean filas de productos en ese mismo orden.
func applyDeltas(ctx context.Context, productRepo repository.ProductRepository, deltas map[string]int) ([]StockChange, error) {
	changes := make([]StockChange, 0, len(deltas))
	for _, id := range ledger.SortedIDs(deltas) {
		ch, err := AdjustStock(ctx, productRepo, id, deltas[id])
		if err != nil {
			return nil, err
		}
		changes = append(changes, *ch)
	}
	return changes, nil
}
