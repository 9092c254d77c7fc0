package repository

import (
	"context"

	"github.com/jhoicas/Gestion-api/internal/domain/entity"
)

// ProductRepository define el puerto de persistencia para Product (DIP).
// GetByID y GetForUpdate devuelven (nil, nil) si el producto no existe.
type ProductRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Product, error)
	// GetForUpdate bloquea la fila (SELECT FOR UPDATE); solo dentro de una transacción.
	GetForUpdate(ctx context.Context, id string) (*entity.Product, error)
	// UpdateQuantity es la única escritura de existencias; la invoca solo el primitivo de ajuste.
	UpdateQuantity(ctx context.Context, id string, quantity int) error
	ListBelowMinimum(ctx context.Context, limit, offset int) ([]*entity.Product, error)
}
