package postgres

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"github.com/jhoicas/Gestion-api/internal/domain"
	"github.com/jhoicas/Gestion-api/internal/domain/entity"
	"github.com/jhoicas/Gestion-api/internal/domain/repository"
)

var _ repository.ProductRepository = (*ProductRepo)(nil)

var productColumns = []string{
	"id", "name", "price", "quantity", "min_stock", "max_stock", "active", "usage_kind", "created_at", "updated_at",
}

// ProductRepo implementación del puerto ProductRepository sobre PostgreSQL (usable con pool o tx).
type ProductRepo struct {
	q Querier
}

// NewProductRepository construye el adaptador de persistencia para productos. Pasar pool o tx (Querier).
func NewProductRepository(q Querier) *ProductRepo {
	return &ProductRepo{q: q}
}

func (r *ProductRepo) get(ctx context.Context, id string, lock bool) (*entity.Product, error) {
	q := builder().Select(productColumns...).From("products").Where(squirrel.Eq{"id": id})
	if lock {
		q = q.Suffix("FOR UPDATE")
	}
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	var p entity.Product
	if err := pgxscan.Get(ctx, r.q, &p, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return &p, nil
}

// GetByID obtiene un producto por ID.
func (r *ProductRepo) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	return r.get(ctx, id, false)
}

// GetForUpdate obtiene el producto y bloquea la fila hasta el fin de la transacción.
func (r *ProductRepo) GetForUpdate(ctx context.Context, id string) (*entity.Product, error) {
	return r.get(ctx, id, true)
}

// UpdateQuantity fija la existencia. El CHECK (quantity >= 0) de la tabla respalda al primitivo.
func (r *ProductRepo) UpdateQuantity(ctx context.Context, id string, quantity int) error {
	sql, args, err := builder().Update("products").
		Set("quantity", quantity).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}
	cmd, err := r.q.Exec(ctx, sql, args...)
	if err != nil {
		if isCheckViolation(err) {
			return &domain.Error{Kind: domain.ErrInsufficientStock, Code: "INSUFFICIENT_STOCK", Message: "stock insuficiente", Err: err}
		}
		return fmt.Errorf("update product quantity: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.NewNotFound("PRODUCT_NOT_FOUND", "producto no encontrado").WithDetail("product_id", id)
	}
	return nil
}

// ListBelowMinimum productos activos con quantity <= min_stock, los más críticos primero.
func (r *ProductRepo) ListBelowMinimum(ctx context.Context, limit, offset int) ([]*entity.Product, error) {
	sql, args, err := builder().Select(productColumns...).From("products").
		Where(squirrel.Eq{"active": true}).
		Where("quantity <= min_stock").
		OrderBy("quantity - min_stock ASC", "id ASC").
		Limit(uint64(limit)).
		Offset(uint64(offset)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	var list []*entity.Product
	if err := pgxscan.Select(ctx, r.q, &list, sql, args...); err != nil {
		return nil, fmt.Errorf("list low stock: %w", err)
	}
	return list, nil
}
