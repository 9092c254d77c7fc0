package inventory

import (
	"context"

	"github.com/jhoicas/Gestion-api/internal/application/dto"
	"github.com/jhoicas/Gestion-api/internal/domain"
	"github.com/jhoicas/Gestion-api/internal/domain/repository"
)

// ProductStockUseCase consulta de existencias (el CRUD de productos es externo).
type ProductStockUseCase struct {
	repo repository.ProductRepository
}

// NewProductStockUseCase construye el caso de uso.
func NewProductStockUseCase(repo repository.ProductRepository) *ProductStockUseCase {
	return &ProductStockUseCase{repo: repo}
}

// GetByID existencia actual de un producto.
func (uc *ProductStockUseCase) GetByID(ctx context.Context, id string) (*dto.ProductStockResponse, error) {
	p, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, domain.NewNotFound("PRODUCT_NOT_FOUND", "producto no encontrado").WithDetail("product_id", id)
	}
	return toProductStockResponse(p), nil
}

// LowStock productos activos en o por debajo de su mínimo.
func (uc *ProductStockUseCase) LowStock(ctx context.Context, page dto.PageRequest) (*dto.ProductStockListResponse, error) {
	page.DefaultPage()
	list, err := uc.repo.ListBelowMinimum(ctx, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	out := &dto.ProductStockListResponse{
		Items: make([]dto.ProductStockResponse, 0, len(list)),
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset},
	}
	for _, p := range list {
		out.Items = append(out.Items, *toProductStockResponse(p))
	}
	return out, nil
}
