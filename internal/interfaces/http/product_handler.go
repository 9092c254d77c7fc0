package http

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Gestion-api/internal/application/dto"
)

// StockService consultas de existencias; lo implementa *inventory.ProductStockUseCase.
type StockService interface {
	GetByID(ctx context.Context, id string) (*dto.ProductStockResponse, error)
	LowStock(ctx context.Context, page dto.PageRequest) (*dto.ProductStockListResponse, error)
}

// ProductHandler lectura de existencias por producto (protegido).
type ProductHandler struct {
	uc StockService
}

// NewProductHandler construye el handler.
func NewProductHandler(uc StockService) *ProductHandler {
	return &ProductHandler{uc: uc}
}

// GetByID godoc
// @Summary      Existencia actual de un producto
// @Tags         products
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del producto"
// @Success      200  {object}  dto.ProductStockResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/products/{id} [get]
func (h *ProductHandler) GetByID(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "MISSING_ID", Message: "id es requerido"})
	}
	out, err := h.uc.GetByID(c.UserContext(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// LowStock godoc
// @Summary      Productos en o bajo su stock mínimo
// @Tags         products
// @Security     Bearer
// @Produce      json
// @Param        limit   query  int  false  "Máx. 100"
// @Param        offset  query  int  false  "Desplazamiento"
// @Success      200  {object}  dto.ProductStockListResponse
// @Router       /api/products/low-stock [get]
func (h *ProductHandler) LowStock(c *fiber.Ctx) error {
	page := dto.PageRequest{Limit: c.QueryInt("limit", 0), Offset: c.QueryInt("offset", 0)}
	out, err := h.uc.LowStock(c.UserContext(), page)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}
