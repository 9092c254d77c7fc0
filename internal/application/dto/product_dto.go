package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProductStockResponse existencia actual de un producto.
type ProductStockResponse struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	MinStock  int             `json:"min_stock"`
	MaxStock  int             `json:"max_stock"`
	LowStock  bool            `json:"low_stock"`
	Active    bool            `json:"active"`
	UsageKind string          `json:"usage_kind"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// ProductStockListResponse lista paginada de productos.
type ProductStockListResponse struct {
	Items []ProductStockResponse `json:"items"`
	Page  PageResponse           `json:"page"`
}
