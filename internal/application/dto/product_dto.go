package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateProductRequest entrada para crear un producto. InitialStock > 0 entra por la ruta de recepción.
type CreateProductRequest struct {
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	Category     string          `json:"category"`
	Price        decimal.Decimal `json:"price"`
	InitialStock decimal.Decimal `json:"initial_stock"`
}

// UpdateProductRequest entrada para actualizar un producto (sin costo ni stock).
type UpdateProductRequest struct {
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	Category    *string          `json:"category"`
	Price       *decimal.Decimal `json:"price"`
}

// ProductSearchRequest filtros de GET /api/products/search.
type ProductSearchRequest struct {
	Name       string           `query:"name"`
	Category   string           `query:"category"`
	MinPrice   *decimal.Decimal `query:"min_price"`
	MaxPrice   *decimal.Decimal `query:"max_price"`
	StockBelow *decimal.Decimal `query:"stock_below"`
	StockAbove *decimal.Decimal `query:"stock_above"`
	PageRequest
}

// ProductResponse salida de un producto.
type ProductResponse struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	Category      string          `json:"category"`
	Price         decimal.Decimal `json:"price"`
	StockQuantity decimal.Decimal `json:"stock_quantity"`
	AverageCost   decimal.Decimal `json:"average_cost"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// ProductListResponse lista paginada de productos.
type ProductListResponse struct {
	Items []ProductResponse `json:"items"`
	Page  PageResponse      `json:"page"`
}
