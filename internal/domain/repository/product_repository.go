package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-api/internal/domain/entity"
)

// ProductFilter criterios de búsqueda del catálogo; los campos vacíos no filtran.
type ProductFilter struct {
	NameContains string // sin distinguir mayúsculas
	Category     string
	MinPrice     *decimal.Decimal
	MaxPrice     *decimal.Decimal
	StockBelow   *decimal.Decimal
	StockAbove   *decimal.Decimal
}

// ProductRepository define el puerto de persistencia de filas de saldo (Product Store).
type ProductRepository interface {
	Create(ctx context.Context, product *entity.Product) error
	GetByID(ctx context.Context, id string) (*entity.Product, error)
	// GetByIDForUpdate bloquea la fila hasta el fin de la transacción (SELECT FOR UPDATE).
	GetByIDForUpdate(ctx context.Context, id string) (*entity.Product, error)
	// FindByNameWithStockAbove devuelve los lotes con el nombre (sin distinguir mayúsculas) y stock > threshold,
	// ordenados por stock descendente, bloqueándolos en ese mismo orden.
	FindByNameWithStockAbove(ctx context.Context, name string, threshold decimal.Decimal) ([]*entity.Product, error)
	// Save persiste el saldo (stock y costo promedio) de una fila existente.
	Save(ctx context.Context, product *entity.Product) error
	// Update persiste solo los datos de catálogo; no toca stock ni costo.
	Update(ctx context.Context, product *entity.Product) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter ProductFilter, limit, offset int) ([]*entity.Product, int, error)
}
