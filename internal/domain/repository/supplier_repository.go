package repository

import (
	"context"

	"github.com/jhoicas/stock-api/internal/domain/entity"
)

// SupplierRepository define el puerto de persistencia del registro de proveedores.
// GetByID y GetByTaxID devuelven (nil, nil) si no existe.
type SupplierRepository interface {
	Create(ctx context.Context, supplier *entity.Supplier) error
	GetByID(ctx context.Context, id string) (*entity.Supplier, error)
	GetByTaxID(ctx context.Context, taxID string) (*entity.Supplier, error)
	Update(ctx context.Context, supplier *entity.Supplier) error
	List(ctx context.Context, limit, offset int) ([]*entity.Supplier, int, error)
}
