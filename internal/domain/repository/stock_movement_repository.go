package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-api/internal/domain/entity"
)

// MovementFilter criterios de consulta del libro; los campos vacíos no filtran.
type MovementFilter struct {
	ProductID string
	OrderID   string
	Type      entity.MovementType
	From      *time.Time
	To        *time.Time
}

// StockMovementRepository define el puerto del libro de movimientos (append-only).
type StockMovementRepository interface {
	Append(ctx context.Context, movement *entity.StockMovement) error
	GetByID(ctx context.Context, id string) (*entity.StockMovement, error)
	List(ctx context.Context, filter MovementFilter, limit, offset int) ([]*entity.StockMovement, int, error)
	ExistsForOrder(ctx context.Context, orderID string) (bool, error)
	ExistsForProduct(ctx context.Context, productID string) (bool, error)
	// SumByProduct totales de entradas y salidas de un producto (conciliación).
	SumByProduct(ctx context.Context, productID string) (inbound, outbound decimal.Decimal, err error)
	// OutboundSince unidades despachadas por producto desde since (reposición). Sin salidas no aparece.
	OutboundSince(ctx context.Context, productIDs []string, since time.Time) (map[string]decimal.Decimal, error)
}
