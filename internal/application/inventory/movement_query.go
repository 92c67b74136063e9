package inventory

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-api/internal/domain"
	"github.com/jhoicas/stock-api/internal/domain/entity"
	"github.com/jhoicas/stock-api/internal/domain/repository"
)

const (
	defaultPageSize = 50
	maxPageSize     = 500
)

// MovementQueryUseCase lecturas del libro de movimientos (solo datos confirmados).
type MovementQueryUseCase struct {
	movRepo     repository.StockMovementRepository
	productRepo repository.ProductRepository
}

// NewMovementQueryUseCase construye el caso de uso de consultas.
func NewMovementQueryUseCase(movRepo repository.StockMovementRepository, productRepo repository.ProductRepository) *MovementQueryUseCase {
	return &MovementQueryUseCase{movRepo: movRepo, productRepo: productRepo}
}

// MovementPage página del libro con el límite y offset efectivamente aplicados.
type MovementPage struct {
	Items  []*entity.StockMovement
	Total  int
	Limit  int
	Offset int
}

// List movimientos filtrados, más recientes primero, con el total para paginar.
// limit <= 0 usa 50; el máximo es 500.
func (uc *MovementQueryUseCase) List(ctx context.Context, filter repository.MovementFilter, limit, offset int) (*MovementPage, error) {
	if filter.Type != "" && !filter.Type.IsValid() {
		return nil, fmt.Errorf("%w: tipo %q", domain.ErrInvalidInput, filter.Type)
	}
	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		return nil, fmt.Errorf("%w: rango de fechas", domain.ErrInvalidInput)
	}
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	items, total, err := uc.movRepo.List(ctx, filter, limit, offset)
	if err != nil {
		return nil, err
	}
	return &MovementPage{Items: items, Total: total, Limit: limit, Offset: offset}, nil
}

// ExistsForOrder indica si la orden ya generó movimientos.
func (uc *MovementQueryUseCase) ExistsForOrder(ctx context.Context, orderID string) (bool, error) {
	if orderID == "" {
		return false, domain.ErrInvalidInput
	}
	return uc.movRepo.ExistsForOrder(ctx, orderID)
}

// Reconciliation saldo de la fila frente a la suma del libro.
type Reconciliation struct {
	ProductID string
	OnHand    decimal.Decimal
	Inbound   decimal.Decimal
	Outbound  decimal.Decimal
	Balanced  bool // Inbound - Outbound == OnHand
}

// Reconcile compara el stock de la fila con entradas menos salidas registradas.
// Solo cuadra para productos cuyo stock inicial entró por la ruta de recepción.
func (uc *MovementQueryUseCase) Reconcile(ctx context.Context, productID string) (*Reconciliation, error) {
	product, err := uc.productRepo.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.ErrNotFound
	}
	in, out, err := uc.movRepo.SumByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	return &Reconciliation{
		ProductID: productID,
		OnHand:    product.StockQuantity,
		Inbound:   in,
		Outbound:  out,
		Balanced:  in.Sub(out).Equal(product.StockQuantity),
	}, nil
}
