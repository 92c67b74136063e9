package inventory

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-api/internal/domain"
	"github.com/jhoicas/stock-api/internal/domain/entity"
)

// LotLess orden de consumo de lotes: mayor stock primero; empate por CreatedAt ascendente y luego ID.
// Es también el orden de bloqueo, así dos asignaciones concurrentes no se cruzan.
func LotLess(a, b *entity.Product) bool {
	if !a.StockQuantity.Equal(b.StockQuantity) {
		return a.StockQuantity.GreaterThan(b.StockQuantity)
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.ID < b.ID
}

// SortLots ordena in situ según LotLess.
func SortLots(lots []*entity.Product) {
	sort.SliceStable(lots, func(i, j int) bool {
		return LotLess(lots[i], lots[j])
	})
}

// TotalAvailable suma el stock positivo de los lotes.
func TotalAvailable(lots []*entity.Product) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lots {
		if l.HasStock() {
			total = total.Add(l.StockQuantity)
		}
	}
	return total
}

// Draw cantidad a descontar de un lote.
type Draw struct {
	Lot      *entity.Product
	Quantity decimal.Decimal
}

// PlanAllocation reparte requested entre los lotes sin modificarlos.
// Si la suma disponible es menor que lo solicitado devuelve *domain.InsufficientStockError y ningún Draw.
func PlanAllocation(productName string, lots []*entity.Product, requested decimal.Decimal) ([]Draw, error) {
	if !requested.GreaterThan(decimal.Zero) {
		return nil, domain.ErrInvalidInput
	}

	candidates := make([]*entity.Product, 0, len(lots))
	for _, l := range lots {
		if l.HasStock() {
			candidates = append(candidates, l)
		}
	}
	SortLots(candidates)

	available := TotalAvailable(candidates)
	if available.LessThan(requested) {
		return nil, &domain.InsufficientStockError{
			ProductName: productName,
			Requested:   requested,
			Available:   available,
		}
	}

	remaining := requested
	draws := make([]Draw, 0, len(candidates))
	for _, lot := range candidates {
		if !remaining.GreaterThan(decimal.Zero) {
			break
		}
		take := decimal.Min(remaining, lot.StockQuantity)
		draws = append(draws, Draw{Lot: lot, Quantity: take})
		remaining = remaining.Sub(take)
	}
	return draws, nil
}
