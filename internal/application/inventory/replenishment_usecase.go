package inventory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-api/internal/application/dto"
	"github.com/jhoicas/stock-api/internal/domain"
	"github.com/jhoicas/stock-api/internal/domain/entity"
	"github.com/jhoicas/stock-api/internal/domain/repository"
)

// DefaultReplenishmentWindow ventana de salidas usada para priorizar.
const DefaultReplenishmentWindow = 90 * 24 * time.Hour

// ReplenishmentUseCase genera la lista de reposición por nombre de producto.
// Agrupa los lotes del mismo nombre y prioriza por volumen de salidas reciente.
type ReplenishmentUseCase struct {
	productRepo repository.ProductRepository
	movRepo     repository.StockMovementRepository
	now         func() time.Time
}

// NewReplenishmentUseCase construye el caso de uso de reposición.
func NewReplenishmentUseCase(
	productRepo repository.ProductRepository,
	movRepo repository.StockMovementRepository,
) *ReplenishmentUseCase {
	return &ReplenishmentUseCase{
		productRepo: productRepo,
		movRepo:     movRepo,
		now:         time.Now,
	}
}

type lotGroup struct {
	name  string
	ids   []string
	stock decimal.Decimal
	value decimal.Decimal // stock * costo, para el promedio ponderado
}

// GenerateReplenishmentList devuelve los nombres cuyo stock total es menor que reorderPoint,
// con la cantidad sugerida de pedido y un ranking de prioridad.
// window <= 0 usa DefaultReplenishmentWindow.
func (uc *ReplenishmentUseCase) GenerateReplenishmentList(
	ctx context.Context,
	reorderPoint decimal.Decimal,
	window time.Duration,
) ([]dto.ReplenishmentSuggestionDTO, error) {
	if !reorderPoint.GreaterThan(decimal.Zero) {
		return nil, domain.ErrInvalidInput
	}
	if window <= 0 {
		window = DefaultReplenishmentWindow
	}

	// 1. Lotes con stock por debajo del punto de reorden (candidatos)
	lots, err := uc.listAll(ctx, repository.ProductFilter{StockBelow: &reorderPoint})
	if err != nil {
		return nil, err
	}
	if len(lots) == 0 {
		return []dto.ReplenishmentSuggestionDTO{}, nil
	}

	// 2. Agrupar por nombre; el total incluye todos los lotes del nombre, no solo los candidatos
	groups := make(map[string]*lotGroup)
	for _, l := range lots {
		key := strings.ToLower(l.Name)
		if _, ok := groups[key]; ok {
			continue
		}
		all, err := uc.listAll(ctx, repository.ProductFilter{NameContains: l.Name})
		if err != nil {
			return nil, err
		}
		g := &lotGroup{name: l.Name}
		for _, p := range all {
			if !strings.EqualFold(p.Name, l.Name) {
				continue
			}
			g.ids = append(g.ids, p.ID)
			g.stock = g.stock.Add(p.StockQuantity)
			g.value = g.value.Add(p.StockQuantity.Mul(p.AverageCost))
		}
		groups[key] = g
	}

	// 3. Salidas recientes por lote
	ids := make([]string, 0)
	for _, g := range groups {
		ids = append(ids, g.ids...)
	}
	outByID, err := uc.movRepo.OutboundSince(ctx, ids, uc.now().Add(-window))
	if err != nil {
		return nil, err
	}

	ideal := reorderPoint.Mul(decimal.NewFromFloat(1.5))
	suggestions := make([]dto.ReplenishmentSuggestionDTO, 0, len(groups))
	for _, g := range groups {
		if !g.stock.LessThan(reorderPoint) {
			continue
		}
		unitsOut := decimal.Zero
		for _, id := range g.ids {
			unitsOut = unitsOut.Add(outByID[id])
		}
		unitCost := decimal.Zero
		if g.stock.GreaterThan(decimal.Zero) {
			unitCost = g.value.Div(g.stock).Round(2)
		}
		suggested := ideal.Sub(g.stock)
		suggestions = append(suggestions, dto.ReplenishmentSuggestionDTO{
			ProductName:        g.name,
			Lots:               len(g.ids),
			CurrentStock:       g.stock,
			ReorderPoint:       reorderPoint,
			IdealStock:         ideal,
			SuggestedOrderQty:  suggested,
			UnitCost:           unitCost,
			EstimatedOrderCost: suggested.Mul(unitCost).Round(2),
			UnitsOutInWindow:   unitsOut,
		})
	}

	// 4. Ordenar: mayor volumen de salidas, luego mayor déficit, luego nombre
	sort.SliceStable(suggestions, func(i, j int) bool {
		a, b := suggestions[i], suggestions[j]
		if !a.UnitsOutInWindow.Equal(b.UnitsOutInWindow) {
			return a.UnitsOutInWindow.GreaterThan(b.UnitsOutInWindow)
		}
		if !a.SuggestedOrderQty.Equal(b.SuggestedOrderQty) {
			return a.SuggestedOrderQty.GreaterThan(b.SuggestedOrderQty)
		}
		return strings.ToLower(a.ProductName) < strings.ToLower(b.ProductName)
	})

	// 5. Asignar prioridad (1 = más urgente)
	for i := range suggestions {
		suggestions[i].Priority = i + 1
	}
	return suggestions, nil
}

func (uc *ReplenishmentUseCase) listAll(ctx context.Context, f repository.ProductFilter) ([]*entity.Product, error) {
	var out []*entity.Product
	for offset := 0; ; offset += maxPageSize {
		page, total, err := uc.productRepo.List(ctx, f, maxPageSize, offset)
		if err != nil {
			return nil, err
		}
		out = append(out, page...)
		if len(page) < maxPageSize || len(out) >= total {
			return out, nil
		}
	}
}
