package inventory_test

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-api/internal/domain"
	"github.com/jhoicas/stock-api/internal/domain/entity"
	"github.com/jhoicas/stock-api/internal/domain/inventory"
)

var t0 = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func lot(id, qty, cost string, createdOffset int) *entity.Product {
	return &entity.Product{
		ID:            id,
		Name:          "Tornillo",
		StockQuantity: d(qty),
		AverageCost:   d(cost),
		CreatedAt:     t0.Add(time.Duration(createdOffset) * time.Minute),
	}
}

func TestSortLots_MayorStockPrimero(t *testing.T) {
	lots := []*entity.Product{
		lot("a", "3", "1", 0),
		lot("b", "10", "1", 1),
		lot("c", "5", "1", 2),
	}
	inventory.SortLots(lots)
	assert.Equal(t, []string{"b", "c", "a"}, []string{lots[0].ID, lots[1].ID, lots[2].ID})
}

func TestSortLots_EmpatePorAntiguedadYLuegoID(t *testing.T) {
	lots := []*entity.Product{
		lot("z", "5", "1", 5),
		lot("y", "5", "1", 1),
		lot("x", "5", "1", 1),
	}
	inventory.SortLots(lots)
	assert.Equal(t, []string{"x", "y", "z"}, []string{lots[0].ID, lots[1].ID, lots[2].ID})
}

func TestPlanAllocation_DosLotes5y3(t *testing.T) {
	first := lot("p1", "5", "2.00", 0)
	second := lot("p2", "3", "2.50", 1)

	draws, err := inventory.PlanAllocation("Tornillo", []*entity.Product{first, second}, d("7"))
	require.NoError(t, err)
	require.Len(t, draws, 2)

	assert.Equal(t, "p1", draws[0].Lot.ID)
	assert.True(t, draws[0].Quantity.Equal(d("5")))
	assert.Equal(t, "p2", draws[1].Lot.ID)
	assert.True(t, draws[1].Quantity.Equal(d("2")))

	// el plan no modifica los lotes
	assert.True(t, first.StockQuantity.Equal(d("5")))
	assert.True(t, second.StockQuantity.Equal(d("3")))
}

func TestPlanAllocation_Conservacion(t *testing.T) {
	lots := []*entity.Product{
		lot("a", "4.5", "1", 0),
		lot("b", "2.25", "1", 1),
		lot("c", "9", "1", 2),
		lot("d", "0", "1", 3),
	}
	requested := d("12.6")
	draws, err := inventory.PlanAllocation("Tornillo", lots, requested)
	require.NoError(t, err)

	sum := decimal.Zero
	for _, dr := range draws {
		assert.True(t, dr.Quantity.GreaterThan(decimal.Zero))
		assert.True(t, dr.Quantity.LessThanOrEqual(dr.Lot.StockQuantity))
		sum = sum.Add(dr.Quantity)
	}
	assert.True(t, sum.Equal(requested), "suma drenada %s", sum)
	assert.Equal(t, "c", draws[0].Lot.ID)
}

func TestPlanAllocation_UnSoloLoteSuficiente(t *testing.T) {
	draws, err := inventory.PlanAllocation("Tornillo", []*entity.Product{lot("a", "10", "15", 0)}, d("7"))
	require.NoError(t, err)
	require.Len(t, draws, 1)
	assert.True(t, draws[0].Quantity.Equal(d("7")))
}

func TestPlanAllocation_Insuficiente(t *testing.T) {
	lots := []*entity.Product{lot("a", "5", "1", 0), lot("b", "5", "1", 1)}

	draws, err := inventory.PlanAllocation("Tornillo", lots, d("20"))
	assert.Nil(t, draws)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInsufficientStock))

	var ise *domain.InsufficientStockError
	require.True(t, errors.As(err, &ise))
	assert.Equal(t, "Tornillo", ise.ProductName)
	assert.True(t, ise.Requested.Equal(d("20")))
	assert.True(t, ise.Available.Equal(d("10")))
}

func TestPlanAllocation_SinLotes(t *testing.T) {
	_, err := inventory.PlanAllocation("Nada", nil, d("1"))
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
}

func TestPlanAllocation_CantidadInvalida(t *testing.T) {
	lots := []*entity.Product{lot("a", "5", "1", 0)}
	for _, q := range []string{"0", "-1"} {
		_, err := inventory.PlanAllocation("Tornillo", lots, d(q))
		assert.ErrorIs(t, err, domain.ErrInvalidInput, q)
	}
}
