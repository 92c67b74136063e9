package inventory_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-api/internal/domain/inventory"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestCostCalculator_PromedioPonderado(t *testing.T) {
	got := inventory.CostCalculator(d("5"), d("10.00"), d("5"), d("20.00"))
	assert.True(t, got.Equal(d("15")), "esperado 15, obtenido %s", got)
}

func TestCostCalculator_StockCeroDevuelveCostoEntrada(t *testing.T) {
	got := inventory.CostCalculator(decimal.Zero, d("99.99"), d("3"), d("12.345"))
	assert.True(t, got.Equal(d("12.345")), "sin división: debe ser exactamente el costo de entrada")
}

func TestMovingAverage_NextAverageCost(t *testing.T) {
	p := inventory.MovingAverage{}
	assert.Equal(t, inventory.ValuationMovingAverage, p.Method())

	cases := []struct {
		name                 string
		q0, c0, qIn, cIn, ex string
	}{
		{"saldo vacío", "0", "0", "5", "10.00", "10.00"},
		{"mismo costo", "4", "7.50", "6", "7.50", "7.5"},
		{"mezcla", "10", "15.00", "10", "5.00", "10"},
		{"fraccional", "2.5", "4", "0.5", "10", "5"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := p.NextAverageCost(d(tc.q0), d(tc.c0), d(tc.qIn), d(tc.cIn))
			assert.True(t, got.Equal(d(tc.ex)), "esperado %s, obtenido %s", tc.ex, got)
		})
	}
}

func TestMovingAverage_NoRedondeaHastaPersistir(t *testing.T) {
	// (1*10 + 2*10.01) / 3 = 10.00666...
	got := inventory.MovingAverage{}.NextAverageCost(d("1"), d("10"), d("2"), d("10.01"))
	assert.True(t, got.GreaterThan(d("10.006")))
	assert.True(t, got.LessThan(d("10.007")))
	assert.True(t, inventory.RoundCost(got).Equal(d("10.01")))
}

func TestLotBased_NoPromedia(t *testing.T) {
	p := inventory.LotBased{}
	got := p.NextAverageCost(d("5"), d("10.00"), d("5"), d("20.00"))
	assert.True(t, got.Equal(d("20.00")))
	assert.Equal(t, inventory.ValuationLot, p.Method())
}

func TestRoundCost_HalfUp(t *testing.T) {
	assert.Equal(t, "2.35", inventory.RoundCost(d("2.345")).StringFixed(2))
	assert.Equal(t, "2.34", inventory.RoundCost(d("2.3449")).StringFixed(2))
	assert.Equal(t, "0.01", inventory.RoundCost(d("0.005")).StringFixed(2))
}

func TestParseValuationMethod(t *testing.T) {
	t.Run("nombres y alias", func(t *testing.T) {
		for in, want := range map[string]inventory.ValuationMethod{
			"":               inventory.ValuationMovingAverage,
			"moving_average": inventory.ValuationMovingAverage,
			"CUMP":           inventory.ValuationMovingAverage,
			"LOT":            inventory.ValuationLot,
			" fifo ":         inventory.ValuationLot,
		} {
			got, err := inventory.ParseValuationMethod(in)
			require.NoError(t, err, in)
			assert.Equal(t, want, got, in)
			assert.True(t, got.IsValid())
		}
	})

	t.Run("desconocido", func(t *testing.T) {
		_, err := inventory.ParseValuationMethod("LIFO")
		assert.Error(t, err)
	})
}

func TestNextAverageCost_PorMetodo(t *testing.T) {
	avg, err := inventory.NextAverageCost(d("5"), d("10"), d("5"), d("20"), inventory.ValuationMovingAverage)
	require.NoError(t, err)
	assert.True(t, avg.Equal(d("15")))

	lot, err := inventory.NextAverageCost(d("5"), d("10"), d("5"), d("20"), inventory.ValuationLot)
	require.NoError(t, err)
	assert.True(t, lot.Equal(d("20")))

	_, err = inventory.NextAverageCost(d("5"), d("10"), d("5"), d("20"), inventory.ValuationMethod("X"))
	assert.Error(t, err)
}

func TestValidQuantity_EscalaDelEsquema(t *testing.T) {
	assert.True(t, inventory.ValidQuantity(d("1")))
	assert.True(t, inventory.ValidQuantity(d("0.0001")))
	assert.True(t, inventory.ValidQuantity(d("2.50000")), "ceros finales no cuentan")
	assert.False(t, inventory.ValidQuantity(d("0.00005")))
	assert.False(t, inventory.ValidQuantity(d("10.12345")))
	assert.False(t, inventory.ValidQuantity(decimal.Zero))
	assert.False(t, inventory.ValidQuantity(d("-1")))
}
