package inventory

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ValuationMethod método de valoración configurado para las entradas.
type ValuationMethod string

const (
	// ValuationMovingAverage costo promedio ponderado móvil, recalculado en cada entrada.
	ValuationMovingAverage ValuationMethod = "MOVING_AVERAGE"
	// ValuationLot cada fila de saldo es su propio lote; la entrada fija su costo sin mezclar.
	ValuationLot ValuationMethod = "LOT"
)

// DefaultValuationMethod método por defecto.
const DefaultValuationMethod = ValuationMovingAverage

// IsValid valida el método.
func (m ValuationMethod) IsValid() bool {
	return m == ValuationMovingAverage || m == ValuationLot
}

func (m ValuationMethod) String() string {
	return string(m)
}

// ParseValuationMethod acepta los nombres canónicos y los alias heredados (CUMP, FIFO).
func ParseValuationMethod(s string) (ValuationMethod, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "MOVING_AVERAGE", "CUMP", "WEIGHTED_AVERAGE":
		return ValuationMovingAverage, nil
	case "LOT", "FIFO":
		return ValuationLot, nil
	}
	return "", fmt.Errorf("método de valoración desconocido: %q", s)
}

// ValuationPolicy calcula el nuevo costo de una fila de saldo tras recibir qtyIn a costIn.
// Función pura: no persiste ni redondea.
type ValuationPolicy interface {
	Method() ValuationMethod
	NextAverageCost(currentQty, currentAvgCost, qtyIn, costIn decimal.Decimal) decimal.Decimal
}

// MovingAverage promedio ponderado móvil.
type MovingAverage struct{}

func (MovingAverage) Method() ValuationMethod { return ValuationMovingAverage }

func (MovingAverage) NextAverageCost(currentQty, currentAvgCost, qtyIn, costIn decimal.Decimal) decimal.Decimal {
	return CostCalculator(currentQty, currentAvgCost, qtyIn, costIn)
}

// LotBased registra costIn como base de costo del lote, sin promediar.
type LotBased struct{}

func (LotBased) Method() ValuationMethod { return ValuationLot }

func (LotBased) NextAverageCost(_, _, _, costIn decimal.Decimal) decimal.Decimal {
	return costIn
}

// PolicyFor devuelve la política del método configurado.
func PolicyFor(method ValuationMethod) (ValuationPolicy, error) {
	switch method {
	case ValuationMovingAverage:
		return MovingAverage{}, nil
	case ValuationLot:
		return LotBased{}, nil
	}
	return nil, fmt.Errorf("método de valoración desconocido: %q", method)
}

// NextAverageCost atajo sin estado para un método dado.
func NextAverageCost(currentQty, currentAvgCost, qtyIn, costIn decimal.Decimal, method ValuationMethod) (decimal.Decimal, error) {
	p, err := PolicyFor(method)
	if err != nil {
		return decimal.Zero, err
	}
	return p.NextAverageCost(currentQty, currentAvgCost, qtyIn, costIn), nil
}
