package inventory

import "github.com/shopspring/decimal"

// CostCalculator implementa la lógica de costo promedio ponderado (servicio de dominio).
// NuevoCosto = ((StockActual * CostoActual) + (CantEntrada * CostoEntrada)) / (StockActual + CantEntrada)
// Con StockActual en cero devuelve CostoEntrada tal cual (sin división).
func CostCalculator(stockActual, costoActual, cantEntrada, costoEntrada decimal.Decimal) decimal.Decimal {
	if stockActual.LessThanOrEqual(decimal.Zero) {
		return costoEntrada
	}
	sum := stockActual.Add(cantEntrada)
	if sum.LessThanOrEqual(decimal.Zero) {
		return costoEntrada
	}
	num := stockActual.Mul(costoActual).Add(cantEntrada.Mul(costoEntrada))
	return num.Div(sum)
}

// RoundCost redondea un costo a dos decimales (half-up para valores no negativos).
// Se aplica solo al persistir, nunca en cálculos intermedios.
func RoundCost(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// QuantityScale decimales que admite una cantidad; coincide con NUMERIC(18,4) del esquema.
const QuantityScale = 4

// ValidQuantity cantidad positiva representable sin redondeo a QuantityScale decimales.
// Saldo y movimiento se guardan en columnas separadas: un redondeo distinto en cada una
// rompería la conciliación.
func ValidQuantity(q decimal.Decimal) bool {
	return q.GreaterThan(decimal.Zero) && q.Equal(q.Round(QuantityScale))
}
