package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// MovementType dirección del movimiento; la cantidad siempre es positiva.
type MovementType string

const (
	MovementTypeInbound  MovementType = "INBOUND"  // entrada
	MovementTypeOutbound MovementType = "OUTBOUND" // salida
)

// IsValid valida el tipo de movimiento.
func (t MovementType) IsValid() bool {
	return t == MovementTypeInbound || t == MovementTypeOutbound
}

func (t MovementType) String() string {
	return string(t)
}

// StockMovement hecho inmutable del libro de movimientos.
// UnitCost es una foto del costo al momento del movimiento; nunca se recalcula.
type StockMovement struct {
	ID        string
	Date      time.Time
	Type      MovementType
	Quantity  decimal.Decimal // estrictamente positiva
	UnitCost  decimal.Decimal
	ProductID string
	OrderID   string // opcional
	Note      string // opcional
	CreatedAt time.Time
}

// TotalCost valor del movimiento (cantidad * costo unitario).
func (m *StockMovement) TotalCost() decimal.Decimal {
	return m.Quantity.Mul(m.UnitCost)
}

// SignedQuantity cantidad con signo según el tipo (salida negativa), útil para conciliación.
func (m *StockMovement) SignedQuantity() decimal.Decimal {
	if m.Type == MovementTypeOutbound {
		return m.Quantity.Neg()
	}
	return m.Quantity
}
