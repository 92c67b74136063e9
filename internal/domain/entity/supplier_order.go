package entity

import "github.com/shopspring/decimal"

// OrderLine línea de una orden de proveedor (forma del colaborador externo, solo lectura).
// ProductID se usa para recepciones; ProductName para asignación entre lotes.
type OrderLine struct {
	ProductID   string
	ProductName string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
}

// SupplierOrder orden de proveedor tal como la entrega el flujo de estados de órdenes.
type SupplierOrder struct {
	ID         string
	SupplierID string
	Lines      []OrderLine
}

// Total monto de la orden (suma de cantidad * precio unitario).
func (o *SupplierOrder) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range o.Lines {
		total = total.Add(l.Quantity.Mul(l.UnitPrice))
	}
	return total
}
