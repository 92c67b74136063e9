package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product representa una fila de saldo (lote) del catálogo. Varias filas pueden compartir Name.
// StockQuantity y AverageCost solo cambian a través de un StockMovement persistido en la misma transacción.
type Product struct {
	ID            string
	Name          string
	Description   string
	Category      string
	Price         decimal.Decimal // precio de venta, independiente del costo
	StockQuantity decimal.Decimal // nunca negativo
	AverageCost   decimal.Decimal // costo unitario promedio (o del lote, según método de valoración)
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// HasStock indica si el lote tiene existencias disponibles.
func (p *Product) HasStock() bool {
	return p.StockQuantity.GreaterThan(decimal.Zero)
}

// Clone copia el producto (los decimal son inmutables).
func (p *Product) Clone() *Product {
	if p == nil {
		return nil
	}
	c := *p
	return &c
}
