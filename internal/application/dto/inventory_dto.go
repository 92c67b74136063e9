package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReceiptRequest body para POST /api/products/:id/receipts.
type ReceiptRequest struct {
	Quantity decimal.Decimal `json:"quantity"`
	UnitCost decimal.Decimal `json:"unit_cost"`
	OrderID  string          `json:"order_id,omitempty"`
	Note     string          `json:"note,omitempty"`
}

// AllocationRequest body para POST /api/inventory/allocations.
type AllocationRequest struct {
	ProductName string          `json:"product_name"`
	Quantity    decimal.Decimal `json:"quantity"`
	OrderID     string          `json:"order_id"`
	Note        string          `json:"note,omitempty"`
}

// DeliveryLineRequest línea de una orden de proveedor.
type DeliveryLineRequest struct {
	ProductID   string          `json:"product_id,omitempty"`
	ProductName string          `json:"product_name,omitempty"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

// DeliveryRequest body para POST /api/inventory/deliveries.
type DeliveryRequest struct {
	OrderID    string                `json:"order_id"`
	SupplierID string                `json:"supplier_id,omitempty"`
	Lines      []DeliveryLineRequest `json:"lines"`
}

// DeliveryResponse resultado de la entrega.
type DeliveryResponse struct {
	OrderID   string             `json:"order_id"`
	Direction string             `json:"direction"`
	Delivered bool               `json:"delivered"`
	Movements []MovementResponse `json:"movements"`
}

// MovementResponse salida de un movimiento del libro.
type MovementResponse struct {
	ID        string          `json:"id"`
	Date      time.Time       `json:"date"`
	Type      string          `json:"type"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitCost  decimal.Decimal `json:"unit_cost"`
	TotalCost decimal.Decimal `json:"total_cost"`
	ProductID string          `json:"product_id"`
	OrderID   string          `json:"order_id,omitempty"`
	Note      string          `json:"note,omitempty"`
}

// MovementListResponse lista paginada de movimientos.
type MovementListResponse struct {
	Items []MovementResponse `json:"items"`
	Page  PageResponse       `json:"page"`
}

// ReconciliationResponse saldo frente a libro para un producto.
type ReconciliationResponse struct {
	ProductID string          `json:"product_id"`
	OnHand    decimal.Decimal `json:"on_hand"`
	Inbound   decimal.Decimal `json:"inbound"`
	Outbound  decimal.Decimal `json:"outbound"`
	Balanced  bool            `json:"balanced"`
}

// InsufficientStockResponse cuerpo 409 cuando los lotes no alcanzan.
type InsufficientStockResponse struct {
	Code        string          `json:"code"`
	Message     string          `json:"message"`
	ProductName string          `json:"product_name"`
	Requested   decimal.Decimal `json:"requested"`
	Available   decimal.Decimal `json:"available"`
}

// ReplenishmentSuggestionDTO sugerencia de reposición para un nombre de producto
// cuyo stock total (todos sus lotes) está por debajo del punto de reorden.
type ReplenishmentSuggestionDTO struct {
	ProductName        string          `json:"product_name"`
	Lots               int             `json:"lots"`
	CurrentStock       decimal.Decimal `json:"current_stock"`
	ReorderPoint       decimal.Decimal `json:"reorder_point"`
	IdealStock         decimal.Decimal `json:"ideal_stock"`          // ReorderPoint * 1.5
	SuggestedOrderQty  decimal.Decimal `json:"suggested_order_qty"`  // IdealStock - CurrentStock
	UnitCost           decimal.Decimal `json:"unit_cost"`            // costo promedio ponderado entre lotes
	EstimatedOrderCost decimal.Decimal `json:"estimated_order_cost"` // SuggestedOrderQty * UnitCost
	UnitsOutInWindow   decimal.Decimal `json:"units_out_in_window"`  // salidas registradas en la ventana
	Priority           int             `json:"priority"`             // 1 = más urgente
}
