package dto

import "time"

// SupplierRequest alta o reemplazo completo de un proveedor.
type SupplierRequest struct {
	Company string `json:"company" validate:"required,max=150"`
	Contact string `json:"contact" validate:"required,max=100"`
	Email   string `json:"email" validate:"required,email,max=255"`
	Phone   string `json:"phone" validate:"required,phone"`
	Address string `json:"address" validate:"required,max=255"`
	City    string `json:"city" validate:"required,max=100"`
	TaxID   string `json:"tax_id" validate:"required,min=10,max=15"`
}

// SupplierResponse salida de un proveedor.
type SupplierResponse struct {
	ID        string    `json:"id"`
	Company   string    `json:"company"`
	Contact   string    `json:"contact"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Address   string    `json:"address"`
	City      string    `json:"city"`
	TaxID     string    `json:"tax_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SupplierListResponse página de proveedores.
type SupplierListResponse struct {
	Items []SupplierResponse `json:"items"`
	Page  PageResponse       `json:"page"`
}
