package entity

import "time"

// Supplier proveedor registrado. TaxID (ICE) es único.
type Supplier struct {
	ID        string
	Company   string
	Contact   string
	Email     string
	Phone     string
	Address   string
	City      string
	TaxID     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Clone copia el proveedor.
func (s *Supplier) Clone() *Supplier {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}
