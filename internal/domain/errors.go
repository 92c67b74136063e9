package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Errores de dominio (sin dependencias de infraestructura).
var (
	ErrNotFound            = errors.New("recurso no encontrado")
	ErrInvalidInput        = errors.New("entrada inválida")
	ErrDuplicate           = errors.New("recurso duplicado")
	ErrConflict            = errors.New("conflicto con el estado actual")
	ErrInsufficientStock   = errors.New("stock insuficiente")
	ErrProductHasMovements = errors.New("el producto tiene movimientos registrados")
	ErrTransient           = errors.New("error transitorio, reintentar")
	ErrIntegrity           = errors.New("violación de integridad")
)

// InsufficientStockError regla de negocio: la suma disponible de los lotes no cubre lo solicitado.
// errors.Is(err, ErrInsufficientStock) es true.
type InsufficientStockError struct {
	ProductName string
	Requested   decimal.Decimal
	Available   decimal.Decimal
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("stock insuficiente para %q: solicitado %s, disponible %s",
		e.ProductName, e.Requested.String(), e.Available.String())
}

func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

// TransientError espera de bloqueo agotada, conflicto de serialización o deadlock.
// La operación no dejó escrituras parciales y puede reintentarse desde cero.
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string {
	if e.Err == nil {
		return e.Op + ": " + ErrTransient.Error()
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, ErrTransient.Error(), e.Err)
}

func (e *TransientError) Is(target error) bool {
	return target == ErrTransient
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// NewTransient envuelve err como error transitorio de la operación op.
func NewTransient(op string, err error) error {
	return &TransientError{Op: op, Err: err}
}

// IsRetryable indica si el llamador puede repetir la operación completa.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrTransient)
}
