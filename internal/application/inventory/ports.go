package inventory

import (
	"context"

	"github.com/jhoicas/stock-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando repositorios atados a esa tx.
// Garantiza atomicidad para el motor de inventario: Commit si fn devuelve nil, Rollback en cualquier otro caso.
// El ctx recibido por fn lleva el plazo de la unidad de trabajo.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		ctx context.Context,
		movRepo repository.StockMovementRepository,
		productRepo repository.ProductRepository,
	) error) error
}

// NameLocker serializa asignaciones del mismo nombre de producto entre procesos.
// Complementa el bloqueo de filas; unlock nunca falla.
type NameLocker interface {
	Lock(ctx context.Context, name string) (unlock func(), err error)
}

type noopLocker struct{}

func (noopLocker) Lock(context.Context, string) (func(), error) {
	return func() {}, nil
}

// SupplierDirectory consulta el registro de proveedores al entregar una orden.
type SupplierDirectory interface {
	Exists(ctx context.Context, id string) (bool, error)
}
