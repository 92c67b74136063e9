package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/stock-api/internal/application/inventory"
	"github.com/jhoicas/stock-api/internal/domain"
	"github.com/jhoicas/stock-api/internal/domain/repository"
)

var _ inventory.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL (READ COMMITTED).
// Cada unidad de trabajo tiene plazo txTimeout y las esperas por bloqueo de fila se cortan a lockTimeout.
type TxRunner struct {
	pool        *pgxpool.Pool
	txTimeout   time.Duration
	lockTimeout time.Duration
}

// NewTxRunner construye el runner con el pool y los plazos configurados.
func NewTxRunner(pool *pgxpool.Pool, txTimeout, lockTimeout time.Duration) *TxRunner {
	if txTimeout <= 0 {
		txTimeout = 5 * time.Second
	}
	if lockTimeout <= 0 || lockTimeout > txTimeout {
		lockTimeout = txTimeout
	}
	return &TxRunner{pool: pool, txTimeout: txTimeout, lockTimeout: lockTimeout}
}

// Run inicia una transacción, ejecuta fn con repos atados a la tx y hace Commit o Rollback.
func (r *TxRunner) Run(ctx context.Context, fn func(
	ctx context.Context,
	movRepo repository.StockMovementRepository,
	productRepo repository.ProductRepository,
) error) error {
	ctx, cancel := context.WithTimeout(ctx, r.txTimeout)
	defer cancel()

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return classifyError("begin transaction", err)
	}
	// Rollback con contexto propio: el de la tx puede estar vencido
	defer func() {
		rbCtx, rbCancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer rbCancel()
		_ = tx.Rollback(rbCtx)
	}()

	if _, err := tx.Exec(ctx, lockTimeoutStatement(r.lockTimeout)); err != nil {
		return classifyError("set lock_timeout", err)
	}

	if err := fn(ctx, NewStockMovementRepository(tx), NewProductRepository(tx)); err != nil {
		if isDomainError(err) {
			return err
		}
		return classifyError("transaction", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return classifyError("commit transaction", err)
	}
	return nil
}

// lockTimeoutStatement SET LOCAL no admite parámetros; el valor se formatea en milisegundos.
func lockTimeoutStatement(d time.Duration) string {
	ms := d.Milliseconds()
	if ms < 1 {
		ms = 1
	}
	return fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", ms)
}

func isDomainError(err error) bool {
	for _, target := range []error{
		domain.ErrNotFound, domain.ErrInvalidInput, domain.ErrDuplicate, domain.ErrConflict,
		domain.ErrInsufficientStock, domain.ErrProductHasMovements, domain.ErrTransient, domain.ErrIntegrity,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
