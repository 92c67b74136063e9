// Package memory implementa los puertos de persistencia en proceso (tests, demos, STORAGE_DRIVER=memory).
// Un único candado global serializa las unidades de trabajo; cada transacción trabaja sobre una copia
// del estado que solo reemplaza al original si fn termina sin error.
package memory

import (
	"context"
	"time"

	"github.com/jhoicas/stock-api/internal/domain"
	"github.com/jhoicas/stock-api/internal/domain/entity"
	"github.com/jhoicas/stock-api/internal/domain/repository"
)

const defaultLockTimeout = 2 * time.Second

type state struct {
	products  map[string]*entity.Product
	movements []*entity.StockMovement
	suppliers map[string]*entity.Supplier
}

func (s *state) clone() *state {
	c := &state{
		products:  make(map[string]*entity.Product, len(s.products)),
		movements: make([]*entity.StockMovement, len(s.movements)),
		suppliers: make(map[string]*entity.Supplier, len(s.suppliers)),
	}
	for id, p := range s.products {
		c.products[id] = p.Clone()
	}
	for id, sp := range s.suppliers {
		c.suppliers[id] = sp.Clone()
	}
	// los movimientos son inmutables: basta copiar el slice
	copy(c.movements, s.movements)
	return c
}

// Store estado compartido en memoria.
type Store struct {
	sem         chan struct{}
	st          *state
	lockTimeout time.Duration
}

// Option configura el Store.
type Option func(*Store)

// WithLockTimeout espera máxima por el candado antes de devolver un error transitorio.
func WithLockTimeout(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.lockTimeout = d
		}
	}
}

// NewStore crea un store vacío.
func NewStore(opts ...Option) *Store {
	s := &Store{
		sem:         make(chan struct{}, 1),
		st:          &state{products: make(map[string]*entity.Product), suppliers: make(map[string]*entity.Supplier)},
		lockTimeout: defaultLockTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) acquire(ctx context.Context, op string) error {
	if err := ctx.Err(); err != nil {
		return domain.NewTransient(op, err)
	}
	timer := time.NewTimer(s.lockTimeout)
	defer timer.Stop()
	select {
	case s.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return domain.NewTransient(op, ctx.Err())
	case <-timer.C:
		return domain.NewTransient(op, context.DeadlineExceeded)
	}
}

func (s *Store) release() {
	<-s.sem
}

// Products repositorio de productos en modo autocommit (cada llamada es su propia unidad de trabajo).
func (s *Store) Products() repository.ProductRepository {
	return &autoProductRepo{s: s}
}

// Movements repositorio del libro en modo autocommit.
func (s *Store) Movements() repository.StockMovementRepository {
	return &autoMovementRepo{s: s}
}

// Suppliers registro de proveedores en modo autocommit.
func (s *Store) Suppliers() repository.SupplierRepository {
	return &supplierRepo{s: s}
}

// TxRunner ejecuta unidades de trabajo sobre el store.
func (s *Store) TxRunner() *TxRunner {
	return &TxRunner{s: s}
}

// TxRunner implementa el runner transaccional: copia al iniciar, reemplazo al confirmar.
type TxRunner struct {
	s *Store
}

// Run adquiere el candado global, ejecuta fn sobre una copia y la confirma si fn no falla.
func (r *TxRunner) Run(ctx context.Context, fn func(
	ctx context.Context,
	movRepo repository.StockMovementRepository,
	productRepo repository.ProductRepository,
) error) error {
	if err := r.s.acquire(ctx, "memory.begin"); err != nil {
		return err
	}
	defer r.s.release()

	work := r.s.st.clone()
	if err := fn(ctx, &movementRepo{st: work}, &productRepo{st: work}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return domain.NewTransient("memory.commit", err)
	}
	r.s.st = work
	return nil
}

func (s *Store) withState(ctx context.Context, op string, fn func(st *state) error) error {
	if err := s.acquire(ctx, op); err != nil {
		return err
	}
	defer s.release()
	return fn(s.st)
}
