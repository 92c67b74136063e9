package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-api/internal/domain"
	"github.com/jhoicas/stock-api/internal/domain/entity"
	"github.com/jhoicas/stock-api/internal/domain/inventory"
	"github.com/jhoicas/stock-api/internal/domain/repository"
	"github.com/jhoicas/stock-api/pkg/logger"
)

// StockEngine registra entradas (Receive) y salidas repartidas entre lotes (Allocate)
// de forma transaccional, con bloqueo de filas (SELECT FOR UPDATE) y Commit/Rollback vía TxRunner.
// No deduplica: repetir Allocate con la misma orden vuelve a descontar.
type StockEngine struct {
	txRunner TxRunner
	policy   inventory.ValuationPolicy
	locker   NameLocker
	log      *logger.Logger
	now      func() time.Time
}

// Option configura el motor.
type Option func(*StockEngine)

// WithNameLocker agrega un bloqueo por nombre (p. ej. Redis) alrededor de cada asignación.
func WithNameLocker(l NameLocker) Option {
	return func(e *StockEngine) {
		if l != nil {
			e.locker = l
		}
	}
}

// WithClock reemplaza el reloj (tests).
func WithClock(now func() time.Time) Option {
	return func(e *StockEngine) { e.now = now }
}

// NewStockEngine construye el motor con la política de valoración configurada.
func NewStockEngine(txRunner TxRunner, policy inventory.ValuationPolicy, log *logger.Logger, opts ...Option) *StockEngine {
	if policy == nil {
		policy = inventory.MovingAverage{}
	}
	if log == nil {
		log = logger.Nop()
	}
	e := &StockEngine{
		txRunner: txRunner,
		policy:   policy,
		locker:   noopLocker{},
		log:      log.Named("stock_engine"),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ValuationMethod método de valoración activo.
func (e *StockEngine) ValuationMethod() inventory.ValuationMethod {
	return e.policy.Method()
}

// ReceiveInput entrada de stock para una fila de saldo existente.
type ReceiveInput struct {
	ProductID string
	Quantity  decimal.Decimal
	UnitCost  decimal.Decimal
	OrderID   string
	Note      string
}

func (in ReceiveInput) validate() error {
	if in.ProductID == "" || !inventory.ValidQuantity(in.Quantity) || in.UnitCost.LessThan(decimal.Zero) {
		return domain.ErrInvalidInput
	}
	return validOrderID(in.OrderID)
}

// Receive registra una reposición explícita. Cantidad <= 0 se rechaza con ErrInvalidInput.
func (e *StockEngine) Receive(ctx context.Context, in ReceiveInput) error {
	if err := in.validate(); err != nil {
		return err
	}

	var mov *entity.StockMovement
	err := e.txRunner.Run(ctx, func(
		ctx context.Context,
		movRepo repository.StockMovementRepository,
		productRepo repository.ProductRepository,
	) error {
		// Bloquea la fila del producto para evitar actualizaciones perdidas
		product, err := productRepo.GetByIDForUpdate(ctx, in.ProductID)
		if err != nil {
			return err
		}
		if product == nil {
			return domain.ErrNotFound
		}
		mov, err = e.ReceiveInTx(ctx, movRepo, productRepo, product, in)
		return err
	})
	if err != nil {
		e.logFailure(err, "receive").Str("product_id", in.ProductID).Str("quantity", in.Quantity.String()).Msg("entrada rechazada")
		return err
	}
	e.log.Info().
		Str("product_id", in.ProductID).
		Str("quantity", mov.Quantity.String()).
		Str("unit_cost", mov.UnitCost.String()).
		Str("order_id", in.OrderID).
		Msg("entrada registrada")
	return nil
}

// ReceiveInTx aplica la entrada usando los repositorios de la transacción del caller.
// product debe estar bloqueado (o recién creado en la misma tx). Actualiza costo y stock,
// persiste el saldo y luego agrega el movimiento INBOUND que lo referencia.
func (e *StockEngine) ReceiveInTx(
	ctx context.Context,
	movRepo repository.StockMovementRepository,
	productRepo repository.ProductRepository,
	product *entity.Product,
	in ReceiveInput,
) (*entity.StockMovement, error) {
	if product == nil || product.ID == "" {
		return nil, domain.ErrNotFound
	}
	if !inventory.ValidQuantity(in.Quantity) || in.UnitCost.LessThan(decimal.Zero) {
		return nil, domain.ErrInvalidInput
	}
	now := e.now()

	// Costo nuevo con cantidad y costo previos a la actualización
	newCost := e.policy.NextAverageCost(product.StockQuantity, product.AverageCost, in.Quantity, in.UnitCost)

	product.StockQuantity = product.StockQuantity.Add(in.Quantity)
	product.AverageCost = inventory.RoundCost(newCost)
	product.UpdatedAt = now
	if err := productRepo.Save(ctx, product); err != nil {
		return nil, err
	}

	mov := &entity.StockMovement{
		ID:        uuid.New().String(),
		Date:      now,
		Type:      entity.MovementTypeInbound,
		Quantity:  in.Quantity,
		UnitCost:  inventory.RoundCost(in.UnitCost),
		ProductID: product.ID,
		OrderID:   in.OrderID,
		Note:      in.Note,
		CreatedAt: now,
	}
	if err := movRepo.Append(ctx, mov); err != nil {
		return nil, err
	}
	return mov, nil
}

// AllocateInput salida por nombre de producto, posiblemente repartida entre varios lotes.
type AllocateInput struct {
	ProductName string
	Quantity    decimal.Decimal
	OrderID     string
	Note        string
}

func (in AllocateInput) validate() error {
	if strings.TrimSpace(in.ProductName) == "" || !inventory.ValidQuantity(in.Quantity) {
		return domain.ErrInvalidInput
	}
	return validOrderID(in.OrderID)
}

// Allocate consume Quantity unidades de los lotes con ese nombre (mayor stock primero).
// Todo o nada: si el total disponible no alcanza devuelve *domain.InsufficientStockError sin escribir nada.
func (e *StockEngine) Allocate(ctx context.Context, in AllocateInput) error {
	if err := in.validate(); err != nil {
		return err
	}

	unlock, err := e.locker.Lock(ctx, in.ProductName)
	if err != nil {
		e.logFailure(err, "allocate").Str("product_name", in.ProductName).Msg("bloqueo por nombre no obtenido")
		return err
	}
	defer unlock()

	var moves []*entity.StockMovement
	err = e.txRunner.Run(ctx, func(
		ctx context.Context,
		movRepo repository.StockMovementRepository,
		productRepo repository.ProductRepository,
	) error {
		var err error
		moves, err = e.AllocateInTx(ctx, movRepo, productRepo, in)
		return err
	})
	if err != nil {
		e.logFailure(err, "allocate").
			Str("product_name", in.ProductName).
			Str("quantity", in.Quantity.String()).
			Str("order_id", in.OrderID).
			Msg("salida rechazada")
		return err
	}
	e.log.Info().
		Str("product_name", in.ProductName).
		Str("quantity", in.Quantity.String()).
		Str("order_id", in.OrderID).
		Int("lots", len(moves)).
		Msg("salida registrada")
	return nil
}

// AllocateInTx ejecuta la asignación con los repositorios de la transacción del caller.
// Lee y bloquea los lotes, verifica suficiencia antes de tocar nada y luego, lote por lote,
// descuenta, agrega un OUTBOUND al costo propio del lote y persiste el saldo.
func (e *StockEngine) AllocateInTx(
	ctx context.Context,
	movRepo repository.StockMovementRepository,
	productRepo repository.ProductRepository,
	in AllocateInput,
) ([]*entity.StockMovement, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	lots, err := productRepo.FindByNameWithStockAbove(ctx, in.ProductName, decimal.Zero)
	if err != nil {
		return nil, err
	}
	draws, err := inventory.PlanAllocation(in.ProductName, lots, in.Quantity)
	if err != nil {
		return nil, err
	}

	now := e.now()
	moves := make([]*entity.StockMovement, 0, len(draws))
	for _, dr := range draws {
		lot := dr.Lot
		lot.StockQuantity = lot.StockQuantity.Sub(dr.Quantity)
		lot.UpdatedAt = now

		mov := &entity.StockMovement{
			ID:        uuid.New().String(),
			Date:      now,
			Type:      entity.MovementTypeOutbound,
			Quantity:  dr.Quantity,
			UnitCost:  lot.AverageCost,
			ProductID: lot.ID,
			OrderID:   in.OrderID,
			Note:      in.Note,
			CreatedAt: now,
		}
		if err := movRepo.Append(ctx, mov); err != nil {
			return nil, err
		}
		if err := productRepo.Save(ctx, lot); err != nil {
			return nil, err
		}
		moves = append(moves, mov)
	}
	return moves, nil
}

// maxOrderIDLen largo de order_id en el esquema (VARCHAR(100)).
const maxOrderIDLen = 100

func validOrderID(id string) error {
	if utf8.RuneCountInString(id) > maxOrderIDLen {
		return fmt.Errorf("%w: order_id supera %d caracteres", domain.ErrInvalidInput, maxOrderIDLen)
	}
	return nil
}

func (e *StockEngine) logFailure(err error, op string) *zerolog.Event {
	switch {
	case errors.Is(err, domain.ErrInsufficientStock), errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrNotFound):
		return e.log.Warn().Err(err).Str("op", op)
	case errors.Is(err, domain.ErrTransient):
		return e.log.Warn().Err(err).Str("op", op).Bool("retryable", true)
	default:
		return e.log.Error().Err(err).Str("op", op)
	}
}
