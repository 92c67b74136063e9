package inventory

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-api/internal/domain"
	"github.com/jhoicas/stock-api/internal/domain/entity"
	"github.com/jhoicas/stock-api/internal/domain/inventory"
	"github.com/jhoicas/stock-api/internal/domain/repository"
	"github.com/jhoicas/stock-api/pkg/logger"
)

// DeliveryDirection sentido de los movimientos al entregar una orden de proveedor.
type DeliveryDirection string

const (
	// DeliveryOutbound consume lotes por nombre (comportamiento histórico).
	DeliveryOutbound DeliveryDirection = "OUTBOUND"
	// DeliveryInbound recibe en el producto referenciado por cada línea al precio de la línea.
	DeliveryInbound DeliveryDirection = "INBOUND"
)

// ParseDeliveryDirection acepta OUTBOUND / INBOUND sin distinguir mayúsculas; vacío = OUTBOUND.
func ParseDeliveryDirection(s string) (DeliveryDirection, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", string(DeliveryOutbound):
		return DeliveryOutbound, nil
	case string(DeliveryInbound):
		return DeliveryInbound, nil
	default:
		return "", fmt.Errorf("%w: dirección de entrega %q", domain.ErrInvalidInput, s)
	}
}

// DeliveryResult resultado de Deliver.
type DeliveryResult struct {
	OrderID   string
	Delivered bool // false si la orden ya tenía movimientos (no-op)
	Movements []*entity.StockMovement
}

// OrderDeliveryUseCase registra la entrega de una orden de proveedor en una sola unidad de trabajo.
// La deduplicación por orden vive aquí; el motor no la hace.
type OrderDeliveryUseCase struct {
	engine    *StockEngine
	txRunner  TxRunner
	direction DeliveryDirection
	suppliers SupplierDirectory
	log       *logger.Logger
}

// DeliveryOption configura OrderDeliveryUseCase.
type DeliveryOption func(*OrderDeliveryUseCase)

// WithSupplierDirectory exige que el supplier_id de la orden, si viene, esté registrado.
func WithSupplierDirectory(d SupplierDirectory) DeliveryOption {
	return func(uc *OrderDeliveryUseCase) { uc.suppliers = d }
}

// NewOrderDeliveryUseCase construye el caso de uso con la dirección configurada.
func NewOrderDeliveryUseCase(
	engine *StockEngine,
	txRunner TxRunner,
	direction DeliveryDirection,
	log *logger.Logger,
	opts ...DeliveryOption,
) *OrderDeliveryUseCase {
	if direction == "" {
		direction = DeliveryOutbound
	}
	if log == nil {
		log = logger.Nop()
	}
	uc := &OrderDeliveryUseCase{
		engine:    engine,
		txRunner:  txRunner,
		direction: direction,
		log:       log.Named("order_delivery"),
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// Direction dirección configurada.
func (uc *OrderDeliveryUseCase) Direction() DeliveryDirection {
	return uc.direction
}

// Deliver aplica todas las líneas de la orden o ninguna.
func (uc *OrderDeliveryUseCase) Deliver(ctx context.Context, order *entity.SupplierOrder) (*DeliveryResult, error) {
	if err := validateOrder(order, uc.direction); err != nil {
		return nil, err
	}
	if uc.suppliers != nil && order.SupplierID != "" {
		ok, err := uc.suppliers.Exists(ctx, order.SupplierID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("proveedor %s: %w", order.SupplierID, domain.ErrNotFound)
		}
	}

	lines := make([]entity.OrderLine, len(order.Lines))
	copy(lines, order.Lines)
	if uc.direction == DeliveryOutbound {
		// Orden de bloqueo determinista entre nombres distintos
		sort.SliceStable(lines, func(i, j int) bool {
			return strings.ToLower(lines[i].ProductName) < strings.ToLower(lines[j].ProductName)
		})
	}

	result := &DeliveryResult{OrderID: order.ID}
	err := uc.txRunner.Run(ctx, func(
		ctx context.Context,
		movRepo repository.StockMovementRepository,
		productRepo repository.ProductRepository,
	) error {
		exists, err := movRepo.ExistsForOrder(ctx, order.ID)
		if err != nil {
			return err
		}
		if exists {
			return nil
		}

		for _, line := range lines {
			switch uc.direction {
			case DeliveryInbound:
				product, err := productRepo.GetByIDForUpdate(ctx, line.ProductID)
				if err != nil {
					return err
				}
				if product == nil {
					return fmt.Errorf("línea %s: %w", line.ProductID, domain.ErrNotFound)
				}
				mov, err := uc.engine.ReceiveInTx(ctx, movRepo, productRepo, product, ReceiveInput{
					ProductID: line.ProductID,
					Quantity:  line.Quantity,
					UnitCost:  line.UnitPrice,
					OrderID:   order.ID,
				})
				if err != nil {
					return err
				}
				result.Movements = append(result.Movements, mov)
			default:
				moves, err := uc.engine.AllocateInTx(ctx, movRepo, productRepo, AllocateInput{
					ProductName: line.ProductName,
					Quantity:    line.Quantity,
					OrderID:     order.ID,
				})
				if err != nil {
					return err
				}
				result.Movements = append(result.Movements, moves...)
			}
		}
		result.Delivered = true
		return nil
	})
	if err != nil {
		uc.log.Warn().Err(err).Str("order_id", order.ID).Str("direction", string(uc.direction)).Msg("entrega rechazada")
		return nil, err
	}
	if !result.Delivered {
		uc.log.Info().Str("order_id", order.ID).Msg("orden ya entregada, sin cambios")
		return result, nil
	}
	uc.log.Info().
		Str("order_id", order.ID).
		Str("direction", string(uc.direction)).
		Int("movements", len(result.Movements)).
		Msg("orden entregada")
	return result, nil
}

func validateOrder(order *entity.SupplierOrder, dir DeliveryDirection) error {
	if order == nil || strings.TrimSpace(order.ID) == "" || len(order.Lines) == 0 {
		return domain.ErrInvalidInput
	}
	if err := validOrderID(order.ID); err != nil {
		return err
	}
	for _, l := range order.Lines {
		if !inventory.ValidQuantity(l.Quantity) {
			return domain.ErrInvalidInput
		}
		switch dir {
		case DeliveryInbound:
			if l.ProductID == "" || l.UnitPrice.LessThan(decimal.Zero) {
				return domain.ErrInvalidInput
			}
		default:
			if strings.TrimSpace(l.ProductName) == "" {
				return domain.ErrInvalidInput
			}
		}
	}
	return nil
}
