package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-api/internal/domain"
	"github.com/jhoicas/stock-api/internal/domain/entity"
	"github.com/jhoicas/stock-api/internal/domain/repository"
)

type movementRepo struct {
	st *state
}

func (r *movementRepo) Append(_ context.Context, m *entity.StockMovement) error {
	if m == nil || m.ID == "" || !m.Type.IsValid() {
		return domain.ErrInvalidInput
	}
	if !m.Quantity.GreaterThan(decimal.Zero) {
		return fmt.Errorf("cantidad no positiva: %w", domain.ErrIntegrity)
	}
	if _, ok := r.st.products[m.ProductID]; !ok {
		return fmt.Errorf("producto %s inexistente: %w", m.ProductID, domain.ErrIntegrity)
	}
	for _, cur := range r.st.movements {
		if cur.ID == m.ID {
			return domain.ErrDuplicate
		}
	}
	c := *m
	r.st.movements = append(r.st.movements, &c)
	return nil
}

func (r *movementRepo) GetByID(_ context.Context, id string) (*entity.StockMovement, error) {
	for _, m := range r.st.movements {
		if m.ID == id {
			c := *m
			return &c, nil
		}
	}
	return nil, nil
}

func (r *movementRepo) List(_ context.Context, f repository.MovementFilter, limit, offset int) ([]*entity.StockMovement, int, error) {
	// más recientes primero; a igual fecha, el último registrado primero
	var matched []*entity.StockMovement
	for i := len(r.st.movements) - 1; i >= 0; i-- {
		if m := r.st.movements[i]; matchMovement(m, f) {
			matched = append(matched, m)
		}
	}
	sortByDateDesc(matched)
	page := paginate(len(matched), limit, offset)
	out := make([]*entity.StockMovement, 0, page.end-page.start)
	for _, m := range matched[page.start:page.end] {
		c := *m
		out = append(out, &c)
	}
	return out, len(matched), nil
}

func (r *movementRepo) ExistsForOrder(_ context.Context, orderID string) (bool, error) {
	for _, m := range r.st.movements {
		if m.OrderID != "" && m.OrderID == orderID {
			return true, nil
		}
	}
	return false, nil
}

func (r *movementRepo) ExistsForProduct(_ context.Context, productID string) (bool, error) {
	for _, m := range r.st.movements {
		if m.ProductID == productID {
			return true, nil
		}
	}
	return false, nil
}

func (r *movementRepo) SumByProduct(_ context.Context, productID string) (inbound, outbound decimal.Decimal, err error) {
	for _, m := range r.st.movements {
		if m.ProductID != productID {
			continue
		}
		if m.Type == entity.MovementTypeInbound {
			inbound = inbound.Add(m.Quantity)
		} else {
			outbound = outbound.Add(m.Quantity)
		}
	}
	return inbound, outbound, nil
}

func (r *movementRepo) OutboundSince(_ context.Context, productIDs []string, since time.Time) (map[string]decimal.Decimal, error) {
	wanted := make(map[string]struct{}, len(productIDs))
	for _, id := range productIDs {
		wanted[id] = struct{}{}
	}
	out := make(map[string]decimal.Decimal)
	for _, m := range r.st.movements {
		if m.Type != entity.MovementTypeOutbound || m.Date.Before(since) {
			continue
		}
		if _, ok := wanted[m.ProductID]; ok {
			out[m.ProductID] = out[m.ProductID].Add(m.Quantity)
		}
	}
	return out, nil
}

func matchMovement(m *entity.StockMovement, f repository.MovementFilter) bool {
	if f.ProductID != "" && m.ProductID != f.ProductID {
		return false
	}
	if f.OrderID != "" && m.OrderID != f.OrderID {
		return false
	}
	if f.Type != "" && m.Type != f.Type {
		return false
	}
	if f.From != nil && m.Date.Before(*f.From) {
		return false
	}
	if f.To != nil && m.Date.After(*f.To) {
		return false
	}
	return true
}

func sortByDateDesc(ms []*entity.StockMovement) {
	sort.SliceStable(ms, func(i, j int) bool {
		return ms[i].Date.After(ms[j].Date)
	})
}

// autoMovementRepo toma el candado en cada llamada.
type autoMovementRepo struct {
	s *Store
}

func (r *autoMovementRepo) Append(ctx context.Context, m *entity.StockMovement) error {
	return r.s.withState(ctx, "memory.movements.append", func(st *state) error {
		return (&movementRepo{st: st}).Append(ctx, m)
	})
}

func (r *autoMovementRepo) GetByID(ctx context.Context, id string) (out *entity.StockMovement, err error) {
	err = r.s.withState(ctx, "memory.movements.get", func(st *state) error {
		out, err = (&movementRepo{st: st}).GetByID(ctx, id)
		return err
	})
	return out, err
}

func (r *autoMovementRepo) List(ctx context.Context, f repository.MovementFilter, limit, offset int) (out []*entity.StockMovement, total int, err error) {
	err = r.s.withState(ctx, "memory.movements.list", func(st *state) error {
		out, total, err = (&movementRepo{st: st}).List(ctx, f, limit, offset)
		return err
	})
	return out, total, err
}

func (r *autoMovementRepo) ExistsForOrder(ctx context.Context, orderID string) (ok bool, err error) {
	err = r.s.withState(ctx, "memory.movements.exists_order", func(st *state) error {
		ok, err = (&movementRepo{st: st}).ExistsForOrder(ctx, orderID)
		return err
	})
	return ok, err
}

func (r *autoMovementRepo) ExistsForProduct(ctx context.Context, productID string) (ok bool, err error) {
	err = r.s.withState(ctx, "memory.movements.exists_product", func(st *state) error {
		ok, err = (&movementRepo{st: st}).ExistsForProduct(ctx, productID)
		return err
	})
	return ok, err
}

func (r *autoMovementRepo) SumByProduct(ctx context.Context, productID string) (in, out decimal.Decimal, err error) {
	err = r.s.withState(ctx, "memory.movements.sum", func(st *state) error {
		in, out, err = (&movementRepo{st: st}).SumByProduct(ctx, productID)
		return err
	})
	return in, out, err
}

func (r *autoMovementRepo) OutboundSince(ctx context.Context, productIDs []string, since time.Time) (out map[string]decimal.Decimal, err error) {
	err = r.s.withState(ctx, "memory.movements.outbound_since", func(st *state) error {
		out, err = (&movementRepo{st: st}).OutboundSince(ctx, productIDs, since)
		return err
	})
	return out, err
}
