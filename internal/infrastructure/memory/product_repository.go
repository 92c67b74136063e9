package memory

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
)

// productRepo opera sobre un estado ya protegido por el candado del store.
type productRepo struct {
	st *state
}

func (r *productRepo) Create(_ context.Context, p *entity.Product) error {
	if p == nil || p.ID == "" {
		return domain.ErrInvalidInput
	}
	if _, ok := r.st.products[p.ID]; ok {
		return domain.ErrDuplicate
	}
	if p.StockQuantity.IsNegative() {
		return fmt.Errorf("stock negativo: %w", domain.ErrIntegrity)
	}
	r.st.products[p.ID] = p.Clone()
	return nil
}

func (r *productRepo) GetByID(_ context.Context, id string) (*entity.Product, error) {
	p, ok := r.st.products[id]
	if !ok {
		return nil, nil
	}
	return p.Clone(), nil
}

func (r *productRepo) GetByIDForUpdate(ctx context.Context, id string) (*entity.Product, error) {
	// el candado del store ya es exclusivo durante toda la transacción
	return r.GetByID(ctx, id)
}

func (r *productRepo) FindByNameWithStockAbove(_ context.Context, name string, threshold decimal.Decimal) ([]*entity.Product, error) {
	var out []*entity.Product
	for _, p := range r.st.products {
		if strings.EqualFold(p.Name, name) && p.StockQuantity.GreaterThan(threshold) {
			out = append(out, p.Clone())
		}
	}
	inventory.SortLots(out)
	return out, nil
}

func (r *productRepo) Save(_ context.Context, p *entity.Product) error {
	cur, ok := r.st.products[p.ID]
	if !ok {
		return domain.ErrNotFound
	}
	if p.StockQuantity.IsNegative() {
		return fmt.Errorf("stock negativo: %w", domain.ErrIntegrity)
	}
	cur.StockQuantity = p.StockQuantity
	cur.AverageCost = p.AverageCost
	cur.UpdatedAt = p.UpdatedAt
	return nil
}

func (r *productRepo) Update(_ context.Context, p *entity.Product) error {
	cur, ok := r.st.products[p.ID]
	if !ok {
		return domain.ErrNotFound
	}
	cur.Name = p.Name
	cur.Description = p.Description
	cur.Category = p.Category
	cur.Price = p.Price
	cur.UpdatedAt = p.UpdatedAt
	return nil
}

func (r *productRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.st.products[id]; !ok {
		return domain.ErrNotFound
	}
	for _, m := range r.st.movements {
		if m.ProductID == id {
			// equivalente a la FK con ON DELETE RESTRICT
			return fmt.Errorf("producto %s referenciado por movimientos: %w", id, domain.ErrIntegrity)
		}
	}
	delete(r.st.products, id)
	return nil
}

func (r *productRepo) List(_ context.Context, f repository.ProductFilter, limit, offset int) ([]*entity.Product, int, error) {
	var matched []*entity.Product
	for _, p := range r.st.products {
		if matchProduct(p, f) {
			matched = append(matched, p)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
	total := len(matched)
	page := paginate(len(matched), limit, offset)
	out := make([]*entity.Product, 0, page.end-page.start)
	for _, p := range matched[page.start:page.end] {
		out = append(out, p.Clone())
	}
	return out, total, nil
}

func matchProduct(p *entity.Product, f repository.ProductFilter) bool {
	if f.NameContains != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(f.NameContains)) {
		return false
	}
	if f.Category != "" && !strings.EqualFold(p.Category, f.Category) {
		return false
	}
	if f.MinPrice != nil && p.Price.LessThan(*f.MinPrice) {
		return false
	}
	if f.MaxPrice != nil && p.Price.GreaterThan(*f.MaxPrice) {
		return false
	}
	if f.StockBelow != nil && !p.StockQuantity.LessThan(*f.StockBelow) {
		return false
	}
	if f.StockAbove != nil && !p.StockQuantity.GreaterThan(*f.StockAbove) {
		return false
	}
	return true
}

type window struct{ start, end int }

func paginate(n, limit, offset int) window {
	if offset < 0 {
		offset = 0
	}
	if offset > n {
		offset = n
	}
	end := n
	if limit > 0 && offset+limit < n {
		end = offset + limit
	}
	return window{start: offset, end: end}
}

// autoProductRepo toma el candado en cada llamada.
type autoProductRepo struct {
	s *Store
}

func (r *autoProductRepo) Create(ctx context.Context, p *entity.Product) error {
	return r.s.withState(ctx, "memory.products.create", func(st *state) error {
		return (&productRepo{st: st}).Create(ctx, p)
	})
}

func (r *autoProductRepo) GetByID(ctx context.Context, id string) (out *entity.Product, err error) {
	err = r.s.withState(ctx, "memory.products.get", func(st *state) error {
		out, err = (&productRepo{st: st}).GetByID(ctx, id)
		return err
	})
	return out, err
}

func (r *autoProductRepo) GetByIDForUpdate(ctx context.Context, id string) (*entity.Product, error) {
	return r.GetByID(ctx, id)
}

func (r *autoProductRepo) FindByNameWithStockAbove(ctx context.Context, name string, threshold decimal.Decimal) (out []*entity.Product, err error) {
	err = r.s.withState(ctx, "memory.products.find_by_name", func(st *state) error {
		out, err = (&productRepo{st: st}).FindByNameWithStockAbove(ctx, name, threshold)
		return err
	})
	return out, err
}

func (r *autoProductRepo) Save(ctx context.Context, p *entity.Product) error {
	return r.s.withState(ctx, "memory.products.save", func(st *state) error {
		return (&productRepo{st: st}).Save(ctx, p)
	})
}

func (r *autoProductRepo) Update(ctx context.Context, p *entity.Product) error {
	return r.s.withState(ctx, "memory.products.update", func(st *state) error {
		return (&productRepo{st: st}).Update(ctx, p)
	})
}

func (r *autoProductRepo) Delete(ctx context.Context, id string) error {
	return r.s.withState(ctx, "memory.products.delete", func(st *state) error {
		return (&productRepo{st: st}).Delete(ctx, id)
	})
}

func (r *autoProductRepo) List(ctx context.Context, f repository.ProductFilter, limit, offset int) (out []*entity.Product, total int, err error) {
	err = r.s.withState(ctx, "memory.products.list", func(st *state) error {
		out, total, err = (&productRepo{st: st}).List(ctx, f, limit, offset)
		return err
	})
	return out, total, err
}
