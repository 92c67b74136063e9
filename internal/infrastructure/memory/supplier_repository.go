package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/jhoicas/stock-api/internal/domain"
	"github.com/jhoicas/stock-api/internal/domain/entity"
	"github.com/jhoicas/stock-api/internal/domain/repository"
)

var _ repository.SupplierRepository = (*supplierRepo)(nil)

// supplierRepo el registro no participa de las unidades de trabajo del motor; cada llamada toma el candado.
type supplierRepo struct {
	s *Store
}

func (r *supplierRepo) Create(ctx context.Context, sp *entity.Supplier) error {
	if sp == nil || sp.ID == "" {
		return domain.ErrInvalidInput
	}
	return r.s.withState(ctx, "memory.suppliers.create", func(st *state) error {
		if _, ok := st.suppliers[sp.ID]; ok {
			return domain.ErrDuplicate
		}
		if taxIDTaken(st, sp.TaxID, "") {
			return domain.ErrDuplicate
		}
		st.suppliers[sp.ID] = sp.Clone()
		return nil
	})
}

func (r *supplierRepo) GetByID(ctx context.Context, id string) (out *entity.Supplier, err error) {
	err = r.s.withState(ctx, "memory.suppliers.get", func(st *state) error {
		out = st.suppliers[id].Clone()
		return nil
	})
	return out, err
}

func (r *supplierRepo) GetByTaxID(ctx context.Context, taxID string) (out *entity.Supplier, err error) {
	err = r.s.withState(ctx, "memory.suppliers.get_by_tax_id", func(st *state) error {
		for _, sp := range st.suppliers {
			if strings.EqualFold(sp.TaxID, taxID) {
				out = sp.Clone()
				return nil
			}
		}
		return nil
	})
	return out, err
}

func (r *supplierRepo) Update(ctx context.Context, sp *entity.Supplier) error {
	return r.s.withState(ctx, "memory.suppliers.update", func(st *state) error {
		cur, ok := st.suppliers[sp.ID]
		if !ok {
			return domain.ErrNotFound
		}
		if taxIDTaken(st, sp.TaxID, sp.ID) {
			return domain.ErrDuplicate
		}
		created := cur.CreatedAt
		*cur = *sp
		cur.CreatedAt = created
		return nil
	})
}

func (r *supplierRepo) List(ctx context.Context, limit, offset int) (out []*entity.Supplier, total int, err error) {
	err = r.s.withState(ctx, "memory.suppliers.list", func(st *state) error {
		all := make([]*entity.Supplier, 0, len(st.suppliers))
		for _, sp := range st.suppliers {
			all = append(all, sp)
		}
		sort.Slice(all, func(i, j int) bool {
			if a, b := strings.ToLower(all[i].Company), strings.ToLower(all[j].Company); a != b {
				return a < b
			}
			return all[i].ID < all[j].ID
		})
		total = len(all)
		page := paginate(total, limit, offset)
		out = make([]*entity.Supplier, 0, page.end-page.start)
		for _, sp := range all[page.start:page.end] {
			out = append(out, sp.Clone())
		}
		return nil
	})
	return out, total, err
}

func taxIDTaken(st *state, taxID, exceptID string) bool {
	for id, sp := range st.suppliers {
		if id != exceptID && strings.EqualFold(sp.TaxID, taxID) {
			return true
		}
	}
	return false
}
