package postgres

import (
	"context"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"github.com/jhoicas/stock-api/internal/domain"
	"github.com/jhoicas/stock-api/internal/domain/entity"
	"github.com/jhoicas/stock-api/internal/domain/repository"
)

var _ repository.SupplierRepository = (*SupplierRepo)(nil)

const suppliersTable = "suppliers"

var supplierColumns = []string{
	"id", "company", "contact", "email", "phone", "address", "city", "tax_id", "created_at", "updated_at",
}

type supplierRow struct {
	ID        string    `db:"id"`
	Company   string    `db:"company"`
	Contact   string    `db:"contact"`
	Email     string    `db:"email"`
	Phone     string    `db:"phone"`
	Address   string    `db:"address"`
	City      string    `db:"city"`
	TaxID     string    `db:"tax_id"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r supplierRow) toEntity() *entity.Supplier {
	return &entity.Supplier{
		ID:        r.ID,
		Company:   r.Company,
		Contact:   r.Contact,
		Email:     r.Email,
		Phone:     r.Phone,
		Address:   r.Address,
		City:      r.City,
		TaxID:     r.TaxID,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

// SupplierRepo implementación de SupplierRepository (usable con pool o tx).
type SupplierRepo struct {
	q Querier
}

// NewSupplierRepository construye el adaptador. Pasar pool o tx (Querier).
func NewSupplierRepository(q Querier) *SupplierRepo {
	return &SupplierRepo{q: q}
}

// Create persiste un proveedor; tax_id repetido devuelve ErrDuplicate.
func (r *SupplierRepo) Create(ctx context.Context, s *entity.Supplier) error {
	sql, args, err := psql.Insert(suppliersTable).Columns(supplierColumns...).Values(
		s.ID, s.Company, s.Contact, s.Email, s.Phone, s.Address, s.City, s.TaxID, s.CreatedAt, s.UpdatedAt,
	).ToSql()
	if err != nil {
		return err
	}
	if _, err := r.q.Exec(ctx, sql, args...); err != nil {
		return classifyError("insert supplier", err)
	}
	return nil
}

// GetByID obtiene un proveedor por ID.
func (r *SupplierRepo) GetByID(ctx context.Context, id string) (*entity.Supplier, error) {
	return r.getOne(ctx, squirrel.Eq{"id": id}, "get supplier")
}

// GetByTaxID obtiene un proveedor por ICE, sin distinguir mayúsculas.
func (r *SupplierRepo) GetByTaxID(ctx context.Context, taxID string) (*entity.Supplier, error) {
	return r.getOne(ctx, squirrel.Expr("upper(tax_id) = upper(?)", taxID), "get supplier by tax_id")
}

func (r *SupplierRepo) getOne(ctx context.Context, where squirrel.Sqlizer, op string) (*entity.Supplier, error) {
	sql, args, err := psql.Select(supplierColumns...).From(suppliersTable).Where(where).ToSql()
	if err != nil {
		return nil, err
	}
	var row supplierRow
	if err := pgxscan.Get(ctx, r.q, &row, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, nil
		}
		return nil, classifyError(op, err)
	}
	return row.toEntity(), nil
}

// Update reemplaza los datos del proveedor.
func (r *SupplierRepo) Update(ctx context.Context, s *entity.Supplier) error {
	sql, args, err := psql.Update(suppliersTable).
		Set("company", s.Company).
		Set("contact", s.Contact).
		Set("email", s.Email).
		Set("phone", s.Phone).
		Set("address", s.Address).
		Set("city", s.City).
		Set("tax_id", s.TaxID).
		Set("updated_at", s.UpdatedAt).
		Where(squirrel.Eq{"id": s.ID}).
		ToSql()
	if err != nil {
		return err
	}
	tag, err := r.q.Exec(ctx, sql, args...)
	if err != nil {
		return classifyError("update supplier", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List proveedores por razón social, con el total sin paginar.
func (r *SupplierRepo) List(ctx context.Context, limit, offset int) ([]*entity.Supplier, int, error) {
	var total int
	if err := r.q.QueryRow(ctx, "SELECT count(*) FROM "+suppliersTable).Scan(&total); err != nil {
		return nil, 0, classifyError("count suppliers", err)
	}
	sql, args, err := supplierListQuery(limit, offset).ToSql()
	if err != nil {
		return nil, 0, err
	}
	var rows []supplierRow
	if err := pgxscan.Select(ctx, r.q, &rows, sql, args...); err != nil {
		return nil, 0, classifyError("list suppliers", err)
	}
	out := make([]*entity.Supplier, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toEntity())
	}
	return out, total, nil
}

func supplierListQuery(limit, offset int) squirrel.SelectBuilder {
	q := psql.Select(supplierColumns...).From(suppliersTable).OrderBy("lower(company) ASC", "id ASC")
	if limit > 0 {
		q = q.Limit(uint64(limit))
	}
	if offset > 0 {
		q = q.Offset(uint64(offset))
	}
	return q
}
