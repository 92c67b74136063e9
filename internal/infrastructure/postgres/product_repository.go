package postgres

import (
	"context"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-api/internal/domain"
	"github.com/jhoicas/stock-api/internal/domain/entity"
	"github.com/jhoicas/stock-api/internal/domain/inventory"
	"github.com/jhoicas/stock-api/internal/domain/repository"
)

var _ repository.ProductRepository = (*ProductRepo)(nil)

const productsTable = "products"

var productColumns = []string{
	"id", "name", "description", "category", "price",
	"stock_quantity", "average_cost", "created_at", "updated_at",
}

// productRow fila de products tal como la escanea pgxscan.
type productRow struct {
	ID            string          `db:"id"`
	Name          string          `db:"name"`
	Description   string          `db:"description"`
	Category      string          `db:"category"`
	Price         decimal.Decimal `db:"price"`
	StockQuantity decimal.Decimal `db:"stock_quantity"`
	AverageCost   decimal.Decimal `db:"average_cost"`
	CreatedAt     time.Time       `db:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at"`
}

func (r productRow) toEntity() *entity.Product {
	return &entity.Product{
		ID:            r.ID,
		Name:          r.Name,
		Description:   r.Description,
		Category:      r.Category,
		Price:         r.Price,
		StockQuantity: r.StockQuantity,
		AverageCost:   r.AverageCost,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

// ProductRepo implementación del puerto ProductRepository sobre PostgreSQL (usable con pool o tx).
type ProductRepo struct {
	q Querier
}

// NewProductRepository construye el adaptador de persistencia para productos. Pasar pool o tx (Querier).
func NewProductRepository(q Querier) *ProductRepo {
	return &ProductRepo{q: q}
}

// Create persiste un nuevo producto.
func (r *ProductRepo) Create(ctx context.Context, p *entity.Product) error {
	sql, args, err := psql.Insert(productsTable).Columns(productColumns...).Values(
		p.ID, p.Name, p.Description, p.Category, p.Price,
		p.StockQuantity, inventory.RoundCost(p.AverageCost), p.CreatedAt, p.UpdatedAt,
	).ToSql()
	if err != nil {
		return err
	}
	if _, err := r.q.Exec(ctx, sql, args...); err != nil {
		return classifyError("insert product", err)
	}
	return nil
}

// GetByID obtiene un producto por ID; (nil, nil) si no existe.
func (r *ProductRepo) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	return r.getOne(ctx, psql.Select(productColumns...).From(productsTable).Where(squirrel.Eq{"id": id}), "get product")
}

// GetByIDForUpdate igual que GetByID pero bloquea la fila hasta el fin de la transacción.
func (r *ProductRepo) GetByIDForUpdate(ctx context.Context, id string) (*entity.Product, error) {
	return r.getOne(ctx, psql.Select(productColumns...).From(productsTable).Where(squirrel.Eq{"id": id}).Suffix("FOR UPDATE"), "lock product")
}

func (r *ProductRepo) getOne(ctx context.Context, b squirrel.SelectBuilder, op string) (*entity.Product, error) {
	sql, args, err := b.ToSql()
	if err != nil {
		return nil, err
	}
	var row productRow
	if err := pgxscan.Get(ctx, r.q, &row, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, nil
		}
		return nil, classifyError(op, err)
	}
	return row.toEntity(), nil
}

// FindByNameWithStockAbove lotes del nombre (sin distinguir mayúsculas) con stock > threshold.
// El ORDER BY coincide con el orden de consumo, así los bloqueos se toman siempre en la misma secuencia.
func (r *ProductRepo) FindByNameWithStockAbove(ctx context.Context, name string, threshold decimal.Decimal) ([]*entity.Product, error) {
	sql, args, err := findLotsQuery(name, threshold).ToSql()
	if err != nil {
		return nil, err
	}
	var rows []productRow
	if err := pgxscan.Select(ctx, r.q, &rows, sql, args...); err != nil {
		return nil, classifyError("lock lots", err)
	}
	lots := make([]*entity.Product, 0, len(rows))
	for _, row := range rows {
		lots = append(lots, row.toEntity())
	}
	inventory.SortLots(lots)
	return lots, nil
}

func findLotsQuery(name string, threshold decimal.Decimal) squirrel.SelectBuilder {
	return psql.Select(productColumns...).
		From(productsTable).
		Where("lower(name) = lower(?)", name).
		Where(squirrel.Gt{"stock_quantity": threshold}).
		OrderBy("stock_quantity DESC", "created_at ASC", "id ASC").
		Suffix("FOR UPDATE")
}

// Save persiste stock y costo promedio; el costo se redondea a 2 decimales.
func (r *ProductRepo) Save(ctx context.Context, p *entity.Product) error {
	sql, args, err := psql.Update(productsTable).
		Set("stock_quantity", p.StockQuantity).
		Set("average_cost", inventory.RoundCost(p.AverageCost)).
		Set("updated_at", p.UpdatedAt).
		Where(squirrel.Eq{"id": p.ID}).
		ToSql()
	if err != nil {
		return err
	}
	tag, err := r.q.Exec(ctx, sql, args...)
	if err != nil {
		return classifyError("save product balance", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Update persiste solo los datos de catálogo.
func (r *ProductRepo) Update(ctx context.Context, p *entity.Product) error {
	sql, args, err := psql.Update(productsTable).
		Set("name", p.Name).
		Set("description", p.Description).
		Set("category", p.Category).
		Set("price", p.Price).
		Set("updated_at", p.UpdatedAt).
		Where(squirrel.Eq{"id": p.ID}).
		ToSql()
	if err != nil {
		return err
	}
	tag, err := r.q.Exec(ctx, sql, args...)
	if err != nil {
		return classifyError("update product", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete elimina el producto; la FK de stock_movements lo impide si tiene historial.
func (r *ProductRepo) Delete(ctx context.Context, id string) error {
	sql, args, err := psql.Delete(productsTable).Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return err
	}
	tag, err := r.q.Exec(ctx, sql, args...)
	if err != nil {
		return classifyError("delete product", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List productos filtrados y paginados, con el total sin paginar.
func (r *ProductRepo) List(ctx context.Context, f repository.ProductFilter, limit, offset int) ([]*entity.Product, int, error) {
	where := productFilterWhere(f)

	countSQL, countArgs, err := psql.Select("count(*)").From(productsTable).Where(where).ToSql()
	if err != nil {
		return nil, 0, err
	}
	var total int
	if err := r.q.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, classifyError("count products", err)
	}

	q := psql.Select(productColumns...).From(productsTable).Where(where).OrderBy("created_at ASC", "id ASC")
	if limit > 0 {
		q = q.Limit(uint64(limit))
	}
	if offset > 0 {
		q = q.Offset(uint64(offset))
	}
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, 0, err
	}
	var rows []productRow
	if err := pgxscan.Select(ctx, r.q, &rows, sql, args...); err != nil {
		return nil, 0, classifyError("list products", err)
	}
	out := make([]*entity.Product, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toEntity())
	}
	return out, total, nil
}

func productFilterWhere(f repository.ProductFilter) squirrel.And {
	where := squirrel.And{}
	if f.NameContains != "" {
		where = append(where, squirrel.ILike{"name": "%" + escapeLike(f.NameContains) + "%"})
	}
	if f.Category != "" {
		where = append(where, squirrel.Expr("lower(category) = lower(?)", f.Category))
	}
	if f.MinPrice != nil {
		where = append(where, squirrel.GtOrEq{"price": *f.MinPrice})
	}
	if f.MaxPrice != nil {
		where = append(where, squirrel.LtOrEq{"price": *f.MaxPrice})
	}
	if f.StockBelow != nil {
		where = append(where, squirrel.Lt{"stock_quantity": *f.StockBelow})
	}
	if f.StockAbove != nil {
		where = append(where, squirrel.Gt{"stock_quantity": *f.StockAbove})
	}
	return where
}

func escapeLike(s string) string {
	out := make([]rune, 0, len(s))
	for _, c := range s {
		if c == '%' || c == '_' || c == '\\' {
			out = append(out, '\\')
		}
		out = append(out, c)
	}
	return string(out)
}
