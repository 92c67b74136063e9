package postgres

import (
	"context"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-api/internal/domain/entity"
	"github.com/jhoicas/stock-api/internal/domain/inventory"
	"github.com/jhoicas/stock-api/internal/domain/repository"
)

var _ repository.StockMovementRepository = (*StockMovementRepo)(nil)

const movementsTable = "stock_movements"

var movementColumns = []string{
	"id", "movement_date", "type", "quantity", "unit_cost",
	"product_id", "order_id", "note", "created_at",
}

type movementRow struct {
	ID        string          `db:"id"`
	Date      time.Time       `db:"movement_date"`
	Type      string          `db:"type"`
	Quantity  decimal.Decimal `db:"quantity"`
	UnitCost  decimal.Decimal `db:"unit_cost"`
	ProductID string          `db:"product_id"`
	OrderID   *string         `db:"order_id"`
	Note      *string         `db:"note"`
	CreatedAt time.Time       `db:"created_at"`
}

func (r movementRow) toEntity() *entity.StockMovement {
	m := &entity.StockMovement{
		ID:        r.ID,
		Date:      r.Date,
		Type:      entity.MovementType(r.Type),
		Quantity:  r.Quantity,
		UnitCost:  r.UnitCost,
		ProductID: r.ProductID,
		CreatedAt: r.CreatedAt,
	}
	if r.OrderID != nil {
		m.OrderID = *r.OrderID
	}
	if r.Note != nil {
		m.Note = *r.Note
	}
	return m
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// StockMovementRepo libro de movimientos sobre PostgreSQL: solo INSERT y lecturas.
type StockMovementRepo struct {
	q Querier
}

// NewStockMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockMovementRepository(q Querier) *StockMovementRepo {
	return &StockMovementRepo{q: q}
}

// Append registra un movimiento; la FK a products lo rechaza si el producto no existe.
func (r *StockMovementRepo) Append(ctx context.Context, m *entity.StockMovement) error {
	sql, args, err := psql.Insert(movementsTable).Columns(movementColumns...).Values(
		m.ID, m.Date, string(m.Type), m.Quantity, inventory.RoundCost(m.UnitCost),
		m.ProductID, nullable(m.OrderID), nullable(m.Note), m.CreatedAt,
	).ToSql()
	if err != nil {
		return err
	}
	if _, err := r.q.Exec(ctx, sql, args...); err != nil {
		return classifyError("append movement", err)
	}
	return nil
}

// GetByID obtiene un movimiento; (nil, nil) si no existe.
func (r *StockMovementRepo) GetByID(ctx context.Context, id string) (*entity.StockMovement, error) {
	sql, args, err := psql.Select(movementColumns...).From(movementsTable).Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, err
	}
	var row movementRow
	if err := pgxscan.Get(ctx, r.q, &row, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, nil
		}
		return nil, classifyError("get movement", err)
	}
	return row.toEntity(), nil
}

// List movimientos filtrados, más recientes primero.
func (r *StockMovementRepo) List(ctx context.Context, f repository.MovementFilter, limit, offset int) ([]*entity.StockMovement, int, error) {
	where := movementFilterWhere(f)

	countSQL, countArgs, err := psql.Select("count(*)").From(movementsTable).Where(where).ToSql()
	if err != nil {
		return nil, 0, err
	}
	var total int
	if err := r.q.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, classifyError("count movements", err)
	}

	q := psql.Select(movementColumns...).From(movementsTable).Where(where).OrderBy("movement_date DESC", "created_at DESC", "id DESC")
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
	var rows []movementRow
	if err := pgxscan.Select(ctx, r.q, &rows, sql, args...); err != nil {
		return nil, 0, classifyError("list movements", err)
	}
	out := make([]*entity.StockMovement, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toEntity())
	}
	return out, total, nil
}

func movementFilterWhere(f repository.MovementFilter) squirrel.And {
	where := squirrel.And{}
	if f.ProductID != "" {
		where = append(where, squirrel.Eq{"product_id": f.ProductID})
	}
	if f.OrderID != "" {
		where = append(where, squirrel.Eq{"order_id": f.OrderID})
	}
	if f.Type != "" {
		where = append(where, squirrel.Eq{"type": string(f.Type)})
	}
	if f.From != nil {
		where = append(where, squirrel.GtOrEq{"movement_date": *f.From})
	}
	if f.To != nil {
		where = append(where, squirrel.LtOrEq{"movement_date": *f.To})
	}
	return where
}

// ExistsForOrder indica si la orden ya tiene movimientos.
func (r *StockMovementRepo) ExistsForOrder(ctx context.Context, orderID string) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS(SELECT 1 FROM stock_movements WHERE order_id = $1)`, orderID, "exists movement for order")
}

// ExistsForProduct indica si el producto tiene historial.
func (r *StockMovementRepo) ExistsForProduct(ctx context.Context, productID string) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS(SELECT 1 FROM stock_movements WHERE product_id = $1)`, productID, "exists movement for product")
}

func (r *StockMovementRepo) exists(ctx context.Context, query, arg, op string) (bool, error) {
	var ok bool
	if err := r.q.QueryRow(ctx, query, arg).Scan(&ok); err != nil {
		return false, classifyError(op, err)
	}
	return ok, nil
}

// SumByProduct totales de entradas y salidas registradas para el producto.
func (r *StockMovementRepo) SumByProduct(ctx context.Context, productID string) (inbound, outbound decimal.Decimal, err error) {
	sql, args, err := psql.Select(
		"COALESCE(SUM(quantity) FILTER (WHERE type = 'INBOUND'), 0)",
		"COALESCE(SUM(quantity) FILTER (WHERE type = 'OUTBOUND'), 0)",
	).From(movementsTable).Where(squirrel.Eq{"product_id": productID}).ToSql()
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	if err := r.q.QueryRow(ctx, sql, args...).Scan(&inbound, &outbound); err != nil {
		return decimal.Zero, decimal.Zero, classifyError("sum movements", err)
	}
	return inbound, outbound, nil
}

type outboundRow struct {
	ProductID string          `db:"product_id"`
	Units     decimal.Decimal `db:"units"`
}

// OutboundSince unidades despachadas por producto desde since.
func (r *StockMovementRepo) OutboundSince(ctx context.Context, productIDs []string, since time.Time) (map[string]decimal.Decimal, error) {
	out := make(map[string]decimal.Decimal, len(productIDs))
	if len(productIDs) == 0 {
		return out, nil
	}
	sql, args, err := psql.Select("product_id", "SUM(quantity) AS units").
		From(movementsTable).
		Where(squirrel.Eq{"product_id": productIDs, "type": string(entity.MovementTypeOutbound)}).
		Where(squirrel.GtOrEq{"movement_date": since}).
		GroupBy("product_id").
		ToSql()
	if err != nil {
		return nil, err
	}
	var rows []outboundRow
	if err := pgxscan.Select(ctx, r.q, &rows, sql, args...); err != nil {
		return nil, classifyError("outbound since", err)
	}
	for _, row := range rows {
		out[row.ProductID] = row.Units
	}
	return out, nil
}
