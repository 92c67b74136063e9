package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-api/internal/domain"
	"github.com/jhoicas/stock-api/internal/domain/entity"
	"github.com/jhoicas/stock-api/internal/domain/repository"
	"github.com/jhoicas/stock-api/internal/infrastructure/memory"
)

func newProduct(id, name, stock string) *entity.Product {
	return &entity.Product{
		ID:            id,
		Name:          name,
		StockQuantity: decimal.RequireFromString(stock),
		AverageCost:   decimal.NewFromInt(1),
		CreatedAt:     time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestTxRunner_RollbackDescartaCambios(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore()
	require.NoError(t, s.Products().Create(ctx, newProduct("p1", "Tornillo", "5")))

	boom := errors.New("boom")
	err := s.TxRunner().Run(ctx, func(ctx context.Context, movRepo repository.StockMovementRepository, productRepo repository.ProductRepository) error {
		p, err := productRepo.GetByIDForUpdate(ctx, "p1")
		require.NoError(t, err)
		p.StockQuantity = decimal.Zero
		require.NoError(t, productRepo.Save(ctx, p))
		require.NoError(t, movRepo.Append(ctx, &entity.StockMovement{
			ID: "m1", Type: entity.MovementTypeOutbound, Quantity: decimal.NewFromInt(5), ProductID: "p1",
		}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	p, err := s.Products().GetByID(ctx, "p1")
	require.NoError(t, err)
	assert.True(t, p.StockQuantity.Equal(decimal.NewFromInt(5)))
	exists, err := s.Movements().ExistsForProduct(ctx, "p1")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestTxRunner_CommitAplicaCambios(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore()
	require.NoError(t, s.Products().Create(ctx, newProduct("p1", "Tornillo", "5")))

	err := s.TxRunner().Run(ctx, func(ctx context.Context, movRepo repository.StockMovementRepository, productRepo repository.ProductRepository) error {
		p, _ := productRepo.GetByIDForUpdate(ctx, "p1")
		p.StockQuantity = decimal.NewFromInt(2)
		if err := productRepo.Save(ctx, p); err != nil {
			return err
		}
		return movRepo.Append(ctx, &entity.StockMovement{
			ID: "m1", Type: entity.MovementTypeOutbound, Quantity: decimal.NewFromInt(3), ProductID: "p1",
		})
	})
	require.NoError(t, err)

	p, _ := s.Products().GetByID(ctx, "p1")
	assert.True(t, p.StockQuantity.Equal(decimal.NewFromInt(2)))
	in, out, err := s.Movements().SumByProduct(ctx, "p1")
	require.NoError(t, err)
	assert.True(t, in.IsZero())
	assert.True(t, out.Equal(decimal.NewFromInt(3)))
}

func TestTxRunner_EsperaAgotadaEsTransitoria(t *testing.T) {
	s := memory.NewStore(memory.WithLockTimeout(20 * time.Millisecond))
	hold := make(chan struct{})
	started := make(chan struct{})

	go func() {
		_ = s.TxRunner().Run(context.Background(), func(context.Context, repository.StockMovementRepository, repository.ProductRepository) error {
			close(started)
			<-hold
			return nil
		})
	}()
	<-started
	defer close(hold)

	err := s.TxRunner().Run(context.Background(), func(context.Context, repository.StockMovementRepository, repository.ProductRepository) error {
		t.Fatal("no debería ejecutarse")
		return nil
	})
	require.Error(t, err)
	assert.True(t, domain.IsRetryable(err))
}

func TestMovementRepo_IntegridadReferencial(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore()

	err := s.Movements().Append(ctx, &entity.StockMovement{
		ID: "m1", Type: entity.MovementTypeInbound, Quantity: decimal.NewFromInt(1), ProductID: "nope",
	})
	assert.ErrorIs(t, err, domain.ErrIntegrity)

	require.NoError(t, s.Products().Create(ctx, newProduct("p1", "Tornillo", "0")))
	require.NoError(t, s.Movements().Append(ctx, &entity.StockMovement{
		ID: "m2", Type: entity.MovementTypeInbound, Quantity: decimal.NewFromInt(1), ProductID: "p1",
	}))
	assert.ErrorIs(t, s.Products().Delete(ctx, "p1"), domain.ErrIntegrity)

	err = s.Movements().Append(ctx, &entity.StockMovement{
		ID: "m3", Type: entity.MovementTypeInbound, Quantity: decimal.Zero, ProductID: "p1",
	})
	assert.ErrorIs(t, err, domain.ErrIntegrity)
}

func TestProductRepo_FindByNameOrdenaYFiltra(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore()
	require.NoError(t, s.Products().Create(ctx, newProduct("a", "Tornillo", "3")))
	require.NoError(t, s.Products().Create(ctx, newProduct("b", "TORNILLO", "8")))
	require.NoError(t, s.Products().Create(ctx, newProduct("c", "tornillo", "0")))
	require.NoError(t, s.Products().Create(ctx, newProduct("d", "Tuerca", "50")))

	lots, err := s.Products().FindByNameWithStockAbove(ctx, "tornillo", decimal.Zero)
	require.NoError(t, err)
	require.Len(t, lots, 2)
	assert.Equal(t, "b", lots[0].ID)
	assert.Equal(t, "a", lots[1].ID)

	// las copias devueltas no alteran el store
	lots[0].StockQuantity = decimal.Zero
	again, _ := s.Products().GetByID(ctx, "b")
	assert.True(t, again.StockQuantity.Equal(decimal.NewFromInt(8)))
}

func TestProductRepo_ListFiltros(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore()
	require.NoError(t, s.Products().Create(ctx, newProduct("a", "Tornillo grande", "3")))
	require.NoError(t, s.Products().Create(ctx, newProduct("b", "Tuerca", "20")))

	below := decimal.NewFromInt(10)
	items, total, err := s.Products().List(ctx, repository.ProductFilter{StockBelow: &below}, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, "a", items[0].ID)

	items, total, err = s.Products().List(ctx, repository.ProductFilter{NameContains: "TUER"}, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, "b", items[0].ID)
}

func TestSupplierRepo_SobreviveALasTransacciones(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore()
	require.NoError(t, s.Suppliers().Create(ctx, &entity.Supplier{ID: "s1", Company: "Norte", TaxID: "ICE0000000001"}))

	require.NoError(t, s.TxRunner().Run(ctx, func(context.Context, repository.StockMovementRepository, repository.ProductRepository) error {
		return nil
	}))

	got, err := s.Suppliers().GetByID(ctx, "s1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Norte", got.Company)

	err = s.Suppliers().Create(ctx, &entity.Supplier{ID: "s2", Company: "Sur", TaxID: "ice0000000001"})
	assert.ErrorIs(t, err, domain.ErrDuplicate)

	byTax, err := s.Suppliers().GetByTaxID(ctx, "ICE0000000001")
	require.NoError(t, err)
	assert.Equal(t, "s1", byTax.ID)

	missing, err := s.Suppliers().GetByID(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}
