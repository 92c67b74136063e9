package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-api/internal/application/dto"
	"github.com/jhoicas/stock-api/internal/application/inventory"
	"github.com/jhoicas/stock-api/internal/domain"
	"github.com/jhoicas/stock-api/internal/domain/entity"
	domaininv "github.com/jhoicas/stock-api/internal/domain/inventory"
	"github.com/jhoicas/stock-api/internal/domain/repository"
)

// ProductUseCase casos de uso CRUD para productos. Costo y stock se manejan vía movimientos.
type ProductUseCase struct {
	repo     repository.ProductRepository
	txRunner inventory.TxRunner
	engine   *inventory.StockEngine
	now      func() time.Time
}

// NewProductUseCase construye el caso de uso.
func NewProductUseCase(
	repo repository.ProductRepository,
	txRunner inventory.TxRunner,
	engine *inventory.StockEngine,
) *ProductUseCase {
	return &ProductUseCase{repo: repo, txRunner: txRunner, engine: engine, now: time.Now}
}

// Create crea un producto con stock y costo en cero. Si InitialStock > 0 la existencia
// entra por la ruta de recepción en la misma transacción, a costo = precio.
func (uc *ProductUseCase) Create(ctx context.Context, in dto.CreateProductRequest) (*dto.ProductResponse, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return nil, fmt.Errorf("%w: nombre requerido", domain.ErrInvalidInput)
	}
	if in.Price.IsNegative() || in.InitialStock.IsNegative() {
		return nil, fmt.Errorf("%w: precio y stock inicial no pueden ser negativos", domain.ErrInvalidInput)
	}
	if in.InitialStock.IsPositive() && !domaininv.ValidQuantity(in.InitialStock) {
		return nil, fmt.Errorf("%w: stock inicial admite hasta %d decimales", domain.ErrInvalidInput, domaininv.QuantityScale)
	}
	now := uc.now()
	product := &entity.Product{
		ID:            uuid.New().String(),
		Name:          in.Name,
		Description:   in.Description,
		Category:      in.Category,
		Price:         in.Price,
		StockQuantity: decimal.Zero,
		AverageCost:   decimal.Zero,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	err := uc.txRunner.Run(ctx, func(
		ctx context.Context,
		movRepo repository.StockMovementRepository,
		productRepo repository.ProductRepository,
	) error {
		if err := productRepo.Create(ctx, product); err != nil {
			return err
		}
		if !in.InitialStock.GreaterThan(decimal.Zero) {
			return nil
		}
		_, err := uc.engine.ReceiveInTx(ctx, movRepo, productRepo, product, inventory.ReceiveInput{
			ProductID: product.ID,
			Quantity:  in.InitialStock,
			UnitCost:  in.Price,
			Note:      "stock inicial",
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return toProductResponse(product), nil
}

// GetByID obtiene un producto por ID; ErrNotFound si no existe.
func (uc *ProductUseCase) GetByID(ctx context.Context, id string) (*dto.ProductResponse, error) {
	product, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.ErrNotFound
	}
	return toProductResponse(product), nil
}

// Update actualiza datos de catálogo. No permite modificar costo ni stock.
func (uc *ProductUseCase) Update(ctx context.Context, id string, in dto.UpdateProductRequest) (*dto.ProductResponse, error) {
	product, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.ErrNotFound
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: nombre requerido", domain.ErrInvalidInput)
		}
		product.Name = name
	}
	if in.Description != nil {
		product.Description = *in.Description
	}
	if in.Category != nil {
		product.Category = *in.Category
	}
	if in.Price != nil {
		if in.Price.IsNegative() {
			return nil, fmt.Errorf("%w: precio negativo", domain.ErrInvalidInput)
		}
		product.Price = *in.Price
	}
	product.UpdatedAt = uc.now()
	if err := uc.repo.Update(ctx, product); err != nil {
		return nil, err
	}
	return toProductResponse(product), nil
}

// List lista productos con paginación.
func (uc *ProductUseCase) List(ctx context.Context, page dto.PageRequest) (*dto.ProductListResponse, error) {
	return uc.search(ctx, repository.ProductFilter{}, page)
}

// Search filtra por nombre (contiene, sin mayúsculas), categoría, rango de precio y stock.
func (uc *ProductUseCase) Search(ctx context.Context, in dto.ProductSearchRequest) (*dto.ProductListResponse, error) {
	if in.MinPrice != nil && in.MaxPrice != nil && in.MaxPrice.LessThan(*in.MinPrice) {
		return nil, fmt.Errorf("%w: rango de precio", domain.ErrInvalidInput)
	}
	filter := repository.ProductFilter{
		NameContains: strings.TrimSpace(in.Name),
		Category:     strings.TrimSpace(in.Category),
		MinPrice:     in.MinPrice,
		MaxPrice:     in.MaxPrice,
		StockBelow:   in.StockBelow,
		StockAbove:   in.StockAbove,
	}
	return uc.search(ctx, filter, in.PageRequest)
}

func (uc *ProductUseCase) search(ctx context.Context, filter repository.ProductFilter, page dto.PageRequest) (*dto.ProductListResponse, error) {
	page.DefaultPage()
	list, total, err := uc.repo.List(ctx, filter, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	items := make([]dto.ProductResponse, 0, len(list))
	for _, p := range list {
		items = append(items, *toProductResponse(p))
	}
	return &dto.ProductListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset, Total: total},
	}, nil
}

// Restock entrada explícita de stock; cantidad <= 0 se rechaza.
func (uc *ProductUseCase) Restock(ctx context.Context, id string, in dto.ReceiptRequest) (*dto.ProductResponse, error) {
	if err := uc.engine.Receive(ctx, inventory.ReceiveInput{
		ProductID: id,
		Quantity:  in.Quantity,
		UnitCost:  in.UnitCost,
		OrderID:   in.OrderID,
		Note:      in.Note,
	}); err != nil {
		return nil, err
	}
	return uc.GetByID(ctx, id)
}

// Delete elimina un producto sin historial; con movimientos devuelve ErrProductHasMovements.
// Bloquea la fila antes de consultar el libro: una entrada concurrente espera o ve el borrado.
func (uc *ProductUseCase) Delete(ctx context.Context, id string) error {
	return uc.txRunner.Run(ctx, func(
		ctx context.Context,
		movRepo repository.StockMovementRepository,
		productRepo repository.ProductRepository,
	) error {
		product, err := productRepo.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if product == nil {
			return domain.ErrNotFound
		}
		has, err := movRepo.ExistsForProduct(ctx, id)
		if err != nil {
			return err
		}
		if has {
			return domain.ErrProductHasMovements
		}
		if err := productRepo.Delete(ctx, id); err != nil {
			if errors.Is(err, domain.ErrIntegrity) {
				return domain.ErrProductHasMovements
			}
			return err
		}
		return nil
	})
}

func toProductResponse(p *entity.Product) *dto.ProductResponse {
	if p == nil {
		return nil
	}
	return &dto.ProductResponse{
		ID:            p.ID,
		Name:          p.Name,
		Description:   p.Description,
		Category:      p.Category,
		Price:         p.Price,
		StockQuantity: p.StockQuantity,
		AverageCost:   p.AverageCost,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}
