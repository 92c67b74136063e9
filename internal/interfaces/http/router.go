package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-api/internal/application/inventory"
	"github.com/jhoicas/stock-api/internal/application/usecase"
	"github.com/jhoicas/stock-api/pkg/logger"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	ProductUC     *usecase.ProductUseCase
	SupplierUC    *usecase.SupplierUseCase
	Engine        *inventory.StockEngine
	Delivery      *inventory.OrderDeliveryUseCase
	Movements     *inventory.MovementQueryUseCase
	Replenishment *inventory.ReplenishmentUseCase
	Log           *logger.Logger
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Products
	products := api.Group("/products")
	productHandler := NewProductHandler(deps.ProductUC, deps.Log)
	products.Post("/", productHandler.Create)
	products.Get("/", productHandler.List)
	products.Get("/search", productHandler.Search)
	products.Get("/:id", productHandler.GetByID)
	products.Put("/:id", productHandler.Update)
	products.Delete("/:id", productHandler.Delete)
	products.Post("/:id/receipts", productHandler.Restock)

	// Suppliers
	suppliers := api.Group("/suppliers")
	supplierHandler := NewSupplierHandler(deps.SupplierUC, deps.Log)
	suppliers.Post("/", supplierHandler.Create)
	suppliers.Get("/", supplierHandler.List)
	suppliers.Get("/:id", supplierHandler.GetByID)
	suppliers.Put("/:id", supplierHandler.Update)

	// Inventory: salidas, entregas y libro
	invGroup := api.Group("/inventory")
	inventoryHandler := NewInventoryHandler(deps.Engine, deps.Delivery, deps.Movements, deps.Replenishment, deps.Log)
	invGroup.Post("/allocations", inventoryHandler.Allocate)
	invGroup.Post("/deliveries", inventoryHandler.Deliver)
	invGroup.Get("/movements", inventoryHandler.ListMovements)
	invGroup.Get("/products/:id/reconciliation", inventoryHandler.Reconcile)
	invGroup.Get("/replenishment", inventoryHandler.GetReplenishmentList)
}
