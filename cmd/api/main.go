package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/jhoicas/stock-api/internal/application/inventory"
	"github.com/jhoicas/stock-api/internal/application/usecase"
	domaininv "github.com/jhoicas/stock-api/internal/domain/inventory"
	"github.com/jhoicas/stock-api/internal/domain/repository"
	"github.com/jhoicas/stock-api/internal/infrastructure/memory"
	"github.com/jhoicas/stock-api/internal/infrastructure/postgres"
	infraredis "github.com/jhoicas/stock-api/internal/infrastructure/redis"
	httpRouter "github.com/jhoicas/stock-api/internal/interfaces/http"
	"github.com/jhoicas/stock-api/pkg/config"
	"github.com/jhoicas/stock-api/pkg/logger"
)

// storage repositorios de lectura y runner transaccional del backend elegido.
type storage struct {
	products  repository.ProductRepository
	movements repository.StockMovementRepository
	suppliers repository.SupplierRepository
	txRunner  inventory.TxRunner
	close     func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   cfg.App.LogLevel,
		Service: cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("storage", cfg.App.Storage).
		Msg("iniciando aplicación")

	ctx := context.Background()
	store := openStorage(ctx, cfg, log)
	defer store.close()

	method, err := domaininv.ParseValuationMethod(cfg.Inventory.ValuationMethod)
	if err != nil {
		log.Fatal().Err(err).Msg("método de valoración")
	}
	policy, err := domaininv.PolicyFor(method)
	if err != nil {
		log.Fatal().Err(err).Msg("política de valoración")
	}
	direction, err := inventory.ParseDeliveryDirection(cfg.Inventory.DeliveryDirection)
	if err != nil {
		log.Fatal().Err(err).Msg("dirección de entrega")
	}

	var engineOpts []inventory.Option
	if cfg.Redis.Enabled() {
		client, err := infraredis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a Redis")
		}
		defer client.Close()
		locker := infraredis.NewNameLocker(client, cfg.Redis.LockTTL, cfg.Inventory.LockTimeout, log)
		engineOpts = append(engineOpts, inventory.WithNameLocker(locker))
		log.Info().Str("addr", cfg.Redis.Addr).Msg("bloqueo por nombre en Redis activo")
	}

	engine := inventory.NewStockEngine(store.txRunner, policy, log, engineOpts...)
	productUC := usecase.NewProductUseCase(store.products, store.txRunner, engine)
	supplierUC := usecase.NewSupplierUseCase(store.suppliers)
	deliveryUC := inventory.NewOrderDeliveryUseCase(engine, store.txRunner, direction, log,
		inventory.WithSupplierDirectory(supplierUC))
	movementsUC := inventory.NewMovementQueryUseCase(store.movements, store.products)
	replenishmentUC := inventory.NewReplenishmentUseCase(store.products, store.movements)

	log.Info().
		Str("valuation", engine.ValuationMethod().String()).
		Str("delivery_direction", string(deliveryUC.Direction())).
		Msg("motor de inventario listo")

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		ProductUC:     productUC,
		SupplierUC:    supplierUC,
		Engine:        engine,
		Delivery:      deliveryUC,
		Movements:     movementsUC,
		Replenishment: replenishmentUC,
		Log:           log,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}

func openStorage(ctx context.Context, cfg *config.Config, log *logger.Logger) storage {
	if cfg.App.Storage == "memory" {
		s := memory.NewStore(memory.WithLockTimeout(cfg.Inventory.LockTimeout))
		return storage{
			products:  s.Products(),
			movements: s.Movements(),
			suppliers: s.Suppliers(),
			txRunner:  s.TxRunner(),
			close:     func() {},
		}
	}

	if cfg.DB.Migrate {
		version, err := postgres.Migrate(cfg.DB.ConnectionString())
		if err != nil {
			log.Fatal().Err(err).Msg("migraciones")
		}
		log.Info().Uint("version", version).Msg("esquema actualizado")
	}
	pool, err := postgres.NewPool(ctx, cfg.DB, cfg.App.Name)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	return storage{
		products:  postgres.NewProductRepository(pool),
		movements: postgres.NewStockMovementRepository(pool),
		suppliers: postgres.NewSupplierRepository(pool),
		txRunner:  postgres.NewTxRunner(pool, cfg.Inventory.TxTimeout, cfg.Inventory.LockTimeout),
		close:     pool.Close,
	}
}
