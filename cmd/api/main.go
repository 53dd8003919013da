package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/stock-engine/internal/application/inventory"
	"github.com/jhoicas/stock-engine/internal/domain/repository"
	"github.com/jhoicas/stock-engine/internal/infrastructure/cache"
	"github.com/jhoicas/stock-engine/internal/infrastructure/memory"
	"github.com/jhoicas/stock-engine/internal/infrastructure/postgres"
	"github.com/jhoicas/stock-engine/internal/infrastructure/queue"
	httpRouter "github.com/jhoicas/stock-engine/internal/interfaces/http"
	"github.com/jhoicas/stock-engine/pkg/config"
	"github.com/jhoicas/stock-engine/pkg/logger"
	"github.com/jhoicas/stock-engine/pkg/observability"
)

const version = "1.0.0"

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
		Str("store", cfg.Engine.StoreDriver).
		Dur("lock_timeout", cfg.Engine.LockTimeout).
		Msg("iniciando motor de stock")

	ctx := context.Background()
	shutdownTracing, err := observability.SetupTracing(ctx, cfg.Telemetry, version)
	if err != nil {
		log.Fatal().Err(err).Msg("configurar trazas")
	}

	var (
		txRunner  inventory.TxRunner
		repos     repository.TxRepositories
		companies repository.CompanyRepository
		branches  repository.BranchRepository
		products  repository.ProductRepository
		suppliers repository.SupplierRepository
	)
	switch cfg.Engine.StoreDriver {
	case config.StoreDriverMemory:
		// Catálogo vacío: útil solo para pruebas manuales del API.
		store := memory.NewStore(cfg.Engine.LockTimeout)
		txRunner, repos = store, store.Repositories()
		companies, branches, products, suppliers = store.Companies(), store.Branches(), store.Products(), store.Suppliers()
		log.Warn().Msg("store en memoria: los datos se pierden al reiniciar")
	default:
		if cfg.DB.AutoMigrate {
			if err := postgres.Migrate(cfg.DB.ConnectionString(), log.Component("migrate")); err != nil {
				log.Fatal().Err(err).Msg("migraciones")
			}
		}
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a PostgreSQL")
		}
		defer pool.Close()

		txRunner, repos = postgres.NewTxRunner(pool, cfg.Engine.LockTimeout), postgres.Repositories(pool)
		companies = postgres.NewCompanyRepository(pool)
		branches = postgres.NewBranchRepository(pool)
		products = postgres.NewProductRepository(pool)
		suppliers = postgres.NewSupplierRepository(pool)
	}

	// Redis es opcional: sin él no hay caché de lecturas ni alertas asíncronas.
	var (
		stockCache inventory.StockCache
		notifier   inventory.LowStockNotifier
	)
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatal().Err(err).Str("addr", cfg.Redis.Addr).Msg("conexión a Redis")
		}
		stockCache = cache.NewStockCache(rdb, cfg.Redis.StockTTL, log.Component("cache"))

		tasks := asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		defer tasks.Close()
		notifier = queue.NewPublisher(tasks, log.Component("queue"))
	}

	scope := inventory.NewTenantScope(companies, branches, products, suppliers)
	exec := inventory.NewExecutor(txRunner, scope, stockCache, notifier, log.Component("executor"))

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	if cfg.Docs.SwaggerPath != "" {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: cfg.Docs.SwaggerPath,
			Path:     "docs",
			Title:    "Stock Engine API",
		}))
	}

	httpRouter.Router(app, httpRouter.RouterDeps{
		ServiceName: cfg.App.Name,
		Batches:     inventory.NewBatchUseCase(exec, scope, repos.Carts),
		Adjustments: inventory.NewAdjustmentUseCase(exec, scope, txRunner, stockCache, log.Component("adjust")),
		Queries:     inventory.NewQueryUseCase(scope, repos.Stock, repos.Movements, stockCache, log.Component("query")),
		Carts:       inventory.NewCartUseCase(scope, repos.Carts),
		JWTSecret:   cfg.JWT.Secret,
		JWTIssuer:   cfg.JWT.Issuer,
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
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado de trazas")
	}

	log.Info().Msg("aplicación detenida")
}
