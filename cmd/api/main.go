package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/matiassromo/registro-helados/internal/adapter/handler"
	"github.com/matiassromo/registro-helados/internal/adapter/storage"
	"github.com/matiassromo/registro-helados/internal/core/config"
	"github.com/matiassromo/registro-helados/internal/core/domain"
	"github.com/matiassromo/registro-helados/internal/core/notifications"
	"github.com/matiassromo/registro-helados/internal/core/sales"
	"github.com/matiassromo/registro-helados/internal/core/worker"
)

func main() {
	// 1. Logger first so config warnings are structured too
	jsonLogger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(jsonLogger)

	// 2. Load Config
	cfg := config.LoadConfig()

	// 3. Idempotency keys: Postgres when configured, memory otherwise
	var keys storage.KeyStore = storage.NewMemoryKeyStore(storage.DefaultKeyTTL)
	var dbPool *pgxpool.Pool
	if cfg.DatabaseURL != "" {
		pool, err := storage.ConnectDB(context.Background(), cfg.DatabaseURL)
		if err != nil {
			slog.Error("❌ Database connection failed", "error", err)
			os.Exit(1)
		}
		pgKeys, err := storage.NewPostgresKeyStore(context.Background(), pool)
		if err != nil {
			slog.Error("❌ Database migration failed", "error", err)
			pool.Close()
			os.Exit(1)
		}
		dbPool = pool
		keys = pgKeys
	}

	// 4. Sale notifications
	opts := []sales.Option{
		sales.WithLogger(jsonLogger),
		sales.WithDefaultStock(cfg.DefaultStock),
		sales.WithUnitPrice(cfg.UnitPrice),
	}
	var webhooks *worker.WebhookWorker
	if cfg.WebhookURL != "" {
		webhooks = worker.NewWebhookWorker(cfg.WebhookURL, cfg.WebhookSecret)
		webhooks.Start()
		opts = append(opts, sales.WithSaleHook(func(tx domain.Transaction) {
			webhooks.Enqueue(notifications.SaleRecorded(tx))
		}))
	}

	// 5. Register & Handlers
	register := sales.NewRegister(storage.NewSpreadsheetStore(cfg.ExportAppend), opts...)
	salesHandler := &handler.SalesHandler{Register: register}
	exportHandler := &handler.ExportHandler{Register: register, DefaultPath: cfg.ExportPath}

	// 6. Setup Fiber
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New())
	app.Use(limiter.New(limiter.Config{
		Max:        cfg.RateLimit,
		Expiration: time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "Rate limit exceeded"})
		},
	}))

	// 7. Routes
	handler.SetupRoutes(app, salesHandler, exportHandler, keys)
	app.Static("/", cfg.StaticDir)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		slog.Info("🚀 Server starting", "env", cfg.Env, "port", cfg.Port, "flavors", len(register.SortedItemNames()))
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("Server forced to shutdown", "error", err)
		}
	}()

	<-stop
	slog.Info("🛑 Shutting down server...")

	if err := app.Shutdown(); err != nil {
		slog.Error("Server shutdown failed", "error", err)
	}

	if webhooks != nil {
		webhooks.Stop()
	}
	if dbPool != nil {
		dbPool.Close()
		slog.Info("✅ Database connection closed")
	}

	slog.Info("👋 Server exited successfully")
}
