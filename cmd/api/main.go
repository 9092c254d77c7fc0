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
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"github.com/jhoicas/Gestion-api/internal/application/inventory"
	"github.com/jhoicas/Gestion-api/internal/infrastructure/cache"
	"github.com/jhoicas/Gestion-api/internal/infrastructure/notify"
	infrapdf "github.com/jhoicas/Gestion-api/internal/infrastructure/pdf"
	"github.com/jhoicas/Gestion-api/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/Gestion-api/internal/interfaces/http"
	"github.com/jhoicas/Gestion-api/pkg/config"
	"github.com/jhoicas/Gestion-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("tax_rate", cfg.Ledger.TaxRate.String()).
		Msg("iniciando aplicación")

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	pool, err := postgres.NewPool(ctx, cfg.DB, cfg.App.Name)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	if cfg.DB.AutoMigrate {
		if err := postgres.Migrate(ctx, pool); err != nil {
			log.Fatal().Err(err).Msg("migración")
		}
	}

	productRepo := postgres.NewProductRepository(pool)
	movementRepo := postgres.NewMovementRepository(pool)
	counterpartyRepo := postgres.NewCounterpartyRepository(pool)
	stateRepo := postgres.NewProcessStateRepository(pool)
	serviceRepo := postgres.NewServiceItemRepository(pool)

	txOpts := postgres.DefaultTxOptions()
	txOpts.StatementTimeout = cfg.DB.StatementTimeout
	txOpts.MaxAttempts = cfg.DB.TxMaxAttempts
	txRunner := postgres.NewTxRunner(pool, txOpts)

	// Alertas: limitador en Redis si está configurado, si no en memoria (una sola instancia)
	var throttle inventory.AlertThrottle = inventory.NewMemoryThrottle(cfg.Alerts.Cooldown)
	if cfg.Redis.Enabled() {
		client, err := cache.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Warn().Err(err).Msg("redis no disponible; limitador de alertas en memoria")
		} else {
			defer client.Close()
			throttle = cache.NewRedisThrottle(client, cfg.Alerts.Cooldown, cfg.Redis.Prefix)
		}
	}

	hub := notify.NewHub(log.Component("ws-alerts"))
	go hub.Run(ctx)

	channels := []inventory.NotificationChannel{
		notify.NewLogChannel(log.Zerolog()),
		notify.NewWSChannel(hub),
	}
	if cfg.SMTP.Enabled() {
		channels = append(channels, notify.NewEmailChannel(notify.SMTPConfig{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			User:     cfg.SMTP.User,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
		}))
	}
	notifier := inventory.NewAlertNotifier(inventory.AlertConfig{
		Recipients: cfg.Alerts.Recipients,
		Timeout:    cfg.Alerts.Timeout,
	}, throttle, log.Component("alerts"), channels...)

	deps := inventory.MovementDeps{
		TxRunner:       txRunner,
		Products:       productRepo,
		Movements:      movementRepo,
		Counterparties: counterpartyRepo,
		States:         stateRepo,
		Services:       serviceRepo,
		Notifier:       notifier,
		TaxRate:        cfg.Ledger.TaxRate,
	}
	purchaseUC := inventory.NewMovementUseCase(inventory.PurchasePolicy, deps)
	saleUC := inventory.NewMovementUseCase(inventory.SalePolicy, deps)
	supplyUC := inventory.NewMovementUseCase(inventory.SupplyPolicy, deps)
	stockUC := inventory.NewProductStockUseCase(productRepo)
	receiptUC := inventory.NewReceiptUseCase(
		movementRepo, productRepo, counterpartyRepo, stateRepo, serviceRepo,
		infrapdf.NewReceiptGenerator(cfg.App.Name),
	)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: cfg.HTTP.RequestTimeout + 5*time.Second,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())
	app.Use(requestid.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Gestión API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		if err := pool.Ping(c.UserContext()); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "degraded", "db": err.Error()})
		}
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name, "ws_clients": hub.ClientCount()})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		Purchases:      purchaseUC,
		Sales:          saleUC,
		Supplies:       supplyUC,
		Receipts:       receiptUC,
		Stock:          stockUC,
		AlertsHub:      hub,
		JWTSecret:      cfg.JWT.Secret,
		RequestTimeout: cfg.HTTP.RequestTimeout,
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

	// Alertas en vuelo antes de cerrar el hub y el pool
	notifier.Wait()
	stop()

	log.Info().Msg("aplicación detenida")
}
