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

	"github.com/jhoicas/retail-pos/internal/application/auth"
	"github.com/jhoicas/retail-pos/internal/application/inventory"
	"github.com/jhoicas/retail-pos/internal/application/sale"
	"github.com/jhoicas/retail-pos/internal/application/usecase"
	infrapdf "github.com/jhoicas/retail-pos/internal/infrastructure/pdf"
	"github.com/jhoicas/retail-pos/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/retail-pos/internal/interfaces/http"
	"github.com/jhoicas/retail-pos/pkg/config"
	"github.com/jhoicas/retail-pos/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: "info",
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	// Repositorios atados al pool: solo lecturas. Toda escritura pasa por el
	// TxRunner, que construye repositorios atados a la transacción.
	ledgerRepo := postgres.NewStockLedgerRepository(pool)
	movementRepo := postgres.NewStockMovementRepository(pool)
	saleRepo := postgres.NewSaleRepository(pool)
	receiptRepo := postgres.NewReceiptRepository(pool)
	productRepo := postgres.NewProductRepository(pool)
	categoryRepo := postgres.NewCategoryRepository(pool)
	userRepo := postgres.NewUserRepository(pool)
	securityLogRepo := postgres.NewSecurityLogRepository(pool)
	reportRepo := postgres.NewReportRepository(pool)
	txRunner := postgres.NewTxRunner(pool, cfg.Lock.TimeoutMS)

	saleUC := sale.NewUseCase(txRunner, saleRepo, log)
	ticketGenerator := infrapdf.NewMarotoTicketGenerator(cfg.App.Name)
	ticketUC := sale.NewTicketUseCase(saleRepo, ticketGenerator)
	inventoryUC := inventory.NewUseCase(txRunner, ledgerRepo, movementRepo, receiptRepo, productRepo, log)
	productUC := usecase.NewProductUseCase(productRepo, categoryRepo, log)
	userUC := usecase.NewUserUseCase(userRepo, securityLogRepo, log)
	reportUC := usecase.NewReportUseCase(reportRepo)
	authUC := auth.NewUseCase(userRepo, securityLogRepo, auth.Config{
		JWTSecret:  cfg.JWT.Secret,
		Issuer:     cfg.JWT.Issuer,
		ExpMinutes: cfg.JWT.Expiration,
	}, log)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    cfg.App.Name,
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		AuthUC:      authUC,
		SaleUC:      saleUC,
		TicketUC:    ticketUC,
		InventoryUC: inventoryUC,
		ProductUC:   productUC,
		UserUC:      userUC,
		ReportUC:    reportUC,
		JWTSecret:   cfg.JWT.Secret,
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
