package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	_ "github.com/jhoicas/stock-ledger/docs"
	"github.com/jhoicas/stock-ledger/internal/application/ledger"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/kafka"
	infrapdf "github.com/jhoicas/stock-ledger/internal/infrastructure/pdf"
	httpRouter "github.com/jhoicas/stock-ledger/internal/interfaces/http"
	"github.com/jhoicas/stock-ledger/pkg/config"
	"github.com/jhoicas/stock-ledger/pkg/logger"
	"github.com/jhoicas/stock-ledger/pkg/telemetry"
)

const swaggerFile = "./docs/swagger.json"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.Log.Level,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("storage", cfg.Storage.Driver).
		Msg("iniciando aplicación")

	ctx := context.Background()

	shutdownTracing, err := telemetry.Setup(ctx, telemetry.Options{
		ServiceName:    cfg.App.Name,
		ServiceVersion: cfg.App.Version,
		Endpoint:       cfg.Telemetry.OtelEndpoint,
		AuthHeader:     cfg.Telemetry.OtelAuthHeader,
		Insecure:       cfg.Telemetry.Insecure,
	})
	if err != nil {
		log.Warn().Err(err).Msg("trazas deshabilitadas")
	}

	st, err := openStorage(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión al almacenamiento")
	}

	var publisher ledger.MovementPublisher
	var kafkaPublisher *kafka.MovementPublisher
	if cfg.Kafka.Enabled() {
		kafkaPublisher = kafka.NewMovementPublisher(kafka.NewWriter(cfg.Kafka.Brokers, cfg.Kafka.Topic))
		publisher = kafkaPublisher
		log.Info().Strs("brokers", cfg.Kafka.Brokers).Str("topic", cfg.Kafka.Topic).Msg("publicación de movimientos activa")
	}

	engine, err := ledger.NewEngine(ledger.Deps{
		Runner:    st.runner,
		Records:   st.records,
		Movements: st.movements,
		Catalog:   st.catalog,
		Publisher: publisher,
		Renderer:  infrapdf.NewLowStockReport(),
		Logger:    log.Named("ledger"),
	}, ledger.Config{
		MaxAttempts:          cfg.Ledger.MaxAttempts,
		BackoffInitial:       cfg.Ledger.BackoffInitial,
		BackoffMax:           cfg.Ledger.BackoffMax,
		StoreTimeout:         cfg.Storage.Timeout,
		CompensationAttempts: cfg.Ledger.CompensationAttempts,
		CompensationTimeout:  cfg.Ledger.CompensationTimeout,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("construir motor de inventario")
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	if _, err := os.Stat(swaggerFile); err == nil {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: swaggerFile,
			Path:     "docs",
			Title:    "Stock Ledger API",
		}))
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name, "storage": cfg.Storage.Driver})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		Engine: engine,
		Logger: log.Named("http"),
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

	var closeErr error
	if kafkaPublisher != nil {
		closeErr = errors.Join(closeErr, kafkaPublisher.Close())
	}
	closeErr = errors.Join(closeErr, st.Close(shutdownCtx))
	if shutdownTracing != nil {
		closeErr = errors.Join(closeErr, shutdownTracing(shutdownCtx))
	}
	if closeErr != nil {
		log.Error().Err(closeErr).Msg("cierre de recursos")
	}

	log.Info().Msg("aplicación detenida")
}
