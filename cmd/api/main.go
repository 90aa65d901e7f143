package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/lively-to/lively/internal/adapters/geocode"
	"github.com/lively-to/lively/internal/adapters/http"
	natsadapter "github.com/lively-to/lively/internal/adapters/nats"
	"github.com/lively-to/lively/internal/adapters/valkey"
	"github.com/lively-to/lively/internal/adapters/vellum"
	"github.com/lively-to/lively/internal/core/ports"
	"github.com/lively-to/lively/internal/core/usecases"
	"github.com/lively-to/lively/internal/pkg/config"
	"github.com/lively-to/lively/internal/pkg/logging"
	"github.com/lively-to/lively/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load("lively-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// Structured logging
	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	logging.Setup("lively-api", logLevel, "json")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.OTLPAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	// Cache
	cache, err := valkey.New(cfg.Valkey.Addr)
	if err != nil {
		slog.Warn("valkey unavailable", "error", err)
		cache = nil
	} else {
		defer cache.Close()
	}

	// NATS
	nc, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats unavailable", "error", err)
		nc = nil
	} else {
		defer nc.Close()
	}

	// Raw NATS connection for WebSocket relay
	natsConn, err := natsadapter.RawConn(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats ws conn unavailable", "error", err)
	}

	// Workflow gateway
	workflow := vellum.New(vellum.Config{
		APIKey:       cfg.Vellum.APIKey,
		BaseURL:      cfg.Vellum.BaseURL,
		DeploymentID: cfg.Vellum.DeploymentID(),
		ReleaseTag:   cfg.Vellum.ReleaseTag,
		Timeout:      time.Duration(cfg.Vellum.TimeoutSec) * time.Second,
	})
	var executor ports.WorkflowExecutor = workflow
	if cfg.Vellum.Streaming {
		executor = vellum.Streaming(workflow)
	}

	// Reverse geocoder (optional)
	var geocoder ports.Geocoder
	if cfg.Geocoder.Enabled {
		geocoder = geocode.New(geocode.Config{
			APIKey:  cfg.Geocoder.APIKey,
			BaseURL: cfg.Geocoder.BaseURL,
			Timeout: time.Duration(cfg.Geocoder.TimeoutSec) * time.Second,
		})
	}

	// Use cases
	var cacheSvc ports.CacheService
	if cache != nil {
		cacheSvc = cache
	}
	var events ports.EventPublisher
	if nc != nil {
		events = nc
	}
	chatSvc := usecases.NewChatService(executor, geocoder, cacheSvc, events, usecases.NewNormalizer(nil))

	resourceSvc, err := usecases.NewResourceService()
	if err != nil {
		log.Fatalf("resources: %v", err)
	}

	deps := &http.Dependencies{
		Chat:      chatSvc,
		Resources: resourceSvc,
		NATS:      natsConn,
		Cache:     cache,
	}

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    256 * 1024, // chat payloads are small
		AppName:      "Live.ly API",
	})
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "http://localhost:3000, https://lively.to",
		AllowMethods:     "GET,POST,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: false,
		MaxAge:           3600,
	}))

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	// Give in-flight requests up to 10s to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}
