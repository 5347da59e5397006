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
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/hussainzaidi99/OSMAPI/internal/adapters/http"
	"github.com/hussainzaidi99/OSMAPI/internal/bootstrap"
	"github.com/hussainzaidi99/OSMAPI/internal/pkg/config"
	"github.com/hussainzaidi99/OSMAPI/internal/pkg/logging"
	"github.com/hussainzaidi99/OSMAPI/internal/pkg/telemetry"
)

var version = "dev"

func main() {
	cfg, err := config.Load("osmapi-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.OTLPAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	svc, res, err := bootstrap.NewMeasureService(ctx, cfg)
	if err != nil {
		log.Fatalf("measure service: %v", err)
	}
	defer res.Close()

	deps := &http.Dependencies{
		Measure:        svc,
		RequestTimeout: time.Duration(cfg.Server.RequestTimeout) * time.Second,
		Version:        version,
	}
	// Interfaces stay nil for backends that are not configured.
	if res.DB != nil {
		deps.DB = res.DB
	}
	if res.Cache != nil {
		deps.Cache = res.Cache
	}
	if res.Publisher != nil {
		deps.Events = res.Publisher
	}

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    64 * 1024,
		AppName:      "OSMAPI",
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept",
		MaxAge:       3600,
	}))

	http.SetupRoutes(app, deps)

	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr, "version", version)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections", "signal", sig.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}
