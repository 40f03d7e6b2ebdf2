package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/punktual/backend/internal/config"
	"github.com/punktual/backend/internal/events"
	"github.com/punktual/backend/internal/infra"
	"github.com/punktual/backend/internal/observability"
	"github.com/punktual/backend/internal/server"
)

func main() {
	// Load configuration from environment variables
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()

	obs, err := observability.Setup(ctx, observability.Config{
		ServiceName:  "punktual-api",
		Environment:  cfg.Server.Environment,
		OTLPEndpoint: cfg.App.OTLPEndpoint,
	})
	if err != nil {
		log.Fatalf("Failed to setup observability: %v", err)
	}
	defer obs.Shutdown(ctx)

	db, err := infra.NewPostgresPool(ctx, cfg.Database.ConnectionString())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	obs.Logger.Info("database connected")

	cache, err := infra.NewCacheClient(ctx, cfg.Cache.ConnectionString())
	if err != nil {
		log.Fatalf("Failed to connect to cache: %v", err)
	}
	defer cache.Close()
	obs.Logger.Info("cache connected")

	// Click recorder: publish to RabbitMQ when configured, otherwise fall
	// back to direct database increments (handled by the router wiring).
	var clicks events.Recorder
	if cfg.Broker.URL != "" {
		conn, ch, err := infra.NewBrokerConnection(cfg.Broker.URL, cfg.Broker.ClickQueue)
		if err != nil {
			log.Fatalf("Failed to connect to broker: %v", err)
		}
		defer conn.Close()
		defer ch.Close()
		clicks = events.NewAMQPRecorder(ch, cfg.Broker.ClickQueue)
		obs.Logger.Info("broker connected", slog.String("queue", cfg.Broker.ClickQueue))
	}

	srv := server.NewServer(cfg, db, cache, clicks, obs)

	// Start server in a goroutine
	go func() {
		obs.Logger.Info("server starting",
			slog.String("port", cfg.Server.Port),
			slog.String("base_url", cfg.App.BaseURL))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Graceful shutdown
	// Wait for interrupt signal (Ctrl+C or SIGTERM)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	obs.Logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	obs.Logger.Info("server exited gracefully")
}
