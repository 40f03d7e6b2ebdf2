// clickworker drains the click queue and applies the pending short-link
// counter increments. It is the consuming half of the fire-and-forget click
// accounting pipeline; running it is required only when AMQP_URL is set.
package main

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/punktual/backend/internal/config"
	"github.com/punktual/backend/internal/events"
	"github.com/punktual/backend/internal/infra"
	"github.com/punktual/backend/internal/observability"
	"github.com/punktual/backend/internal/repository"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Broker.URL == "" {
		log.Fatal("AMQP_URL must be set for the click worker")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := observability.NewLogger(cfg.Server.Environment)

	db, err := infra.NewPostgresPool(ctx, cfg.Database.ConnectionString())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	conn, ch, err := infra.NewBrokerConnection(cfg.Broker.URL, cfg.Broker.ClickQueue)
	if err != nil {
		log.Fatalf("Failed to connect to broker: %v", err)
	}
	defer conn.Close()
	defer ch.Close()

	repo := repository.NewShortLinkRepository(db)
	consumer := events.NewClickConsumer(ch, cfg.Broker.ClickQueue, repo, logger)

	logger.Info("click worker starting")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return consumer.Run(gctx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("Click worker stopped: %v", err)
	}
	logger.Info("click worker exited gracefully")
}
