package events

import (
	"context"
	"encoding/json"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"
)

// ClickConsumer drains the click queue and applies atomic increments to the
// short-link rows. It is the other half of AMQPRecorder.
type ClickConsumer struct {
	ch     *amqp.Channel
	queue  string
	store  ClickStore
	logger *slog.Logger
}

// NewClickConsumer creates a consumer for the given queue.
func NewClickConsumer(ch *amqp.Channel, queue string, store ClickStore, logger *slog.Logger) *ClickConsumer {
	return &ClickConsumer{ch: ch, queue: queue, store: store, logger: logger}
}

const consumerTag = "clickworker"

// Run consumes until the context is cancelled or the channel closes.
// Malformed messages are dropped; increment failures are requeued once by
// the broker's redelivery flag and then dropped, since click counts are
// explicitly approximate.
func (c *ClickConsumer) Run(ctx context.Context) error {
	deliveries, err := c.ch.Consume(c.queue, consumerTag, false, false, false, false, nil)
	if err != nil {
		return err
	}
	defer c.ch.Cancel(consumerTag, false)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return nil
			}
			c.handle(ctx, d)
		}
	}
}

func (c *ClickConsumer) handle(ctx context.Context, d amqp.Delivery) {
	var event ClickRecorded
	if err := json.Unmarshal(d.Body, &event); err != nil {
		c.logger.Warn("dropping malformed click event", slog.String("error", err.Error()))
		_ = d.Nack(false, false)
		return
	}

	if err := c.store.IncrementClicks(ctx, event.ShortCode); err != nil {
		c.logger.Warn("click increment failed",
			slog.String("short_code", event.ShortCode),
			slog.Bool("redelivered", d.Redelivered),
			slog.String("error", err.Error()))
		_ = d.Nack(false, !d.Redelivered)
		return
	}

	_ = d.Ack(false)
}
