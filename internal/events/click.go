package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// ClickRecorded is emitted when a redirect for a short code is served.
type ClickRecorded struct {
	EventID    string `json:"eventId"`
	ShortCode  string `json:"shortCode"`
	OccurredAt string `json:"occurredAt"`
}

// Recorder accepts a click for asynchronous accounting. Implementations must
// be safe for concurrent use; callers treat failures as non-fatal.
type Recorder interface {
	Record(ctx context.Context, shortCode string) error
}

// AMQPRecorder publishes ClickRecorded events to a durable RabbitMQ queue.
type AMQPRecorder struct {
	ch    *amqp.Channel
	queue string
}

// NewAMQPRecorder creates a recorder publishing to the given queue. The queue
// is declared by infra.NewBrokerConnection.
func NewAMQPRecorder(ch *amqp.Channel, queue string) *AMQPRecorder {
	return &AMQPRecorder{ch: ch, queue: queue}
}

// Record publishes one click event. Delivery is at-least-once; the worker's
// increment is atomic so duplicates can only overcount, never corrupt.
func (r *AMQPRecorder) Record(ctx context.Context, shortCode string) error {
	event := ClickRecorded{
		EventID:    uuid.NewString(),
		ShortCode:  shortCode,
		OccurredAt: time.Now().UTC().Format(time.RFC3339),
	}
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return r.ch.PublishWithContext(ctx, "", r.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
}

// DirectRecorder applies click increments straight to the database. Used when
// no broker is configured.
type DirectRecorder struct {
	store ClickStore
}

// ClickStore is the persistence needed for click accounting.
type ClickStore interface {
	IncrementClicks(ctx context.Context, shortCode string) error
}

// NewDirectRecorder creates a recorder that increments the counter in place.
func NewDirectRecorder(store ClickStore) *DirectRecorder {
	return &DirectRecorder{store: store}
}

func (r *DirectRecorder) Record(ctx context.Context, shortCode string) error {
	return r.store.IncrementClicks(ctx, shortCode)
}

var (
	_ Recorder = (*AMQPRecorder)(nil)
	_ Recorder = (*DirectRecorder)(nil)
)
