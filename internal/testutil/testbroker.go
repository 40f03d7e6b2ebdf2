package testutil

import (
	"context"

	amqp "github.com/rabbitmq/amqp091-go"
	rabbitmqTC "github.com/testcontainers/testcontainers-go/modules/rabbitmq"

	"github.com/punktual/backend/internal/infra"
)

// TestBroker holds test RabbitMQ resources
type TestBroker struct {
	Conn      *amqp.Connection
	Channel   *amqp.Channel
	Queue     string
	container *rabbitmqTC.RabbitMQContainer
}

// SetupTestBroker creates a RabbitMQ container with the given queue declared
func SetupTestBroker(ctx context.Context, queue string) (*TestBroker, error) {
	container, err := rabbitmqTC.Run(ctx, "rabbitmq:3.12-alpine")
	if err != nil {
		return nil, err
	}

	url, err := container.AmqpURL(ctx)
	if err != nil {
		if terr := container.Terminate(ctx); terr != nil {
			err = terr
		}
		return nil, err
	}

	conn, ch, err := infra.NewBrokerConnection(url, queue)
	if err != nil {
		if terr := container.Terminate(ctx); terr != nil {
			err = terr
		}
		return nil, err
	}

	return &TestBroker{Conn: conn, Channel: ch, Queue: queue, container: container}, nil
}

// Cleanup drains the queue
func (t *TestBroker) Cleanup(ctx context.Context) {
	if t == nil || t.Channel == nil {
		return
	}
	_, _ = t.Channel.QueuePurge(t.Queue, false)
}

// Teardown closes connections and terminates container
func (t *TestBroker) Teardown(ctx context.Context) {
	if t.Channel != nil {
		t.Channel.Close()
	}
	if t.Conn != nil {
		t.Conn.Close()
	}
	if t.container != nil {
		if err := t.container.Terminate(ctx); err != nil {
			return
		}
	}
}
