package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// =============================================================================
// AMQP NOTIFIER - Publishes events to a durable RabbitMQ queue
// =============================================================================

// Channel is the subset of *amqp.Channel the notifier uses.
type Channel interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

type AMQPNotifier struct {
	ch             Channel
	conn           *amqp.Connection
	queue          string
	publishTimeout time.Duration
	logger         *slog.Logger
}

// DialAMQP connects to the broker and declares the queue.
func DialAMQP(url, queue string, publishTimeout time.Duration, logger *slog.Logger) (*AMQPNotifier, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}
	n, err := NewAMQPNotifier(ch, queue, publishTimeout, logger)
	if err != nil {
		conn.Close()
		return nil, err
	}
	n.conn = conn
	return n, nil
}

// NewAMQPNotifier wraps an open channel. The queue is declared durable.
func NewAMQPNotifier(ch Channel, queue string, publishTimeout time.Duration, logger *slog.Logger) (*AMQPNotifier, error) {
	if _, err := ch.QueueDeclare(
		queue, // queue name
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	); err != nil {
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}
	if publishTimeout <= 0 {
		publishTimeout = 5 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AMQPNotifier{
		ch:             ch,
		queue:          queue,
		publishTimeout: publishTimeout,
		logger:         logger.With("component", "notify.amqp"),
	}, nil
}

func (n *AMQPNotifier) Notify(ctx context.Context, e Event) error {
	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, n.publishTimeout)
	defer cancel()

	err = n.ch.PublishWithContext(
		ctx,
		"",      // exchange
		n.queue, // routing key (queue name)
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			Type:         string(e.Type),
			Body:         body,
			Timestamp:    e.At,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish %s event: %w", e.Type, err)
	}

	n.logger.DebugContext(ctx, "event published", "queue", n.queue, "type", e.Type)
	return nil
}

func (n *AMQPNotifier) Close() error {
	err := n.ch.Close()
	if n.conn != nil {
		if cerr := n.conn.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
