// Package service publishes refresh requests to RabbitMQ.  Each publish opens
// its own connection; refreshes are rare admin actions.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/program-discovery/internal/queue"
)

// ErrBrokerUnavailable is returned when the broker cannot be reached.
var ErrBrokerUnavailable = errors.New("message broker unavailable")

// Publisher sends DiscoveryRefreshRequested messages.
type Publisher struct {
	url string
	log *slog.Logger
}

// NewPublisher returns a publisher for the broker at url.
func NewPublisher(url string, log *slog.Logger) *Publisher {
	if log == nil {
		log = slog.Default()
	}
	return &Publisher{url: url, log: log}
}

// PublishRefresh sends msg to queue.RefreshQueue as a persistent message.
func (p *Publisher) PublishRefresh(ctx context.Context, msg queue.DiscoveryRefreshRequested) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal refresh request: %w", err)
	}

	conn, err := amqp.Dial(p.url)
	if err != nil {
		p.log.Warn("rabbitmq: dial failed", "err", err)
		return fmt.Errorf("%w: %v", ErrBrokerUnavailable, err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("%w: channel open: %v", ErrBrokerUnavailable, err)
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(queue.RefreshQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    msg.ID,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", queue.RefreshQueue, false, false, pub); err != nil {
		p.log.Warn("rabbitmq: publish failed", "id", msg.ID, "err", err)
		return fmt.Errorf("publish refresh: %w", err)
	}
	p.log.Info("rabbitmq: refresh requested", "id", msg.ID, "slug", msg.Slug)
	return nil
}
