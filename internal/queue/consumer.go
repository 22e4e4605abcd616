package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/program-discovery/internal/discovery"
	"github.com/iliyamo/program-discovery/internal/model"
)

// Refresher recomputes a payload.  *discovery.Service satisfies it.
type Refresher interface {
	GetDiscoveryEvents(ctx context.Context, req discovery.Request) (*discovery.FetchResult, error)
}

// Consumer drains RefreshQueue and force-refreshes the requested pages.
type Consumer struct {
	url       string
	refresher Refresher
	timeout   time.Duration
	log       *slog.Logger
}

// NewConsumer returns a consumer for the broker at url.  timeout bounds the
// work done for one message.
func NewConsumer(url string, refresher Refresher, timeout time.Duration, log *slog.Logger) *Consumer {
	if log == nil {
		log = slog.Default()
	}
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &Consumer{url: url, refresher: refresher, timeout: timeout, log: log}
}

// Run keeps a consumer attached to the broker, reconnecting with backoff,
// until ctx is cancelled.
func (c *Consumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(c.url)
		if err != nil {
			c.log.Warn("refresh consumer: dial failed", "err", err, "retry_in", backoff)
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			backoff = min(2*backoff, 30*time.Second)
			continue
		}
		backoff = time.Second

		err = c.consume(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.log.Warn("refresh consumer: consume loop ended, reconnecting", "err", err)
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func (c *Consumer) consume(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	// Refreshes fan out to the catalog; take one at a time.
	if err := ch.Qos(1, 0, false); err != nil {
		c.log.Warn("refresh consumer: set QoS failed", "err", err)
	}
	if _, err := ch.QueueDeclare(RefreshQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(RefreshQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := c.handle(ctx, d.Body); err != nil {
				c.log.Error("refresh consumer: message rejected", "err", err)
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

// handle decodes one delivery and refreshes every requested mode.  Retrying
// a failed refresh is left to the next request or the warmer.
func (c *Consumer) handle(ctx context.Context, body []byte) error {
	var msg DiscoveryRefreshRequested
	if err := json.Unmarshal(body, &msg); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	if err := msg.Validate(); err != nil {
		return err
	}
	modes := msg.Modes
	if len(modes) == 0 {
		modes = []model.Mode{model.ModeFull, model.ModeAvailability}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var errs []error
	for _, m := range modes {
		res, err := c.refresher.GetDiscoveryEvents(ctx, discovery.Request{Slug: msg.Slug, Mode: m, ForceFresh: true})
		if err != nil {
			errs = append(errs, fmt.Errorf("refresh %s/%s: %w", msg.Slug, m, err))
			continue
		}
		c.log.Info("refresh consumer: page refreshed",
			"id", msg.ID, "slug", msg.Slug, "mode", m,
			"events", res.Payload.Len(), "cache", res.CacheStatus)
	}
	return errors.Join(errs...)
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
