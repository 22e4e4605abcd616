// Package queue defines the cache refresh messages exchanged over RabbitMQ and
// the consumer that acts on them.
package queue

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/program-discovery/internal/model"
)

// RefreshQueue is the durable queue carrying DiscoveryRefreshRequested.
const RefreshQueue = "discovery.refresh"

// ErrMalformedMessage marks a delivery that can never be processed.
var ErrMalformedMessage = errors.New("malformed refresh message")

// DiscoveryRefreshRequested asks workers to recompute a page's payloads and
// overwrite the cached copies.
type DiscoveryRefreshRequested struct {
	ID          string       `json:"id"`
	Slug        string       `json:"slug"`
	Modes       []model.Mode `json:"modes"`
	RequestedAt time.Time    `json:"requested_at"`
}

// NewRefreshRequest builds a message with a fresh id.  No modes means both.
func NewRefreshRequest(slug string, modes []model.Mode, now time.Time) DiscoveryRefreshRequested {
	if len(modes) == 0 {
		modes = []model.Mode{model.ModeFull, model.ModeAvailability}
	}
	return DiscoveryRefreshRequested{
		ID:          uuid.NewString(),
		Slug:        strings.TrimSpace(slug),
		Modes:       modes,
		RequestedAt: now.UTC(),
	}
}

// Validate rejects messages without a slug or with unknown modes.
func (e DiscoveryRefreshRequested) Validate() error {
	if strings.TrimSpace(e.Slug) == "" {
		return fmt.Errorf("%w: empty slug", ErrMalformedMessage)
	}
	for _, m := range e.Modes {
		if m != model.ModeFull && m != model.ModeAvailability {
			return fmt.Errorf("%w: unknown mode %q", ErrMalformedMessage, m)
		}
	}
	return nil
}
