// Package cache stores computed discovery payloads under their cache keys.
// Stores are safe for concurrent use and expire entries themselves; callers
// never do expiry bookkeeping.
package cache

import (
	"context"
	"errors"
	"time"

	"github.com/iliyamo/program-discovery/internal/model"
)

// ErrCacheMiss is returned by Get when no live entry exists for a key.
var ErrCacheMiss = errors.New("cache miss")

// Store is the contract the discovery service caches through.
type Store interface {
	Get(ctx context.Context, key string) (*model.EventsPayload, error)
	Set(ctx context.Context, key string, payload *model.EventsPayload, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}
