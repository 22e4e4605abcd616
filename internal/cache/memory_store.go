package cache

import (
	"context"
	"errors"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/iliyamo/program-discovery/internal/model"
)

type memoryEntry struct {
	payload   *model.EventsPayload
	expiresAt time.Time
}

// MemoryStore is the in-process fallback used when Redis is unavailable.  It
// bounds the number of keys with an LRU and checks each entry's own expiry on
// read, so full and availability payloads keep independent lifetimes.
type MemoryStore struct {
	items *lru.Cache[string, memoryEntry]
	now   func() time.Time
}

// NewMemoryStore creates a store holding at most size keys.
func NewMemoryStore(size int) (*MemoryStore, error) {
	if size < 1 {
		size = 1
	}
	items, err := lru.New[string, memoryEntry](size)
	if err != nil {
		return nil, err
	}
	return &MemoryStore{items: items, now: time.Now}, nil
}

func (s *MemoryStore) Get(_ context.Context, key string) (*model.EventsPayload, error) {
	e, ok := s.items.Get(key)
	if !ok {
		return nil, ErrCacheMiss
	}
	if !s.now().Before(e.expiresAt) {
		s.items.Remove(key)
		return nil, ErrCacheMiss
	}
	return e.payload, nil
}

func (s *MemoryStore) Set(_ context.Context, key string, payload *model.EventsPayload, ttl time.Duration) error {
	if payload == nil {
		return errors.New("nil payload")
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	s.items.Add(key, memoryEntry{payload: payload, expiresAt: s.now().Add(ttl)})
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, keys ...string) error {
	for _, k := range keys {
		s.items.Remove(k)
	}
	return nil
}
