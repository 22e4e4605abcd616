package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/program-discovery/internal/model"
)

// RedisStore keeps payloads as JSON strings with a Redis-side TTL.
type RedisStore struct {
	rdb redis.UniversalClient
}

// NewRedisStore wraps an existing client.  The client's lifecycle stays with
// the caller.
func NewRedisStore(rdb redis.UniversalClient) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func (s *RedisStore) Get(ctx context.Context, key string) (*model.EventsPayload, error) {
	bs, err := s.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	var p model.EventsPayload
	if err := json.Unmarshal(bs, &p); err != nil {
		// An undecodable entry is as good as absent; the next write replaces it.
		return nil, ErrCacheMiss
	}
	return &p, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, payload *model.EventsPayload, ttl time.Duration) error {
	if payload == nil {
		return errors.New("nil payload")
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	bs, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}
	if err := s.rdb.SetEx(ctx, key, bs, ttl).Err(); err != nil {
		return fmt.Errorf("redis setex %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return s.rdb.Del(ctx, keys...).Err()
}
