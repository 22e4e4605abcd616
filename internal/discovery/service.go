package discovery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/iliyamo/program-discovery/internal/cache"
	"github.com/iliyamo/program-discovery/internal/model"
)

// ErrEventsUnavailable is returned when a fresh payload could not be computed
// and nothing was cached for the request.
var ErrEventsUnavailable = errors.New("discovery events unavailable")

const staleReadTimeout = 2 * time.Second

// FetchResult is a payload together with how it was obtained.
type FetchResult struct {
	Payload     *model.EventsPayload
	CacheStatus model.CacheStatus
	CacheKey    string
	Context     FetchContext
}

// Service serves payloads through the cache store.  Two concurrent misses for
// the same key both compute and both write; the last write wins and is
// bounded by the entry's TTL.
type Service struct {
	builder *ContextBuilder
	fetcher Fetcher
	store   cache.Store
	prefix  string
	log     *slog.Logger
}

// NewService wires the cache-through flow.
func NewService(builder *ContextBuilder, fetcher Fetcher, store cache.Store, prefix string, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	if prefix == "" {
		prefix = "discovery"
	}
	return &Service{builder: builder, fetcher: fetcher, store: store, prefix: prefix, log: log}
}

// GetDiscoveryEvents returns the payload for req, from the cache when
// possible.  When a fresh computation fails the last cached payload for the
// same key is served instead; ErrEventsUnavailable means there was none.
func (s *Service) GetDiscoveryEvents(ctx context.Context, req Request) (*FetchResult, error) {
	fc := s.builder.Build(ctx, req)
	key := CacheKey(s.prefix, fc)
	res := &FetchResult{CacheKey: key, Context: fc}

	if !req.ForceFresh {
		if p, ok := s.read(ctx, key); ok {
			res.Payload, res.CacheStatus = p, model.CacheHit
			return res, nil
		}
	}

	payload, err := s.fetcher.Fetch(ctx, fc)
	if err != nil {
		s.log.Error("discovery fetch failed", "key", key, "err", err)
		// The request context may already be done; the fallback read must
		// still reach the store.
		staleCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), staleReadTimeout)
		defer cancel()
		if p, ok := s.read(staleCtx, key); ok {
			s.log.Warn("serving cached payload after failed fetch", "key", key, "cachedAt", p.Meta.CachedAt)
			res.Payload, res.CacheStatus = p, model.CacheHit
			return res, nil
		}
		return nil, fmt.Errorf("%w: %w", ErrEventsUnavailable, err)
	}

	if err := s.store.Set(ctx, key, payload, fc.TTL()); err != nil {
		s.log.Warn("cache write failed", "key", key, "err", err)
	}
	res.Payload, res.CacheStatus = payload, model.CacheMiss
	return res, nil
}

// Invalidate drops the cached payloads a plain request for slug would hit,
// in the given modes (both when none are given).  It returns the deleted
// keys.
func (s *Service) Invalidate(ctx context.Context, slug string, modes ...model.Mode) ([]string, error) {
	if len(modes) == 0 {
		modes = []model.Mode{model.ModeFull, model.ModeAvailability}
	}
	keys := make([]string, 0, len(modes))
	for _, m := range modes {
		keys = append(keys, CacheKey(s.prefix, s.builder.Build(ctx, Request{Slug: slug, Mode: m})))
	}
	if err := s.store.Delete(ctx, keys...); err != nil {
		return nil, fmt.Errorf("invalidate %s: %w", slug, err)
	}
	return keys, nil
}

func (s *Service) read(ctx context.Context, key string) (*model.EventsPayload, bool) {
	p, err := s.store.Get(ctx, key)
	switch {
	case errors.Is(err, cache.ErrCacheMiss):
		return nil, false
	case err != nil:
		s.log.Warn("cache read failed, treating as miss", "key", key, "err", err)
		return nil, false
	}
	return p, p != nil
}
