package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/program-discovery/internal/model"
)

func intPtr(v int) *int { return &v }

func fullPayload() *model.EventsPayload {
	return &model.EventsPayload{
		Full: []model.FullEvent{{
			ID:              "e1",
			SessionID:       "s1",
			Start:           time.Date(2026, 5, 1, 15, 0, 0, 0, time.UTC),
			MaxParticipants: intPtr(10),
			SpotsRemaining:  intPtr(4),
		}},
		Meta: model.PayloadMeta{TotalEvents: 1, OrganizationCount: 1, Mode: model.ModeFull,
			CachedAt: time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)},
	}
}

func availabilityPayload() *model.EventsPayload {
	return &model.EventsPayload{
		Availability: []model.AvailabilityEvent{{ID: "e1", SessionID: "s1", SpotsRemaining: intPtr(4)}},
		Meta:         model.PayloadMeta{TotalEvents: 1, Mode: model.ModeAvailability},
	}
}

func TestRedisStore_RoundTripAndExpiry(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	s := NewRedisStore(rdb)
	ctx := context.Background()

	_, err := s.Get(ctx, "k")
	require.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, s.Set(ctx, "k", fullPayload(), time.Minute))
	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	require.Len(t, got.Full, 1)
	assert.Empty(t, got.Availability)
	assert.Equal(t, "e1", got.Full[0].ID)
	assert.Equal(t, 4, *got.Full[0].SpotsRemaining)
	assert.Equal(t, model.ModeFull, got.Meta.Mode)

	mr.FastForward(61 * time.Second)
	_, err = s.Get(ctx, "k")
	require.ErrorIs(t, err, ErrCacheMiss)
}

func TestRedisStore_AvailabilityPayloadKeepsShape(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	s := NewRedisStore(rdb)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "a", availabilityPayload(), 10*time.Second))
	got, err := s.Get(ctx, "a")
	require.NoError(t, err)
	assert.Empty(t, got.Full)
	require.Len(t, got.Availability, 1)
	assert.Equal(t, model.ModeAvailability, got.Meta.Mode)

	require.NoError(t, s.Delete(ctx, "a"))
	_, err = s.Get(ctx, "a")
	require.ErrorIs(t, err, ErrCacheMiss)
}

func TestRedisStore_CorruptEntryIsMiss(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	require.NoError(t, mr.Set("bad", "{not json"))

	_, err := NewRedisStore(rdb).Get(context.Background(), "bad")
	require.ErrorIs(t, err, ErrCacheMiss)
}

func TestMemoryStore_ExpiryAndEviction(t *testing.T) {
	s, err := NewMemoryStore(2)
	require.NoError(t, err)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "full", fullPayload(), 10*time.Minute))
	require.NoError(t, s.Set(ctx, "avail", availabilityPayload(), time.Minute))

	now = now.Add(2 * time.Minute)
	_, err = s.Get(ctx, "avail")
	require.ErrorIs(t, err, ErrCacheMiss)
	got, err := s.Get(ctx, "full")
	require.NoError(t, err)
	assert.Equal(t, 1, got.Len())

	require.NoError(t, s.Set(ctx, "x", fullPayload(), time.Minute))
	require.NoError(t, s.Set(ctx, "y", fullPayload(), time.Minute))
	_, err = s.Get(ctx, "full")
	require.ErrorIs(t, err, ErrCacheMiss, "least recently used key is evicted")
}
