package warmer

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/program-discovery/internal/discovery"
	"github.com/iliyamo/program-discovery/internal/model"
)

type slugs struct {
	list []string
	err  error
}

func (s slugs) ListSlugs(context.Context) ([]string, error) { return s.list, s.err }

type refresher struct {
	reqs []discovery.Request
	fail map[string]bool
}

func (r *refresher) GetDiscoveryEvents(_ context.Context, req discovery.Request) (*discovery.FetchResult, error) {
	r.reqs = append(r.reqs, req)
	if r.fail[req.Slug] {
		return nil, discovery.ErrEventsUnavailable
	}
	return &discovery.FetchResult{Payload: &model.EventsPayload{}, CacheStatus: model.CacheMiss}, nil
}

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestRunOnce(t *testing.T) {
	r := &refresher{fail: map[string]bool{"b": true}}
	w := New(slugs{list: []string{"a", "b", "c"}}, r, time.Minute, quiet())

	n, err := w.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	require.Len(t, r.reqs, 3)
	for _, req := range r.reqs {
		assert.Equal(t, model.ModeFull, req.Mode)
		assert.True(t, req.ForceFresh)
	}
}

func TestRunOnce_ListFailure(t *testing.T) {
	w := New(slugs{err: errors.New("db down")}, &refresher{}, time.Minute, quiet())
	_, err := w.RunOnce(context.Background())
	assert.Error(t, err)
}

func TestRunOnce_StopsOnCancel(t *testing.T) {
	r := &refresher{}
	w := New(slugs{list: []string{"a", "b"}}, r, time.Minute, quiet())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := w.RunOnce(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, r.reqs)
}

func TestStart_RejectsBadSpec(t *testing.T) {
	w := New(slugs{}, &refresher{}, time.Minute, quiet())
	assert.Error(t, w.Start("every tuesday"))
	w.Stop()

	require.NoError(t, w.Start("*/10 * * * *"))
	w.Stop()
}
