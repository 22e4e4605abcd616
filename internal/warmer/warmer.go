// Package warmer periodically force-refreshes the full payload of every
// configured page so visitors rarely hit a cold cache.
package warmer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/iliyamo/program-discovery/internal/discovery"
	"github.com/iliyamo/program-discovery/internal/model"
)

// SlugLister enumerates configured pages.
type SlugLister interface {
	ListSlugs(ctx context.Context) ([]string, error)
}

// Refresher recomputes a payload.  *discovery.Service satisfies it.
type Refresher interface {
	GetDiscoveryEvents(ctx context.Context, req discovery.Request) (*discovery.FetchResult, error)
}

type Warmer struct {
	pages     SlugLister
	refresher Refresher
	timeout   time.Duration
	log       *slog.Logger
	cron      *cron.Cron
}

func New(pages SlugLister, refresher Refresher, timeout time.Duration, log *slog.Logger) *Warmer {
	if log == nil {
		log = slog.Default()
	}
	return &Warmer{pages: pages, refresher: refresher, timeout: timeout, log: log}
}

// Start schedules RunOnce on a standard five-field cron spec.  Runs that
// overlap a still-running pass are skipped.
func (w *Warmer) Start(spec string) error {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddFunc(spec, func() {
		ctx := context.Background()
		if w.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, w.timeout)
			defer cancel()
		}
		if _, err := w.RunOnce(ctx); err != nil {
			w.log.Warn("warmer: pass failed", "err", err)
		}
	}); err != nil {
		return fmt.Errorf("warmer schedule %q: %w", spec, err)
	}
	w.cron = c
	c.Start()
	w.log.Info("warmer: scheduled", "spec", spec)
	return nil
}

// Stop halts the schedule and waits for a running pass to finish.
func (w *Warmer) Stop() {
	if w.cron != nil {
		<-w.cron.Stop().Done()
	}
}

// RunOnce refreshes every page one after the other and returns how many
// succeeded.  A failing page does not stop the pass.
func (w *Warmer) RunOnce(ctx context.Context) (int, error) {
	slugs, err := w.pages.ListSlugs(ctx)
	if err != nil {
		return 0, fmt.Errorf("list slugs: %w", err)
	}
	warmed := 0
	for _, slug := range slugs {
		if ctx.Err() != nil {
			return warmed, ctx.Err()
		}
		res, err := w.refresher.GetDiscoveryEvents(ctx, discovery.Request{Slug: slug, Mode: model.ModeFull, ForceFresh: true})
		if err != nil {
			w.log.Warn("warmer: refresh failed", "slug", slug, "err", err)
			continue
		}
		warmed++
		w.log.Debug("warmer: refreshed", "slug", slug, "events", res.Payload.Len(), "cache", res.CacheStatus)
	}
	w.log.Info("warmer: pass complete", "pages", len(slugs), "warmed", warmed)
	return warmed, nil
}
