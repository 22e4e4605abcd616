package discovery

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// MapOrdered applies fn to every item with at most limit calls in flight and
// returns the results in input order.  Lanes claim the next index from a
// shared cursor, so a slow item never holds back the rest of the batch.  fn
// must absorb its own failures; a limit below 1 runs serially.
func MapOrdered[T, R any](ctx context.Context, items []T, limit int, fn func(context.Context, int, T) R) []R {
	out := make([]R, len(items))
	if len(items) == 0 {
		return out
	}
	limit = max(1, min(limit, len(items)))

	var (
		cursor atomic.Int64
		g      errgroup.Group
	)
	for range limit {
		g.Go(func() error {
			for {
				i := int(cursor.Add(1) - 1)
				if i >= len(items) {
					return nil
				}
				out[i] = fn(ctx, i, items[i])
			}
		})
	}
	_ = g.Wait()
	return out
}
