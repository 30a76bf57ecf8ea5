// Package concurrent holds the bounded fan-out helper used by the research
// pipeline.
package concurrent

import (
	"context"
	"errors"
	"sync"
)

// DefaultLimit applies when a caller passes a non-positive limit.
const DefaultLimit = 4

// Map runs fn over items with at most limit calls in flight. Results keep the
// order of items. Every failure is reported, joined in item order; items not
// started before ctx is cancelled report ctx.Err().
func Map[T, R any](ctx context.Context, items []T, limit int, fn func(context.Context, T) (R, error)) ([]R, error) {
	if len(items) == 0 {
		return nil, nil
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	results := make([]R, len(items))
	errs := make([]error, len(items))
	sem := make(chan struct{}, limit)

	var wg sync.WaitGroup
	for i, item := range items {
		wg.Add(1)
		go func(idx int, val T) {
			defer wg.Done()
			select {
			case <-ctx.Done():
				errs[idx] = ctx.Err()
				return
			case sem <- struct{}{}:
				defer func() { <-sem }()
			}
			results[idx], errs[idx] = fn(ctx, val)
		}(i, item)
	}
	wg.Wait()

	return results, errors.Join(errs...)
}
