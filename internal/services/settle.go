package services

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// settle runs fn for every index in [0, n) with at most limit in flight and
// returns each call's error at its index. One failure never cancels the rest.
func settle(ctx context.Context, limit, n int, fn func(ctx context.Context, i int) error) []error {
	errs := make([]error, n)
	if n == 0 {
		return errs
	}

	var g errgroup.Group
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i := 0; i < n; i++ {
		i := i // per-iteration copy (go 1.21 loop semantics)
		g.Go(func() error {
			errs[i] = fn(ctx, i)
			return nil
		})
	}
	_ = g.Wait()

	return errs
}
