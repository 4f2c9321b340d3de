package tasks

import (
	"context"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// FanOutOpts bounds the requests issued by [OrderedMap].
type FanOutOpts struct {
	Concurrency int     // Maximum calls in flight, 0 for unbounded
	RateLimit   float64 // Calls started per second, 0 to disable
}

// OrderedMap calls fn for every input concurrently and returns the results in input order.
//
// The first error cancels the context passed to the calls still running and is returned
// without any results.
func OrderedMap[T, R any](ctx context.Context, inputs []T, opts FanOutOpts, fn func(ctx context.Context, i int, in T) (R, error)) ([]R, error) {
	results := make([]R, len(inputs))

	g, gctx := errgroup.WithContext(ctx)
	if opts.Concurrency > 0 {
		g.SetLimit(opts.Concurrency)
	}

	var limiter *rate.Limiter
	if opts.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	}

	launched := 0
	for i, in := range inputs {
		if gctx.Err() != nil {
			break
		}

		launched++
		g.Go(func() error {
			if limiter != nil {
				if err := limiter.Wait(gctx); err != nil {
					return err
				}
			}

			r, err := fn(gctx, i, in)
			if err != nil {
				return err
			}
			results[i] = r
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Stopped launching on a parent cancellation that no call observed.
	if launched < len(inputs) {
		return nil, context.Cause(ctx)
	}
	return results, nil
}
