package engine

import (
	"context"

	"golang.org/x/sync/errgroup"

	"chartist/internal/logger"
	"chartist/internal/market"
)

// BatchItem is one instrument's outcome in a batch computation. Err is set
// per instrument; one bad symbol never poisons its neighbours.
type BatchItem struct {
	Instrument string
	Result     Result
	Err        error
}

// ComputeBatch runs the same indicator over many instruments with bounded
// concurrency. Cancellation is cooperative: instruments not yet started are
// skipped, but an in-flight computation finishes and lands in the cache even
// though its result is reported as cancelled.
func (e *Engine) ComputeBatch(ctx context.Context, instruments []string, tf market.Timeframe, name string, params map[string]any, r market.DateRange) []BatchItem {
	items := make([]BatchItem, len(instruments))
	g := new(errgroup.Group)
	workers := e.cfg.Batch.Workers
	if workers < 1 {
		// errgroup treats a zero limit as "admit nothing", which would park
		// every task forever.
		workers = 1
	}
	g.SetLimit(workers)

	for i, inst := range instruments {
		i, inst := i, inst
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				items[i] = BatchItem{Instrument: inst, Err: err}
				return nil
			}
			// Detach so cancellation mid-compute still warms the cache.
			res, err := e.Compute(context.WithoutCancel(ctx), inst, tf, name, params, r)
			if cerr := ctx.Err(); cerr != nil {
				items[i] = BatchItem{Instrument: inst, Err: cerr}
				return nil
			}
			if err != nil {
				logger.Debugf("batch %s %s: %v", name, inst, err)
			}
			items[i] = BatchItem{Instrument: inst, Result: res, Err: err}
			return nil
		})
	}
	g.Wait()
	return items
}
