package classify

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// ClassifyBatch classifies items in fixed-size groups, concurrently within
// each group and sequentially across groups. Every item gets a slot in the
// returned slice; a per-item failure never aborts its siblings.
func (e *Engine) ClassifyBatch(ctx context.Context, items []Input, opts Options) []BatchResult {
	results := make([]BatchResult, len(items))
	groupSize := e.cfg.BatchSize

	for start := 0; start < len(items); start += groupSize {
		end := start + groupSize
		if end > len(items) {
			end = len(items)
		}

		g, groupCtx := errgroup.WithContext(ctx)
		g.SetLimit(groupSize)
		for i := start; i < end; i++ {
			g.Go(func() error {
				res, err := e.Classify(groupCtx, items[i], opts)
				results[i] = BatchResult{Index: i, Result: res, Err: err}
				// Errors are captured per item, never returned, so one
				// failure cannot cancel the group context for siblings.
				return nil
			})
		}
		_ = g.Wait()
	}
	return results
}
