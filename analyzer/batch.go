package analyzer

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// ClassifyBatch classifies every request concurrently, at most
// Config.MaxConcurrent at a time. Results are in input order. The whole
// batch is rejected if any request is invalid.
func (a *Analyzer) ClassifyBatch(ctx context.Context, reqs []ClassifyRequest) ([]*ClassificationResult, error) {
	if len(reqs) == 0 {
		return nil, fmt.Errorf("%w: empty batch", ErrInvalidRequest)
	}
	if len(reqs) > MaxBatchSize {
		return nil, fmt.Errorf("%w: batch of %d exceeds %d", ErrInvalidRequest, len(reqs), MaxBatchSize)
	}
	for i := range reqs {
		if err := reqs[i].Validate(); err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
	}

	results := make([]*ClassificationResult, len(reqs))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(a.cfg.MaxConcurrent)
	for i := range reqs {
		g.Go(func() error {
			res, err := a.Classify(gCtx, &reqs[i])
			if err != nil {
				return fmt.Errorf("item %d: %w", i, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
