package index

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Request is one query of a batch.
type Request struct {
	Length  int
	Pattern Pattern
}

// Response carries the outcome of one Request. Err is set for per-query
// failures such as ErrPatternLengthMismatch.
type Response struct {
	Words []string
	Err   error
}

// QueryBatch runs reqs concurrently against x, at most workers at a time
// (unbounded when workers <= 0). Responses line up with reqs by index.
// Only context cancellation fails the batch as a whole.
func (x *Index) QueryBatch(ctx context.Context, reqs []Request, workers int) ([]Response, error) {
	out := make([]Response, len(reqs))
	g, ctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}
	for i, req := range reqs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			words, err := x.Query(req.Length, req.Pattern)
			out[i] = Response{Words: words, Err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
