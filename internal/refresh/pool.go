package refresh

import (
	"context"
	"sync"
	"sync/atomic"
)

// Result holds the outcome of one job
type Result[T, R any] struct {
	Job   T
	Value R
	Err   error
}

// ProcessFunc handles a single job
type ProcessFunc[T, R any] func(ctx context.Context, job T) (R, error)

// ProcessConcurrently fans jobs out across workers goroutines.
// processed, when non-nil, is incremented after each job completes (success or
// failure) so callers can report progress. Results are returned in no
// guaranteed order.
func ProcessConcurrently[T, R any](
	ctx context.Context,
	jobs []T,
	fn ProcessFunc[T, R],
	workers int,
	processed *atomic.Int64,
) []Result[T, R] {
	if workers <= 0 {
		workers = 1
	}

	queue := make(chan T, len(jobs))
	results := make(chan Result[T, R], len(jobs))

	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range queue {
				var r Result[T, R]
				r.Job = job
				// Check for cancellation before processing
				if err := ctx.Err(); err != nil {
					r.Err = err
				} else {
					r.Value, r.Err = fn(ctx, job)
				}
				results <- r
				if processed != nil {
					processed.Add(1)
				}
			}
		}()
	}

	for _, job := range jobs {
		queue <- job
	}
	close(queue)

	go func() {
		wg.Wait()
		close(results)
	}()

	out := make([]Result[T, R], 0, len(jobs))
	for r := range results {
		out = append(out, r)
	}
	return out
}
