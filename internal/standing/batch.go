package standing

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Result pairs a request with its standing or error.
type Result struct {
	Request  Request
	Standing *Standing
	Err      error
	Duration time.Duration
}

// BatchResult aggregates a Batch run.
type BatchResult struct {
	Results   []Result
	Succeeded int
	Failed    int
	Duration  time.Duration
}

// Summary returns a human-readable summary of the run.
func (r *BatchResult) Summary() string {
	return fmt.Sprintf("standings=%d succeeded=%d failed=%d duration=%s",
		len(r.Results), r.Succeeded, r.Failed, r.Duration.Round(time.Millisecond))
}

// Batch computes standings for many players with a bounded worker pool.
// Each standing ranks its own cohort independently, so results do not depend
// on scheduling. Results are returned in request order.
func (e *Engine) Batch(ctx context.Context, reqs []Request, workers int, logger *slog.Logger) BatchResult {
	start := time.Now()
	result := BatchResult{Results: make([]Result, len(reqs))}
	if len(reqs) == 0 {
		return result
	}

	if workers < 1 {
		workers = 1
	}
	if workers > len(reqs) {
		workers = len(reqs)
	}

	ch := make(chan int, len(reqs))
	for i := range reqs {
		ch <- i
	}
	close(ch)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range ch {
				req := reqs[i]
				if err := ctx.Err(); err != nil {
					result.Results[i] = Result{Request: req, Err: err}
					continue
				}
				t0 := time.Now()
				st, err := e.Standing(req)
				result.Results[i] = Result{Request: req, Standing: st, Err: err, Duration: time.Since(t0)}
				if err != nil {
					logger.Warn("Standing failed", "request", req.String(), "error", err)
				}
			}
		}()
	}
	wg.Wait()

	for _, r := range result.Results {
		if r.Err != nil {
			result.Failed++
		} else {
			result.Succeeded++
		}
	}
	result.Duration = time.Since(start)
	logger.Info("Standings batch complete", "workers", workers, "summary", result.Summary())
	return result
}
