package audio

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
)

// ProbeResult holds the outcome of probing a batch of songs.
type ProbeResult struct {
	Durations map[string]float64
	Failures  map[string]error
}

// ProbeAll probes every id concurrently, at most concurrency at a time.
// A failing song does not stop the others; it is reported in Failures.
func ProbeAll(ctx context.Context, src Source, ids []string, concurrency int) ProbeResult {
	if concurrency <= 0 {
		concurrency = 8
	}

	res := ProbeResult{
		Durations: make(map[string]float64, len(ids)),
		Failures:  make(map[string]error),
	}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for _, id := range ids {
		g.Go(func() error {
			d, err := src.Duration(gctx, id)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				res.Failures[id] = err
				return nil
			}
			res.Durations[id] = d
			return nil
		})
	}
	_ = g.Wait()

	return res
}
