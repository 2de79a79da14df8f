package simulation

import (
	"context"
	"sync"
	"time"

	ajo "github.com/soma-enyi/soroban-ajo"
)

// Runner replays a workload against a cache fed by a simulated backend.
type Runner struct {
	cache       *ajo.Cache
	backend     *Backend
	concurrency int
}

// NewRunner creates a Runner. Concurrency values below 1 run the
// workload sequentially.
func NewRunner(cache *ajo.Cache, backend *Backend, concurrency int) *Runner {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Runner{
		cache:       cache,
		backend:     backend,
		concurrency: concurrency,
	}
}

// Result contains the measured outcome of a single workload run.
type Result struct {
	Name     string
	Requests int
	Errors   int
	Duration time.Duration

	// LatenciesMs holds one latency sample per request, in milliseconds.
	// Worker interleaving means the order is not the request order.
	LatenciesMs []float64

	BackendCalls    int64
	BackendFailures int64

	// Cache holds the cache's counters at the end of the run.
	Cache ajo.Metrics
}

// Run replays the requests and collects latency samples. Counters are
// read from the cache and backend after the run, so each run should use
// a freshly created cache and backend.
func (r *Runner) Run(ctx context.Context, name string, requests []Request) *Result {
	start := time.Now()

	reqCh := make(chan Request)
	go func() {
		defer close(reqCh)
		for _, req := range requests {
			select {
			case <-ctx.Done():
				return
			case reqCh <- req:
			}
		}
	}()

	type workerResult struct {
		latencies []float64
		errors    int
	}

	results := make([]workerResult, r.concurrency)

	var wg sync.WaitGroup
	for w := 0; w < r.concurrency; w++ {
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			local := workerResult{}
			for req := range reqCh {
				begin := time.Now()
				_, err := r.cache.Fetch(ctx, req.Key, r.backend.Fetcher(req.Key),
					ajo.WithOperation(req.Op),
				)
				local.latencies = append(local.latencies, float64(time.Since(begin).Nanoseconds())/1e6)
				if err != nil {
					local.errors++
				}
			}
			results[slot] = local
		}(w)
	}
	wg.Wait()

	res := &Result{
		Name:            name,
		Duration:        time.Since(start),
		BackendCalls:    r.backend.Calls(),
		BackendFailures: r.backend.Failures(),
		Cache:           r.cache.Metrics(),
	}
	for _, wr := range results {
		res.Requests += len(wr.latencies)
		res.Errors += wr.errors
		res.LatenciesMs = append(res.LatenciesMs, wr.latencies...)
	}

	return res
}
