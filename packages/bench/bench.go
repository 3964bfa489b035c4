package bench

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
	"golang.org/x/time/rate"

	"github.com/zestclient/zest/packages/http"
)

// Options controls a benchmark run: Total independent executions, up
// to Concurrency in flight at once, optionally capped at Rate
// executions per second.
type Options struct {
	Total       int
	Concurrency int
	Rate        float64 // 0 means unlimited
}

// Result aggregates the run. Latencies are recorded in microseconds
// for histogram precision and reported in milliseconds.
type Result struct {
	Total     int64
	Succeeded int64
	Failed    int64
	Elapsed   time.Duration

	histogram *hdrhistogram.Histogram
}

func (r *Result) PercentileMs(p float64) float64 {
	return float64(r.histogram.ValueAtQuantile(p)) / 1000.0
}

func (r *Result) MeanMs() float64 {
	return r.histogram.Mean() / 1000.0
}

func (r *Result) MaxMs() float64 {
	return float64(r.histogram.Max()) / 1000.0
}

func (r *Result) RPS() float64 {
	if r.Elapsed <= 0 {
		return 0
	}
	return float64(r.Total) / r.Elapsed.Seconds()
}

// Run issues opts.Total independent executions of req. Every execution
// is its own atomic exchange; there is no ordering or state shared
// between them beyond the aggregate counters.
func Run(ctx context.Context, engine *http.Engine, req *http.Request, opts Options) (*Result, error) {
	if opts.Total < 1 {
		return nil, fmt.Errorf("bench: total must be at least 1")
	}
	concurrency := opts.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}

	// Fail fast on an unbuildable request instead of N times over.
	if _, err := http.Build(req); err != nil {
		return nil, err
	}

	var limiter *rate.Limiter
	if opts.Rate > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.Rate), 1)
	}

	result := &Result{
		// 1us to 60s range, 3 significant digits.
		histogram: hdrhistogram.New(1, 60_000_000, 3),
	}
	var histMu sync.Mutex
	var succeeded, failed atomic.Int64

	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup

	start := time.Now()
	for i := 0; i < opts.Total; i++ {
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				break
			}
		}
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
		}
		if ctx.Err() != nil {
			break
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			callStart := time.Now()
			resp, err := engine.Execute(ctx, req)
			latency := time.Since(callStart)

			if err != nil || resp.Failed() {
				failed.Add(1)
			} else {
				succeeded.Add(1)
			}

			histMu.Lock()
			_ = result.histogram.RecordValue(latency.Microseconds())
			histMu.Unlock()
		}()
	}
	wg.Wait()

	result.Elapsed = time.Since(start)
	result.Succeeded = succeeded.Load()
	result.Failed = failed.Load()
	result.Total = result.Succeeded + result.Failed
	return result, nil
}
