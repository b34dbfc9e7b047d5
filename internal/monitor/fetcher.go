package monitor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/yildizm/prhistory/internal/history"
)

// FetchStats is a point-in-time view of fetch activity
type FetchStats struct {
	Fetches    int64         `json:"fetches"`
	Successes  int64         `json:"successes"`
	Failures   int64         `json:"failures"`
	Cancelled  int64         `json:"cancelled"`
	Events     int64         `json:"events_received"`
	LastPage   int64         `json:"last_page"`
	MinLatency time.Duration `json:"min_latency_ns"`
	AvgLatency time.Duration `json:"avg_latency_ns"`
	MaxLatency time.Duration `json:"max_latency_ns"`
}

// InstrumentedFetcher records counts and latencies for another Fetcher
type InstrumentedFetcher struct {
	next history.Fetcher

	fetches   *Counter
	successes *Counter
	failures  *Counter
	cancelled *Counter
	events    *Counter
	latency   *Timer
	lastPage  int64
}

// Instrument wraps next
func Instrument(next history.Fetcher) *InstrumentedFetcher {
	return &InstrumentedFetcher{
		next:      next,
		fetches:   NewCounter("fetches"),
		successes: NewCounter("successes"),
		failures:  NewCounter("failures"),
		cancelled: NewCounter("cancelled"),
		events:    NewCounter("events_received"),
		latency:   NewTimer("fetch_latency"),
		lastPage:  -1,
	}
}

// Fetch implements history.Fetcher
func (f *InstrumentedFetcher) Fetch(ctx context.Context, reloadIndex int) ([]string, error) {
	f.fetches.Inc()
	atomic.StoreInt64(&f.lastPage, int64(reloadIndex))

	start := time.Now()
	events, err := f.next.Fetch(ctx, reloadIndex)
	f.latency.Record(time.Since(start))

	switch {
	case err == nil:
		f.successes.Inc()
		f.events.Add(int64(len(events)))
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		f.cancelled.Inc()
	default:
		f.failures.Inc()
	}

	return events, err
}

// Stats returns the current statistics
func (f *InstrumentedFetcher) Stats() FetchStats {
	return FetchStats{
		Fetches:    f.fetches.Get(),
		Successes:  f.successes.Get(),
		Failures:   f.failures.Get(),
		Cancelled:  f.cancelled.Get(),
		Events:     f.events.Get(),
		LastPage:   atomic.LoadInt64(&f.lastPage),
		MinLatency: f.latency.MinTime(),
		AvgLatency: f.latency.AvgTime(),
		MaxLatency: f.latency.MaxTime(),
	}
}

// WriteReport writes stats as text or json
func WriteReport(w io.Writer, stats FetchStats, format string) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(stats)
	}

	_, err := fmt.Fprintf(w,
		"fetches: %d (ok %d, failed %d, cancelled %d)\nevents received: %d\nlast page: %d\nlatency: min %s avg %s max %s\n",
		stats.Fetches, stats.Successes, stats.Failures, stats.Cancelled,
		stats.Events, stats.LastPage,
		stats.MinLatency.Round(time.Microsecond),
		stats.AvgLatency.Round(time.Microsecond),
		stats.MaxLatency.Round(time.Microsecond))
	return err
}
