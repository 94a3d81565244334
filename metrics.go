package wvgo

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
type MetricsCollector interface {
	// RecordLoad is called after each load. words is the number of words
	// loaded, err is nil if successful.
	RecordLoad(format Format, words int, duration time.Duration, err error)

	// RecordSave is called after each save.
	RecordSave(format Format, words int, duration time.Duration, err error)

	// RecordSearch is called after each exact or approximate nearest query.
	// candidates is the number of vectors evaluated exactly.
	RecordSearch(n, candidates int, approximate bool, duration time.Duration, err error)

	// RecordIndexBuild is called after an LSH index is (re)built.
	RecordIndexBuild(bits, entries int, duration time.Duration)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordLoad(Format, int, time.Duration, error)      {}
func (NoopMetricsCollector) RecordSave(Format, int, time.Duration, error)      {}
func (NoopMetricsCollector) RecordSearch(int, int, bool, time.Duration, error) {}
func (NoopMetricsCollector) RecordIndexBuild(int, int, time.Duration)          {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	LoadCount         atomic.Int64
	LoadErrors        atomic.Int64
	LoadedWords       atomic.Int64
	SaveCount         atomic.Int64
	SaveErrors        atomic.Int64
	SearchCount       atomic.Int64
	SearchErrors      atomic.Int64
	SearchTotalNanos  atomic.Int64
	ApproxSearchCount atomic.Int64
	CandidatesScored  atomic.Int64
	IndexBuildCount   atomic.Int64
	IndexBuildNanos   atomic.Int64
}

// RecordLoad implements MetricsCollector.
func (b *BasicMetricsCollector) RecordLoad(_ Format, words int, _ time.Duration, err error) {
	b.LoadCount.Add(1)
	if err != nil {
		b.LoadErrors.Add(1)
		return
	}
	b.LoadedWords.Add(int64(words))
}

// RecordSave implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSave(_ Format, _ int, _ time.Duration, err error) {
	b.SaveCount.Add(1)
	if err != nil {
		b.SaveErrors.Add(1)
	}
}

// RecordSearch implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSearch(_, candidates int, approximate bool, duration time.Duration, err error) {
	b.SearchCount.Add(1)
	b.SearchTotalNanos.Add(duration.Nanoseconds())
	b.CandidatesScored.Add(int64(candidates))
	if approximate {
		b.ApproxSearchCount.Add(1)
	}
	if err != nil {
		b.SearchErrors.Add(1)
	}
}

// RecordIndexBuild implements MetricsCollector.
func (b *BasicMetricsCollector) RecordIndexBuild(_, _ int, duration time.Duration) {
	b.IndexBuildCount.Add(1)
	b.IndexBuildNanos.Add(duration.Nanoseconds())
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		LoadCount:         b.LoadCount.Load(),
		LoadErrors:        b.LoadErrors.Load(),
		LoadedWords:       b.LoadedWords.Load(),
		SaveCount:         b.SaveCount.Load(),
		SaveErrors:        b.SaveErrors.Load(),
		SearchCount:       b.SearchCount.Load(),
		SearchErrors:      b.SearchErrors.Load(),
		SearchAvgNanos:    b.getAvgSearchNanos(),
		ApproxSearchCount: b.ApproxSearchCount.Load(),
		CandidatesScored:  b.CandidatesScored.Load(),
		IndexBuildCount:   b.IndexBuildCount.Load(),
	}
}

func (b *BasicMetricsCollector) getAvgSearchNanos() int64 {
	count := b.SearchCount.Load()
	if count == 0 {
		return 0
	}
	return b.SearchTotalNanos.Load() / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	LoadCount         int64
	LoadErrors        int64
	LoadedWords       int64
	SaveCount         int64
	SaveErrors        int64
	SearchCount       int64
	SearchErrors      int64
	SearchAvgNanos    int64
	ApproxSearchCount int64
	CandidatesScored  int64
	IndexBuildCount   int64
}
