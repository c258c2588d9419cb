package falcon

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// See package prometheus for a Prometheus implementation.
type MetricsCollector interface {
	// RecordActivate is called after each index build. passive is the
	// number of passive views indexed.
	RecordActivate(passive int, duration time.Duration, err error)

	// RecordSelect is called after each brush query on the index.
	RecordSelect(duration time.Duration, err error)

	// RecordHistogram is called after each baseline histogram or count.
	RecordHistogram(duration time.Duration, err error)

	// RecordStale is called when a superseded backend result is dropped.
	RecordStale()

	// RecordBackendFailure is called for every passive view whose cube
	// failed to build.
	RecordBackendFailure()
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordActivate(int, time.Duration, error) {}
func (NoopMetricsCollector) RecordSelect(time.Duration, error)        {}
func (NoopMetricsCollector) RecordHistogram(time.Duration, error)     {}
func (NoopMetricsCollector) RecordStale()                             {}
func (NoopMetricsCollector) RecordBackendFailure()                    {}

// BasicMetricsCollector provides simple in-memory metrics collection.
type BasicMetricsCollector struct {
	ActivateCount      atomic.Int64
	ActivateErrors     atomic.Int64
	ActivateTotalNanos atomic.Int64
	PassiveIndexed     atomic.Int64
	SelectCount        atomic.Int64
	SelectErrors       atomic.Int64
	SelectTotalNanos   atomic.Int64
	HistogramCount     atomic.Int64
	HistogramErrors    atomic.Int64
	StaleCount         atomic.Int64
	BackendFailures    atomic.Int64
}

// RecordActivate implements MetricsCollector.
func (b *BasicMetricsCollector) RecordActivate(passive int, duration time.Duration, err error) {
	b.ActivateCount.Add(1)
	b.ActivateTotalNanos.Add(duration.Nanoseconds())
	b.PassiveIndexed.Add(int64(passive))
	if err != nil {
		b.ActivateErrors.Add(1)
	}
}

// RecordSelect implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSelect(duration time.Duration, err error) {
	b.SelectCount.Add(1)
	b.SelectTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.SelectErrors.Add(1)
	}
}

// RecordHistogram implements MetricsCollector.
func (b *BasicMetricsCollector) RecordHistogram(_ time.Duration, err error) {
	b.HistogramCount.Add(1)
	if err != nil {
		b.HistogramErrors.Add(1)
	}
}

// RecordStale implements MetricsCollector.
func (b *BasicMetricsCollector) RecordStale() {
	b.StaleCount.Add(1)
}

// RecordBackendFailure implements MetricsCollector.
func (b *BasicMetricsCollector) RecordBackendFailure() {
	b.BackendFailures.Add(1)
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		ActivateCount:    b.ActivateCount.Load(),
		ActivateErrors:   b.ActivateErrors.Load(),
		ActivateAvgNanos: avg(b.ActivateTotalNanos.Load(), b.ActivateCount.Load()),
		PassiveIndexed:   b.PassiveIndexed.Load(),
		SelectCount:      b.SelectCount.Load(),
		SelectErrors:     b.SelectErrors.Load(),
		SelectAvgNanos:   avg(b.SelectTotalNanos.Load(), b.SelectCount.Load()),
		HistogramCount:   b.HistogramCount.Load(),
		HistogramErrors:  b.HistogramErrors.Load(),
		StaleCount:       b.StaleCount.Load(),
		BackendFailures:  b.BackendFailures.Load(),
	}
}

func avg(total, count int64) int64 {
	if count == 0 {
		return 0
	}
	return total / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	ActivateCount    int64
	ActivateErrors   int64
	ActivateAvgNanos int64
	PassiveIndexed   int64
	SelectCount      int64
	SelectErrors     int64
	SelectAvgNanos   int64
	HistogramCount   int64
	HistogramErrors  int64
	StaleCount       int64
	BackendFailures  int64
}
