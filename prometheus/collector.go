// Package prometheus exports falcon metrics to Prometheus.
//
//	reg := prometheus.NewRegistry()
//	f := falcon.New(db, falcon.WithMetricsCollector(falconprom.NewCollector(reg)))
package prometheus

import (
	"time"

	"github.com/hupe1980/falcon"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "falcon"

// Collector implements falcon.MetricsCollector with Prometheus metrics.
type Collector struct {
	ops             *prom.CounterVec
	errors          *prom.CounterVec
	duration        *prom.HistogramVec
	passiveIndexed  prom.Counter
	stale           prom.Counter
	backendFailures prom.Counter
}

var _ falcon.MetricsCollector = (*Collector)(nil)

// NewCollector registers the falcon metrics with reg. A nil reg uses the
// default registerer.
func NewCollector(reg prom.Registerer) *Collector {
	if reg == nil {
		reg = prom.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Collector{
		ops: f.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Completed operations by kind (activate, select, histogram).",
		}, []string{"op"}),
		errors: f.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "operation_errors_total",
			Help:      "Failed operations by kind.",
		}, []string{"op"}),
		duration: f.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_duration_seconds",
			Help:      "Operation latency by kind.",
			Buckets:   prom.ExponentialBuckets(0.0005, 4, 10),
		}, []string{"op"}),
		passiveIndexed: f.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "passive_views_indexed_total",
			Help:      "Passive views covered by index builds.",
		}),
		stale: f.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "stale_results_total",
			Help:      "Backend results dropped because a newer activation superseded them.",
		}),
		backendFailures: f.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "backend_view_failures_total",
			Help:      "Passive views whose cube failed to build.",
		}),
	}
}

func (c *Collector) record(op string, d time.Duration, err error) {
	c.ops.WithLabelValues(op).Inc()
	c.duration.WithLabelValues(op).Observe(d.Seconds())
	if err != nil {
		c.errors.WithLabelValues(op).Inc()
	}
}

// RecordActivate implements falcon.MetricsCollector.
func (c *Collector) RecordActivate(passive int, d time.Duration, err error) {
	c.record("activate", d, err)
	c.passiveIndexed.Add(float64(passive))
}

// RecordSelect implements falcon.MetricsCollector.
func (c *Collector) RecordSelect(d time.Duration, err error) { c.record("select", d, err) }

// RecordHistogram implements falcon.MetricsCollector.
func (c *Collector) RecordHistogram(d time.Duration, err error) { c.record("histogram", d, err) }

// RecordStale implements falcon.MetricsCollector.
func (c *Collector) RecordStale() { c.stale.Inc() }

// RecordBackendFailure implements falcon.MetricsCollector.
func (c *Collector) RecordBackendFailure() { c.backendFailures.Inc() }
