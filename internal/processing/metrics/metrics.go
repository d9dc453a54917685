// Package metrics holds the batch outcome counters exposed on /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/vietddude/inventorybot/internal/core/domain"
)

// Metrics is the process-wide outcome accounting.
type Metrics struct {
	// BatchSeconds tracks successful attempt durations
	BatchSeconds prometheus.Summary

	// BatchesTotal counts terminal outcomes by label
	BatchesTotal *prometheus.CounterVec

	// RetriesTotal counts intermediate retryable failures
	RetriesTotal prometheus.Counter

	// SinkErrorsTotal counts reporter side effects that failed
	SinkErrorsTotal prometheus.Counter

	// WorkersActive tracks running worker loops
	WorkersActive prometheus.Gauge

	// DBPoolUsage is the dead-letter database pool usage in percent
	DBPoolUsage prometheus.Gauge
}

// New registers the batch metrics on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	m := &Metrics{
		BatchSeconds: factory.NewSummary(
			prometheus.SummaryOpts{
				Name:       "inv_batch_seconds",
				Help:       "Inventory batch duration",
				Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
			},
		),
		BatchesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "inv_batches_total",
				Help: "Total inventory batches processed",
			},
			[]string{"outcome"},
		),
		RetriesTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "inv_batch_retries_total",
				Help: "Total retryable failures that scheduled another attempt or dead-lettered a batch",
			},
		),
		SinkErrorsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "inv_reporter_errors_total",
				Help: "Total reporter side effects that failed and were skipped",
			},
		),
		WorkersActive: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "inv_workers_active",
				Help: "Number of worker loops currently running",
			},
		),
		DBPoolUsage: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "inv_db_pool_usage_percent",
				Help: "Dead-letter database connection pool usage",
			},
		),
	}

	// Pre-create label series so all outcomes are exported at zero.
	for _, label := range []string{domain.LabelSuccess, domain.LabelError, domain.LabelDeadLetter} {
		m.BatchesTotal.WithLabelValues(label)
	}

	return m
}

// RecordOutcome increments the counter for a terminal outcome.
func (m *Metrics) RecordOutcome(o domain.Outcome) {
	m.BatchesTotal.WithLabelValues(o.MetricLabel()).Inc()
}

// ObserveSuccess records the duration of a successful attempt.
func (m *Metrics) ObserveSuccess(d time.Duration) {
	m.BatchSeconds.Observe(d.Seconds())
}
