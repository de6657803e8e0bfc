// Package metrics exposes Prometheus instrumentation for scan runs.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/iho/bookscan/internal/usecase"
)

// Metrics holds all scan-related Prometheus metrics.
type Metrics struct {
	DocumentsProcessed *prometheus.CounterVec
	DocumentsSkipped   *prometheus.CounterVec
	DocumentsFailed    *prometheus.CounterVec
	MovesPersisted     prometheus.Counter
	LinesPersisted     prometheus.Counter
	ScanDuration       prometheus.Histogram
}

// New registers and returns the scan metrics.
func New() *Metrics {
	return &Metrics{
		DocumentsProcessed: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bookscan_documents_processed_total",
				Help: "Documents turned into move drafts",
			},
			[]string{"mode"},
		),
		DocumentsSkipped: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bookscan_documents_skipped_total",
				Help: "Documents skipped (already recorded or grammar mismatch)",
			},
			[]string{"mode"},
		),
		DocumentsFailed: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bookscan_documents_failed_total",
				Help: "Documents that failed evaluation or persistence",
			},
			[]string{"mode"},
		),
		MovesPersisted: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "bookscan_moves_persisted_total",
				Help: "Moves committed to the store",
			},
		),
		LinesPersisted: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "bookscan_lines_persisted_total",
				Help: "Lines committed to the store",
			},
		),
		ScanDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "bookscan_scan_duration_seconds",
				Help:    "Duration of a full book scan",
				Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
		),
	}
}

// ObserveScan records a completed book run.
func (m *Metrics) ObserveScan(report *usecase.BookReport, duration time.Duration) {
	m.DocumentsProcessed.WithLabelValues("journal").Add(float64(report.Journals.Processed))
	m.DocumentsProcessed.WithLabelValues("ruleset").Add(float64(report.RuleSets.Processed))
	m.DocumentsSkipped.WithLabelValues("journal").Add(float64(report.Journals.Skipped))
	m.DocumentsSkipped.WithLabelValues("ruleset").Add(float64(report.RuleSets.Skipped))
	m.DocumentsFailed.WithLabelValues("journal").Add(float64(report.Journals.Failed))
	m.DocumentsFailed.WithLabelValues("ruleset").Add(float64(report.RuleSets.Failed))
	m.MovesPersisted.Add(float64(report.Moves))
	m.LinesPersisted.Add(float64(report.Lines))
	m.ScanDuration.Observe(duration.Seconds())
}
