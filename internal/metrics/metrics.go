// Package metrics exposes Prometheus instrumentation for imports and queries.
//
// All methods are safe to call on a nil *Metrics, so components can be built
// without instrumentation in tests and one-shot CLI commands.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Import outcomes recorded by ObserveImport.
const (
	OutcomeImported = "imported"
	OutcomeNoOp     = "noop"
	OutcomeFailed   = "failed"
)

// Metrics holds the registry collectors.
type Metrics struct {
	ImportsTotal      *prometheus.CounterVec
	RowsImported      prometheus.Counter
	RowsSkipped       prometheus.Counter
	ImportDuration    prometheus.Histogram
	BatchDuration     prometheus.Histogram
	ActiveVersionID   prometheus.Gauge
	ActiveRecordCount prometheus.Gauge
	QueryDuration     *prometheus.HistogramVec
	RateLimited       prometheus.Counter
}

// New registers all collectors with reg. Pass prometheus.DefaultRegisterer
// in production and prometheus.NewRegistry() in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		ImportsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "regsync_imports_total",
			Help: "Import runs by outcome",
		}, []string{"outcome"}),
		RowsImported: f.NewCounter(prometheus.CounterOpts{
			Name: "regsync_rows_imported_total",
			Help: "Rows written to the registrations table",
		}),
		RowsSkipped: f.NewCounter(prometheus.CounterOpts{
			Name: "regsync_rows_skipped_total",
			Help: "Source rows skipped for a missing registration number or name",
		}),
		ImportDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "regsync_import_duration_seconds",
			Help:    "Duration of complete import runs",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200},
		}),
		BatchDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "regsync_batch_commit_duration_seconds",
			Help:    "Duration of one batch upsert transaction",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
		ActiveVersionID: f.NewGauge(prometheus.GaugeOpts{
			Name: "regsync_active_version_id",
			Help: "ID of the active data version",
		}),
		ActiveRecordCount: f.NewGauge(prometheus.GaugeOpts{
			Name: "regsync_active_version_records",
			Help: "Record count of the active data version",
		}),
		QueryDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "regsync_query_duration_seconds",
			Help:    "Duration of read operations by kind",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"op"}),
		RateLimited: f.NewCounter(prometheus.CounterOpts{
			Name: "regsync_http_rate_limited_total",
			Help: "HTTP requests rejected by the rate limiter",
		}),
	}
}

// ObserveImport records a finished import run.
// Call with time.Now() at the start of the run.
func (m *Metrics) ObserveImport(start time.Time, outcome string, imported, skipped int) {
	if m == nil {
		return
	}
	m.ImportsTotal.WithLabelValues(outcome).Inc()
	m.RowsImported.Add(float64(imported))
	m.RowsSkipped.Add(float64(skipped))
	m.ImportDuration.Observe(time.Since(start).Seconds())
}

// ObserveBatch records one committed batch.
func (m *Metrics) ObserveBatch(start time.Time) {
	if m == nil {
		return
	}
	m.BatchDuration.Observe(time.Since(start).Seconds())
}

// SetActiveVersion publishes the active version after an import.
func (m *Metrics) SetActiveVersion(id, records int64) {
	if m == nil {
		return
	}
	m.ActiveVersionID.Set(float64(id))
	m.ActiveRecordCount.Set(float64(records))
}

// ObserveQuery records the duration of a read operation.
func (m *Metrics) ObserveQuery(op string, start time.Time) {
	if m == nil {
		return
	}
	m.QueryDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

// IncRateLimited counts a rejected HTTP request.
func (m *Metrics) IncRateLimited() {
	if m == nil {
		return
	}
	m.RateLimited.Inc()
}
