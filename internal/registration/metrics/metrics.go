package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the registration engine: allocation
// outcomes, photo uploads and summary latency.
type Metrics struct {
	AllocationsCreated   prometheus.Counter
	AllocationsRejected  *prometheus.CounterVec
	SubmitValidationFail *prometheus.CounterVec
	PhotoUploads         *prometheus.CounterVec
	SummaryDuration      prometheus.Histogram
	SubmitDuration       prometheus.Histogram
	LedgerCacheLookups   *prometheus.CounterVec
}

// New registers the metrics on the default registry.
func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer registers the metrics on reg. Tests pass a fresh registry.
func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		AllocationsCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "examboard_allocations_created_total",
			Help: "Registrants committed through the allocator",
		}),
		AllocationsRejected: f.NewCounterVec(prometheus.CounterOpts{
			Name: "examboard_allocations_rejected_total",
			Help: "CreateRegistrant calls rejected, by reason",
		}, []string{"reason"}),
		SubmitValidationFail: f.NewCounterVec(prometheus.CounterOpts{
			Name: "examboard_submit_validation_failures_total",
			Help: "Submissions stopped by full-form validation, by failing step",
		}, []string{"step"}),
		PhotoUploads: f.NewCounterVec(prometheus.CounterOpts{
			Name: "examboard_photo_uploads_total",
			Help: "Photo uploads, by outcome",
		}, []string{"outcome"}),
		SummaryDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "examboard_stage_summary_duration_seconds",
			Help:    "Duration of loading quota and ledger and computing stage summaries",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		SubmitDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "examboard_submit_duration_seconds",
			Help:    "Duration of Submit, including upload and allocation",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		LedgerCacheLookups: f.NewCounterVec(prometheus.CounterOpts{
			Name: "examboard_ledger_cache_lookups_total",
			Help: "Ledger snapshot cache lookups, by result",
		}, []string{"result"}),
	}
}

func (m *Metrics) IncrementAllocationCreated() {
	m.AllocationsCreated.Inc()
}

func (m *Metrics) IncrementAllocationRejected(reason string) {
	m.AllocationsRejected.WithLabelValues(reason).Inc()
}

func (m *Metrics) IncrementValidationFailure(step string) {
	m.SubmitValidationFail.WithLabelValues(step).Inc()
}

// IncrementPhotoUpload records an upload outcome: "ok" or "failed".
func (m *Metrics) IncrementPhotoUpload(outcome string) {
	m.PhotoUploads.WithLabelValues(outcome).Inc()
}

// IncrementCacheLookup records "hit", "miss", "error" or "bypass".
func (m *Metrics) IncrementCacheLookup(result string) {
	m.LedgerCacheLookups.WithLabelValues(result).Inc()
}

// ObserveSummary records the duration of a summary load.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveSummary(start time.Time) {
	m.SummaryDuration.Observe(time.Since(start).Seconds())
}

// ObserveSubmit records the duration of a Submit call.
func (m *Metrics) ObserveSubmit(start time.Time) {
	m.SubmitDuration.Observe(time.Since(start).Seconds())
}
