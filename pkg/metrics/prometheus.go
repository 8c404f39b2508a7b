package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"FinRank/internal/domain/models"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	runsTotal        *prometheus.CounterVec
	candidatesScored prometheus.Counter
	rejections       *prometheus.CounterVec
	picks            *prometheus.CounterVec
	shortfalls       *prometheus.CounterVec
	regimeConfidence *prometheus.GaugeVec
	sinkPublished    *prometheus.CounterVec
	errorsTotal      *prometheus.CounterVec
	latency          *prometheus.HistogramVec
}

var (
	defaultOnce sync.Once
	defaultRec  *Recorder
)

// New returns the process-wide recorder registered on the default registry.
func New() *Recorder {
	defaultOnce.Do(func() {
		defaultRec = NewWithRegisterer(prometheus.DefaultRegisterer)
	})
	return defaultRec
}

// NewWithRegisterer registers a fresh set of collectors on reg.
func NewWithRegisterer(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		runsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finrank_runs_total",
				Help: "Total number of ranking runs by regime",
			},
			[]string{"regime"},
		),
		candidatesScored: f.NewCounter(
			prometheus.CounterOpts{
				Name: "finrank_candidates_scored_total",
				Help: "Total number of candidates that reached the composite scorer",
			},
		),
		rejections: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finrank_rejections_total",
				Help: "Total number of rejected candidates by stage",
			},
			[]string{"stage"},
		),
		picks: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finrank_picks_total",
				Help: "Total number of picks by asset class and confirmation status",
			},
			[]string{"asset_class", "status"},
		),
		shortfalls: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finrank_quota_shortfalls_total",
				Help: "Total number of unfilled bucket quotas",
			},
			[]string{"bucket"},
		),
		regimeConfidence: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "finrank_regime_confidence",
				Help: "Confidence of the most recent regime classification",
			},
			[]string{"regime"},
		),
		sinkPublished: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finrank_sink_published_total",
				Help: "Total number of results handed to each sink",
			},
			[]string{"sink", "status"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finrank_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "finrank_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordRun records the outcome of one ranking run.
func (r *Recorder) RecordRun(res *models.RankedResult) {
	label := string(res.Regime.Label)
	r.runsTotal.WithLabelValues(label).Inc()
	r.candidatesScored.Add(float64(res.Scored))
	r.regimeConfidence.Reset()
	r.regimeConfidence.WithLabelValues(label).Set(res.Regime.Confidence)
	for _, rej := range res.Rejections {
		r.rejections.WithLabelValues(rej.Stage).Inc()
	}
	for _, p := range res.Picks {
		r.picks.WithLabelValues(string(p.AssetClass), string(p.ConfirmationStatus)).Inc()
	}
	for _, s := range res.QuotaShortfalls {
		r.shortfalls.WithLabelValues(s.Bucket).Inc()
	}
}

// RecordSinkPublished records one sink delivery.
func (r *Recorder) RecordSinkPublished(sink string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	r.sinkPublished.WithLabelValues(sink, status).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
