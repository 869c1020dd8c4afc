package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements limiter.Recorder using Prometheus.
type Recorder struct {
	decisions    *prometheus.CounterVec
	errorsTotal  *prometheus.CounterVec
	storeLatency *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		decisions: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rategate_decisions_total",
				Help: "Total number of rate limit decisions",
			},
			[]string{"outcome"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rategate_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		storeLatency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "rategate_store_duration_seconds",
				Help:    "Duration of store operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"op"},
		),
	}
}

// RecordDecision records an allowed or denied decision.
func (r *Recorder) RecordDecision(allowed bool) {
	outcome := "denied"
	if allowed {
		outcome = "allowed"
	}
	r.decisions.WithLabelValues(outcome).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordStoreLatency records a store operation latency in seconds.
func (r *Recorder) RecordStoreLatency(op string, seconds float64) {
	r.storeLatency.WithLabelValues(op).Observe(seconds)
}
