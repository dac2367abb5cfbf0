package dispatch

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	attempts        *prometheus.CounterVec
	decisions       *prometheus.CounterVec
	jobs            *prometheus.CounterVec
	providerLatency *prometheus.HistogramVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		attempts: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "brrow_delivery_attempts_total",
				Help: "Delivery attempt outcomes by status",
			},
			[]string{"status"},
		),
		decisions: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "brrow_preference_decisions_total",
				Help: "Preference gate decisions by reason",
			},
			[]string{"reason"},
		),
		jobs: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "brrow_dispatch_jobs_total",
				Help: "Dispatch jobs by result",
			},
			[]string{"result"},
		),
		providerLatency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "brrow_push_provider_duration_seconds",
				Help:    "Push provider call latency",
				Buckets: []float64{.01, .025, .05, .1, .25, .5, 1, 2, 5},
			},
			[]string{"platform", "outcome"},
		),
	}
}
