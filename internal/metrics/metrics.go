package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	RunsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pipeline_runs_total",
		Help: "Completed pipeline runs.",
	})
	RunFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pipeline_run_failures_total",
		Help: "Pipeline runs that failed before finalization.",
	})
	RunsRejected = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pipeline_runs_rejected_total",
		Help: "Run requests rejected because a run was already in flight.",
	})
	SignalsScored = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "signals_scored_total",
		Help: "Signals that passed validation and were scored.",
	})
	SignalsRejected = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "signals_rejected_total",
		Help: "Signals rejected before scoring.",
	}, []string{"reason"})
	RunDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "pipeline_run_duration_seconds",
		Help:    "Wall time of one profile's pipeline run.",
		Buckets: prometheus.DefBuckets,
	})
	BatchSize = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "pipeline_batch_size",
		Help:    "Signals per finalized batch.",
		Buckets: []float64{0, 5, 10, 15, 20, 25, 30, 40, 50},
	})
)

// MustRegister registers all pipeline collectors.
func MustRegister(registerer prometheus.Registerer) {
	registerer.MustRegister(
		RunsTotal,
		RunFailures,
		RunsRejected,
		SignalsScored,
		SignalsRejected,
		RunDuration,
		BatchSize,
	)
}
