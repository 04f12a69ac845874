// Package metrics holds the Prometheus collectors shared by the search driver,
// the factorization cache and the HTTP server.
package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "bmfapprox"

type Metrics struct {
	Candidates        prometheus.Counter
	SynthesisFailures prometheus.Counter
	Iterations        prometheus.Counter
	Checkpoints       *prometheus.CounterVec
	BestError         prometheus.Gauge
	BestArea          prometheus.Gauge
	CacheHits         prometheus.Counter
	CacheMisses       prometheus.Counter
	FactorizeSeconds  prometheus.Histogram
}

// New creates the collectors and registers them on reg. A nil registerer
// leaves them unregistered, which is what tests want.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Candidates: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "search",
			Name:      "candidates_evaluated_total",
			Help:      "Candidate k-streams dispatched to the evaluator.",
		}),
		SynthesisFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "search",
			Name:      "synthesis_failures_total",
			Help:      "Candidates dropped because their evaluation failed.",
		}),
		Iterations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "search",
			Name:      "iterations_total",
			Help:      "Completed search iterations.",
		}),
		Checkpoints: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "search",
			Name:      "checkpoints_total",
			Help:      "Checkpoints written, by reason.",
		}, []string{"reason"}),
		BestError: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "search",
			Name:      "best_error",
			Help:      "Error of the top ranked candidate of the last iteration.",
		}),
		BestArea: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "search",
			Name:      "best_area",
			Help:      "Area of the top ranked candidate of the last iteration.",
		}),
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bmf",
			Name:      "cache_hits_total",
			Help:      "Factorizations served from memory or disk.",
		}),
		CacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bmf",
			Name:      "cache_misses_total",
			Help:      "Factorizations computed.",
		}),
		FactorizeSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "bmf",
			Name:      "factorize_duration_seconds",
			Help:      "Time spent computing one factorization.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 10),
		}),
	}
	if reg != nil {
		reg.MustRegister(
			m.Candidates,
			m.SynthesisFailures,
			m.Iterations,
			m.Checkpoints,
			m.BestError,
			m.BestArea,
			m.CacheHits,
			m.CacheMisses,
			m.FactorizeSeconds,
		)
	}
	return m
}
