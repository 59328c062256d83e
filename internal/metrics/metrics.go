// Package metrics exposes Prometheus counters for the engine. They live on
// their own registry; the engine serves no scrape endpoint itself, the
// embedding service decides whether and how to expose them.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds every engine collector.
var Registry = prometheus.NewRegistry()

var (
	Computations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "chartist",
		Name:      "computations_total",
		Help:      "Indicator computations actually executed (cache misses).",
	}, []string{"indicator"})

	CacheHits = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "chartist",
		Name:      "cache_hits_total",
		Help:      "Result cache lookups served without recomputation.",
	})

	CacheMisses = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "chartist",
		Name:      "cache_misses_total",
		Help:      "Result cache lookups that triggered a computation.",
	})

	SignalsEmitted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "chartist",
		Name:      "signals_emitted_total",
		Help:      "Signals produced by the normalizer.",
	}, []string{"type"})
)

func init() {
	Registry.MustRegister(Computations, CacheHits, CacheMisses, SignalsEmitted)
}
