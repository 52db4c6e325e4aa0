package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Search pipeline Prometheus metrics.
var (
	SearchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "shelfsearch",
			Name:      "search_duration_seconds",
			Help:      "Search pipeline duration in seconds",
			Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"outcome"}, // "ok" / "no_results" / "error"
	)

	SearchStageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "shelfsearch",
			Name:      "search_stage_duration_seconds",
			Help:      "Duration of individual search pipeline stages",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"stage"},
	)

	RulesAppliedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "shelfsearch",
			Name:      "rules_applied_total",
			Help:      "Merchandising rules that changed a result set, by rule type",
		},
		[]string{"type"},
	)

	SearchResults = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "shelfsearch",
			Name:      "search_results",
			Help:      "Number of products returned per search",
			Buckets:   []float64{0, 1, 5, 10, 20, 50, 100},
		},
	)

	HydrationMissesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "shelfsearch",
			Name:      "hydration_misses_total",
			Help:      "Ranked candidates dropped because no product record was found",
		},
	)
)

var registerSearch sync.Once

// RegisterSearchMetrics registers the search pipeline metrics with the default registry.
// Repeated calls are no-ops.
func RegisterSearchMetrics() {
	registerSearch.Do(func() {
		register(SearchDuration, SearchStageDuration, RulesAppliedTotal, SearchResults, HydrationMissesTotal)
	})
}

func register(cs ...prometheus.Collector) {
	for _, c := range cs {
		prometheus.MustRegister(c)
	}
}
