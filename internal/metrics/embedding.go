package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const embeddingSubsystem = "embedding"

// Query embedding metrics. Every search embeds exactly one query, so request
// counts here track search traffic minus cache hits.
var (
	EmbeddingRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "shelfsearch",
			Subsystem: embeddingSubsystem,
			Name:      "requests_total",
			Help:      "Query embedding calls to the provider",
		},
		[]string{"provider", "model", "status"},
	)

	EmbeddingRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "shelfsearch",
			Subsystem: embeddingSubsystem,
			Name:      "request_duration_seconds",
			Help:      "Provider latency of a query embedding call",
			Buckets:   []float64{0.025, 0.05, 0.1, 0.2, 0.4, 0.8, 1.6, 3.2},
		},
		[]string{"provider", "model"},
	)

	EmbeddingTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "shelfsearch",
			Subsystem: embeddingSubsystem,
			Name:      "tokens_total",
			Help:      "Tokens billed for query embeddings",
		},
		[]string{"provider", "model", "type"},
	)

	EmbeddingErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "shelfsearch",
			Subsystem: embeddingSubsystem,
			Name:      "errors_total",
			Help:      "Failed query embedding calls by error class",
		},
		[]string{"provider", "model", "error_type"},
	)

	EmbeddingBudgetTokensRemaining = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "shelfsearch",
			Subsystem: embeddingSubsystem,
			Name:      "budget_tokens_remaining",
			Help:      "Tokens left in the budget window, -1 when unlimited",
		},
		[]string{"provider", "period"},
	)

	EmbeddingBudgetExceededTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "shelfsearch",
			Subsystem: embeddingSubsystem,
			Name:      "budget_exceeded_total",
			Help:      "Searches that arrived with an exhausted token budget",
		},
		[]string{"provider", "action"}, // action: "warn" / "reject"
	)

	EmbeddingCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "shelfsearch",
			Subsystem: embeddingSubsystem,
			Name:      "cache_total",
			Help:      "Query vector cache lookups",
		},
		[]string{"result"}, // "hit" / "miss"
	)
)

var registerEmbedding sync.Once

// RegisterEmbeddingMetrics registers the query embedding metrics with the default registry.
// Repeated calls are no-ops.
func RegisterEmbeddingMetrics() {
	registerEmbedding.Do(func() {
		register(
			EmbeddingRequestsTotal,
			EmbeddingRequestDuration,
			EmbeddingTokensTotal,
			EmbeddingErrorsTotal,
			EmbeddingBudgetTokensRemaining,
			EmbeddingBudgetExceededTotal,
			EmbeddingCacheTotal,
		)
	})
}
