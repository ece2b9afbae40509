package metrics

import "github.com/prometheus/client_golang/prometheus"

// Search pipeline Prometheus metrics.
var (
	SearchCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "zokey",
			Name:      "search_cache_total",
			Help:      "Search cache lookups by outcome",
		},
		[]string{"result"}, // "hit" / "miss" / "error"
	)

	ProviderRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "zokey",
			Name:      "provider_requests_total",
			Help:      "Total number of external provider requests",
		},
		[]string{"provider", "status"},
	)

	ProviderRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "zokey",
			Name:      "provider_request_duration_seconds",
			Help:      "External provider request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"provider"},
	)

	FallbackTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "zokey",
			Name:      "fallback_total",
			Help:      "Local fallbacks taken after provider failures",
		},
		[]string{"component"}, // "retrieval" / "ranking"
	)

	RankingBudgetTokensRemaining = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "zokey",
			Name:      "ranking_budget_tokens_remaining",
			Help:      "Ranking model tokens left in the current budget window (-1 = unlimited)",
		},
		[]string{"provider", "window"}, // window: "daily" / "monthly"
	)
)

var searchMetricsRegistered bool

// RegisterSearchMetrics registers the search pipeline metrics. Must be called once from main.
func RegisterSearchMetrics() {
	if searchMetricsRegistered {
		return
	}
	prometheus.MustRegister(SearchCacheTotal)
	prometheus.MustRegister(ProviderRequestsTotal)
	prometheus.MustRegister(ProviderRequestDuration)
	prometheus.MustRegister(FallbackTotal)
	prometheus.MustRegister(RankingBudgetTokensRemaining)
	searchMetricsRegistered = true
}
