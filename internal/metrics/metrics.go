package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Quote metrics
	QuoteRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "swap_quoter_quote_requests_total",
			Help: "Total number of best-trade computations",
		},
		[]string{"trade_type", "state"},
	)

	QuoteDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "swap_quoter_quote_duration_seconds",
			Help:    "Best-trade computation duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
		[]string{"trade_type"},
	)

	RouteCandidates = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "swap_quoter_route_candidates",
		Help:    "Number of candidate routes enumerated per quote",
		Buckets: []float64{0, 1, 2, 4, 8, 16, 32, 64},
	})

	RouteCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "swap_quoter_route_cache_hits_total",
		Help: "Total number of memoized route enumerations served",
	})

	// Simulation metrics
	Simulations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "swap_quoter_simulations_total",
			Help: "Total number of candidate simulations by outcome",
		},
		[]string{"outcome"},
	)

	SimulationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "swap_quoter_simulation_duration_seconds",
		Help:    "Single candidate simulation duration in seconds",
		Buckets: prometheus.DefBuckets,
	})

	// Pool cache metrics
	PoolCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "swap_quoter_pool_cache_hits_total",
		Help: "Total number of pool snapshot cache hits",
	})

	PoolCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "swap_quoter_pool_cache_misses_total",
		Help: "Total number of pool snapshot cache misses",
	})

	// HTTP metrics
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "swap_quoter_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "swap_quoter_http_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

// Simulation outcomes
const (
	OutcomeSuccess  = "success"
	OutcomeReverted = "reverted"
	OutcomeError    = "error"
	OutcomeTimeout  = "timeout"
)
