package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "jobmatch"

// Cache lookup outcomes.
const (
	CacheHit    = "hit"
	CacheMiss   = "miss"
	CacheStale  = "stale"
	CacheBypass = "bypass"
	// CacheFillTimeout counts waiters that gave up on a single-flight fill.
	CacheFillTimeout = "fill_timeout"
)

// Search, cache and recommendation Prometheus metrics.
var (
	CacheResultsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_results_total",
			Help:      "Cache lookups by outcome",
		},
		[]string{"result"},
	)

	CacheInvalidationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_invalidations_total",
			Help:      "Tag invalidations by origin",
		},
		[]string{"origin"}, // "local" / "remote"
	)

	SearchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_duration_seconds",
			Help:      "Time to rank a search query against the index",
			Buckets:   []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
		},
		[]string{"mode"},
	)

	IndexDocuments = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "index_documents",
			Help:      "Documents in the current index snapshot",
		},
	)

	IndexMutationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "index_mutations_total",
			Help:      "Job mutations by operation and outcome",
		},
		[]string{"op", "result"}, // result: "applied" / "ignored"
	)

	IndexInconsistentTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "index_inconsistent_total",
			Help:      "Ranked or recommended jobs missing from the index snapshot",
		},
	)

	RecommendationBatchRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recommendation_batch_runs_total",
			Help:      "Recommendation batch runs by outcome",
		},
		[]string{"result"}, // "completed" / "partial" / "skipped" / "failed"
	)

	RecommendationBatchUsersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recommendation_batch_users_total",
			Help:      "Users processed by recommendation batches",
		},
		[]string{"result"}, // "ok" / "error"
	)

	RecommendationRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recommendation_requests_total",
			Help:      "On-demand recommendation reads by source",
		},
		[]string{"source"}, // "persisted" / "computed" / "stale" / "popular"
	)
)

var registered bool

// RegisterMetrics registers the domain Prometheus metrics. Must be called once from main.
func RegisterMetrics() {
	if registered {
		return
	}
	prometheus.MustRegister(CacheResultsTotal)
	prometheus.MustRegister(CacheInvalidationsTotal)
	prometheus.MustRegister(SearchDuration)
	prometheus.MustRegister(IndexDocuments)
	prometheus.MustRegister(IndexMutationsTotal)
	prometheus.MustRegister(IndexInconsistentTotal)
	prometheus.MustRegister(RecommendationBatchRunsTotal)
	prometheus.MustRegister(RecommendationBatchUsersTotal)
	prometheus.MustRegister(RecommendationRequestsTotal)
	prometheus.MustRegister(httpRequestDuration)
	prometheus.MustRegister(httpRequestsTotal)
	prometheus.MustRegister(httpRequestsInFlight)
	registered = true
}
