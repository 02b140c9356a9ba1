package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	CacheHitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pamekids_location_cache_hits_total",
		Help: "Location cache hits by tier (memory, persistent)",
	}, []string{"tier"})
	CacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pamekids_location_cache_misses_total",
		Help: "Location cache lookups that required a remote fetch",
	})
	StoreFetchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pamekids_store_fetches_total",
		Help: "Remote collection fetches by result",
	}, []string{"result"})
	StoreFetchDurationMs = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pamekids_store_fetch_duration_ms",
		Help:    "Remote collection fetch duration in milliseconds",
		Buckets: []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
	})
	BackgroundRefreshTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pamekids_background_refresh_total",
		Help: "Background cache refreshes by result",
	}, []string{"result"})
	SearchRequestsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pamekids_search_requests_total",
		Help: "Total search queries evaluated",
	})
	SearchDurationMs = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pamekids_search_duration_ms",
		Help:    "Search evaluation duration in milliseconds",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50},
	})
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pamekids_http_requests_total",
		Help: "HTTP requests by method and status code",
	}, []string{"method", "status"})
)

// Handler exposes registered metrics for scraping.
func Handler() http.Handler { return promhttp.Handler() }
