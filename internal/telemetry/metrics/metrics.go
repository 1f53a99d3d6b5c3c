// Package metrics holds the Prometheus collectors shared across the service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// UpstreamRequests counts wrapper API calls by endpoint and outcome.
	UpstreamRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "trenchwatch",
		Name:      "upstream_requests_total",
		Help:      "Upstream wrapper API requests by endpoint and status.",
	}, []string{"endpoint", "status"})

	// UpstreamDuration tracks wrapper API latency by endpoint.
	UpstreamDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "trenchwatch",
		Name:      "upstream_request_seconds",
		Help:      "Upstream wrapper API request duration.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"endpoint"})

	// CacheHits and CacheMisses track the freshness cache.
	CacheHits = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "trenchwatch",
		Name:      "cache_hits_total",
		Help:      "Freshness cache hits.",
	})
	CacheMisses = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "trenchwatch",
		Name:      "cache_misses_total",
		Help:      "Freshness cache misses.",
	})

	// SignalsEmitted counts detector output by signal type.
	SignalsEmitted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "trenchwatch",
		Name:      "signals_emitted_total",
		Help:      "Signals emitted by detector type.",
	}, []string{"type"})
)

func init() {
	prometheus.MustRegister(
		UpstreamRequests,
		UpstreamDuration,
		CacheHits,
		CacheMisses,
		SignalsEmitted,
	)
}
