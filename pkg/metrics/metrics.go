package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Analysis cache
	AnalysisCacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stockpilot_analysis_cache_hits_total",
			Help: "Analysis results served from the in-process cache",
		},
		[]string{"operation"},
	)

	AnalysisCacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stockpilot_analysis_cache_misses_total",
			Help: "Analysis requests that had to be recomputed",
		},
		[]string{"operation"},
	)

	AnalysisCacheEvictions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "stockpilot_analysis_cache_evictions_total",
			Help: "Cache entries removed by TTL expiry or size bound",
		},
	)

	AnalysisFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stockpilot_analysis_fallbacks_total",
			Help: "Analysis requests answered with a fallback payload",
		},
		[]string{"operation"},
	)

	AnalysisDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "stockpilot_analysis_duration_seconds",
			Help:    "Time spent computing an analysis on cache miss",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10), // 50ms to ~25s
		},
		[]string{"operation"},
	)

	// AI dispatch
	AIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stockpilot_ai_requests_total",
			Help: "Strategy calls by outcome (success, error, fallback)",
		},
		[]string{"strategy", "kind", "status"},
	)

	AIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "stockpilot_ai_request_duration_seconds",
			Help:    "Strategy call duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10), // 100ms to ~1min
		},
		[]string{"strategy"},
	)

	// HTTP
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stockpilot_http_requests_total",
			Help: "HTTP requests by route and status code",
		},
		[]string{"method", "route", "status"},
	)
)
