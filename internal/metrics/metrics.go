// Package metrics exposes the service's Prometheus instrumentation. All
// collectors are registered on the default registry and served by the API's
// /metrics endpoint.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AnalysesTotal counts completed analyses by outcome
	// (completed, degraded, input_error, timeout)
	AnalysesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "aichecker_analyses_total",
		Help: "Total analyses by outcome",
	}, []string{"outcome"})

	// AnalysisDuration observes end-to-end pipeline latency
	AnalysisDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "aichecker_analysis_duration_seconds",
		Help:    "End-to-end analysis duration",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
	})

	// CacheLookups counts report cache hits and misses
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "aichecker_cache_lookups_total",
		Help: "Report cache lookups by result",
	}, []string{"result"})

	// ClassifierResults counts classifier gateway outcomes by source path
	ClassifierResults = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "aichecker_classifier_results_total",
		Help: "AI-detection results by source path",
	}, []string{"source"})

	// ChunkSearchFailures counts per-chunk search failures tolerated by the
	// plagiarism branch
	ChunkSearchFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "aichecker_chunk_search_failures_total",
		Help: "Chunk searches recorded as no-match due to provider failure",
	})
)
