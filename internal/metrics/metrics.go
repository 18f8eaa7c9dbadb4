// Package metrics exposes the service's Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "receipt_cache_hits_total",
		Help: "Content cache hits during extraction.",
	})
	CacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "receipt_cache_misses_total",
		Help: "Content cache misses during extraction.",
	})
	CacheWriteFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "receipt_cache_write_failures_total",
		Help: "Non-fatal cache write failures.",
	})
	FetchAttempts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "receipt_fetch_attempts_total",
		Help: "Upstream HTTP fetch attempts, including retries.",
	})
	FetchRetries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "receipt_fetch_retries_total",
		Help: "Upstream HTTP fetch retries after a transient failure.",
	})
	Extractions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "receipt_extractions_total",
		Help: "Completed extraction pipeline runs by outcome.",
	}, []string{"outcome"})
	ExtractionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "receipt_extraction_duration_seconds",
		Help:    "Wall time of one extraction pipeline run.",
		Buckets: prometheus.DefBuckets,
	})
)
