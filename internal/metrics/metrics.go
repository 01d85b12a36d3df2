// Package metrics holds the Prometheus collectors shared by the search, embedding and indexing paths.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "kotae"

var (
	// SearchesTotal counts hybrid searches.
	// Labels: result (ok, partial, error)
	SearchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "search",
			Name:      "requests_total",
			Help:      "Total number of hybrid searches by outcome",
		},
		[]string{"result"},
	)

	// SearchDuration tracks end-to-end hybrid search latency.
	SearchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "search",
			Name:      "duration_seconds",
			Help:      "Duration of hybrid searches in seconds",
			Buckets:   prometheus.DefBuckets,
		},
	)

	// SubsearchFailures counts failed sub-searches.
	// Labels: side (lexical, vector)
	SubsearchFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "search",
			Name:      "subsearch_failures_total",
			Help:      "Total number of failed lexical or vector sub-searches",
		},
		[]string{"side"},
	)

	// EmbeddingDuration tracks provider call latency. Cache hits are not observed.
	// Labels: result (ok, error)
	EmbeddingDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "embedding",
			Name:      "duration_seconds",
			Help:      "Duration of embedding provider calls in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"result"},
	)

	// EmbeddingCacheHits counts embedding cache hits.
	EmbeddingCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "embedding",
			Name:      "cache_hits_total",
			Help:      "Total number of embedding cache hits",
		},
	)

	// VectorsTotal is the number of vectors held by the store.
	VectorsTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "vector",
			Name:      "vectors_total",
			Help:      "Number of vectors currently held by the vector store",
		},
	)

	// VectorizeTotal counts single-record vectorizations.
	// Labels: result (ok, error)
	VectorizeTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "indexer",
			Name:      "vectorize_total",
			Help:      "Total number of record vectorizations by outcome",
		},
		[]string{"result"},
	)

	// PersistTotal counts vector store snapshots.
	// Labels: result (ok, error)
	PersistTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "vector",
			Name:      "persist_total",
			Help:      "Total number of vector store snapshot writes by outcome",
		},
		[]string{"result"},
	)
)

// Result maps an error to the ok/error label value.
func Result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// ObserveEmbedding records one provider call.
func ObserveEmbedding(start time.Time, err error) {
	EmbeddingDuration.WithLabelValues(Result(err)).Observe(time.Since(start).Seconds())
}
