// Package observability provides metrics and tracing.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// LedgerToggles counts engagement toggles by ledger kind and resulting state.
	LedgerToggles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "showcase_ledger_toggles_total",
		Help: "Engagement toggles by kind and outcome",
	}, []string{"kind", "outcome"})

	// CounterRepairs counts parent rows whose denormalized counter was corrected.
	CounterRepairs = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "showcase_counter_repairs_total",
		Help: "Denormalized counters corrected by the repair path",
	}, []string{"kind"})

	// SnapshotPropagations counts snapshot fan-outs by target kind and outcome.
	SnapshotPropagations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "showcase_snapshot_propagations_total",
		Help: "Profile snapshot propagations by target kind and outcome",
	}, []string{"kind", "outcome"})

	// BlobDeletes counts blob store destroy calls by outcome.
	BlobDeletes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "showcase_blob_deletes_total",
		Help: "Blob store destroy calls by outcome",
	}, []string{"outcome"})

	// RankingLatency records feed ranking latency by source and mode.
	RankingLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "showcase_ranking_latency_seconds",
		Help:    "Feed ranking latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"source", "mode"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "showcase_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})
)

// TrackQuery returns a function that records query latency when called (e.g. defer).
func TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}

// TrackRanking returns a function that records ranking latency when called.
func TrackRanking(source, mode string) func() {
	start := time.Now()
	return func() {
		RankingLatency.WithLabelValues(source, mode).Observe(time.Since(start).Seconds())
	}
}
