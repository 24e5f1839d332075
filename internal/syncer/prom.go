package syncer

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	syncRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tirepulse",
		Subsystem: "sync",
		Name:      "runs_total",
		Help:      "Sync runs by terminal status.",
	}, []string{"status"})

	filesSyncedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tirepulse",
		Subsystem: "sync",
		Name:      "files_total",
		Help:      "Files processed by type and terminal status.",
	}, []string{"file_type", "status"})

	recordsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tirepulse",
		Subsystem: "sync",
		Name:      "records_total",
		Help:      "Records by load outcome.",
	}, []string{"outcome"})

	fileDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "tirepulse",
		Subsystem: "sync",
		Name:      "file_duration_seconds",
		Help:      "Per-file sync duration.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"file_type"})
)
