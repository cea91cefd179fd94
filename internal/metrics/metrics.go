// Package metrics provides Prometheus metrics for the backup service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RunAttempts tracks the total number of backup runs.
	RunAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gfs_backup_runs_total",
		Help: "Total number of backup runs",
	}, []string{"status"})

	// SourceAttempts tracks per-source backup attempts.
	SourceAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gfs_backup_source_attempts_total",
		Help: "Total number of per-source backup attempts",
	}, []string{"source", "status"})

	// RunDuration tracks the duration of backup phases.
	RunDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "gfs_backup_duration_seconds",
		Help:    "Duration of backup phases in seconds",
		Buckets: prometheus.ExponentialBuckets(1, 2, 10), // 1s to ~17min
	}, []string{"phase"})

	// ArchiveSize tracks the size of the last archive per source.
	ArchiveSize = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "gfs_backup_archive_size_bytes",
		Help: "Size of the last produced archive in bytes",
	}, []string{"source"})

	// StorageOperations tracks storage operations.
	StorageOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gfs_backup_storage_operations_total",
		Help: "Total number of storage operations",
	}, []string{"operation", "provider", "status"})

	// RunsSkipped tracks runs skipped by the minimum interval guard.
	RunsSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gfs_backup_runs_skipped_total",
		Help: "Total number of runs skipped because a recent backup exists",
	})

	// LastSuccessTimestamp tracks when the last successful run finished.
	LastSuccessTimestamp = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "gfs_backup_last_success_timestamp",
		Help: "Unix timestamp of the last successful backup run",
	})

	// ObjectsDeleted tracks objects removed by retention, per tier.
	ObjectsDeleted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gfs_backup_objects_deleted_total",
		Help: "Total number of objects deleted by retention",
	}, []string{"tier"})

	// ObjectsKept tracks objects retained in the last prune, per tier.
	ObjectsKept = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "gfs_backup_objects_kept",
		Help: "Objects kept by the most recent retention pass",
	}, []string{"tier"})

	// Info provides static information about the service.
	Info = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "gfs_backup_info",
		Help: "Information about the backup service",
	}, []string{"version", "storage_provider", "layout"})
)

// RecordRun records a whole backup run with its status.
func RecordRun(success bool) {
	RunAttempts.WithLabelValues(status(success)).Inc()
}

// RecordSourceAttempt records one source's backup attempt.
func RecordSourceAttempt(source string, success bool) {
	SourceAttempts.WithLabelValues(source, status(success)).Inc()
}

// RecordStorageOperation records a storage operation.
func RecordStorageOperation(operation, provider string, success bool) {
	StorageOperations.WithLabelValues(operation, provider, status(success)).Inc()
}

func status(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}
