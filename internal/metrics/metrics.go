// Railops - Backup, Restore, and Deployment Operations for Django Stacks
// Copyright 2026 Rail Labs (raillab)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/raillab/railops

// Package metrics instruments Railops operations for Prometheus.
// The ops daemon exposes these on /metrics; one-shot CLI runs record them
// too, which keeps the instrumentation paths identical in both modes.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Backup Metrics
	BackupDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "railops_backup_duration_seconds",
			Help:    "Duration of backup runs in seconds",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"kind"},
	)

	BackupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "railops_backups_total",
			Help: "Total number of backup runs by kind and outcome",
		},
		[]string{"kind", "status"},
	)

	BackupArtifactBytes = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "railops_backup_last_artifact_bytes",
			Help: "Size of the most recent backup artifact in bytes",
		},
		[]string{"kind"},
	)

	RetentionPrunedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "railops_retention_pruned_total",
			Help: "Total number of database artifacts removed by retention pruning",
		},
	)

	RetentionPruneFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "railops_retention_prune_failures_total",
			Help: "Total number of artifacts retention pruning failed to remove",
		},
	)

	// Restore Metrics
	RestoresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "railops_restores_total",
			Help: "Total number of restore runs by kind and outcome",
		},
		[]string{"kind", "status"},
	)

	// Scheduler Metrics
	ScheduledRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "railops_scheduled_runs_total",
			Help: "Total number of scheduler-triggered backup runs by kind and outcome",
		},
		[]string{"kind", "status"},
	)

	SchedulerNextRun = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "railops_scheduler_next_run_timestamp_seconds",
			Help: "Unix time of the next scheduled run per backup kind",
		},
		[]string{"kind"},
	)

	SchedulerSkippedOverlaps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "railops_scheduler_skipped_overlaps_total",
			Help: "Scheduled runs skipped because the previous run was still active",
		},
		[]string{"kind"},
	)

	// Deployment Metrics
	DeploysTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "railops_deploys_total",
			Help: "Total number of deployment runs by outcome",
		},
		[]string{"status"},
	)

	HealthPollAttempts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "railops_health_poll_attempts_total",
			Help: "Total number of health probes issued during deployments",
		},
	)
)

// RecordBackup records one backup run.
func RecordBackup(kind string, duration time.Duration, sizeBytes int64, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	BackupsTotal.WithLabelValues(kind, status).Inc()
	if err == nil {
		BackupDuration.WithLabelValues(kind).Observe(duration.Seconds())
		if sizeBytes > 0 {
			BackupArtifactBytes.WithLabelValues(kind).Set(float64(sizeBytes))
		}
	}
}

// RecordRestore records one restore run.
func RecordRestore(kind string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	RestoresTotal.WithLabelValues(kind, status).Inc()
}

// RecordPrune records the outcome of one retention pruning pass.
func RecordPrune(removed, failed int) {
	RetentionPrunedTotal.Add(float64(removed))
	RetentionPruneFailures.Add(float64(failed))
}

// RecordScheduledRun records a scheduler-triggered backup outcome.
func RecordScheduledRun(kind string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	ScheduledRunsTotal.WithLabelValues(kind, status).Inc()
}

// SetNextRun publishes the next scheduled run time for a kind.
func SetNextRun(kind string, at time.Time) {
	SchedulerNextRun.WithLabelValues(kind).Set(float64(at.Unix()))
}

// RecordDeploy records one deployment outcome.
func RecordDeploy(err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	DeploysTotal.WithLabelValues(status).Inc()
}
