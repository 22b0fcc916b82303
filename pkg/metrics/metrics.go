// Package metrics exposes Prometheus instrumentation for the research
// pipeline. Collectors register themselves on import via promauto; the
// server mounts promhttp.Handler on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RunsStarted counts research runs that entered the pipeline.
	RunsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "deepresearch_runs_started_total",
		Help: "Research runs started.",
	})

	// RunsFinished counts runs that reached a terminal stage, by status.
	RunsFinished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "deepresearch_runs_finished_total",
		Help: "Research runs finished, partitioned by terminal status.",
	}, []string{"status"})

	// StageDuration tracks how long each pipeline stage takes. Buckets are
	// sized for LLM round trips, not request handlers.
	StageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "deepresearch_stage_duration_seconds",
		Help:    "Wall-clock duration of pipeline stages.",
		Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
	}, []string{"stage"})

	// SearchesTotal counts search task executions, by outcome.
	SearchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "deepresearch_searches_total",
		Help: "Search tasks executed, partitioned by outcome.",
	}, []string{"outcome"})

	// NotificationsTotal counts report delivery attempts, by outcome.
	NotificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "deepresearch_notifications_total",
		Help: "Report notifications attempted, partitioned by outcome.",
	}, []string{"outcome"})
)
