package workflow

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	stageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "prdinsights",
			Subsystem: "workflow",
			Name:      "stage_duration_seconds",
			Help:      "Duration of workflow stages and fan-out tasks in seconds.",
			Buckets:   []float64{0.01, 0.1, 0.5, 1, 5, 15, 30, 60, 180},
		},
		[]string{"stage"},
	)

	// toolCallsTotal labels outcome with "applied" or "rejected".
	toolCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "prdinsights",
			Subsystem: "workflow",
			Name:      "tool_calls_total",
			Help:      "Tool calls interpreted by outcome.",
		},
		[]string{"stage", "tool", "outcome"},
	)

	runsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "prdinsights",
			Subsystem: "workflow",
			Name:      "runs_total",
			Help:      "Workflow runs by mode and status.",
		},
		[]string{"mode", "status"},
	)

	degradedChunksTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "prdinsights",
			Subsystem: "workflow",
			Name:      "degraded_chunks_total",
			Help:      "Chunk validations that failed and contributed nothing.",
		},
	)
)
