package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RunsStarted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "scout_runs_started_total",
			Help: "Total number of workflow runs started",
		},
	)

	RunsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scout_runs_completed_total",
			Help: "Total number of workflow runs finished, by status",
		},
		[]string{"status"},
	)

	ActiveRuns = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "scout_active_runs",
			Help: "Workflow runs currently executing",
		},
	)

	StepDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "scout_step_duration_seconds",
			Help:    "Workflow step execution duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"step"},
	)

	SearchFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scout_search_failures_total",
			Help: "Information source queries that failed and were replaced by a placeholder",
		},
		[]string{"backend"},
	)

	ParseFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scout_llm_parse_fallbacks_total",
			Help: "Model responses that could not be used and fell back to defaults",
		},
		[]string{"component"},
	)

	ChatFrames = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scout_chat_frames_total",
			Help: "Stream frames sent to clients, by frame type",
		},
		[]string{"type"},
	)
)
