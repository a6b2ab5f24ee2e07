// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	AnalysesCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analyses_completed_total",
			Help: "Total number of analyses completed by category",
		},
		[]string{"category"},
	)

	AnalysesFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analyses_failed_total",
			Help: "Total number of analyses failed by category",
		},
		[]string{"category", "error_code"},
	)

	AnalysisDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "analysis_duration_seconds",
			Help: "Duration of analysis pipeline processing in seconds",
		},
		[]string{"category"},
	)

	SQLGenerationAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sql_generation_attempts_total",
			Help: "SQL generation attempts by tier and outcome",
		},
		[]string{"tier", "outcome"},
	)

	QueryRowsReturned = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "query_rows_returned",
			Help:    "Rows returned per executed analysis query",
			Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 250, 500},
		},
		[]string{"category"},
	)
)
