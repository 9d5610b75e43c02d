package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// Swap attempts by terminal state and failure reason. Reason is
	// empty for confirmed attempts.
	swapAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gasless",
			Subsystem: "swap",
			Name:      "attempts_total",
			Help:      "Total number of swap attempts by terminal state",
		},
		[]string{"state", "reason"},
	)

	// Time spent per attempt stage (approval, swap)
	swapStageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "gasless",
			Subsystem: "swap",
			Name:      "stage_duration_seconds",
			Help:      "Duration of swap attempt stages from submission to receipt",
			Buckets:   []float64{1, 2, 5, 10, 30, 60, 120, 300},
		},
		[]string{"stage"},
	)

	// Quotes issued per token pair
	swapQuotesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gasless",
			Subsystem: "swap",
			Name:      "quotes_total",
			Help:      "Total number of quotes computed",
		},
		[]string{"from", "to"},
	)
)

// SwapMetrics provides methods to update swap attempt metrics
type SwapMetrics struct{}

// NewSwapMetrics creates a new instance of SwapMetrics
func NewSwapMetrics() *SwapMetrics {
	return &SwapMetrics{}
}

// RecordAttempt records a swap attempt reaching a terminal state.
// Reason should be empty for confirmed attempts.
func (sm *SwapMetrics) RecordAttempt(state, reason string) {
	swapAttemptsTotal.WithLabelValues(state, reason).Inc()
}

// RecordStageDuration records how long one stage of an attempt took
// from submission to receipt resolution.
func (sm *SwapMetrics) RecordStageDuration(stage string, duration time.Duration) {
	swapStageDuration.WithLabelValues(stage).Observe(duration.Seconds())
}

// RecordQuote records a quote computed for a token pair.
func (sm *SwapMetrics) RecordQuote(from, to string) {
	swapQuotesTotal.WithLabelValues(from, to).Inc()
}
