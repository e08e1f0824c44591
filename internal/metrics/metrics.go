// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP Metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wordcards_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "wordcards_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)

	ActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "wordcards_http_active_requests",
			Help: "Current number of active HTTP requests",
		},
	)

	// Store Metrics
	StoreOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "wordcards_store_operation_duration_seconds",
			Help:    "Duration of progress store operations",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 5},
		},
		[]string{"operation"}, // load, upsert_word, recompute_category, touch_account_day
	)

	StoreErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wordcards_store_errors_total",
			Help: "Progress store operations that failed or timed out",
		},
		[]string{"operation"},
	)

	// Learning Metrics
	WordsMarkedLearned = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wordcards_words_marked_learned_total",
			Help: "Total number of mark-learned events",
		},
	)

	QuizzesGraded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wordcards_quizzes_graded_total",
			Help: "Total number of graded quizzes",
		},
		[]string{"result"}, // passed, failed
	)

	ReconcileRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wordcards_reconcile_runs_total",
			Help: "Background reconciliation runs",
		},
		[]string{"status"},
	)

	// Authentication Metrics
	AuthAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wordcards_auth_attempts_total",
			Help: "Total number of authentication attempts",
		},
		[]string{"status", "type"}, // success/failure, signin/signup/oauth
	)
)
