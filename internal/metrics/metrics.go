// Filmgraph - Social Film Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/filmgraph

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Database Metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "filmgraph_db_query_duration_seconds",
			Help:    "Duration of DuckDB queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "filmgraph_db_query_errors_total",
			Help: "Total number of DuckDB query errors",
		},
		[]string{"operation", "table", "error_type"},
	)

	DBRowsIngested = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "filmgraph_db_rows_ingested_total",
			Help: "Rows written by the ingest path, by table",
		},
		[]string{"table"},
	)

	// Scoring Metrics
	ScoringDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "filmgraph_scoring_duration_seconds",
			Help:    "Duration of scoring operations in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"operation", "mode"},
	)

	ScoringErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "filmgraph_scoring_errors_total",
			Help: "Total number of failed scoring operations",
		},
		[]string{"operation"},
	)

	ScoredFilms = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "filmgraph_scored_films",
			Help:    "Number of candidate films ranked per request",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		},
	)

	FolloweesConsidered = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "filmgraph_followees_considered",
			Help:    "Number of followees contributing to a scoring request",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		},
	)

	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "filmgraph_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "filmgraph_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "filmgraph_api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "filmgraph_api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"endpoint"},
	)
)

// maxErrorLabel bounds the cardinality of error_type labels.
const maxErrorLabel = 50

// RecordDBQuery records a database query metric
func RecordDBQuery(operation, table string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
	if err != nil {
		errorType := err.Error()
		if len(errorType) > maxErrorLabel {
			errorType = errorType[:maxErrorLabel]
		}
		DBQueryErrors.WithLabelValues(operation, table, errorType).Inc()
	}
}

// RecordIngest counts rows written to a table.
func RecordIngest(table string, rows int) {
	if rows > 0 {
		DBRowsIngested.WithLabelValues(table).Add(float64(rows))
	}
}

// RecordScoring records one scoring operation. Mode may be empty for
// operations that do not aggregate (similarity, explain).
func RecordScoring(operation, mode string, duration time.Duration, err error) {
	ScoringDuration.WithLabelValues(operation, mode).Observe(duration.Seconds())
	if err != nil {
		ScoringErrors.WithLabelValues(operation).Inc()
	}
}

// RecordScoringSize records the candidate and followee counts of a request.
func RecordScoringSize(films, followees int) {
	ScoredFilms.Observe(float64(films))
	FolloweesConsidered.Observe(float64(followees))
}

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordRateLimitHit counts a rejected request.
func RecordRateLimitHit(endpoint string) {
	APIRateLimitHits.WithLabelValues(endpoint).Inc()
}

// TrackActiveRequest increments or decrements the active request gauge
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}
