// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// RequestsTotal counts HTTP requests by method, route and status.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.3, 1, 3},
		},
		[]string{"method", "route"},
	)

	InFlightRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_in_flight_requests",
			Help: "Current number of in-flight HTTP requests",
		},
	)

	// SlugConflicts counts project creations that lost a slug race and were retried.
	SlugConflicts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "projecthub_slug_conflicts_total",
			Help: "Total number of slug collisions detected at insert time",
		},
	)

	// ProjectLeaves counts leave operations by outcome (left, transferred, deleted).
	ProjectLeaves = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "projecthub_project_leave_total",
			Help: "Total number of members leaving a project, by outcome",
		},
		[]string{"outcome"},
	)
)

// Handler returns the HTTP handler serving the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
