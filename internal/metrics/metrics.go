// Package metrics declares the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "beautytracker_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "beautytracker_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// IdentifiedItemsTotal counts identification candidates by outcome:
	// created, matched or skipped.
	IdentifiedItemsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "beautytracker_identified_items_total",
			Help: "Products returned by the vision model, by pipeline outcome",
		},
		[]string{"status"},
	)

	// ImageSearchAttemptsTotal counts calls to the image search API by
	// outcome: found, empty or error.
	ImageSearchAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "beautytracker_image_search_attempts_total",
			Help: "Image search API attempts by outcome",
		},
		[]string{"outcome"},
	)

	ImageSearchCacheTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "beautytracker_image_search_cache_total",
			Help: "Image search cache lookups by result",
		},
		[]string{"result"},
	)
)
