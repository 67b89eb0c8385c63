// Package metrics defines the Prometheus collectors exported on /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moodmate_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "moodmate_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// Detection and recommendation
	DetectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moodmate_detections_total",
			Help: "Emotions detected, by input kind and label",
		},
		[]string{"source", "emotion"}, // source: text, image, webcam
	)

	RecommendationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moodmate_recommendations_total",
			Help: "Recommendation requests by outcome",
		},
		[]string{"result"}, // ok, insufficient, invalid, error
	)

	TracksRecommended = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "moodmate_tracks_recommended_total",
			Help: "Total number of tracks returned",
		},
	)

	DatasetTracks = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "moodmate_dataset_tracks",
			Help: "Number of tracks in the loaded dataset",
		},
	)

	// Enrichment
	EnrichmentLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moodmate_enrichment_lookups_total",
			Help: "Enrichment lookups by provider and result",
		},
		[]string{"provider", "result"}, // result: hit, miss, error
	)

	// Circuit breaker
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "moodmate_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moodmate_circuit_breaker_requests_total",
			Help: "Requests through the circuit breaker",
		},
		[]string{"name", "result"}, // success, failure, rejected
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moodmate_circuit_breaker_state_transitions_total",
			Help: "Circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)
)

// RecordHTTPRequest records one served request.
func RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordDetection counts a detected emotion.
func RecordDetection(source, emotion string) {
	DetectionsTotal.WithLabelValues(source, emotion).Inc()
}

// RecordRecommendation counts a recommendation request and the tracks it returned.
func RecordRecommendation(result string, tracks int) {
	RecommendationsTotal.WithLabelValues(result).Inc()
	if tracks > 0 {
		TracksRecommended.Add(float64(tracks))
	}
}

// RecordEnrichment counts an enrichment lookup.
func RecordEnrichment(provider, result string) {
	EnrichmentLookups.WithLabelValues(provider, result).Inc()
}
