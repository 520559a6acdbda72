package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Recognition flow metrics
	RecognitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cinescan_recognitions_total",
			Help: "Total number of recognition requests by kind, result and source",
		},
		[]string{"kind", "result", "source"},
	)

	RecognitionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cinescan_recognition_duration_seconds",
			Help:    "End-to-end recognition duration in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"kind"},
	)

	// Title search metrics
	TitleSearchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cinescan_title_searches_total",
			Help: "Title search lookups by result (cache_hit, match, no_match, error, breaker_open)",
		},
		[]string{"result"},
	)

	BreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "cinescan_circuit_breaker_state",
			Help: "Circuit breaker state (0 closed, 1 half-open, 2 open)",
		},
		[]string{"name"},
	)

	// Upstream service metrics
	ExternalCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cinescan_external_call_duration_seconds",
			Help:    "Duration of calls to upstream services in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service", "operation"},
	)

	ExternalCallErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cinescan_external_call_errors_total",
			Help: "Total number of failed calls to upstream services",
		},
		[]string{"service", "operation"},
	)

	// API endpoint metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cinescan_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "route", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cinescan_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method", "route"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cinescan_api_active_requests",
			Help: "Current number of in-flight API requests",
		},
	)

	APIRateLimitHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cinescan_api_rate_limit_hits_total",
			Help: "Total number of requests rejected by the rate limiter",
		},
	)
)

// RecordRecognition records one completed recognition.
func RecordRecognition(kind, source string, success bool, duration time.Duration) {
	result := "failure"
	if success {
		result = "success"
	}
	if source == "" {
		source = "none"
	}
	RecognitionsTotal.WithLabelValues(kind, result, source).Inc()
	RecognitionDuration.WithLabelValues(kind).Observe(duration.Seconds())
}

// RecordTitleSearch records the result of one title search lookup.
func RecordTitleSearch(result string) {
	TitleSearchesTotal.WithLabelValues(result).Inc()
}

// SetBreakerState publishes a breaker state transition.
func SetBreakerState(name string, state int) {
	BreakerState.WithLabelValues(name).Set(float64(state))
}

// RecordExternalCall records an upstream call and its failure, if any.
func RecordExternalCall(service, operation string, duration time.Duration, err error) {
	ExternalCallDuration.WithLabelValues(service, operation).Observe(duration.Seconds())
	if err != nil {
		ExternalCallErrors.WithLabelValues(service, operation).Inc()
	}
}

// RecordAPIRequest records an API request metric.
func RecordAPIRequest(method, route string, statusCode int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, route, strconv.Itoa(statusCode)).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// TrackActiveRequest tracks in-flight API requests.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}
