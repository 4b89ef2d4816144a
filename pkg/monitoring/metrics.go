package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP request metrics
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// Decision metrics
	decisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "authz_decisions_total",
			Help: "Total number of authorization decisions",
		},
		[]string{"outcome", "reason_kind"},
	)

	decisionDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "authz_decision_duration_seconds",
			Help:    "Duration of authorization decisions in seconds",
			Buckets: []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01},
		},
	)

	suggestionsReturned = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "authz_suggestions_returned",
			Help:    "Number of alternative actions returned per denial",
			Buckets: []float64{0, 1, 2, 3, 4, 5},
		},
	)

	// Compilation metrics
	compileDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "authz_compile_duration_seconds",
			Help:    "Duration of rule index compilations in seconds",
			Buckets: []float64{0.0001, 0.001, 0.01, 0.1, 1.0, 5.0},
		},
	)

	compileErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "authz_compile_errors_total",
			Help: "Total number of failed rule index compilations",
		},
	)

	rulesLoaded = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "authz_rules_loaded",
			Help: "Number of rules in the active compiled index",
		},
	)

	lastReloadTimestamp = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "authz_last_reload_timestamp_seconds",
			Help: "Unix timestamp of the last successful index reload",
		},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpRequestDuration,
		decisionsTotal,
		decisionDuration,
		suggestionsReturned,
		compileDuration,
		compileErrorsTotal,
		rulesLoaded,
		lastReloadTimestamp,
	)
}

// RecordDecision records the outcome of one authorization decision
func RecordDecision(allowed bool, reasonKind string, duration time.Duration, suggestionCount int) {
	outcome := "deny"
	if allowed {
		outcome = "allow"
	}
	decisionsTotal.WithLabelValues(outcome, reasonKind).Inc()
	decisionDuration.Observe(duration.Seconds())
	if !allowed {
		suggestionsReturned.Observe(float64(suggestionCount))
	}
}

// RecordCompile records the outcome of one index compilation
func RecordCompile(duration time.Duration, ruleCount int, err error) {
	compileDuration.Observe(duration.Seconds())
	if err != nil {
		compileErrorsTotal.Inc()
		return
	}
	rulesLoaded.Set(float64(ruleCount))
	lastReloadTimestamp.SetToCurrentTime()
}

// RecordHTTPRequest records HTTP request metrics
func RecordHTTPRequest(method, endpoint, statusCode string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	httpRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// Handler returns the prometheus metrics HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}
