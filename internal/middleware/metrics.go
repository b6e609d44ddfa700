package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	once sync.Once

	// RequestsInFlight is the number of HTTP requests being served.
	RequestsInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "caption",
		Subsystem: "http",
		Name:      "requests_in_flight",
		Help:      "Current number of HTTP requests being served.",
	})

	// RequestsTotal counts requests by route pattern, method and status.
	RequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "caption",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests, labeled by route, method and status code.",
	}, []string{"route", "method", "status"})

	RequestDurationSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "caption",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency by route.",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 20, 30, 60},
	}, []string{"route"})

	// AnalysesTotal counts analyze requests by provider and outcome class.
	AnalysesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "caption",
		Subsystem: "analyzer",
		Name:      "analyses_total",
		Help:      "Total image analyses, labeled by provider and result.",
	}, []string{"provider", "result"})

	ProviderDurationSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "caption",
		Subsystem: "analyzer",
		Name:      "provider_duration_seconds",
		Help:      "Time spent waiting for the AI provider.",
		Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30, 60},
	}, []string{"provider"})
)

// RegisterMetrics registers collectors with the default registry.
// Safe to call multiple times.
func RegisterMetrics() {
	once.Do(func() {
		prometheus.MustRegister(
			RequestsInFlight,
			RequestsTotal,
			RequestDurationSeconds,
			AnalysesTotal,
			ProviderDurationSeconds,
		)
	})
}

// ObserveAnalysis records one analyze request outcome.
func ObserveAnalysis(provider, result string, providerTime time.Duration) {
	AnalysesTotal.WithLabelValues(provider, result).Inc()
	if providerTime > 0 {
		ProviderDurationSeconds.WithLabelValues(provider).Observe(providerTime.Seconds())
	}
}

// MetricsMiddleware tracks request metrics
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		RequestsInFlight.Inc()
		defer RequestsInFlight.Dec()

		start := time.Now()
		wrapped := wrapWriter(w)
		next.ServeHTTP(wrapped, r)

		route := routePattern(r)
		RequestsTotal.WithLabelValues(route, r.Method, strconv.Itoa(wrapped.statusCode)).Inc()
		RequestDurationSeconds.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// MetricsHandler serves the Prometheus exposition format.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}

// routePattern keeps label cardinality bounded to registered routes.
func routePattern(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if p := rc.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}
