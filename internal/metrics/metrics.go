// Package metrics holds the process-wide Prometheus collectors.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// providerCalls counts provider invocations by provider and outcome.
	providerCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nebula_llm_calls_total",
		Help: "LLM provider calls by provider and result",
	}, []string{"provider", "result"})

	providerLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "nebula_llm_call_duration_seconds",
		Help:    "LLM provider call latency in seconds",
		Buckets: prometheus.ExponentialBuckets(0.25, 2, 8), // 250ms to ~32s
	}, []string{"provider"})

	failovers = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nebula_llm_failovers_total",
		Help: "Times a failed provider handed a request to the next one",
	}, []string{"from"})

	operations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nebula_operations_total",
		Help: "Architecture operations by name and result",
	}, []string{"operation", "result"})

	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nebula_http_requests_total",
		Help: "HTTP requests by method, route and status",
	}, []string{"method", "route", "status"})

	httpLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "nebula_http_request_duration_seconds",
		Help:    "HTTP request latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})
)

// ObserveProviderCall records one provider call.
func ObserveProviderCall(provider string, d time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	providerCalls.WithLabelValues(provider, result).Inc()
	providerLatency.WithLabelValues(provider).Observe(d.Seconds())
}

// ObserveFailover records a hand-off away from provider.
func ObserveFailover(provider string) {
	failovers.WithLabelValues(provider).Inc()
}

// ObserveOperation records the outcome of generate or sync. result is one
// of "ok", "degraded" or an error kind.
func ObserveOperation(op, result string) {
	operations.WithLabelValues(op, result).Inc()
}

// ObserveHTTP records one served request.
func ObserveHTTP(method, route string, status int, d time.Duration) {
	httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	httpLatency.WithLabelValues(method, route).Observe(d.Seconds())
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
