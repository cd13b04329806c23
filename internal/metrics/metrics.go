// Package metrics provides Prometheus metrics for the chat backend.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	// HTTP request metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge
	RateLimitedTotal     prometheus.Counter

	// Gateway metrics
	GatewayRequestsTotal   *prometheus.CounterVec
	GatewayRequestDuration *prometheus.HistogramVec
	GatewayTokensTotal     *prometheus.CounterVec

	// Turn metrics
	NormalizerOutcomesTotal *prometheus.CounterVec
	InteractionsTotal       *prometheus.CounterVec
	TitlesAssignedTotal     prometheus.Counter
}

// NewMetrics creates all metrics on a private registry, together with the
// Go runtime and process collectors.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	m := &Metrics{registry: reg}

	m.HTTPRequestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "converse_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	m.HTTPRequestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "converse_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	m.HTTPRequestsInFlight = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "converse_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)

	m.RateLimitedTotal = factory.NewCounter(
		prometheus.CounterOpts{
			Name: "converse_rate_limited_total",
			Help: "Total number of requests rejected by the rate limiter",
		},
	)

	m.GatewayRequestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "converse_gateway_requests_total",
			Help: "Total number of model provider calls",
		},
		[]string{"model", "outcome"},
	)

	// Model round trips are slow; buckets reach two minutes.
	m.GatewayRequestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "converse_gateway_request_duration_seconds",
			Help:    "Duration of model provider calls in seconds",
			Buckets: []float64{.25, .5, 1, 2.5, 5, 10, 20, 30, 60, 120},
		},
		[]string{"model"},
	)

	m.GatewayTokensTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "converse_gateway_tokens_total",
			Help: "Total number of tokens reported by the model provider",
		},
		[]string{"kind"},
	)

	m.NormalizerOutcomesTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "converse_normalizer_outcomes_total",
			Help: "Model outputs by the parse path that produced the result",
		},
		[]string{"outcome"},
	)

	m.InteractionsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "converse_interactions_total",
			Help: "Interactions by terminal status",
		},
		[]string{"status"},
	)

	m.TitlesAssignedTotal = factory.NewCounter(
		prometheus.CounterOpts{
			Name: "converse_chat_titles_assigned_total",
			Help: "Total number of chat titles set from a model suggestion",
		},
	)

	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry for tests and extra collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// TrackInFlight increments the in-flight gauge and returns the matching decrement.
func (m *Metrics) TrackInFlight() func() {
	if m == nil {
		return func() {}
	}
	m.HTTPRequestsInFlight.Inc()
	return m.HTTPRequestsInFlight.Dec
}

func (m *Metrics) RecordRateLimited() {
	if m == nil {
		return
	}
	m.RateLimitedTotal.Inc()
}

// RecordGatewayCall records one model provider call. outcome is "success" or
// the gateway error type.
func (m *Metrics) RecordGatewayCall(model, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.GatewayRequestsTotal.WithLabelValues(model, outcome).Inc()
	m.GatewayRequestDuration.WithLabelValues(model).Observe(duration.Seconds())
}

func (m *Metrics) RecordTokens(prompt, completion int) {
	if m == nil {
		return
	}
	m.GatewayTokensTotal.WithLabelValues("prompt").Add(float64(prompt))
	m.GatewayTokensTotal.WithLabelValues("completion").Add(float64(completion))
}

func (m *Metrics) RecordNormalizerOutcome(outcome string) {
	if m == nil {
		return
	}
	m.NormalizerOutcomesTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RecordInteraction(status string) {
	if m == nil {
		return
	}
	m.InteractionsTotal.WithLabelValues(status).Inc()
}

func (m *Metrics) RecordTitleAssigned() {
	if m == nil {
		return
	}
	m.TitlesAssignedTotal.Inc()
}
