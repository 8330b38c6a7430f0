package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sony/gobreaker"
)

// Carrier call outcomes.
const (
	OutcomeSuccess     = "success"
	OutcomeError       = "error"
	OutcomeCircuitOpen = "circuit_open"
)

// Metrics holds the service collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	CarrierCallsTotal   *prometheus.CounterVec
	CarrierCallDuration *prometheus.HistogramVec
	CircuitBreakerState *prometheus.GaugeVec

	RateShopsTotal         *prometheus.CounterVec
	LabelsPurchasedTotal   *prometheus.CounterVec
	LabelsCancelledTotal   *prometheus.CounterVec
	IdempotentReplaysTotal prometheus.Counter
}

// Config holds metrics configuration.
type Config struct {
	Namespace string
}

func DefaultConfig() Config {
	return Config{Namespace: "freight"}
}

func New(config Config) *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{registry: registry}

	m.HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: config.Namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	m.HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: config.Namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method", "path"},
	)

	m.CarrierCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: config.Namespace,
			Name:      "carrier_calls_total",
			Help:      "Total number of outbound carrier API calls",
		},
		[]string{"carrier", "operation", "outcome"},
	)

	m.CarrierCallDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: config.Namespace,
			Name:      "carrier_call_duration_seconds",
			Help:      "Carrier API call duration in seconds, retries included",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2, 4, 8, 12, 20, 40},
		},
		[]string{"carrier", "operation"},
	)

	m.CircuitBreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: config.Namespace,
			Name:      "circuit_breaker_state",
			Help:      "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	m.RateShopsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: config.Namespace,
			Name:      "rate_shops_total",
			Help:      "Rate shopping requests by outcome",
		},
		[]string{"outcome"},
	)

	m.LabelsPurchasedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: config.Namespace,
			Name:      "labels_purchased_total",
			Help:      "Labels bought from carriers",
		},
		[]string{"carrier"},
	)

	m.LabelsCancelledTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: config.Namespace,
			Name:      "labels_cancelled_total",
			Help:      "Labels cancelled",
		},
		[]string{"carrier"},
	)

	m.IdempotentReplaysTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: config.Namespace,
			Name:      "idempotent_replays_total",
			Help:      "Requests answered from a stored idempotency record",
		},
	)

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.CarrierCallsTotal,
		m.CarrierCallDuration,
		m.CircuitBreakerState,
		m.RateShopsTotal,
		m.LabelsPurchasedTotal,
		m.LabelsCancelledTotal,
		m.IdempotentReplaysTotal,
	)

	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

func (m *Metrics) RecordCarrierCall(carrier, operation, outcome string, duration time.Duration) {
	m.CarrierCallsTotal.WithLabelValues(carrier, operation, outcome).Inc()
	m.CarrierCallDuration.WithLabelValues(carrier, operation).Observe(duration.Seconds())
}

// SetCircuitBreakerState matches resilience.StateListener.
func (m *Metrics) SetCircuitBreakerState(name string, state gobreaker.State) {
	var v float64
	switch state {
	case gobreaker.StateHalfOpen:
		v = 1
	case gobreaker.StateOpen:
		v = 2
	}
	m.CircuitBreakerState.WithLabelValues(name).Set(v)
}

func (m *Metrics) RateShopped(outcome string) {
	m.RateShopsTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) LabelPurchased(carrierCode string) {
	m.LabelsPurchasedTotal.WithLabelValues(carrierCode).Inc()
}

func (m *Metrics) LabelCancelled(carrierCode string) {
	m.LabelsCancelledTotal.WithLabelValues(carrierCode).Inc()
}

func (m *Metrics) IdempotentReplay() {
	m.IdempotentReplaysTotal.Inc()
}
