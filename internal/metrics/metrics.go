// Package metrics provides Prometheus metrics for the gateway
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	OutcomeResponse       = "response"
	OutcomeTransportError = "transport_error"
	OutcomeBlocked        = "blocked"
)

// Metrics is safe to use as a nil pointer; every Record method is then a no-op.
type Metrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	StreamsInFlight     prometheus.Gauge

	RelayAttemptsTotal   *prometheus.CounterVec
	DirectFallbacksTotal *prometheus.CounterVec
	RecommendationsTotal *prometheus.CounterVec
}

// New registers every collector on reg. Use a fresh prometheus.NewRegistry() per
// server so several instances can coexist in one process.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gateway_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"route", "status"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gateway_http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds, streams included",
				Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60, 180},
			},
			[]string{"route"},
		),
		StreamsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "gateway_streams_in_flight",
				Help: "Number of chat streams currently relayed",
			},
		),
		RelayAttemptsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gateway_relay_attempts_total",
				Help: "Relay attempts per candidate by outcome",
			},
			[]string{"path", "outcome"},
		),
		DirectFallbacksTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gateway_direct_fallbacks_total",
				Help: "Chat requests served directly by the LLM provider",
			},
			[]string{"reason"},
		),
		RecommendationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gateway_recommendations_total",
				Help: "Model recommendations by source",
			},
			[]string{"source"},
		),
	}
}

func (m *Metrics) RecordRequest(route string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(route, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(route).Observe(duration.Seconds())
}

func (m *Metrics) RecordRelayAttempt(path, outcome string) {
	if m == nil {
		return
	}
	m.RelayAttemptsTotal.WithLabelValues(path, outcome).Inc()
}

func (m *Metrics) RecordDirectFallback(reason string) {
	if m == nil {
		return
	}
	m.DirectFallbacksTotal.WithLabelValues(reason).Inc()
}

func (m *Metrics) RecordRecommendation(source string) {
	if m == nil {
		return
	}
	m.RecommendationsTotal.WithLabelValues(source).Inc()
}

func (m *Metrics) StreamStarted() {
	if m == nil {
		return
	}
	m.StreamsInFlight.Inc()
}

func (m *Metrics) StreamFinished() {
	if m == nil {
		return
	}
	m.StreamsInFlight.Dec()
}
