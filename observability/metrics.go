package observability

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Refusal reasons recorded by the gateway before a handler runs.
const (
	RefusalRateLimit       = "rate_limit"
	RefusalUnauthenticated = "unauthenticated"
)

type apiMetrics struct {
	requests    *prometheus.CounterVec
	latency     *prometheus.HistogramVec
	rejections  *prometheus.CounterVec
	refusals    *prometheus.CounterVec
	subscribers prometheus.Gauge
	dropped     prometheus.Counter
}

var (
	apiMetricsOnce sync.Once
	apiRegistry    *apiMetrics
)

// API returns the registry for the HTTP surface: per-route traffic grouped by
// protocol module, protocol error codes returned to clients, gateway refusals
// and event stream subscribers.
func API() *apiMetrics {
	apiMetricsOnce.Do(func() {
		apiRegistry = &apiMetrics{
			requests: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "crosstrade",
				Subsystem: "api",
				Name:      "requests_total",
				Help:      "HTTP requests by module group, route and status class.",
			}, []string{"group", "route", "class"}),
			latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "crosstrade",
				Subsystem: "api",
				Name:      "request_duration_seconds",
				Help:      "Handler latency by module group and route.",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
			}, []string{"group", "route"}),
			rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "crosstrade",
				Subsystem: "api",
				Name:      "rejections_total",
				Help:      "Operations refused by the protocol, by module group and error code.",
			}, []string{"group", "code"}),
			refusals: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "crosstrade",
				Subsystem: "api",
				Name:      "gateway_refusals_total",
				Help:      "Requests stopped by the gateway before reaching a handler.",
			}, []string{"group", "reason"}),
			subscribers: prometheus.NewGauge(prometheus.GaugeOpts{
				Namespace: "crosstrade",
				Subsystem: "api",
				Name:      "event_stream_subscribers",
				Help:      "Open event stream connections.",
			}),
			dropped: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "crosstrade",
				Subsystem: "api",
				Name:      "event_stream_dropped_total",
				Help:      "Event stream subscribers disconnected because their buffer was full.",
			}),
		}
		prometheus.MustRegister(
			apiRegistry.requests,
			apiRegistry.latency,
			apiRegistry.rejections,
			apiRegistry.refusals,
			apiRegistry.subscribers,
			apiRegistry.dropped,
		)
	})
	return apiRegistry
}

func label(v string) string {
	if v = strings.TrimSpace(v); v == "" {
		return "unknown"
	}
	return v
}

// StatusClass buckets an HTTP status into ok, client_error or server_error.
func StatusClass(status int) string {
	switch {
	case status >= http.StatusInternalServerError:
		return "server_error"
	case status >= http.StatusBadRequest:
		return "client_error"
	default:
		return "ok"
	}
}

// ObserveRequest records one handled request.
func (m *apiMetrics) ObserveRequest(group, route string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	group, route = label(group), label(route)
	m.requests.WithLabelValues(group, route, StatusClass(status)).Inc()
	m.latency.WithLabelValues(group, route).Observe(duration.Seconds())
}

// RecordRejection counts a protocol error code such as NotFinalized or
// HistoryMismatch returned to a client.
func (m *apiMetrics) RecordRejection(group, code string) {
	if m == nil {
		return
	}
	m.rejections.WithLabelValues(label(group), label(code)).Inc()
}

// RecordRefusal counts a request stopped by the gateway; reason is one of the
// Refusal constants.
func (m *apiMetrics) RecordRefusal(group, reason string) {
	if m == nil {
		return
	}
	m.refusals.WithLabelValues(label(group), label(reason)).Inc()
}

// StreamOpened and StreamClosed track event stream subscribers.
func (m *apiMetrics) StreamOpened() {
	if m != nil {
		m.subscribers.Inc()
	}
}

func (m *apiMetrics) StreamClosed() {
	if m != nil {
		m.subscribers.Dec()
	}
}

// RecordStreamDrop counts a subscriber disconnected for falling behind.
func (m *apiMetrics) RecordStreamDrop() {
	if m != nil {
		m.dropped.Inc()
	}
}
