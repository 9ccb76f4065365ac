package observability

import (
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

type eventMetrics struct {
	emitted   *prometheus.CounterVec
	discarded prometheus.Counter
}

var (
	eventMetricsOnce sync.Once
	eventRegistry    *eventMetrics
)

// Events returns the metrics registry tracking published protocol events.
func Events() *eventMetrics {
	eventMetricsOnce.Do(func() {
		eventRegistry = &eventMetrics{
			emitted: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "crosstrade",
				Subsystem: "events",
				Name:      "emitted_total",
				Help:      "Count of events published after a committed operation, by type.",
			}, []string{"type"}),
			discarded: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "crosstrade",
				Subsystem: "events",
				Name:      "discarded_total",
				Help:      "Count of events dropped because their operation rolled back.",
			}),
		}
		prometheus.MustRegister(eventRegistry.emitted, eventRegistry.discarded)
	})
	return eventRegistry
}

// RecordEmitted increments the counter for the supplied event type.
func (m *eventMetrics) RecordEmitted(eventType string) {
	if m == nil {
		return
	}
	normalized := strings.TrimSpace(eventType)
	if normalized == "" {
		normalized = "unknown"
	}
	m.emitted.WithLabelValues(normalized).Inc()
}

// RecordDiscarded adds n rolled-back events.
func (m *eventMetrics) RecordDiscarded(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.discarded.Add(float64(n))
}
