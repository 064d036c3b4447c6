// Package metrics exposes the Prometheus counters and gauges this library
// maintains for its own operation: frames sent/received by command, parse
// errors, active subscriptions, and reconnect attempts. Grounded on the
// pack's counter/gauge-vec registration style (see the plumber example's
// prometheus package) rather than the teacher, which has no metrics layer
// of its own.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds every counter/gauge this library increments. The zero value
// is not usable; construct one with New.
type Metrics struct {
	FramesSent     *prometheus.CounterVec
	FramesReceived *prometheus.CounterVec
	ParseErrors    prometheus.Counter
	Subscriptions  prometheus.Gauge
	Reconnects     prometheus.Counter
}

// New registers a fresh set of metrics against reg. Passing nil registers
// against prometheus.DefaultRegisterer, matching how most Prometheus client
// consumers expect metrics to just show up on /metrics without extra wiring.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		FramesSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "stompex",
			Name:      "frames_sent_total",
			Help:      "Frames sent to the broker, by command.",
		}, []string{"command"}),
		FramesReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "stompex",
			Name:      "frames_received_total",
			Help:      "Frames received from the broker, by command.",
		}, []string{"command"}),
		ParseErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "stompex",
			Name:      "parse_errors_total",
			Help:      "Frames that failed to parse and closed their connection.",
		}),
		Subscriptions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "stompex",
			Name:      "active_subscriptions",
			Help:      "Number of destinations currently subscribed.",
		}),
		Reconnects: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "stompex",
			Name:      "reconnect_attempts_total",
			Help:      "Reconnect attempts made by the demonstration CLI's backoff loop.",
		}),
	}

	reg.MustRegister(m.FramesSent, m.FramesReceived, m.ParseErrors, m.Subscriptions, m.Reconnects)
	return m
}

// Noop returns a Metrics instance registered against a fresh, private
// registry — useful for tests and for callers that don't want this
// library's counters polluting prometheus.DefaultRegisterer.
func Noop() *Metrics {
	return New(prometheus.NewRegistry())
}
