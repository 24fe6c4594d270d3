package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics groups the bot's prometheus collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	Events          *prometheus.CounterVec
	HandlerDuration *prometheus.HistogramVec
	Transitions     *prometheus.CounterVec
	Pending         prometheus.Gauge
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Events: f.NewCounterVec(prometheus.CounterOpts{
			Name: "verifybot_events_total",
			Help: "Inbound platform events by kind and dispatch outcome",
		}, []string{"kind", "outcome"}),
		HandlerDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "verifybot_handler_duration_seconds",
			Help:    "Time spent inside command, button and trigger handlers",
			Buckets: prometheus.DefBuckets,
		}, []string{"kind"}),
		Transitions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "verifybot_verification_transitions_total",
			Help: "Verification workflow transitions (submitted, approved, rejected, cleared)",
		}, []string{"transition"}),
		Pending: f.NewGauge(prometheus.GaugeOpts{
			Name: "verifybot_pending_verifications",
			Help: "Submissions currently waiting for review",
		}),
	}
}

func (m *Metrics) ObserveEvent(kind, outcome string) {
	if m == nil {
		return
	}
	m.Events.WithLabelValues(kind, outcome).Inc()
}

func (m *Metrics) ObserveHandler(kind string, d time.Duration) {
	if m == nil {
		return
	}
	m.HandlerDuration.WithLabelValues(kind).Observe(d.Seconds())
}

func (m *Metrics) IncTransition(transition string) {
	if m == nil {
		return
	}
	m.Transitions.WithLabelValues(transition).Inc()
}

func (m *Metrics) SetPending(n int) {
	if m == nil {
		return
	}
	m.Pending.Set(float64(n))
}
