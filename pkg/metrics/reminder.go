package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	ReminderOutcomeSent    = "sent"
	ReminderOutcomeFailed  = "failed"
	ReminderOutcomeInvalid = "invalid"
)

// ReminderMetrics tracks appointment reminder dispatches.
type ReminderMetrics struct {
	dispatched *prometheus.CounterVec
	latency    prometheus.Histogram
	selected   prometheus.Gauge
}

func NewReminderMetrics(reg prometheus.Registerer) *ReminderMetrics {
	if reg == nil {
		return &ReminderMetrics{}
	}
	dispatched := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "reminders",
		Name:      "dispatched_total",
		Help:      "Appointment reminders processed, by outcome.",
	}, []string{"outcome"})
	latency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "reminders",
		Name:      "dispatch_duration_seconds",
		Help:      "Time spent dispatching a single reminder including retries.",
		Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
	})
	selected := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "reminders",
		Name:      "last_batch_selected",
		Help:      "Appointments selected by the most recent reminder batch.",
	})
	reg.MustRegister(dispatched, latency, selected)
	return &ReminderMetrics{dispatched: dispatched, latency: latency, selected: selected}
}

func (m *ReminderMetrics) ObserveDispatch(outcome string, duration time.Duration) {
	if m == nil || m.dispatched == nil {
		return
	}
	m.dispatched.WithLabelValues(labelOrUnknown(outcome)).Inc()
	if outcome != ReminderOutcomeInvalid {
		m.latency.Observe(duration.Seconds())
	}
}

func (m *ReminderMetrics) SetSelected(n int) {
	if m == nil || m.selected == nil {
		return
	}
	m.selected.Set(float64(n))
}
