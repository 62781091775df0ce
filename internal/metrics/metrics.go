// Package metrics defines the Prometheus collectors exported by the bot.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "bagcord"

// Metrics groups the collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	commands        *prometheus.CounterVec
	cooldownRejects *prometheus.CounterVec
	sessionsSwept   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	registry        prometheus.Registerer
}

// New creates the collectors and registers them with registerer.
func New(registerer prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "Handled commands and button interactions by outcome.",
		}, []string{"command", "outcome"}),
		cooldownRejects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cooldown_rejections_total",
			Help:      "Requests refused because a cooldown was active.",
		}, []string{"action"}),
		sessionsSwept: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_swept_total",
			Help:      "Expired sessions removed by the periodic sweep.",
		}, []string{"kind"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "bags_request_duration_seconds",
			Help:      "Latency of Bags API requests.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op", "result"}),
		registry: registerer,
	}

	for _, c := range []prometheus.Collector{m.commands, m.cooldownRejects, m.sessionsSwept, m.requestDuration} {
		if err := registerer.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// RegisterSessionGauge exports the live size of a session store.
func (m *Metrics) RegisterSessionGauge(kind string, size func() int) error {
	if m == nil {
		return nil
	}

	return m.registry.Register(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace:   namespace,
		Name:        "sessions_live",
		Help:        "Sessions currently held in memory.",
		ConstLabels: prometheus.Labels{"kind": kind},
	}, func() float64 {
		return float64(size())
	}))
}

// CommandHandled counts one handled command.
func (m *Metrics) CommandHandled(command string, outcome string) {
	if m == nil {
		return
	}
	m.commands.WithLabelValues(command, outcome).Inc()
}

// CooldownRejected counts one cooldown refusal.
func (m *Metrics) CooldownRejected(action string) {
	if m == nil {
		return
	}
	m.cooldownRejects.WithLabelValues(action).Inc()
}

// SessionsSwept counts sessions removed by the sweeper.
func (m *Metrics) SessionsSwept(kind string, removed int) {
	if m == nil {
		return
	}
	m.sessionsSwept.WithLabelValues(kind).Add(float64(removed))
}

// ObserveRequest records the latency of one Bags API call.
func (m *Metrics) ObserveRequest(op string, err error, elapsed time.Duration) {
	if m == nil {
		return
	}

	result := "success"
	if err != nil {
		result = "error"
	}
	m.requestDuration.WithLabelValues(op, result).Observe(elapsed.Seconds())
}
