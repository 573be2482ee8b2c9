// Package metrics owns the Prometheus registry the server exposes on /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Session operation names.
const (
	OpRegister = "register"
	OpLogin    = "login"
	OpDelete   = "delete"
	OpLogout   = "logout"
)

// Outcome labels.
const (
	OutcomeSuccess      = "success"
	OutcomeConflict     = "conflict"
	OutcomeUnauthorized = "unauthorized"
	OutcomeError        = "error"
)

// Notification results.
const (
	NotifySent    = "sent"
	NotifyFailed  = "failed"
	NotifyDropped = "dropped"
)

// Recorder is what the services and the notifier report into.
type Recorder interface {
	SessionOperation(operation, outcome string)
	Notification(result string)
}

// Metrics is the Prometheus-backed Recorder.
type Metrics struct {
	registry      *prometheus.Registry
	operations    *prometheus.CounterVec
	notifications *prometheus.CounterVec
}

// New creates a dedicated registry with the Go and process collectors plus
// the application counters.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{
		registry: registry,
		operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "authkeeper_session_operations_total",
				Help: "Total number of session operations by operation and outcome",
			},
			[]string{"operation", "outcome"},
		),
		notifications: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "authkeeper_notifications_total",
				Help: "Total number of welcome notifications by result",
			},
			[]string{"result"},
		),
	}
	registry.MustRegister(m.operations, m.notifications)
	return m
}

func (m *Metrics) SessionOperation(operation, outcome string) {
	m.operations.WithLabelValues(operation, outcome).Inc()
}

func (m *Metrics) Notification(result string) {
	m.notifications.WithLabelValues(result).Inc()
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

// Nop discards everything. Used where no registry is wired.
type Nop struct{}

func (Nop) SessionOperation(string, string) {}
func (Nop) Notification(string)             {}
