package bot

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	resultOK       = "ok"
	resultRejected = "rejected"
	resultUsage    = "usage"
	resultError    = "error"
)

// Metrics counts what the handler did with each message
type Metrics struct {
	receipts *prometheus.CounterVec
	commands *prometheus.CounterVec
	backend  *prometheus.CounterVec
}

// NewMetrics registers the handler counters on reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		receipts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "wa_financas_receipts_total",
			Help: "Media messages run through the receipt pipeline, by outcome.",
		}, []string{"outcome"}),
		commands: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "wa_financas_commands_total",
			Help: "Text commands handled, by command and result.",
		}, []string{"command", "result"}),
		backend: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "wa_financas_backend_requests_total",
			Help: "Calls to the finance backend, by operation and result.",
		}, []string{"operation", "result"}),
	}
}

func (m *Metrics) receipt(outcome string) {
	if m == nil {
		return
	}
	m.receipts.WithLabelValues(outcome).Inc()
}

func (m *Metrics) command(name, result string) {
	if m == nil {
		return
	}
	m.commands.WithLabelValues(name, result).Inc()
}

func (m *Metrics) backendCall(operation, result string) {
	if m == nil {
		return
	}
	m.backend.WithLabelValues(operation, result).Inc()
}
