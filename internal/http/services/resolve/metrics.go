package resolve

import (
	"github.com/dropDatabas3/idbridge/internal/federation"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics cuenta resoluciones por provider y resultado.
type Metrics struct {
	outcomes *prometheus.CounterVec
}

// NewMetrics registra las métricas del servicio en el registry dado
// (nil usa el default).
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "resolve_outcomes_total",
			Help: "Resoluciones de principal por provider y resultado",
		}, []string{"provider", "outcome"}),
	}
	reg.MustRegister(m.outcomes)
	return m
}

func (m *Metrics) observe(provider string, status federation.Status) {
	if m == nil {
		return
	}
	m.outcomes.WithLabelValues(provider, string(status)).Inc()
}
