// Package metrics expone contadores Prometheus del flujo de propuestas.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/jhoicas/retail-api/internal/application/proposal"
	"github.com/jhoicas/retail-api/internal/application/sideeffect"
)

var (
	_ proposal.Metrics           = (*Metrics)(nil)
	_ sideeffect.FailureObserver = (*Metrics)(nil)
)

// Metrics contadores de transiciones y de efectos secundarios fallidos.
type Metrics struct {
	transitions *prometheus.CounterVec
	failures    *prometheus.CounterVec
}

// New registra los contadores en reg (nil = registro global por defecto).
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		transitions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "proposal_transitions_total",
			Help: "Operaciones sobre propuestas por acción y resultado.",
		}, []string{"action", "result"}),
		failures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "side_effect_failures_total",
			Help: "Efectos secundarios (auditoría, notificaciones, compensación) fallidos.",
		}, []string{"kind"}),
	}
}

// ProposalTransition cuenta una operación submit/approve/reject.
func (m *Metrics) ProposalTransition(action, result string) {
	m.transitions.WithLabelValues(action, result).Inc()
}

// SideEffectFailed cuenta un efecto secundario descartado.
func (m *Metrics) SideEffectFailed(kind string) {
	m.failures.WithLabelValues(kind).Inc()
}
