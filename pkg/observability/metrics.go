package observability

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/aretw0/fable/pkg/domain"
)

// Metrics holds the engine's Prometheus collectors.
type Metrics struct {
	nodeEntries  *prometheus.CounterVec
	autoAdvances *prometheus.CounterVec
	completions  *prometheus.CounterVec
	errors       *prometheus.CounterVec
	stateChanges *prometheus.CounterVec
}

// NewMetrics creates and registers the collectors on reg. Pass
// prometheus.DefaultRegisterer to use the global registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		nodeEntries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fable",
			Name:      "node_entries_total",
			Help:      "Node entries, labeled by flow and inferred node type.",
		}, []string{"flow", "node_type"}),
		autoAdvances: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fable",
			Name:      "auto_advances_total",
			Help:      "Automatic transitions taken without host input.",
		}, []string{"flow"}),
		completions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fable",
			Name:      "completions_total",
			Help:      "Flow executions that reached an end node.",
		}, []string{"flow"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fable",
			Name:      "recoverable_errors_total",
			Help:      "Recoverable engine errors, labeled by kind.",
		}, []string{"flow", "kind"}),
		stateChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fable",
			Name:      "state_changes_total",
			Help:      "Committed state mutations.",
		}, []string{"flow"}),
	}
	reg.MustRegister(m.nodeEntries, m.autoAdvances, m.completions, m.errors, m.stateChanges)
	return m
}

// Hooks returns lifecycle hooks that record into the collectors. Merge the
// result with any host hooks.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnNodeEnter: func(ev *domain.NodeEvent) {
			m.nodeEntries.WithLabelValues(ev.FlowID, string(ev.NodeType)).Inc()
		},
		OnAutoAdvance: func(ev *domain.AutoAdvanceEvent) {
			m.autoAdvances.WithLabelValues(ev.FlowID).Inc()
		},
		OnComplete: func(ev *domain.NodeEvent) {
			m.completions.WithLabelValues(ev.FlowID).Inc()
		},
		OnError: func(ev *domain.ErrorEvent) {
			m.errors.WithLabelValues(ev.FlowID, string(ev.Kind)).Inc()
		},
		OnStateChange: func(ev *domain.StateChangeEvent) {
			m.stateChanges.WithLabelValues(ev.FlowID).Inc()
		},
	}
}
