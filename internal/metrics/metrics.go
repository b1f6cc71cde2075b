// Package metrics holds the Prometheus counters the narrative engine
// reports. Each Metrics owns its registry so tests and CLI runs never
// share global state.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics is a set of engine counters. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	Registry *prometheus.Registry

	ChoicesResolved  prometheus.Counter
	ChoicesRejected  *prometheus.CounterVec
	SoftFailures     *prometheus.CounterVec
	ChainErrors      prometheus.Counter
	EventsAppended   *prometheus.CounterVec
	GraphTransitions *prometheus.CounterVec
}

// New registers the engine counters on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Metrics{
		Registry: reg,
		ChoicesResolved: f.NewCounter(prometheus.CounterOpts{
			Name: "lodestar_choices_resolved_total",
			Help: "Total number of choices resolved.",
		}),
		ChoicesRejected: f.NewCounterVec(prometheus.CounterOpts{
			Name: "lodestar_choices_rejected_total",
			Help: "Total number of rejected engine calls, partitioned by error code.",
		}, []string{"code"}),
		SoftFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "lodestar_soft_failures_total",
			Help: "Total number of non-fatal outcome failures, partitioned by outcome kind.",
		}, []string{"kind"}),
		ChainErrors: f.NewCounter(prometheus.CounterOpts{
			Name: "lodestar_chain_errors_total",
			Help: "Total number of graph chains that could not start their successor.",
		}),
		EventsAppended: f.NewCounterVec(prometheus.CounterOpts{
			Name: "lodestar_events_appended_total",
			Help: "Total number of event log entries appended, partitioned by entry kind.",
		}, []string{"kind"}),
		GraphTransitions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "lodestar_graph_transitions_total",
			Help: "Total number of graph lifecycle transitions, partitioned by target state.",
		}, []string{"to"}),
	}
}

func (m *Metrics) ChoiceResolved() {
	if m == nil {
		return
	}
	m.ChoicesResolved.Inc()
}

func (m *Metrics) Rejected(code string) {
	if m == nil {
		return
	}
	m.ChoicesRejected.WithLabelValues(code).Inc()
}

func (m *Metrics) SoftFailure(kind string) {
	if m == nil {
		return
	}
	m.SoftFailures.WithLabelValues(kind).Inc()
}

func (m *Metrics) ChainError() {
	if m == nil {
		return
	}
	m.ChainErrors.Inc()
}

func (m *Metrics) EventAppended(kind string) {
	if m == nil {
		return
	}
	m.EventsAppended.WithLabelValues(kind).Inc()
}

func (m *Metrics) Transition(to string) {
	if m == nil {
		return
	}
	m.GraphTransitions.WithLabelValues(to).Inc()
}

// WriteTextfile writes the current counters in the Prometheus text format,
// for collection by a node exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.Registry)
}
