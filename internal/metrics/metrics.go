// Package metrics exposes Prometheus counters for task mutations, simulated
// saves, note propagation and contact emails. A nil *Metrics is a no-op.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "folio"

type Metrics struct {
	registry  *prometheus.Registry
	mutations *prometheus.CounterVec
	saves     prometheus.Counter
	notes     prometheus.Counter
	emails    *prometheus.CounterVec
}

// New registers all collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "task_mutations_total",
			Help:      "Task store mutations by operation and result.",
		}, []string{"op", "result"}),
		saves: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "simulated_saves_total",
			Help:      "Save indicator cycles started.",
		}),
		notes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "note_propagations_total",
			Help:      "Debounced note edits delivered to the task store.",
		}),
		emails: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "contact_emails_total",
			Help:      "Contact form submissions by result.",
		}, []string{"result"}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.mutations, m.saves, m.notes, m.emails,
	)
	return m
}

func (m *Metrics) Mutation(op string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.mutations.WithLabelValues(op, result).Inc()
}

func (m *Metrics) SimulatedSave() {
	if m == nil {
		return
	}
	m.saves.Inc()
}

func (m *Metrics) NotePropagated() {
	if m == nil {
		return
	}
	m.notes.Inc()
}

func (m *Metrics) Email(result string) {
	if m == nil {
		return
	}
	m.emails.WithLabelValues(result).Inc()
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
