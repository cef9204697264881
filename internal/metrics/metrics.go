// Package metrics provides Prometheus metrics for view model activity.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the collectors a model reports to. All methods are safe
// on a nil receiver.
type Metrics struct {
	mutations       *prometheus.CounterVec
	handlesRemapped prometheus.Counter
	handlesDetached prometheus.Counter
	entries         prometheus.Gauge
	handles         prometheus.Gauge
	sortDuration    prometheus.Histogram
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		mutations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sortview_model_mutations_total",
				Help: "Total number of view model mutations",
			},
			[]string{"op"},
		),
		handlesRemapped: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "sortview_handles_remapped_total",
				Help: "Persistent handles moved to a new position",
			},
		),
		handlesDetached: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "sortview_handles_detached_total",
				Help: "Persistent handles detached because their entry went away",
			},
		),
		entries: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "sortview_model_entries",
				Help: "Number of entries in the view model",
			},
		),
		handles: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "sortview_model_handles",
				Help: "Number of outstanding persistent handles",
			},
		),
		sortDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "sortview_full_sort_duration_seconds",
				Help:    "Time spent in full sorts",
				Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
			},
		),
	}
	if reg != nil {
		reg.MustRegister(m.mutations, m.handlesRemapped, m.handlesDetached,
			m.entries, m.handles, m.sortDuration)
	}
	return m
}

// Mutation counts one mutation of the named kind.
func (m *Metrics) Mutation(op string) {
	if m == nil {
		return
	}
	m.mutations.WithLabelValues(op).Inc()
}

// HandlesRemapped records moved and detached handles of one mutation.
func (m *Metrics) HandlesRemapped(moved, detached int) {
	if m == nil {
		return
	}
	m.handlesRemapped.Add(float64(moved))
	m.handlesDetached.Add(float64(detached))
}

// SetSize publishes the entry and handle counts.
func (m *Metrics) SetSize(entries, handles int) {
	if m == nil {
		return
	}
	m.entries.Set(float64(entries))
	m.handles.Set(float64(handles))
}

// ObserveSort records the duration of a full sort.
func (m *Metrics) ObserveSort(d time.Duration) {
	if m == nil {
		return
	}
	m.sortDuration.Observe(d.Seconds())
}

// Handler returns the HTTP handler exposing metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
