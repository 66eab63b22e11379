package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus metrics for the storage layer. A nil
// *Metrics is valid and records nothing, so stores never need to branch on
// whether metrics were configured.
type Metrics struct {
	// File codec metrics
	FileLoadsTotal *prometheus.CounterVec
	FileSavesTotal *prometheus.CounterVec

	// Concurrency guard metrics
	ReloadChecksTotal *prometheus.CounterVec
	ReloadsTotal      *prometheus.CounterVec

	// Store mutation metrics
	MutationsTotal *prometheus.CounterVec
}

// NewMetrics creates the storage metrics and registers them with reg.
// Passing a fresh registry per instance keeps tests independent.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		FileLoadsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rolevault_file_loads_total",
				Help: "Total number of data file parses",
			},
			[]string{"file"},
		),
		FileSavesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rolevault_file_saves_total",
				Help: "Total number of data file writes",
			},
			[]string{"file"},
		),
		ReloadChecksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rolevault_reload_checks_total",
				Help: "Total number of modification timestamp checks",
			},
			[]string{"store"},
		),
		ReloadsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rolevault_reloads_total",
				Help: "Total number of catch-up reloads triggered by sibling writes",
			},
			[]string{"store"},
		),
		MutationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rolevault_mutations_total",
				Help: "Total number of store mutations",
			},
			[]string{"store", "op"},
		),
	}

	if reg != nil {
		reg.MustRegister(
			m.FileLoadsTotal,
			m.FileSavesTotal,
			m.ReloadChecksTotal,
			m.ReloadsTotal,
			m.MutationsTotal,
		)
	}

	return m
}

// RecordFileLoad counts a data file parse
func (m *Metrics) RecordFileLoad(file string) {
	if m == nil {
		return
	}
	m.FileLoadsTotal.WithLabelValues(file).Inc()
}

// RecordFileSave counts a data file write
func (m *Metrics) RecordFileSave(file string) {
	if m == nil {
		return
	}
	m.FileSavesTotal.WithLabelValues(file).Inc()
}

// RecordReloadCheck counts a guard timestamp check
func (m *Metrics) RecordReloadCheck(store string) {
	if m == nil {
		return
	}
	m.ReloadChecksTotal.WithLabelValues(store).Inc()
}

// RecordReload counts a guard-triggered reload
func (m *Metrics) RecordReload(store string) {
	if m == nil {
		return
	}
	m.ReloadsTotal.WithLabelValues(store).Inc()
}

// RecordMutation counts a store mutation
func (m *Metrics) RecordMutation(store, op string) {
	if m == nil {
		return
	}
	m.MutationsTotal.WithLabelValues(store, op).Inc()
}
