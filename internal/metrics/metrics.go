package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry        *prometheus.Registry
	syncRuns        *prometheus.CounterVec // total sync runs
	syncDuration    prometheus.Histogram   // time to sync
	fieldOperations *prometheus.CounterVec // field-level reconcile decisions
	spRequests      *prometheus.CounterVec // sharepoint api requests
	journalRequests *prometheus.CounterVec // run journal requests
}

// Public interface for metrics operations
func (m *Metrics) IncSyncRun(success bool) {
	status := boolToResult(success)
	m.syncRuns.WithLabelValues(status).Inc()
}

func (m *Metrics) SetSyncDuration(duration time.Duration) {
	m.syncDuration.Observe(duration.Seconds())
}

func (m *Metrics) IncFieldOperation(operation, list, fieldType string) {
	if !isValidFieldOperation(operation) || list == "" {
		return
	}
	m.fieldOperations.WithLabelValues(operation, list, fieldType).Inc()
}

func (m *Metrics) IncSPRequest(operation string, success bool) {
	if !isValidOperation(operation) {
		return
	}
	status := boolToResult(success)
	m.spRequests.WithLabelValues(operation, status).Inc()
}

func (m *Metrics) IncJournalRequest(operation string, success bool) {
	if !isValidOperation(operation) {
		return
	}
	status := boolToResult(success)
	m.journalRequests.WithLabelValues(operation, status).Inc()
}

// Validation helpers
func boolToResult(b bool) string {
	if b {
		return "success"
	}
	return "failure"
}

func isValidOperation(op string) bool {
	switch op {
	case "create", "read", "update", "delete":
		return true
	}
	return false
}

func isValidFieldOperation(op string) bool {
	switch op {
	case "add", "update", "skip":
		return true
	}
	return false
}

func New(register bool) *Metrics {
	registry := prometheus.NewRegistry()
	namespace := "sharepoint_list_sync"

	m := &Metrics{
		registry: registry,

		syncRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sync_runs_total",
			Help:      "Total number of reconciliation runs",
		}, []string{"status"}),

		syncDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sync_duration_seconds",
			Help:      "Duration of reconciliation runs in seconds",
			Buckets:   prometheus.DefBuckets,
		}),

		fieldOperations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "field_operations_total",
			Help:      "Total field reconcile decisions by operation",
		}, []string{"operation", "list", "type"}),

		spRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sharepoint_requests_total",
			Help:      "Total SharePoint REST requests",
		}, []string{"operation", "status"}),

		journalRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "journal_requests_total",
			Help:      "Total run journal requests",
		}, []string{"operation", "status"}),
	}

	if register {
		registry.MustRegister(
			m.syncRuns,
			m.syncDuration,
			m.fieldOperations,
			m.spRequests,
			m.journalRequests,
		)
	}
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
