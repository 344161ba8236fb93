package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	EntriesAppended  prometheus.Counter
	AppendFailures   prometheus.Counter
	VersionsCreated  prometheus.Counter
	VersionConflicts prometheus.Counter
	FanoutDropped    prometheus.Counter
	FanoutFailures   prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		EntriesAppended: promauto.NewCounter(prometheus.CounterOpts{
			Name: "unireg_audit_entries_appended_total",
			Help: "Total number of audit entries durably appended",
		}),
		AppendFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "unireg_audit_append_failures_total",
			Help: "Total number of audit entry appends that failed",
		}),
		VersionsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "unireg_audit_versions_created_total",
			Help: "Total number of version rows created",
		}),
		VersionConflicts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "unireg_audit_version_conflicts_total",
			Help: "Total number of version creations that lost a race and exhausted retries",
		}),
		FanoutDropped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "unireg_audit_fanout_dropped_total",
			Help: "Total number of entries dropped from fanout because the inbox was full",
		}),
		FanoutFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "unireg_audit_fanout_failures_total",
			Help: "Total number of fanout publishes that failed",
		}),
	}
}

// Methods are nil-safe so services can run without metrics in tests.

func (m *Metrics) IncrementEntriesAppended() {
	if m != nil {
		m.EntriesAppended.Inc()
	}
}

func (m *Metrics) IncrementAppendFailures() {
	if m != nil {
		m.AppendFailures.Inc()
	}
}

func (m *Metrics) IncrementVersionsCreated() {
	if m != nil {
		m.VersionsCreated.Inc()
	}
}

func (m *Metrics) IncrementVersionConflicts() {
	if m != nil {
		m.VersionConflicts.Inc()
	}
}

func (m *Metrics) IncrementFanoutDropped() {
	if m != nil {
		m.FanoutDropped.Inc()
	}
}

func (m *Metrics) IncrementFanoutFailures() {
	if m != nil {
		m.FanoutFailures.Inc()
	}
}
