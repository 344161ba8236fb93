package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Allocations prometheus.Counter
	Failures    prometheus.Counter
	Rollovers   prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		Allocations: promauto.NewCounter(prometheus.CounterOpts{
			Name: "unireg_sequence_allocations_total",
			Help: "Total number of ledger coordinates issued",
		}),
		Failures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "unireg_sequence_allocation_failures_total",
			Help: "Total number of allocations refused because the counter store was unavailable",
		}),
		Rollovers: promauto.NewCounter(prometheus.CounterOpts{
			Name: "unireg_sequence_book_rollovers_total",
			Help: "Total number of ledger book rollovers",
		}),
	}
}

// Methods are nil-safe so services can run without metrics in tests.

func (m *Metrics) IncrementAllocations() {
	if m != nil {
		m.Allocations.Inc()
	}
}

func (m *Metrics) IncrementFailures() {
	if m != nil {
		m.Failures.Inc()
	}
}

func (m *Metrics) IncrementRollovers() {
	if m != nil {
		m.Rollovers.Inc()
	}
}
