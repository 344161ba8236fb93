// Package metrics exposes Prometheus instrumentation for admission control.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the admission-control counters. A nil *Metrics is valid and
// records nothing, so services built without instrumentation stay quiet.
type Metrics struct {
	Allowed           *prometheus.CounterVec
	Denied            *prometheus.CounterVec
	Bans              prometheus.Counter
	ProtectionOutages prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		Allowed: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "unireg_ratelimit_allowed_total",
			Help: "Requests admitted, by traffic class.",
		}, []string{"class"}),
		Denied: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "unireg_ratelimit_denied_total",
			Help: "Requests denied, by reason.",
		}, []string{"reason"}),
		Bans: promauto.NewCounter(prometheus.CounterOpts{
			Name: "unireg_ratelimit_bans_total",
			Help: "Dynamic bans applied on quota violations.",
		}),
		ProtectionOutages: promauto.NewCounter(prometheus.CounterOpts{
			Name: "unireg_ratelimit_protection_outages_total",
			Help: "Admission checks that failed closed because a store was unreachable.",
		}),
	}
}

func (m *Metrics) IncrementAllowed(class string) {
	if m == nil {
		return
	}
	m.Allowed.WithLabelValues(class).Inc()
}

func (m *Metrics) IncrementDenied(reason string) {
	if m == nil {
		return
	}
	m.Denied.WithLabelValues(reason).Inc()
}

func (m *Metrics) IncrementBans() {
	if m == nil {
		return
	}
	m.Bans.Inc()
}

func (m *Metrics) IncrementProtectionOutages() {
	if m == nil {
		return
	}
	m.ProtectionOutages.Inc()
}
