// Package metrics holds the Prometheus collectors for the access service.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Identity resolution outcomes.
const (
	ResolutionOK              = "ok"
	ResolutionUnauthenticated = "unauthenticated"
	ResolutionNoMembership    = "no_membership"
	ResolutionError           = "error"
)

type Metrics struct {
	created     prometheus.Counter
	transitions *prometheus.CounterVec
	sweep       prometheus.Histogram
	resolutions *prometheus.CounterVec
}

// New registers the access collectors on reg. A nil reg yields a no-op
// Metrics.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		return &Metrics{}
	}

	created := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "access_invitations_created_total",
		Help: "Invitations created.",
	})
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "access_invitation_transitions_total",
		Help: "Invitation status transitions out of pending, by target status.",
	}, []string{"to"})
	sweep := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "access_invitation_sweep_duration_seconds",
		Help:    "Duration of the overdue invitation sweep.",
		Buckets: prometheus.DefBuckets,
	})
	resolutions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "access_identity_resolutions_total",
		Help: "Bearer token identity resolutions, by result.",
	}, []string{"result"})

	reg.MustRegister(created, transitions, sweep, resolutions)
	return &Metrics{
		created:     created,
		transitions: transitions,
		sweep:       sweep,
		resolutions: resolutions,
	}
}

func (m *Metrics) InvitationCreated() {
	if m == nil || m.created == nil {
		return
	}
	m.created.Inc()
}

// InvitationTransitions adds n transitions into status to.
func (m *Metrics) InvitationTransitions(to string, n int64) {
	if m == nil || m.transitions == nil || n <= 0 {
		return
	}
	m.transitions.WithLabelValues(to).Add(float64(n))
}

func (m *Metrics) ObserveSweep(d time.Duration) {
	if m == nil || m.sweep == nil {
		return
	}
	m.sweep.Observe(d.Seconds())
}

func (m *Metrics) IdentityResolved(result string) {
	if m == nil || m.resolutions == nil {
		return
	}
	if result == "" {
		result = ResolutionError
	}
	m.resolutions.WithLabelValues(result).Inc()
}
