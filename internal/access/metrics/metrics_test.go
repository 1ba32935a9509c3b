package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"
)

func TestMetricsRecord(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.InvitationCreated()
	m.InvitationCreated()
	m.InvitationTransitions("accepted", 1)
	m.InvitationTransitions("expired", 3)
	m.InvitationTransitions("expired", 0)
	m.ObserveSweep(150 * time.Millisecond)
	m.IdentityResolved(ResolutionOK)
	m.IdentityResolved("")

	require.Equal(t, float64(2), testutil.ToFloat64(m.created))
	require.Equal(t, float64(1), testutil.ToFloat64(m.transitions.WithLabelValues("accepted")))
	require.Equal(t, float64(3), testutil.ToFloat64(m.transitions.WithLabelValues("expired")))
	require.Equal(t, float64(1), testutil.ToFloat64(m.resolutions.WithLabelValues(ResolutionError)))

	mfs, err := reg.Gather()
	require.NoError(t, err)

	sweep := findFamily(mfs, "access_invitation_sweep_duration_seconds")
	require.NotNil(t, sweep)
	require.Equal(t, uint64(1), sweep.GetMetric()[0].GetHistogram().GetSampleCount())
	require.InDelta(t, 0.15, sweep.GetMetric()[0].GetHistogram().GetSampleSum(), 0.0001)
}

func TestMetricsNilSafe(t *testing.T) {
	var m *Metrics
	require.NotPanics(t, func() {
		m.InvitationCreated()
		m.InvitationTransitions("expired", 1)
		m.ObserveSweep(time.Second)
		m.IdentityResolved(ResolutionOK)
	})

	noop := New(nil)
	require.NotPanics(t, func() { noop.InvitationCreated() })
}

func findFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}
