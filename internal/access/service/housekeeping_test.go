package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/catedeguzman-it/finmark-sub001/internal/access/domain"
	"github.com/catedeguzman-it/finmark-sub001/internal/access/metrics"
	"github.com/catedeguzman-it/finmark-sub001/internal/access/rbac"
)

func TestHousekeepingSweep(t *testing.T) {
	ctx := context.Background()
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	invites, clock := newInvitationService(t)
	invites.Metrics = m

	var tokens []string
	for _, email := range []string{"a@example.com", "b@example.com"} {
		inv, err := invites.CreateInvitation(ctx, CreateInvitationInput{OrganizationID: 1, Email: email, Role: rbac.RoleViewer})
		require.NoError(t, err)
		tokens = append(tokens, inv.Token)
	}
	clock.Advance(6 * 24 * time.Hour)
	fresh, err := invites.CreateInvitation(ctx, CreateInvitationInput{OrganizationID: 1, Email: "c@example.com", Role: rbac.RoleViewer})
	require.NoError(t, err)
	clock.Advance(2 * 24 * time.Hour)

	hk, err := NewHousekeepingService(invites, slog.New(slog.NewTextHandler(io.Discard, nil)), "", m)
	require.NoError(t, err)
	require.Equal(t, DefaultSweepSchedule, hk.Schedule)

	n, err := hk.Sweep(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(2), n)

	for _, tok := range tokens {
		got, err := invites.GetInvitationByToken(ctx, tok)
		require.NoError(t, err)
		require.NotNil(t, got, "sweep never deletes")
		require.Equal(t, domain.InvitationExpired, got.Status)
	}
	valid, err := invites.GetValidInvitation(ctx, fresh.Token)
	require.NoError(t, err)
	require.NotNil(t, valid)

	require.Equal(t, 1, testutil.CollectAndCount(reg, "access_invitation_sweep_duration_seconds"))
	require.Equal(t, float64(2), expiredTransitions(t, reg))
}

func TestHousekeeping_StartStop(t *testing.T) {
	invites, _ := newInvitationService(t)
	hk, err := NewHousekeepingService(invites, slog.New(slog.NewTextHandler(io.Discard, nil)), "@every 1h", nil)
	require.NoError(t, err)

	ran := make(chan struct{}, 1)
	require.NoError(t, hk.AddJob("probe", "@every 1h", func(context.Context) error {
		ran <- struct{}{}
		return nil
	}))

	hk.Start()
	hk.Stop()
}

func TestHousekeeping_BadSchedule(t *testing.T) {
	invites, _ := newInvitationService(t)
	_, err := NewHousekeepingService(invites, nil, "every tuesday", nil)
	require.Error(t, err)
}

func expiredTransitions(t *testing.T, reg *prometheus.Registry) float64 {
	t.Helper()

	mfs, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range mfs {
		if mf.GetName() != "access_invitation_transitions_total" {
			continue
		}
		for _, metric := range mf.GetMetric() {
			for _, lp := range metric.GetLabel() {
				if lp.GetName() == "to" && lp.GetValue() == "expired" {
					return metric.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}
