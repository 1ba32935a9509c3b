package service

import (
	"context"
	"encoding/hex"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/catedeguzman-it/finmark-sub001/internal/access/domain"
	"github.com/catedeguzman-it/finmark-sub001/internal/access/rbac"
	"github.com/catedeguzman-it/finmark-sub001/internal/access/store/drivers/sqlite"
)

func analystInput(email string) CreateInvitationInput {
	return CreateInvitationInput{
		OrganizationID: 42,
		Email:          email,
		Role:           rbac.RoleAnalyst,
		Position:       "FP&A",
		InvitedBy:      "admin-1",
	}
}

func TestCreateInvitation_RoundTrip(t *testing.T) {
	ctx := context.Background()
	svc, clock := newInvitationService(t)

	inv, err := svc.CreateInvitation(ctx, analystInput("  Ana@Example.COM "))
	require.NoError(t, err)

	require.Len(t, inv.Token, 64)
	_, err = hex.DecodeString(inv.Token)
	require.NoError(t, err)
	require.Equal(t, "ana@example.com", inv.Email)
	require.Equal(t, domain.InvitationPending, inv.Status)
	require.Equal(t, clock.Now(), inv.CreatedAt)
	require.Equal(t, inv.CreatedAt.Add(7*24*time.Hour), inv.ExpiresAt)

	got, err := svc.GetInvitationByToken(ctx, inv.Token)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, inv.ID, got.ID)
	require.Equal(t, inv.Token, got.Token)
	require.Equal(t, int64(42), got.OrganizationID)
	require.Equal(t, rbac.RoleAnalyst, got.Role)
	require.Equal(t, "FP&A", got.Position)
	require.Equal(t, domain.InvitationPending, got.Status)
	require.True(t, got.ExpiresAt.Equal(got.CreatedAt.Add(7*24*time.Hour)))
	require.Nil(t, got.AcceptedAt)

	valid, err := svc.GetValidInvitation(ctx, inv.Token)
	require.NoError(t, err)
	require.NotNil(t, valid)
	require.Equal(t, inv.ID, valid.ID)
}

func TestCreateInvitation_ConfigurableTTL(t *testing.T) {
	svc, _ := newInvitationService(t)
	svc.TTL = 48 * time.Hour

	inv, err := svc.CreateInvitation(context.Background(), analystInput("a@example.com"))
	require.NoError(t, err)
	require.Equal(t, 48*time.Hour, inv.ExpiresAt.Sub(inv.CreatedAt))
}

func TestCreateInvitation_Validation(t *testing.T) {
	svc, _ := newInvitationService(t)

	_, err := svc.CreateInvitation(context.Background(), CreateInvitationInput{
		Email: "not-an-email",
		Role:  "owner",
	})
	require.ErrorIs(t, err, ErrValidation)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	require.Contains(t, verr.Fields, "email")
	require.Contains(t, verr.Fields, "role")
	require.Contains(t, verr.Fields, "organization_id")

	_, err = svc.CreateInvitation(context.Background(), CreateInvitationInput{OrganizationID: 1, Role: rbac.RoleViewer})
	require.ErrorAs(t, err, &verr)
	require.Equal(t, "is required", verr.Fields["email"])

	// Role casing is normalised before validation.
	in := analystInput("b@example.com")
	in.Role = " Viewer "
	inv, err := svc.CreateInvitation(context.Background(), in)
	require.NoError(t, err)
	require.Equal(t, rbac.RoleViewer, inv.Role)
}

func TestCreateInvitation_TokensAreUnique(t *testing.T) {
	ctx := context.Background()
	svc, _ := newInvitationService(t)

	seen := make(map[string]struct{})
	for i := 0; i < 200; i++ {
		inv, err := svc.CreateInvitation(ctx, analystInput("u"+string(rune('a'+i%26))+"@example.com"))
		require.NoError(t, err)

		_, dup := seen[inv.Token]
		require.False(t, dup)
		seen[inv.Token] = struct{}{}
	}
}

func TestCreateInvitation_SupersedesPending(t *testing.T) {
	ctx := context.Background()
	svc, clock := newInvitationService(t)

	first, err := svc.CreateInvitation(ctx, analystInput("dup@example.com"))
	require.NoError(t, err)
	clock.Advance(time.Minute)

	other := analystInput("dup@example.com")
	other.OrganizationID = 43
	elsewhere, err := svc.CreateInvitation(ctx, other)
	require.NoError(t, err)

	second, err := svc.CreateInvitation(ctx, analystInput("DUP@example.com"))
	require.NoError(t, err)

	old, err := svc.GetInvitationByToken(ctx, first.Token)
	require.NoError(t, err)
	require.Equal(t, domain.InvitationExpired, old.Status)

	valid, err := svc.GetValidInvitation(ctx, first.Token)
	require.NoError(t, err)
	require.Nil(t, valid)

	valid, err = svc.GetValidInvitation(ctx, second.Token)
	require.NoError(t, err)
	require.NotNil(t, valid)

	valid, err = svc.GetValidInvitation(ctx, elsewhere.Token)
	require.NoError(t, err)
	require.NotNil(t, valid, "other organizations are not superseded")
}

func TestGetValidInvitation_LazyExpiry(t *testing.T) {
	ctx := context.Background()
	svc, clock := newInvitationService(t)

	inv, err := svc.CreateInvitation(ctx, analystInput("late@example.com"))
	require.NoError(t, err)

	clock.Advance(7 * 24 * time.Hour)
	valid, err := svc.GetValidInvitation(ctx, inv.Token)
	require.NoError(t, err)
	require.NotNil(t, valid, "still valid exactly at expiry")

	clock.Advance(time.Millisecond)
	valid, err = svc.GetValidInvitation(ctx, inv.Token)
	require.NoError(t, err)
	require.Nil(t, valid)

	// The transition was persisted, not just reported.
	row, err := svc.Store.Invitations().GetInvitationByID(ctx, inv.ID)
	require.NoError(t, err)
	require.Equal(t, domain.InvitationExpired, row.Status)
}

func TestGetInvitationByToken_ReportsOverdueAsExpired(t *testing.T) {
	ctx := context.Background()
	svc, clock := newInvitationService(t)

	inv, err := svc.CreateInvitation(ctx, analystInput("x@example.com"))
	require.NoError(t, err)
	clock.Advance(8 * 24 * time.Hour)

	got, err := svc.GetInvitationByToken(ctx, inv.Token)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, domain.InvitationExpired, got.Status)

	missing, err := svc.GetInvitationByToken(ctx, "deadbeef")
	require.NoError(t, err)
	require.Nil(t, missing)

	empty, err := svc.GetInvitationByToken(ctx, "")
	require.NoError(t, err)
	require.Nil(t, empty)
}

func TestAcceptInvitation_Once(t *testing.T) {
	ctx := context.Background()
	svc, clock := newInvitationService(t)

	inv, err := svc.CreateInvitation(ctx, analystInput("once@example.com"))
	require.NoError(t, err)
	clock.Advance(time.Hour)

	accepted, err := svc.AcceptInvitation(ctx, inv.Token)
	require.NoError(t, err)
	require.NotNil(t, accepted)
	require.Equal(t, domain.InvitationAccepted, accepted.Status)
	require.NotNil(t, accepted.AcceptedAt)
	require.True(t, clock.Now().Equal(*accepted.AcceptedAt))

	again, err := svc.AcceptInvitation(ctx, inv.Token)
	require.NoError(t, err)
	require.Nil(t, again)

	valid, err := svc.GetValidInvitation(ctx, inv.Token)
	require.NoError(t, err)
	require.Nil(t, valid)
}

func TestAcceptInvitation_Overdue(t *testing.T) {
	ctx := context.Background()
	svc, clock := newInvitationService(t)

	inv, err := svc.CreateInvitation(ctx, analystInput("slow@example.com"))
	require.NoError(t, err)
	clock.Advance(7*24*time.Hour + time.Second)

	accepted, err := svc.AcceptInvitation(ctx, inv.Token)
	require.NoError(t, err)
	require.Nil(t, accepted)

	got, err := svc.GetInvitationByToken(ctx, inv.Token)
	require.NoError(t, err)
	require.Equal(t, domain.InvitationExpired, got.Status)
	require.Nil(t, got.AcceptedAt)
}

func TestNoResurrection(t *testing.T) {
	ctx := context.Background()
	svc, clock := newInvitationService(t)

	t.Run("accepted stays accepted", func(t *testing.T) {
		inv, err := svc.CreateInvitation(ctx, analystInput("acc@example.com"))
		require.NoError(t, err)

		_, err = svc.AcceptInvitation(ctx, inv.Token)
		require.NoError(t, err)

		require.NoError(t, svc.ExpireInvitation(ctx, inv.Token))
		clock.Advance(30 * 24 * time.Hour)
		n, err := svc.ExpireOverdue(ctx)
		require.NoError(t, err)
		require.Zero(t, n)

		got, err := svc.GetInvitationByToken(ctx, inv.Token)
		require.NoError(t, err)
		require.Equal(t, domain.InvitationAccepted, got.Status)
	})

	t.Run("expired stays expired", func(t *testing.T) {
		inv, err := svc.CreateInvitation(ctx, analystInput("exp@example.com"))
		require.NoError(t, err)

		require.NoError(t, svc.ExpireInvitation(ctx, inv.Token))
		require.NoError(t, svc.ExpireInvitation(ctx, inv.Token), "idempotent")

		accepted, err := svc.AcceptInvitation(ctx, inv.Token)
		require.NoError(t, err)
		require.Nil(t, accepted)

		valid, err := svc.GetValidInvitation(ctx, inv.Token)
		require.NoError(t, err)
		require.Nil(t, valid)

		got, err := svc.GetInvitationByToken(ctx, inv.Token)
		require.NoError(t, err)
		require.Equal(t, domain.InvitationExpired, got.Status)
	})

	t.Run("unknown token is a no-op", func(t *testing.T) {
		require.NoError(t, svc.ExpireInvitation(ctx, "nope"))
	})
}

func TestAcceptInvitation_ConcurrentSingleWinner(t *testing.T) {
	ctx := context.Background()
	svc := &InvitationService{Store: newFileStore(t)}

	inv, err := svc.CreateInvitation(ctx, analystInput("race@example.com"))
	require.NoError(t, err)

	const racers = 25
	var (
		wg      sync.WaitGroup
		winners atomic.Int32
	)
	start := make(chan struct{})
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			got, err := svc.AcceptInvitation(ctx, inv.Token)
			assert.NoError(t, err)
			if got != nil {
				winners.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	require.Equal(t, int32(1), winners.Load())

	got, err := svc.GetInvitationByToken(ctx, inv.Token)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, domain.InvitationAccepted, got.Status)
	require.NotNil(t, got.AcceptedAt)
}

func TestCreateInvitation_ConcurrentSameEmailLeavesOnePending(t *testing.T) {
	ctx := context.Background()
	svc := &InvitationService{Store: newFileStore(t)}

	const creators = 8
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < creators; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := svc.CreateInvitation(ctx, analystInput("dup@example.com"))
			assert.NoError(t, err)
		}()
	}
	close(start)
	wg.Wait()

	list, err := svc.GetInvitationsByOrganization(ctx, 42)
	require.NoError(t, err)

	var pending int
	for _, inv := range list {
		if inv.Status == domain.InvitationPending {
			pending++
		}
	}
	require.Len(t, list, creators)
	require.Equal(t, 1, pending)
}

func TestDeleteInvitation(t *testing.T) {
	ctx := context.Background()
	svc, _ := newInvitationService(t)

	inv, err := svc.CreateInvitation(ctx, analystInput("gone@example.com"))
	require.NoError(t, err)

	require.NoError(t, svc.DeleteInvitation(ctx, inv.ID))
	require.ErrorIs(t, svc.DeleteInvitation(ctx, inv.ID), ErrInvitationNotFound)

	got, err := svc.GetInvitationByToken(ctx, inv.Token)
	require.NoError(t, err)
	require.Nil(t, got)

	valid, err := svc.GetValidInvitation(ctx, inv.Token)
	require.NoError(t, err)
	require.Nil(t, valid)

	_, err = svc.GetInvitation(ctx, inv.ID)
	require.ErrorIs(t, err, ErrInvitationNotFound)
}

func TestGetInvitationsByOrganization(t *testing.T) {
	ctx := context.Background()
	svc, clock := newInvitationService(t)

	var ids []string
	for _, email := range []string{"c@example.com", "a@example.com", "b@example.com"} {
		inv, err := svc.CreateInvitation(ctx, analystInput(email))
		require.NoError(t, err)
		ids = append(ids, inv.ID)
		clock.Advance(time.Second)
	}

	list, err := svc.GetInvitationsByOrganization(ctx, 42)
	require.NoError(t, err)
	require.Len(t, list, 3)
	for i, inv := range list {
		require.Equal(t, ids[i], inv.ID)
		require.Empty(t, inv.Token, "listings never carry tokens")
	}

	none, err := svc.GetInvitationsByOrganization(ctx, 7)
	require.NoError(t, err)
	require.Empty(t, none)
}

func TestExpireInvitationByID(t *testing.T) {
	ctx := context.Background()
	svc, _ := newInvitationService(t)

	inv, err := svc.CreateInvitation(ctx, analystInput("revoke@example.com"))
	require.NoError(t, err)

	got, err := svc.ExpireInvitationByID(ctx, inv.ID)
	require.NoError(t, err)
	require.Equal(t, domain.InvitationExpired, got.Status)

	got, err = svc.ExpireInvitationByID(ctx, inv.ID)
	require.NoError(t, err)
	require.Equal(t, domain.InvitationExpired, got.Status)

	_, err = svc.ExpireInvitationByID(ctx, "missing")
	require.ErrorIs(t, err, ErrInvitationNotFound)
}

func TestStorageErrorsAreNotNotFound(t *testing.T) {
	ctx := context.Background()

	s, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, s.ApplyMigrations())
	require.NoError(t, s.Close())

	svc := &InvitationService{Store: s}

	inv, err := svc.GetValidInvitation(ctx, "token")
	require.ErrorIs(t, err, ErrStorage)
	require.Nil(t, inv)

	inv, err = svc.AcceptInvitation(ctx, "token")
	require.ErrorIs(t, err, ErrStorage)
	require.Nil(t, inv)

	inv, err = svc.GetInvitationByToken(ctx, "token")
	require.ErrorIs(t, err, ErrStorage)
	require.Nil(t, inv)

	require.ErrorIs(t, svc.ExpireInvitation(ctx, "token"), ErrStorage)
	require.ErrorIs(t, svc.DeleteInvitation(ctx, "id"), ErrStorage)

	_, err = svc.CreateInvitation(ctx, analystInput("a@example.com"))
	require.ErrorIs(t, err, ErrStorage)

	_, err = svc.GetInvitationsByOrganization(ctx, 1)
	require.ErrorIs(t, err, ErrStorage)
}
