package sqlite

import (
	"context"
	"time"

	"github.com/catedeguzman-it/finmark-sub001/internal/access/domain"
	"github.com/catedeguzman-it/finmark-sub001/internal/access/rbac"
	"github.com/catedeguzman-it/finmark-sub001/internal/access/store"
)

type invitationsRepo struct {
	q *queries
}

func (r *invitationsRepo) CreateInvitation(ctx context.Context, inv domain.Invitation) error {
	err := r.q.CreateInvitation(ctx, invitationRow{
		ID:             inv.ID,
		OrganizationID: inv.OrganizationID,
		Email:          inv.Email,
		Role:           string(inv.Role),
		Position:       inv.Position,
		InvitedBy:      inv.InvitedBy,
		TokenHash:      inv.TokenHash,
		CreatedAt:      toMillis(inv.CreatedAt),
		ExpiresAt:      toMillis(inv.ExpiresAt),
	})
	return mapConstraint(err)
}

func (r *invitationsRepo) GetInvitationByID(ctx context.Context, id string) (domain.Invitation, error) {
	row, err := r.q.GetInvitationByID(ctx, id)
	if err != nil {
		return domain.Invitation{}, mapNotFound(err)
	}
	return mapInvitation(row), nil
}

func (r *invitationsRepo) GetInvitationByTokenHash(ctx context.Context, hash string) (domain.Invitation, error) {
	row, err := r.q.GetInvitationByTokenHash(ctx, hash)
	if err != nil {
		return domain.Invitation{}, mapNotFound(err)
	}
	return mapInvitation(row), nil
}

func (r *invitationsRepo) GetPendingInvitationByTokenHash(ctx context.Context, hash string) (domain.Invitation, error) {
	row, err := r.q.GetPendingInvitationByTokenHash(ctx, hash)
	if err != nil {
		return domain.Invitation{}, mapNotFound(err)
	}
	return mapInvitation(row), nil
}

func (r *invitationsRepo) AcceptInvitation(ctx context.Context, hash string, now time.Time) (domain.Invitation, error) {
	row, err := r.q.AcceptInvitation(ctx, hash, toMillis(now))
	if err != nil {
		return domain.Invitation{}, mapNotFound(err)
	}
	return mapInvitation(row), nil
}

func (r *invitationsRepo) ExpireInvitation(ctx context.Context, hash string) (bool, error) {
	n, err := r.q.ExpireInvitationByTokenHash(ctx, hash)
	return n > 0, err
}

func (r *invitationsRepo) ExpireInvitationByID(ctx context.Context, id string) (bool, error) {
	n, err := r.q.ExpireInvitationByID(ctx, id)
	return n > 0, err
}

func (r *invitationsRepo) ExpireOverdueInvitations(ctx context.Context, now time.Time) (int64, error) {
	return r.q.ExpireOverdueInvitations(ctx, toMillis(now))
}

func (r *invitationsRepo) ExpirePendingInvitationsForEmail(ctx context.Context, organizationID int64, email string) (int64, error) {
	return r.q.ExpirePendingInvitationsForEmail(ctx, organizationID, email)
}

func (r *invitationsRepo) DeleteInvitation(ctx context.Context, id string) error {
	n, err := r.q.DeleteInvitation(ctx, id)
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *invitationsRepo) ListInvitationsByOrganization(ctx context.Context, organizationID int64) ([]domain.Invitation, error) {
	rows, err := r.q.ListInvitationsByOrganization(ctx, organizationID)
	if err != nil {
		return nil, err
	}

	out := make([]domain.Invitation, 0, len(rows))
	for _, row := range rows {
		out = append(out, mapInvitation(row))
	}
	return out, nil
}

func mapInvitation(row invitationRow) domain.Invitation {
	return domain.Invitation{
		ID:             row.ID,
		OrganizationID: row.OrganizationID,
		Email:          row.Email,
		Role:           rbac.Role(row.Role),
		Position:       row.Position,
		InvitedBy:      row.InvitedBy,
		TokenHash:      row.TokenHash,
		Status:         domain.InvitationStatus(row.Status),
		CreatedAt:      fromMillis(row.CreatedAt),
		ExpiresAt:      fromMillis(row.ExpiresAt),
		AcceptedAt:     fromNullMillis(row.AcceptedAt),
	}
}
