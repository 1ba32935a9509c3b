package postgres

import (
	"context"
	"database/sql"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/catedeguzman-it/finmark-sub001/internal/access/domain"
	"github.com/catedeguzman-it/finmark-sub001/internal/access/rbac"
	"github.com/catedeguzman-it/finmark-sub001/internal/access/store"
)

var invitationColumns = []string{
	"id",
	"organization_id",
	"email",
	"role",
	"position",
	"invited_by",
	"token_hash",
	"status",
	"created_at",
	"expires_at",
	"accepted_at",
}

const returningInvitation = "RETURNING id, organization_id, email, role, position, invited_by, token_hash, status, created_at, expires_at, accepted_at"

type invitationsRepo struct {
	sb sq.StatementBuilderType
}

func (r *invitationsRepo) CreateInvitation(ctx context.Context, inv domain.Invitation) error {
	_, err := r.sb.
		Insert("invitations").
		Columns("id", "organization_id", "email", "role", "position", "invited_by", "token_hash", "status", "created_at", "expires_at").
		Values(
			inv.ID,
			inv.OrganizationID,
			inv.Email,
			string(inv.Role),
			inv.Position,
			inv.InvitedBy,
			inv.TokenHash,
			string(domain.InvitationPending),
			inv.CreatedAt.UTC(),
			inv.ExpiresAt.UTC(),
		).
		ExecContext(ctx)
	return mapConstraint(err)
}

func (r *invitationsRepo) getOne(ctx context.Context, where sq.Sqlizer) (domain.Invitation, error) {
	inv, err := scanInvitation(r.sb.
		Select(invitationColumns...).
		From("invitations").
		Where(where).
		QueryRowContext(ctx))
	if err != nil {
		return domain.Invitation{}, mapNotFound(err)
	}
	return inv, nil
}

func (r *invitationsRepo) GetInvitationByID(ctx context.Context, id string) (domain.Invitation, error) {
	return r.getOne(ctx, sq.Eq{"id": id})
}

func (r *invitationsRepo) GetInvitationByTokenHash(ctx context.Context, hash string) (domain.Invitation, error) {
	return r.getOne(ctx, sq.Eq{"token_hash": hash})
}

func (r *invitationsRepo) GetPendingInvitationByTokenHash(ctx context.Context, hash string) (domain.Invitation, error) {
	return r.getOne(ctx, sq.Eq{"token_hash": hash, "status": string(domain.InvitationPending)})
}

// AcceptInvitation relies on the single UPDATE being atomic per row under
// READ COMMITTED: a concurrent loser re-evaluates the WHERE clause against
// the committed 'accepted' row and matches nothing.
func (r *invitationsRepo) AcceptInvitation(ctx context.Context, hash string, now time.Time) (domain.Invitation, error) {
	now = now.UTC()
	inv, err := scanInvitation(r.sb.
		Update("invitations").
		Set("status", string(domain.InvitationAccepted)).
		Set("accepted_at", now).
		Where(sq.Eq{"token_hash": hash, "status": string(domain.InvitationPending)}).
		Where(sq.GtOrEq{"expires_at": now}).
		Suffix(returningInvitation).
		QueryRowContext(ctx))
	if err != nil {
		return domain.Invitation{}, mapNotFound(err)
	}
	return inv, nil
}

func (r *invitationsRepo) expireWhere(ctx context.Context, where ...sq.Sqlizer) (int64, error) {
	q := r.sb.
		Update("invitations").
		Set("status", string(domain.InvitationExpired)).
		Where(sq.Eq{"status": string(domain.InvitationPending)})
	for _, w := range where {
		q = q.Where(w)
	}
	return rowsAffected(q.ExecContext(ctx))
}

func (r *invitationsRepo) ExpireInvitation(ctx context.Context, hash string) (bool, error) {
	n, err := r.expireWhere(ctx, sq.Eq{"token_hash": hash})
	return n > 0, err
}

func (r *invitationsRepo) ExpireInvitationByID(ctx context.Context, id string) (bool, error) {
	n, err := r.expireWhere(ctx, sq.Eq{"id": id})
	return n > 0, err
}

func (r *invitationsRepo) ExpireOverdueInvitations(ctx context.Context, now time.Time) (int64, error) {
	return r.expireWhere(ctx, sq.Lt{"expires_at": now.UTC()})
}

func (r *invitationsRepo) ExpirePendingInvitationsForEmail(ctx context.Context, organizationID int64, email string) (int64, error) {
	return r.expireWhere(ctx, sq.Eq{"organization_id": organizationID, "email": email})
}

func (r *invitationsRepo) DeleteInvitation(ctx context.Context, id string) error {
	n, err := rowsAffected(r.sb.
		Delete("invitations").
		Where(sq.Eq{"id": id}).
		ExecContext(ctx))
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *invitationsRepo) ListInvitationsByOrganization(ctx context.Context, organizationID int64) ([]domain.Invitation, error) {
	rows, err := r.sb.
		Select(invitationColumns...).
		From("invitations").
		Where(sq.Eq{"organization_id": organizationID}).
		OrderBy("created_at ASC", "id ASC").
		QueryContext(ctx)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Invitation{}
	for rows.Next() {
		inv, err := scanInvitation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

func scanInvitation(row sq.RowScanner) (domain.Invitation, error) {
	var (
		inv        domain.Invitation
		role       string
		status     string
		acceptedAt sql.NullTime
	)
	err := row.Scan(
		&inv.ID,
		&inv.OrganizationID,
		&inv.Email,
		&role,
		&inv.Position,
		&inv.InvitedBy,
		&inv.TokenHash,
		&status,
		&inv.CreatedAt,
		&inv.ExpiresAt,
		&acceptedAt,
	)
	if err != nil {
		return domain.Invitation{}, err
	}

	inv.Role = rbac.Role(role)
	inv.Status = domain.InvitationStatus(status)
	inv.CreatedAt = inv.CreatedAt.UTC()
	inv.ExpiresAt = inv.ExpiresAt.UTC()
	if acceptedAt.Valid {
		t := acceptedAt.Time.UTC()
		inv.AcceptedAt = &t
	}
	return inv, nil
}
