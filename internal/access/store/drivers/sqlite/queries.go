package sqlite

import (
	"context"
	"database/sql"
)

// dbtx is satisfied by both *sql.DB and *sql.Tx.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type queries struct {
	db dbtx
}

const invitationColumns = `id, organization_id, email, role, position, invited_by, token_hash, status, created_at, expires_at, accepted_at`

type invitationRow struct {
	ID             string
	OrganizationID int64
	Email          string
	Role           string
	Position       string
	InvitedBy      string
	TokenHash      string
	Status         string
	CreatedAt      int64
	ExpiresAt      int64
	AcceptedAt     sql.NullInt64
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInvitation(s rowScanner) (invitationRow, error) {
	var r invitationRow
	err := s.Scan(
		&r.ID,
		&r.OrganizationID,
		&r.Email,
		&r.Role,
		&r.Position,
		&r.InvitedBy,
		&r.TokenHash,
		&r.Status,
		&r.CreatedAt,
		&r.ExpiresAt,
		&r.AcceptedAt,
	)
	return r, err
}

const createInvitation = `
INSERT INTO invitations (id, organization_id, email, role, position, invited_by, token_hash, status, created_at, expires_at)
VALUES (?, ?, ?, ?, ?, ?, ?, 'pending', ?, ?)`

func (q *queries) CreateInvitation(ctx context.Context, r invitationRow) error {
	_, err := q.db.ExecContext(ctx, createInvitation,
		r.ID, r.OrganizationID, r.Email, r.Role, r.Position, r.InvitedBy, r.TokenHash, r.CreatedAt, r.ExpiresAt)
	return err
}

const getInvitationByID = `SELECT ` + invitationColumns + ` FROM invitations WHERE id = ?`

func (q *queries) GetInvitationByID(ctx context.Context, id string) (invitationRow, error) {
	return scanInvitation(q.db.QueryRowContext(ctx, getInvitationByID, id))
}

const getInvitationByTokenHash = `SELECT ` + invitationColumns + ` FROM invitations WHERE token_hash = ?`

func (q *queries) GetInvitationByTokenHash(ctx context.Context, hash string) (invitationRow, error) {
	return scanInvitation(q.db.QueryRowContext(ctx, getInvitationByTokenHash, hash))
}

const getPendingInvitationByTokenHash = `SELECT ` + invitationColumns + ` FROM invitations WHERE token_hash = ? AND status = 'pending'`

func (q *queries) GetPendingInvitationByTokenHash(ctx context.Context, hash string) (invitationRow, error) {
	return scanInvitation(q.db.QueryRowContext(ctx, getPendingInvitationByTokenHash, hash))
}

const acceptInvitation = `
UPDATE invitations
SET status = 'accepted', accepted_at = ?1
WHERE token_hash = ?2 AND status = 'pending' AND expires_at >= ?1
RETURNING ` + invitationColumns

func (q *queries) AcceptInvitation(ctx context.Context, hash string, now int64) (invitationRow, error) {
	return scanInvitation(q.db.QueryRowContext(ctx, acceptInvitation, now, hash))
}

const expireInvitationByTokenHash = `UPDATE invitations SET status = 'expired' WHERE token_hash = ? AND status = 'pending'`

func (q *queries) ExpireInvitationByTokenHash(ctx context.Context, hash string) (int64, error) {
	return q.execRows(ctx, expireInvitationByTokenHash, hash)
}

const expireInvitationByID = `UPDATE invitations SET status = 'expired' WHERE id = ? AND status = 'pending'`

func (q *queries) ExpireInvitationByID(ctx context.Context, id string) (int64, error) {
	return q.execRows(ctx, expireInvitationByID, id)
}

const expireOverdueInvitations = `UPDATE invitations SET status = 'expired' WHERE status = 'pending' AND expires_at < ?`

func (q *queries) ExpireOverdueInvitations(ctx context.Context, now int64) (int64, error) {
	return q.execRows(ctx, expireOverdueInvitations, now)
}

const expirePendingInvitationsForEmail = `
UPDATE invitations SET status = 'expired'
WHERE organization_id = ? AND email = ? AND status = 'pending'`

func (q *queries) ExpirePendingInvitationsForEmail(ctx context.Context, orgID int64, email string) (int64, error) {
	return q.execRows(ctx, expirePendingInvitationsForEmail, orgID, email)
}

const deleteInvitation = `DELETE FROM invitations WHERE id = ?`

func (q *queries) DeleteInvitation(ctx context.Context, id string) (int64, error) {
	return q.execRows(ctx, deleteInvitation, id)
}

const listInvitationsByOrganization = `
SELECT ` + invitationColumns + `
FROM invitations
WHERE organization_id = ?
ORDER BY created_at ASC, id ASC`

func (q *queries) ListInvitationsByOrganization(ctx context.Context, orgID int64) ([]invitationRow, error) {
	rows, err := q.db.QueryContext(ctx, listInvitationsByOrganization, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []invitationRow
	for rows.Next() {
		r, err := scanInvitation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

const userColumns = `id, email, role, organization_id, position, created_at, updated_at`

type userRow struct {
	ID             string
	Email          string
	Role           string
	OrganizationID int64
	Position       string
	CreatedAt      int64
	UpdatedAt      int64
}

func scanUser(s rowScanner) (userRow, error) {
	var r userRow
	err := s.Scan(&r.ID, &r.Email, &r.Role, &r.OrganizationID, &r.Position, &r.CreatedAt, &r.UpdatedAt)
	return r, err
}

const getUserByID = `SELECT ` + userColumns + ` FROM users WHERE id = ?`

func (q *queries) GetUserByID(ctx context.Context, id string) (userRow, error) {
	return scanUser(q.db.QueryRowContext(ctx, getUserByID, id))
}

const getUserByEmail = `SELECT ` + userColumns + ` FROM users WHERE email = ?`

func (q *queries) GetUserByEmail(ctx context.Context, email string) (userRow, error) {
	return scanUser(q.db.QueryRowContext(ctx, getUserByEmail, email))
}

const createUser = `
INSERT INTO users (id, email, role, organization_id, position, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?)`

func (q *queries) CreateUser(ctx context.Context, r userRow) error {
	_, err := q.db.ExecContext(ctx, createUser,
		r.ID, r.Email, r.Role, r.OrganizationID, r.Position, r.CreatedAt, r.UpdatedAt)
	return err
}

const countUsers = `SELECT COUNT(*) FROM users`

func (q *queries) CountUsers(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countUsers).Scan(&n)
	return n, err
}

func (q *queries) execRows(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := q.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
