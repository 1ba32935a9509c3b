package store

import (
	"context"
	"errors"
	"time"

	"github.com/catedeguzman-it/finmark-sub001/internal/access/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")

	// ErrPendingExists is returned by CreateInvitation when the organization
	// already holds a pending invitation for the same email.
	ErrPendingExists = errors.New("store: pending invitation exists")
)

// Store is the root data access interface implemented by the sqlite and
// postgres drivers. Repositories hang off it as methods so that a Tx hands
// out the same repositories bound to the transaction.
type Store interface {
	Invitations() Invitations
	Users() Users

	ApplyMigrations() error

	// Tx starts a read/write transaction. The caller MUST call Commit or
	// Rollback on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx runs fn in a transaction, committing when fn returns nil and
	// rolling back otherwise.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	Close() error
	Ping(ctx context.Context) error
}

// Tx is a transaction-scoped Store.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

// Invitations persists invitation records keyed by token fingerprint. Every
// status change is a single conditional statement on status = 'pending', so
// concurrent callers cannot both win.
type Invitations interface {
	// CreateInvitation inserts a pending row. A duplicate id or token hash
	// returns ErrAlreadyExists; a second pending row for the same
	// organization and email returns ErrPendingExists.
	CreateInvitation(ctx context.Context, inv domain.Invitation) error

	// GetInvitationByID returns the row in any status.
	GetInvitationByID(ctx context.Context, id string) (domain.Invitation, error)

	// GetInvitationByTokenHash returns the row in any status.
	GetInvitationByTokenHash(ctx context.Context, hash string) (domain.Invitation, error)

	// GetPendingInvitationByTokenHash returns ErrNotFound unless the row is
	// still pending. Expiry time is not checked here.
	GetPendingInvitationByTokenHash(ctx context.Context, hash string) (domain.Invitation, error)

	// AcceptInvitation moves a pending, not yet overdue row to accepted and
	// returns it. ErrNotFound means no row matched.
	AcceptInvitation(ctx context.Context, hash string, now time.Time) (domain.Invitation, error)

	// ExpireInvitation moves a pending row to expired. It reports whether a
	// row changed.
	ExpireInvitation(ctx context.Context, hash string) (bool, error)

	// ExpireInvitationByID is ExpireInvitation keyed by id.
	ExpireInvitationByID(ctx context.Context, id string) (bool, error)

	// ExpireOverdueInvitations expires every pending row with expires_at
	// before now and returns how many changed.
	ExpireOverdueInvitations(ctx context.Context, now time.Time) (int64, error)

	// ExpirePendingInvitationsForEmail expires the pending rows for one
	// address within an organization.
	ExpirePendingInvitationsForEmail(ctx context.Context, organizationID int64, email string) (int64, error)

	// DeleteInvitation hard-deletes by id. ErrNotFound if nothing was removed.
	DeleteInvitation(ctx context.Context, id string) error

	// ListInvitationsByOrganization orders by created_at, then id.
	ListInvitationsByOrganization(ctx context.Context, organizationID int64) ([]domain.Invitation, error)
}

type Users interface {
	GetUserByID(ctx context.Context, id string) (domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// CreateUser returns ErrAlreadyExists on a duplicate id or email.
	CreateUser(ctx context.Context, u domain.User) error

	IsEmpty(ctx context.Context) (bool, error)
}
