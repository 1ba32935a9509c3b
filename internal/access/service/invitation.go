package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/catedeguzman-it/finmark-sub001/internal/access/domain"
	"github.com/catedeguzman-it/finmark-sub001/internal/access/metrics"
	"github.com/catedeguzman-it/finmark-sub001/internal/access/rbac"
	"github.com/catedeguzman-it/finmark-sub001/internal/access/store"
	"github.com/catedeguzman-it/finmark-sub001/pkg/cryptox"
	"github.com/catedeguzman-it/finmark-sub001/pkg/idx"
	"github.com/catedeguzman-it/finmark-sub001/pkg/slogx"
)

// DefaultInvitationTTL is how long an invitation stays acceptable.
const DefaultInvitationTTL = 7 * 24 * time.Hour

// Attempts at minting a token that does not collide with an existing one.
const maxTokenAttempts = 3

// Attempts at superseding when a concurrent create for the same organization
// and email commits first.
const maxSupersedeAttempts = 8

type CreateInvitationInput struct {
	OrganizationID int64     `json:"organization_id" validate:"gt=0"`
	Email          string    `json:"email" validate:"required,email,max=254"`
	Role           rbac.Role `json:"role" validate:"required,role"`
	Position       string    `json:"position" validate:"max=128"`
	InvitedBy      string    `json:"-" validate:"max=255"`
}

// InvitationService owns the invitation lifecycle:
//
//	pending ──accept──▶ accepted
//	   └─────expire───▶ expired
//
// Every transition is a conditional write on status = 'pending' in the
// store, so concurrent callers race safely without in-process locks.
type InvitationService struct {
	Store   store.Store
	TTL     time.Duration
	Now     func() time.Time
	Metrics *metrics.Metrics
}

func (s *InvitationService) now() time.Time {
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	// Both drivers persist millisecond precision.
	return now().UTC().Truncate(time.Millisecond)
}

func (s *InvitationService) ttl() time.Duration {
	if s.TTL <= 0 {
		return DefaultInvitationTTL
	}
	return s.TTL
}

// CreateInvitation persists a new pending invitation and returns it with its
// raw token. Earlier pending invitations for the same organization and email
// are superseded (expired) in the same transaction.
func (s *InvitationService) CreateInvitation(ctx context.Context, in CreateInvitationInput) (domain.Invitation, error) {
	log := slogx.FromContext(ctx)

	in.Email = normalizeEmail(in.Email)
	in.Role = normalizeRole(in.Role)
	if err := validateStruct(in); err != nil {
		log.Debug("invitation rejected", slog.Any("error", err))
		return domain.Invitation{}, err
	}

	var tokenAttempts, supersedeAttempts int
	for {
		token, err := cryptox.GenerateToken(cryptox.TokenSize256)
		if err != nil {
			log.Error("failed to generate invitation token", slog.Any("error", err))
			return domain.Invitation{}, fmt.Errorf("generate invitation token: %w", err)
		}

		now := s.now()
		inv := domain.Invitation{
			ID:             idx.NewAt(now).String(),
			OrganizationID: in.OrganizationID,
			Email:          in.Email,
			Role:           in.Role,
			Position:       in.Position,
			InvitedBy:      in.InvitedBy,
			TokenHash:      cryptox.FingerprintToken(token),
			Status:         domain.InvitationPending,
			CreatedAt:      now,
			ExpiresAt:      now.Add(s.ttl()),
		}

		var superseded int64
		err = s.Store.WithTx(ctx, func(tx store.Tx) error {
			n, err := tx.Invitations().ExpirePendingInvitationsForEmail(ctx, inv.OrganizationID, inv.Email)
			if err != nil {
				return err
			}
			superseded = n
			return tx.Invitations().CreateInvitation(ctx, inv)
		})
		if errors.Is(err, store.ErrAlreadyExists) {
			if tokenAttempts++; tokenAttempts < maxTokenAttempts {
				log.Warn("invitation token collided, retrying", slog.Int("attempt", tokenAttempts))
				continue
			}
		}
		// Another create for the same address committed between our
		// supersede and insert. Running again expires its row.
		if errors.Is(err, store.ErrPendingExists) {
			if supersedeAttempts++; supersedeAttempts < maxSupersedeAttempts {
				log.Debug("concurrent invitation for same email, retrying", slog.Int("attempt", supersedeAttempts))
				continue
			}
		}
		if err != nil {
			log.Error("failed to create invitation",
				slog.Int64("organization_id", inv.OrganizationID),
				slog.Any("error", err),
			)
			return domain.Invitation{}, storageErr(err)
		}

		s.Metrics.InvitationCreated()
		s.Metrics.InvitationTransitions(string(domain.InvitationExpired), superseded)

		log.Info("invitation created",
			slog.String("invitation_id", inv.ID),
			slog.Int64("organization_id", inv.OrganizationID),
			slog.String("role", string(inv.Role)),
			slog.Int64("superseded", superseded),
			slog.Time("expires_at", inv.ExpiresAt),
		)

		inv.Token = token
		return inv, nil
	}
}

// GetValidInvitation returns the invitation for token only while it is
// pending and not overdue. An overdue invitation is expired on the spot.
// nil, nil means there is nothing acceptable behind token.
func (s *InvitationService) GetValidInvitation(ctx context.Context, token string) (*domain.Invitation, error) {
	if token == "" {
		return nil, nil
	}
	repo := s.Store.Invitations()
	hash := cryptox.FingerprintToken(token)

	inv, err := repo.GetPendingInvitationByTokenHash(ctx, hash)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, storageErr(err)
	}

	if inv.IsOverdue(s.now()) {
		if _, err := s.expireLazily(ctx, repo, hash); err != nil {
			return nil, err
		}
		return nil, nil
	}

	inv.Token = token
	return &inv, nil
}

// AcceptInvitation moves the invitation from pending to accepted exactly
// once. Callers that lose a race, or present an unknown, consumed or overdue
// token, get nil, nil.
func (s *InvitationService) AcceptInvitation(ctx context.Context, token string) (*domain.Invitation, error) {
	return s.accept(ctx, s.Store.Invitations(), token)
}

func (s *InvitationService) accept(ctx context.Context, repo store.Invitations, token string) (*domain.Invitation, error) {
	if token == "" {
		return nil, nil
	}
	hash := cryptox.FingerprintToken(token)
	now := s.now()

	inv, err := repo.AcceptInvitation(ctx, hash, now)
	if err == nil {
		s.Metrics.InvitationTransitions(string(domain.InvitationAccepted), 1)
		slogx.FromContext(ctx).Info("invitation accepted", slog.String("invitation_id", inv.ID))
		inv.Token = token
		return &inv, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, storageErr(err)
	}

	// Nothing matched. If the row is pending but overdue, record that now.
	pending, err := repo.GetPendingInvitationByTokenHash(ctx, hash)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return nil, nil
	case err != nil:
		return nil, storageErr(err)
	}
	if pending.IsOverdue(now) {
		if _, err := s.expireLazily(ctx, repo, hash); err != nil {
			return nil, err
		}
	}
	return nil, nil
}

// ExpireInvitation moves a pending invitation to expired. Unknown tokens and
// invitations already accepted or expired are left alone without error.
func (s *InvitationService) ExpireInvitation(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	changed, err := s.Store.Invitations().ExpireInvitation(ctx, cryptox.FingerprintToken(token))
	if err != nil {
		return storageErr(err)
	}
	if changed {
		s.Metrics.InvitationTransitions(string(domain.InvitationExpired), 1)
		slogx.FromContext(ctx).Info("invitation expired")
	}
	return nil
}

// DeleteInvitation hard-deletes an invitation in any status.
func (s *InvitationService) DeleteInvitation(ctx context.Context, id string) error {
	err := s.Store.Invitations().DeleteInvitation(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return ErrInvitationNotFound
	}
	if err != nil {
		return storageErr(err)
	}
	slogx.FromContext(ctx).Info("invitation deleted", slog.String("invitation_id", id))
	return nil
}

// GetInvitationsByOrganization lists every invitation of an organization,
// oldest first. Tokens are not included.
func (s *InvitationService) GetInvitationsByOrganization(ctx context.Context, organizationID int64) ([]domain.Invitation, error) {
	list, err := s.Store.Invitations().ListInvitationsByOrganization(ctx, organizationID)
	if err != nil {
		return nil, storageErr(err)
	}
	return list, nil
}

// GetInvitationByToken returns the invitation in whatever status it is in,
// so callers can tell "expired" and "accepted" apart from "unknown". An
// overdue pending invitation is expired first and reported as such.
func (s *InvitationService) GetInvitationByToken(ctx context.Context, token string) (*domain.Invitation, error) {
	return s.lookup(ctx, s.Store.Invitations(), token)
}

func (s *InvitationService) lookup(ctx context.Context, repo store.Invitations, token string) (*domain.Invitation, error) {
	if token == "" {
		return nil, nil
	}
	hash := cryptox.FingerprintToken(token)

	inv, err := repo.GetInvitationByTokenHash(ctx, hash)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, storageErr(err)
	}

	if inv.IsOverdue(s.now()) {
		changed, err := s.expireLazily(ctx, repo, hash)
		if err != nil {
			return nil, err
		}
		if changed {
			inv.Status = domain.InvitationExpired
		} else {
			// Someone else moved it first; report what they wrote.
			if inv, err = repo.GetInvitationByTokenHash(ctx, hash); err != nil {
				if errors.Is(err, store.ErrNotFound) {
					return nil, nil
				}
				return nil, storageErr(err)
			}
		}
	}

	inv.Token = token
	return &inv, nil
}

// GetInvitation looks an invitation up by id for administrators.
func (s *InvitationService) GetInvitation(ctx context.Context, id string) (domain.Invitation, error) {
	inv, err := s.Store.Invitations().GetInvitationByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return domain.Invitation{}, ErrInvitationNotFound
	}
	if err != nil {
		return domain.Invitation{}, storageErr(err)
	}
	return inv, nil
}

// ExpireInvitationByID revokes a pending invitation and returns its current
// state. Revoking a terminal invitation changes nothing.
func (s *InvitationService) ExpireInvitationByID(ctx context.Context, id string) (domain.Invitation, error) {
	changed, err := s.Store.Invitations().ExpireInvitationByID(ctx, id)
	if err != nil {
		return domain.Invitation{}, storageErr(err)
	}
	if changed {
		s.Metrics.InvitationTransitions(string(domain.InvitationExpired), 1)
		slogx.FromContext(ctx).Info("invitation revoked", slog.String("invitation_id", id))
	}
	return s.GetInvitation(ctx, id)
}

// ExpireOverdue expires every pending invitation past its expiry and returns
// how many changed.
func (s *InvitationService) ExpireOverdue(ctx context.Context) (int64, error) {
	n, err := s.Store.Invitations().ExpireOverdueInvitations(ctx, s.now())
	if err != nil {
		return 0, storageErr(err)
	}
	s.Metrics.InvitationTransitions(string(domain.InvitationExpired), n)
	return n, nil
}

func (s *InvitationService) expireLazily(ctx context.Context, repo store.Invitations, hash string) (bool, error) {
	changed, err := repo.ExpireInvitation(ctx, hash)
	if err != nil {
		slogx.FromContext(ctx).Error("failed to expire overdue invitation", slog.Any("error", err))
		return false, storageErr(err)
	}
	if changed {
		s.Metrics.InvitationTransitions(string(domain.InvitationExpired), 1)
	}
	return changed, nil
}
