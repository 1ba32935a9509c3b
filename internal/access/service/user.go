package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/catedeguzman-it/finmark-sub001/internal/access/domain"
	"github.com/catedeguzman-it/finmark-sub001/internal/access/rbac"
	"github.com/catedeguzman-it/finmark-sub001/internal/access/store"
	"github.com/catedeguzman-it/finmark-sub001/pkg/slogx"
)

type CreateUserInput struct {
	Subject        string    `json:"subject" validate:"required,max=255"`
	Email          string    `json:"email" validate:"required,email,max=254"`
	Role           rbac.Role `json:"role" validate:"required,role"`
	OrganizationID int64     `json:"organization_id" validate:"gt=0"`
	Position       string    `json:"position" validate:"max=128"`
}

// OnboardResult is the outcome of a successful acceptance.
type OnboardResult struct {
	Invitation domain.Invitation
	User       domain.User
}

// UserService manages membership rows. Invitations reaches the lifecycle
// manager for the accept hand-off.
type UserService struct {
	Store       store.Store
	Invitations *InvitationService
}

// CreateUser inserts a membership row directly, e.g. for bootstrapping the
// first root_admin.
func (s *UserService) CreateUser(ctx context.Context, in CreateUserInput) (domain.User, error) {
	in.Subject = strings.TrimSpace(in.Subject)
	in.Email = normalizeEmail(in.Email)
	in.Role = normalizeRole(in.Role)
	if err := validateStruct(in); err != nil {
		return domain.User{}, err
	}

	now := s.Invitations.now()
	u := domain.User{
		ID:             in.Subject,
		Email:          in.Email,
		Role:           in.Role,
		OrganizationID: in.OrganizationID,
		Position:       in.Position,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	err := s.Store.Users().CreateUser(ctx, u)
	if errors.Is(err, store.ErrAlreadyExists) {
		return domain.User{}, ErrAlreadyMember
	}
	if err != nil {
		return domain.User{}, storageErr(err)
	}

	slogx.FromContext(ctx).Info("membership created",
		slog.String("user_id", u.ID),
		slog.Int64("organization_id", u.OrganizationID),
		slog.String("role", string(u.Role)),
	)
	return u, nil
}

// GetUser returns nil, nil for an unknown id.
func (s *UserService) GetUser(ctx context.Context, id string) (*domain.User, error) {
	u, err := s.Store.Users().GetUserByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, storageErr(err)
	}
	return &u, nil
}

// AcceptAndOnboard accepts the invitation behind token on behalf of a
// verified subject and provisions its membership row, all in one
// transaction. It returns nil, nil when the token is unknown, consumed,
// overdue, or lost a concurrent race. A non-empty email must match the
// invited address.
func (s *UserService) AcceptAndOnboard(ctx context.Context, subject, email, token string) (*OnboardResult, error) {
	log := slogx.FromContext(ctx)
	if subject == "" {
		return nil, ErrUnauthenticated
	}

	var result *OnboardResult
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		// 1. Status-aware lookup, expiring an overdue row on the way.
		inv, err := s.Invitations.lookup(ctx, tx.Invitations(), token)
		if err != nil || inv == nil || inv.Status != domain.InvitationPending {
			return err
		}

		// 2. The verified email, when the IdP provides one, must be the invited one.
		if email != "" && normalizeEmail(email) != inv.Email {
			log.Warn("invitation accept with mismatched email",
				slog.String("invitation_id", inv.ID),
				slog.String("subject", subject),
			)
			return ErrEmailMismatch
		}

		// 3. One membership per subject.
		if _, err := tx.Users().GetUserByID(ctx, subject); err == nil {
			return ErrAlreadyMember
		} else if !errors.Is(err, store.ErrNotFound) {
			return storageErr(err)
		}

		// 4. The conditional accept decides any race.
		accepted, err := s.Invitations.accept(ctx, tx.Invitations(), token)
		if err != nil || accepted == nil {
			return err
		}

		// 5. Provision the membership from the invitation, never from the caller.
		u := domain.User{
			ID:             subject,
			Email:          accepted.Email,
			Role:           accepted.Role,
			OrganizationID: accepted.OrganizationID,
			Position:       accepted.Position,
			CreatedAt:      *accepted.AcceptedAt,
			UpdatedAt:      *accepted.AcceptedAt,
		}
		if err := tx.Users().CreateUser(ctx, u); err != nil {
			if errors.Is(err, store.ErrAlreadyExists) {
				return ErrAlreadyMember
			}
			return storageErr(err)
		}

		result = &OnboardResult{Invitation: *accepted, User: u}
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrEmailMismatch), errors.Is(err, ErrAlreadyMember):
			return nil, err
		case !errors.Is(err, ErrStorage):
			err = storageErr(err)
		}
		log.Error("failed to onboard invitation", slog.Any("error", err))
		return nil, err
	}
	if result == nil {
		return nil, nil
	}

	log.Info("invitation onboarded",
		slog.String("invitation_id", result.Invitation.ID),
		slog.String("user_id", result.User.ID),
		slog.Int64("organization_id", result.User.OrganizationID),
	)
	return result, nil
}
