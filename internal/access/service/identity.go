package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/catedeguzman-it/finmark-sub001/internal/access/domain"
	"github.com/catedeguzman-it/finmark-sub001/internal/access/metrics"
	"github.com/catedeguzman-it/finmark-sub001/internal/access/store"
	"github.com/catedeguzman-it/finmark-sub001/pkg/jwtx"
	"github.com/catedeguzman-it/finmark-sub001/pkg/slogx"
)

// IdentityService turns a bearer token into the caller's Identity. The token
// only proves the subject; role and organization are read from the
// membership row keyed by that subject.
type IdentityService struct {
	Store    store.Store
	Verifier jwtx.Verifier
	Metrics  *metrics.Metrics
}

// VerifySubject checks the bearer token and returns its claims without
// requiring a membership row.
func (s *IdentityService) VerifySubject(ctx context.Context, bearer string) (jwtx.Claims, error) {
	if bearer == "" || s.Verifier == nil {
		return jwtx.Claims{}, ErrUnauthenticated
	}

	claims, err := s.Verifier.Verify(bearer)
	if err != nil {
		slogx.FromContext(ctx).Debug("bearer token rejected", slog.Any("error", err))
		return jwtx.Claims{}, fmt.Errorf("%w: %w", ErrUnauthenticated, err)
	}
	if claims.Subject == "" {
		return jwtx.Claims{}, fmt.Errorf("%w: token has no subject", ErrUnauthenticated)
	}
	return claims, nil
}

// ResolveIdentity verifies bearer and loads the caller's membership row.
func (s *IdentityService) ResolveIdentity(ctx context.Context, bearer string) (domain.Identity, error) {
	claims, err := s.VerifySubject(ctx, bearer)
	if err != nil {
		s.Metrics.IdentityResolved(metrics.ResolutionUnauthenticated)
		return domain.Identity{}, err
	}
	return s.ResolveSubject(ctx, claims.Subject)
}

// ResolveSubject loads the Identity for an already verified subject.
func (s *IdentityService) ResolveSubject(ctx context.Context, subject string) (domain.Identity, error) {
	u, err := s.Store.Users().GetUserByID(ctx, subject)
	if errors.Is(err, store.ErrNotFound) {
		s.Metrics.IdentityResolved(metrics.ResolutionNoMembership)
		slogx.FromContext(ctx).Debug("no membership for subject", slog.String("subject", subject))
		return domain.Identity{}, fmt.Errorf("%w: no membership", ErrUnauthenticated)
	}
	if err != nil {
		s.Metrics.IdentityResolved(metrics.ResolutionError)
		slogx.FromContext(ctx).Error("failed to load membership", slog.Any("error", err))
		return domain.Identity{}, storageErr(err)
	}

	s.Metrics.IdentityResolved(metrics.ResolutionOK)
	return domain.IdentityFromUser(u), nil
}
