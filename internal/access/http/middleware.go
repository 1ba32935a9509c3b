package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/catedeguzman-it/finmark-sub001/internal/access/domain"
	"github.com/catedeguzman-it/finmark-sub001/internal/access/rbac"
	"github.com/catedeguzman-it/finmark-sub001/internal/access/service"
	"github.com/catedeguzman-it/finmark-sub001/pkg/httpx"
	"github.com/catedeguzman-it/finmark-sub001/pkg/slogx"
)

type identityKey struct{}

// ContextWithIdentity stores the resolved caller. It also sets the user id
// the per-user rate limiter keys on.
func ContextWithIdentity(ctx context.Context, id domain.Identity) context.Context {
	ctx = context.WithValue(ctx, httpx.CtxKeyUserID, id.UserID)
	return context.WithValue(ctx, identityKey{}, id)
}

func IdentityFromContext(ctx context.Context) (domain.Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(domain.Identity)
	return id, ok
}

// identity resolves the bearer token into a membership-backed Identity.
// A verified token without a membership row is still a 401.
func (r *Router) identity() httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := req.Context()

			raw, ok := httpx.BearerToken(req)
			if !ok {
				httpx.WriteBearerError(w, "missing bearer token")
				return
			}

			id, err := r.IdentityService.ResolveIdentity(ctx, raw)
			switch {
			case errors.Is(err, service.ErrUnauthenticated):
				httpx.WriteBearerError(w, "token is invalid or has no membership")
				return
			case err != nil:
				slogx.FromContext(ctx).Error("identity resolution failed", "err", err)
				httpx.WriteError(w, http.StatusInternalServerError, "server_error", "Failed to resolve identity")
				return
			}

			ctx = slogx.With(ContextWithIdentity(ctx, id), "user_id", id.UserID)
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	}
}

// requirePermission must run after identity.
func (r *Router) requirePermission(perm rbac.Permission) httpx.Middleware {
	return httpx.Require(func(req *http.Request) bool {
		id, ok := IdentityFromContext(req.Context())
		return ok && r.Table.HasPermission(id.Role, perm)
	}, "missing permission "+perm.String())
}

// inOrganization reports whether id may act on organizationID. root_admin
// spans every organization.
func inOrganization(id domain.Identity, organizationID int64) bool {
	return id.Role == rbac.RoleRootAdmin || id.OrganizationID == organizationID
}
