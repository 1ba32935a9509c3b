package http

import (
	"net/http"

	"github.com/catedeguzman-it/finmark-sub001/internal/access/rbac"
	"github.com/catedeguzman-it/finmark-sub001/pkg/accesssdk"
	"github.com/catedeguzman-it/finmark-sub001/pkg/httpx"
)

type MeHandler struct {
	Table *rbac.Table
}

// HandleMe godoc
//
//	@Summary		Current Identity
//	@Description	The caller's membership with the permissions and dashboard categories its role grants.
//	@Tags			Identity
//	@Produce		json
//	@Success		200	{object}	accesssdk.MeResponse
//	@Failure		401	{object}	accesssdk.ErrorResponse	"error, error_description"
//	@Security		BearerAuth
//	@Router			/v1/me [get].
func (h *MeHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFromContext(r.Context())
	httpx.WriteJSON(w, http.StatusOK, meResponse(h.Table, id))
}

// HandleCategories godoc
//
//	@Summary		Dashboard Categories
//	@Tags			Identity
//	@Produce		json
//	@Success		200	{object}	accesssdk.CategoriesResponse
//	@Failure		401	{object}	accesssdk.ErrorResponse	"error, error_description"
//	@Failure		403	{object}	accesssdk.ErrorResponse	"error, error_description"
//	@Security		BearerAuth
//	@Router			/v1/dashboards/categories [get].
func (h *MeHandler) HandleCategories(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFromContext(r.Context())
	httpx.WriteJSON(w, http.StatusOK, accesssdk.CategoriesResponse{
		Categories: categoryNames(h.Table.DashboardCategories(id.Role)),
	})
}

// HandleRoles godoc
//
//	@Summary		Role Table
//	@Description	Every role with its permissions and dashboard categories, most privileged first.
//	@Tags			Identity
//	@Produce		json
//	@Success		200	{object}	accesssdk.RolesResponse
//	@Failure		401	{object}	accesssdk.ErrorResponse	"error, error_description"
//	@Failure		403	{object}	accesssdk.ErrorResponse	"error, error_description"
//	@Security		BearerAuth
//	@Router			/v1/roles [get].
func (h *MeHandler) HandleRoles(w http.ResponseWriter, r *http.Request) {
	roles := h.Table.Roles()
	out := accesssdk.RolesResponse{Roles: make([]accesssdk.RoleDefinition, 0, len(roles))}
	for _, role := range roles {
		out.Roles = append(out.Roles, accesssdk.RoleDefinition{
			Name:        role.String(),
			Permissions: permissionNames(h.Table.Permissions(role)),
			Categories:  categoryNames(h.Table.DashboardCategories(role)),
		})
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}
