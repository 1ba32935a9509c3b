package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/catedeguzman-it/finmark-sub001/internal/access/domain"
	"github.com/catedeguzman-it/finmark-sub001/internal/access/rbac"
	"github.com/catedeguzman-it/finmark-sub001/internal/access/service"
	"github.com/catedeguzman-it/finmark-sub001/pkg/accesssdk"
	"github.com/catedeguzman-it/finmark-sub001/pkg/httpx"
	"github.com/catedeguzman-it/finmark-sub001/pkg/idx"
)

// InvitationsHandler serves the administrative invitation routes. Every
// route runs behind the identity middleware.
type InvitationsHandler struct {
	Invitations    *service.InvitationService
	Table          *rbac.Table
	InviteLinkBase string
}

// HandleCreate godoc
//
//	@Summary		Create Invitation
//	@Description	Invite an email address into an organization with a role. The caller needs invite_users and may only grant roles whose permissions are a subset of its own.
//	@Description	organization_id defaults to the caller's organization; only root_admin may target another one.
//	@Tags			Invitations
//	@Accept			json
//	@Produce		json
//	@Param			request	body		accesssdk.CreateInvitationRequest	true	"Invitation request"
//	@Success		201		{object}	accesssdk.CreateInvitationResponse
//	@Failure		400		{object}	accesssdk.ErrorResponse	"error, error_description, details"
//	@Failure		401		{object}	accesssdk.ErrorResponse	"error, error_description"
//	@Failure		403		{object}	accesssdk.ErrorResponse	"error, error_description"
//	@Failure		500		{object}	accesssdk.ErrorResponse	"error, error_description"
//	@Security		BearerAuth
//	@Router			/v1/invitations [post].
func (h *InvitationsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, _ := IdentityFromContext(ctx)

	var req accesssdk.CreateInvitationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, accesssdk.ErrorCodeInvalidRequest, "Invalid JSON body")
		return
	}

	orgID := req.OrganizationID
	if orgID == 0 {
		orgID = caller.OrganizationID
	}
	if !inOrganization(caller, orgID) {
		writeError(w, http.StatusForbidden, accesssdk.ErrorCodeAccessDenied, "Cannot invite into another organization")
		return
	}

	// An unparseable role is left for validation to report as a 400.
	if role, err := rbac.ParseRole(req.Role); err == nil && !h.Table.CanGrant(caller.Role, role) {
		writeError(w, http.StatusForbidden, accesssdk.ErrorCodeAccessDenied, "Cannot grant role "+role.String())
		return
	}

	inv, err := h.Invitations.CreateInvitation(ctx, service.CreateInvitationInput{
		OrganizationID: orgID,
		Email:          req.Email,
		Role:           rbac.Role(req.Role),
		Position:       req.Position,
		InvitedBy:      caller.UserID,
	})
	if err != nil {
		writeServiceError(w, r, err, "Failed to create invitation")
		return
	}

	w.Header().Set("Location", "/v1/invitations/"+inv.ID)
	httpx.WriteJSON(w, http.StatusCreated, accesssdk.CreateInvitationResponse{
		InvitationResponse: invitationResponse(inv),
		Token:              inv.Token,
		AcceptURL:          acceptURL(h.InviteLinkBase, inv.Token),
	})
}

// HandleList godoc
//
//	@Summary		List Invitations
//	@Description	All invitations of an organization in every status, oldest first. Tokens are never included.
//	@Tags			Invitations
//	@Produce		json
//	@Param			orgID	path		int	true	"Organization id"
//	@Success		200		{object}	accesssdk.InvitationListResponse
//	@Failure		400		{object}	accesssdk.ErrorResponse	"error, error_description"
//	@Failure		401		{object}	accesssdk.ErrorResponse	"error, error_description"
//	@Failure		403		{object}	accesssdk.ErrorResponse	"error, error_description"
//	@Failure		500		{object}	accesssdk.ErrorResponse	"error, error_description"
//	@Security		BearerAuth
//	@Router			/v1/organizations/{orgID}/invitations [get].
func (h *InvitationsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, _ := IdentityFromContext(ctx)

	orgID, err := strconv.ParseInt(r.PathValue("orgID"), 10, 64)
	if err != nil || orgID <= 0 {
		writeError(w, http.StatusBadRequest, accesssdk.ErrorCodeInvalidRequest, "Invalid organization id")
		return
	}
	if !inOrganization(caller, orgID) {
		writeError(w, http.StatusForbidden, accesssdk.ErrorCodeAccessDenied, "Cannot read another organization")
		return
	}

	invs, err := h.Invitations.GetInvitationsByOrganization(ctx, orgID)
	if err != nil {
		writeServiceError(w, r, err, "Failed to list invitations")
		return
	}

	out := accesssdk.InvitationListResponse{Invitations: make([]accesssdk.InvitationResponse, 0, len(invs))}
	for _, inv := range invs {
		out.Invitations = append(out.Invitations, invitationResponse(inv))
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

// HandleGet godoc
//
//	@Summary		Get Invitation
//	@Tags			Invitations
//	@Produce		json
//	@Param			id	path		string	true	"Invitation id"
//	@Success		200	{object}	accesssdk.InvitationResponse
//	@Failure		401	{object}	accesssdk.ErrorResponse	"error, error_description"
//	@Failure		403	{object}	accesssdk.ErrorResponse	"error, error_description"
//	@Failure		404	{object}	accesssdk.ErrorResponse	"error, error_description"
//	@Security		BearerAuth
//	@Router			/v1/invitations/{id} [get].
func (h *InvitationsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	inv, ok := h.loadScoped(w, r)
	if !ok {
		return
	}
	httpx.WriteJSON(w, http.StatusOK, invitationResponse(inv))
}

// HandleDelete godoc
//
//	@Summary		Delete Invitation
//	@Description	Removes the invitation record outright, whatever its status.
//	@Tags			Invitations
//	@Param			id	path	string	true	"Invitation id"
//	@Success		204
//	@Failure		401	{object}	accesssdk.ErrorResponse	"error, error_description"
//	@Failure		403	{object}	accesssdk.ErrorResponse	"error, error_description"
//	@Failure		404	{object}	accesssdk.ErrorResponse	"error, error_description"
//	@Security		BearerAuth
//	@Router			/v1/invitations/{id} [delete].
func (h *InvitationsHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	inv, ok := h.loadScoped(w, r)
	if !ok {
		return
	}

	if err := h.Invitations.DeleteInvitation(r.Context(), inv.ID); err != nil {
		writeServiceError(w, r, err, "Failed to delete invitation")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleExpire godoc
//
//	@Summary		Revoke Invitation
//	@Description	Expires a pending invitation. Revoking a terminal invitation is a no-op that returns its current state.
//	@Tags			Invitations
//	@Produce		json
//	@Param			id	path		string	true	"Invitation id"
//	@Success		200	{object}	accesssdk.InvitationResponse
//	@Failure		401	{object}	accesssdk.ErrorResponse	"error, error_description"
//	@Failure		403	{object}	accesssdk.ErrorResponse	"error, error_description"
//	@Failure		404	{object}	accesssdk.ErrorResponse	"error, error_description"
//	@Security		BearerAuth
//	@Router			/v1/invitations/{id}/expire [post].
func (h *InvitationsHandler) HandleExpire(w http.ResponseWriter, r *http.Request) {
	inv, ok := h.loadScoped(w, r)
	if !ok {
		return
	}

	inv, err := h.Invitations.ExpireInvitationByID(r.Context(), inv.ID)
	if err != nil {
		writeServiceError(w, r, err, "Failed to expire invitation")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, invitationResponse(inv))
}

// loadScoped fetches the {id} invitation and checks the caller may touch
// its organization, writing the error response when not.
func (h *InvitationsHandler) loadScoped(w http.ResponseWriter, r *http.Request) (domain.Invitation, bool) {
	ctx := r.Context()
	caller, _ := IdentityFromContext(ctx)

	id, err := idx.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, accesssdk.ErrorCodeInvitationNotFound, "Invitation not found")
		return domain.Invitation{}, false
	}

	inv, err := h.Invitations.GetInvitation(ctx, id.String())
	if err != nil {
		if errors.Is(err, service.ErrInvitationNotFound) {
			writeError(w, http.StatusNotFound, accesssdk.ErrorCodeInvitationNotFound, "Invitation not found")
		} else {
			writeServiceError(w, r, err, "Failed to load invitation")
		}
		return domain.Invitation{}, false
	}

	if !inOrganization(caller, inv.OrganizationID) {
		writeError(w, http.StatusForbidden, accesssdk.ErrorCodeAccessDenied, "Invitation belongs to another organization")
		return domain.Invitation{}, false
	}
	return inv, true
}

// acceptURL appends token to base as the token query parameter.
func acceptURL(base, token string) string {
	if base == "" {
		return ""
	}
	u, err := url.Parse(base)
	if err != nil {
		return ""
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String()
}
