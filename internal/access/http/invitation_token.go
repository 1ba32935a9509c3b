package http

import (
	"net/http"

	"github.com/catedeguzman-it/finmark-sub001/internal/access/domain"
	"github.com/catedeguzman-it/finmark-sub001/internal/access/rbac"
	"github.com/catedeguzman-it/finmark-sub001/internal/access/service"
	"github.com/catedeguzman-it/finmark-sub001/pkg/accesssdk"
	"github.com/catedeguzman-it/finmark-sub001/pkg/httpx"
)

// InvitationTokenHandler serves the routes addressed by a raw invitation
// token rather than an id.
type InvitationTokenHandler struct {
	Invitations *service.InvitationService
	Users       *service.UserService
	Table       *rbac.Table
}

func tokenParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	token := r.URL.Query().Get("token")
	if token == "" {
		writeError(w, http.StatusBadRequest, accesssdk.ErrorCodeInvalidRequest, "token is required")
		return "", false
	}
	return token, true
}

// HandleLookup godoc
//
//	@Summary		Look Up Invitation
//	@Description	Describes the invitation behind a token so the invitee can see what they are joining.
//	@Description	Accepted and expired invitations answer 410, unknown tokens 404.
//	@Tags			Invitations
//	@Produce		json
//	@Param			token	query		string	true	"Invitation token"
//	@Success		200		{object}	accesssdk.InvitationResponse
//	@Failure		400		{object}	accesssdk.ErrorResponse	"error, error_description"
//	@Failure		404		{object}	accesssdk.ErrorResponse	"error, error_description"
//	@Failure		410		{object}	accesssdk.ErrorResponse	"error, error_description"
//	@Router			/v1/invitations/lookup [get].
func (h *InvitationTokenHandler) HandleLookup(w http.ResponseWriter, r *http.Request) {
	token, ok := tokenParam(w, r)
	if !ok {
		return
	}

	inv, err := h.Invitations.GetInvitationByToken(r.Context(), token)
	if err != nil {
		writeServiceError(w, r, err, "Failed to look up invitation")
		return
	}
	if inv == nil || inv.Status != domain.InvitationPending {
		writeInvitationGone(w, inv)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, invitationResponse(*inv))
}

// HandleAccept godoc
//
//	@Summary		Accept Invitation
//	@Description	Accepts the invitation for the authenticated subject and provisions its membership with the invited role and organization.
//	@Description	A token can be accepted once. The subject's verified email, when present, must match the invited address.
//	@Tags			Invitations
//	@Produce		json
//	@Param			token	query		string	true	"Invitation token"
//	@Success		200		{object}	accesssdk.AcceptInvitationResponse
//	@Failure		400		{object}	accesssdk.ErrorResponse	"error, error_description"
//	@Failure		401		{object}	accesssdk.ErrorResponse	"error, error_description"
//	@Failure		403		{object}	accesssdk.ErrorResponse	"error, error_description"
//	@Failure		404		{object}	accesssdk.ErrorResponse	"error, error_description"
//	@Failure		409		{object}	accesssdk.ErrorResponse	"error, error_description"
//	@Failure		410		{object}	accesssdk.ErrorResponse	"error, error_description"
//	@Security		BearerAuth
//	@Router			/v1/invitations/accept [post].
func (h *InvitationTokenHandler) HandleAccept(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	claims, ok := httpx.ClaimsFromContext(ctx)
	if !ok {
		httpx.WriteBearerError(w, "authentication required")
		return
	}
	token, ok := tokenParam(w, r)
	if !ok {
		return
	}

	res, err := h.Users.AcceptAndOnboard(ctx, claims.Subject, claims.Email, token)
	if err != nil {
		writeServiceError(w, r, err, "Failed to accept invitation")
		return
	}
	if res == nil {
		inv, err := h.Invitations.GetInvitationByToken(ctx, token)
		if err != nil {
			writeServiceError(w, r, err, "Failed to look up invitation")
			return
		}
		writeInvitationGone(w, inv)
		return
	}

	member := meResponse(h.Table, domain.IdentityFromUser(res.User))
	member.Position = res.User.Position
	httpx.WriteJSON(w, http.StatusOK, accesssdk.AcceptInvitationResponse{
		Invitation: invitationResponse(res.Invitation),
		Member:     member,
	})
}

// HandleDecline godoc
//
//	@Summary		Decline Invitation
//	@Description	Expires the invitation behind a token. Unknown or already settled tokens are not an error.
//	@Tags			Invitations
//	@Param			token	query	string	true	"Invitation token"
//	@Success		204
//	@Failure		400	{object}	accesssdk.ErrorResponse	"error, error_description"
//	@Failure		500	{object}	accesssdk.ErrorResponse	"error, error_description"
//	@Router			/v1/invitations/decline [post].
func (h *InvitationTokenHandler) HandleDecline(w http.ResponseWriter, r *http.Request) {
	token, ok := tokenParam(w, r)
	if !ok {
		return
	}

	if err := h.Invitations.ExpireInvitation(r.Context(), token); err != nil {
		writeServiceError(w, r, err, "Failed to decline invitation")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
