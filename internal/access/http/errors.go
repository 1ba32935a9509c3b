package http

import (
	"errors"
	"net/http"

	"github.com/catedeguzman-it/finmark-sub001/internal/access/domain"
	"github.com/catedeguzman-it/finmark-sub001/internal/access/service"
	"github.com/catedeguzman-it/finmark-sub001/pkg/accesssdk"
	"github.com/catedeguzman-it/finmark-sub001/pkg/httpx"
	"github.com/catedeguzman-it/finmark-sub001/pkg/slogx"
)

func writeError(w http.ResponseWriter, code int, errCode, desc string) {
	httpx.WriteJSON(w, code, accesssdk.ErrorResponse{
		Error:            errCode,
		ErrorDescription: desc,
	})
}

// writeServiceError maps a service error onto the response. Anything it
// does not recognise is logged and reported as a server_error, with action
// as the description.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error, action string) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		httpx.WriteJSON(w, http.StatusBadRequest, accesssdk.ErrorResponse{
			Error:            accesssdk.ErrorCodeInvalidRequest,
			ErrorDescription: "Invalid request body",
			Details:          verr.Fields,
		})
	case errors.Is(err, service.ErrUnauthenticated):
		httpx.WriteBearerError(w, "authentication required")
	case errors.Is(err, service.ErrInvitationNotFound):
		writeError(w, http.StatusNotFound, accesssdk.ErrorCodeInvitationNotFound, "Invitation not found")
	case errors.Is(err, service.ErrEmailMismatch):
		writeError(w, http.StatusForbidden, accesssdk.ErrorCodeEmailMismatch,
			"The invitation was issued to a different email address")
	case errors.Is(err, service.ErrAlreadyMember):
		writeError(w, http.StatusConflict, accesssdk.ErrorCodeAlreadyMember,
			"This account already belongs to an organization")
	default:
		slogx.FromContext(r.Context()).Error(action, "err", err)
		writeError(w, http.StatusInternalServerError, accesssdk.ErrorCodeServerError, action)
	}
}

// writeInvitationGone explains why a token cannot be used. inv is the
// status-aware lookup result; nil means the token never existed.
func writeInvitationGone(w http.ResponseWriter, inv *domain.Invitation) {
	switch {
	case inv == nil:
		writeError(w, http.StatusNotFound, accesssdk.ErrorCodeInvitationNotFound, "Invitation not found")
	case inv.Status == domain.InvitationAccepted:
		writeError(w, http.StatusGone, accesssdk.ErrorCodeInvitationAlreadyAccepted, "Invitation has already been accepted")
	case inv.Status == domain.InvitationExpired:
		writeError(w, http.StatusGone, accesssdk.ErrorCodeInvitationExpired, "Invitation has expired")
	default:
		// Still pending: the caller lost a race that is still settling.
		writeError(w, http.StatusConflict, accesssdk.ErrorCodeInvalidRequest, "Invitation is being processed, retry")
	}
}
