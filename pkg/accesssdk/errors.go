package accesssdk

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Error codes used in ErrorResponse.Error.
const (
	ErrorCodeInvalidRequest            = "invalid_request"
	ErrorCodeInvalidToken              = "invalid_token"
	ErrorCodeAccessDenied              = "access_denied"
	ErrorCodeInvitationNotFound        = "invitation_not_found"
	ErrorCodeInvitationExpired         = "invitation_expired"
	ErrorCodeInvitationAlreadyAccepted = "invitation_already_accepted"
	ErrorCodeEmailMismatch             = "email_mismatch"
	ErrorCodeAlreadyMember             = "already_member"
	ErrorCodeRateLimitExceeded         = "rate_limit_exceeded"
	ErrorCodeServerError               = "server_error"
)

// APIError is a non-2xx response decoded by the Client.
type APIError struct {
	StatusCode  int
	Code        string
	Description string
	Details     map[string]string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%d %s: %s", e.StatusCode, e.Code, e.Description)
}

// IsCode reports whether err is an APIError carrying code.
func IsCode(err error, code string) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == code
}

// parseErrorResponse turns an error body into an *APIError, falling back to
// the status text when the body is not ours.
func parseErrorResponse(resp *http.Response, body []byte) error {
	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != "" {
		return &APIError{
			StatusCode:  resp.StatusCode,
			Code:        errResp.Error,
			Description: errResp.ErrorDescription,
			Details:     errResp.Details,
		}
	}

	return &APIError{
		StatusCode:  resp.StatusCode,
		Code:        ErrorCodeServerError,
		Description: fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
	}
}
