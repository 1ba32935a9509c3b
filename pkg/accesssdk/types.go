package accesssdk

import "time"

// ErrorResponse is the body of every non-2xx answer.
type ErrorResponse struct {
	// Error is the machine-readable code, e.g. "invalid_request"
	Error string `json:"error"`

	// ErrorDescription is a human-readable description of the error
	ErrorDescription string `json:"error_description"`

	// Details maps rejected input fields to the reason, for invalid_request
	Details map[string]string `json:"details,omitempty"`
}

// ============================================================================
// Invitations
// ============================================================================

// CreateInvitationRequest is the body of POST /v1/invitations.
// OrganizationID defaults to the caller's own organization when zero.
type CreateInvitationRequest struct {
	Email          string `json:"email"`
	OrganizationID int64  `json:"organization_id,omitempty"`
	Role           string `json:"role"`
	Position       string `json:"position,omitempty"`
}

// InvitationResponse describes an invitation. It never carries the token.
type InvitationResponse struct {
	ID             string     `json:"id"`
	OrganizationID int64      `json:"organization_id"`
	Email          string     `json:"email"`
	Role           string     `json:"role"`
	Position       string     `json:"position,omitempty"`
	InvitedBy      string     `json:"invited_by,omitempty"`
	Status         string     `json:"status"`
	CreatedAt      time.Time  `json:"created_at"`
	ExpiresAt      time.Time  `json:"expires_at"`
	AcceptedAt     *time.Time `json:"accepted_at,omitempty"`
}

// CreateInvitationResponse is the only response that exposes the raw token.
type CreateInvitationResponse struct {
	InvitationResponse

	Token string `json:"token"`

	// AcceptURL is the link to hand to the invitee, when the service has a
	// link base configured
	AcceptURL string `json:"accept_url,omitempty"`
}

type InvitationListResponse struct {
	Invitations []InvitationResponse `json:"invitations"`
}

// AcceptInvitationResponse is returned once an invitation has been accepted
// and the caller's membership provisioned.
type AcceptInvitationResponse struct {
	Invitation InvitationResponse `json:"invitation"`
	Member     MeResponse         `json:"member"`
}

// ============================================================================
// Identity and permissions
// ============================================================================

// MeResponse is the caller's resolved identity with what it grants.
type MeResponse struct {
	UserID         string   `json:"user_id"`
	Email          string   `json:"email"`
	Role           string   `json:"role"`
	OrganizationID int64    `json:"organization_id"`
	Position       string   `json:"position,omitempty"`
	Permissions    []string `json:"permissions"`
	Categories     []string `json:"categories"`
}

type CategoriesResponse struct {
	Categories []string `json:"categories"`
}

// RoleDefinition is one row of the permission table.
type RoleDefinition struct {
	Name        string   `json:"name"`
	Permissions []string `json:"permissions"`
	Categories  []string `json:"categories"`
}

type RolesResponse struct {
	Roles []RoleDefinition `json:"roles"`
}

// ============================================================================
// Health
// ============================================================================

// HealthResponse is returned by /livez and /readyz. Only /readyz fills
// Checks.
type HealthResponse struct {
	// Status is "ok" or "degraded"
	Status string `json:"status"`

	// Uptime is the service uptime duration as a string (e.g., "1h23m45s")
	Uptime string `json:"uptime,omitempty"`

	Version string `json:"version,omitempty"`

	Checks *HealthChecks `json:"checks,omitempty"`
}

// HealthChecks reports the dependencies the service cannot serve without.
type HealthChecks struct {
	// Database is "ok" or the ping error
	Database string `json:"database"`

	// Keys is "ok" once identity provider keys are loaded
	Keys string `json:"keys"`
}
