package domain

import (
	"time"

	"github.com/catedeguzman-it/finmark-sub001/internal/access/rbac"
)

type InvitationStatus string

const (
	InvitationPending  InvitationStatus = "pending"
	InvitationAccepted InvitationStatus = "accepted"
	InvitationExpired  InvitationStatus = "expired"
)

// IsTerminal reports whether no further transition is possible.
func (s InvitationStatus) IsTerminal() bool {
	return s == InvitationAccepted || s == InvitationExpired
}

func (s InvitationStatus) IsValid() bool {
	switch s {
	case InvitationPending, InvitationAccepted, InvitationExpired:
		return true
	}
	return false
}

type Invitation struct {
	ID             string
	OrganizationID int64
	Email          string
	Role           rbac.Role
	Position       string
	InvitedBy      string // Empty when minted from the CLI
	Token          string // Raw token; only set on creation and token lookups
	TokenHash      string
	Status         InvitationStatus
	CreatedAt      time.Time
	ExpiresAt      time.Time
	AcceptedAt     *time.Time
}

// IsOverdue reports whether the invitation is still pending past its expiry.
func (i *Invitation) IsOverdue(now time.Time) bool {
	return i.Status == InvitationPending && now.After(i.ExpiresAt)
}
