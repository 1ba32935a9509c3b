package domain

import (
	"time"

	"github.com/catedeguzman-it/finmark-sub001/internal/access/rbac"
)

// User is a membership row. ID is the IdP subject.
type User struct {
	ID             string
	Email          string
	Role           rbac.Role
	OrganizationID int64
	Position       string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
