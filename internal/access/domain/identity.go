package domain

import "github.com/catedeguzman-it/finmark-sub001/internal/access/rbac"

// Identity is the resolved caller of a request. It is only ever built from
// a User row, never from token claims.
type Identity struct {
	UserID         string
	Email          string
	Role           rbac.Role
	OrganizationID int64
}

func IdentityFromUser(u User) Identity {
	return Identity{
		UserID:         u.ID,
		Email:          u.Email,
		Role:           u.Role,
		OrganizationID: u.OrganizationID,
	}
}
