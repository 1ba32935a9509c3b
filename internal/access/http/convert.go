package http

import (
	"github.com/catedeguzman-it/finmark-sub001/internal/access/domain"
	"github.com/catedeguzman-it/finmark-sub001/internal/access/rbac"
	"github.com/catedeguzman-it/finmark-sub001/pkg/accesssdk"
)

func invitationResponse(inv domain.Invitation) accesssdk.InvitationResponse {
	return accesssdk.InvitationResponse{
		ID:             inv.ID,
		OrganizationID: inv.OrganizationID,
		Email:          inv.Email,
		Role:           inv.Role.String(),
		Position:       inv.Position,
		InvitedBy:      inv.InvitedBy,
		Status:         string(inv.Status),
		CreatedAt:      inv.CreatedAt,
		ExpiresAt:      inv.ExpiresAt,
		AcceptedAt:     inv.AcceptedAt,
	}
}

func meResponse(t *rbac.Table, id domain.Identity) accesssdk.MeResponse {
	return accesssdk.MeResponse{
		UserID:         id.UserID,
		Email:          id.Email,
		Role:           id.Role.String(),
		OrganizationID: id.OrganizationID,
		Permissions:    permissionNames(t.Permissions(id.Role)),
		Categories:     categoryNames(t.DashboardCategories(id.Role)),
	}
}

func permissionNames(perms []rbac.Permission) []string {
	out := make([]string, 0, len(perms))
	for _, p := range perms {
		out = append(out, p.String())
	}
	return out
}

func categoryNames(cats []rbac.Category) []string {
	out := make([]string, 0, len(cats))
	for _, c := range cats {
		out = append(out, c.String())
	}
	return out
}
