package rbac

import (
	"fmt"
	"strings"
)

// Permission is an atomic capability.
type Permission string

const (
	PermViewDashboards     Permission = "view_dashboards"
	PermExportData         Permission = "export_data"
	PermManageDashboards   Permission = "manage_dashboards"
	PermInviteUsers        Permission = "invite_users"
	PermManageUsers        Permission = "manage_users"
	PermViewAuditLogs      Permission = "view_audit_logs"
	PermManageRoles        Permission = "manage_roles"
	PermManageOrganization Permission = "manage_organization"
)

var allPermissions = []Permission{
	PermViewDashboards,
	PermExportData,
	PermManageDashboards,
	PermInviteUsers,
	PermManageUsers,
	PermViewAuditLogs,
	PermManageRoles,
	PermManageOrganization,
}

// AllPermissions lists every permission.
func AllPermissions() []Permission { return append([]Permission(nil), allPermissions...) }

func (p Permission) String() string { return string(p) }

func (p Permission) IsValid() bool {
	for _, known := range allPermissions {
		if p == known {
			return true
		}
	}
	return false
}

func ParsePermission(s string) (Permission, error) {
	p := Permission(strings.ToLower(strings.TrimSpace(s)))
	if !p.IsValid() {
		return "", fmt.Errorf("rbac: unknown permission %q", s)
	}
	return p, nil
}

// Category identifies a dashboard category.
type Category string

const (
	CategoryExecutiveOverview  Category = "executive-overview"
	CategoryFinancialAnalytics Category = "financial-analytics"
	CategoryEcommerce          Category = "ecommerce"
	CategoryManufacturing      Category = "manufacturing"
	CategoryHealthcare         Category = "healthcare"
)

func (c Category) String() string { return string(c) }
