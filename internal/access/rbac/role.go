// Package rbac holds the static permission table: which capabilities each
// role has and which dashboard categories it can see.
package rbac

import (
	"fmt"
	"strings"
)

// Role is a named privilege level held by a member.
type Role string

const (
	RoleRootAdmin Role = "root_admin"
	RoleAdmin     Role = "admin"
	RoleManager   Role = "manager"
	RoleAnalyst   Role = "analyst"
	RoleViewer    Role = "viewer"
)

var allRoles = []Role{RoleRootAdmin, RoleAdmin, RoleManager, RoleAnalyst, RoleViewer}

// AllRoles lists every role, most privileged first.
func AllRoles() []Role { return append([]Role(nil), allRoles...) }

func (r Role) String() string { return string(r) }

// IsValid reports whether r is one of the enumerated roles.
func (r Role) IsValid() bool {
	switch r {
	case RoleRootAdmin, RoleAdmin, RoleManager, RoleAnalyst, RoleViewer:
		return true
	}
	return false
}

// ParseRole accepts any casing and surrounding whitespace.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.IsValid() {
		return "", fmt.Errorf("rbac: unknown role %q", s)
	}
	return r, nil
}
