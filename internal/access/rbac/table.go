package rbac

import (
	"errors"
	"fmt"
	"slices"
)

// TableConfig is the raw input to NewTable.
type TableConfig struct {
	Permissions map[Role][]Permission
	Categories  map[Role][]Category

	// ZeroAccess lists roles that are deliberately allowed an empty
	// permission set. Any other role with no permissions is a config error.
	ZeroAccess []Role
}

// Table is an immutable role → permissions and role → categories mapping.
// It has no mutation API; a changed table means a redeploy. All methods are
// safe for concurrent use without locking.
type Table struct {
	perms map[Role]map[Permission]struct{}
	order map[Role][]Permission
	cats  map[Role][]Category
}

var ErrInvalidTable = errors.New("rbac: invalid permission table")

// NewTable validates cfg and copies it into a Table. Both mappings must list
// exactly the same roles.
func NewTable(cfg TableConfig) (*Table, error) {
	t := &Table{
		perms: make(map[Role]map[Permission]struct{}, len(cfg.Permissions)),
		order: make(map[Role][]Permission, len(cfg.Permissions)),
		cats:  make(map[Role][]Category, len(cfg.Categories)),
	}

	for role, perms := range cfg.Permissions {
		if !role.IsValid() {
			return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidTable, role)
		}
		if _, ok := cfg.Categories[role]; !ok {
			return nil, fmt.Errorf("%w: role %q has permissions but no categories entry", ErrInvalidTable, role)
		}
		if len(perms) == 0 && !slices.Contains(cfg.ZeroAccess, role) {
			return nil, fmt.Errorf("%w: role %q has no permissions", ErrInvalidTable, role)
		}

		set := make(map[Permission]struct{}, len(perms))
		list := make([]Permission, 0, len(perms))
		for _, p := range perms {
			if !p.IsValid() {
				return nil, fmt.Errorf("%w: role %q has unknown permission %q", ErrInvalidTable, role, p)
			}
			if _, dup := set[p]; dup {
				continue
			}
			set[p] = struct{}{}
			list = append(list, p)
		}
		t.perms[role] = set
		t.order[role] = list
	}

	for role, cats := range cfg.Categories {
		if _, ok := cfg.Permissions[role]; !ok {
			return nil, fmt.Errorf("%w: role %q has categories but no permissions entry", ErrInvalidTable, role)
		}

		list := make([]Category, 0, len(cats))
		for _, c := range cats {
			if c == "" {
				return nil, fmt.Errorf("%w: role %q has an empty category", ErrInvalidTable, role)
			}
			if slices.Contains(list, c) {
				return nil, fmt.Errorf("%w: role %q lists category %q twice", ErrInvalidTable, role, c)
			}
			list = append(list, c)
		}
		t.cats[role] = list
	}

	return t, nil
}

// MustNewTable is NewTable for package-level tables; it panics on error.
func MustNewTable(cfg TableConfig) *Table {
	t, err := NewTable(cfg)
	if err != nil {
		panic(err)
	}
	return t
}

// HasPermission reports whether role holds perm. Unknown roles hold nothing.
func (t *Table) HasPermission(role Role, perm Permission) bool {
	_, ok := t.perms[role][perm]
	return ok
}

// Permissions returns role's permissions in table order. Unknown roles get an
// empty slice.
func (t *Table) Permissions(role Role) []Permission {
	return slices.Clone(t.order[role])
}

// DashboardCategories returns the ordered categories role may see. Unknown
// roles get an empty list rather than any default. The result is a copy.
func (t *Table) DashboardCategories(role Role) []Category {
	cats := t.cats[role]
	if cats == nil {
		return []Category{}
	}
	return slices.Clone(cats)
}

// CanViewCategory reports whether cat is among role's categories.
func (t *Table) CanViewCategory(role Role, cat Category) bool {
	return slices.Contains(t.cats[role], cat)
}

// CanGrant reports whether a member holding granter may invite someone into
// target. The granter needs invite_users and must already hold every
// permission the target role would receive.
func (t *Table) CanGrant(granter, target Role) bool {
	if !t.HasPermission(granter, PermInviteUsers) {
		return false
	}
	if _, known := t.perms[target]; !known {
		return false
	}
	for p := range t.perms[target] {
		if !t.HasPermission(granter, p) {
			return false
		}
	}
	return true
}

// Roles returns the roles present in the table, in AllRoles order.
func (t *Table) Roles() []Role {
	out := make([]Role, 0, len(t.perms))
	for _, r := range allRoles {
		if _, ok := t.perms[r]; ok {
			out = append(out, r)
		}
	}
	return out
}
