package rbac

// Default is the process-wide table, built once at init.
var Default = MustNewTable(TableConfig{
	Permissions: map[Role][]Permission{
		RoleRootAdmin: allPermissions,
		RoleAdmin: {
			PermViewDashboards,
			PermExportData,
			PermManageDashboards,
			PermInviteUsers,
			PermManageUsers,
			PermViewAuditLogs,
		},
		RoleManager: {
			PermViewDashboards,
			PermExportData,
			PermManageDashboards,
			PermInviteUsers,
		},
		RoleAnalyst: {PermViewDashboards, PermExportData},
		RoleViewer:  {PermViewDashboards},
	},
	Categories: map[Role][]Category{
		RoleRootAdmin: {
			CategoryExecutiveOverview,
			CategoryFinancialAnalytics,
			CategoryEcommerce,
			CategoryManufacturing,
			CategoryHealthcare,
		},
		RoleAdmin: {
			CategoryExecutiveOverview,
			CategoryFinancialAnalytics,
			CategoryEcommerce,
			CategoryManufacturing,
			CategoryHealthcare,
		},
		RoleManager: {
			CategoryExecutiveOverview,
			CategoryFinancialAnalytics,
			CategoryEcommerce,
			CategoryManufacturing,
		},
		RoleAnalyst: {CategoryFinancialAnalytics, CategoryEcommerce},
		RoleViewer:  {CategoryExecutiveOverview},
	},
})

// HasPermission consults Default.
func HasPermission(role Role, perm Permission) bool { return Default.HasPermission(role, perm) }

// DashboardCategories consults Default.
func DashboardCategories(role Role) []Category { return Default.DashboardCategories(role) }

// Permissions consults Default.
func Permissions(role Role) []Permission { return Default.Permissions(role) }

// CanGrant consults Default.
func CanGrant(granter, target Role) bool { return Default.CanGrant(granter, target) }
