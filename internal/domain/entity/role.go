package entity

// Roles válidos (claim role del token).
const (
	RoleSuperAdmin   = "super_admin"
	RoleCompanyAdmin = "company_admin"
	RoleStoreManager = "store_manager"
	RoleEmployee     = "employee"
)

// Capacidades nombradas (independientes del rol, viajan en el token).
const (
	PermManageInventory = "canManageInventory"
	PermManageSales     = "canManageSales"
	PermManageStores    = "canManageStores"
	PermManageUsers     = "canManageUsers"
	PermViewReports     = "canViewReports"
)

// IsValidRole informa si el rol pertenece al conjunto cerrado.
func IsValidRole(role string) bool {
	switch role {
	case RoleSuperAdmin, RoleCompanyAdmin, RoleStoreManager, RoleEmployee:
		return true
	}
	return false
}
