package authz

import "github.com/jhoicas/retail-api/internal/domain/entity"

// Caller identidad resuelta por el middleware de autenticación.
type Caller struct {
	UserID      string
	CompanyID   string
	StoreID     string
	Role        string
	Permissions []string
}

// roleDefaults capacidades implícitas por rol; las del token se suman.
var roleDefaults = map[string][]string{
	entity.RoleCompanyAdmin: {
		entity.PermManageInventory, entity.PermManageSales, entity.PermManageStores,
		entity.PermManageUsers, entity.PermViewReports,
	},
	entity.RoleStoreManager: {entity.PermManageSales, entity.PermViewReports},
	entity.RoleEmployee:     {entity.PermManageSales},
}

// WithinCompany informa si el usuario pertenece a la empresa indicada.
func (c Caller) WithinCompany(companyID string) bool {
	return c.CompanyID != "" && c.CompanyID == companyID
}

// WithinStore informa si el usuario pertenece a la tienda indicada.
func (c Caller) WithinStore(storeID string) bool {
	return c.StoreID != "" && c.StoreID == storeID
}

// HasPermission informa si el usuario tiene la capacidad, por rol o por token.
// super_admin las tiene todas.
func (c Caller) HasPermission(name string) bool {
	if c.Role == entity.RoleSuperAdmin {
		return true
	}
	for _, p := range roleDefaults[c.Role] {
		if p == name {
			return true
		}
	}
	for _, p := range c.Permissions {
		if p == name {
			return true
		}
	}
	return false
}
