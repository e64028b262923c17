package visibility

import "github.com/sgaibor/tiendafacil-pos/pkg/enums"

// Module names a navigable area of the client.
type Module string

const (
	ModuleDashboard  Module = "dashboard"
	ModuleProducts   Module = "productos"
	ModuleInventory  Module = "inventario"
	ModuleSales      Module = "ventas"
	ModuleLocations  Module = "locales"
	ModuleCategories Module = "categorias"
	ModuleSuppliers  Module = "proveedores"
)

// AllModules lists every module in display order.
var AllModules = []Module{
	ModuleDashboard,
	ModuleProducts,
	ModuleInventory,
	ModuleSales,
	ModuleLocations,
	ModuleCategories,
	ModuleSuppliers,
}

// ModulePermissions is the capability set a role grants.
type ModulePermissions map[Module]bool

// rolePermissions is the single source of truth for role-based visibility.
// A role missing from the table sees nothing.
var rolePermissions = map[enums.UserRole]ModulePermissions{
	enums.UserRoleSuperadmin: {
		ModuleDashboard:  true,
		ModuleProducts:   true,
		ModuleInventory:  true,
		ModuleSales:      true,
		ModuleLocations:  true,
		ModuleCategories: true,
		ModuleSuppliers:  true,
	},
	enums.UserRoleSeller: {
		ModuleDashboard:  true,
		ModuleProducts:   true,
		ModuleInventory:  true,
		ModuleSales:      true,
		ModuleLocations:  false,
		ModuleCategories: false,
		ModuleSuppliers:  false,
	},
	enums.UserRoleWarehouse: {
		ModuleDashboard:  true,
		ModuleProducts:   true,
		ModuleInventory:  true,
		ModuleSales:      false,
		ModuleLocations:  false,
		ModuleCategories: true,
		ModuleSuppliers:  true,
	},
}

// PermissionsFor returns the capability set for a role.
func PermissionsFor(role enums.UserRole) ModulePermissions {
	perms, ok := rolePermissions[role]
	if !ok {
		return ModulePermissions{}
	}
	out := make(ModulePermissions, len(perms))
	for module, allowed := range perms {
		out[module] = allowed
	}
	return out
}

// HasModulePermission reports whether a role may see a module.
func HasModulePermission(role enums.UserRole, module Module) bool {
	perms, ok := rolePermissions[role]
	if !ok {
		return false
	}
	return perms[module]
}
