package visibility

import (
	"testing"

	"github.com/sgaibor/tiendafacil-pos/pkg/enums"
)

func TestRolePermissionTable(t *testing.T) {
	t.Parallel()

	cases := []struct {
		role    enums.UserRole
		allowed map[Module]bool
	}{
		{
			role: enums.UserRoleSuperadmin,
			allowed: map[Module]bool{
				ModuleDashboard:  true,
				ModuleProducts:   true,
				ModuleInventory:  true,
				ModuleSales:      true,
				ModuleLocations:  true,
				ModuleCategories: true,
				ModuleSuppliers:  true,
			},
		},
		{
			role: enums.UserRoleSeller,
			allowed: map[Module]bool{
				ModuleDashboard:  true,
				ModuleProducts:   true,
				ModuleInventory:  true,
				ModuleSales:      true,
				ModuleLocations:  false,
				ModuleCategories: false,
				ModuleSuppliers:  false,
			},
		},
		{
			role: enums.UserRoleWarehouse,
			allowed: map[Module]bool{
				ModuleDashboard:  true,
				ModuleProducts:   true,
				ModuleInventory:  true,
				ModuleSales:      false,
				ModuleLocations:  false,
				ModuleCategories: true,
				ModuleSuppliers:  true,
			},
		},
	}

	for _, tc := range cases {
		for _, module := range AllModules {
			want, covered := tc.allowed[module]
			if !covered {
				t.Fatalf("case for role %s misses module %s", tc.role, module)
			}
			if got := HasModulePermission(tc.role, module); got != want {
				t.Fatalf("role %s module %s: got %v want %v", tc.role, module, got, want)
			}
		}
	}
}

func TestUnknownRoleSeesNothing(t *testing.T) {
	t.Parallel()

	for _, module := range AllModules {
		if HasModulePermission(enums.UserRole("INVITADO"), module) {
			t.Fatalf("unknown role should not see %s", module)
		}
	}
	if perms := PermissionsFor(enums.UserRole("INVITADO")); len(perms) != 0 {
		t.Fatalf("expected empty permission set, got %v", perms)
	}
}

func TestPermissionsForReturnsCopy(t *testing.T) {
	t.Parallel()

	perms := PermissionsFor(enums.UserRoleSeller)
	perms[ModuleLocations] = true

	if HasModulePermission(enums.UserRoleSeller, ModuleLocations) {
		t.Fatal("mutating the returned map must not affect the table")
	}
}
