package enums

import "fmt"

// StaffRole grants access to the admin catalog and inventory endpoints.
type StaffRole string

const (
	StaffRoleAdmin          StaffRole = "admin"
	StaffRoleCatalogManager StaffRole = "catalog_manager"
	StaffRoleViewer         StaffRole = "viewer"
)

var validStaffRoles = []StaffRole{
	StaffRoleAdmin,
	StaffRoleCatalogManager,
	StaffRoleViewer,
}

// String implements fmt.Stringer.
func (r StaffRole) String() string {
	return string(r)
}

// IsValid reports whether the value is a known StaffRole.
func (r StaffRole) IsValid() bool {
	for _, candidate := range validStaffRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// CanEditCatalog reports whether the role may write designer configuration or stock.
func (r StaffRole) CanEditCatalog() bool {
	return r == StaffRoleAdmin || r == StaffRoleCatalogManager
}

// ParseStaffRole converts raw input into a StaffRole.
func ParseStaffRole(value string) (StaffRole, error) {
	for _, candidate := range validStaffRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid staff role %q", value)
}
