package permissions

import "rangeapi/models"

// Permission bitmask for platform staff roles. Competition-scoped
// authorization (instructor vs member) lives on memberships, not here.
const (
	OWNER      = 1 << iota // full administrative access
	GROUPS                 // create and delete competition groups
	CHALLENGES             // manage the group challenge catalog
	CODES                  // issue and sweep access codes
	USERS                  // manage user accounts
)

// GetAdminPermissions returns the permission mask of the default admin role
func GetAdminPermissions() int {
	return OWNER | GROUPS | CHALLENGES | CODES | USERS
}

// HasPermission checks if a permission mask contains a permission
func HasPermission(mask int, permission int) bool {
	if mask&OWNER != 0 {
		return true
	}
	return mask&permission != 0
}

// RolesHavePermission checks if any of the roles carries the permission
func RolesHavePermission(roles []*models.Role, permission int) bool {
	for _, role := range roles {
		if HasPermission(role.Permissions, permission) {
			return true
		}
	}
	return false
}
