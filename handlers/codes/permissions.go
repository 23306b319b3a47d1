package codes

import (
	"rangeapi/models"
	"rangeapi/utils/permissions"
)

// isStaff checks if the user carries the platform-level CODES permission
func isStaff(user *models.User) bool {
	return permissions.RolesHavePermission(user.Roles, permissions.CODES)
}
