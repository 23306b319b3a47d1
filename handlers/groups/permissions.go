package groups

import (
	"rangeapi/database"
	"rangeapi/models"
)

// userIsInstructor checks if the user holds the instructor role in the group
// userID: User ID
// groupID: Group ID
// return: true if the user is an instructor of the group
//         false if the user is not, or on error
func userIsInstructor(userID, groupID string) bool {
	var count int64
	err := database.DB.Model(&models.Membership{}).
		Where("group_id = ? AND user_id = ? AND role = ?", groupID, userID, models.RoleInstructor).
		Count(&count).Error
	if err != nil {
		return false
	}
	return count > 0
}

// userIsMember checks if the user holds any role in the group
func userIsMember(userID, groupID string) bool {
	var count int64
	err := database.DB.Model(&models.Membership{}).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		Count(&count).Error
	if err != nil {
		return false
	}
	return count > 0
}
