package groups

import "time"

// Constants for error messages
const (
	ErrGroupNotFound          = "Group not found"
	ErrUserNotFound           = "User not found"
	ErrInvalidTimeWindow      = "End date must not be before start date"
	ErrNoPermissionView       = "User does not have permission to view groups"
	ErrNoPermissionCreate     = "User does not have permission to create groups"
	ErrNoPermissionDelete     = "User does not have permission to delete groups"
	ErrNoPermissionAddUser    = "User does not have permission to add users to this group"
	ErrNoPermissionRemoveUser = "User does not have permission to remove users from this group"
	ErrFetchingGroups         = "Failed to fetch groups"
)

// CreateGroupRequest model for creating a competition group
type CreateGroupRequest struct {
	Name        string     `json:"name" binding:"required"`
	Description string     `json:"description"`
	StartDate   time.Time  `json:"start_date" binding:"required"`
	EndDate     *time.Time `json:"end_date"`
}

// AddMemberRequest model for adding a member to a group
type AddMemberRequest struct {
	Role string `json:"role" binding:"required,oneof=instructor member"`
}
