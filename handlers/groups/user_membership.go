package groups

import (
	"errors"
	"net/http"

	"rangeapi/middleware"
	"rangeapi/services"
	"rangeapi/utils/response"

	"github.com/gin-gonic/gin"
)

// AddUserToGroup adds a user to a competition group
// @Summary Add a user to a group
// @Description Add a user to a group with a role, requires instructor or staff rights
// @Tags Groups
// @Accept json
// @Produce json
// @Param group_id path string true "Group ID"
// @Param user_id path string true "User ID"
// @Param request body AddMemberRequest true "Membership role"
// @Success 204 "No Content"
// @Failure 400 {object} response.ErrorResponse "Group or user not found"
// @Failure 401 {object} response.ErrorResponse "Unauthorized access"
// @Failure 500 {object} response.ErrorResponse "Failed to add user to group"
// @Router /groups/{group_id}/users/{user_id} [post]
// @Security Bearer
func AddUserToGroup(c *gin.Context) {
	user, err := middleware.GetUserFromRequest(c)
	if err != nil {
		return
	}

	groupID := c.Param("group_id")
	targetUserID := c.Param("user_id")

	var req AddMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	err = lifecycle.AddMember(&user, groupID, targetUserID, req.Role)
	switch {
	case errors.Is(err, services.ErrUnauthorized):
		response.Error(c, http.StatusUnauthorized, ErrNoPermissionAddUser)
	case errors.Is(err, services.ErrNotFound):
		response.Error(c, http.StatusBadRequest, ErrGroupNotFound)
	case err != nil:
		response.Error(c, http.StatusInternalServerError, "Failed to add user to group")
	default:
		c.Status(http.StatusNoContent)
	}
}

// RemoveUserFromGroup removes a user from a competition group
// @Summary Remove a user from a group
// @Description Remove a user from a group. Self-removal is always permitted; removing another user requires instructor or staff rights
// @Tags Groups
// @Accept json
// @Produce json
// @Param group_id path string true "Group ID"
// @Param user_id path string true "User ID"
// @Success 204 "No Content"
// @Failure 400 {object} response.ErrorResponse "Group or user not found"
// @Failure 401 {object} response.ErrorResponse "Unauthorized access"
// @Failure 500 {object} response.ErrorResponse "Failed to remove user from group"
// @Router /groups/{group_id}/users/{user_id} [delete]
// @Security Bearer
func RemoveUserFromGroup(c *gin.Context) {
	user, err := middleware.GetUserFromRequest(c)
	if err != nil {
		return
	}

	groupID := c.Param("group_id")
	targetUserID := c.Param("user_id")

	err = lifecycle.RemoveMember(&user, groupID, targetUserID)
	switch {
	case errors.Is(err, services.ErrUnauthorized):
		response.Error(c, http.StatusUnauthorized, ErrNoPermissionRemoveUser)
	case errors.Is(err, services.ErrNotFound):
		// The desired end state is already reached
		c.Status(http.StatusNoContent)
	case err != nil:
		response.Error(c, http.StatusInternalServerError, "Failed to remove user from group")
	default:
		c.Status(http.StatusNoContent)
	}
}

// GetMyGroups lists the groups of the authenticated user partitioned by time window
// @Summary Get my groups
// @Description Get the user's groups split into active, upcoming and completed
// @Tags Groups
// @Accept json
// @Produce json
// @Success 200 {object} services.GroupPartition
// @Failure 401 {object} response.ErrorResponse "Unauthorized access"
// @Failure 500 {object} response.ErrorResponse "Failed to fetch groups"
// @Router /groups/mine [get]
// @Security Bearer
func GetMyGroups(c *gin.Context) {
	user, err := middleware.GetUserFromRequest(c)
	if err != nil {
		return
	}

	partition, err := lifecycle.Members.ListForUser(user.ID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, ErrFetchingGroups)
		return
	}

	c.JSON(http.StatusOK, partition)
}
