package groups

import (
	"net/http"
	"strconv"

	"rangeapi/database"
	"rangeapi/middleware"
	"rangeapi/models"
	"rangeapi/utils/permissions"
	"rangeapi/utils/response"

	"github.com/gin-gonic/gin"
)

// GetGroupAuditLog lists the audit trail of a group, newest first
// @Summary Get a group audit log
// @Description List the lifecycle audit events of a group, requires instructor or staff rights
// @Tags Groups
// @Produce json
// @Param group_id path string true "Group ID"
// @Param limit query int false "Maximum number of events, default 100"
// @Success 200 {array} models.AuditEvent
// @Failure 401 {object} response.ErrorResponse "Unauthorized access"
// @Failure 500 {object} response.ErrorResponse "Failed to fetch audit log"
// @Router /groups/{group_id}/audit [get]
// @Security Bearer
func GetGroupAuditLog(c *gin.Context) {
	user, err := middleware.GetUserFromRequest(c)
	if err != nil {
		return
	}

	groupID := c.Param("group_id")

	if !permissions.RolesHavePermission(user.Roles, permissions.GROUPS) && !userIsInstructor(user.ID, groupID) {
		response.Error(c, http.StatusUnauthorized, ErrNoPermissionView)
		return
	}

	limit := 100
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= 1000 {
			limit = parsed
		}
	}

	var events []models.AuditEvent
	if err := database.DB.Where("group_id = ?", groupID).
		Order("created_at DESC").
		Limit(limit).
		Find(&events).Error; err != nil {
		response.Error(c, http.StatusInternalServerError, "Failed to fetch audit log")
		return
	}

	c.JSON(http.StatusOK, events)
}
