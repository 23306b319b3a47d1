package groups

import (
	"context"
	"net/http"
	"time"

	"rangeapi/database"
	"rangeapi/middleware"
	"rangeapi/models"
	"rangeapi/utils/permissions"
	"rangeapi/utils/response"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Constants for database operations
const (
	defaultQueryTimeout = 5 * time.Second
)

// withTimeout executes a database operation with a timeout context
// dbOperation: The database operation function to execute with timeout
// returns: Error if the operation fails or times out
func withTimeout(dbOperation func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultQueryTimeout)
	defer cancel()
	return dbOperation(ctx)
}

// GetAllGroups retrieves all competition groups
// @Summary Get all groups
// @Description Get all competition groups, only accessible to staff with the GROUPS permission
// @Tags Groups
// @Accept json
// @Produce json
// @Success 200 {array} models.CompetitionGroup
// @Failure 401 {object} response.ErrorResponse "Unauthorized access"
// @Failure 500 {object} response.ErrorResponse "Internal server error"
// @Router /groups [get]
// @Security Bearer
func GetAllGroups(c *gin.Context) {
	user, err := middleware.GetUserFromRequest(c)
	if err != nil {
		return
	}

	if !permissions.RolesHavePermission(user.Roles, permissions.GROUPS) {
		response.Error(c, http.StatusUnauthorized, ErrNoPermissionView)
		return
	}

	var groups []models.CompetitionGroup
	err = withTimeout(func(ctx context.Context) error {
		return database.DB.WithContext(ctx).Find(&groups).Error
	})

	if err != nil {
		response.Error(c, http.StatusInternalServerError, ErrFetchingGroups)
		return
	}

	c.JSON(http.StatusOK, groups)
}

// GetGroup retrieves a group by ID
// @Summary Get a group
// @Description Get a group with its memberships and challenges
// @Tags Groups
// @Accept json
// @Produce json
// @Param group_id path string true "Group ID"
// @Success 200 {object} models.CompetitionGroup
// @Failure 400 {object} response.ErrorResponse "Group not found"
// @Failure 401 {object} response.ErrorResponse "Unauthorized access"
// @Router /groups/{group_id} [get]
// @Security Bearer
func GetGroup(c *gin.Context) {
	user, err := middleware.GetUserFromRequest(c)
	if err != nil {
		return
	}

	groupID := c.Param("group_id")
	var group models.CompetitionGroup

	err = withTimeout(func(ctx context.Context) error {
		return database.DB.WithContext(ctx).
			Where("id = ?", groupID).
			Preload("Memberships.User").
			Preload("Challenges").
			First(&group).Error
	})

	if err != nil {
		response.Error(c, http.StatusBadRequest, ErrGroupNotFound)
		return
	}

	if !userIsMember(user.ID, groupID) && !permissions.RolesHavePermission(user.Roles, permissions.GROUPS) {
		response.Error(c, http.StatusUnauthorized, ErrNoPermissionView)
		return
	}

	c.JSON(http.StatusOK, group)
}

// CreateGroup creates a new competition group
// @Summary Create a group
// @Description Create a competition group; the creator becomes its first instructor
// @Tags Groups
// @Accept json
// @Produce json
// @Param request body CreateGroupRequest true "Group details"
// @Success 201 {object} models.CompetitionGroup
// @Failure 400 {object} response.ErrorResponse "Invalid request"
// @Failure 401 {object} response.ErrorResponse "Unauthorized access"
// @Router /groups [post]
// @Security Bearer
func CreateGroup(c *gin.Context) {
	user, err := middleware.GetUserFromRequest(c)
	if err != nil {
		return
	}

	if !permissions.RolesHavePermission(user.Roles, permissions.GROUPS) {
		response.Error(c, http.StatusUnauthorized, ErrNoPermissionCreate)
		return
	}

	var req CreateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	if req.EndDate != nil && req.EndDate.Before(req.StartDate) {
		response.Error(c, http.StatusBadRequest, ErrInvalidTimeWindow)
		return
	}

	group := models.CompetitionGroup{
		Name:        req.Name,
		Description: req.Description,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
	}

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&group).Error; err != nil {
			return err
		}
		membership := models.Membership{GroupID: group.ID, UserID: user.ID, Role: models.RoleInstructor}
		return tx.Create(&membership).Error
	})
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "Failed to create group")
		return
	}

	if auditErr := lifecycle.Audit.Append(models.EventGroupCreated, user.ID, group.ID, &group.ID, nil); auditErr != nil {
		logrus.Error("failed to append audit event: ", auditErr)
	}

	c.JSON(http.StatusCreated, group)
}

// DeleteGroup deletes a competition group and cascades to its memberships,
// codes and challenges
// @Summary Delete a group
// @Description Delete a competition group, requires the GROUPS permission
// @Tags Groups
// @Accept json
// @Produce json
// @Param group_id path string true "Group ID"
// @Success 204 "No Content"
// @Failure 400 {object} response.ErrorResponse "Group not found"
// @Failure 401 {object} response.ErrorResponse "Unauthorized access"
// @Router /groups/{group_id} [delete]
// @Security Bearer
func DeleteGroup(c *gin.Context) {
	user, err := middleware.GetUserFromRequest(c)
	if err != nil {
		return
	}

	if !permissions.RolesHavePermission(user.Roles, permissions.GROUPS) {
		response.Error(c, http.StatusUnauthorized, ErrNoPermissionDelete)
		return
	}

	groupID := c.Param("group_id")
	var group models.CompetitionGroup
	if err := database.DB.First(&group, "id = ?", groupID).Error; err != nil {
		response.Error(c, http.StatusBadRequest, ErrGroupNotFound)
		return
	}

	if err := database.DB.Select("Memberships", "AccessCodes", "Challenges").Delete(&group).Error; err != nil {
		response.Error(c, http.StatusInternalServerError, "Failed to delete group")
		return
	}

	if auditErr := lifecycle.Audit.Append(models.EventGroupDeleted, user.ID, groupID, nil, nil); auditErr != nil {
		logrus.Error("failed to append audit event: ", auditErr)
	}

	c.Status(http.StatusNoContent)
}
