package challenges

import (
	"net/http"

	"rangeapi/database"
	"rangeapi/middleware"
	"rangeapi/models"
	"rangeapi/utils/permissions"
	"rangeapi/utils/response"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// canManageChallenges allows group instructors and staff with the CHALLENGES
// permission
func canManageChallenges(user *models.User, groupID string) (bool, error) {
	if permissions.RolesHavePermission(user.Roles, permissions.CHALLENGES) {
		return true, nil
	}
	return lifecycle.Members.IsInstructor(user.ID, groupID)
}

// ListGroupChallenges lists the challenges of a group
// @Summary List group challenges
// @Description List all challenges assigned to a competition group, requires membership
// @Tags Challenges
// @Produce json
// @Param group_id path string true "Group ID"
// @Success 200 {array} models.GroupChallenge
// @Failure 401 {object} response.ErrorResponse "Unauthorized access"
// @Failure 500 {object} response.ErrorResponse "Failed to fetch challenges"
// @Router /groups/{group_id}/challenges [get]
// @Security Bearer
func ListGroupChallenges(c *gin.Context) {
	user, err := middleware.GetUserFromRequest(c)
	if err != nil {
		return
	}

	groupID := c.Param("group_id")

	member, err := lifecycle.Members.IsMember(user.ID, groupID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "Failed to check membership")
		return
	}
	if !member {
		allowed, err := canManageChallenges(&user, groupID)
		if err != nil || !allowed {
			response.Error(c, http.StatusUnauthorized, ErrNoPermissionStart)
			return
		}
	}

	var challenges []models.GroupChallenge
	if err := database.DB.Where("group_id = ?", groupID).
		Order("name ASC").
		Find(&challenges).Error; err != nil {
		response.Error(c, http.StatusInternalServerError, "Failed to fetch challenges")
		return
	}

	c.JSON(http.StatusOK, challenges)
}

// CreateChallenge adds a challenge to a group
// @Summary Create a challenge
// @Description Assign a new challenge to a group, requires instructor or staff rights
// @Tags Challenges
// @Accept json
// @Produce json
// @Param group_id path string true "Group ID"
// @Param request body CreateChallengeRequest true "Challenge parameters"
// @Success 201 {object} models.GroupChallenge
// @Failure 400 {object} response.ErrorResponse "Invalid request"
// @Failure 401 {object} response.ErrorResponse "Unauthorized access"
// @Failure 404 {object} response.ErrorResponse "Group not found"
// @Router /groups/{group_id}/challenges [post]
// @Security Bearer
func CreateChallenge(c *gin.Context) {
	user, err := middleware.GetUserFromRequest(c)
	if err != nil {
		return
	}

	groupID := c.Param("group_id")

	allowed, err := canManageChallenges(&user, groupID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "Failed to check permissions")
		return
	}
	if !allowed {
		response.Error(c, http.StatusUnauthorized, ErrNoPermissionManage)
		return
	}

	var req CreateChallengeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	var group models.CompetitionGroup
	if err := database.DB.First(&group, "id = ?", groupID).Error; err != nil {
		response.Error(c, http.StatusNotFound, ErrGroupNotFound)
		return
	}

	challenge := models.GroupChallenge{
		GroupID:    groupID,
		Name:       req.Name,
		Image:      req.Image,
		ChalType:   req.ChalType,
		AppsConfig: req.AppsConfig,
		Points:     req.Points,
	}
	if err := database.DB.Create(&challenge).Error; err != nil {
		response.Error(c, http.StatusInternalServerError, "Failed to create challenge")
		return
	}

	c.JSON(http.StatusCreated, challenge)
}

// DeleteChallenge removes a challenge from a group
// @Summary Delete a challenge
// @Description Remove a challenge from a group along with its completion records, requires instructor or staff rights
// @Tags Challenges
// @Produce json
// @Param group_id path string true "Group ID"
// @Param challenge_id path string true "Challenge ID"
// @Success 204 "No Content"
// @Failure 401 {object} response.ErrorResponse "Unauthorized access"
// @Failure 404 {object} response.ErrorResponse "Challenge not found"
// @Router /groups/{group_id}/challenges/{challenge_id} [delete]
// @Security Bearer
func DeleteChallenge(c *gin.Context) {
	user, err := middleware.GetUserFromRequest(c)
	if err != nil {
		return
	}

	groupID := c.Param("group_id")
	challengeID := c.Param("challenge_id")

	allowed, err := canManageChallenges(&user, groupID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "Failed to check permissions")
		return
	}
	if !allowed {
		response.Error(c, http.StatusUnauthorized, ErrNoPermissionManage)
		return
	}

	var challenge models.GroupChallenge
	if err := database.DB.First(&challenge, "id = ? AND group_id = ?", challengeID, groupID).Error; err != nil {
		response.Error(c, http.StatusNotFound, ErrChallengeNotFound)
		return
	}

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("group_challenge_id = ?", challengeID).
			Delete(&models.CompletionRecord{}).Error; err != nil {
			return err
		}
		if err := tx.Where("group_challenge_id = ?", challengeID).
			Delete(&models.QuestionCompletion{}).Error; err != nil {
			return err
		}
		if err := tx.Where("challenge_id = ?", challengeID).
			Delete(&models.ChallengeInstance{}).Error; err != nil {
			return err
		}
		return tx.Delete(&challenge).Error
	})
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "Failed to delete challenge")
		return
	}

	c.Status(http.StatusNoContent)
}
