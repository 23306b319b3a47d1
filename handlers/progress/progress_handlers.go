package progress

import (
	"errors"
	"net/http"
	"time"

	"rangeapi/database"
	"rangeapi/middleware"
	"rangeapi/models"
	"rangeapi/services"
	"rangeapi/utils/permissions"
	"rangeapi/utils/response"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// RecordCompletion records that the authenticated user solved a challenge
// @Summary Record a completion
// @Description Record a challenge completion and award its points. Duplicate completions are rejected and never double-count
// @Tags Progress
// @Accept json
// @Produce json
// @Param request body CompletionRequest true "The solved challenge"
// @Success 201 {object} CompletionResponse
// @Failure 400 {object} response.ErrorResponse "Invalid request"
// @Failure 401 {object} response.ErrorResponse "Unauthorized access"
// @Failure 404 {object} response.ErrorResponse "Challenge not found"
// @Failure 409 {object} response.ErrorResponse "Already completed"
// @Router /progress/completions [post]
// @Security Bearer
func RecordCompletion(c *gin.Context) {
	user, err := middleware.GetUserFromRequest(c)
	if err != nil {
		return
	}

	var req CompletionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	result, err := lifecycle.RecordCompletion(&user, req.ChallengeID)
	switch {
	case errors.Is(err, services.ErrNotFound):
		response.Error(c, http.StatusNotFound, ErrChallengeNotFound)
	case errors.Is(err, services.ErrUnauthorized):
		response.Error(c, http.StatusUnauthorized, ErrNotMember)
	case errors.Is(err, services.ErrDuplicateCompletion):
		response.Error(c, http.StatusConflict, ErrAlreadyCompleted)
	case err != nil:
		response.Error(c, http.StatusInternalServerError, ErrRecordFailed)
	default:
		c.JSON(http.StatusCreated, CompletionResponse{GroupID: result.GroupID, Points: result.Points})
	}
}

// RecordQuestionCompletion records a solved sub-question of a challenge
// @Summary Record a question completion
// @Description Record that the authenticated user solved a sub-question. Repeats are accepted without effect
// @Tags Progress
// @Accept json
// @Produce json
// @Param request body QuestionCompletionRequest true "The solved question"
// @Success 201 {object} models.QuestionCompletion
// @Failure 400 {object} response.ErrorResponse "Invalid request"
// @Failure 401 {object} response.ErrorResponse "Unauthorized access"
// @Failure 404 {object} response.ErrorResponse "Challenge not found"
// @Router /progress/questions [post]
// @Security Bearer
func RecordQuestionCompletion(c *gin.Context) {
	user, err := middleware.GetUserFromRequest(c)
	if err != nil {
		return
	}

	var req QuestionCompletionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	var challenge models.GroupChallenge
	if err := database.DB.First(&challenge, "id = ?", req.ChallengeID).Error; err != nil {
		response.Error(c, http.StatusNotFound, ErrChallengeNotFound)
		return
	}

	member, err := lifecycle.Members.IsMember(user.ID, challenge.GroupID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "Failed to check membership")
		return
	}
	if !member {
		response.Error(c, http.StatusUnauthorized, ErrNotMember)
		return
	}

	completion := models.QuestionCompletion{
		UserID:           user.ID,
		GroupChallengeID: req.ChallengeID,
		QuestionID:       req.QuestionID,
		CompletedAt:      time.Now(),
	}
	if err := database.DB.Create(&completion).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// solved before, nothing to add
			c.JSON(http.StatusOK, gin.H{"message": "Question already completed"})
			return
		}
		response.Error(c, http.StatusInternalServerError, ErrRecordFailed)
		return
	}

	c.JSON(http.StatusCreated, completion)
}

// ResetUserProgress wipes a user's progress within a group
// @Summary Reset a user's progress
// @Description Delete a user's completions and zero their points within one group, in a single transaction. Requires instructor or staff rights
// @Tags Progress
// @Accept json
// @Produce json
// @Param request body ResetRequest true "The group and user to reset"
// @Success 200 {object} map[string]string
// @Failure 400 {object} response.ErrorResponse "Invalid request"
// @Failure 401 {object} response.ErrorResponse "Unauthorized access"
// @Failure 404 {object} response.ErrorResponse "User not found"
// @Router /progress/reset [post]
// @Security Bearer
func ResetUserProgress(c *gin.Context) {
	user, err := middleware.GetUserFromRequest(c)
	if err != nil {
		return
	}

	var req ResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	var target models.User
	if err := database.DB.First(&target, "id = ?", req.UserID).Error; err != nil {
		response.Error(c, http.StatusNotFound, ErrUserNotFound)
		return
	}

	err = lifecycle.ResetProgress(&user, req.GroupID, req.UserID)
	switch {
	case errors.Is(err, services.ErrUnauthorized):
		response.Error(c, http.StatusForbidden, ErrNoPermissionReset)
	case err != nil:
		response.Error(c, http.StatusInternalServerError, ErrResetFailed)
	default:
		c.JSON(http.StatusOK, gin.H{"message": "Progress reset"})
	}
}

// GetScoreboard returns the scoreboard of a group
// @Summary Get a group scoreboard
// @Description Get the points and completion counts of all scored members of a group, highest points first
// @Tags Progress
// @Produce json
// @Param group_id path string true "Group ID"
// @Success 200 {array} services.ScoreboardEntry
// @Failure 401 {object} response.ErrorResponse "Unauthorized access"
// @Failure 500 {object} response.ErrorResponse "Failed to build scoreboard"
// @Router /groups/{group_id}/scoreboard [get]
// @Security Bearer
func GetScoreboard(c *gin.Context) {
	user, err := middleware.GetUserFromRequest(c)
	if err != nil {
		return
	}

	groupID := c.Param("group_id")

	if !canViewScoreboard(&user, groupID) {
		response.Error(c, http.StatusUnauthorized, ErrNoPermissionBoard)
		return
	}

	entries, err := lifecycle.Progress.Scoreboard(groupID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, ErrScoreboardFailed)
		return
	}

	c.JSON(http.StatusOK, entries)
}

// canViewScoreboard allows group members, instructors and staff
func canViewScoreboard(user *models.User, groupID string) bool {
	if permissions.RolesHavePermission(user.Roles, permissions.GROUPS) {
		return true
	}
	member, err := lifecycle.Members.IsMember(user.ID, groupID)
	if err == nil && member {
		return true
	}
	instructor, err := lifecycle.Members.IsInstructor(user.ID, groupID)
	return err == nil && instructor
}
