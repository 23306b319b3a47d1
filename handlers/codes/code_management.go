package codes

import (
	"errors"
	"net/http"
	"time"

	"rangeapi/config"
	"rangeapi/database"
	"rangeapi/metrics"
	"rangeapi/middleware"
	"rangeapi/models"
	"rangeapi/services"
	"rangeapi/utils/response"

	"github.com/gin-gonic/gin"
)

// IssueCode issues a new access code for a group
// @Summary Issue an access code
// @Description Generate a time-limited enrollment code for a group, requires instructor or staff rights
// @Tags Codes
// @Accept json
// @Produce json
// @Param group_id path string true "Group ID"
// @Param request body IssueCodeRequest true "Code parameters"
// @Success 201 {object} models.AccessCode
// @Failure 400 {object} response.ErrorResponse "Invalid request"
// @Failure 401 {object} response.ErrorResponse "Unauthorized access"
// @Failure 404 {object} response.ErrorResponse "Group not found"
// @Router /groups/{group_id}/codes [post]
// @Security Bearer
func IssueCode(c *gin.Context) {
	user, err := middleware.GetUserFromRequest(c)
	if err != nil {
		return
	}

	groupID := c.Param("group_id")

	var req IssueCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	ttl := config.CodeDefaultTTL
	if req.TTL != "" {
		parsed, err := time.ParseDuration(req.TTL)
		if err != nil || parsed <= 0 {
			response.Error(c, http.StatusBadRequest, "Invalid ttl")
			return
		}
		ttl = parsed
	}

	maxUses := config.CodeDefaultMaxUses
	if req.MaxUses != nil {
		if *req.MaxUses < 0 {
			response.Error(c, http.StatusBadRequest, "Invalid max_uses")
			return
		}
		maxUses = *req.MaxUses
	}

	code, err := lifecycle.IssueCode(&user, groupID, req.GrantRole, ttl, maxUses)
	switch {
	case errors.Is(err, services.ErrUnauthorized):
		response.Error(c, http.StatusUnauthorized, ErrNoPermissionIssue)
	case errors.Is(err, services.ErrNotFound):
		response.Error(c, http.StatusNotFound, ErrGroupNotFound)
	case err != nil:
		response.Error(c, http.StatusInternalServerError, ErrIssueFailed)
	default:
		c.JSON(http.StatusCreated, code)
	}
}

// RedeemCode redeems an access code for the authenticated user
// @Summary Redeem an access code
// @Description Enroll in a competition group using an access code; idempotent per user
// @Tags Codes
// @Accept json
// @Produce json
// @Param request body RedeemCodeRequest true "The code to redeem"
// @Success 200 {object} RedeemResponse
// @Failure 400 {object} response.ErrorResponse "Invalid request"
// @Failure 404 {object} response.ErrorResponse "Code not found"
// @Failure 410 {object} response.ErrorResponse "Code expired or consumed"
// @Router /codes/redeem [post]
// @Security Bearer
func RedeemCode(c *gin.Context) {
	user, err := middleware.GetUserFromRequest(c)
	if err != nil {
		return
	}

	var req RedeemCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	redemption, err := lifecycle.EnrollWithCode(&user, req.Code)
	switch {
	case errors.Is(err, services.ErrCodeNotFound):
		response.Error(c, http.StatusNotFound, ErrCodeNotFound)
	case errors.Is(err, services.ErrCodeExpired):
		response.Error(c, http.StatusGone, ErrCodeExpired)
	case errors.Is(err, services.ErrCodeAlreadyConsumed):
		response.Error(c, http.StatusGone, ErrCodeConsumed)
	case err != nil:
		response.Error(c, http.StatusInternalServerError, ErrRedeemFailed)
	default:
		metrics.CodesRedeemed.Inc()
		c.JSON(http.StatusOK, RedeemResponse{GroupID: redemption.GroupID, GrantRole: redemption.GrantRole})
	}
}

// SweepExpiredCodes flags expired codes, one audit event per code
// @Summary Sweep expired codes
// @Description Mark all codes past their expiry as expired. Safe to run repeatedly; invoked periodically by an external scheduler
// @Tags Codes
// @Produce json
// @Success 200 {object} SweepResponse
// @Failure 401 {object} response.ErrorResponse "Unauthorized access"
// @Failure 500 {object} response.ErrorResponse "Sweep failed"
// @Router /codes/sweep [post]
// @Security Bearer
func SweepExpiredCodes(c *gin.Context) {
	user, err := middleware.GetUserFromRequest(c)
	if err != nil {
		return
	}

	count, err := lifecycle.SweepExpiredCodes(&user)
	switch {
	case errors.Is(err, services.ErrUnauthorized):
		response.Error(c, http.StatusUnauthorized, ErrNoPermissionSweep)
	case err != nil:
		response.Error(c, http.StatusInternalServerError, ErrSweepFailed)
	default:
		c.JSON(http.StatusOK, SweepResponse{Expired: count})
	}
}

// ListGroupCodes lists the access codes of a group
// @Summary List group codes
// @Description List all access codes issued for a group, requires instructor or staff rights
// @Tags Codes
// @Produce json
// @Param group_id path string true "Group ID"
// @Success 200 {array} models.AccessCode
// @Failure 401 {object} response.ErrorResponse "Unauthorized access"
// @Failure 500 {object} response.ErrorResponse "Failed to fetch codes"
// @Router /groups/{group_id}/codes [get]
// @Security Bearer
func ListGroupCodes(c *gin.Context) {
	user, err := middleware.GetUserFromRequest(c)
	if err != nil {
		return
	}

	groupID := c.Param("group_id")

	instructor, err := lifecycle.Members.IsInstructor(user.ID, groupID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "Failed to check permissions")
		return
	}
	if !instructor && !isStaff(&user) {
		response.Error(c, http.StatusUnauthorized, ErrNoPermissionView)
		return
	}

	var codes []models.AccessCode
	if err := database.DB.Preload("Redemptions").
		Where("group_id = ?", groupID).
		Order("created_at DESC").
		Find(&codes).Error; err != nil {
		response.Error(c, http.StatusInternalServerError, "Failed to fetch codes")
		return
	}

	c.JSON(http.StatusOK, codes)
}

// InviteWithCode mails an existing access code to a future participant
// @Summary Invite a participant
// @Description Send an access code to an email address, requires instructor or staff rights
// @Tags Codes
// @Accept json
// @Produce json
// @Param group_id path string true "Group ID"
// @Param code_id path string true "Code ID"
// @Param request body InviteRequest true "Recipient"
// @Success 200 {object} map[string]string
// @Failure 401 {object} response.ErrorResponse "Unauthorized access"
// @Failure 404 {object} response.ErrorResponse "Code not found"
// @Router /groups/{group_id}/codes/{code_id}/invite [post]
// @Security Bearer
func InviteWithCode(c *gin.Context) {
	user, err := middleware.GetUserFromRequest(c)
	if err != nil {
		return
	}

	groupID := c.Param("group_id")
	codeID := c.Param("code_id")

	instructor, err := lifecycle.Members.IsInstructor(user.ID, groupID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "Failed to check permissions")
		return
	}
	if !instructor && !isStaff(&user) {
		response.Error(c, http.StatusUnauthorized, ErrNoPermissionIssue)
		return
	}

	var req InviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	var code models.AccessCode
	if err := database.DB.Preload("Group").
		First(&code, "id = ? AND group_id = ?", codeID, groupID).Error; err != nil {
		response.Error(c, http.StatusNotFound, ErrCodeNotFound)
		return
	}

	groupName := groupID
	if code.Group != nil {
		groupName = code.Group.Name
	}
	emailService := services.NewEmailService()
	if err := emailService.SendAccessCodeEmail(req.Email, groupName, code.Code); err != nil {
		response.Error(c, http.StatusInternalServerError, ErrSendInviteFailed)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Invitation sent"})
}
