package challenges

import (
	"errors"
	"net/http"

	"rangeapi/middleware"
	"rangeapi/models"
	"rangeapi/realtime"
	"rangeapi/services"
	"rangeapi/utils/permissions"
	"rangeapi/utils/response"

	"github.com/gin-gonic/gin"
)

// StartInstance provisions a challenge environment for the authenticated user
// @Summary Start a challenge instance
// @Description Provision an ephemeral challenge environment. Idempotent: an existing non-terminal instance for the same challenge is returned as-is
// @Tags Instances
// @Accept json
// @Produce json
// @Param request body StartInstanceRequest true "The challenge to start"
// @Success 201 {object} models.ChallengeInstance
// @Failure 400 {object} response.ErrorResponse "Invalid request"
// @Failure 401 {object} response.ErrorResponse "Unauthorized access"
// @Failure 404 {object} response.ErrorResponse "Challenge not found"
// @Failure 502 {object} response.ErrorResponse "Provisioning failed"
// @Router /instances [post]
// @Security Bearer
func StartInstance(c *gin.Context) {
	user, err := middleware.GetUserFromRequest(c)
	if err != nil {
		return
	}

	var req StartInstanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	instance, err := lifecycle.StartChallenge(&user, req.ChallengeID)
	switch {
	case errors.Is(err, services.ErrNotFound):
		response.Error(c, http.StatusNotFound, ErrChallengeNotFound)
	case errors.Is(err, services.ErrUnauthorized):
		response.Error(c, http.StatusUnauthorized, ErrNoPermissionStart)
	case errors.Is(err, services.ErrInternalInconsistency):
		response.Error(c, http.StatusInternalServerError, ErrInconsistentState)
	case services.IsProvisionFailed(err):
		response.Error(c, http.StatusBadGateway, ErrProvisionFailed)
	case err != nil:
		response.Error(c, http.StatusInternalServerError, ErrProvisionFailed)
	default:
		// reload with the challenge association so the broadcast carries the group
		if full, ferr := lifecycle.Instances.FindByID(instance.ID); ferr == nil {
			instance = full
		}
		broadcast(instance, "started")
		c.JSON(http.StatusCreated, instance)
	}
}

// StopInstance requests teardown of a challenge instance
// @Summary Stop a challenge instance
// @Description Request teardown of an instance. Idempotent: stopping a terminal instance returns its current state
// @Tags Instances
// @Produce json
// @Param instance_id path string true "Instance ID"
// @Success 200 {object} models.ChallengeInstance
// @Failure 401 {object} response.ErrorResponse "Unauthorized access"
// @Failure 404 {object} response.ErrorResponse "Instance not found"
// @Failure 502 {object} response.ErrorResponse "Backend unreachable"
// @Router /instances/{instance_id}/stop [post]
// @Security Bearer
func StopInstance(c *gin.Context) {
	user, err := middleware.GetUserFromRequest(c)
	if err != nil {
		return
	}

	instanceID := c.Param("instance_id")

	instance, err := lifecycle.StopChallenge(&user, instanceID)
	switch {
	case errors.Is(err, services.ErrNotFound):
		response.Error(c, http.StatusNotFound, ErrInstanceNotFound)
	case errors.Is(err, services.ErrUnauthorized):
		response.Error(c, http.StatusUnauthorized, ErrNoPermissionStop)
	case services.IsProvisionFailed(err):
		response.Error(c, http.StatusBadGateway, ErrStopFailed)
	case err != nil:
		response.Error(c, http.StatusInternalServerError, ErrStopFailed)
	default:
		broadcast(instance, "stopped")
		c.JSON(http.StatusOK, instance)
	}
}

// GetInstanceStatus returns an instance with its status reconciled against
// the orchestration backend
// @Summary Get instance status
// @Description Fetch an instance. Non-terminal statuses are refreshed from the orchestration backend; the response tags which fields the backend owns
// @Tags Instances
// @Produce json
// @Param instance_id path string true "Instance ID"
// @Success 200 {object} InstanceStatusResponse
// @Failure 401 {object} response.ErrorResponse "Unauthorized access"
// @Failure 404 {object} response.ErrorResponse "Instance not found"
// @Router /instances/{instance_id} [get]
// @Security Bearer
func GetInstanceStatus(c *gin.Context) {
	user, err := middleware.GetUserFromRequest(c)
	if err != nil {
		return
	}

	instanceID := c.Param("instance_id")

	instance, err := lifecycle.Instances.FindByID(instanceID)
	if errors.Is(err, services.ErrNotFound) {
		response.Error(c, http.StatusNotFound, ErrInstanceNotFound)
		return
	}
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "Failed to fetch instance")
		return
	}

	if !canViewInstance(&user, instance) {
		response.Error(c, http.StatusUnauthorized, ErrNoPermissionView)
		return
	}

	wasTerminal := instance.Terminal()
	instance, err = lifecycle.ReconcileInstance(instance)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "Failed to reconcile instance")
		return
	}
	if !wasTerminal && instance.Status == models.InstanceStatusFailed {
		broadcast(instance, "failed")
	}

	c.JSON(http.StatusOK, InstanceStatusResponse{
		Instance:  *instance,
		Authority: fieldAuthority,
	})
}

// ListMyInstances lists the authenticated user's instances
// @Summary List my instances
// @Description List all challenge instances of the authenticated user, newest first
// @Tags Instances
// @Produce json
// @Success 200 {array} models.ChallengeInstance
// @Failure 401 {object} response.ErrorResponse "Unauthorized access"
// @Failure 500 {object} response.ErrorResponse "Failed to list instances"
// @Router /instances [get]
// @Security Bearer
func ListMyInstances(c *gin.Context) {
	user, err := middleware.GetUserFromRequest(c)
	if err != nil {
		return
	}

	instances, err := lifecycle.Instances.ListForUser(user.ID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "Failed to list instances")
		return
	}

	c.JSON(http.StatusOK, instances)
}

// GetInstanceByDeployment resolves a backend deployment name to its local instance
// @Summary Look up an instance by deployment name
// @Description Resolve an orchestration backend deployment name to the local instance record, requires staff rights
// @Tags Instances
// @Produce json
// @Param deployment_name path string true "Deployment name"
// @Success 200 {object} models.ChallengeInstance
// @Failure 401 {object} response.ErrorResponse "Unauthorized access"
// @Failure 404 {object} response.ErrorResponse "Instance not found"
// @Router /deployments/{deployment_name}/instance [get]
// @Security Bearer
func GetInstanceByDeployment(c *gin.Context) {
	user, err := middleware.GetUserFromRequest(c)
	if err != nil {
		return
	}

	if !permissions.RolesHavePermission(user.Roles, permissions.CHALLENGES) {
		response.Error(c, http.StatusUnauthorized, ErrNoPermissionView)
		return
	}

	instance, err := lifecycle.Instances.FindByDeployment(c.Param("deployment_name"))
	if errors.Is(err, services.ErrNotFound) {
		response.Error(c, http.StatusNotFound, ErrInstanceNotFound)
		return
	}
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "Failed to fetch instance")
		return
	}

	c.JSON(http.StatusOK, instance)
}

// canViewInstance allows the owner, group instructors and staff
func canViewInstance(user *models.User, instance *models.ChallengeInstance) bool {
	if user.ID == instance.UserID {
		return true
	}
	if permissions.RolesHavePermission(user.Roles, permissions.CHALLENGES) {
		return true
	}
	if instance.Challenge == nil {
		return false
	}
	instructor, err := lifecycle.Members.IsInstructor(user.ID, instance.Challenge.GroupID)
	return err == nil && instructor
}

// broadcast pushes an instance transition to the group's dashboard feed
func broadcast(instance *models.ChallengeInstance, event string) {
	if instance == nil || instance.Challenge == nil {
		return
	}
	realtime.BroadcastInstanceUpdate(realtime.InstanceUpdate{
		GroupID:  instance.Challenge.GroupID,
		Instance: *instance,
		Event:    event,
	})
}
