package challenges

import "rangeapi/models"

// Constants for error messages
const (
	ErrChallengeNotFound  = "Challenge not found"
	ErrInstanceNotFound   = "Instance not found"
	ErrGroupNotFound      = "Group not found"
	ErrNoPermissionManage = "User does not have permission to manage challenges for this group"
	ErrNoPermissionStart  = "User is not a member of this challenge's group"
	ErrNoPermissionStop   = "User does not have permission to stop this instance"
	ErrNoPermissionView   = "User does not have permission to view this instance"
	ErrProvisionFailed    = "Failed to provision challenge environment"
	ErrStopFailed         = "Failed to stop challenge environment"
	ErrInconsistentState  = "Instance records are inconsistent, contact an administrator"
)

// CreateChallengeRequest model for adding a challenge to a group
type CreateChallengeRequest struct {
	Name       string `json:"name" binding:"required"`
	Image      string `json:"image" binding:"required"`
	ChalType   string `json:"chal_type" binding:"required"`
	AppsConfig string `json:"apps_config"`
	Points     int    `json:"points"`
}

// StartInstanceRequest model for starting a challenge instance
type StartInstanceRequest struct {
	ChallengeID string `json:"challenge_id" binding:"required"`
}

// InstanceStatusResponse augments an instance with per-field authority tags:
// the deployment identity belongs to the orchestration backend, the local row
// is a reconciled cache.
type InstanceStatusResponse struct {
	Instance  models.ChallengeInstance `json:"instance"`
	Authority map[string]string        `json:"authority"`
}

// fieldAuthority tags which side owns each field of an instance record
var fieldAuthority = map[string]string{
	"deployment_name": "backend",
	"status":          "backend",
	"id":              "local",
	"user_id":         "local",
	"challenge_id":    "local",
	"created_at":      "local",
}
