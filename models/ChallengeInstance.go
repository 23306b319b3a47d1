package models

import "time"

// Challenge instance statuses. Failed and terminated are terminal: a new start
// always creates a new row rather than reviving an old one.
const (
	InstanceStatusPending    = "pending"
	InstanceStatusRunning    = "running"
	InstanceStatusFailed     = "failed"
	InstanceStatusTerminated = "terminated"
)

// ChallengeInstance is one ephemeral provisioned environment tied to a user
// and a group challenge. The local row is a cache of the orchestration
// backend's state: DeploymentName is owned by the backend, Status by us.
//
// Active is true while the instance is non-terminal and NULL afterwards, so
// the composite unique index serializes concurrent starts: a race produces
// one winner and the loser observes the winner's row.
type ChallengeInstance struct {
	ID             string          `gorm:"type:uuid;default:gen_random_uuid();primary_key" json:"id"`
	UserID         string          `gorm:"type:uuid;not null;column:user_id;uniqueIndex:idx_instance_active" json:"user_id"`
	ChallengeID    string          `gorm:"type:uuid;not null;column:challenge_id;uniqueIndex:idx_instance_active" json:"challenge_id"`
	ChallengeImage string          `gorm:"type:varchar(255);not null;column:challenge_image" json:"challenge_image"`
	DeploymentName string          `gorm:"type:varchar(255);not null;column:deployment_name" json:"deployment_name"`
	Status         string          `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	Active         *bool           `gorm:"uniqueIndex:idx_instance_active" json:"-"`
	CreatedAt      time.Time       `json:"created_at"`
	User           *User           `gorm:"foreignKey:UserID" json:"-"`
	Challenge      *GroupChallenge `gorm:"foreignKey:ChallengeID" json:"challenge,omitempty"`
}

// Terminal reports whether the instance status is a terminal state
func (i *ChallengeInstance) Terminal() bool {
	return i.Status == InstanceStatusFailed || i.Status == InstanceStatusTerminated
}
