package models

import "time"

// Audit event types, one per logical lifecycle transition
const (
	EventCodeIssued          = "code_issued"
	EventCodeRedeemed        = "code_redeemed"
	EventCodeExpired         = "code_expired"
	EventMemberAdded         = "member_added"
	EventMemberRemoved       = "member_removed"
	EventInstanceStarted     = "instance_started"
	EventInstanceStopped     = "instance_stopped"
	EventInstanceFailed      = "instance_failed"
	EventCompletionRecorded  = "completion_recorded"
	EventProgressReset       = "progress_reset"
	EventGroupCreated        = "group_created"
	EventGroupDeleted        = "group_deleted"
)

// AuditEvent is an immutable, append-only record of a lifecycle transition.
// Application logic never updates or deletes rows of this table.
type AuditEvent struct {
	ID        string                 `gorm:"type:uuid;default:gen_random_uuid();primary_key" json:"id"`
	EventType string                 `gorm:"type:varchar(50);not null;index;column:event_type" json:"eventType"`
	ActorID   string                 `gorm:"type:uuid;not null;column:actor_id" json:"actorId"`
	SubjectID string                 `gorm:"type:varchar(255);not null;column:subject_id" json:"subjectId"`
	GroupID   *string                `gorm:"type:uuid;column:group_id" json:"groupId,omitempty"`
	Metadata  map[string]interface{} `gorm:"type:jsonb;serializer:json" json:"metadata"`
	CreatedAt time.Time              `json:"timestamp"`
}
