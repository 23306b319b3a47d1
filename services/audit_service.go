package services

import (
	"rangeapi/database"
	"rangeapi/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// AuditLog is the append-only event trail for lifecycle transitions.
// Implementations must never read-modify-write existing events.
type AuditLog interface {
	Append(eventType, actorID, subjectID string, groupID *string, metadata map[string]interface{}) error
}

type gormAuditLog struct {
	db *gorm.DB
}

// NewAuditLog returns the database-backed audit log
func NewAuditLog(db *gorm.DB) AuditLog {
	return &gormAuditLog{db: db}
}

func (l *gormAuditLog) Append(eventType, actorID, subjectID string, groupID *string, metadata map[string]interface{}) error {
	event := models.AuditEvent{
		EventType: eventType,
		ActorID:   actorID,
		SubjectID: subjectID,
		GroupID:   groupID,
		Metadata:  metadata,
	}
	return l.db.Create(&event).Error
}

// audit appends an event best-effort: a failed append is logged for
// operational visibility but never blocks the primary operation.
func audit(log AuditLog, eventType, actorID, subjectID string, groupID *string, metadata map[string]interface{}) {
	if err := log.Append(eventType, actorID, subjectID, groupID, metadata); err != nil {
		logrus.WithFields(logrus.Fields{
			"event_type": eventType,
			"actor_id":   actorID,
			"subject_id": subjectID,
		}).Error("failed to append audit event: ", err)
	}
}

// DefaultAuditLog returns an audit log over the global database handle
func DefaultAuditLog() AuditLog {
	return NewAuditLog(database.DB)
}
