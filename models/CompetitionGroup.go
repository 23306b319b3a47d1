package models

import "time"

// CompetitionGroup represents a bounded competition or course with a time window,
// memberships, access codes and a set of assigned challenges.
// EndDate is nullable: a nil end date means the group is open-ended.
type CompetitionGroup struct {
	ID          string            `gorm:"type:uuid;default:gen_random_uuid();primary_key" json:"id"`
	Name        string            `gorm:"type:varchar(100);not null" json:"name"`
	Description string            `gorm:"type:varchar(255)" json:"description"`
	StartDate   time.Time         `gorm:"type:timestamp;not null" json:"start_date"`
	EndDate     *time.Time        `gorm:"type:timestamp" json:"end_date"`
	Memberships []*Membership     `gorm:"foreignKey:GroupID;constraint:OnDelete:CASCADE" json:"memberships,omitempty"`
	AccessCodes []*AccessCode     `gorm:"foreignKey:GroupID;constraint:OnDelete:CASCADE" json:"access_codes,omitempty"`
	Challenges  []*GroupChallenge `gorm:"foreignKey:GroupID;constraint:OnDelete:CASCADE" json:"challenges,omitempty"`
}
