package models

import "time"

// User represents a platform account that can enroll in competition groups and start challenge instances
type User struct {
	ID            string        `gorm:"type:uuid;default:gen_random_uuid();primary_key" json:"id"`
	Email         string        `gorm:"type:varchar(100);unique;not null" json:"email"`
	Firstname     string        `gorm:"type:varchar(50);not null" json:"firstname"`
	Lastname      string        `gorm:"type:varchar(50);not null" json:"lastname"`
	Password      string        `gorm:"type:varchar(255);not null" json:"-"`
	Blocked       bool          `gorm:"not null;default:false" json:"blocked"`
	LastConnected *time.Time    `gorm:"type:timestamp" json:"last_connected"`
	Roles         []*Role       `gorm:"many2many:user_roles;" json:"roles"`
	Memberships   []*Membership `gorm:"foreignKey:UserID" json:"memberships,omitempty"`
}
