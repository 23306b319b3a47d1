package models

import "time"

// PasswordReset is a one-shot token emailed to a user who requested a reset
type PasswordReset struct {
	ID        string    `gorm:"type:uuid;default:gen_random_uuid();primary_key" json:"id"`
	UserID    string    `gorm:"type:uuid;not null;column:user_id" json:"user_id"`
	Token     string    `gorm:"type:varchar(255);unique;not null" json:"token"`
	ExpiresAt time.Time `gorm:"type:timestamp;not null;column:expires_at" json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
	User      *User     `gorm:"foreignKey:UserID" json:"-"`
}
