package models

import "time"

// AccessCode is a time-limited enrollment credential for a competition group.
// MaxUses is a per-code attribute: 0 means unlimited redemptions, 1 means
// single-use. Expired is the processed marker set by the expiry sweep so
// running the sweep twice never emits duplicate audit events.
type AccessCode struct {
	ID          string                  `gorm:"type:uuid;default:gen_random_uuid();primary_key" json:"id"`
	Code        string                  `gorm:"type:varchar(32);unique;not null" json:"code"`
	GroupID     string                  `gorm:"type:uuid;not null;column:group_id" json:"group_id"`
	CreatedBy   string                  `gorm:"type:uuid;not null;column:created_by" json:"created_by"`
	GrantRole   string                  `gorm:"type:varchar(20);not null;default:'member';column:grant_role" json:"grant_role"`
	ExpiresAt   time.Time               `gorm:"type:timestamp;not null;column:expires_at" json:"expires_at"`
	MaxUses     int                     `gorm:"not null;default:0;column:max_uses" json:"max_uses"`
	Uses        int                     `gorm:"not null;default:0" json:"uses"`
	Expired     bool                    `gorm:"not null;default:false" json:"expired"`
	CreatedAt   time.Time               `json:"created_at"`
	Group       *CompetitionGroup       `gorm:"foreignKey:GroupID" json:"-"`
	Redemptions []*AccessCodeRedemption `gorm:"foreignKey:CodeID;constraint:OnDelete:CASCADE" json:"redemptions,omitempty"`
}

// AccessCodeRedemption records one user having redeemed one code.
// The unique index makes redemption idempotent per (code, user) pair.
type AccessCodeRedemption struct {
	ID         string    `gorm:"type:uuid;default:gen_random_uuid();primary_key" json:"id"`
	CodeID     string    `gorm:"type:uuid;not null;column:code_id;uniqueIndex:idx_code_user" json:"code_id"`
	UserID     string    `gorm:"type:uuid;not null;column:user_id;uniqueIndex:idx_code_user" json:"user_id"`
	RedeemedAt time.Time `gorm:"type:timestamp;not null;column:redeemed_at" json:"redeemed_at"`
}
