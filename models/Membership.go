package models

import "time"

// Membership roles within a competition group
const (
	RoleInstructor = "instructor"
	RoleMember     = "member"
)

// Membership links a user to a competition group with a role.
// A user may hold both roles in the same group only via distinct rows.
type Membership struct {
	ID        string            `gorm:"type:uuid;default:gen_random_uuid();primary_key" json:"id"`
	GroupID   string            `gorm:"type:uuid;not null;column:group_id;uniqueIndex:idx_membership_unique" json:"group_id"`
	UserID    string            `gorm:"type:uuid;not null;column:user_id;uniqueIndex:idx_membership_unique" json:"user_id"`
	Role      string            `gorm:"type:varchar(20);not null;uniqueIndex:idx_membership_unique" json:"role"`
	CreatedAt time.Time         `json:"created_at"`
	Group     *CompetitionGroup `gorm:"foreignKey:GroupID" json:"-"`
	User      *User             `gorm:"foreignKey:UserID" json:"user,omitempty"`
}
