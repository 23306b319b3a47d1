package models

import "time"

// CompletionRecord is evidence that a user solved a group challenge.
// Unique per (user, group challenge) so points are never double-counted.
type CompletionRecord struct {
	ID               string          `gorm:"type:uuid;default:gen_random_uuid();primary_key" json:"id"`
	UserID           string          `gorm:"type:uuid;not null;column:user_id;uniqueIndex:idx_completion_unique" json:"user_id"`
	GroupChallengeID string          `gorm:"type:uuid;not null;column:group_challenge_id;uniqueIndex:idx_completion_unique" json:"group_challenge_id"`
	CompletedAt      time.Time       `gorm:"type:timestamp;not null;column:completed_at" json:"completed_at"`
	Challenge        *GroupChallenge `gorm:"foreignKey:GroupChallengeID" json:"challenge,omitempty"`
}

// QuestionCompletion records a solved sub-question of a group challenge
type QuestionCompletion struct {
	ID               string    `gorm:"type:uuid;default:gen_random_uuid();primary_key" json:"id"`
	UserID           string    `gorm:"type:uuid;not null;column:user_id;uniqueIndex:idx_question_unique" json:"user_id"`
	GroupChallengeID string    `gorm:"type:uuid;not null;column:group_challenge_id" json:"group_challenge_id"`
	QuestionID       string    `gorm:"type:varchar(100);not null;column:question_id;uniqueIndex:idx_question_unique" json:"question_id"`
	CompletedAt      time.Time `gorm:"type:timestamp;not null;column:completed_at" json:"completed_at"`
}

// PointsBalance is the accumulated score of a user within a group.
// It is zeroed only by the atomic progress reset, never partially.
type PointsBalance struct {
	ID      string `gorm:"type:uuid;default:gen_random_uuid();primary_key" json:"id"`
	UserID  string `gorm:"type:uuid;not null;column:user_id;uniqueIndex:idx_points_unique" json:"user_id"`
	GroupID string `gorm:"type:uuid;not null;column:group_id;uniqueIndex:idx_points_unique" json:"group_id"`
	Points  int    `gorm:"not null;default:0;check:points >= 0" json:"points"`
}
