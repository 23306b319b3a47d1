package progress

// Constants for error messages
const (
	ErrChallengeNotFound = "Challenge not found"
	ErrUserNotFound      = "User not found"
	ErrGroupNotFound     = "Group not found"
	ErrNotMember         = "User is not a member of this challenge's group"
	ErrNoPermissionReset = "User does not have permission to reset progress in this group"
	ErrNoPermissionBoard = "User does not have permission to view this scoreboard"
	ErrAlreadyCompleted  = "Challenge already completed"
	ErrRecordFailed      = "Failed to record completion"
	ErrResetFailed       = "Failed to reset progress"
	ErrScoreboardFailed  = "Failed to build scoreboard"
)

// CompletionRequest model for recording a challenge completion
type CompletionRequest struct {
	ChallengeID string `json:"challenge_id" binding:"required"`
}

// QuestionCompletionRequest model for recording a solved sub-question
type QuestionCompletionRequest struct {
	ChallengeID string `json:"challenge_id" binding:"required"`
	QuestionID  string `json:"question_id" binding:"required"`
}

// ResetRequest model for wiping a user's progress within a group
type ResetRequest struct {
	GroupID string `json:"group_id" binding:"required"`
	UserID  string `json:"user_id" binding:"required"`
}

// CompletionResponse confirms a recorded completion
type CompletionResponse struct {
	GroupID string `json:"group_id"`
	Points  int    `json:"points"`
}
