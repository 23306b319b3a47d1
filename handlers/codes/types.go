package codes

// Constants for error messages
const (
	ErrCodeNotFound      = "Access code not found"
	ErrCodeExpired       = "Access code has expired"
	ErrCodeConsumed      = "Access code has already been consumed"
	ErrGroupNotFound     = "Group not found"
	ErrNoPermissionIssue = "User does not have permission to issue codes for this group"
	ErrNoPermissionSweep = "User does not have permission to run the expiry sweep"
	ErrNoPermissionView  = "User does not have permission to view codes for this group"
	ErrIssueFailed       = "Failed to issue access code"
	ErrRedeemFailed      = "Failed to redeem access code"
	ErrSweepFailed       = "Failed to sweep expired codes"
	ErrSendInviteFailed  = "Failed to send invitation email"
)

// IssueCodeRequest model for issuing an access code
type IssueCodeRequest struct {
	GrantRole string `json:"grant_role" binding:"required,oneof=instructor member"`
	TTL       string `json:"ttl"`      // Go duration string, e.g. "24h"; empty uses the configured default
	MaxUses   *int   `json:"max_uses"` // nil uses the configured default, 0 means unlimited
}

// RedeemCodeRequest model for redeeming an access code
type RedeemCodeRequest struct {
	Code string `json:"code" binding:"required"`
}

// InviteRequest model for mailing an access code to a future participant
type InviteRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// RedeemResponse model returned on successful redemption
type RedeemResponse struct {
	GroupID   string `json:"group_id"`
	GrantRole string `json:"grant_role"`
}

// SweepResponse model returned by the expiry sweep
type SweepResponse struct {
	Expired int `json:"expired"`
}
