package services

import (
	"errors"
	"fmt"
)

// Closed error taxonomy for lifecycle and access-control failures. Handlers
// map these onto HTTP statuses; internal logic never branches on raw backend
// strings.
var (
	// ErrUnauthorized means the actor lacks the required role for the operation
	ErrUnauthorized = errors.New("actor lacks required role")

	// ErrNotFound means an entity lookup missed
	ErrNotFound = errors.New("entity not found")

	// ErrCodeNotFound means no access code matches the given string
	ErrCodeNotFound = errors.New("access code not found")

	// ErrCodeExpired means the access code expiry has passed
	ErrCodeExpired = errors.New("access code expired")

	// ErrCodeAlreadyConsumed means the code's redemption budget is exhausted
	ErrCodeAlreadyConsumed = errors.New("access code already consumed")

	// ErrDuplicateCompletion means the completion was already recorded
	ErrDuplicateCompletion = errors.New("completion already recorded")

	// ErrDuplicateInstance is returned by the instance store when the
	// non-terminal uniqueness constraint rejects a second active row. The
	// coordinator resolves it by re-reading the winner's row.
	ErrDuplicateInstance = errors.New("active instance already exists")

	// ErrInternalInconsistency is reserved for invariant violations such as
	// more than one non-terminal instance for the same user and challenge.
	// It is surfaced loudly and aborts the operation; the system never
	// guesses which record is canonical.
	ErrInternalInconsistency = errors.New("internal state inconsistency")
)

// ProvisionError means the orchestration backend rejected or timed out a
// provisioning request. The backend's raw error body is preserved for
// diagnostics but callers must branch on the error identity, not the body.
type ProvisionError struct {
	Operation  string // "start-challenge" or "stop-challenge"
	Deployment string // deployment name, empty for start failures
	StatusCode int    // 0 for transport-level failures
	Body       string
	Err        error
}

func (e *ProvisionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("provision failed: %s %s: %v", e.Operation, e.Deployment, e.Err)
	}
	return fmt.Sprintf("provision failed: %s %s: backend returned %d: %s", e.Operation, e.Deployment, e.StatusCode, e.Body)
}

func (e *ProvisionError) Unwrap() error { return e.Err }

// IsProvisionFailed reports whether err is a provisioning failure
func IsProvisionFailed(err error) bool {
	var pe *ProvisionError
	return errors.As(err, &pe)
}
