package services

import (
	"errors"
	"fmt"
	"time"

	"rangeapi/config"
	"rangeapi/metrics"
	"rangeapi/models"
	"rangeapi/utils/permissions"

	"github.com/sirupsen/logrus"
)

// Lifecycle composes the registry, stores and the orchestration client into
// the user-facing operations and owns every invariant: at most one
// non-terminal instance per user and challenge, code expiry admission,
// instructor-only resets, and exactly one audit event per logical transition.
//
// Every call takes the authenticated actor explicitly; nothing is read from
// ambient state, so the whole lifecycle is testable without gin.
type Lifecycle struct {
	Codes     AccessCodeRegistry
	Members   MembershipStore
	Progress  ProgressLedger
	Instances InstanceStore
	Catalog   ChallengeCatalog
	Orc       Orchestrator
	Audit     AuditLog

	// Retries bounds re-attempts of transport-level orchestrator failures.
	// HTTP-level rejections are never retried.
	Retries int
}

// NewLifecycle wires the coordinator over the global database handle and the
// configured orchestration backend
func NewLifecycle() *Lifecycle {
	return &Lifecycle{
		Codes:     DefaultAccessCodeRegistry(),
		Members:   DefaultMembershipStore(),
		Progress:  DefaultProgressLedger(),
		Instances: DefaultInstanceStore(),
		Catalog:   DefaultChallengeCatalog(),
		Orc:       NewCachedOrchestrator(NewOrchestratorClient()),
		Audit:     DefaultAuditLog(),
		Retries:   config.OrchestratorRetries,
	}
}

// canAdministerGroup allows group instructors and platform staff with the
// given permission
func (l *Lifecycle) canAdministerGroup(actor *models.User, groupID string, staffPermission int) (bool, error) {
	if permissions.RolesHavePermission(actor.Roles, staffPermission) {
		return true, nil
	}
	return l.Members.IsInstructor(actor.ID, groupID)
}

// IssueCode generates an access code for a group. Instructor or staff only.
func (l *Lifecycle) IssueCode(actor *models.User, groupID, grantRole string, ttl time.Duration, maxUses int) (*models.AccessCode, error) {
	allowed, err := l.canAdministerGroup(actor, groupID, permissions.CODES)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, ErrUnauthorized
	}

	code, err := l.Codes.Issue(groupID, actor.ID, grantRole, ttl, maxUses)
	if err != nil {
		return nil, err
	}

	audit(l.Audit, models.EventCodeIssued, actor.ID, code.ID, &groupID, map[string]interface{}{
		"grant_role": grantRole,
		"expires_at": code.ExpiresAt,
		"max_uses":   maxUses,
	})
	return code, nil
}

// EnrollWithCode redeems an access code for the actor, granting the code's
// role in its group. Redemption is idempotent per (code, user): a repeat
// succeeds without a second audit event.
func (l *Lifecycle) EnrollWithCode(actor *models.User, code string) (*Redemption, error) {
	redemption, err := l.Codes.Redeem(code, actor.ID)
	if err != nil {
		return nil, err
	}

	if redemption.First {
		audit(l.Audit, models.EventCodeRedeemed, actor.ID, redemption.CodeID, &redemption.GroupID, map[string]interface{}{
			"grant_role": redemption.GrantRole,
		})
	}
	return redemption, nil
}

// SweepExpiredCodes flags expired codes and emits one audit event per code.
// The processed marker in the registry makes the sweep safely re-entrant.
func (l *Lifecycle) SweepExpiredCodes(actor *models.User) (int, error) {
	if !permissions.RolesHavePermission(actor.Roles, permissions.CODES) {
		return 0, ErrUnauthorized
	}

	swept, err := l.Codes.SweepExpired()
	if err != nil {
		return 0, err
	}
	for _, code := range swept {
		groupID := code.GroupID
		audit(l.Audit, models.EventCodeExpired, actor.ID, code.ID, &groupID, map[string]interface{}{
			"expires_at": code.ExpiresAt,
		})
	}
	return len(swept), nil
}

// AddMember adds a user to a group. Instructor or staff only.
func (l *Lifecycle) AddMember(actor *models.User, groupID, userID, role string) error {
	allowed, err := l.canAdministerGroup(actor, groupID, permissions.GROUPS)
	if err != nil {
		return err
	}
	if !allowed {
		return ErrUnauthorized
	}

	if err := l.Members.AddMember(groupID, userID, role); err != nil {
		return err
	}
	audit(l.Audit, models.EventMemberAdded, actor.ID, userID, &groupID, map[string]interface{}{"role": role})
	return nil
}

// RemoveMember removes a user from a group. Self-removal is always
// permitted; removing another user requires instructor or staff rights.
func (l *Lifecycle) RemoveMember(actor *models.User, groupID, userID string) error {
	if actor.ID != userID {
		allowed, err := l.canAdministerGroup(actor, groupID, permissions.GROUPS)
		if err != nil {
			return err
		}
		if !allowed {
			return ErrUnauthorized
		}
	}

	if err := l.Members.RemoveMember(groupID, userID); err != nil {
		return err
	}
	audit(l.Audit, models.EventMemberRemoved, actor.ID, userID, &groupID, nil)
	return nil
}

// StartChallenge provisions a challenge environment for the actor. The start
// is idempotent: an existing non-terminal instance for the same user and
// challenge is returned without contacting the backend. No local row is
// created unless the backend accepted the provisioning request.
func (l *Lifecycle) StartChallenge(actor *models.User, challengeID string) (*models.ChallengeInstance, error) {
	challenge, err := l.Catalog.Find(challengeID)
	if err != nil {
		return nil, err
	}

	member, err := l.Members.IsMember(actor.ID, challenge.GroupID)
	if err != nil {
		return nil, err
	}
	if !member {
		return nil, ErrUnauthorized
	}

	// Two passes: losing the uniqueness race normally means observing the
	// winner's row, but the winner can reach a terminal state between our
	// insert and the re-read, freeing the slot again. A second pass covers
	// that window instead of handing the caller a nil instance.
	for attempt := 0; attempt < 2; attempt++ {
		existing, err := l.Instances.FindActive(actor.ID, challengeID)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return existing, nil
		}

		var resp *StartChallengeResponse
		err = l.withRetry(func() error {
			var startErr error
			resp, startErr = l.Orc.StartChallenge(StartChallengeRequest{
				UserID:         actor.ID,
				ChallengeImage: challenge.Image,
				AppsConfig:     challenge.AppsConfig,
				ChalType:       challenge.ChalType,
			})
			return startErr
		})
		if err != nil {
			metrics.InstanceStartFailures.Inc()
			return nil, fmt.Errorf("start challenge %s for user %s: %w", challengeID, actor.ID, err)
		}

		instance := &models.ChallengeInstance{
			UserID:         actor.ID,
			ChallengeID:    challengeID,
			ChallengeImage: challenge.Image,
			DeploymentName: resp.DeploymentName,
			Status:         mapBackendStatus(resp.Status),
		}
		if err := l.Instances.Create(instance); err != nil {
			if errors.Is(err, ErrDuplicateInstance) {
				// A concurrent start won the uniqueness race. Our deployment
				// is redundant, request teardown and observe the winner.
				l.releaseOrphan(resp.DeploymentName)
				winner, findErr := l.Instances.FindActive(actor.ID, challengeID)
				if findErr != nil {
					return nil, findErr
				}
				if winner != nil {
					return winner, nil
				}
				continue
			}
			return nil, err
		}

		metrics.InstancesStarted.Inc()
		metrics.InstancesActive.Inc()
		audit(l.Audit, models.EventInstanceStarted, actor.ID, instance.ID, &challenge.GroupID, map[string]interface{}{
			"challenge_id":    challengeID,
			"deployment_name": instance.DeploymentName,
			"status":          instance.Status,
		})
		return instance, nil
	}

	return nil, fmt.Errorf("%w: concurrent starts left no observable instance for user %s challenge %s",
		ErrInternalInconsistency, actor.ID, challengeID)
}

// StopChallenge requests teardown of an instance. The local row transitions
// to terminated as soon as the backend has seen the request: the terminal
// state is a request marker, the backend remains the source of truth for
// actual teardown.
func (l *Lifecycle) StopChallenge(actor *models.User, instanceID string) (*models.ChallengeInstance, error) {
	instance, err := l.Instances.FindByID(instanceID)
	if err != nil {
		return nil, err
	}

	if actor.ID != instance.UserID {
		groupID := ""
		if instance.Challenge != nil {
			groupID = instance.Challenge.GroupID
		}
		allowed, err := l.canAdministerGroup(actor, groupID, permissions.CHALLENGES)
		if err != nil {
			return nil, err
		}
		if !allowed {
			return nil, ErrUnauthorized
		}
	}

	if instance.Terminal() {
		return instance, nil
	}

	err = l.withRetry(func() error {
		return l.Orc.StopChallenge(instance.DeploymentName)
	})
	if err != nil {
		var pe *ProvisionError
		if errors.As(err, &pe) && pe.StatusCode == 0 {
			// The backend never saw the request; keep the row live so the
			// caller can retry the stop.
			return nil, fmt.Errorf("stop instance %s: %w", instanceID, err)
		}
		// The backend rejected the request body but has the deployment in
		// hand; its answer does not change our intent to terminate.
		logrus.WithField("deployment", instance.DeploymentName).
			Warn("backend rejected stop request, marking terminated anyway: ", err)
	}

	if err := l.Instances.SetStatus(instance.ID, models.InstanceStatusTerminated); err != nil {
		return nil, err
	}
	instance.Status = models.InstanceStatusTerminated
	instance.Active = nil

	metrics.InstancesStopped.Inc()
	metrics.InstancesActive.Dec()
	var groupID *string
	if instance.Challenge != nil {
		groupID = &instance.Challenge.GroupID
	}
	audit(l.Audit, models.EventInstanceStopped, actor.ID, instance.ID, groupID, map[string]interface{}{
		"deployment_name": instance.DeploymentName,
	})
	return instance, nil
}

// ReconcileInstance refreshes a non-terminal instance's status from the
// orchestration backend. The local row is a cache, never authoritative; any
// status query goes through here.
func (l *Lifecycle) ReconcileInstance(instance *models.ChallengeInstance) (*models.ChallengeInstance, error) {
	if instance.Terminal() {
		return instance, nil
	}

	backendStatus, err := l.Orc.ChallengeStatus(instance.DeploymentName)
	if err != nil {
		// Reconciliation is advisory: serve the cached row when the backend
		// is unreachable rather than failing the read.
		logrus.WithField("deployment", instance.DeploymentName).
			Warn("status reconciliation failed, serving local state: ", err)
		return instance, nil
	}

	status := mapBackendStatus(backendStatus)
	if status == instance.Status {
		return instance, nil
	}

	if err := l.Instances.SetStatus(instance.ID, status); err != nil {
		return nil, err
	}
	instance.Status = status
	if instance.Terminal() {
		instance.Active = nil
		metrics.InstancesActive.Dec()
		var groupID *string
		if instance.Challenge != nil {
			groupID = &instance.Challenge.GroupID
		}
		metadata := map[string]interface{}{
			"deployment_name": instance.DeploymentName,
			"observed":        "backend",
		}
		switch status {
		case models.InstanceStatusFailed:
			metrics.InstanceStartFailures.Inc()
			audit(l.Audit, models.EventInstanceFailed, instance.UserID, instance.ID, groupID, metadata)
		case models.InstanceStatusTerminated:
			metrics.InstancesStopped.Inc()
			audit(l.Audit, models.EventInstanceStopped, instance.UserID, instance.ID, groupID, metadata)
		}
	}
	return instance, nil
}

// RecordCompletion records that the actor solved a challenge and awards the
// challenge's points. Duplicate completions never double-count.
func (l *Lifecycle) RecordCompletion(actor *models.User, challengeID string) (*CompletionResult, error) {
	challenge, err := l.Catalog.Find(challengeID)
	if err != nil {
		return nil, err
	}

	member, err := l.Members.IsMember(actor.ID, challenge.GroupID)
	if err != nil {
		return nil, err
	}
	if !member {
		return nil, ErrUnauthorized
	}

	result, err := l.Progress.RecordCompletion(actor.ID, challengeID)
	if err != nil {
		return nil, err
	}

	audit(l.Audit, models.EventCompletionRecorded, actor.ID, challengeID, &result.GroupID, map[string]interface{}{
		"points": result.Points,
	})
	return result, nil
}

// ResetProgress wipes a user's completions, question completions and points
// within one group. Instructor or staff only; the ledger guarantees the
// three mutations commit atomically.
func (l *Lifecycle) ResetProgress(actor *models.User, groupID, userID string) error {
	allowed, err := l.canAdministerGroup(actor, groupID, permissions.GROUPS)
	if err != nil {
		return err
	}
	if !allowed {
		return ErrUnauthorized
	}

	if err := l.Progress.ResetUserProgress(userID, groupID); err != nil {
		return err
	}

	audit(l.Audit, models.EventProgressReset, actor.ID, userID, &groupID, nil)
	return nil
}

// withRetry re-attempts transport-level orchestrator failures a bounded
// number of times. HTTP-level rejections surface immediately.
func (l *Lifecycle) withRetry(call func() error) error {
	var err error
	for attempt := 0; attempt <= l.Retries; attempt++ {
		if err = call(); err == nil {
			return nil
		}
		var pe *ProvisionError
		if !errors.As(err, &pe) || pe.StatusCode != 0 {
			return err
		}
	}
	return err
}

// releaseOrphan tears down a deployment whose local row lost the uniqueness
// race. Best-effort: the backend eventually reaps unclaimed deployments.
func (l *Lifecycle) releaseOrphan(deploymentName string) {
	if deploymentName == "" {
		return
	}
	if err := l.Orc.StopChallenge(deploymentName); err != nil {
		logrus.WithField("deployment", deploymentName).
			Warn("failed to release orphaned deployment: ", err)
	}
}

// mapBackendStatus folds the backend's loosely-typed status strings into the
// closed instance state set at the boundary
func mapBackendStatus(status string) string {
	switch status {
	case "running", "ready":
		return models.InstanceStatusRunning
	case "failed", "error":
		return models.InstanceStatusFailed
	case "terminated", "stopped":
		return models.InstanceStatusTerminated
	default:
		return models.InstanceStatusPending
	}
}
