package services

import (
	"errors"
	"testing"
	"time"

	"rangeapi/models"
	"rangeapi/utils/permissions"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// In-memory fakes for the coordinator's collaborators. Each test wires only
// the stores the scenario touches.

type fakeCodeRegistry struct {
	redeemResult *Redemption
	redeemErr    error
	issued       *models.AccessCode
	sweptCodes   []models.AccessCode
}

func (f *fakeCodeRegistry) Issue(groupID, createdBy, grantRole string, ttl time.Duration, maxUses int) (*models.AccessCode, error) {
	f.issued = &models.AccessCode{
		ID:        "code-1",
		Code:      "X7RP-Q2MK-W9TF",
		GroupID:   groupID,
		CreatedBy: createdBy,
		GrantRole: grantRole,
		ExpiresAt: time.Now().Add(ttl),
		MaxUses:   maxUses,
	}
	return f.issued, nil
}

func (f *fakeCodeRegistry) Redeem(code, userID string) (*Redemption, error) {
	return f.redeemResult, f.redeemErr
}

func (f *fakeCodeRegistry) SweepExpired() ([]models.AccessCode, error) {
	return f.sweptCodes, nil
}

type fakeMembershipStore struct {
	instructors map[string]bool // userID:groupID
	members     map[string]bool
	added       []string
	removed     []string
	removeErr   error
}

func membershipKey(userID, groupID string) string { return userID + ":" + groupID }

func (f *fakeMembershipStore) AddMember(groupID, userID, role string) error {
	f.added = append(f.added, membershipKey(userID, groupID))
	return nil
}

func (f *fakeMembershipStore) RemoveMember(groupID, userID string) error {
	if f.removeErr != nil {
		return f.removeErr
	}
	f.removed = append(f.removed, membershipKey(userID, groupID))
	return nil
}

func (f *fakeMembershipStore) IsInstructor(userID, groupID string) (bool, error) {
	return f.instructors[membershipKey(userID, groupID)], nil
}

func (f *fakeMembershipStore) IsMember(userID, groupID string) (bool, error) {
	return f.members[membershipKey(userID, groupID)], nil
}

func (f *fakeMembershipStore) ListForUser(userID string) (*GroupPartition, error) {
	return &GroupPartition{}, nil
}

type fakeProgressLedger struct {
	recordResult *CompletionResult
	recordErr    error
	resets       []string
}

func (f *fakeProgressLedger) RecordCompletion(userID, groupChallengeID string) (*CompletionResult, error) {
	return f.recordResult, f.recordErr
}

func (f *fakeProgressLedger) ResetUserProgress(userID, groupID string) error {
	f.resets = append(f.resets, membershipKey(userID, groupID))
	return nil
}

func (f *fakeProgressLedger) Scoreboard(groupID string) ([]ScoreboardEntry, error) {
	return nil, nil
}

type fakeInstanceStore struct {
	active     map[string]*models.ChallengeInstance // userID:challengeID
	byID       map[string]*models.ChallengeInstance
	createErr  error
	created    []*models.ChallengeInstance
	statuses   map[string]string
	activeErr  error
}

func newFakeInstanceStore() *fakeInstanceStore {
	return &fakeInstanceStore{
		active:   map[string]*models.ChallengeInstance{},
		byID:     map[string]*models.ChallengeInstance{},
		statuses: map[string]string{},
	}
}

func (f *fakeInstanceStore) FindActive(userID, challengeID string) (*models.ChallengeInstance, error) {
	if f.activeErr != nil {
		return nil, f.activeErr
	}
	return f.active[membershipKey(userID, challengeID)], nil
}

func (f *fakeInstanceStore) FindByID(id string) (*models.ChallengeInstance, error) {
	if instance, ok := f.byID[id]; ok {
		return instance, nil
	}
	return nil, ErrNotFound
}

func (f *fakeInstanceStore) FindByDeployment(deploymentName string) (*models.ChallengeInstance, error) {
	return nil, ErrNotFound
}

func (f *fakeInstanceStore) ListForUser(userID string) ([]models.ChallengeInstance, error) {
	return nil, nil
}

func (f *fakeInstanceStore) Create(instance *models.ChallengeInstance) error {
	if f.createErr != nil {
		return f.createErr
	}
	instance.ID = "inst-" + instance.DeploymentName
	f.created = append(f.created, instance)
	f.active[membershipKey(instance.UserID, instance.ChallengeID)] = instance
	f.byID[instance.ID] = instance
	return nil
}

func (f *fakeInstanceStore) SetStatus(id, status string) error {
	f.statuses[id] = status
	return nil
}

type fakeCatalog struct {
	challenges map[string]*models.GroupChallenge
}

func (f *fakeCatalog) Find(id string) (*models.GroupChallenge, error) {
	if challenge, ok := f.challenges[id]; ok {
		return challenge, nil
	}
	return nil, ErrNotFound
}

type fakeOrchestrator struct {
	startResp   *StartChallengeResponse
	startErrs   []error // one per attempt, nil means success
	startCalls  int
	stopErr     error
	stopped     []string
	statusValue string
	statusErr   error
}

func (f *fakeOrchestrator) StartChallenge(req StartChallengeRequest) (*StartChallengeResponse, error) {
	call := f.startCalls
	f.startCalls++
	if call < len(f.startErrs) && f.startErrs[call] != nil {
		return nil, f.startErrs[call]
	}
	return f.startResp, nil
}

func (f *fakeOrchestrator) StopChallenge(deploymentName string) error {
	f.stopped = append(f.stopped, deploymentName)
	return f.stopErr
}

func (f *fakeOrchestrator) ChallengeStatus(deploymentName string) (string, error) {
	return f.statusValue, f.statusErr
}

type recordedEvent struct {
	eventType string
	actorID   string
	subjectID string
	groupID   *string
}

type fakeAuditLog struct {
	events []recordedEvent
}

func (f *fakeAuditLog) Append(eventType, actorID, subjectID string, groupID *string, metadata map[string]interface{}) error {
	f.events = append(f.events, recordedEvent{eventType, actorID, subjectID, groupID})
	return nil
}

func staffUser(id string, perm int) *models.User {
	return &models.User{
		ID:    id,
		Roles: []*models.Role{{Name: "Staff", Permissions: perm}},
	}
}

func plainUser(id string) *models.User {
	return &models.User{ID: id}
}

func newTestLifecycle() (*Lifecycle, *fakeMembershipStore, *fakeInstanceStore, *fakeOrchestrator, *fakeAuditLog) {
	members := &fakeMembershipStore{
		instructors: map[string]bool{},
		members:     map[string]bool{},
	}
	instances := newFakeInstanceStore()
	orc := &fakeOrchestrator{
		startResp: &StartChallengeResponse{DeploymentName: "dep-1", Status: "running"},
	}
	auditLog := &fakeAuditLog{}
	l := &Lifecycle{
		Codes:     &fakeCodeRegistry{},
		Members:   members,
		Progress:  &fakeProgressLedger{},
		Instances: instances,
		Catalog: &fakeCatalog{challenges: map[string]*models.GroupChallenge{
			"chal-1": {ID: "chal-1", GroupID: "group-1", Image: "ctf/web:latest", ChalType: "web", Points: 100},
		}},
		Orc:     orc,
		Audit:   auditLog,
		Retries: 1,
	}
	return l, members, instances, orc, auditLog
}

func TestEnrollWithCode(t *testing.T) {
	t.Run("first redemption emits one audit event", func(t *testing.T) {
		l, _, _, _, auditLog := newTestLifecycle()
		l.Codes = &fakeCodeRegistry{redeemResult: &Redemption{
			CodeID: "code-1", GroupID: "group-1", GrantRole: models.RoleMember, First: true,
		}}

		redemption, err := l.EnrollWithCode(plainUser("user-1"), "X7RP-Q2MK-W9TF")
		require.NoError(t, err)
		assert.Equal(t, "group-1", redemption.GroupID)
		require.Len(t, auditLog.events, 1)
		assert.Equal(t, models.EventCodeRedeemed, auditLog.events[0].eventType)
		assert.Equal(t, "user-1", auditLog.events[0].actorID)
	})

	t.Run("repeat redemption succeeds without a second audit event", func(t *testing.T) {
		l, _, _, _, auditLog := newTestLifecycle()
		l.Codes = &fakeCodeRegistry{redeemResult: &Redemption{
			CodeID: "code-1", GroupID: "group-1", GrantRole: models.RoleMember, First: false,
		}}

		_, err := l.EnrollWithCode(plainUser("user-1"), "X7RP-Q2MK-W9TF")
		require.NoError(t, err)
		assert.Empty(t, auditLog.events)
	})

	t.Run("expired code surfaces the sentinel", func(t *testing.T) {
		l, _, _, _, auditLog := newTestLifecycle()
		l.Codes = &fakeCodeRegistry{redeemErr: ErrCodeExpired}

		_, err := l.EnrollWithCode(plainUser("user-1"), "X7RP-Q2MK-W9TF")
		assert.ErrorIs(t, err, ErrCodeExpired)
		assert.Empty(t, auditLog.events)
	})
}

func TestIssueCode(t *testing.T) {
	t.Run("instructor can issue", func(t *testing.T) {
		l, members, _, _, auditLog := newTestLifecycle()
		members.instructors[membershipKey("teach-1", "group-1")] = true

		code, err := l.IssueCode(plainUser("teach-1"), "group-1", models.RoleMember, time.Hour, 5)
		require.NoError(t, err)
		assert.Equal(t, "group-1", code.GroupID)
		require.Len(t, auditLog.events, 1)
		assert.Equal(t, models.EventCodeIssued, auditLog.events[0].eventType)
	})

	t.Run("plain member cannot issue", func(t *testing.T) {
		l, _, _, _, auditLog := newTestLifecycle()

		_, err := l.IssueCode(plainUser("user-1"), "group-1", models.RoleMember, time.Hour, 0)
		assert.ErrorIs(t, err, ErrUnauthorized)
		assert.Empty(t, auditLog.events)
	})
}

func TestSweepExpiredCodes(t *testing.T) {
	l, _, _, _, auditLog := newTestLifecycle()
	l.Codes = &fakeCodeRegistry{sweptCodes: []models.AccessCode{
		{ID: "code-1", GroupID: "group-1"},
		{ID: "code-2", GroupID: "group-2"},
	}}

	count, err := l.SweepExpiredCodes(staffUser("staff-1", permissions.CODES))
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	require.Len(t, auditLog.events, 2)
	for _, event := range auditLog.events {
		assert.Equal(t, models.EventCodeExpired, event.eventType)
	}

	_, err = l.SweepExpiredCodes(plainUser("user-1"))
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestStartChallenge(t *testing.T) {
	t.Run("happy path creates instance and audits once", func(t *testing.T) {
		l, members, instances, orc, auditLog := newTestLifecycle()
		members.members[membershipKey("user-1", "group-1")] = true

		instance, err := l.StartChallenge(plainUser("user-1"), "chal-1")
		require.NoError(t, err)
		assert.Equal(t, "dep-1", instance.DeploymentName)
		assert.Equal(t, models.InstanceStatusRunning, instance.Status)
		assert.Equal(t, 1, orc.startCalls)
		require.Len(t, instances.created, 1)
		require.Len(t, auditLog.events, 1)
		assert.Equal(t, models.EventInstanceStarted, auditLog.events[0].eventType)
	})

	t.Run("non-member is rejected before the backend is called", func(t *testing.T) {
		l, _, _, orc, _ := newTestLifecycle()

		_, err := l.StartChallenge(plainUser("user-1"), "chal-1")
		assert.ErrorIs(t, err, ErrUnauthorized)
		assert.Zero(t, orc.startCalls)
	})

	t.Run("existing active instance is returned without contacting the backend", func(t *testing.T) {
		l, members, instances, orc, auditLog := newTestLifecycle()
		members.members[membershipKey("user-1", "group-1")] = true
		existing := &models.ChallengeInstance{ID: "inst-0", UserID: "user-1", ChallengeID: "chal-1", DeploymentName: "dep-0", Status: models.InstanceStatusRunning}
		instances.active[membershipKey("user-1", "chal-1")] = existing

		instance, err := l.StartChallenge(plainUser("user-1"), "chal-1")
		require.NoError(t, err)
		assert.Equal(t, "dep-0", instance.DeploymentName)
		assert.Zero(t, orc.startCalls)
		assert.Empty(t, auditLog.events)
	})

	t.Run("transport failure is retried, then succeeds", func(t *testing.T) {
		l, members, instances, orc, _ := newTestLifecycle()
		members.members[membershipKey("user-1", "group-1")] = true
		orc.startErrs = []error{&ProvisionError{Operation: "start-challenge", Err: errors.New("connection refused")}}

		instance, err := l.StartChallenge(plainUser("user-1"), "chal-1")
		require.NoError(t, err)
		assert.Equal(t, 2, orc.startCalls)
		assert.Equal(t, "dep-1", instance.DeploymentName)
		require.Len(t, instances.created, 1)
	})

	t.Run("timeout on every attempt leaves no local row", func(t *testing.T) {
		l, members, instances, orc, auditLog := newTestLifecycle()
		members.members[membershipKey("user-1", "group-1")] = true
		timeout := &ProvisionError{Operation: "start-challenge", Err: errors.New("context deadline exceeded")}
		orc.startErrs = []error{timeout, timeout}

		_, err := l.StartChallenge(plainUser("user-1"), "chal-1")
		require.Error(t, err)
		assert.True(t, IsProvisionFailed(err))
		assert.Empty(t, instances.created)
		assert.Empty(t, auditLog.events)

		// a later attempt with a healthy backend starts cleanly
		orc.startErrs = nil
		instance, err := l.StartChallenge(plainUser("user-1"), "chal-1")
		require.NoError(t, err)
		assert.Equal(t, "dep-1", instance.DeploymentName)
	})

	t.Run("HTTP rejection is not retried", func(t *testing.T) {
		l, members, _, orc, _ := newTestLifecycle()
		members.members[membershipKey("user-1", "group-1")] = true
		rejection := &ProvisionError{Operation: "start-challenge", StatusCode: 422, Body: "bad image"}
		orc.startErrs = []error{rejection, rejection, rejection}

		_, err := l.StartChallenge(plainUser("user-1"), "chal-1")
		require.Error(t, err)
		assert.Equal(t, 1, orc.startCalls)

		var pe *ProvisionError
		require.ErrorAs(t, err, &pe)
		assert.Equal(t, 422, pe.StatusCode)
		assert.Equal(t, "bad image", pe.Body)
	})

	t.Run("losing the uniqueness race observes the winner and releases the orphan", func(t *testing.T) {
		l, members, instances, orc, auditLog := newTestLifecycle()
		members.members[membershipKey("user-1", "group-1")] = true
		instances.createErr = ErrDuplicateInstance
		winner := &models.ChallengeInstance{ID: "inst-w", UserID: "user-1", ChallengeID: "chal-1", DeploymentName: "dep-winner", Status: models.InstanceStatusRunning}
		// the winner's row appears between our FindActive miss and the insert
		findCalls := 0
		l.Instances = &raceInstanceStore{fakeInstanceStore: instances, winner: winner, findCalls: &findCalls}

		instance, err := l.StartChallenge(plainUser("user-1"), "chal-1")
		require.NoError(t, err)
		assert.Equal(t, "dep-winner", instance.DeploymentName)
		assert.Equal(t, []string{"dep-1"}, orc.stopped)
		assert.Empty(t, auditLog.events)
	})

	t.Run("vanished race winner triggers a clean second pass", func(t *testing.T) {
		l, members, instances, orc, auditLog := newTestLifecycle()
		members.members[membershipKey("user-1", "group-1")] = true
		// the winner's row went terminal before the re-read, so the
		// uniqueness slot rejects the first insert but the slot is free again
		store := &vanishedWinnerStore{fakeInstanceStore: instances, dupErrs: 1}
		l.Instances = store

		instance, err := l.StartChallenge(plainUser("user-1"), "chal-1")
		require.NoError(t, err)
		require.NotNil(t, instance)
		assert.Equal(t, "dep-1", instance.DeploymentName)
		assert.Equal(t, 2, orc.startCalls)
		assert.Equal(t, []string{"dep-1"}, orc.stopped)
		require.Len(t, auditLog.events, 1)
		assert.Equal(t, models.EventInstanceStarted, auditLog.events[0].eventType)
	})

	t.Run("persistently vanishing winner surfaces an inconsistency", func(t *testing.T) {
		l, members, instances, orc, _ := newTestLifecycle()
		members.members[membershipKey("user-1", "group-1")] = true
		store := &vanishedWinnerStore{fakeInstanceStore: instances, dupErrs: 99}
		l.Instances = store

		instance, err := l.StartChallenge(plainUser("user-1"), "chal-1")
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInternalInconsistency)
		assert.Nil(t, instance)
		assert.Len(t, orc.stopped, 2)
	})

	t.Run("more than one active instance aborts the start", func(t *testing.T) {
		l, members, instances, orc, _ := newTestLifecycle()
		members.members[membershipKey("user-1", "group-1")] = true
		instances.activeErr = ErrInternalInconsistency

		_, err := l.StartChallenge(plainUser("user-1"), "chal-1")
		assert.ErrorIs(t, err, ErrInternalInconsistency)
		assert.Zero(t, orc.startCalls)
	})
}

// vanishedWinnerStore simulates a race winner whose row reached a terminal
// state before the loser's re-read: Create rejects dupErrs times while
// FindActive never observes an active row
type vanishedWinnerStore struct {
	*fakeInstanceStore
	dupErrs     int
	createCalls int
}

func (s *vanishedWinnerStore) FindActive(userID, challengeID string) (*models.ChallengeInstance, error) {
	return nil, nil
}

func (s *vanishedWinnerStore) Create(instance *models.ChallengeInstance) error {
	s.createCalls++
	if s.createCalls <= s.dupErrs {
		return ErrDuplicateInstance
	}
	return s.fakeInstanceStore.Create(instance)
}

// raceInstanceStore simulates a concurrent start that wins the composite
// uniqueness slot after the first FindActive returned nothing
type raceInstanceStore struct {
	*fakeInstanceStore
	winner    *models.ChallengeInstance
	findCalls *int
}

func (r *raceInstanceStore) FindActive(userID, challengeID string) (*models.ChallengeInstance, error) {
	*r.findCalls++
	if *r.findCalls == 1 {
		return nil, nil
	}
	return r.winner, nil
}

func TestStopChallenge(t *testing.T) {
	running := func() *models.ChallengeInstance {
		return &models.ChallengeInstance{
			ID: "inst-1", UserID: "user-1", ChallengeID: "chal-1",
			DeploymentName: "dep-1", Status: models.InstanceStatusRunning,
			Challenge: &models.GroupChallenge{ID: "chal-1", GroupID: "group-1"},
		}
	}

	t.Run("owner stops their instance", func(t *testing.T) {
		l, _, instances, orc, auditLog := newTestLifecycle()
		instances.byID["inst-1"] = running()

		instance, err := l.StopChallenge(plainUser("user-1"), "inst-1")
		require.NoError(t, err)
		assert.Equal(t, models.InstanceStatusTerminated, instance.Status)
		assert.Nil(t, instance.Active)
		assert.Equal(t, []string{"dep-1"}, orc.stopped)
		assert.Equal(t, models.InstanceStatusTerminated, instances.statuses["inst-1"])
		require.Len(t, auditLog.events, 1)
		assert.Equal(t, models.EventInstanceStopped, auditLog.events[0].eventType)
	})

	t.Run("stranger cannot stop it", func(t *testing.T) {
		l, _, instances, orc, _ := newTestLifecycle()
		instances.byID["inst-1"] = running()

		_, err := l.StopChallenge(plainUser("user-2"), "inst-1")
		assert.ErrorIs(t, err, ErrUnauthorized)
		assert.Empty(t, orc.stopped)
	})

	t.Run("group instructor can stop it", func(t *testing.T) {
		l, members, instances, _, _ := newTestLifecycle()
		members.instructors[membershipKey("teach-1", "group-1")] = true
		instances.byID["inst-1"] = running()

		instance, err := l.StopChallenge(plainUser("teach-1"), "inst-1")
		require.NoError(t, err)
		assert.Equal(t, models.InstanceStatusTerminated, instance.Status)
	})

	t.Run("stopping a terminal instance is idempotent", func(t *testing.T) {
		l, _, instances, orc, auditLog := newTestLifecycle()
		terminal := running()
		terminal.Status = models.InstanceStatusTerminated
		instances.byID["inst-1"] = terminal

		instance, err := l.StopChallenge(plainUser("user-1"), "inst-1")
		require.NoError(t, err)
		assert.Equal(t, models.InstanceStatusTerminated, instance.Status)
		assert.Empty(t, orc.stopped)
		assert.Empty(t, auditLog.events)
	})

	t.Run("transport failure keeps the row live", func(t *testing.T) {
		l, _, instances, orc, _ := newTestLifecycle()
		instances.byID["inst-1"] = running()
		orc.stopErr = &ProvisionError{Operation: "stop-challenge", Deployment: "dep-1", Err: errors.New("connection refused")}

		_, err := l.StopChallenge(plainUser("user-1"), "inst-1")
		require.Error(t, err)
		assert.NotContains(t, instances.statuses, "inst-1")
	})

	t.Run("HTTP rejection still terminates the row", func(t *testing.T) {
		l, _, instances, orc, _ := newTestLifecycle()
		instances.byID["inst-1"] = running()
		orc.stopErr = &ProvisionError{Operation: "stop-challenge", Deployment: "dep-1", StatusCode: 404, Body: "unknown deployment"}

		instance, err := l.StopChallenge(plainUser("user-1"), "inst-1")
		require.NoError(t, err)
		assert.Equal(t, models.InstanceStatusTerminated, instance.Status)
	})
}

func TestReconcileInstance(t *testing.T) {
	running := func() *models.ChallengeInstance {
		return &models.ChallengeInstance{
			ID: "inst-1", UserID: "user-1", ChallengeID: "chal-1",
			DeploymentName: "dep-1", Status: models.InstanceStatusPending,
		}
	}

	t.Run("backend status updates the local row", func(t *testing.T) {
		l, _, instances, orc, _ := newTestLifecycle()
		orc.statusValue = "running"

		instance, err := l.ReconcileInstance(running())
		require.NoError(t, err)
		assert.Equal(t, models.InstanceStatusRunning, instance.Status)
		assert.Equal(t, models.InstanceStatusRunning, instances.statuses["inst-1"])
	})

	t.Run("unreachable backend serves the cached state", func(t *testing.T) {
		l, _, instances, orc, _ := newTestLifecycle()
		orc.statusErr = &ProvisionError{Operation: "challenge-status", Err: errors.New("connection refused")}

		instance, err := l.ReconcileInstance(running())
		require.NoError(t, err)
		assert.Equal(t, models.InstanceStatusPending, instance.Status)
		assert.Empty(t, instances.statuses)
	})

	t.Run("failed backend status audits the failure", func(t *testing.T) {
		l, _, _, orc, auditLog := newTestLifecycle()
		orc.statusValue = "failed"

		instance, err := l.ReconcileInstance(running())
		require.NoError(t, err)
		assert.Equal(t, models.InstanceStatusFailed, instance.Status)
		assert.Nil(t, instance.Active)
		require.Len(t, auditLog.events, 1)
		assert.Equal(t, models.EventInstanceFailed, auditLog.events[0].eventType)
	})

	t.Run("backend observed termination audits a stop", func(t *testing.T) {
		l, _, instances, orc, auditLog := newTestLifecycle()
		orc.statusValue = "terminated"

		instance, err := l.ReconcileInstance(running())
		require.NoError(t, err)
		assert.Equal(t, models.InstanceStatusTerminated, instance.Status)
		assert.Nil(t, instance.Active)
		assert.Equal(t, models.InstanceStatusTerminated, instances.statuses["inst-1"])
		require.Len(t, auditLog.events, 1)
		assert.Equal(t, models.EventInstanceStopped, auditLog.events[0].eventType)
	})

	t.Run("terminal instance is never re-queried", func(t *testing.T) {
		l, _, _, orc, _ := newTestLifecycle()
		orc.statusValue = "running"
		terminal := running()
		terminal.Status = models.InstanceStatusTerminated

		instance, err := l.ReconcileInstance(terminal)
		require.NoError(t, err)
		assert.Equal(t, models.InstanceStatusTerminated, instance.Status)
	})
}

func TestRecordCompletion(t *testing.T) {
	t.Run("member completion awards points and audits", func(t *testing.T) {
		l, members, _, _, auditLog := newTestLifecycle()
		members.members[membershipKey("user-1", "group-1")] = true
		l.Progress = &fakeProgressLedger{recordResult: &CompletionResult{GroupID: "group-1", Points: 100}}

		result, err := l.RecordCompletion(plainUser("user-1"), "chal-1")
		require.NoError(t, err)
		assert.Equal(t, 100, result.Points)
		require.Len(t, auditLog.events, 1)
		assert.Equal(t, models.EventCompletionRecorded, auditLog.events[0].eventType)
	})

	t.Run("duplicate completion does not audit twice", func(t *testing.T) {
		l, members, _, _, auditLog := newTestLifecycle()
		members.members[membershipKey("user-1", "group-1")] = true
		l.Progress = &fakeProgressLedger{recordErr: ErrDuplicateCompletion}

		_, err := l.RecordCompletion(plainUser("user-1"), "chal-1")
		assert.ErrorIs(t, err, ErrDuplicateCompletion)
		assert.Empty(t, auditLog.events)
	})
}

func TestResetProgress(t *testing.T) {
	t.Run("instructor reset is recorded once", func(t *testing.T) {
		l, members, _, _, auditLog := newTestLifecycle()
		members.instructors[membershipKey("teach-1", "group-1")] = true
		ledger := &fakeProgressLedger{}
		l.Progress = ledger

		require.NoError(t, l.ResetProgress(plainUser("teach-1"), "group-1", "user-1"))
		assert.Equal(t, []string{membershipKey("user-1", "group-1")}, ledger.resets)
		require.Len(t, auditLog.events, 1)
		assert.Equal(t, models.EventProgressReset, auditLog.events[0].eventType)

		// running it again is safe, each run is its own logical transition
		require.NoError(t, l.ResetProgress(plainUser("teach-1"), "group-1", "user-1"))
		assert.Len(t, ledger.resets, 2)
	})

	t.Run("member cannot reset another member", func(t *testing.T) {
		l, _, _, _, _ := newTestLifecycle()
		err := l.ResetProgress(plainUser("user-2"), "group-1", "user-1")
		assert.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("staff with the groups permission can reset", func(t *testing.T) {
		l, _, _, _, _ := newTestLifecycle()
		err := l.ResetProgress(staffUser("staff-1", permissions.GROUPS), "group-1", "user-1")
		assert.NoError(t, err)
	})
}

func TestRemoveMember(t *testing.T) {
	t.Run("self removal is always allowed", func(t *testing.T) {
		l, members, _, _, auditLog := newTestLifecycle()

		require.NoError(t, l.RemoveMember(plainUser("user-1"), "group-1", "user-1"))
		assert.Equal(t, []string{membershipKey("user-1", "group-1")}, members.removed)
		require.Len(t, auditLog.events, 1)
		assert.Equal(t, models.EventMemberRemoved, auditLog.events[0].eventType)
	})

	t.Run("removing another member requires instructor rights", func(t *testing.T) {
		l, members, _, _, _ := newTestLifecycle()

		err := l.RemoveMember(plainUser("user-2"), "group-1", "user-1")
		assert.ErrorIs(t, err, ErrUnauthorized)
		assert.Empty(t, members.removed)
	})
}

func TestMapBackendStatus(t *testing.T) {
	cases := map[string]string{
		"running":      models.InstanceStatusRunning,
		"ready":        models.InstanceStatusRunning,
		"failed":       models.InstanceStatusFailed,
		"error":        models.InstanceStatusFailed,
		"terminated":   models.InstanceStatusTerminated,
		"stopped":      models.InstanceStatusTerminated,
		"provisioning": models.InstanceStatusPending,
		"":             models.InstanceStatusPending,
	}
	for backend, want := range cases {
		assert.Equal(t, want, mapBackendStatus(backend), "backend status %q", backend)
	}
}
