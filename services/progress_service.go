package services

import (
	"errors"
	"fmt"
	"time"

	"rangeapi/database"
	"rangeapi/models"

	"gorm.io/gorm"
)

// CompletionResult describes a newly recorded completion
type CompletionResult struct {
	GroupID string
	Points  int
}

// ScoreboardEntry is one row of a group scoreboard
type ScoreboardEntry struct {
	UserID      string `json:"user_id"`
	Firstname   string `json:"firstname"`
	Lastname    string `json:"lastname"`
	Points      int    `json:"points"`
	Completions int    `json:"completions"`
}

// ProgressLedger keeps per-user, per-challenge completion and points records.
// ResetUserProgress is atomic: completions, question completions and the
// points balance commit together or not at all.
type ProgressLedger interface {
	RecordCompletion(userID, groupChallengeID string) (*CompletionResult, error)
	ResetUserProgress(userID, groupID string) error
	Scoreboard(groupID string) ([]ScoreboardEntry, error)
}

type gormProgressLedger struct {
	db  *gorm.DB
	now func() time.Time
}

// NewProgressLedger returns the database-backed ledger
func NewProgressLedger(db *gorm.DB) ProgressLedger {
	return &gormProgressLedger{db: db, now: time.Now}
}

func (l *gormProgressLedger) RecordCompletion(userID, groupChallengeID string) (*CompletionResult, error) {
	var result *CompletionResult

	err := l.db.Transaction(func(tx *gorm.DB) error {
		var challenge models.GroupChallenge
		if err := tx.First(&challenge, "id = ?", groupChallengeID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("failed to fetch challenge: %w", err)
		}

		var existing int64
		if err := tx.Model(&models.CompletionRecord{}).
			Where("user_id = ? AND group_challenge_id = ?", userID, groupChallengeID).
			Count(&existing).Error; err != nil {
			return fmt.Errorf("failed to check completion: %w", err)
		}
		if existing > 0 {
			return ErrDuplicateCompletion
		}

		record := models.CompletionRecord{
			UserID:           userID,
			GroupChallengeID: groupChallengeID,
			CompletedAt:      l.now(),
		}
		if err := tx.Create(&record).Error; err != nil {
			// The unique index backstops a concurrent duplicate that slipped
			// past the count above.
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrDuplicateCompletion
			}
			return fmt.Errorf("failed to record completion: %w", err)
		}

		balance := models.PointsBalance{UserID: userID, GroupID: challenge.GroupID}
		if err := tx.Where("user_id = ? AND group_id = ?", userID, challenge.GroupID).
			FirstOrCreate(&balance).Error; err != nil {
			return fmt.Errorf("failed to load points balance: %w", err)
		}
		if err := tx.Model(&balance).
			Update("points", gorm.Expr("points + ?", challenge.Points)).Error; err != nil {
			return fmt.Errorf("failed to award points: %w", err)
		}

		result = &CompletionResult{GroupID: challenge.GroupID, Points: challenge.Points}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (l *gormProgressLedger) ResetUserProgress(userID, groupID string) error {
	// One transaction covers all three mutations so a concurrent completion
	// is either fully visible after the reset or fully absent, never half
	// reflected between the completion tables and the points balance.
	return l.db.Transaction(func(tx *gorm.DB) error {
		challengeIDs := tx.Model(&models.GroupChallenge{}).
			Select("id").
			Where("group_id = ?", groupID)

		if err := tx.Where("user_id = ? AND group_challenge_id IN (?)", userID, challengeIDs).
			Delete(&models.CompletionRecord{}).Error; err != nil {
			return fmt.Errorf("failed to delete completions: %w", err)
		}

		if err := tx.Where("user_id = ? AND group_challenge_id IN (?)", userID, challengeIDs).
			Delete(&models.QuestionCompletion{}).Error; err != nil {
			return fmt.Errorf("failed to delete question completions: %w", err)
		}

		if err := tx.Model(&models.PointsBalance{}).
			Where("user_id = ? AND group_id = ?", userID, groupID).
			Update("points", 0).Error; err != nil {
			return fmt.Errorf("failed to zero points: %w", err)
		}
		return nil
	})
}

func (l *gormProgressLedger) Scoreboard(groupID string) ([]ScoreboardEntry, error) {
	var entries []ScoreboardEntry
	err := l.db.Model(&models.PointsBalance{}).
		Select(`points_balances.user_id,
			users.firstname,
			users.lastname,
			points_balances.points,
			COUNT(completion_records.id) AS completions`).
		Joins("JOIN users ON users.id = points_balances.user_id").
		Joins(`LEFT JOIN completion_records ON completion_records.user_id = points_balances.user_id
			AND completion_records.group_challenge_id IN (SELECT id FROM group_challenges WHERE group_id = ?)`, groupID).
		Where("points_balances.group_id = ?", groupID).
		Group("points_balances.user_id, users.firstname, users.lastname, points_balances.points").
		Order("points_balances.points DESC").
		Scan(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to build scoreboard: %w", err)
	}
	return entries, nil
}

// DefaultProgressLedger returns a ledger over the global database handle
func DefaultProgressLedger() ProgressLedger {
	return NewProgressLedger(database.DB)
}
