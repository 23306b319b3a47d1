package services

import (
	"errors"
	"fmt"
	"time"

	"rangeapi/database"
	"rangeapi/models"
	"rangeapi/utils"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Redemption is the outcome of a successful code redemption. First is false
// when the same user had already redeemed this code: the grant is repeated
// but no new logical transition happened.
type Redemption struct {
	CodeID    string
	Code      string
	GroupID   string
	GrantRole string
	First     bool
}

// AccessCodeRegistry validates, redeems and expires competition enrollment codes
type AccessCodeRegistry interface {
	Issue(groupID, createdBy, grantRole string, ttl time.Duration, maxUses int) (*models.AccessCode, error)
	Redeem(code, userID string) (*Redemption, error)
	SweepExpired() ([]models.AccessCode, error)
}

// ValidateRedemption applies the admission rules for a code redemption.
// Expiry always wins: an expired code fails even for a user who already
// redeemed it. Exhaustion only blocks users who are not yet in the
// redemption set, so repeat redemptions stay idempotent.
func ValidateRedemption(code *models.AccessCode, alreadyRedeemed bool, now time.Time) error {
	if code.Expired || !now.Before(code.ExpiresAt) {
		return ErrCodeExpired
	}
	if !alreadyRedeemed && code.MaxUses > 0 && code.Uses >= code.MaxUses {
		return ErrCodeAlreadyConsumed
	}
	return nil
}

type gormCodeRegistry struct {
	db  *gorm.DB
	now func() time.Time
}

// NewAccessCodeRegistry returns the database-backed registry
func NewAccessCodeRegistry(db *gorm.DB) AccessCodeRegistry {
	return &gormCodeRegistry{db: db, now: time.Now}
}

func (r *gormCodeRegistry) Issue(groupID, createdBy, grantRole string, ttl time.Duration, maxUses int) (*models.AccessCode, error) {
	var group models.CompetitionGroup
	if err := r.db.First(&group, "id = ?", groupID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch group: %w", err)
	}

	codeString, err := utils.GenerateAccessCode()
	if err != nil {
		return nil, fmt.Errorf("failed to generate code: %w", err)
	}

	code := models.AccessCode{
		Code:      codeString,
		GroupID:   groupID,
		CreatedBy: createdBy,
		GrantRole: grantRole,
		ExpiresAt: r.now().Add(ttl),
		MaxUses:   maxUses,
	}
	if err := r.db.Create(&code).Error; err != nil {
		return nil, fmt.Errorf("failed to store code: %w", err)
	}
	return &code, nil
}

func (r *gormCodeRegistry) Redeem(codeString, userID string) (*Redemption, error) {
	var result *Redemption

	err := r.db.Transaction(func(tx *gorm.DB) error {
		var code models.AccessCode
		if err := tx.Where("code = ?", codeString).First(&code).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCodeNotFound
			}
			return fmt.Errorf("failed to fetch code: %w", err)
		}

		var redeemedCount int64
		if err := tx.Model(&models.AccessCodeRedemption{}).
			Where("code_id = ? AND user_id = ?", code.ID, userID).
			Count(&redeemedCount).Error; err != nil {
			return fmt.Errorf("failed to check redemptions: %w", err)
		}
		alreadyRedeemed := redeemedCount > 0

		if err := ValidateRedemption(&code, alreadyRedeemed, r.now()); err != nil {
			return err
		}

		if !alreadyRedeemed {
			redemption := models.AccessCodeRedemption{
				CodeID:     code.ID,
				UserID:     userID,
				RedeemedAt: r.now(),
			}
			if err := tx.Create(&redemption).Error; err != nil {
				return fmt.Errorf("failed to record redemption: %w", err)
			}
			if err := tx.Model(&code).Update("uses", gorm.Expr("uses + 1")).Error; err != nil {
				return fmt.Errorf("failed to count redemption: %w", err)
			}
		}

		// Repeat the membership grant on every successful redemption: the
		// grant is the end state the caller wants, so this stays idempotent.
		membership := models.Membership{GroupID: code.GroupID, UserID: userID, Role: code.GrantRole}
		if err := tx.Where("group_id = ? AND user_id = ? AND role = ?", code.GroupID, userID, code.GrantRole).
			FirstOrCreate(&membership).Error; err != nil {
			return fmt.Errorf("failed to grant membership: %w", err)
		}

		result = &Redemption{
			CodeID:    code.ID,
			Code:      code.Code,
			GroupID:   code.GroupID,
			GrantRole: code.GrantRole,
			First:     !alreadyRedeemed,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (r *gormCodeRegistry) SweepExpired() ([]models.AccessCode, error) {
	var swept []models.AccessCode

	// The expired flag is the processed marker. A single UPDATE with
	// RETURNING claims each code exactly once, so concurrent sweeps split
	// the set instead of both reporting it.
	err := r.db.Model(&swept).
		Clauses(clause.Returning{}).
		Where("expires_at < ? AND expired = false", r.now()).
		Update("expired", true).Error
	if err != nil {
		return nil, fmt.Errorf("failed to mark expired codes: %w", err)
	}
	return swept, nil
}

// DefaultAccessCodeRegistry returns a registry over the global database handle
func DefaultAccessCodeRegistry() AccessCodeRegistry {
	return NewAccessCodeRegistry(database.DB)
}
