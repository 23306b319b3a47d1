package services

import (
	"errors"
	"fmt"

	"rangeapi/database"
	"rangeapi/models"

	"gorm.io/gorm"
)

// InstanceStore persists challenge instance rows. The composite unique index
// on (user_id, challenge_id, active) is the mutual-exclusion mechanism for
// concurrent starts: Create returns ErrDuplicateInstance when it trips.
type InstanceStore interface {
	FindActive(userID, challengeID string) (*models.ChallengeInstance, error)
	FindByID(id string) (*models.ChallengeInstance, error)
	FindByDeployment(deploymentName string) (*models.ChallengeInstance, error)
	ListForUser(userID string) ([]models.ChallengeInstance, error)
	Create(instance *models.ChallengeInstance) error
	SetStatus(id, status string) error
}

type gormInstanceStore struct {
	db *gorm.DB
}

// NewInstanceStore returns the database-backed instance store
func NewInstanceStore(db *gorm.DB) InstanceStore {
	return &gormInstanceStore{db: db}
}

// FindActive returns the single non-terminal instance for (user, challenge),
// nil when there is none, and ErrInternalInconsistency when more than one
// exists. The inconsistency is surfaced loudly rather than silently repaired:
// picking one row over the other would guess which record is canonical.
func (s *gormInstanceStore) FindActive(userID, challengeID string) (*models.ChallengeInstance, error) {
	var instances []models.ChallengeInstance
	err := s.db.Where("user_id = ? AND challenge_id = ? AND active = true", userID, challengeID).
		Find(&instances).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query active instances: %w", err)
	}
	switch len(instances) {
	case 0:
		return nil, nil
	case 1:
		return &instances[0], nil
	default:
		return nil, fmt.Errorf("%w: %d non-terminal instances for user %s challenge %s",
			ErrInternalInconsistency, len(instances), userID, challengeID)
	}
}

func (s *gormInstanceStore) FindByID(id string) (*models.ChallengeInstance, error) {
	var instance models.ChallengeInstance
	if err := s.db.Preload("Challenge").First(&instance, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch instance: %w", err)
	}
	return &instance, nil
}

func (s *gormInstanceStore) FindByDeployment(deploymentName string) (*models.ChallengeInstance, error) {
	var instance models.ChallengeInstance
	if err := s.db.First(&instance, "deployment_name = ?", deploymentName).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch instance: %w", err)
	}
	return &instance, nil
}

func (s *gormInstanceStore) ListForUser(userID string) ([]models.ChallengeInstance, error) {
	var instances []models.ChallengeInstance
	err := s.db.Preload("Challenge").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&instances).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list instances: %w", err)
	}
	return instances, nil
}

func (s *gormInstanceStore) Create(instance *models.ChallengeInstance) error {
	if !instance.Terminal() {
		active := true
		instance.Active = &active
	}
	if err := s.db.Create(instance).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateInstance
		}
		return fmt.Errorf("failed to create instance: %w", err)
	}
	return nil
}

// SetStatus transitions an instance and clears the active marker on terminal
// states so the uniqueness slot frees up for the next start.
func (s *gormInstanceStore) SetStatus(id, status string) error {
	updates := map[string]interface{}{"status": status}
	if status == models.InstanceStatusFailed || status == models.InstanceStatusTerminated {
		updates["active"] = nil
	}
	result := s.db.Model(&models.ChallengeInstance{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to update instance status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DefaultInstanceStore returns a store over the global database handle
func DefaultInstanceStore() InstanceStore {
	return NewInstanceStore(database.DB)
}
