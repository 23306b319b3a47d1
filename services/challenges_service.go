package services

import (
	"errors"
	"fmt"

	"rangeapi/database"
	"rangeapi/models"

	"gorm.io/gorm"
)

// ChallengeCatalog resolves group challenges for the lifecycle coordinator
type ChallengeCatalog interface {
	Find(id string) (*models.GroupChallenge, error)
}

type gormChallengeCatalog struct {
	db *gorm.DB
}

// NewChallengeCatalog returns the database-backed catalog
func NewChallengeCatalog(db *gorm.DB) ChallengeCatalog {
	return &gormChallengeCatalog{db: db}
}

func (c *gormChallengeCatalog) Find(id string) (*models.GroupChallenge, error) {
	var challenge models.GroupChallenge
	if err := c.db.First(&challenge, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch challenge: %w", err)
	}
	return &challenge, nil
}

// DefaultChallengeCatalog returns a catalog over the global database handle
func DefaultChallengeCatalog() ChallengeCatalog {
	return NewChallengeCatalog(database.DB)
}
