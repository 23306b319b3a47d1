package services

import (
	"errors"
	"fmt"
	"time"

	"rangeapi/database"
	"rangeapi/models"

	"gorm.io/gorm"
)

// GroupPartition splits a user's groups by comparing now against the group
// time window
type GroupPartition struct {
	Active    []models.CompetitionGroup `json:"active"`
	Upcoming  []models.CompetitionGroup `json:"upcoming"`
	Completed []models.CompetitionGroup `json:"completed"`
}

// MembershipStore tracks instructors and members per competition group.
// Authorization for removing another user is a precondition enforced by the
// lifecycle coordinator, not by this store.
type MembershipStore interface {
	AddMember(groupID, userID, role string) error
	RemoveMember(groupID, userID string) error
	IsInstructor(userID, groupID string) (bool, error)
	IsMember(userID, groupID string) (bool, error)
	ListForUser(userID string) (*GroupPartition, error)
}

// PartitionGroups sorts groups into active, upcoming and completed relative
// to now. A nil end date means open-ended: the group never completes.
func PartitionGroups(groups []models.CompetitionGroup, now time.Time) *GroupPartition {
	partition := &GroupPartition{
		Active:    []models.CompetitionGroup{},
		Upcoming:  []models.CompetitionGroup{},
		Completed: []models.CompetitionGroup{},
	}
	for _, group := range groups {
		switch {
		case now.Before(group.StartDate):
			partition.Upcoming = append(partition.Upcoming, group)
		case group.EndDate != nil && now.After(*group.EndDate):
			partition.Completed = append(partition.Completed, group)
		default:
			partition.Active = append(partition.Active, group)
		}
	}
	return partition
}

type gormMembershipStore struct {
	db  *gorm.DB
	now func() time.Time
}

// NewMembershipStore returns the database-backed membership store
func NewMembershipStore(db *gorm.DB) MembershipStore {
	return &gormMembershipStore{db: db, now: time.Now}
}

func (s *gormMembershipStore) AddMember(groupID, userID, role string) error {
	var group models.CompetitionGroup
	if err := s.db.Select("id").First(&group, "id = ?", groupID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to fetch group: %w", err)
	}

	membership := models.Membership{GroupID: groupID, UserID: userID, Role: role}
	if err := s.db.Where("group_id = ? AND user_id = ? AND role = ?", groupID, userID, role).
		FirstOrCreate(&membership).Error; err != nil {
		return fmt.Errorf("failed to add member: %w", err)
	}
	return nil
}

func (s *gormMembershipStore) RemoveMember(groupID, userID string) error {
	result := s.db.Where("group_id = ? AND user_id = ?", groupID, userID).
		Delete(&models.Membership{})
	if result.Error != nil {
		return fmt.Errorf("failed to remove member: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *gormMembershipStore) IsInstructor(userID, groupID string) (bool, error) {
	var count int64
	err := s.db.Model(&models.Membership{}).
		Where("group_id = ? AND user_id = ? AND role = ?", groupID, userID, models.RoleInstructor).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check instructor role: %w", err)
	}
	return count > 0, nil
}

// IsMember reports whether the user holds any role in the group
func (s *gormMembershipStore) IsMember(userID, groupID string) (bool, error) {
	var count int64
	err := s.db.Model(&models.Membership{}).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check membership: %w", err)
	}
	return count > 0, nil
}

func (s *gormMembershipStore) ListForUser(userID string) (*GroupPartition, error) {
	var groups []models.CompetitionGroup
	err := s.db.
		Joins("JOIN memberships ON memberships.group_id = competition_groups.id").
		Where("memberships.user_id = ?", userID).
		Distinct().
		Find(&groups).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	return PartitionGroups(groups, s.now()), nil
}

// DefaultMembershipStore returns a store over the global database handle
func DefaultMembershipStore() MembershipStore {
	return NewMembershipStore(database.DB)
}
