package services

import (
	"testing"
	"time"

	"rangeapi/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPartitionGroups(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	yesterday := now.Add(-24 * time.Hour)
	tomorrow := now.Add(24 * time.Hour)

	groups := []models.CompetitionGroup{
		{ID: "past", StartDate: yesterday.Add(-48 * time.Hour), EndDate: &yesterday},
		{ID: "running", StartDate: yesterday, EndDate: &tomorrow},
		{ID: "open-ended", StartDate: yesterday},
		{ID: "future", StartDate: tomorrow},
	}

	partition := PartitionGroups(groups, now)

	require.Len(t, partition.Active, 2)
	assert.Equal(t, "running", partition.Active[0].ID)
	assert.Equal(t, "open-ended", partition.Active[1].ID)

	require.Len(t, partition.Upcoming, 1)
	assert.Equal(t, "future", partition.Upcoming[0].ID)

	require.Len(t, partition.Completed, 1)
	assert.Equal(t, "past", partition.Completed[0].ID)
}

func TestPartitionGroupsEmpty(t *testing.T) {
	partition := PartitionGroups(nil, time.Now())

	// empty slices, not nil, so the JSON rendering is stable
	assert.NotNil(t, partition.Active)
	assert.NotNil(t, partition.Upcoming)
	assert.NotNil(t, partition.Completed)
	assert.Empty(t, partition.Active)
}
