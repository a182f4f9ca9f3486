package services_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sharada257/Feedback-Management/internal/application/services"
	"github.com/sharada257/Feedback-Management/internal/domain/entities"
)

func TestGroupByStatus(t *testing.T) {
	items := []entities.Feedback{
		{ID: 1, Status: entities.StatusCompleted},
		{ID: 2, Status: entities.StatusOpen},
		{ID: 3, Status: entities.FeedbackStatus("Archived")},
		{ID: 4, Status: entities.StatusOpen},
	}

	columns := services.GroupByStatus(items)
	require.Len(t, columns, 3)

	assert.Equal(t, entities.StatusOpen, columns[0].Status)
	assert.Equal(t, entities.StatusInProgress, columns[1].Status)
	assert.Equal(t, entities.StatusCompleted, columns[2].Status)

	require.Len(t, columns[0].Items, 2)
	assert.Equal(t, int64(2), columns[0].Items[0].ID)
	assert.Equal(t, int64(4), columns[0].Items[1].ID)
	assert.NotNil(t, columns[1].Items)
	assert.Empty(t, columns[1].Items)
	require.Len(t, columns[2].Items, 1)
}
