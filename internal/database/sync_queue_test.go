package database

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"villabook/internal/models"
)

func TestSyncQueue(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	task := &models.SyncTask{
		TaskType:   "upsert",
		EntityKind: "booking",
		EntityID:   7,
		Payload:    `{"booking_id":7}`,
		Status:     models.SyncStatusPending,
	}
	require.NoError(t, db.CreateSyncTask(ctx, task))
	require.NotZero(t, task.ID)

	pending, err := db.GetPendingSyncTasks(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "upsert", pending[0].TaskType)
	assert.Equal(t, "booking", pending[0].EntityKind)
	assert.Equal(t, int64(7), pending[0].EntityID)

	t.Run("RetryBumpsCountAndDelays", func(t *testing.T) {
		next := time.Now().Add(time.Hour)
		require.NoError(t, db.UpdateSyncTaskStatus(ctx, task.ID, models.SyncStatusRetry, "quota exceeded", &next))

		// Scheduled in the future, so not pending yet.
		pending, err := db.GetPendingSyncTasks(ctx, 10)
		require.NoError(t, err)
		assert.Empty(t, pending)

		past := time.Now().Add(-time.Minute)
		require.NoError(t, db.UpdateSyncTaskStatus(ctx, task.ID, models.SyncStatusRetry, "quota exceeded", &past))
		pending, err = db.GetPendingSyncTasks(ctx, 10)
		require.NoError(t, err)
		require.Len(t, pending, 1)
		assert.Equal(t, 2, pending[0].RetryCount)
	})

	t.Run("FailedLandsInDeadLetterList", func(t *testing.T) {
		require.NoError(t, db.UpdateSyncTaskStatus(ctx, task.ID, models.SyncStatusFailed, "gave up", nil))

		pending, err := db.GetPendingSyncTasks(ctx, 10)
		require.NoError(t, err)
		assert.Empty(t, pending)

		failed, err := db.GetFailedSyncTasks(ctx)
		require.NoError(t, err)
		require.Len(t, failed, 1)
		require.NotNil(t, failed[0].LastError)
		assert.Equal(t, "gave up", *failed[0].LastError)
		assert.NotNil(t, failed[0].ProcessedAt)
	})
}
