package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"villabook/internal/database"
	"villabook/internal/events"
	"villabook/internal/models"
)

func TestExpenseService_CreateExpense(t *testing.T) {
	ctx := context.Background()
	date := time.Date(2026, time.July, 3, 0, 0, 0, 0, time.UTC)

	t.Run("Success", func(t *testing.T) {
		repo := new(mockRepo)
		worker := new(mockSyncWorker)
		cache := new(mockStatsCache)
		bus := events.NewEventBus()

		var seen []string
		bus.Subscribe(events.EventExpenseCreated, func(e *events.Event) error {
			seen = append(seen, e.Type)
			return nil
		})

		repo.On("CreateExpense", ctx, mock.AnythingOfType("*models.Expense")).Return(nil)
		cache.On("Invalidate", ctx).Return(nil)
		worker.On("EnqueueExpenseUpsert", ctx, mock.AnythingOfType("*models.Expense")).Return(nil)

		svc := NewExpenseService(repo, bus, worker, cache, testLogger())
		expense := &models.Expense{Title: "Pool pump repair", Amount: 220, Category: models.CategoryMaintenance, Date: date}
		require.NoError(t, svc.CreateExpense(ctx, expense))
		assert.Equal(t, []string{events.EventExpenseCreated}, seen)
		repo.AssertExpectations(t)
		worker.AssertExpectations(t)
	})

	t.Run("EmptyCategoryDefaultsToOther", func(t *testing.T) {
		repo := new(mockRepo)
		repo.On("CreateExpense", ctx, mock.MatchedBy(func(e *models.Expense) bool {
			return e.Category == models.CategoryOther
		})).Return(nil)

		svc := NewExpenseService(repo, nil, nil, nil, testLogger())
		require.NoError(t, svc.CreateExpense(ctx, &models.Expense{Title: "Misc", Amount: 10, Date: date}))
		repo.AssertExpectations(t)
	})

	t.Run("ValidationError", func(t *testing.T) {
		repo := new(mockRepo)
		svc := NewExpenseService(repo, nil, nil, nil, testLogger())
		err := svc.CreateExpense(ctx, &models.Expense{Title: "", Amount: 10, Date: date})
		assert.ErrorIs(t, err, models.ErrEmptyTitle)
		repo.AssertNotCalled(t, "CreateExpense", mock.Anything, mock.Anything)
	})
}

func TestExpenseService_UpdateExpense(t *testing.T) {
	ctx := context.Background()
	date := time.Date(2026, time.July, 3, 0, 0, 0, 0, time.UTC)

	t.Run("Success", func(t *testing.T) {
		repo := new(mockRepo)
		cache := new(mockStatsCache)
		repo.On("UpdateExpense", ctx, mock.AnythingOfType("*models.Expense")).Return(nil)
		cache.On("Invalidate", ctx).Return(nil)

		svc := NewExpenseService(repo, nil, nil, cache, testLogger())
		expense := &models.Expense{ID: 3, Title: "Electricity", Amount: 90, Category: models.CategoryUtilities, Date: date}
		require.NoError(t, svc.UpdateExpense(ctx, expense))
		cache.AssertExpectations(t)
	})

	t.Run("NotFound", func(t *testing.T) {
		repo := new(mockRepo)
		repo.On("UpdateExpense", ctx, mock.AnythingOfType("*models.Expense")).Return(database.ErrNotFound)

		svc := NewExpenseService(repo, nil, nil, nil, testLogger())
		err := svc.UpdateExpense(ctx, &models.Expense{ID: 99, Title: "Ghost", Amount: 1, Date: date})
		assert.ErrorIs(t, err, database.ErrNotFound)
	})
}

func TestExpenseService_DeleteExpense(t *testing.T) {
	ctx := context.Background()
	date := time.Date(2026, time.July, 3, 0, 0, 0, 0, time.UTC)
	expense := &models.Expense{ID: 5, Title: "Cleaning", Amount: 60, Category: models.CategoryCleaning, Date: date}

	repo := new(mockRepo)
	worker := new(mockSyncWorker)
	cache := new(mockStatsCache)

	repo.On("GetExpense", ctx, int64(5)).Return(expense, nil)
	repo.On("DeleteExpense", ctx, int64(5)).Return(nil)
	cache.On("Invalidate", ctx).Return(nil)
	worker.On("EnqueueExpenseDelete", ctx, int64(5)).Return(nil)

	svc := NewExpenseService(repo, nil, worker, cache, testLogger())
	require.NoError(t, svc.DeleteExpense(ctx, 5))
	repo.AssertExpectations(t)
	worker.AssertExpectations(t)
}
