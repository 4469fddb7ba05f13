package service

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"villabook/internal/models"
	"villabook/internal/stats"
)

type mockRepo struct {
	mock.Mock
}

func (m *mockRepo) GetAllBookings(ctx context.Context) ([]*models.Booking, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Booking), args.Error(1)
}
func (m *mockRepo) GetBookingsByDate(ctx context.Context, date time.Time) ([]*models.Booking, error) {
	args := m.Called(ctx, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Booking), args.Error(1)
}
func (m *mockRepo) GetBookingsByDateRange(ctx context.Context, start, end time.Time) ([]*models.Booking, error) {
	args := m.Called(ctx, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Booking), args.Error(1)
}
func (m *mockRepo) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Booking), args.Error(1)
}
func (m *mockRepo) CreateBookingWithLock(ctx context.Context, b *models.Booking, requireSameClient bool) error {
	return m.Called(ctx, b, requireSameClient).Error(0)
}
func (m *mockRepo) DeleteBooking(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}
func (m *mockRepo) GetAllExpenses(ctx context.Context) ([]*models.Expense, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Expense), args.Error(1)
}
func (m *mockRepo) GetExpense(ctx context.Context, id int64) (*models.Expense, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Expense), args.Error(1)
}
func (m *mockRepo) CreateExpense(ctx context.Context, e *models.Expense) error {
	return m.Called(ctx, e).Error(0)
}
func (m *mockRepo) UpdateExpense(ctx context.Context, e *models.Expense) error {
	return m.Called(ctx, e).Error(0)
}
func (m *mockRepo) DeleteExpense(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

type mockSyncWorker struct {
	mock.Mock
}

func (m *mockSyncWorker) EnqueueBookingUpsert(ctx context.Context, b *models.Booking) error {
	return m.Called(ctx, b).Error(0)
}
func (m *mockSyncWorker) EnqueueBookingDelete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}
func (m *mockSyncWorker) EnqueueExpenseUpsert(ctx context.Context, e *models.Expense) error {
	return m.Called(ctx, e).Error(0)
}
func (m *mockSyncWorker) EnqueueExpenseDelete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

type mockStatsCache struct {
	mock.Mock
}

func (m *mockStatsCache) GetMonthly(ctx context.Context, monthKey string) (*stats.Monthly, error) {
	args := m.Called(ctx, monthKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*stats.Monthly), args.Error(1)
}
func (m *mockStatsCache) SetMonthly(ctx context.Context, monthly stats.Monthly, ttl time.Duration) error {
	return m.Called(ctx, monthly, ttl).Error(0)
}
func (m *mockStatsCache) Invalidate(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

type mockSessions struct {
	mock.Mock
}

func (m *mockSessions) CreateSession(ctx context.Context, token string, ttl time.Duration) error {
	return m.Called(ctx, token, ttl).Error(0)
}
func (m *mockSessions) SessionExists(ctx context.Context, token string) (bool, error) {
	args := m.Called(ctx, token)
	return args.Bool(0), args.Error(1)
}
func (m *mockSessions) DeleteSession(ctx context.Context, token string) error {
	return m.Called(ctx, token).Error(0)
}
func (m *mockSessions) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	args := m.Called(ctx, key, limit, window)
	return args.Bool(0), args.Error(1)
}
