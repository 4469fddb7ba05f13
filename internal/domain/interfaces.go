package domain

import (
	"context"
	"time"

	"villabook/internal/models"
	"villabook/internal/stats"
)

// Repository is the store contract the services consume. The sqlite
// implementation lives in internal/database; tests substitute mocks.
type Repository interface {
	GetAllBookings(ctx context.Context) ([]*models.Booking, error)
	GetBookingsByDate(ctx context.Context, date time.Time) ([]*models.Booking, error)
	GetBookingsByDateRange(ctx context.Context, start, end time.Time) ([]*models.Booking, error)
	GetBooking(ctx context.Context, id int64) (*models.Booking, error)
	CreateBookingWithLock(ctx context.Context, booking *models.Booking, requireSameClient bool) error
	DeleteBooking(ctx context.Context, id int64) error

	GetAllExpenses(ctx context.Context) ([]*models.Expense, error)
	GetExpense(ctx context.Context, id int64) (*models.Expense, error)
	CreateExpense(ctx context.Context, expense *models.Expense) error
	UpdateExpense(ctx context.Context, expense *models.Expense) error
	DeleteExpense(ctx context.Context, id int64) error
}

// SessionRepository stores PIN-gate sessions and throttles PIN attempts.
type SessionRepository interface {
	CreateSession(ctx context.Context, token string, ttl time.Duration) error
	SessionExists(ctx context.Context, token string) (bool, error)
	DeleteSession(ctx context.Context, token string) error
	CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// StatsCache holds recently computed monthly aggregates. It is a pure
// read-through cache: every mutation invalidates it wholesale and the next
// read recomputes from a full store snapshot.
type StatsCache interface {
	GetMonthly(ctx context.Context, monthKey string) (*stats.Monthly, error)
	SetMonthly(ctx context.Context, monthly stats.Monthly, ttl time.Duration) error
	Invalidate(ctx context.Context) error
}

// EventPublisher decouples the services from their observers.
type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

// SyncWorker schedules spreadsheet mirror jobs.
type SyncWorker interface {
	EnqueueBookingUpsert(ctx context.Context, booking *models.Booking) error
	EnqueueBookingDelete(ctx context.Context, id int64) error
	EnqueueExpenseUpsert(ctx context.Context, expense *models.Expense) error
	EnqueueExpenseDelete(ctx context.Context, id int64) error
}

// SheetsWriter is the spreadsheet backend the sync worker drives.
type SheetsWriter interface {
	UpsertBooking(ctx context.Context, booking *models.Booking) error
	DeleteBookingRow(ctx context.Context, bookingID int64) error
	UpsertExpense(ctx context.Context, expense *models.Expense) error
	DeleteExpenseRow(ctx context.Context, expenseID int64) error
}

// Notifier delivers owner notifications about booking changes.
type Notifier interface {
	BookingCreated(booking *models.Booking)
	BookingDeleted(booking *models.Booking)
}
