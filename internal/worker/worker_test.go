package worker

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"villabook/internal/database"
	"villabook/internal/models"
)

type fakeSheets struct {
	err                error
	bookingUpserts     int
	bookingDeletes     int
	expenseUpserts     int
	expenseDeletes     int
	lastBooking        *models.Booking
	lastExpense        *models.Expense
	lastDeletedBooking int64
	lastDeletedExpense int64
}

func (f *fakeSheets) UpsertBooking(ctx context.Context, b *models.Booking) error {
	f.bookingUpserts++
	f.lastBooking = b
	return f.err
}

func (f *fakeSheets) DeleteBookingRow(ctx context.Context, id int64) error {
	f.bookingDeletes++
	f.lastDeletedBooking = id
	return f.err
}

func (f *fakeSheets) UpsertExpense(ctx context.Context, e *models.Expense) error {
	f.expenseUpserts++
	f.lastExpense = e
	return f.err
}

func (f *fakeSheets) DeleteExpenseRow(ctx context.Context, id int64) error {
	f.expenseDeletes++
	f.lastDeletedExpense = id
	return f.err
}

func newTestDB(t *testing.T) *database.DB {
	t.Helper()
	logger := zerolog.Nop()
	db, err := database.NewDB(":memory:", &logger)
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func loadTaskStatus(t *testing.T, db *database.DB, id int64) (string, int, sql.NullTime) {
	t.Helper()
	var (
		status     string
		retryCount int
		nextRetry  sql.NullTime
	)
	err := db.QueryRow(`SELECT status, retry_count, next_retry_at FROM sync_queue WHERE id = ?`, id).
		Scan(&status, &retryCount, &nextRetry)
	if err != nil {
		t.Fatalf("load task: %v", err)
	}
	return status, retryCount, nextRetry
}

func testBooking(id int64) *models.Booking {
	return &models.Booking{
		ID:          id,
		ClientName:  "tester",
		Date:        time.Date(2026, 7, 10, 0, 0, 0, 0, time.UTC),
		BookingType: models.SlotMorning,
		Price:       150,
		CreatedAt:   time.Now(),
	}
}

func TestProcessTaskSuccess(t *testing.T) {
	db := newTestDB(t)
	sheets := &fakeSheets{}
	w := NewSheetsWorker(db, sheets, nil, RetryPolicy{}, nil)

	ctx := context.Background()
	if err := w.EnqueueBookingUpsert(ctx, testBooking(1)); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	task, ok := w.tryLocalQueue()
	if !ok {
		t.Fatalf("expected task in local queue")
	}
	w.processTask(ctx, &task)

	status, retryCount, nextRetry := loadTaskStatus(t, db, task.ID)
	if status != models.SyncStatusDone {
		t.Fatalf("expected status=done, got %s", status)
	}
	if retryCount != 0 {
		t.Fatalf("expected retry_count=0, got %d", retryCount)
	}
	if nextRetry.Valid {
		t.Fatalf("expected next_retry_at NULL on success")
	}
	if sheets.bookingUpserts != 1 {
		t.Fatalf("expected one upsert call, got %d", sheets.bookingUpserts)
	}
	if sheets.lastBooking == nil || sheets.lastBooking.ClientName != "tester" {
		t.Fatalf("payload did not round-trip: %+v", sheets.lastBooking)
	}
}

func TestProcessTaskRetry(t *testing.T) {
	db := newTestDB(t)
	sheets := &fakeSheets{err: errors.New("boom")}
	w := NewSheetsWorker(db, sheets, nil, RetryPolicy{MaxRetries: 3, InitialDelay: time.Second}, nil)

	ctx := context.Background()
	if err := w.EnqueueBookingUpsert(ctx, testBooking(2)); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	task, ok := w.tryLocalQueue()
	if !ok {
		t.Fatalf("expected task in local queue")
	}
	w.processTask(ctx, &task)

	status, retryCount, nextRetry := loadTaskStatus(t, db, task.ID)
	if status != models.SyncStatusRetry {
		t.Fatalf("expected status=retry, got %s", status)
	}
	if retryCount != 1 {
		t.Fatalf("expected retry_count=1, got %d", retryCount)
	}
	if !nextRetry.Valid || nextRetry.Time.Before(time.Now()) {
		t.Fatalf("expected next_retry_at in future, got %v", nextRetry)
	}
}

func TestProcessTaskFail(t *testing.T) {
	db := newTestDB(t)
	sheets := &fakeSheets{err: errors.New("fatal")}
	w := NewSheetsWorker(db, sheets, nil, RetryPolicy{MaxRetries: 1}, nil)

	ctx := context.Background()
	if err := w.EnqueueExpenseDelete(ctx, 9); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	task, _ := w.tryLocalQueue()
	w.processTask(ctx, &task)

	status, _, _ := loadTaskStatus(t, db, task.ID)
	if status != models.SyncStatusFailed {
		t.Fatalf("expected status=failed, got %s", status)
	}
	if sheets.lastDeletedExpense != 9 {
		t.Fatalf("expected delete for id 9, got %d", sheets.lastDeletedExpense)
	}
}

func TestExpenseUpsertRoundTrip(t *testing.T) {
	db := newTestDB(t)
	sheets := &fakeSheets{}
	w := NewSheetsWorker(db, sheets, nil, RetryPolicy{}, nil)

	expense := &models.Expense{
		ID:       4,
		Title:    "Electricity",
		Amount:   90,
		Category: models.CategoryUtilities,
		Date:     time.Date(2026, 7, 3, 0, 0, 0, 0, time.UTC),
	}

	ctx := context.Background()
	if err := w.EnqueueExpenseUpsert(ctx, expense); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	task, _ := w.tryLocalQueue()
	w.processTask(ctx, &task)

	if sheets.expenseUpserts != 1 {
		t.Fatalf("expected one expense upsert, got %d", sheets.expenseUpserts)
	}
	if sheets.lastExpense.Title != "Electricity" {
		t.Fatalf("payload did not round-trip: %+v", sheets.lastExpense)
	}
}

func TestEnqueueRejectsMissingID(t *testing.T) {
	db := newTestDB(t)
	w := NewSheetsWorker(db, &fakeSheets{}, nil, RetryPolicy{}, nil)

	ctx := context.Background()
	if err := w.EnqueueBookingUpsert(ctx, &models.Booking{}); err == nil {
		t.Fatal("expected error for booking without id")
	}
	if err := w.EnqueueBookingDelete(ctx, 0); err == nil {
		t.Fatal("expected error for zero booking id")
	}
	if err := w.EnqueueExpenseUpsert(ctx, nil); err == nil {
		t.Fatal("expected error for nil expense")
	}
}

func TestRetryPolicyNextDelay(t *testing.T) {
	p := RetryPolicy{MaxRetries: 5, InitialDelay: time.Second, MaxDelay: 10 * time.Second, BackoffFactor: 2}

	if d := p.NextDelay(1); d != time.Second {
		t.Fatalf("attempt 1: expected 1s, got %v", d)
	}
	if d := p.NextDelay(3); d != 4*time.Second {
		t.Fatalf("attempt 3: expected 4s, got %v", d)
	}
	if d := p.NextDelay(10); d != 10*time.Second {
		t.Fatalf("attempt 10: expected clamp to 10s, got %v", d)
	}
	if d := p.NextDelay(0); d != time.Second {
		t.Fatalf("attempt 0: expected 1s, got %v", d)
	}

	zero := RetryPolicy{}
	if d := zero.NextDelay(2); d != 2*time.Second {
		t.Fatalf("zero policy attempt 2: expected 2s, got %v", d)
	}
}
