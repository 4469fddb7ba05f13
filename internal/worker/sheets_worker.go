package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"villabook/internal/database"
	"villabook/internal/domain"
	"villabook/internal/metrics"
	"villabook/internal/models"
)

const (
	TaskUpsert = "upsert"
	TaskDelete = "delete"

	KindBooking = "booking"
	KindExpense = "expense"
)

// taskPayload is persisted in SyncTask.Payload as JSON. Delete tasks carry
// only the id; upserts carry the full snapshot so the mirror does not have
// to re-read the store.
type taskPayload struct {
	Booking *models.Booking `json:"booking,omitempty"`
	Expense *models.Expense `json:"expense,omitempty"`
}

// SheetsWorker drains the sync_queue and applies each task to the
// spreadsheet mirror. Tasks are scheduled three ways, checked in order:
// an in-process channel for the fast path, a redis list so a restart does
// not lose hot tasks, and the sqlite table as the durable source of truth.
type SheetsWorker struct {
	db            *database.DB
	sheets        domain.SheetsWriter
	redis         *redis.Client
	retryPolicy   RetryPolicy
	queue         chan models.SyncTask
	redisQueueKey string
	deadLetterKey string
	pollInterval  time.Duration
	batchSize     int
	logger        *zerolog.Logger
}

func NewSheetsWorker(db *database.DB, sheets domain.SheetsWriter, redisClient *redis.Client, retry RetryPolicy, logger *zerolog.Logger) *SheetsWorker {
	if retry.MaxRetries == 0 {
		retry.MaxRetries = 5
	}
	if retry.InitialDelay == 0 {
		retry.InitialDelay = 2 * time.Second
	}
	if retry.MaxDelay == 0 {
		retry.MaxDelay = time.Minute
	}
	if retry.BackoffFactor == 0 {
		retry.BackoffFactor = 2
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	return &SheetsWorker{
		db:            db,
		sheets:        sheets,
		redis:         redisClient,
		retryPolicy:   retry,
		queue:         make(chan models.SyncTask, 128),
		redisQueueKey: "sheets:queue",
		deadLetterKey: "sheets:deadletter",
		pollInterval:  2 * time.Second,
		batchSize:     20,
		logger:        logger,
	}
}

func (w *SheetsWorker) EnqueueBookingUpsert(ctx context.Context, booking *models.Booking) error {
	if booking == nil || booking.ID == 0 {
		return errors.New("booking id is required")
	}
	return w.enqueue(ctx, TaskUpsert, KindBooking, booking.ID, taskPayload{Booking: booking})
}

func (w *SheetsWorker) EnqueueBookingDelete(ctx context.Context, id int64) error {
	if id == 0 {
		return errors.New("booking id is required")
	}
	return w.enqueue(ctx, TaskDelete, KindBooking, id, taskPayload{})
}

func (w *SheetsWorker) EnqueueExpenseUpsert(ctx context.Context, expense *models.Expense) error {
	if expense == nil || expense.ID == 0 {
		return errors.New("expense id is required")
	}
	return w.enqueue(ctx, TaskUpsert, KindExpense, expense.ID, taskPayload{Expense: expense})
}

func (w *SheetsWorker) EnqueueExpenseDelete(ctx context.Context, id int64) error {
	if id == 0 {
		return errors.New("expense id is required")
	}
	return w.enqueue(ctx, TaskDelete, KindExpense, id, taskPayload{})
}

// enqueue persists the task and hands it to the fastest available channel.
// The sqlite row stays pending until processTask marks it done, so a task
// pushed to redis can also be picked up by the DB poller: delivery is
// at-least-once and every task application must be idempotent.
func (w *SheetsWorker) enqueue(ctx context.Context, taskType, kind string, entityID int64, payload taskPayload) error {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}

	task := models.SyncTask{
		TaskType:   taskType,
		EntityKind: kind,
		EntityID:   entityID,
		Payload:    string(payloadBytes),
		Status:     models.SyncStatusPending,
	}

	if err := w.db.CreateSyncTask(ctx, &task); err != nil {
		return fmt.Errorf("persist sync task: %w", err)
	}

	// Redis first so the task survives a restart even before the poller
	// picks it up.
	if w.redis != nil {
		if err := w.pushRedis(ctx, task); err != nil {
			w.logger.Warn().Err(err).Int64("task_id", task.ID).Msg("redis push failed, fallback to memory queue")
		} else {
			return nil
		}
	}

	select {
	case w.queue <- task:
	default:
		// Очередь заполнена, задача останется для поллинга из БД
		w.logger.Warn().Int64("task_id", task.ID).Msg("in-memory queue full, task left to polling")
	}

	return nil
}

// Start launches the drain loop; stops when ctx is done.
func (w *SheetsWorker) Start(ctx context.Context) {
	w.logger.Info().Msg("sheets worker started")
	defer w.logger.Info().Msg("sheets worker stopped")

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if t, ok := w.tryLocalQueue(); ok {
			w.processTask(ctx, &t)
			continue
		}

		if t, ok := w.tryRedis(ctx); ok {
			w.processTask(ctx, &t)
			continue
		}

		tasks, err := w.db.GetPendingSyncTasks(ctx, w.batchSize)
		if err != nil {
			w.logger.Error().Err(err).Msg("fetch pending sync tasks")
			w.sleep(ctx)
			continue
		}
		if len(tasks) == 0 {
			w.sleep(ctx)
			continue
		}

		for i := range tasks {
			w.processTask(ctx, &tasks[i])
		}
	}
}

func (w *SheetsWorker) sleep(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-time.After(w.pollInterval):
	}
}

func (w *SheetsWorker) tryLocalQueue() (models.SyncTask, bool) {
	select {
	case t := <-w.queue:
		return t, true
	default:
		return models.SyncTask{}, false
	}
}

func (w *SheetsWorker) tryRedis(ctx context.Context) (models.SyncTask, bool) {
	if w.redis == nil {
		return models.SyncTask{}, false
	}
	res, err := w.redis.BRPop(ctx, time.Second, w.redisQueueKey).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) && !errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, context.Canceled) {
			w.logger.Error().Err(err).Msg("redis BRPOP error")
		}
		return models.SyncTask{}, false
	}
	if len(res) != 2 {
		return models.SyncTask{}, false
	}
	var task models.SyncTask
	if err := json.Unmarshal([]byte(res[1]), &task); err != nil {
		w.logger.Error().Err(err).Msg("decode redis task")
		return models.SyncTask{}, false
	}
	return task, true
}

func (w *SheetsWorker) processTask(ctx context.Context, task *models.SyncTask) {
	var payload taskPayload
	if err := json.Unmarshal([]byte(task.Payload), &payload); err != nil {
		w.failTask(ctx, task, fmt.Errorf("decode payload: %w", err))
		return
	}

	if err := w.apply(ctx, task, payload); err != nil {
		w.retryOrFail(ctx, task, err)
		return
	}

	metrics.IncSyncTask(models.SyncStatusDone)
	if err := w.db.UpdateSyncTaskStatus(ctx, task.ID, models.SyncStatusDone, "", nil); err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("mark task done")
	}
}

func (w *SheetsWorker) apply(ctx context.Context, task *models.SyncTask, payload taskPayload) error {
	switch {
	case task.EntityKind == KindBooking && task.TaskType == TaskUpsert:
		if payload.Booking == nil {
			return errors.New("booking payload missing")
		}
		return w.sheets.UpsertBooking(ctx, payload.Booking)
	case task.EntityKind == KindBooking && task.TaskType == TaskDelete:
		return w.sheets.DeleteBookingRow(ctx, task.EntityID)
	case task.EntityKind == KindExpense && task.TaskType == TaskUpsert:
		if payload.Expense == nil {
			return errors.New("expense payload missing")
		}
		return w.sheets.UpsertExpense(ctx, payload.Expense)
	case task.EntityKind == KindExpense && task.TaskType == TaskDelete:
		return w.sheets.DeleteExpenseRow(ctx, task.EntityID)
	default:
		return fmt.Errorf("unknown task: %s/%s", task.EntityKind, task.TaskType)
	}
}

func (w *SheetsWorker) retryOrFail(ctx context.Context, task *models.SyncTask, cause error) {
	attempt := task.RetryCount + 1
	if attempt >= w.retryPolicy.MaxRetries {
		w.failTask(ctx, task, cause)
		return
	}

	metrics.IncSyncTask(models.SyncStatusRetry)
	nextTime := time.Now().Add(w.retryPolicy.NextDelay(attempt))
	if err := w.db.UpdateSyncTaskStatus(ctx, task.ID, models.SyncStatusRetry, cause.Error(), &nextTime); err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("mark task retry")
	}
}

func (w *SheetsWorker) failTask(ctx context.Context, task *models.SyncTask, cause error) {
	metrics.IncSyncTask(models.SyncStatusFailed)
	w.logger.Error().Err(cause).Int64("task_id", task.ID).Str("kind", task.EntityKind).Msg("sync task failed")
	if err := w.db.UpdateSyncTaskStatus(ctx, task.ID, models.SyncStatusFailed, cause.Error(), nil); err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("mark task failed")
	}
	w.pushDeadLetter(ctx, task)
}

func (w *SheetsWorker) pushRedis(ctx context.Context, task models.SyncTask) error {
	data, err := json.Marshal(task)
	if err != nil {
		return err
	}
	return w.redis.LPush(ctx, w.redisQueueKey, data).Err()
}

func (w *SheetsWorker) pushDeadLetter(ctx context.Context, task *models.SyncTask) {
	if w.redis == nil {
		return
	}
	data, err := json.Marshal(task)
	if err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("encode deadletter task")
		return
	}
	if err := w.redis.LPush(ctx, w.deadLetterKey, data).Err(); err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("deadletter push")
	}
}
