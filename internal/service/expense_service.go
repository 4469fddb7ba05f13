package service

import (
	"context"

	"github.com/rs/zerolog"

	"villabook/internal/domain"
	"villabook/internal/events"
	"villabook/internal/metrics"
	"villabook/internal/models"
)

type ExpenseService struct {
	repo       domain.Repository
	eventBus   domain.EventPublisher
	syncWorker domain.SyncWorker
	statsCache domain.StatsCache
	logger     *zerolog.Logger
}

func NewExpenseService(repo domain.Repository, eventBus domain.EventPublisher, syncWorker domain.SyncWorker, statsCache domain.StatsCache, logger *zerolog.Logger) *ExpenseService {
	return &ExpenseService{
		repo:       repo,
		eventBus:   eventBus,
		syncWorker: syncWorker,
		statsCache: statsCache,
		logger:     logger,
	}
}

func (s *ExpenseService) CreateExpense(ctx context.Context, expense *models.Expense) error {
	if err := expense.Validate(); err != nil {
		return err
	}
	if err := s.repo.CreateExpense(ctx, expense); err != nil {
		return err
	}

	metrics.IncExpenseWritten()
	s.invalidateStats(ctx)
	s.publishExpenseEvent(events.EventExpenseCreated, expense)
	s.enqueueUpsert(ctx, expense)
	return nil
}

// UpdateExpense replaces the whole record. Returns database.ErrNotFound
// when the id does not exist.
func (s *ExpenseService) UpdateExpense(ctx context.Context, expense *models.Expense) error {
	if err := expense.Validate(); err != nil {
		return err
	}
	if err := s.repo.UpdateExpense(ctx, expense); err != nil {
		return err
	}

	metrics.IncExpenseWritten()
	s.invalidateStats(ctx)
	s.publishExpenseEvent(events.EventExpenseUpdated, expense)
	s.enqueueUpsert(ctx, expense)
	return nil
}

func (s *ExpenseService) DeleteExpense(ctx context.Context, id int64) error {
	expense, err := s.repo.GetExpense(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteExpense(ctx, id); err != nil {
		return err
	}

	s.invalidateStats(ctx)
	s.publishExpenseEvent(events.EventExpenseDeleted, expense)

	if s.syncWorker != nil {
		if err := s.syncWorker.EnqueueExpenseDelete(ctx, id); err != nil {
			s.logger.Error().Err(err).Int64("expense_id", id).Msg("sheets enqueue error")
		}
	}
	return nil
}

func (s *ExpenseService) GetExpense(ctx context.Context, id int64) (*models.Expense, error) {
	return s.repo.GetExpense(ctx, id)
}

func (s *ExpenseService) ListExpenses(ctx context.Context) ([]*models.Expense, error) {
	return s.repo.GetAllExpenses(ctx)
}

func (s *ExpenseService) enqueueUpsert(ctx context.Context, expense *models.Expense) {
	if s.syncWorker == nil {
		return
	}
	if err := s.syncWorker.EnqueueExpenseUpsert(ctx, expense); err != nil {
		s.logger.Error().Err(err).Int64("expense_id", expense.ID).Msg("sheets enqueue error")
	}
}

func (s *ExpenseService) publishExpenseEvent(eventType string, expense *models.Expense) {
	if s.eventBus == nil {
		return
	}
	payload := events.ExpenseEventPayload{
		ExpenseID: expense.ID,
		Title:     expense.Title,
		Amount:    expense.Amount,
		Category:  string(expense.Category),
		Date:      expense.Date,
	}
	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Int64("expense_id", expense.ID).Msg("publish event error")
	}
}

func (s *ExpenseService) invalidateStats(ctx context.Context) {
	if s.statsCache == nil {
		return
	}
	if err := s.statsCache.Invalidate(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("stats cache invalidate error")
	}
}
