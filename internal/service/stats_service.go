package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"villabook/internal/domain"
	"villabook/internal/models"
	"villabook/internal/stats"
)

type StatsService struct {
	repo     domain.Repository
	cache    domain.StatsCache
	cacheTTL time.Duration
	logger   *zerolog.Logger
}

func NewStatsService(repo domain.Repository, cache domain.StatsCache, cacheTTL time.Duration, logger *zerolog.Logger) *StatsService {
	if cacheTTL <= 0 {
		cacheTTL = time.Duration(models.StatsCacheTTL) * time.Second
	}
	return &StatsService{
		repo:     repo,
		cache:    cache,
		cacheTTL: cacheTTL,
		logger:   logger,
	}
}

// MonthlyStats returns the aggregate for one month, reading through the
// cache. Cache failures are logged and ignored; the store stays the source
// of truth.
func (s *StatsService) MonthlyStats(ctx context.Context, year int, month time.Month) (stats.Monthly, error) {
	key := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).Format("2006-01")

	if s.cache != nil {
		cached, err := s.cache.GetMonthly(ctx, key)
		if err != nil {
			s.logger.Warn().Err(err).Str("month", key).Msg("stats cache read error")
		} else if cached != nil {
			return *cached, nil
		}
	}

	bookings, expenses, err := s.snapshot(ctx)
	if err != nil {
		return stats.Monthly{}, err
	}

	monthly := stats.ForMonth(bookings, expenses, year, month)

	if s.cache != nil {
		if err := s.cache.SetMonthly(ctx, monthly, s.cacheTTL); err != nil {
			s.logger.Warn().Err(err).Str("month", key).Msg("stats cache write error")
		}
	}
	return monthly, nil
}

// AllMonths aggregates every month that has at least one booking or
// expense, ascending. Always computed fresh; the per-month cache only
// serves the hot single-month endpoint.
func (s *StatsService) AllMonths(ctx context.Context) ([]stats.Monthly, error) {
	bookings, expenses, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return stats.ByMonth(bookings, expenses), nil
}

func (s *StatsService) snapshot(ctx context.Context) ([]*models.Booking, []*models.Expense, error) {
	bookings, err := s.repo.GetAllBookings(ctx)
	if err != nil {
		return nil, nil, err
	}
	expenses, err := s.repo.GetAllExpenses(ctx)
	if err != nil {
		return nil, nil, err
	}
	return bookings, expenses, nil
}
