package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"villabook/internal/calendar"
	"villabook/internal/database"
	"villabook/internal/domain"
	"villabook/internal/events"
	"villabook/internal/metrics"
	"villabook/internal/models"
)

// ErrBookingTooFarAhead rejects bookings beyond the configured horizon.
var ErrBookingTooFarAhead = errors.New("booking date is too far in the future")

// BookingPolicy carries the configurable booking rules.
type BookingPolicy struct {
	// RequireSameClient forces morning and evening bookings on one date
	// to belong to the same client.
	RequireSameClient bool
	// MaxBookingDays limits how far ahead a booking may be created.
	// Zero means the default horizon.
	MaxBookingDays int
}

type BookingService struct {
	repo       domain.Repository
	eventBus   domain.EventPublisher
	syncWorker domain.SyncWorker
	statsCache domain.StatsCache
	policy     BookingPolicy
	logger     *zerolog.Logger
}

func NewBookingService(repo domain.Repository, eventBus domain.EventPublisher, syncWorker domain.SyncWorker, statsCache domain.StatsCache, policy BookingPolicy, logger *zerolog.Logger) *BookingService {
	if policy.MaxBookingDays <= 0 {
		policy.MaxBookingDays = models.MaxBookingDays
	}
	return &BookingService{
		repo:       repo,
		eventBus:   eventBus,
		syncWorker: syncWorker,
		statsCache: statsCache,
		policy:     policy,
		logger:     logger,
	}
}

// CreateBooking validates the request and inserts it. The availability
// check runs inside the repository transaction, so two concurrent requests
// for the same slot cannot both succeed.
func (s *BookingService) CreateBooking(ctx context.Context, booking *models.Booking) error {
	if err := booking.Validate(); err != nil {
		return err
	}

	horizon := time.Now().AddDate(0, 0, s.policy.MaxBookingDays)
	if booking.Date.After(horizon) {
		return ErrBookingTooFarAhead
	}

	err := s.repo.CreateBookingWithLock(ctx, booking, s.policy.RequireSameClient)
	if err != nil {
		if errors.Is(err, database.ErrSlotUnavailable) || errors.Is(err, database.ErrDifferentClient) {
			metrics.IncSlotConflict()
		}
		return err
	}

	metrics.IncBookingCreated()
	s.invalidateStats(ctx)
	s.publishBookingEvent(events.EventBookingCreated, booking)

	if s.syncWorker != nil {
		if err := s.syncWorker.EnqueueBookingUpsert(ctx, booking); err != nil {
			s.logger.Error().Err(err).Int64("booking_id", booking.ID).Msg("sheets enqueue error")
		}
	}

	return nil
}

// DeleteBooking removes a booking and fans out the deletion to the cache,
// event bus and sheets mirror. Returns database.ErrNotFound for unknown ids.
func (s *BookingService) DeleteBooking(ctx context.Context, id int64) error {
	booking, err := s.repo.GetBooking(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.DeleteBooking(ctx, id); err != nil {
		return err
	}

	s.invalidateStats(ctx)
	s.publishBookingEvent(events.EventBookingDeleted, booking)

	if s.syncWorker != nil {
		if err := s.syncWorker.EnqueueBookingDelete(ctx, id); err != nil {
			s.logger.Error().Err(err).Int64("booking_id", id).Msg("sheets enqueue error")
		}
	}

	return nil
}

func (s *BookingService) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	return s.repo.GetBooking(ctx, id)
}

func (s *BookingService) ListBookings(ctx context.Context) ([]*models.Booking, error) {
	return s.repo.GetAllBookings(ctx)
}

func (s *BookingService) BookingsForDate(ctx context.Context, date time.Time) ([]*models.Booking, error) {
	return s.repo.GetBookingsByDate(ctx, date)
}

// BookingsForMonth lists the bookings falling within a calendar month.
func (s *BookingService) BookingsForMonth(ctx context.Context, year int, month time.Month) ([]*models.Booking, error) {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)
	return s.repo.GetBookingsByDateRange(ctx, first, last)
}

// CheckAvailability answers the read-only availability question for a
// date/slot pair. The authoritative check still happens on create.
func (s *BookingService) CheckAvailability(ctx context.Context, date time.Time, slot models.SlotType) (bool, error) {
	if !slot.Valid() {
		return false, models.ErrInvalidSlotType
	}
	existing, err := s.repo.GetBookingsByDate(ctx, date)
	if err != nil {
		return false, err
	}
	return models.SlotAvailable(existing, slot), nil
}

// CalendarMonth builds the 42-cell grid for a month with each cell's
// bookings attached.
func (s *BookingService) CalendarMonth(ctx context.Context, year int, month time.Month) ([]calendar.Cell, error) {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)
	bookings, err := s.repo.GetBookingsByDateRange(ctx, first, last)
	if err != nil {
		return nil, err
	}
	return calendar.BuildGrid(year, month, bookings), nil
}

func (s *BookingService) publishBookingEvent(eventType string, booking *models.Booking) {
	if s.eventBus == nil {
		return
	}
	payload := events.BookingEventPayload{
		BookingID:   booking.ID,
		ClientName:  booking.ClientName,
		Date:        booking.Date,
		BookingType: string(booking.BookingType),
		Price:       booking.Price,
		IsFree:      booking.IsFree,
	}
	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Int64("booking_id", booking.ID).Msg("publish event error")
	}
}

func (s *BookingService) invalidateStats(ctx context.Context) {
	if s.statsCache == nil {
		return
	}
	if err := s.statsCache.Invalidate(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("stats cache invalidate error")
	}
}
