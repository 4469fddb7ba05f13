// Package api exposes the booking, expense and stats operations over
// HTTP. Everything except the PIN endpoint and the health check sits
// behind a session token minted by the PIN gate.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"villabook/internal/config"
	"villabook/internal/database"
	"villabook/internal/export"
	"villabook/internal/service"
)

type Server struct {
	cfg      config.ServerConfig
	auth     *service.AuthService
	bookings *service.BookingService
	expenses *service.ExpenseService
	stats    *service.StatsService
	reporter *export.Reporter
	db       *database.DB
	server   *http.Server
	logger   *zerolog.Logger
}

func NewServer(
	cfg config.ServerConfig,
	auth *service.AuthService,
	bookings *service.BookingService,
	expenses *service.ExpenseService,
	stats *service.StatsService,
	reporter *export.Reporter,
	db *database.DB,
	logger *zerolog.Logger,
) *Server {
	s := &Server{
		cfg:      cfg,
		auth:     auth,
		bookings: bookings,
		expenses: expenses,
		stats:    stats,
		reporter: reporter,
		db:       db,
		logger:   logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/api/v1/auth/pin", s.handleAuth)
	mux.HandleFunc("/api/v1/bookings", s.handleBookings)
	mux.HandleFunc("/api/v1/bookings/", s.handleBookingSubpath)
	mux.HandleFunc("/api/v1/availability", s.handleAvailability)
	mux.HandleFunc("/api/v1/calendar/", s.handleCalendar)
	mux.HandleFunc("/api/v1/expenses", s.handleExpenses)
	mux.HandleFunc("/api/v1/expenses/", s.handleExpenseByID)
	mux.HandleFunc("/api/v1/stats", s.handleStats)
	mux.HandleFunc("/api/v1/stats/", s.handleStatsMonth)
	mux.HandleFunc("/api/v1/reports/", s.handleReport)

	limiter := newRateLimiter(cfg.RateLimit)
	handler := requestIDMiddleware(
		s.accessLogMiddleware(
			metricsMiddleware(
				limiter.wrap(
					s.sessionMiddleware(mux)))))

	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	return s
}

func (s *Server) Start() error {
	if s.server == nil {
		return fmt.Errorf("http server is not initialized")
	}
	s.logger.Info().Str("addr", s.server.Addr).Msg("http api listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Handler exposes the full middleware chain, used by httptest.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}
