package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"villabook/internal/database"
	"villabook/internal/models"
	"villabook/internal/service"
)

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

// writeServiceError maps domain errors onto HTTP status codes.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, database.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, database.ErrSlotUnavailable),
		errors.Is(err, database.ErrDifferentClient):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrBookingTooFarAhead),
		errors.Is(err, models.ErrEmptyClientName),
		errors.Is(err, models.ErrInvalidSlotType),
		errors.Is(err, models.ErrNegativePrice),
		errors.Is(err, models.ErrZeroDate),
		errors.Is(err, models.ErrEmptyTitle),
		errors.Is(err, models.ErrInvalidCategory),
		errors.Is(err, models.ErrNegativeAmount):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func parseDateParam(raw string) (time.Time, error) {
	return time.Parse("2006-01-02", strings.TrimSpace(raw))
}

func parseMonthParam(raw string) (int, time.Month, error) {
	t, err := time.Parse("2006-01", strings.TrimSpace(raw))
	if err != nil {
		return 0, 0, err
	}
	return t.Year(), t.Month(), nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if !s.db.Healthy() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleAuth(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		var body struct {
			PIN string `json:"pin"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}

		token, err := s.auth.Login(r.Context(), body.PIN, clientIP(r))
		if err != nil {
			switch {
			case errors.Is(err, service.ErrTooManyAttempts):
				writeError(w, http.StatusTooManyRequests, err.Error())
			case errors.Is(err, service.ErrInvalidPIN):
				writeError(w, http.StatusUnauthorized, err.Error())
			default:
				writeError(w, http.StatusInternalServerError, "login failed")
			}
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"token": token})

	case http.MethodDelete:
		if err := s.auth.Logout(r.Context(), bearerToken(r)); err != nil {
			writeError(w, http.StatusInternalServerError, "logout failed")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "logged_out"})

	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

type bookingRequest struct {
	ClientName  string  `json:"client_name"`
	Date        string  `json:"date"`
	BookingType string  `json:"booking_type"`
	Price       float64 `json:"price"`
	IsFree      bool    `json:"is_free"`
	Notes       string  `json:"notes"`
	Phone       string  `json:"phone"`
}

func (s *Server) handleBookings(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		var (
			bookings []*models.Booking
			err      error
		)
		if monthStr := r.URL.Query().Get("month"); monthStr != "" {
			year, month, parseErr := parseMonthParam(monthStr)
			if parseErr != nil {
				writeError(w, http.StatusBadRequest, "invalid month format; expected YYYY-MM")
				return
			}
			bookings, err = s.bookings.BookingsForMonth(r.Context(), year, month)
		} else {
			bookings, err = s.bookings.ListBookings(r.Context())
		}
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"bookings": bookings})

	case http.MethodPost:
		var body bookingRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}

		date, err := parseDateParam(body.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid date format; expected YYYY-MM-DD")
			return
		}

		booking := &models.Booking{
			ClientName:  body.ClientName,
			Date:        date,
			BookingType: models.SlotType(body.BookingType),
			Price:       body.Price,
			IsFree:      body.IsFree,
			Notes:       body.Notes,
			Phone:       body.Phone,
		}
		if err := s.bookings.CreateBooking(r.Context(), booking); err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, booking)

	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// handleBookingSubpath routes /api/v1/bookings/{id} and
// /api/v1/bookings/date/{date}.
func (s *Server) handleBookingSubpath(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/v1/bookings/")

	if dateStr, ok := strings.CutPrefix(rest, "date/"); ok {
		s.handleBookingsByDate(w, r, dateStr)
		return
	}

	id, err := strconv.ParseInt(rest, 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid booking id")
		return
	}

	switch r.Method {
	case http.MethodGet:
		booking, err := s.bookings.GetBooking(r.Context(), id)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, booking)

	case http.MethodDelete:
		if err := s.bookings.DeleteBooking(r.Context(), id); err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})

	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handleBookingsByDate(w http.ResponseWriter, r *http.Request, dateStr string) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	date, err := parseDateParam(dateStr)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date format; expected YYYY-MM-DD")
		return
	}

	bookings, err := s.bookings.BookingsForDate(r.Context(), date)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"bookings": bookings})
}

func (s *Server) handleAvailability(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	dateStr := r.URL.Query().Get("date")
	if dateStr == "" {
		writeError(w, http.StatusBadRequest, "date is required")
		return
	}
	date, err := parseDateParam(dateStr)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date format; expected YYYY-MM-DD")
		return
	}

	slot := models.SlotType(strings.TrimSpace(r.URL.Query().Get("type")))
	if slot == "" {
		writeError(w, http.StatusBadRequest, "type is required")
		return
	}

	available, err := s.bookings.CheckAvailability(r.Context(), date, slot)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"date":         date.Format("2006-01-02"),
		"booking_type": slot,
		"available":    available,
	})
}

func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	monthStr := strings.TrimPrefix(r.URL.Path, "/api/v1/calendar/")
	year, month, err := parseMonthParam(monthStr)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid month format; expected YYYY-MM")
		return
	}

	cells, err := s.bookings.CalendarMonth(r.Context(), year, month)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"month": monthStr,
		"cells": cells,
	})
}

type expenseRequest struct {
	Title    string  `json:"title"`
	Amount   float64 `json:"amount"`
	Category string  `json:"category"`
	Date     string  `json:"date"`
	Notes    string  `json:"notes"`
}

func (s *Server) handleExpenses(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		expenses, err := s.expenses.ListExpenses(r.Context())
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"expenses": expenses})

	case http.MethodPost:
		expense, ok := s.decodeExpense(w, r, 0)
		if !ok {
			return
		}
		if err := s.expenses.CreateExpense(r.Context(), expense); err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, expense)

	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handleExpenseByID(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/v1/expenses/")
	id, err := strconv.ParseInt(rest, 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid expense id")
		return
	}

	switch r.Method {
	case http.MethodGet:
		expense, err := s.expenses.GetExpense(r.Context(), id)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, expense)

	case http.MethodPut:
		expense, ok := s.decodeExpense(w, r, id)
		if !ok {
			return
		}
		if err := s.expenses.UpdateExpense(r.Context(), expense); err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, expense)

	case http.MethodDelete:
		if err := s.expenses.DeleteExpense(r.Context(), id); err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})

	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) decodeExpense(w http.ResponseWriter, r *http.Request, id int64) (*models.Expense, bool) {
	var body expenseRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return nil, false
	}

	date, err := parseDateParam(body.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date format; expected YYYY-MM-DD")
		return nil, false
	}

	return &models.Expense{
		ID:       id,
		Title:    body.Title,
		Amount:   body.Amount,
		Category: models.ExpenseCategory(body.Category),
		Date:     date,
		Notes:    body.Notes,
	}, true
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	months, err := s.stats.AllMonths(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"months": months})
}

func (s *Server) handleStatsMonth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	monthStr := strings.TrimPrefix(r.URL.Path, "/api/v1/stats/")
	year, month, err := parseMonthParam(monthStr)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid month format; expected YYYY-MM")
		return
	}

	monthly, err := s.stats.MonthlyStats(r.Context(), year, month)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, monthly)
}

// handleReport serves /api/v1/reports/{YYYY-MM}.xlsx.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/api/v1/reports/")
	monthStr, ok := strings.CutSuffix(rest, ".xlsx")
	if !ok {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	year, month, err := parseMonthParam(monthStr)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid month format; expected YYYY-MM")
		return
	}

	monthly, err := s.stats.MonthlyStats(r.Context(), year, month)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	bookings, err := s.bookings.ListBookings(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	expenses, err := s.expenses.ListExpenses(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	path, err := s.reporter.BuildMonthly(year, month, monthly, bookings, expenses)
	if err != nil {
		s.logger.Error().Err(err).Str("month", monthStr).Msg("report build error")
		writeError(w, http.StatusInternalServerError, "report build failed")
		return
	}

	w.Header().Set("Content-Disposition", `attachment; filename="report_`+monthStr+`.xlsx"`)
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	http.ServeFile(w, r, path)
}
