package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"villabook/internal/models"
)

const bookingColumns = `id, client_name, date, booking_type, price, is_free, notes, phone, created_at`

func scanBooking(scan func(dest ...any) error) (*models.Booking, error) {
	b := &models.Booking{}
	var dateStr string
	var notes, phone *string
	err := scan(
		&b.ID, &b.ClientName, &dateStr, &b.BookingType, &b.Price, &b.IsFree,
		&notes, &phone, &b.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if notes != nil {
		b.Notes = *notes
	}
	if phone != nil {
		b.Phone = *phone
	}
	b.Date, err = time.Parse("2006-01-02", dateStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse booking date %s: %w", dateStr, err)
	}
	return b, nil
}

// GetAllBookings returns every booking ordered by date ascending. The
// calendar and stats views consume this wholesale snapshot.
func (db *DB) GetAllBookings(ctx context.Context) ([]*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings ORDER BY date ASC, id ASC`
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get bookings: %w", err)
	}
	defer rows.Close()

	var bookings []*models.Booking
	for rows.Next() {
		b, err := scanBooking(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

// GetBookingsByDate returns the bookings persisted for one calendar date.
func (db *DB) GetBookingsByDate(ctx context.Context, date time.Time) ([]*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE date = ? ORDER BY id ASC`
	rows, err := db.QueryContext(ctx, query, date.Format("2006-01-02"))
	if err != nil {
		return nil, fmt.Errorf("failed to get bookings by date: %w", err)
	}
	defer rows.Close()

	var bookings []*models.Booking
	for rows.Next() {
		b, err := scanBooking(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

// GetBookingsByDateRange returns bookings with start <= date <= end ordered
// by date ascending.
func (db *DB) GetBookingsByDateRange(ctx context.Context, start, end time.Time) ([]*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE date >= ? AND date <= ? ORDER BY date ASC, id ASC`
	rows, err := db.QueryContext(ctx, query, start.Format("2006-01-02"), end.Format("2006-01-02"))
	if err != nil {
		return nil, fmt.Errorf("failed to get bookings by date range: %w", err)
	}
	defer rows.Close()

	var bookings []*models.Booking
	for rows.Next() {
		b, err := scanBooking(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

func (db *DB) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = ?`
	b, err := scanBooking(db.QueryRowContext(ctx, query, id).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return b, nil
}

// CreateBookingWithLock checks slot availability and inserts the booking in
// a single transaction, so two concurrent writers cannot both pass the
// check. requireSameClient additionally enforces that both halves of a day
// belong to one client.
func (db *DB) CreateBookingWithLock(ctx context.Context, booking *models.Booking, requireSameClient bool) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	dateStr := booking.Date.Format("2006-01-02")
	rows, err := tx.QueryContext(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE date = ?`, dateStr)
	if err != nil {
		return fmt.Errorf("failed to check availability in tx: %w", err)
	}

	var existing []*models.Booking
	for rows.Next() {
		b, err := scanBooking(rows.Scan)
		if err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan booking in tx: %w", err)
		}
		existing = append(existing, b)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return fmt.Errorf("failed to read bookings in tx: %w", err)
	}
	rows.Close()

	if !models.SlotAvailable(existing, booking.BookingType) {
		return ErrSlotUnavailable
	}
	if requireSameClient && models.SameClientConflict(existing, booking.BookingType, booking.ClientName) {
		return ErrDifferentClient
	}

	now := time.Now()
	result, err := tx.ExecContext(ctx,
		`INSERT INTO bookings (client_name, date, booking_type, price, is_free, notes, phone, created_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		booking.ClientName,
		dateStr,
		booking.BookingType,
		booking.Price,
		booking.IsFree,
		booking.Notes,
		booking.Phone,
		now,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return ErrSlotUnavailable
		}
		return fmt.Errorf("failed to insert booking in tx: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id in tx: %w", err)
	}
	booking.ID = id
	booking.CreatedAt = now

	return tx.Commit()
}

func (db *DB) DeleteBooking(ctx context.Context, id int64) error {
	result, err := db.ExecContext(ctx, `DELETE FROM bookings WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete booking: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
