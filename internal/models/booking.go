package models

import (
	"errors"
	"strings"
	"time"
)

// SlotType classifies a reservation within a calendar date. The three types
// are mutually exclusive per date: one full-day booking, or at most one
// morning plus at most one evening booking.
type SlotType string

const (
	SlotMorning SlotType = "morning"
	SlotEvening SlotType = "evening"
	SlotFull    SlotType = "full"
)

// SlotWeight is the number of slot-units a booking consumes out of the two
// available per day. Used by the occupancy calculation.
func (t SlotType) SlotWeight() int {
	if t == SlotFull {
		return 2
	}
	return 1
}

func (t SlotType) Valid() bool {
	switch t {
	case SlotMorning, SlotEvening, SlotFull:
		return true
	}
	return false
}

type Booking struct {
	ID          int64     `json:"id"`
	ClientName  string    `json:"client_name"`
	Date        time.Time `json:"date"`
	BookingType SlotType  `json:"booking_type"`
	Price       float64   `json:"price"`
	IsFree      bool      `json:"is_free"`
	Notes       string    `json:"notes,omitempty"`
	Phone       string    `json:"phone,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

var (
	ErrEmptyClientName = errors.New("client name is required")
	ErrInvalidSlotType = errors.New("invalid booking type")
	ErrNegativePrice   = errors.New("price must not be negative")
	ErrZeroDate        = errors.New("date is required")
)

// Validate checks field-level constraints and normalizes the record:
// names are trimmed, a free booking always carries price 0 and the date is
// truncated to day granularity.
func (b *Booking) Validate() error {
	b.ClientName = strings.TrimSpace(b.ClientName)
	if b.ClientName == "" {
		return ErrEmptyClientName
	}
	if !b.BookingType.Valid() {
		return ErrInvalidSlotType
	}
	if b.Date.IsZero() {
		return ErrZeroDate
	}
	if b.IsFree {
		b.Price = 0
	}
	if b.Price < 0 {
		return ErrNegativePrice
	}
	b.Date = DateOnly(b.Date)
	return nil
}

// DateOnly strips the time component, keeping a plain calendar date in UTC.
// Dates in this system are never instants.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// MonthKey renders the YYYY-MM grouping key used by the monthly views.
func MonthKey(t time.Time) string {
	return t.Format("2006-01")
}
