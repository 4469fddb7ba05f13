package database

import "errors"

var (
	// ErrSlotUnavailable means the requested slot conflicts with an existing
	// booking on that date.
	ErrSlotUnavailable = errors.New("slot is not available for this date")

	// ErrDifferentClient means the opposite half-day slot is held by another
	// client and the same-client policy is active.
	ErrDifferentClient = errors.New("morning and evening bookings must belong to the same client")

	// ErrNotFound means the requested row does not exist.
	ErrNotFound = errors.New("record not found")
)
