package models

// SlotAvailable reports whether a booking of the requested type may be added
// to a date that already holds the given bookings.
//
// The rule: a full-day booking excludes everything else on its date. A
// morning and an evening booking may coexist, one of each.
func SlotAvailable(existing []*Booking, requested SlotType) bool {
	if len(existing) == 0 {
		return true
	}
	for _, b := range existing {
		if b.BookingType == SlotFull {
			return false
		}
	}
	if requested == SlotFull {
		// Any partial booking blocks a full-day one.
		return false
	}
	for _, b := range existing {
		if b.BookingType == requested {
			return false
		}
	}
	return true
}

// SameClientConflict reports whether the requested half-day booking belongs
// to a different client than the opposite half already booked on that date.
// Only meaningful for morning/evening requests; full-day requests never
// reach this check because SlotAvailable rejects them first.
func SameClientConflict(existing []*Booking, requested SlotType, clientName string) bool {
	var opposite SlotType
	switch requested {
	case SlotMorning:
		opposite = SlotEvening
	case SlotEvening:
		opposite = SlotMorning
	default:
		return false
	}
	for _, b := range existing {
		if b.BookingType == opposite && b.ClientName != clientName {
			return true
		}
	}
	return false
}
