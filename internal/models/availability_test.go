package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func mkBooking(slot SlotType, client string) *Booking {
	return &Booking{
		ClientName:  client,
		Date:        time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
		BookingType: slot,
		Price:       100,
	}
}

func TestSlotAvailable_EmptyDay(t *testing.T) {
	assert.True(t, SlotAvailable(nil, SlotMorning))
	assert.True(t, SlotAvailable(nil, SlotEvening))
	assert.True(t, SlotAvailable(nil, SlotFull))
	assert.True(t, SlotAvailable([]*Booking{}, SlotFull))
}

func TestSlotAvailable_FullBlocksEverything(t *testing.T) {
	existing := []*Booking{mkBooking(SlotFull, "Ahmad")}
	for _, requested := range []SlotType{SlotMorning, SlotEvening, SlotFull} {
		assert.False(t, SlotAvailable(existing, requested), "requested %s", requested)
	}
}

func TestSlotAvailable_FullRequiresEmptyDay(t *testing.T) {
	tests := []struct {
		name     string
		existing []*Booking
	}{
		{"morning taken", []*Booking{mkBooking(SlotMorning, "Ahmad")}},
		{"evening taken", []*Booking{mkBooking(SlotEvening, "Ahmad")}},
		{"both halves taken", []*Booking{mkBooking(SlotMorning, "Ahmad"), mkBooking(SlotEvening, "Sara")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.False(t, SlotAvailable(tt.existing, SlotFull))
		})
	}
}

func TestSlotAvailable_MorningTaken(t *testing.T) {
	existing := []*Booking{mkBooking(SlotMorning, "Ahmad")}

	assert.False(t, SlotAvailable(existing, SlotMorning))
	assert.True(t, SlotAvailable(existing, SlotEvening))
	assert.False(t, SlotAvailable(existing, SlotFull))
}

func TestSlotAvailable_EveningTaken(t *testing.T) {
	existing := []*Booking{mkBooking(SlotEvening, "Ahmad")}

	assert.True(t, SlotAvailable(existing, SlotMorning))
	assert.False(t, SlotAvailable(existing, SlotEvening))
	assert.False(t, SlotAvailable(existing, SlotFull))
}

func TestSameClientConflict(t *testing.T) {
	existing := []*Booking{mkBooking(SlotMorning, "Ahmad")}

	assert.False(t, SameClientConflict(existing, SlotEvening, "Ahmad"))
	assert.True(t, SameClientConflict(existing, SlotEvening, "Sara"))

	// Same half is handled by SlotAvailable, not the client rule.
	assert.False(t, SameClientConflict(existing, SlotMorning, "Sara"))

	// Full-day requests never consult the client rule.
	assert.False(t, SameClientConflict(existing, SlotFull, "Sara"))

	assert.False(t, SameClientConflict(nil, SlotEvening, "Sara"))
}
