package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"villabook/internal/models"
)

func TestBuildGrid_Always42Cells(t *testing.T) {
	months := []struct {
		year  int
		month time.Month
	}{
		{2024, time.February}, // leap February
		{2023, time.February},
		{2024, time.March},
		{2024, time.December},
		{2026, time.August},
	}
	for _, m := range months {
		cells := BuildGrid(m.year, m.month, nil)
		require.Len(t, cells, GridCells)

		inMonth := 0
		for _, c := range cells {
			if c.InMonth {
				inMonth++
			}
		}
		assert.Equal(t, DaysInMonth(m.year, m.month), inMonth, "%d-%d", m.year, m.month)
	}
}

// April 2026 has 30 days and starts on a Wednesday: three leading padding
// cells, thirty in-month cells, nine trailing padding cells.
func TestBuildGrid_ThirtyDayMonthStartingWednesday(t *testing.T) {
	cells := BuildGrid(2026, time.April, nil)
	require.Len(t, cells, 42)

	for i := 0; i <= 2; i++ {
		assert.False(t, cells[i].InMonth, "cell %d should be previous-month padding", i)
	}
	for i := 3; i <= 32; i++ {
		require.True(t, cells[i].InMonth, "cell %d should be in month", i)
		assert.Equal(t, i-2, cells[i].Date.Day())
	}
	for i := 33; i <= 41; i++ {
		assert.False(t, cells[i].InMonth, "cell %d should be next-month padding", i)
	}

	// Grid starts on the Sunday before the 1st.
	assert.Equal(t, time.Sunday, cells[0].Date.Weekday())
	assert.Equal(t, time.Date(2026, time.March, 29, 0, 0, 0, 0, time.UTC), cells[0].Date)
}

func TestBuildGrid_MonthStartingSunday(t *testing.T) {
	// March 2026 starts on a Sunday: no leading padding.
	cells := BuildGrid(2026, time.March, nil)
	assert.True(t, cells[0].InMonth)
	assert.Equal(t, 1, cells[0].Date.Day())
}

func TestBuildGrid_AttachesBookings(t *testing.T) {
	bookings := []*models.Booking{
		{ID: 1, ClientName: "Ahmad", Date: time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), BookingType: models.SlotMorning},
		{ID: 2, ClientName: "Sara", Date: time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), BookingType: models.SlotEvening},
		{ID: 3, ClientName: "Omar", Date: time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC), BookingType: models.SlotFull},
	}

	cells := BuildGrid(2024, time.March, bookings)

	var day5 *Cell
	for i := range cells {
		if cells[i].InMonth && cells[i].Date.Day() == 5 {
			day5 = &cells[i]
			break
		}
	}
	require.NotNil(t, day5)
	require.Len(t, day5.Bookings, 2)
	assert.Equal(t, int64(1), day5.Bookings[0].ID)
	assert.Equal(t, int64(2), day5.Bookings[1].ID)

	// The April booking lands on a padding cell if visible, never on an
	// in-month cell.
	for _, c := range cells {
		if c.InMonth {
			for _, b := range c.Bookings {
				assert.NotEqual(t, int64(3), b.ID)
			}
		}
	}
}

func TestDaysInMonth(t *testing.T) {
	assert.Equal(t, 29, DaysInMonth(2024, time.February))
	assert.Equal(t, 28, DaysInMonth(2023, time.February))
	assert.Equal(t, 31, DaysInMonth(2024, time.March))
	assert.Equal(t, 30, DaysInMonth(2024, time.April))
}
