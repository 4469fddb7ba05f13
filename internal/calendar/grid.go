// Package calendar builds the month grid the booking calendar renders.
package calendar

import (
	"time"

	"villabook/internal/models"
)

// GridCells is the fixed number of cells in a month view: six weeks of seven
// days, so the grid height never changes between months.
const GridCells = 42

// Cell is one day square in the month view. Cells outside the target month
// are padding from the adjacent months.
type Cell struct {
	Date     time.Time         `json:"date"`
	InMonth  bool              `json:"in_month"`
	Bookings []*models.Booking `json:"bookings,omitempty"`
}

// BuildGrid lays out the given month as 42 cells, week starting on Sunday.
// Cell i holds the date (first of month) - weekday(first of month) + i days.
// Bookings are attached to the cell whose date matches theirs; the input
// list may span any range, non-matching entries are simply not placed.
func BuildGrid(year int, month time.Month, bookings []*models.Booking) []Cell {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	start := first.AddDate(0, 0, -int(first.Weekday()))

	byDate := make(map[string][]*models.Booking, len(bookings))
	for _, b := range bookings {
		key := models.DateOnly(b.Date).Format("2006-01-02")
		byDate[key] = append(byDate[key], b)
	}

	cells := make([]Cell, GridCells)
	for i := range cells {
		date := start.AddDate(0, 0, i)
		cells[i] = Cell{
			Date:     date,
			InMonth:  date.Month() == month && date.Year() == year,
			Bookings: byDate[date.Format("2006-01-02")],
		}
	}
	return cells
}

// DaysInMonth returns the number of calendar days in the given month.
func DaysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
