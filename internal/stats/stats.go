// Package stats reduces bookings and expenses into monthly reporting
// figures. All functions are pure; callers pass wholesale snapshots fetched
// from the store.
package stats

import (
	"sort"
	"time"

	"villabook/internal/calendar"
	"villabook/internal/models"
)

// Monthly holds the reporting figures for one calendar month.
type Monthly struct {
	Month         string  `json:"month"` // YYYY-MM
	TotalIncome   float64 `json:"total_income"`
	TotalExpenses float64 `json:"total_expenses"`
	NetProfit     float64 `json:"net_profit"`
	TotalBookings int     `json:"total_bookings"`
	OccupancyRate float64 `json:"occupancy_rate"` // percent of slot-units booked
}

// ForMonth aggregates the given month. Entries outside the month are
// filtered on the YYYY-MM key; dates are plain calendar dates, never
// instants, so no timezone conversion happens here.
func ForMonth(bookings []*models.Booking, expenses []*models.Expense, year int, month time.Month) Monthly {
	key := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).Format("2006-01")

	m := Monthly{Month: key}
	occupied := 0
	for _, b := range bookings {
		if models.MonthKey(b.Date) != key {
			continue
		}
		m.TotalIncome += b.Price
		m.TotalBookings++
		occupied += b.BookingType.SlotWeight()
	}
	for _, e := range expenses {
		if models.MonthKey(e.Date) != key {
			continue
		}
		m.TotalExpenses += e.Amount
	}

	m.NetProfit = m.TotalIncome - m.TotalExpenses

	totalSlots := calendar.DaysInMonth(year, month) * models.SlotsPerDay
	if occupied > 0 {
		m.OccupancyRate = float64(occupied) / float64(totalSlots) * 100
	}
	return m
}

// ByMonth groups both lists by YYYY-MM key and aggregates each group,
// returning months in ascending order. Months that appear only in one of
// the lists still get a row.
func ByMonth(bookings []*models.Booking, expenses []*models.Expense) []Monthly {
	months := make(map[string]time.Time)
	for _, b := range bookings {
		months[models.MonthKey(b.Date)] = b.Date
	}
	for _, e := range expenses {
		months[models.MonthKey(e.Date)] = e.Date
	}

	keys := make([]string, 0, len(months))
	for k := range months {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	result := make([]Monthly, 0, len(keys))
	for _, k := range keys {
		d := months[k]
		result = append(result, ForMonth(bookings, expenses, d.Year(), d.Month()))
	}
	return result
}

// Margin returns net profit as a percentage of income, 0 when there is no
// income. Guards the division so an empty month never yields NaN.
func (m Monthly) Margin() float64 {
	if m.TotalIncome == 0 {
		return 0
	}
	return m.NetProfit / m.TotalIncome * 100
}
