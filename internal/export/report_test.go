package export

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"villabook/internal/models"
	"villabook/internal/stats"
)

func TestBuildMonthly(t *testing.T) {
	logger := zerolog.Nop()
	r := NewReporter(t.TempDir(), &logger)

	date := func(day int) time.Time {
		return time.Date(2026, time.March, day, 0, 0, 0, 0, time.UTC)
	}
	bookings := []*models.Booking{
		{ID: 1, ClientName: "Anna", Date: date(3), BookingType: models.SlotFull, Price: 300},
		{ID: 2, ClientName: "Boris", Date: date(10), BookingType: models.SlotMorning, Price: 150},
		// другой месяц, в отчет не попадает
		{ID: 3, ClientName: "Vera", Date: time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC), BookingType: models.SlotEvening, Price: 170},
	}
	expenses := []*models.Expense{
		{ID: 1, Title: "Cleaning", Amount: 100, Category: models.CategoryCleaning, Date: date(5)},
	}
	monthly := stats.ForMonth(bookings, expenses, 2026, time.March)

	path, err := r.BuildMonthly(2026, time.March, monthly, bookings, expenses)
	require.NoError(t, err)
	require.FileExists(t, path)
	assert.Contains(t, path, "report_2026-03.xlsx")

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	title, err := f.GetCellValue(summarySheet, "A1")
	require.NoError(t, err)
	assert.Equal(t, "Отчет за 2026-03", title)

	income, err := f.GetCellValue(summarySheet, "B3")
	require.NoError(t, err)
	assert.Equal(t, "450", income)

	rows, err := f.GetRows(bookingsSheet)
	require.NoError(t, err)
	// заголовок + две брони марта
	assert.Len(t, rows, 3)

	expenseRows, err := f.GetRows(expensesSheet)
	require.NoError(t, err)
	assert.Len(t, expenseRows, 2)
	assert.Equal(t, "Cleaning", expenseRows[1][2])
}

func TestBuildMonthlyEmptyMonth(t *testing.T) {
	logger := zerolog.Nop()
	r := NewReporter(t.TempDir(), &logger)

	monthly := stats.ForMonth(nil, nil, 2026, time.January)
	path, err := r.BuildMonthly(2026, time.January, monthly, nil, nil)
	require.NoError(t, err)
	require.FileExists(t, path)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(bookingsSheet)
	require.NoError(t, err)
	assert.Len(t, rows, 1) // только заголовок
}
