// Package export renders monthly XLSX reports: a summary block with the
// month's aggregates, then the bookings and expenses line by line.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"

	"villabook/internal/metrics"
	"villabook/internal/models"
	"villabook/internal/stats"
)

const (
	summarySheet  = "Итоги"
	bookingsSheet = "Брони"
	expensesSheet = "Расходы"
)

type Reporter struct {
	exportsPath string
	logger      *zerolog.Logger
}

func NewReporter(exportsPath string, logger *zerolog.Logger) *Reporter {
	return &Reporter{exportsPath: exportsPath, logger: logger}
}

// BuildMonthly writes the report file and returns its path. Bookings and
// expenses outside the requested month are skipped, so callers can pass
// wholesale snapshots.
func (r *Reporter) BuildMonthly(year int, month time.Month, monthly stats.Monthly, bookings []*models.Booking, expenses []*models.Expense) (string, error) {
	if err := os.MkdirAll(r.exportsPath, 0o755); err != nil {
		return "", fmt.Errorf("error creating export directory: %v", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := r.writeSummary(f, monthly); err != nil {
		return "", err
	}
	if err := r.writeBookings(f, monthly.Month, bookings); err != nil {
		return "", err
	}
	if err := r.writeExpenses(f, monthly.Month, expenses); err != nil {
		return "", err
	}

	_ = f.DeleteSheet("Sheet1")

	fileName := fmt.Sprintf("report_%s.xlsx", monthly.Month)
	filePath := filepath.Join(r.exportsPath, fileName)
	if err := f.SaveAs(filePath); err != nil {
		return "", fmt.Errorf("error saving file: %v", err)
	}

	metrics.IncReportBuild()
	r.logger.Info().Str("file_path", filePath).Msg("monthly report created")
	return filePath, nil
}

func (r *Reporter) writeSummary(f *excelize.File, monthly stats.Monthly) error {
	index, err := f.NewSheet(summarySheet)
	if err != nil {
		return fmt.Errorf("error creating sheet: %v", err)
	}
	f.SetActiveSheet(index)

	_ = f.SetCellValue(summarySheet, "A1", fmt.Sprintf("Отчет за %s", monthly.Month))

	titleStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	_ = f.MergeCell(summarySheet, "A1", "B1")
	_ = f.SetCellStyle(summarySheet, "A1", "A1", titleStyle)

	rows := []struct {
		label string
		value interface{}
	}{
		{"Доход", monthly.TotalIncome},
		{"Расходы", monthly.TotalExpenses},
		{"Прибыль", monthly.NetProfit},
		{"Броней", monthly.TotalBookings},
		{"Загрузка, %", monthly.OccupancyRate},
		{"Маржа, %", monthly.Margin()},
	}
	for i, row := range rows {
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("A%d", i+3), row.label)
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("B%d", i+3), row.value)
	}

	_ = f.SetColWidth(summarySheet, "A", "A", 20)
	_ = f.SetColWidth(summarySheet, "B", "B", 15)
	return nil
}

func (r *Reporter) writeBookings(f *excelize.File, monthKey string, bookings []*models.Booking) error {
	if _, err := f.NewSheet(bookingsSheet); err != nil {
		return fmt.Errorf("error creating sheet: %v", err)
	}

	headers := []string{"ID", "Дата", "Слот", "Гость", "Телефон", "Цена", "Бесплатно", "Заметки"}
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font: &excelize.Font{Bold: true},
	})
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(bookingsSheet, cell, header)
		_ = f.SetCellStyle(bookingsSheet, cell, cell, headerStyle)
	}

	row := 2
	for _, b := range bookings {
		if models.MonthKey(b.Date) != monthKey {
			continue
		}
		_ = f.SetCellValue(bookingsSheet, fmt.Sprintf("A%d", row), b.ID)
		_ = f.SetCellValue(bookingsSheet, fmt.Sprintf("B%d", row), b.Date.Format("02.01.2006"))
		_ = f.SetCellValue(bookingsSheet, fmt.Sprintf("C%d", row), string(b.BookingType))
		_ = f.SetCellValue(bookingsSheet, fmt.Sprintf("D%d", row), b.ClientName)
		_ = f.SetCellValue(bookingsSheet, fmt.Sprintf("E%d", row), b.Phone)
		_ = f.SetCellValue(bookingsSheet, fmt.Sprintf("F%d", row), b.Price)
		_ = f.SetCellValue(bookingsSheet, fmt.Sprintf("G%d", row), boolToYesNo(b.IsFree))
		_ = f.SetCellValue(bookingsSheet, fmt.Sprintf("H%d", row), b.Notes)
		row++
	}

	_ = f.SetColWidth(bookingsSheet, "B", "B", 12)
	_ = f.SetColWidth(bookingsSheet, "D", "D", 25)
	_ = f.SetColWidth(bookingsSheet, "H", "H", 30)
	return nil
}

func (r *Reporter) writeExpenses(f *excelize.File, monthKey string, expenses []*models.Expense) error {
	if _, err := f.NewSheet(expensesSheet); err != nil {
		return fmt.Errorf("error creating sheet: %v", err)
	}

	headers := []string{"ID", "Дата", "Название", "Категория", "Сумма", "Заметки"}
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E2EFDA"}, Pattern: 1},
		Font: &excelize.Font{Bold: true},
	})
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(expensesSheet, cell, header)
		_ = f.SetCellStyle(expensesSheet, cell, cell, headerStyle)
	}

	row := 2
	for _, e := range expenses {
		if models.MonthKey(e.Date) != monthKey {
			continue
		}
		_ = f.SetCellValue(expensesSheet, fmt.Sprintf("A%d", row), e.ID)
		_ = f.SetCellValue(expensesSheet, fmt.Sprintf("B%d", row), e.Date.Format("02.01.2006"))
		_ = f.SetCellValue(expensesSheet, fmt.Sprintf("C%d", row), e.Title)
		_ = f.SetCellValue(expensesSheet, fmt.Sprintf("D%d", row), string(e.Category))
		_ = f.SetCellValue(expensesSheet, fmt.Sprintf("E%d", row), e.Amount)
		_ = f.SetCellValue(expensesSheet, fmt.Sprintf("F%d", row), e.Notes)
		row++
	}

	_ = f.SetColWidth(expensesSheet, "C", "C", 25)
	_ = f.SetColWidth(expensesSheet, "F", "F", 30)
	return nil
}

// boolToYesNo преобразует bool в "Да"/"Нет"
func boolToYesNo(b bool) string {
	if b {
		return "Да"
	}
	return "Нет"
}
