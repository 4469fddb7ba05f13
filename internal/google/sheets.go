package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"villabook/internal/config"
	"villabook/internal/models"
)

// ErrRowNotFound means the entity has no row in the sheet yet.
var ErrRowNotFound = errors.New("sheet row not found")

// SheetsService mirrors bookings and expenses into one Google spreadsheet,
// one sheet per entity. Rows are addressed by the entity id in column A; a
// per-sheet row index cache avoids re-reading the column on every write.
type SheetsService struct {
	service       *sheets.Service
	spreadsheetID string
	bookingsSheet string
	expensesSheet string

	cacheMu       sync.RWMutex
	bookingRows   map[int64]int
	expenseRows   map[int64]int
}

func NewSheetsService(cfg config.GoogleConfig) (*SheetsService, error) {
	ctx := context.Background()

	// Читаем файл учетных данных сервисного аккаунта
	credentialsJSON, err := os.ReadFile(cfg.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read credentials file: %v", err)
	}

	jwtCfg, err := google.JWTConfigFromJSON(credentialsJSON, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse credentials: %v", err)
	}

	srv, err := sheets.NewService(ctx, option.WithHTTPClient(jwtCfg.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("unable to create Sheets service: %v", err)
	}

	s := &SheetsService{
		service:       srv,
		spreadsheetID: cfg.SpreadsheetID,
		bookingsSheet: cfg.BookingsSheetName,
		expensesSheet: cfg.ExpensesSheetName,
		bookingRows:   make(map[int64]int),
		expenseRows:   make(map[int64]int),
	}

	// Warm up caches in background
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		s.WarmUpCache(ctx)
	}()

	return s, nil
}

// TestConnection проверяет доступ к таблице
func (s *SheetsService) TestConnection(ctx context.Context) error {
	_, err := s.service.Spreadsheets.Values.Get(s.spreadsheetID, s.bookingsSheet+"!A1").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("connection test failed: %v", err)
	}
	return nil
}

// ServiceAccountEmail returns the service account email from the
// credentials file, for sharing instructions in logs.
func ServiceAccountEmail(credentialsFile string) (string, error) {
	file, err := os.ReadFile(credentialsFile)
	if err != nil {
		return "", err
	}

	var creds struct {
		ClientEmail string `json:"client_email"`
	}
	if err := json.Unmarshal(file, &creds); err != nil {
		return "", err
	}
	return creds.ClientEmail, nil
}

// WarmUpCache reads both id columns and rebuilds the row caches.
func (s *SheetsService) WarmUpCache(ctx context.Context) error {
	bookingRows, err := s.readIDColumn(ctx, s.bookingsSheet)
	if err != nil {
		return err
	}
	expenseRows, err := s.readIDColumn(ctx, s.expensesSheet)
	if err != nil {
		return err
	}

	// Кэши перезаполняются на месте, сами map никогда не заменяются:
	// их читают конкурентно воркер и фоновый прогрев.
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	replaceCache(s.bookingRows, bookingRows)
	replaceCache(s.expenseRows, expenseRows)
	return nil
}

func replaceCache(dst, src map[int64]int) {
	for id := range dst {
		delete(dst, id)
	}
	for id, row := range src {
		dst[id] = row
	}
}

func (s *SheetsService) readIDColumn(ctx context.Context, sheet string) (map[int64]int, error) {
	resp, err := s.service.Spreadsheets.Values.Get(s.spreadsheetID, sheet+"!A:A").Context(ctx).Do()
	if err != nil {
		return nil, err
	}

	rows := make(map[int64]int)
	for i, row := range resp.Values {
		if len(row) == 0 {
			continue
		}
		if id := parseCellID(row[0]); id > 0 {
			rows[id] = i + 1 // Values are zero-based; sheet rows are 1-based
		}
	}
	return rows, nil
}

// UpsertBooking updates the booking's row or appends a new one.
func (s *SheetsService) UpsertBooking(ctx context.Context, booking *models.Booking) error {
	if booking == nil {
		return fmt.Errorf("booking is nil")
	}
	return s.upsertRow(ctx, s.bookingsSheet, s.bookingRows, booking.ID, bookingRowValues(booking))
}

// DeleteBookingRow clears the row that corresponds to bookingID.
func (s *SheetsService) DeleteBookingRow(ctx context.Context, bookingID int64) error {
	return s.deleteRow(ctx, s.bookingsSheet, s.bookingRows, bookingID)
}

// UpsertExpense updates the expense's row or appends a new one.
func (s *SheetsService) UpsertExpense(ctx context.Context, expense *models.Expense) error {
	if expense == nil {
		return fmt.Errorf("expense is nil")
	}
	return s.upsertRow(ctx, s.expensesSheet, s.expenseRows, expense.ID, expenseRowValues(expense))
}

// DeleteExpenseRow clears the row that corresponds to expenseID.
func (s *SheetsService) DeleteExpenseRow(ctx context.Context, expenseID int64) error {
	return s.deleteRow(ctx, s.expensesSheet, s.expenseRows, expenseID)
}

func (s *SheetsService) upsertRow(ctx context.Context, sheet string, cache map[int64]int, id int64, values []interface{}) error {
	rowIdx, err := s.findRow(ctx, sheet, cache, id)
	if err != nil {
		if errors.Is(err, ErrRowNotFound) {
			return s.appendRow(ctx, sheet, values)
		}
		return err
	}

	rangeData := fmt.Sprintf("%s!A%d:%s%d", sheet, rowIdx, columnLetter(len(values)), rowIdx)
	_, err = s.service.Spreadsheets.Values.Update(s.spreadsheetID, rangeData, &sheets.ValueRange{
		Values: [][]interface{}{values},
	}).ValueInputOption("RAW").Context(ctx).Do()
	return err
}

func (s *SheetsService) appendRow(ctx context.Context, sheet string, values []interface{}) error {
	_, err := s.service.Spreadsheets.Values.Append(s.spreadsheetID, sheet+"!A:A", &sheets.ValueRange{
		Values: [][]interface{}{values},
	}).ValueInputOption("RAW").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	return err
}

func (s *SheetsService) deleteRow(ctx context.Context, sheet string, cache map[int64]int, id int64) error {
	rowIdx, err := s.findRow(ctx, sheet, cache, id)
	if err != nil {
		if errors.Is(err, ErrRowNotFound) {
			// Ряд уже отсутствует, удаление идемпотентно
			return nil
		}
		return err
	}

	rangeData := fmt.Sprintf("%s!A%d:Z%d", sheet, rowIdx, rowIdx)
	_, err = s.service.Spreadsheets.Values.Clear(s.spreadsheetID, rangeData, &sheets.ClearValuesRequest{}).
		Context(ctx).
		Do()
	if err == nil {
		s.cacheMu.Lock()
		delete(cache, id)
		s.cacheMu.Unlock()
	}
	return err
}

// findRow locates the 1-based row index for an id in column A with cache.
func (s *SheetsService) findRow(ctx context.Context, sheet string, cache map[int64]int, id int64) (int, error) {
	if id == 0 {
		return 0, fmt.Errorf("entity id is required")
	}

	s.cacheMu.RLock()
	row, ok := cache[id]
	s.cacheMu.RUnlock()
	if ok {
		return row, nil
	}

	resp, err := s.service.Spreadsheets.Values.Get(s.spreadsheetID, sheet+"!A:A").Context(ctx).Do()
	if err != nil {
		return 0, err
	}

	for i, r := range resp.Values {
		if len(r) == 0 {
			continue
		}
		if parseCellID(r[0]) == id {
			rowIdx := i + 1
			s.cacheMu.Lock()
			cache[id] = rowIdx
			s.cacheMu.Unlock()
			return rowIdx, nil
		}
	}
	return 0, ErrRowNotFound
}

// ClearCache drops both row index caches. The maps are emptied in place,
// never replaced, so concurrent readers stay on the same map.
func (s *SheetsService) ClearCache() {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	for id := range s.bookingRows {
		delete(s.bookingRows, id)
	}
	for id := range s.expenseRows {
		delete(s.expenseRows, id)
	}
}

func parseCellID(cell interface{}) int64 {
	switch v := cell.(type) {
	case float64:
		return int64(v)
	case string:
		id, _ := strconv.ParseInt(v, 10, 64)
		return id
	}
	return 0
}

func columnLetter(n int) string {
	return string(rune('A' + n - 1))
}

func bookingRowValues(b *models.Booking) []interface{} {
	return []interface{}{
		b.ID,
		b.Date.Format("2006-01-02"),
		string(b.BookingType),
		b.ClientName,
		b.Phone,
		b.Price,
		b.IsFree,
		b.Notes,
		b.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}

func expenseRowValues(e *models.Expense) []interface{} {
	return []interface{}{
		e.ID,
		e.Date.Format("2006-01-02"),
		e.Title,
		string(e.Category),
		e.Amount,
		e.Notes,
		e.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}
