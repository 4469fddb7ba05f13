package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"villabook/internal/models"
)

const expenseColumns = `id, title, amount, category, date, notes, created_at`

func scanExpense(scan func(dest ...any) error) (*models.Expense, error) {
	e := &models.Expense{}
	var dateStr string
	var notes *string
	err := scan(&e.ID, &e.Title, &e.Amount, &e.Category, &dateStr, &notes, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	if notes != nil {
		e.Notes = *notes
	}
	e.Date, err = time.Parse("2006-01-02", dateStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse expense date %s: %w", dateStr, err)
	}
	return e, nil
}

// GetAllExpenses returns the full ledger ordered by date ascending.
func (db *DB) GetAllExpenses(ctx context.Context) ([]*models.Expense, error) {
	query := `SELECT ` + expenseColumns + ` FROM expenses ORDER BY date ASC, id ASC`
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get expenses: %w", err)
	}
	defer rows.Close()

	var expenses []*models.Expense
	for rows.Next() {
		e, err := scanExpense(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		expenses = append(expenses, e)
	}
	return expenses, rows.Err()
}

func (db *DB) GetExpense(ctx context.Context, id int64) (*models.Expense, error) {
	query := `SELECT ` + expenseColumns + ` FROM expenses WHERE id = ?`
	e, err := scanExpense(db.QueryRowContext(ctx, query, id).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}
	return e, nil
}

func (db *DB) CreateExpense(ctx context.Context, expense *models.Expense) error {
	now := time.Now()
	result, err := db.ExecContext(ctx,
		`INSERT INTO expenses (title, amount, category, date, notes, created_at)
         VALUES (?, ?, ?, ?, ?, ?)`,
		expense.Title,
		expense.Amount,
		expense.Category,
		expense.Date.Format("2006-01-02"),
		expense.Notes,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to create expense: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	expense.ID = id
	expense.CreatedAt = now
	return nil
}

// UpdateExpense replaces the full record for the given id.
func (db *DB) UpdateExpense(ctx context.Context, expense *models.Expense) error {
	result, err := db.ExecContext(ctx,
		`UPDATE expenses SET title = ?, amount = ?, category = ?, date = ?, notes = ? WHERE id = ?`,
		expense.Title,
		expense.Amount,
		expense.Category,
		expense.Date.Format("2006-01-02"),
		expense.Notes,
		expense.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update expense: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (db *DB) DeleteExpense(ctx context.Context, id int64) error {
	result, err := db.ExecContext(ctx, `DELETE FROM expenses WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
