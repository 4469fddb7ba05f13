package models

import (
	"errors"
	"strings"
	"time"
)

type ExpenseCategory string

const (
	CategoryMaintenance ExpenseCategory = "maintenance"
	CategoryUtilities   ExpenseCategory = "utilities"
	CategoryCleaning    ExpenseCategory = "cleaning"
	CategoryOther       ExpenseCategory = "other"
)

func (c ExpenseCategory) Valid() bool {
	switch c {
	case CategoryMaintenance, CategoryUtilities, CategoryCleaning, CategoryOther:
		return true
	}
	return false
}

type Expense struct {
	ID        int64           `json:"id"`
	Title     string          `json:"title"`
	Amount    float64         `json:"amount"`
	Category  ExpenseCategory `json:"category"`
	Date      time.Time       `json:"date"`
	Notes     string          `json:"notes,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

var (
	ErrEmptyTitle      = errors.New("expense title is required")
	ErrInvalidCategory = errors.New("invalid expense category")
	ErrNegativeAmount  = errors.New("amount must not be negative")
)

func (e *Expense) Validate() error {
	e.Title = strings.TrimSpace(e.Title)
	if e.Title == "" {
		return ErrEmptyTitle
	}
	if e.Category == "" {
		e.Category = CategoryOther
	}
	if !e.Category.Valid() {
		return ErrInvalidCategory
	}
	if e.Amount < 0 {
		return ErrNegativeAmount
	}
	if e.Date.IsZero() {
		return ErrZeroDate
	}
	e.Date = DateOnly(e.Date)
	return nil
}
