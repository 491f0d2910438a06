package core

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	Income  TransactionType = "INCOME"
	Expense TransactionType = "EXPENSE"

	Monthly BudgetPeriod = "MONTHLY"
	Yearly  BudgetPeriod = "YEARLY"
)

const (
	MaxDescriptionLength  = 100
	MaxCategoryNameLength = 20

	// Amount bounds in cents: 0.01 .. 999,999,999.99
	MinAmountCents int64 = 1
	MaxAmountCents int64 = 99_999_999_999

	MinBudgetCents int64 = 100
)

type (
	TransactionType string
	BudgetPeriod    string

	Money struct {
		Cents int64
	}

	Category struct {
		ID        int64
		Name      string
		Type      TransactionType
		Icon      string
		Color     string
		IsDefault bool
		SortOrder int
	}

	// Transaction is a single dated monetary event. Amount is always
	// non-negative; the direction is carried by Type.
	Transaction struct {
		ID          int64
		Amount      Money
		Type        TransactionType
		Category    Category
		Description string
		Date        time.Time // user-settable occurrence date
		CreatedAt   time.Time // set once at insert
	}

	// Budget is a spending ceiling for one category over a stored date
	// window. The window is persisted, not recomputed from Period.
	Budget struct {
		ID        int64
		Category  Category
		Amount    Money
		Period    BudgetPeriod
		StartDate time.Time
		EndDate   time.Time
		CreatedAt time.Time
	}
)

var (
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInvalidType        = errors.New("invalid transaction type")
	ErrMissingCategory    = errors.New("missing category")
	ErrTypeMismatch       = errors.New("category type does not match transaction type")
	ErrDescriptionTooLong = errors.New("description too long")
	ErrInvalidDate        = errors.New("invalid date")
	ErrEmptyCategoryName  = errors.New("empty category name")
	ErrCategoryNameLength = errors.New("category name too long")
	ErrInvalidPeriod      = errors.New("invalid budget period")
	ErrInvalidWindow      = errors.New("budget end date before start date")
)

func (t TransactionType) Valid() bool {
	return t == Income || t == Expense
}

func (p BudgetPeriod) Valid() bool {
	return p == Monthly || p == Yearly
}

func (m Money) Validate() error {
	if m.Cents < MinAmountCents || m.Cents > MaxAmountCents {
		return ErrInvalidAmount
	}
	return nil
}

func (t Transaction) Validate() error {
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if !t.Type.Valid() {
		return ErrInvalidType
	}
	if t.Category.ID == 0 {
		return ErrMissingCategory
	}
	// The record screen only offers categories of the selected type, so a
	// mismatch here is a programming error rather than bad user input.
	if t.Category.Type != "" && t.Category.Type != t.Type {
		return ErrTypeMismatch
	}
	if utf8.RuneCountInString(t.Description) > MaxDescriptionLength {
		return ErrDescriptionTooLong
	}
	if t.Date.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

func (c Category) Validate() error {
	name := strings.TrimSpace(c.Name)
	if name == "" {
		return ErrEmptyCategoryName
	}
	if utf8.RuneCountInString(name) > MaxCategoryNameLength {
		return ErrCategoryNameLength
	}
	if !c.Type.Valid() {
		return ErrInvalidType
	}
	return nil
}

func (b Budget) Validate() error {
	if b.Category.ID == 0 {
		return ErrMissingCategory
	}
	if b.Amount.Cents < MinBudgetCents || b.Amount.Cents > MaxAmountCents {
		return ErrInvalidAmount
	}
	if !b.Period.Valid() {
		return ErrInvalidPeriod
	}
	if b.StartDate.IsZero() || b.EndDate.IsZero() {
		return ErrInvalidDate
	}
	if b.EndDate.Before(b.StartDate) {
		return ErrInvalidWindow
	}
	return nil
}

// UnknownCategory is the placeholder used when a transaction's category
// reference cannot be resolved. Cascade delete should make this unreachable,
// but the row mapping stays defensive.
func UnknownCategory(id int64, typ TransactionType) Category {
	return Category{
		ID:    id,
		Name:  "未知分类",
		Type:  typ,
		Icon:  "❓",
		Color: "#999999",
	}
}
