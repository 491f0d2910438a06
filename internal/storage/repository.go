// Package storage persists the bookkeeping ledger in an embedded SQLite
// database. Transactions and budgets both hold a foreign key to categories
// with ON DELETE CASCADE, enforced through the foreign_keys pragma, so
// deleting a category removes its transactions and budgets in one statement.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/zhangyujiu/HouseKeeper/internal/core"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := migrateSchema(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate schema: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Seed inserts the default category set when the category table is empty.
// It is gated by a count query and safe to call on every startup.
func (r *SQLiteRepository) Seed(ctx context.Context) error {
	var count int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM categories`).Scan(&count)
	if err != nil {
		return fmt.Errorf("count categories: %w", err)
	}
	if count > 0 {
		return nil
	}

	for _, c := range core.DefaultCategories() {
		if _, err := r.InsertCategory(ctx, c); err != nil {
			return fmt.Errorf("seed category %q: %w", c.Name, err)
		}
	}

	slog.InfoContext(ctx, "Seeded default categories", "count", len(core.DefaultCategories()))
	return nil
}

// --- categories ---

const categoryColumns = `id, name, type, icon, color, is_default, sort_order`

func scanCategory(row interface{ Scan(...any) error }) (core.Category, error) {
	var c core.Category
	var isDefault int64
	err := row.Scan(&c.ID, &c.Name, &c.Type, &c.Icon, &c.Color, &isDefault, &c.SortOrder)
	if err != nil {
		return core.Category{}, err
	}
	c.IsDefault = isDefault != 0
	return c, nil
}

func (r *SQLiteRepository) ListCategories(ctx context.Context) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+categoryColumns+` FROM categories ORDER BY sort_order ASC, name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()
	return collectCategories(rows)
}

func (r *SQLiteRepository) ListCategoriesByType(ctx context.Context, typ core.TransactionType) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE type = ? ORDER BY sort_order ASC, name ASC`, string(typ))
	if err != nil {
		return nil, fmt.Errorf("list categories by type: %w", err)
	}
	defer rows.Close()
	return collectCategories(rows)
}

func collectCategories(rows *sql.Rows) ([]core.Category, error) {
	var out []core.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// GetCategory returns nil, nil when the id is absent.
func (r *SQLiteRepository) GetCategory(ctx context.Context, id int64) (*core.Category, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE id = ?`, id)
	c, err := scanCategory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get category: %w", err)
	}
	return &c, nil
}

// CategoryNameExists checks per (name, type) uniqueness; the income and
// expense namespaces are independent.
func (r *SQLiteRepository) CategoryNameExists(ctx context.Context, name string, typ core.TransactionType) (bool, error) {
	var count int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM categories WHERE name = ? AND type = ?`, name, string(typ)).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("count categories by name and type: %w", err)
	}
	return count > 0, nil
}

func (r *SQLiteRepository) InsertCategory(ctx context.Context, c core.Category) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO categories (name, type, icon, color, is_default, sort_order) VALUES (?, ?, ?, ?, ?, ?)`,
		c.Name, string(c.Type), c.Icon, c.Color, boolToInt(c.IsDefault), c.SortOrder)
	if err != nil {
		return 0, fmt.Errorf("insert category: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("category insert id: %w", err)
	}
	return id, nil
}

func (r *SQLiteRepository) UpdateCategory(ctx context.Context, c core.Category) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE categories SET name = ?, icon = ?, color = ?, is_default = ?, sort_order = ? WHERE id = ?`,
		c.Name, c.Icon, c.Color, boolToInt(c.IsDefault), c.SortOrder, c.ID)
	if err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	return nil
}

// DeleteCategory removes the category. The FK cascade deletes its
// transactions and budgets in the same statement; there is no recovery.
func (r *SQLiteRepository) DeleteCategory(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	slog.InfoContext(ctx, "Category deleted with cascade", "id", id)
	return nil
}

// --- transactions ---

const transactionSelect = `
SELECT t.id, t.amount_cents, t.type, t.description, t.date_ms, t.created_ms,
       t.category_id, c.id, c.name, c.type, c.icon, c.color, c.is_default, c.sort_order
FROM transactions t
LEFT JOIN categories c ON c.id = t.category_id`

func scanTransaction(row interface{ Scan(...any) error }) (core.Transaction, error) {
	var (
		tx         core.Transaction
		dateMs     int64
		createdMs  int64
		categoryID int64

		cID        sql.NullInt64
		cName      sql.NullString
		cType      sql.NullString
		cIcon      sql.NullString
		cColor     sql.NullString
		cDefault   sql.NullInt64
		cSortOrder sql.NullInt64
	)
	err := row.Scan(&tx.ID, &tx.Amount.Cents, &tx.Type, &tx.Description, &dateMs, &createdMs,
		&categoryID, &cID, &cName, &cType, &cIcon, &cColor, &cDefault, &cSortOrder)
	if err != nil {
		return core.Transaction{}, err
	}
	tx.Date = time.UnixMilli(dateMs).UTC()
	tx.CreatedAt = time.UnixMilli(createdMs).UTC()
	if cID.Valid {
		tx.Category = core.Category{
			ID:        cID.Int64,
			Name:      cName.String,
			Type:      core.TransactionType(cType.String),
			Icon:      cIcon.String,
			Color:     cColor.String,
			IsDefault: cDefault.Int64 != 0,
			SortOrder: int(cSortOrder.Int64),
		}
	} else {
		// Dangling reference; cascade should prevent this, map defensively.
		tx.Category = core.UnknownCategory(categoryID, tx.Type)
	}
	return tx, nil
}

func (r *SQLiteRepository) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, transactionSelect+` ORDER BY t.date_ms DESC, t.created_ms DESC`)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()
	return collectTransactions(rows)
}

func (r *SQLiteRepository) ListRecentTransactions(ctx context.Context, limit int) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		transactionSelect+` ORDER BY t.date_ms DESC, t.created_ms DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent transactions: %w", err)
	}
	defer rows.Close()
	return collectTransactions(rows)
}

func (r *SQLiteRepository) ListTransactionsByDateRange(ctx context.Context, start, end time.Time) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		transactionSelect+` WHERE t.date_ms BETWEEN ? AND ? ORDER BY t.date_ms DESC, t.created_ms DESC`,
		start.UnixMilli(), end.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("list transactions by date range: %w", err)
	}
	defer rows.Close()
	return collectTransactions(rows)
}

func collectTransactions(rows *sql.Rows) ([]core.Transaction, error) {
	var out []core.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, tx)
	}
	return out, rows.Err()
}

// GetTransaction returns nil, nil when the id is absent.
func (r *SQLiteRepository) GetTransaction(ctx context.Context, id int64) (*core.Transaction, error) {
	row := r.db.QueryRowContext(ctx, transactionSelect+` WHERE t.id = ?`, id)
	tx, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get transaction: %w", err)
	}
	return &tx, nil
}

func (r *SQLiteRepository) InsertTransaction(ctx context.Context, tx core.Transaction) (int64, error) {
	createdAt := tx.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions (amount_cents, type, category_id, description, date_ms, created_ms)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		tx.Amount.Cents, string(tx.Type), tx.Category.ID, tx.Description,
		tx.Date.UnixMilli(), createdAt.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("insert transaction: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("transaction insert id: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved",
		"id", id,
		"type", tx.Type,
		"amount_cents", tx.Amount.Cents,
		"category_id", tx.Category.ID)
	return id, nil
}

// UpdateTransaction replaces the full record except the immutable creation
// timestamp.
func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, tx core.Transaction) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET amount_cents = ?, type = ?, category_id = ?, description = ?, date_ms = ?
		 WHERE id = ?`,
		tx.Amount.Cents, string(tx.Type), tx.Category.ID, tx.Description, tx.Date.UnixMilli(), tx.ID)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	return nil
}

// --- budgets ---

const budgetSelect = `
SELECT b.id, b.amount_cents, b.period, b.start_ms, b.end_ms, b.created_ms,
       b.category_id, c.id, c.name, c.type, c.icon, c.color, c.is_default, c.sort_order
FROM budgets b
LEFT JOIN categories c ON c.id = b.category_id`

func scanBudget(row interface{ Scan(...any) error }) (core.Budget, error) {
	var (
		b          core.Budget
		startMs    int64
		endMs      int64
		createdMs  int64
		categoryID int64

		cID        sql.NullInt64
		cName      sql.NullString
		cType      sql.NullString
		cIcon      sql.NullString
		cColor     sql.NullString
		cDefault   sql.NullInt64
		cSortOrder sql.NullInt64
	)
	err := row.Scan(&b.ID, &b.Amount.Cents, &b.Period, &startMs, &endMs, &createdMs,
		&categoryID, &cID, &cName, &cType, &cIcon, &cColor, &cDefault, &cSortOrder)
	if err != nil {
		return core.Budget{}, err
	}
	b.StartDate = time.UnixMilli(startMs).UTC()
	b.EndDate = time.UnixMilli(endMs).UTC()
	b.CreatedAt = time.UnixMilli(createdMs).UTC()
	if cID.Valid {
		b.Category = core.Category{
			ID:        cID.Int64,
			Name:      cName.String,
			Type:      core.TransactionType(cType.String),
			Icon:      cIcon.String,
			Color:     cColor.String,
			IsDefault: cDefault.Int64 != 0,
			SortOrder: int(cSortOrder.Int64),
		}
	} else {
		b.Category = core.UnknownCategory(categoryID, core.Expense)
	}
	return b, nil
}

func (r *SQLiteRepository) ListBudgets(ctx context.Context) ([]core.Budget, error) {
	rows, err := r.db.QueryContext(ctx, budgetSelect+` ORDER BY b.created_ms DESC`)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()
	return collectBudgets(rows)
}

// ListActiveBudgets returns budgets whose stored window covers at.
func (r *SQLiteRepository) ListActiveBudgets(ctx context.Context, at time.Time) ([]core.Budget, error) {
	ms := at.UnixMilli()
	rows, err := r.db.QueryContext(ctx,
		budgetSelect+` WHERE b.start_ms <= ? AND b.end_ms >= ? ORDER BY b.created_ms DESC`, ms, ms)
	if err != nil {
		return nil, fmt.Errorf("list active budgets: %w", err)
	}
	defer rows.Close()
	return collectBudgets(rows)
}

func collectBudgets(rows *sql.Rows) ([]core.Budget, error) {
	var out []core.Budget
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// GetBudget returns nil, nil when the id is absent.
func (r *SQLiteRepository) GetBudget(ctx context.Context, id int64) (*core.Budget, error) {
	row := r.db.QueryRowContext(ctx, budgetSelect+` WHERE b.id = ?`, id)
	b, err := scanBudget(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get budget: %w", err)
	}
	return &b, nil
}

func (r *SQLiteRepository) InsertBudget(ctx context.Context, b core.Budget) (int64, error) {
	createdAt := b.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO budgets (category_id, amount_cents, period, start_ms, end_ms, created_ms)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		b.Category.ID, b.Amount.Cents, string(b.Period),
		b.StartDate.UnixMilli(), b.EndDate.UnixMilli(), createdAt.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("insert budget: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("budget insert id: %w", err)
	}
	return id, nil
}

func (r *SQLiteRepository) UpdateBudget(ctx context.Context, b core.Budget) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE budgets SET category_id = ?, amount_cents = ?, period = ?, start_ms = ?, end_ms = ?
		 WHERE id = ?`,
		b.Category.ID, b.Amount.Cents, string(b.Period),
		b.StartDate.UnixMilli(), b.EndDate.UnixMilli(), b.ID)
	if err != nil {
		return fmt.Errorf("update budget: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) DeleteBudget(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM budgets WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	return nil
}

// --- storage-side aggregates ---

// MonthlyTotal is a storage-side sum for one type and month. The stats
// package computes the same figure from a raw snapshot; this exists as the
// cheaper path when only the total is needed.
func (r *SQLiteRepository) MonthlyTotal(ctx context.Context, typ core.TransactionType, start, end time.Time) (core.Money, error) {
	var cents sql.NullInt64
	err := r.db.QueryRowContext(ctx,
		`SELECT SUM(amount_cents) FROM transactions WHERE type = ? AND date_ms BETWEEN ? AND ?`,
		string(typ), start.UnixMilli(), end.UnixMilli()).Scan(&cents)
	if err != nil {
		return core.Money{}, fmt.Errorf("monthly total: %w", err)
	}
	return core.Money{Cents: cents.Int64}, nil
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
