// Package services orchestrates ledger operations: validated writes that
// fan out change notifications, and read paths that assemble the view
// states the API serves.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/zhangyujiu/HouseKeeper/internal/core"
	"github.com/zhangyujiu/HouseKeeper/internal/dates"
	"github.com/zhangyujiu/HouseKeeper/internal/stats"
	"github.com/zhangyujiu/HouseKeeper/internal/watch"
)

var (
	ErrCategoryNotFound      = errors.New("category not found")
	ErrTransactionNotFound   = errors.New("transaction not found")
	ErrDuplicateCategoryName = errors.New("category name already used for this type")
)

// Repository is the storage surface the service needs. Implemented by
// storage.SQLiteRepository.
type Repository interface {
	ListCategories(ctx context.Context) ([]core.Category, error)
	ListCategoriesByType(ctx context.Context, typ core.TransactionType) ([]core.Category, error)
	GetCategory(ctx context.Context, id int64) (*core.Category, error)
	CategoryNameExists(ctx context.Context, name string, typ core.TransactionType) (bool, error)
	InsertCategory(ctx context.Context, c core.Category) (int64, error)
	UpdateCategory(ctx context.Context, c core.Category) error
	DeleteCategory(ctx context.Context, id int64) error

	ListTransactions(ctx context.Context) ([]core.Transaction, error)
	ListRecentTransactions(ctx context.Context, limit int) ([]core.Transaction, error)
	ListTransactionsByDateRange(ctx context.Context, start, end time.Time) ([]core.Transaction, error)
	GetTransaction(ctx context.Context, id int64) (*core.Transaction, error)
	InsertTransaction(ctx context.Context, tx core.Transaction) (int64, error)
	UpdateTransaction(ctx context.Context, tx core.Transaction) error
	DeleteTransaction(ctx context.Context, id int64) error

	ListBudgets(ctx context.Context) ([]core.Budget, error)
	ListActiveBudgets(ctx context.Context, at time.Time) ([]core.Budget, error)
	GetBudget(ctx context.Context, id int64) (*core.Budget, error)
	InsertBudget(ctx context.Context, b core.Budget) (int64, error)
	UpdateBudget(ctx context.Context, b core.Budget) error
	DeleteBudget(ctx context.Context, id int64) error

	MonthlyTotal(ctx context.Context, typ core.TransactionType, start, end time.Time) (core.Money, error)
}

// ChangePublisher pushes change notifications to the message broker.
// Implemented by amqp.Client; nil disables publishing.
type ChangePublisher interface {
	PublishChange(ctx context.Context, entity, action string, id int64) error
}

// LedgerService coordinates storage, the in-process change hub and the
// optional broker. Writes never fail because a notification could not be
// delivered; the record is already persisted.
type LedgerService struct {
	repo      Repository
	hub       *watch.Hub
	publisher ChangePublisher
	now       func() time.Time
}

func NewLedgerService(repo Repository, hub *watch.Hub, publisher ChangePublisher) *LedgerService {
	return &LedgerService{
		repo:      repo,
		hub:       hub,
		publisher: publisher,
		now:       time.Now,
	}
}

func (s *LedgerService) notify(ctx context.Context, entity watch.Entity, action watch.Action, id int64) {
	if s.hub != nil {
		s.hub.Publish(watch.Change{Entity: entity, Action: action, ID: id})
	}
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishChange(ctx, string(entity), string(action), id); err != nil {
		slog.ErrorContext(ctx, "Failed to publish change message",
			"entity", entity, "action", action, "id", id, "error", err)
	}
}

// --- transactions ---

// SaveTransaction validates and persists a transaction, creating when
// tx.ID is zero and updating otherwise. The category must exist and carry
// the same type as the transaction.
func (s *LedgerService) SaveTransaction(ctx context.Context, tx core.Transaction) (int64, error) {
	cat, err := s.repo.GetCategory(ctx, tx.Category.ID)
	if err != nil {
		return 0, fmt.Errorf("resolve category: %w", err)
	}
	if cat == nil {
		return 0, ErrCategoryNotFound
	}
	tx.Category = *cat

	if err := tx.Validate(); err != nil {
		return 0, err
	}

	if tx.ID == 0 {
		id, err := s.repo.InsertTransaction(ctx, tx)
		if err != nil {
			return 0, fmt.Errorf("insert transaction: %w", err)
		}
		s.notify(ctx, watch.EntityTransaction, watch.ActionCreated, id)
		return id, nil
	}

	if err := s.repo.UpdateTransaction(ctx, tx); err != nil {
		return 0, fmt.Errorf("update transaction: %w", err)
	}
	s.notify(ctx, watch.EntityTransaction, watch.ActionUpdated, tx.ID)
	return tx.ID, nil
}

func (s *LedgerService) GetTransaction(ctx context.Context, id int64) (core.Transaction, error) {
	tx, err := s.repo.GetTransaction(ctx, id)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	if tx == nil {
		return core.Transaction{}, ErrTransactionNotFound
	}
	return *tx, nil
}

func (s *LedgerService) DeleteTransaction(ctx context.Context, id int64) error {
	if err := s.repo.DeleteTransaction(ctx, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	s.notify(ctx, watch.EntityTransaction, watch.ActionDeleted, id)
	return nil
}

// Transactions returns the filtered ledger, most recent first.
func (s *LedgerService) Transactions(ctx context.Context, f stats.Filter) ([]core.Transaction, error) {
	txs, err := s.repo.ListTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return stats.Apply(txs, f), nil
}

// --- categories ---

func (s *LedgerService) Categories(ctx context.Context) ([]core.Category, error) {
	return s.repo.ListCategories(ctx)
}

func (s *LedgerService) CategoriesByType(ctx context.Context, typ core.TransactionType) ([]core.Category, error) {
	if !typ.Valid() {
		return nil, core.ErrInvalidType
	}
	return s.repo.ListCategoriesByType(ctx, typ)
}

// SaveCategory validates and persists a category. Names are unique per
// type; the income and expense namespaces do not collide.
func (s *LedgerService) SaveCategory(ctx context.Context, c core.Category) (int64, error) {
	if err := c.Validate(); err != nil {
		return 0, err
	}

	if c.ID == 0 {
		taken, err := s.repo.CategoryNameExists(ctx, c.Name, c.Type)
		if err != nil {
			return 0, fmt.Errorf("check category name: %w", err)
		}
		if taken {
			return 0, ErrDuplicateCategoryName
		}

		id, err := s.repo.InsertCategory(ctx, c)
		if err != nil {
			return 0, fmt.Errorf("insert category: %w", err)
		}
		s.notify(ctx, watch.EntityCategory, watch.ActionCreated, id)
		return id, nil
	}

	existing, err := s.repo.GetCategory(ctx, c.ID)
	if err != nil {
		return 0, fmt.Errorf("get category: %w", err)
	}
	if existing == nil {
		return 0, ErrCategoryNotFound
	}
	if existing.Name != c.Name {
		taken, err := s.repo.CategoryNameExists(ctx, c.Name, c.Type)
		if err != nil {
			return 0, fmt.Errorf("check category name: %w", err)
		}
		if taken {
			return 0, ErrDuplicateCategoryName
		}
	}

	if err := s.repo.UpdateCategory(ctx, c); err != nil {
		return 0, fmt.Errorf("update category: %w", err)
	}
	s.notify(ctx, watch.EntityCategory, watch.ActionUpdated, c.ID)
	return c.ID, nil
}

// DeleteCategory removes a category together with its transactions and
// budgets via the storage cascade.
func (s *LedgerService) DeleteCategory(ctx context.Context, id int64) error {
	if err := s.repo.DeleteCategory(ctx, id); err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	s.notify(ctx, watch.EntityCategory, watch.ActionDeleted, id)
	return nil
}

// --- budgets ---

// SaveBudget validates and persists a budget. A zero window is derived
// from the period anchored on the current time: the calendar month for
// MONTHLY, the calendar year for YEARLY.
func (s *LedgerService) SaveBudget(ctx context.Context, b core.Budget) (int64, error) {
	if b.StartDate.IsZero() && b.EndDate.IsZero() && b.Period.Valid() {
		b.StartDate, b.EndDate = periodWindow(b.Period, s.now())
	}

	cat, err := s.repo.GetCategory(ctx, b.Category.ID)
	if err != nil {
		return 0, fmt.Errorf("resolve category: %w", err)
	}
	if cat == nil {
		return 0, ErrCategoryNotFound
	}
	b.Category = *cat

	if err := b.Validate(); err != nil {
		return 0, err
	}

	if b.ID == 0 {
		id, err := s.repo.InsertBudget(ctx, b)
		if err != nil {
			return 0, fmt.Errorf("insert budget: %w", err)
		}
		s.notify(ctx, watch.EntityBudget, watch.ActionCreated, id)
		return id, nil
	}

	if err := s.repo.UpdateBudget(ctx, b); err != nil {
		return 0, fmt.Errorf("update budget: %w", err)
	}
	s.notify(ctx, watch.EntityBudget, watch.ActionUpdated, b.ID)
	return b.ID, nil
}

func (s *LedgerService) DeleteBudget(ctx context.Context, id int64) error {
	if err := s.repo.DeleteBudget(ctx, id); err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	s.notify(ctx, watch.EntityBudget, watch.ActionDeleted, id)
	return nil
}

// BudgetUsage evaluates spending against one budget over its stored
// [start, end] window. A missing budget reports zero usage rather than
// an error, so dashboards degrade instead of breaking.
func (s *LedgerService) BudgetUsage(ctx context.Context, id int64) (stats.BudgetUsage, error) {
	b, err := s.repo.GetBudget(ctx, id)
	if err != nil {
		return stats.BudgetUsage{}, fmt.Errorf("get budget: %w", err)
	}
	if b == nil {
		return stats.BudgetUsage{}, nil
	}
	return s.evaluateBudget(ctx, *b)
}

// BudgetsOverview evaluates every budget over its stored window.
func (s *LedgerService) BudgetsOverview(ctx context.Context) ([]stats.BudgetUsage, error) {
	budgets, err := s.repo.ListBudgets(ctx)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	return s.evaluateBudgets(ctx, budgets)
}

// ActiveBudgets evaluates only the budgets whose stored window covers at.
func (s *LedgerService) ActiveBudgets(ctx context.Context, at time.Time) ([]stats.BudgetUsage, error) {
	budgets, err := s.repo.ListActiveBudgets(ctx, at)
	if err != nil {
		return nil, fmt.Errorf("list active budgets: %w", err)
	}
	return s.evaluateBudgets(ctx, budgets)
}

func (s *LedgerService) evaluateBudgets(ctx context.Context, budgets []core.Budget) ([]stats.BudgetUsage, error) {
	usages := make([]stats.BudgetUsage, 0, len(budgets))
	for _, b := range budgets {
		usage, err := s.evaluateBudget(ctx, b)
		if err != nil {
			return nil, err
		}
		usages = append(usages, usage)
	}
	return usages, nil
}

func (s *LedgerService) evaluateBudget(ctx context.Context, b core.Budget) (stats.BudgetUsage, error) {
	// Usage reads the stored [start, end] window as persisted; the period
	// kind only matters when a window is first derived at save time.
	txs, err := s.repo.ListTransactionsByDateRange(ctx, b.StartDate, b.EndDate)
	if err != nil {
		return stats.BudgetUsage{}, fmt.Errorf("load budget window: %w", err)
	}
	return stats.EvaluateBudget(b, txs), nil
}

func periodWindow(p core.BudgetPeriod, now time.Time) (time.Time, time.Time) {
	if p == core.Yearly {
		return dates.StartOfYear(now), dates.EndOfYear(now)
	}
	return dates.StartOfMonth(now), dates.EndOfMonth(now)
}

// --- views ---

// HomeView is the landing screen state: this month's totals and the most
// recent activity.
type HomeView struct {
	Month        string
	Income       core.Money
	Expense      core.Money
	Balance      core.Money
	Recent       []core.Transaction
	BudgetAlerts []stats.BudgetUsage
}

func (s *LedgerService) Home(ctx context.Context, recentLimit int) (HomeView, error) {
	now := s.now()
	start, end := dates.StartOfMonth(now), dates.EndOfMonth(now)

	income, err := s.repo.MonthlyTotal(ctx, core.Income, start, end)
	if err != nil {
		return HomeView{}, fmt.Errorf("month income: %w", err)
	}
	expense, err := s.repo.MonthlyTotal(ctx, core.Expense, start, end)
	if err != nil {
		return HomeView{}, fmt.Errorf("month expense: %w", err)
	}
	recent, err := s.repo.ListRecentTransactions(ctx, recentLimit)
	if err != nil {
		return HomeView{}, fmt.Errorf("recent transactions: %w", err)
	}

	usages, err := s.BudgetsOverview(ctx)
	if err != nil {
		return HomeView{}, err
	}
	var alerts []stats.BudgetUsage
	for _, u := range usages {
		if u.Exceeded {
			alerts = append(alerts, u)
		}
	}

	return HomeView{
		Month:        dates.MonthKey(now),
		Income:       income,
		Expense:      expense,
		Balance:      core.Money{Cents: income.Cents - expense.Cents},
		Recent:       recent,
		BudgetAlerts: alerts,
	}, nil
}

// StatisticsView is the statistics screen state for one period and type.
// An empty Type means no type filter was applied.
type StatisticsView struct {
	Period       stats.Period
	Type         core.TransactionType
	TotalIncome  core.Money
	TotalExpense core.Money
	Series       []stats.MonthPoint
	Breakdown    []stats.CategoryShare
}

// Statistics assembles totals, the monthly trend and the category
// breakdown from the transactions selected by period and, when typ is
// non-empty, by transaction type.
func (s *LedgerService) Statistics(ctx context.Context, period stats.Period, typ core.TransactionType) (StatisticsView, error) {
	if !period.Valid() {
		return StatisticsView{}, fmt.Errorf("%w: %q", stats.ErrInvalidPeriod, period)
	}
	if typ != "" && !typ.Valid() {
		return StatisticsView{}, core.ErrInvalidType
	}

	txs, err := s.repo.ListTransactions(ctx)
	if err != nil {
		return StatisticsView{}, fmt.Errorf("list transactions: %w", err)
	}

	selected := stats.InPeriod(txs, period, s.now())
	if typ != "" {
		var filtered []core.Transaction
		for _, tx := range selected {
			if tx.Type == typ {
				filtered = append(filtered, tx)
			}
		}
		selected = filtered
	}

	return StatisticsView{
		Period:       period,
		Type:         typ,
		TotalIncome:  stats.TotalIncome(selected),
		TotalExpense: stats.TotalExpense(selected),
		Series:       stats.MonthlySeries(selected),
		Breakdown:    stats.CategoryBreakdown(selected),
	}, nil
}

// CalendarView is one month's calendar state: the grid layout, per-day
// totals and the month's aggregate.
type CalendarView struct {
	Grid         dates.MonthGrid
	Days         map[int]stats.DayTotal
	MonthIncome  core.Money
	MonthExpense core.Money
}

func (s *LedgerService) CalendarMonth(ctx context.Context, year int, month time.Month) (CalendarView, error) {
	anchor := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	start, end := dates.StartOfMonth(anchor), dates.EndOfMonth(anchor)

	txs, err := s.repo.ListTransactionsByDateRange(ctx, start, end)
	if err != nil {
		return CalendarView{}, fmt.Errorf("load month: %w", err)
	}

	return CalendarView{
		Grid:         dates.GridFor(year, month),
		Days:         stats.DailyTotals(txs),
		MonthIncome:  stats.TotalIncome(txs),
		MonthExpense: stats.TotalExpense(txs),
	}, nil
}

// DayTransactions is the calendar drill-down: everything recorded on one
// day, most recent first.
func (s *LedgerService) DayTransactions(ctx context.Context, day time.Time) ([]core.Transaction, error) {
	txs, err := s.repo.ListTransactionsByDateRange(ctx, dates.StartOfDay(day), dates.EndOfDay(day))
	if err != nil {
		return nil, fmt.Errorf("load day: %w", err)
	}
	return stats.OnDay(txs, day), nil
}
