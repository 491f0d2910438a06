package stats

import (
	"github.com/zhangyujiu/HouseKeeper/internal/core"
	"github.com/zhangyujiu/HouseKeeper/internal/dates"
)

// BudgetUsage is the evaluated state of one budget against a transaction
// snapshot.
type BudgetUsage struct {
	Budget   core.Budget
	Used     core.Money
	Exceeded bool
}

// Remaining returns the unspent part of the ceiling; negative when the
// budget is exceeded.
func (u BudgetUsage) Remaining() core.Money {
	return core.Money{Cents: u.Budget.Amount.Cents - u.Used.Cents}
}

// Ratio returns used/ceiling in 0..n for progress rendering; 0 when the
// ceiling is 0.
func (u BudgetUsage) Ratio() float64 {
	if u.Budget.Amount.Cents == 0 {
		return 0
	}
	return float64(u.Used.Cents) / float64(u.Budget.Amount.Cents)
}

// EvaluateBudget computes a budget's consumed amount from the snapshot:
// the sum over Expense transactions whose category matches the budget's and
// whose occurrence date falls within the budget's stored [start, end] window,
// both bounds inclusive. Exceeded uses strict inequality: usage exactly equal
// to the ceiling is not exceeded.
func EvaluateBudget(b core.Budget, txs []core.Transaction) BudgetUsage {
	var used int64
	for _, tx := range txs {
		if tx.Type != core.Expense {
			continue
		}
		if tx.Category.ID != b.Category.ID {
			continue
		}
		if !dates.Within(tx.Date, b.StartDate, b.EndDate) {
			continue
		}
		used += tx.Amount.Cents
	}
	return BudgetUsage{
		Budget:   b,
		Used:     core.Money{Cents: used},
		Exceeded: used > b.Amount.Cents,
	}
}

// EvaluateBudgets evaluates every budget in bs against the same snapshot,
// preserving input order.
func EvaluateBudgets(bs []core.Budget, txs []core.Transaction) []BudgetUsage {
	out := make([]BudgetUsage, len(bs))
	for i, b := range bs {
		out[i] = EvaluateBudget(b, txs)
	}
	return out
}
