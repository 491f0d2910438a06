package stats

import (
	"github.com/zhangyujiu/HouseKeeper/internal/core"
)

// DayTotal is the per-day accumulation a calendar cell renders.
type DayTotal struct {
	Day              int // day of month, 1..31
	Income           core.Money
	Expense          core.Money
	TransactionCount int
}

// Net returns income minus expense for the day.
func (d DayTotal) Net() core.Money {
	return core.Money{Cents: d.Income.Cents - d.Expense.Cents}
}

// DailyTotals groups transactions by day of month, accumulating separate
// income and expense sums and a combined transaction count per day. The
// input must already be restricted to a single target month; this function
// does not filter by month itself. Days without transactions are absent
// from the returned map.
func DailyTotals(txs []core.Transaction) map[int]DayTotal {
	byDay := make(map[int]DayTotal)
	for _, tx := range txs {
		day := tx.Date.Day()
		total := byDay[day]
		total.Day = day
		switch tx.Type {
		case core.Income:
			total.Income.Cents += tx.Amount.Cents
		case core.Expense:
			total.Expense.Cents += tx.Amount.Cents
		}
		total.TransactionCount++
		byDay[day] = total
	}
	return byDay
}
