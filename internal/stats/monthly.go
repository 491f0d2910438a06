package stats

import (
	"sort"

	"github.com/zhangyujiu/HouseKeeper/internal/core"
	"github.com/zhangyujiu/HouseKeeper/internal/dates"
)

// Trend charts show at most the latest twelve populated months.
const maxSeriesPoints = 12

// MonthPoint is one point of the income/expense trend series.
type MonthPoint struct {
	Month   string // "2006-01" key
	Income  core.Money
	Expense core.Money
}

// Net returns income minus expense for the month.
func (p MonthPoint) Net() core.Money {
	return core.Money{Cents: p.Income.Cents - p.Expense.Cents}
}

// MonthlySeries groups txs by occurrence month and sums income and expense
// per month. Only months with at least one transaction appear; zero months
// are not synthesized. The series is sorted by month key ascending and then
// truncated to the most recent twelve points, so data spanning more than
// twelve populated months drops the oldest ones.
func MonthlySeries(txs []core.Transaction) []MonthPoint {
	byMonth := make(map[string]MonthPoint)
	for _, tx := range txs {
		key := dates.MonthKey(tx.Date)
		point := byMonth[key]
		point.Month = key
		switch tx.Type {
		case core.Income:
			point.Income.Cents += tx.Amount.Cents
		case core.Expense:
			point.Expense.Cents += tx.Amount.Cents
		}
		byMonth[key] = point
	}

	series := make([]MonthPoint, 0, len(byMonth))
	for _, point := range byMonth {
		series = append(series, point)
	}
	sort.Slice(series, func(i, j int) bool {
		return series[i].Month < series[j].Month
	})

	if len(series) > maxSeriesPoints {
		series = series[len(series)-maxSeriesPoints:]
	}
	return series
}

// TotalIncome sums the amounts of all Income transactions in txs.
func TotalIncome(txs []core.Transaction) core.Money {
	var total int64
	for _, tx := range txs {
		if tx.Type == core.Income {
			total += tx.Amount.Cents
		}
	}
	return core.Money{Cents: total}
}

// TotalExpense sums the amounts of all Expense transactions in txs.
func TotalExpense(txs []core.Transaction) core.Money {
	var total int64
	for _, tx := range txs {
		if tx.Type == core.Expense {
			total += tx.Amount.Cents
		}
	}
	return core.Money{Cents: total}
}
