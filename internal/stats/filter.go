// Package stats contains the pure aggregation routines that turn raw
// transaction snapshots into the data the views render: filtering, period
// narrowing, monthly series, category breakdowns, daily calendar totals, and
// budget usage. Nothing here does I/O or holds state; every function takes a
// snapshot and returns a fresh result.
package stats

import (
	"sort"
	"strings"
	"time"

	"github.com/zhangyujiu/HouseKeeper/internal/core"
	"github.com/zhangyujiu/HouseKeeper/internal/dates"
)

// Filter is the optional criteria set for the transaction list view. Nil
// fields do not constrain; supplied fields combine with logical AND.
type Filter struct {
	Type       *core.TransactionType
	CategoryID *int64
	Start      *time.Time // inclusive
	End        *time.Time // inclusive
	Query      string     // case-insensitive substring over description or category name
}

// Apply returns the subset of txs matching the filter, sorted by occurrence
// date descending. An empty filter returns every transaction (still sorted).
// A range with Start after End matches nothing; no implicit swap. A blank or
// whitespace-only Query is treated as no query filter.
func Apply(txs []core.Transaction, f Filter) []core.Transaction {
	if f.Start != nil && f.End != nil && f.Start.After(*f.End) {
		return []core.Transaction{}
	}

	query := strings.ToLower(strings.TrimSpace(f.Query))

	out := make([]core.Transaction, 0, len(txs))
	for _, tx := range txs {
		if f.Type != nil && tx.Type != *f.Type {
			continue
		}
		if f.CategoryID != nil && tx.Category.ID != *f.CategoryID {
			continue
		}
		if f.Start != nil && tx.Date.Before(*f.Start) {
			continue
		}
		if f.End != nil && tx.Date.After(*f.End) {
			continue
		}
		if query != "" && !matchesQuery(tx, query) {
			continue
		}
		out = append(out, tx)
	}

	// Stable keeps input order for same-date transactions.
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.After(out[j].Date)
	})
	return out
}

func matchesQuery(tx core.Transaction, lowered string) bool {
	return strings.Contains(strings.ToLower(tx.Description), lowered) ||
		strings.Contains(strings.ToLower(tx.Category.Name), lowered)
}

// OnDay narrows txs to those occurring on the same calendar day as day,
// sorted by date descending. Used for the calendar view's drill-down.
func OnDay(txs []core.Transaction, day time.Time) []core.Transaction {
	start := dates.StartOfDay(day)
	end := dates.EndOfDay(day)
	return Apply(txs, Filter{Start: &start, End: &end})
}
