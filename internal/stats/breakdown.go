package stats

import (
	"sort"

	"github.com/zhangyujiu/HouseKeeper/internal/core"
)

// CategoryShare is one ranked entry of a category breakdown.
type CategoryShare struct {
	Category         core.Category
	Amount           core.Money
	TransactionCount int
	Percentage       float64 // share of the grand total, 0..100
}

// CategoryBreakdown groups txs by category identity and sums amount and
// count per category. Grouping is by category id, not name; two categories
// sharing a name stay separate. Percentage is each group's share of the sum
// across all groups in this invocation, or 0 when the grand total is 0.
// The full list is returned sorted by amount descending; capping the display
// to a top-N is the caller's concern.
func CategoryBreakdown(txs []core.Transaction) []CategoryShare {
	byCategory := make(map[int64]CategoryShare)
	for _, tx := range txs {
		share := byCategory[tx.Category.ID]
		share.Category = tx.Category
		share.Amount.Cents += tx.Amount.Cents
		share.TransactionCount++
		byCategory[tx.Category.ID] = share
	}

	var grandTotal int64
	for _, share := range byCategory {
		grandTotal += share.Amount.Cents
	}

	out := make([]CategoryShare, 0, len(byCategory))
	for _, share := range byCategory {
		if grandTotal > 0 {
			share.Percentage = float64(share.Amount.Cents) / float64(grandTotal) * 100
		}
		out = append(out, share)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Amount.Cents != out[j].Amount.Cents {
			return out[i].Amount.Cents > out[j].Amount.Cents
		}
		return out[i].Category.ID < out[j].Category.ID
	})
	return out
}
