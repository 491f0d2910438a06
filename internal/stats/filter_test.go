package stats

import (
	"testing"
	"time"

	"github.com/zhangyujiu/HouseKeeper/internal/core"
)

var (
	catFood   = core.Category{ID: 1, Name: "餐饮", Type: core.Expense}
	catRide   = core.Category{ID: 2, Name: "交通", Type: core.Expense}
	catSalary = core.Category{ID: 3, Name: "工资", Type: core.Income}
)

func day(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func tx(id int64, cents int64, typ core.TransactionType, cat core.Category, desc string, date time.Time) core.Transaction {
	return core.Transaction{
		ID:          id,
		Amount:      core.Money{Cents: cents},
		Type:        typ,
		Category:    cat,
		Description: desc,
		Date:        date,
	}
}

func sampleTxs() []core.Transaction {
	return []core.Transaction{
		tx(1, 10_000, core.Expense, catFood, "早餐", day(2024, 1, 5)),
		tx(2, 5_000, core.Expense, catFood, "lunch downtown", day(2024, 1, 20)),
		tx(3, 200_000, core.Income, catSalary, "", day(2024, 1, 1)),
		tx(4, 3_000, core.Expense, catRide, "taxi", day(2024, 2, 2)),
	}
}

func TestApplyNoFilters(t *testing.T) {
	txs := sampleTxs()
	got := Apply(txs, Filter{})
	if len(got) != len(txs) {
		t.Fatalf("expected %d transactions, got %d", len(txs), len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i].Date.After(got[i-1].Date) {
			t.Fatalf("not sorted descending at %d: %v after %v", i, got[i].Date, got[i-1].Date)
		}
	}
	if got[0].ID != 4 || got[len(got)-1].ID != 3 {
		t.Fatalf("unexpected order: first=%d last=%d", got[0].ID, got[len(got)-1].ID)
	}
}

func TestApplyDimensions(t *testing.T) {
	txs := sampleTxs()
	expense := core.Expense
	foodID := catFood.ID
	jan1 := day(2024, 1, 1)
	jan31 := day(2024, 1, 31)

	cases := []struct {
		name    string
		f       Filter
		wantIDs []int64
	}{
		{"by type", Filter{Type: &expense}, []int64{4, 2, 1}},
		{"by category", Filter{CategoryID: &foodID}, []int64{2, 1}},
		{"by range", Filter{Start: &jan1, End: &jan31}, []int64{2, 1, 3}},
		{"query on description", Filter{Query: "LUNCH"}, []int64{2}},
		{"query on category name", Filter{Query: "工资"}, []int64{3}},
		{"blank query is no filter", Filter{Query: "   "}, []int64{4, 2, 1, 3}},
		{"all dimensions AND", Filter{Type: &expense, CategoryID: &foodID, Start: &jan1, End: &jan31, Query: "lunch"}, []int64{2}},
		{"query matches nothing", Filter{Query: "nope"}, []int64{}},
	}
	for _, tc := range cases {
		got := Apply(txs, tc.f)
		if len(got) != len(tc.wantIDs) {
			t.Fatalf("%s: expected %d results, got %d", tc.name, len(tc.wantIDs), len(got))
		}
		for i, want := range tc.wantIDs {
			if got[i].ID != want {
				t.Fatalf("%s: position %d expected id %d, got %d", tc.name, i, want, got[i].ID)
			}
		}
	}
}

func TestApplyInvertedRangeIsEmpty(t *testing.T) {
	start := day(2024, 2, 1)
	end := day(2024, 1, 1)
	got := Apply(sampleTxs(), Filter{Start: &start, End: &end})
	if len(got) != 0 {
		t.Fatalf("start > end must yield empty result, got %d", len(got))
	}
}

func TestApplyRangeIsInclusive(t *testing.T) {
	start := day(2024, 1, 5)
	end := day(2024, 1, 20)
	got := Apply(sampleTxs(), Filter{Start: &start, End: &end})
	if len(got) != 2 {
		t.Fatalf("expected both boundary transactions, got %d", len(got))
	}
}

func TestOnDay(t *testing.T) {
	txs := sampleTxs()
	got := OnDay(txs, time.Date(2024, 1, 5, 15, 30, 0, 0, time.UTC))
	if len(got) != 1 || got[0].ID != 1 {
		t.Fatalf("expected transaction 1, got %v", got)
	}
	if got := OnDay(txs, day(2024, 1, 6)); len(got) != 0 {
		t.Fatalf("expected no transactions on empty day, got %d", len(got))
	}
}

func TestInsertThenFilterRoundTrip(t *testing.T) {
	txs := sampleTxs()
	added := tx(9, 777, core.Expense, catRide, "bus", day(2024, 3, 14))
	txs = append(txs, added)

	rideID := catRide.ID
	start := day(2024, 3, 14)
	end := start
	got := Apply(txs, Filter{CategoryID: &rideID, Start: &start, End: &end})
	if len(got) != 1 || got[0].ID != added.ID {
		t.Fatalf("round trip lost the inserted transaction: %v", got)
	}
}
