package charts

import (
	"bytes"
	"testing"

	"github.com/zhangyujiu/HouseKeeper/internal/core"
	"github.com/zhangyujiu/HouseKeeper/internal/stats"
)

var pngMagic = []byte{0x89, 'P', 'N', 'G'}

func TestMonthlyTrendRendersPNG(t *testing.T) {
	r := NewRenderer()

	series := []stats.MonthPoint{
		{Month: "2024-01", Income: core.Money{Cents: 500_000}, Expense: core.Money{Cents: 320_000}},
		{Month: "2024-02", Income: core.Money{Cents: 500_000}, Expense: core.Money{Cents: 410_000}},
		{Month: "2024-03", Income: core.Money{Cents: 520_000}, Expense: core.Money{Cents: 280_000}},
	}

	png, err := r.MonthlyTrend(series)
	if err != nil {
		t.Fatalf("MonthlyTrend() error = %v", err)
	}
	if len(png) == 0 {
		t.Fatal("MonthlyTrend() returned empty bytes")
	}
	if !bytes.HasPrefix(png, pngMagic) {
		t.Errorf("MonthlyTrend() output does not start with PNG magic: % x", png[:4])
	}
}

func TestMonthlyTrendTooFewPoints(t *testing.T) {
	r := NewRenderer()

	png, err := r.MonthlyTrend([]stats.MonthPoint{
		{Month: "2024-01", Income: core.Money{Cents: 100}, Expense: core.Money{Cents: 50}},
	})
	if err != nil {
		t.Fatalf("MonthlyTrend() error = %v", err)
	}
	if png != nil {
		t.Errorf("MonthlyTrend() with one point returned %d bytes, want nil", len(png))
	}
}

func TestMonthlyTrendBadMonthKey(t *testing.T) {
	r := NewRenderer()

	_, err := r.MonthlyTrend([]stats.MonthPoint{
		{Month: "January"},
		{Month: "2024-02"},
	})
	if err == nil {
		t.Error("MonthlyTrend() with malformed month key should fail")
	}
}

func TestCategoryPieRendersPNG(t *testing.T) {
	r := NewRenderer()

	shares := []stats.CategoryShare{
		{
			Category:   core.Category{ID: 1, Name: "餐饮", Icon: "🍽️", Type: core.Expense},
			Amount:     core.Money{Cents: 120_000},
			Percentage: 75,
		},
		{
			Category:   core.Category{ID: 2, Name: "交通", Icon: "🚗", Type: core.Expense},
			Amount:     core.Money{Cents: 40_000},
			Percentage: 25,
		},
	}

	png, err := r.CategoryPie(shares)
	if err != nil {
		t.Fatalf("CategoryPie() error = %v", err)
	}
	if !bytes.HasPrefix(png, pngMagic) {
		t.Error("CategoryPie() output is not a PNG")
	}
}

func TestCategoryPieEmpty(t *testing.T) {
	r := NewRenderer()

	png, err := r.CategoryPie(nil)
	if err != nil {
		t.Fatalf("CategoryPie() error = %v", err)
	}
	if png != nil {
		t.Errorf("CategoryPie(nil) returned %d bytes, want nil", len(png))
	}

	// All-zero shares draw nothing either.
	png, err = r.CategoryPie([]stats.CategoryShare{
		{Category: core.Category{ID: 1, Name: "餐饮"}, Amount: core.Money{Cents: 0}},
	})
	if err != nil {
		t.Fatalf("CategoryPie() error = %v", err)
	}
	if png != nil {
		t.Error("CategoryPie() with zero amounts should return nil")
	}
}
