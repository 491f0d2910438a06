package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/zhangyujiu/HouseKeeper/internal/services"
	"github.com/zhangyujiu/HouseKeeper/internal/storage"
	"github.com/zhangyujiu/HouseKeeper/internal/watch"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "api_test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository() error = %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	hub := watch.NewHub()
	ledger := services.NewLedgerService(repo, hub, nil)
	srv := NewServer(Options{Addr: ":0", RecentLimit: 10}, ledger, hub)

	ts := httptest.NewServer(srv.Handler)
	t.Cleanup(ts.Close)
	return ts
}

func doJSON(t *testing.T, method, url string, body any) (*http.Response, []byte) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode request: %v", err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()

	var out bytes.Buffer
	if _, err := out.ReadFrom(resp.Body); err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, out.Bytes()
}

func createCategory(t *testing.T, ts *httptest.Server, name, typ string) int64 {
	t.Helper()
	resp, body := doJSON(t, http.MethodPost, ts.URL+"/api/categories", map[string]any{
		"name": name, "type": typ, "icon": "🍽️", "color": "#FF6B6B",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create category: status %d, body %s", resp.StatusCode, body)
	}
	var c categoryResponse
	if err := json.Unmarshal(body, &c); err != nil {
		t.Fatalf("decode category: %v", err)
	}
	return c.ID
}

func createTransaction(t *testing.T, ts *httptest.Server, amount, typ string, catID int64, desc, date string) transactionResponse {
	t.Helper()
	resp, body := doJSON(t, http.MethodPost, ts.URL+"/api/transactions", map[string]any{
		"amount": amount, "type": typ, "category_id": catID, "description": desc, "date": date,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create transaction: status %d, body %s", resp.StatusCode, body)
	}
	var tx transactionResponse
	if err := json.Unmarshal(body, &tx); err != nil {
		t.Fatalf("decode transaction: %v", err)
	}
	return tx
}

func TestHealthEndpoints(t *testing.T) {
	ts := newTestServer(t)

	for _, path := range []string{"/healthz", "/readyz"} {
		resp, _ := doJSON(t, http.MethodGet, ts.URL+path, nil)
		if resp.StatusCode != http.StatusOK {
			t.Errorf("GET %s status = %d", path, resp.StatusCode)
		}
	}
}

func TestTransactionLifecycle(t *testing.T) {
	ts := newTestServer(t)
	catID := createCategory(t, ts, "餐饮", "EXPENSE")

	tx := createTransaction(t, ts, "25.50", "EXPENSE", catID, "午餐", "2024-03-15")
	if tx.AmountCents != 2550 || tx.Amount != "25.50" {
		t.Errorf("created amount = %d / %q", tx.AmountCents, tx.Amount)
	}
	if tx.Category.ID != catID || tx.Category.Name != "餐饮" {
		t.Errorf("created category = %+v", tx.Category)
	}

	resp, body := doJSON(t, http.MethodGet, fmt.Sprintf("%s/api/transactions/%d", ts.URL, tx.ID), nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get: status %d, body %s", resp.StatusCode, body)
	}

	resp, body = doJSON(t, http.MethodPut, fmt.Sprintf("%s/api/transactions/%d", ts.URL, tx.ID), map[string]any{
		"amount": "30.00", "type": "EXPENSE", "category_id": catID, "description": "晚餐", "date": "2024-03-15",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update: status %d, body %s", resp.StatusCode, body)
	}
	var updated transactionResponse
	if err := json.Unmarshal(body, &updated); err != nil {
		t.Fatalf("decode updated: %v", err)
	}
	if updated.AmountCents != 3000 || updated.Description != "晚餐" {
		t.Errorf("updated = %+v", updated)
	}

	resp, _ = doJSON(t, http.MethodDelete, fmt.Sprintf("%s/api/transactions/%d", ts.URL, tx.ID), nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete: status %d", resp.StatusCode)
	}

	resp, _ = doJSON(t, http.MethodGet, fmt.Sprintf("%s/api/transactions/%d", ts.URL, tx.ID), nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("get after delete: status %d, want 404", resp.StatusCode)
	}
}

func TestCreateTransactionValidation(t *testing.T) {
	ts := newTestServer(t)
	catID := createCategory(t, ts, "餐饮", "EXPENSE")

	tests := []struct {
		name string
		body map[string]any
		want int
	}{
		{
			name: "zero amount",
			body: map[string]any{"amount": "0", "type": "EXPENSE", "category_id": catID, "date": "2024-03-15"},
			want: http.StatusUnprocessableEntity,
		},
		{
			name: "amount over cap",
			body: map[string]any{"amount": "1000000000.00", "type": "EXPENSE", "category_id": catID, "date": "2024-03-15"},
			want: http.StatusUnprocessableEntity,
		},
		{
			name: "unknown category",
			body: map[string]any{"amount": "10.00", "type": "EXPENSE", "category_id": 9999, "date": "2024-03-15"},
			want: http.StatusNotFound,
		},
		{
			name: "bad date",
			body: map[string]any{"amount": "10.00", "type": "EXPENSE", "category_id": catID, "date": "15/03/2024"},
			want: http.StatusUnprocessableEntity,
		},
		{
			name: "unknown field",
			body: map[string]any{"amount": "10.00", "type": "EXPENSE", "category_id": catID, "date": "2024-03-15", "extra": true},
			want: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := doJSON(t, http.MethodPost, ts.URL+"/api/transactions", tt.body)
			if resp.StatusCode != tt.want {
				t.Errorf("status = %d, want %d (body %s)", resp.StatusCode, tt.want, body)
			}
		})
	}
}

func TestCreateTransactionTypeMismatch(t *testing.T) {
	ts := newTestServer(t)
	incomeCat := createCategory(t, ts, "工资", "INCOME")

	resp, body := doJSON(t, http.MethodPost, ts.URL+"/api/transactions", map[string]any{
		"amount": "10.00", "type": "EXPENSE", "category_id": incomeCat, "date": "2024-03-15",
	})
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422 (body %s)", resp.StatusCode, body)
	}
}

func TestListTransactionsWithFilter(t *testing.T) {
	ts := newTestServer(t)
	food := createCategory(t, ts, "餐饮", "EXPENSE")
	ride := createCategory(t, ts, "交通", "EXPENSE")

	createTransaction(t, ts, "20.00", "EXPENSE", food, "早餐", "2024-03-01")
	createTransaction(t, ts, "30.00", "EXPENSE", food, "午餐", "2024-03-10")
	createTransaction(t, ts, "15.00", "EXPENSE", ride, "地铁", "2024-03-05")

	resp, body := doJSON(t, http.MethodGet,
		fmt.Sprintf("%s/api/transactions?category_id=%d", ts.URL, food), nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list: status %d", resp.StatusCode)
	}
	var txs []transactionResponse
	if err := json.Unmarshal(body, &txs); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(txs) != 2 {
		t.Fatalf("filtered list has %d entries, want 2", len(txs))
	}
	// Most recent first.
	if txs[0].Date != "2024-03-10" || txs[1].Date != "2024-03-01" {
		t.Errorf("order = %s, %s", txs[0].Date, txs[1].Date)
	}

	// Query matches descriptions.
	resp, body = doJSON(t, http.MethodGet, ts.URL+"/api/transactions?q="+"%E5%9C%B0%E9%93%81", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("query list: status %d", resp.StatusCode)
	}
	if err := json.Unmarshal(body, &txs); err != nil {
		t.Fatalf("decode query list: %v", err)
	}
	if len(txs) != 1 || txs[0].Description != "地铁" {
		t.Errorf("query result = %+v", txs)
	}

	// Malformed filter fails the request.
	resp, _ = doJSON(t, http.MethodGet, ts.URL+"/api/transactions?category_id=abc", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bad filter status = %d, want 400", resp.StatusCode)
	}
}

func TestCategoryDuplicateName(t *testing.T) {
	ts := newTestServer(t)
	createCategory(t, ts, "餐饮", "EXPENSE")

	resp, body := doJSON(t, http.MethodPost, ts.URL+"/api/categories", map[string]any{
		"name": "餐饮", "type": "EXPENSE", "icon": "🍜", "color": "#000000",
	})
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("duplicate name status = %d, want 409 (body %s)", resp.StatusCode, body)
	}

	// Same name, other type is allowed.
	resp, _ = doJSON(t, http.MethodPost, ts.URL+"/api/categories", map[string]any{
		"name": "餐饮", "type": "INCOME", "icon": "💰", "color": "#000000",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Errorf("other-type status = %d, want 201", resp.StatusCode)
	}
}

func TestDeleteCategoryCascadesOverAPI(t *testing.T) {
	ts := newTestServer(t)
	catID := createCategory(t, ts, "餐饮", "EXPENSE")
	tx := createTransaction(t, ts, "10.00", "EXPENSE", catID, "午餐", "2024-03-15")

	resp, _ := doJSON(t, http.MethodDelete, fmt.Sprintf("%s/api/categories/%d", ts.URL, catID), nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete category status = %d", resp.StatusCode)
	}

	resp, _ = doJSON(t, http.MethodGet, fmt.Sprintf("%s/api/transactions/%d", ts.URL, tx.ID), nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("transaction after cascade status = %d, want 404", resp.StatusCode)
	}
}

func TestBudgetUsageEndpoint(t *testing.T) {
	ts := newTestServer(t)
	catID := createCategory(t, ts, "餐饮", "EXPENSE")

	today := time.Now().Format("2006-01-02")
	createTransaction(t, ts, "80.00", "EXPENSE", catID, "聚餐", today)

	resp, body := doJSON(t, http.MethodPost, ts.URL+"/api/budgets", map[string]any{
		"amount": "50.00", "period": "MONTHLY", "category_id": catID,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create budget: status %d, body %s", resp.StatusCode, body)
	}
	var usage budgetUsageResponse
	if err := json.Unmarshal(body, &usage); err != nil {
		t.Fatalf("decode usage: %v", err)
	}
	if usage.UsedCents != 8000 {
		t.Errorf("UsedCents = %d, want 8000", usage.UsedCents)
	}
	if !usage.Exceeded {
		t.Error("Exceeded = false at 8000/5000")
	}

	resp, body = doJSON(t, http.MethodGet,
		fmt.Sprintf("%s/api/budgets/%d/usage", ts.URL, usage.Budget.ID), nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("usage: status %d, body %s", resp.StatusCode, body)
	}

	// Missing budget reports zero usage, not an error.
	resp, body = doJSON(t, http.MethodGet, ts.URL+"/api/budgets/9999/usage", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("missing usage: status %d", resp.StatusCode)
	}
	if err := json.Unmarshal(body, &usage); err != nil {
		t.Fatalf("decode missing usage: %v", err)
	}
	if usage.UsedCents != 0 || usage.Exceeded {
		t.Errorf("missing budget usage = %+v, want zero", usage)
	}
}

func TestListBudgetsActiveAt(t *testing.T) {
	ts := newTestServer(t)
	catID := createCategory(t, ts, "餐饮", "EXPENSE")

	resp, body := doJSON(t, http.MethodPost, ts.URL+"/api/budgets", map[string]any{
		"amount": "50.00", "period": "MONTHLY", "category_id": catID,
		"start_date": "2024-03-01", "end_date": "2024-03-31",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create budget: status %d, body %s", resp.StatusCode, body)
	}

	resp, body = doJSON(t, http.MethodGet, ts.URL+"/api/budgets?active_at=2024-03-15", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("active list: status %d", resp.StatusCode)
	}
	var usages []budgetUsageResponse
	if err := json.Unmarshal(body, &usages); err != nil {
		t.Fatalf("decode active list: %v", err)
	}
	if len(usages) != 1 {
		t.Errorf("active at 2024-03-15: %d budgets, want 1", len(usages))
	}

	resp, body = doJSON(t, http.MethodGet, ts.URL+"/api/budgets?active_at=2024-06-15", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("inactive list: status %d", resp.StatusCode)
	}
	if err := json.Unmarshal(body, &usages); err != nil {
		t.Fatalf("decode inactive list: %v", err)
	}
	if len(usages) != 0 {
		t.Errorf("active at 2024-06-15: %d budgets, want 0", len(usages))
	}

	resp, _ = doJSON(t, http.MethodGet, ts.URL+"/api/budgets?active_at=nope", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bad active_at status = %d, want 400", resp.StatusCode)
	}
}

func TestStatisticsEndpoint(t *testing.T) {
	ts := newTestServer(t)
	food := createCategory(t, ts, "餐饮", "EXPENSE")
	salary := createCategory(t, ts, "工资", "INCOME")

	today := time.Now().Format("2006-01-02")
	createTransaction(t, ts, "5000.00", "INCOME", salary, "工资", today)
	createTransaction(t, ts, "400.00", "EXPENSE", food, "餐饮", today)

	// Without a type filter the view spans both types.
	resp, body := doJSON(t, http.MethodGet, ts.URL+"/api/statistics?period=THIS_MONTH", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("statistics: status %d, body %s", resp.StatusCode, body)
	}
	var view statisticsResponse
	if err := json.Unmarshal(body, &view); err != nil {
		t.Fatalf("decode statistics: %v", err)
	}
	if view.TotalIncomeCents != 500_000 || view.TotalExpenseCents != 40_000 {
		t.Errorf("totals = %d / %d", view.TotalIncomeCents, view.TotalExpenseCents)
	}
	if view.BalanceCents != 460_000 {
		t.Errorf("BalanceCents = %d, want 460000", view.BalanceCents)
	}
	if len(view.Breakdown) != 2 {
		t.Errorf("Breakdown = %+v, want both categories", view.Breakdown)
	}
	if len(view.Series) != 1 {
		t.Errorf("Series = %+v, want one point for the current month", view.Series)
	}

	// An explicit type narrows totals, series and breakdown alike.
	resp, body = doJSON(t, http.MethodGet, ts.URL+"/api/statistics?period=THIS_MONTH&type=EXPENSE", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("typed statistics: status %d, body %s", resp.StatusCode, body)
	}
	if err := json.Unmarshal(body, &view); err != nil {
		t.Fatalf("decode typed statistics: %v", err)
	}
	if view.TotalIncomeCents != 0 || view.TotalExpenseCents != 40_000 {
		t.Errorf("typed totals = %d / %d", view.TotalIncomeCents, view.TotalExpenseCents)
	}
	if len(view.Breakdown) != 1 || view.Breakdown[0].Percentage != 100 {
		t.Errorf("typed Breakdown = %+v", view.Breakdown)
	}

	resp, _ = doJSON(t, http.MethodGet, ts.URL+"/api/statistics?period=FOREVER", nil)
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("bad period status = %d, want 422", resp.StatusCode)
	}

	resp, _ = doJSON(t, http.MethodGet, ts.URL+"/api/statistics?type=TRANSFER", nil)
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("bad type status = %d, want 422", resp.StatusCode)
	}
}

func TestCalendarEndpoints(t *testing.T) {
	ts := newTestServer(t)
	food := createCategory(t, ts, "餐饮", "EXPENSE")

	createTransaction(t, ts, "10.00", "EXPENSE", food, "早餐", "2024-02-03")
	createTransaction(t, ts, "20.00", "EXPENSE", food, "晚餐", "2024-02-03")
	createTransaction(t, ts, "40.00", "EXPENSE", food, "大餐", "2024-02-29")

	resp, body := doJSON(t, http.MethodGet, ts.URL+"/api/calendar?year=2024&month=2", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("calendar: status %d, body %s", resp.StatusCode, body)
	}
	var cal calendarResponse
	if err := json.Unmarshal(body, &cal); err != nil {
		t.Fatalf("decode calendar: %v", err)
	}
	if cal.Days != 29 {
		t.Errorf("Days = %d, want 29", cal.Days)
	}
	if len(cal.Totals) != 2 {
		t.Fatalf("Totals has %d days, want 2", len(cal.Totals))
	}
	if cal.Totals[0].Day != 3 || cal.Totals[0].ExpenseCents != 3000 || cal.Totals[0].TransactionCount != 2 {
		t.Errorf("day 3 = %+v", cal.Totals[0])
	}
	if cal.MonthExpenseCents != 7000 {
		t.Errorf("MonthExpenseCents = %d, want 7000", cal.MonthExpenseCents)
	}

	resp, body = doJSON(t, http.MethodGet, ts.URL+"/api/calendar/day?date=2024-02-03", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("calendar day: status %d", resp.StatusCode)
	}
	var txs []transactionResponse
	if err := json.Unmarshal(body, &txs); err != nil {
		t.Fatalf("decode day: %v", err)
	}
	if len(txs) != 2 {
		t.Errorf("day drill-down has %d entries, want 2", len(txs))
	}

	resp, _ = doJSON(t, http.MethodGet, ts.URL+"/api/calendar?month=13", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bad month status = %d, want 400", resp.StatusCode)
	}
}

func TestOverviewEndpoint(t *testing.T) {
	ts := newTestServer(t)
	food := createCategory(t, ts, "餐饮", "EXPENSE")
	salary := createCategory(t, ts, "工资", "INCOME")

	today := time.Now().Format("2006-01-02")
	createTransaction(t, ts, "5000.00", "INCOME", salary, "工资", today)
	createTransaction(t, ts, "123.45", "EXPENSE", food, "聚餐", today)

	// The overview snapshot recomputes asynchronously after a write, so
	// poll until it has caught up.
	var view overviewResponse
	deadline := time.Now().Add(2 * time.Second)
	for {
		resp, body := doJSON(t, http.MethodGet, ts.URL+"/api/overview", nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("overview: status %d, body %s", resp.StatusCode, body)
		}
		if err := json.Unmarshal(body, &view); err != nil {
			t.Fatalf("decode overview: %v", err)
		}
		if view.IncomeCents == 500_000 && view.ExpenseCents == 12_345 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("overview never caught up: %+v", view)
		}
		time.Sleep(5 * time.Millisecond)
	}
	if view.BalanceCents != 487_655 {
		t.Errorf("BalanceCents = %d", view.BalanceCents)
	}
	if len(view.Recent) != 2 {
		t.Errorf("Recent has %d entries, want 2", len(view.Recent))
	}
}

func TestChartEndpoints(t *testing.T) {
	ts := newTestServer(t)
	food := createCategory(t, ts, "餐饮", "EXPENSE")

	// Not enough months for a trend line yet.
	resp, _ := doJSON(t, http.MethodGet, ts.URL+"/api/charts/trend.png", nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("empty trend status = %d, want 204", resp.StatusCode)
	}

	createTransaction(t, ts, "10.00", "EXPENSE", food, "一月", "2024-01-15")
	createTransaction(t, ts, "20.00", "EXPENSE", food, "二月", "2024-02-15")

	resp, body := doJSON(t, http.MethodGet, ts.URL+"/api/charts/trend.png", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("trend status = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "image/png" {
		t.Errorf("trend Content-Type = %q", ct)
	}
	if len(body) == 0 || !bytes.HasPrefix(body, []byte{0x89, 'P', 'N', 'G'}) {
		t.Error("trend body is not a PNG")
	}

	resp, body = doJSON(t, http.MethodGet, ts.URL+"/api/charts/breakdown.png?period=ALL_TIME&type=EXPENSE", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("breakdown status = %d", resp.StatusCode)
	}
	if len(body) == 0 || !bytes.HasPrefix(body, []byte{0x89, 'P', 'N', 'G'}) {
		t.Error("breakdown body is not a PNG")
	}
}
