package http

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/zhangyujiu/HouseKeeper/internal/services"
	"github.com/zhangyujiu/HouseKeeper/internal/stats"
)

type overviewResponse struct {
	Month        string                `json:"month"`
	IncomeCents  int64                 `json:"income_cents"`
	ExpenseCents int64                 `json:"expense_cents"`
	BalanceCents int64                 `json:"balance_cents"`
	Recent       []transactionResponse `json:"recent"`
	BudgetAlerts []budgetUsageResponse `json:"budget_alerts"`
}

func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	var (
		view services.HomeView
		err  error
	)
	if s.overview != nil {
		view, err = s.overview.Latest()
	} else {
		view, err = s.ledger.Home(r.Context(), s.recentLimit)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}

	alerts := make([]budgetUsageResponse, 0, len(view.BudgetAlerts))
	for _, u := range view.BudgetAlerts {
		alerts = append(alerts, toBudgetUsageResponse(u))
	}
	writeJSON(w, http.StatusOK, overviewResponse{
		Month:        view.Month,
		IncomeCents:  view.Income.Cents,
		ExpenseCents: view.Expense.Cents,
		BalanceCents: view.Balance.Cents,
		Recent:       toTransactionResponses(view.Recent),
		BudgetAlerts: alerts,
	})
}

type statisticsResponse struct {
	Period            string                  `json:"period"`
	Type              string                  `json:"type"`
	TotalIncomeCents  int64                   `json:"total_income_cents"`
	TotalExpenseCents int64                   `json:"total_expense_cents"`
	BalanceCents      int64                   `json:"balance_cents"`
	Series            []monthPointResponse    `json:"series"`
	Breakdown         []categoryShareResponse `json:"breakdown"`
}

func (s *Server) handleStatistics(w http.ResponseWriter, r *http.Request) {
	period, typ := parseStatisticsParams(r)

	view, err := s.ledger.Statistics(r.Context(), period, typ)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, statisticsResponse{
		Period:            string(view.Period),
		Type:              string(view.Type),
		TotalIncomeCents:  view.TotalIncome.Cents,
		TotalExpenseCents: view.TotalExpense.Cents,
		BalanceCents:      view.TotalIncome.Cents - view.TotalExpense.Cents,
		Series:            toMonthPointResponses(view.Series),
		Breakdown:         toCategoryShareResponses(view.Breakdown),
	})
}

type calendarResponse struct {
	Year              int                `json:"year"`
	Month             int                `json:"month"`
	Days              int                `json:"days"`
	FirstWeekday      int                `json:"first_weekday"`
	MonthIncomeCents  int64              `json:"month_income_cents"`
	MonthExpenseCents int64              `json:"month_expense_cents"`
	Totals            []dayTotalResponse `json:"totals"`
}

func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	year, month, err := parseYearMonth(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	view, err := s.ledger.CalendarMonth(r.Context(), year, month)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, calendarResponse{
		Year:              view.Grid.Year,
		Month:             int(view.Grid.Month),
		Days:              view.Grid.Days,
		FirstWeekday:      view.Grid.FirstWeekday,
		MonthIncomeCents:  view.MonthIncome.Cents,
		MonthExpenseCents: view.MonthExpense.Cents,
		Totals:            toDayTotalResponses(view.Days, view.Grid),
	})
}

func (s *Server) handleCalendarDay(w http.ResponseWriter, r *http.Request) {
	v := strings.TrimSpace(r.URL.Query().Get("date"))
	day, err := time.Parse(dateLayout, v)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("invalid date %q", v)})
		return
	}

	txs, err := s.ledger.DayTransactions(r.Context(), day)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionResponses(txs))
}

// handleTrendChart renders the monthly income/expense trend as PNG. The
// rendered image is cached until the ledger changes.
func (s *Server) handleTrendChart(w http.ResponseWriter, r *http.Request) {
	const cacheKey = "trend"
	if png, ok := s.chartCache.Get(cacheKey); ok {
		writePNG(w, png)
		return
	}

	view, err := s.ledger.Statistics(r.Context(), stats.AllTime, "")
	if err != nil {
		writeError(w, r, err)
		return
	}

	png, err := s.renderer.MonthlyTrend(view.Series)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if png == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	s.chartCache.Set(cacheKey, png)
	writePNG(w, png)
}

// handleBreakdownChart renders the category breakdown pie for the
// requested period and type.
func (s *Server) handleBreakdownChart(w http.ResponseWriter, r *http.Request) {
	period, typ := parseStatisticsParams(r)
	cacheKey := "breakdown/" + string(period) + "/" + string(typ)
	if png, ok := s.chartCache.Get(cacheKey); ok {
		writePNG(w, png)
		return
	}

	view, err := s.ledger.Statistics(r.Context(), period, typ)
	if err != nil {
		writeError(w, r, err)
		return
	}

	png, err := s.renderer.CategoryPie(view.Breakdown)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if png == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	s.chartCache.Set(cacheKey, png)
	writePNG(w, png)
}

func writePNG(w http.ResponseWriter, png []byte) {
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}
