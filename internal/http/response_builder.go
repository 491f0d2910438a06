package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/zhangyujiu/HouseKeeper/internal/core"
	"github.com/zhangyujiu/HouseKeeper/internal/dates"
	"github.com/zhangyujiu/HouseKeeper/internal/services"
	"github.com/zhangyujiu/HouseKeeper/internal/stats"
)

const dateLayout = "2006-01-02"

type categoryResponse struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Type      string `json:"type"`
	Icon      string `json:"icon"`
	Color     string `json:"color"`
	IsDefault bool   `json:"is_default"`
	SortOrder int    `json:"sort_order"`
}

type transactionResponse struct {
	ID          int64            `json:"id"`
	Amount      string           `json:"amount"`
	AmountCents int64            `json:"amount_cents"`
	Type        string           `json:"type"`
	Category    categoryResponse `json:"category"`
	Description string           `json:"description"`
	Date        string           `json:"date"`
	CreatedAt   string           `json:"created_at"`
}

type budgetResponse struct {
	ID          int64            `json:"id"`
	Amount      string           `json:"amount"`
	AmountCents int64            `json:"amount_cents"`
	Period      string           `json:"period"`
	Category    categoryResponse `json:"category"`
	StartDate   string           `json:"start_date"`
	EndDate     string           `json:"end_date"`
}

type budgetUsageResponse struct {
	Budget         budgetResponse `json:"budget"`
	UsedCents      int64          `json:"used_cents"`
	Used           string         `json:"used"`
	RemainingCents int64          `json:"remaining_cents"`
	Ratio          float64        `json:"ratio"`
	Exceeded       bool           `json:"exceeded"`
}

type monthPointResponse struct {
	Month        string `json:"month"`
	IncomeCents  int64  `json:"income_cents"`
	ExpenseCents int64  `json:"expense_cents"`
	NetCents     int64  `json:"net_cents"`
}

type categoryShareResponse struct {
	Category         categoryResponse `json:"category"`
	AmountCents      int64            `json:"amount_cents"`
	TransactionCount int              `json:"transaction_count"`
	Percentage       float64          `json:"percentage"`
}

type dayTotalResponse struct {
	Day              int   `json:"day"`
	IncomeCents      int64 `json:"income_cents"`
	ExpenseCents     int64 `json:"expense_cents"`
	NetCents         int64 `json:"net_cents"`
	TransactionCount int   `json:"transaction_count"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func toCategoryResponse(c core.Category) categoryResponse {
	return categoryResponse{
		ID:        c.ID,
		Name:      c.Name,
		Type:      string(c.Type),
		Icon:      c.Icon,
		Color:     c.Color,
		IsDefault: c.IsDefault,
		SortOrder: c.SortOrder,
	}
}

func toTransactionResponse(tx core.Transaction) transactionResponse {
	return transactionResponse{
		ID:          tx.ID,
		Amount:      core.FormatCents(tx.Amount.Cents),
		AmountCents: tx.Amount.Cents,
		Type:        string(tx.Type),
		Category:    toCategoryResponse(tx.Category),
		Description: tx.Description,
		Date:        tx.Date.Format(dateLayout),
		CreatedAt:   tx.CreatedAt.Format(time.RFC3339),
	}
}

func toTransactionResponses(txs []core.Transaction) []transactionResponse {
	out := make([]transactionResponse, 0, len(txs))
	for _, tx := range txs {
		out = append(out, toTransactionResponse(tx))
	}
	return out
}

func toBudgetResponse(b core.Budget) budgetResponse {
	return budgetResponse{
		ID:          b.ID,
		Amount:      core.FormatCents(b.Amount.Cents),
		AmountCents: b.Amount.Cents,
		Period:      string(b.Period),
		Category:    toCategoryResponse(b.Category),
		StartDate:   b.StartDate.Format(dateLayout),
		EndDate:     b.EndDate.Format(dateLayout),
	}
}

func toBudgetUsageResponse(u stats.BudgetUsage) budgetUsageResponse {
	return budgetUsageResponse{
		Budget:         toBudgetResponse(u.Budget),
		UsedCents:      u.Used.Cents,
		Used:           core.FormatCents(u.Used.Cents),
		RemainingCents: u.Remaining().Cents,
		Ratio:          u.Ratio(),
		Exceeded:       u.Exceeded,
	}
}

func toMonthPointResponses(series []stats.MonthPoint) []monthPointResponse {
	out := make([]monthPointResponse, 0, len(series))
	for _, p := range series {
		out = append(out, monthPointResponse{
			Month:        p.Month,
			IncomeCents:  p.Income.Cents,
			ExpenseCents: p.Expense.Cents,
			NetCents:     p.Net().Cents,
		})
	}
	return out
}

func toCategoryShareResponses(shares []stats.CategoryShare) []categoryShareResponse {
	out := make([]categoryShareResponse, 0, len(shares))
	for _, share := range shares {
		out = append(out, categoryShareResponse{
			Category:         toCategoryResponse(share.Category),
			AmountCents:      share.Amount.Cents,
			TransactionCount: share.TransactionCount,
			Percentage:       share.Percentage,
		})
	}
	return out
}

func toDayTotalResponses(days map[int]stats.DayTotal, grid dates.MonthGrid) []dayTotalResponse {
	out := make([]dayTotalResponse, 0, len(days))
	for day := 1; day <= grid.Days; day++ {
		total, ok := days[day]
		if !ok {
			continue
		}
		out = append(out, dayTotalResponse{
			Day:              day,
			IncomeCents:      total.Income.Cents,
			ExpenseCents:     total.Expense.Cents,
			NetCents:         total.Net().Cents,
			TransactionCount: total.TransactionCount,
		})
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

// validationErrors are domain rejections reported as 422.
var validationErrors = []error{
	core.ErrInvalidAmount,
	core.ErrInvalidType,
	core.ErrMissingCategory,
	core.ErrTypeMismatch,
	core.ErrDescriptionTooLong,
	core.ErrInvalidDate,
	core.ErrEmptyCategoryName,
	core.ErrCategoryNameLength,
	core.ErrInvalidPeriod,
	core.ErrInvalidWindow,
	stats.ErrInvalidPeriod,
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, services.ErrTransactionNotFound),
		errors.Is(err, services.ErrCategoryNotFound):
		status = http.StatusNotFound
	case errors.Is(err, services.ErrDuplicateCategoryName):
		status = http.StatusConflict
	default:
		for _, sentinel := range validationErrors {
			if errors.Is(err, sentinel) {
				status = http.StatusUnprocessableEntity
				break
			}
		}
	}

	if status == http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "Request failed",
			"error", err, "method", r.Method, "path", r.URL.Path)
		writeJSON(w, status, errorResponse{Error: "internal error"})
		return
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}
