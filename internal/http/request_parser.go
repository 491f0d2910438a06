package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/zhangyujiu/HouseKeeper/internal/core"
	"github.com/zhangyujiu/HouseKeeper/internal/stats"
)

var errMalformedBody = errors.New("malformed request body")

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", errMalformedBody, err)
	}
	return nil
}

// pathID parses the {id} path segment.
func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid id %q", r.PathValue("id"))
	}
	return id, nil
}

type transactionRequest struct {
	Amount      string `json:"amount"`
	Type        string `json:"type"`
	CategoryID  int64  `json:"category_id"`
	Description string `json:"description"`
	Date        string `json:"date"`
}

func (req transactionRequest) toDomain() (core.Transaction, error) {
	cents, err := core.ParseDecimalToCents(strings.TrimSpace(req.Amount))
	if err != nil {
		return core.Transaction{}, err
	}
	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("%w: %q", core.ErrInvalidDate, req.Date)
	}
	return core.Transaction{
		Amount:      core.Money{Cents: cents},
		Type:        core.TransactionType(req.Type),
		Category:    core.Category{ID: req.CategoryID},
		Description: strings.TrimSpace(req.Description),
		Date:        date,
	}, nil
}

type categoryRequest struct {
	Name      string `json:"name"`
	Type      string `json:"type"`
	Icon      string `json:"icon"`
	Color     string `json:"color"`
	SortOrder int    `json:"sort_order"`
}

func (req categoryRequest) toDomain() core.Category {
	return core.Category{
		Name:      strings.TrimSpace(req.Name),
		Type:      core.TransactionType(req.Type),
		Icon:      req.Icon,
		Color:     req.Color,
		SortOrder: req.SortOrder,
	}
}

type budgetRequest struct {
	Amount     string `json:"amount"`
	Period     string `json:"period"`
	CategoryID int64  `json:"category_id"`
	StartDate  string `json:"start_date"`
	EndDate    string `json:"end_date"`
}

// toDomain leaves the window zero when both dates are absent; the service
// derives it from the period.
func (req budgetRequest) toDomain() (core.Budget, error) {
	cents, err := core.ParseDecimalToCents(strings.TrimSpace(req.Amount))
	if err != nil {
		return core.Budget{}, err
	}
	b := core.Budget{
		Amount:   core.Money{Cents: cents},
		Period:   core.BudgetPeriod(req.Period),
		Category: core.Category{ID: req.CategoryID},
	}
	if req.StartDate != "" {
		b.StartDate, err = time.Parse(dateLayout, req.StartDate)
		if err != nil {
			return core.Budget{}, fmt.Errorf("%w: %q", core.ErrInvalidDate, req.StartDate)
		}
	}
	if req.EndDate != "" {
		end, err := time.Parse(dateLayout, req.EndDate)
		if err != nil {
			return core.Budget{}, fmt.Errorf("%w: %q", core.ErrInvalidDate, req.EndDate)
		}
		// An end date means the whole day.
		b.EndDate = end.Add(24*time.Hour - time.Millisecond)
	}
	return b, nil
}

// parseFilter builds a transaction filter from query parameters. Every
// parameter is optional; malformed values fail the request rather than
// being silently dropped.
func parseFilter(r *http.Request) (stats.Filter, error) {
	q := r.URL.Query()
	var f stats.Filter

	if v := strings.TrimSpace(q.Get("type")); v != "" {
		typ := core.TransactionType(v)
		if !typ.Valid() {
			return stats.Filter{}, fmt.Errorf("%w: %q", core.ErrInvalidType, v)
		}
		f.Type = &typ
	}
	if v := strings.TrimSpace(q.Get("category_id")); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return stats.Filter{}, fmt.Errorf("invalid category_id %q", v)
		}
		f.CategoryID = &id
	}
	if v := strings.TrimSpace(q.Get("start")); v != "" {
		start, err := time.Parse(dateLayout, v)
		if err != nil {
			return stats.Filter{}, fmt.Errorf("%w: %q", core.ErrInvalidDate, v)
		}
		f.Start = &start
	}
	if v := strings.TrimSpace(q.Get("end")); v != "" {
		end, err := time.Parse(dateLayout, v)
		if err != nil {
			return stats.Filter{}, fmt.Errorf("%w: %q", core.ErrInvalidDate, v)
		}
		end = end.Add(24*time.Hour - time.Millisecond)
		f.End = &end
	}
	f.Query = q.Get("q")

	return f, nil
}

// parseYearMonth extracts year and month query parameters, defaulting to
// the current month.
func parseYearMonth(r *http.Request) (int, time.Month, error) {
	now := time.Now()
	year, month := now.Year(), now.Month()

	if v := strings.TrimSpace(r.URL.Query().Get("year")); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil || y < 1970 || y > 9999 {
			return 0, 0, fmt.Errorf("invalid year %q", v)
		}
		year = y
	}
	if v := strings.TrimSpace(r.URL.Query().Get("month")); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil || m < 1 || m > 12 {
			return 0, 0, fmt.Errorf("invalid month %q", v)
		}
		month = time.Month(m)
	}
	return year, month, nil
}

// parseStatisticsParams reads period and type. The period defaults to
// this month; an absent type means both income and expense.
func parseStatisticsParams(r *http.Request) (stats.Period, core.TransactionType) {
	period := stats.ThisMonth
	if v := strings.TrimSpace(r.URL.Query().Get("period")); v != "" {
		period = stats.Period(v)
	}
	typ := core.TransactionType(strings.TrimSpace(r.URL.Query().Get("type")))
	return period, typ
}
