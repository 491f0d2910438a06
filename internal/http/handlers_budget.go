package http

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/zhangyujiu/HouseKeeper/internal/stats"
)

// handleListBudgets returns every budget with its current usage, the
// budget screen's full state. With ?active_at=YYYY-MM-DD only budgets
// whose stored window covers that date are returned.
func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	var (
		usages []stats.BudgetUsage
		err    error
	)
	if v := strings.TrimSpace(r.URL.Query().Get("active_at")); v != "" {
		var at time.Time
		at, err = time.Parse(dateLayout, v)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("invalid active_at %q", v)})
			return
		}
		usages, err = s.ledger.ActiveBudgets(r.Context(), at)
	} else {
		usages, err = s.ledger.BudgetsOverview(r.Context())
	}
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make([]budgetUsageResponse, 0, len(usages))
	for _, u := range usages {
		out = append(out, toBudgetUsageResponse(u))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateBudget(w http.ResponseWriter, r *http.Request) {
	var req budgetRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	b, err := req.toDomain()
	if err != nil {
		writeError(w, r, err)
		return
	}

	id, err := s.ledger.SaveBudget(r.Context(), b)
	if err != nil {
		writeError(w, r, err)
		return
	}

	usage, err := s.ledger.BudgetUsage(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toBudgetUsageResponse(usage))
}

func (s *Server) handleUpdateBudget(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	var req budgetRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	b, err := req.toDomain()
	if err != nil {
		writeError(w, r, err)
		return
	}
	b.ID = id

	if _, err := s.ledger.SaveBudget(r.Context(), b); err != nil {
		writeError(w, r, err)
		return
	}

	usage, err := s.ledger.BudgetUsage(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toBudgetUsageResponse(usage))
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	if err := s.ledger.DeleteBudget(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleBudgetUsage reports one budget's usage. A missing budget reports
// zero usage; the dashboard treats it the same as an inactive budget.
func (s *Server) handleBudgetUsage(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	usage, err := s.ledger.BudgetUsage(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toBudgetUsageResponse(usage))
}
