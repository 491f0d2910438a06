package http

import (
	"net/http"
	"strings"

	"github.com/zhangyujiu/HouseKeeper/internal/core"
)

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	var (
		cats []core.Category
		err  error
	)
	if v := strings.TrimSpace(r.URL.Query().Get("type")); v != "" {
		cats, err = s.ledger.CategoriesByType(r.Context(), core.TransactionType(v))
	} else {
		cats, err = s.ledger.Categories(r.Context())
	}
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make([]categoryResponse, 0, len(cats))
	for _, c := range cats {
		out = append(out, toCategoryResponse(c))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	id, err := s.ledger.SaveCategory(r.Context(), req.toDomain())
	if err != nil {
		writeError(w, r, err)
		return
	}

	c := req.toDomain()
	c.ID = id
	writeJSON(w, http.StatusCreated, toCategoryResponse(c))
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	var req categoryRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	c := req.toDomain()
	c.ID = id
	if _, err := s.ledger.SaveCategory(r.Context(), c); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCategoryResponse(c))
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	if err := s.ledger.DeleteCategory(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
