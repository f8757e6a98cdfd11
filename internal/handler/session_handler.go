package handler

import (
	"errors"
	"net/http"

	"github.com/dandantas/refreshwatch/internal/model"
	"github.com/dandantas/refreshwatch/internal/service"
	"github.com/go-chi/chi/v5"
)

// SessionHandler handles poll session history queries
type SessionHandler struct {
	history *service.HistoryService
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(history *service.HistoryService) *SessionHandler {
	return &SessionHandler{
		history: history,
	}
}

// SessionListResponse represents session list response
type SessionListResponse struct {
	Total   int64                  `json:"total"`
	Page    int                    `json:"page"`
	Limit   int                    `json:"limit"`
	Results []model.SessionSummary `json:"results"`
}

// List handles GET /api/v1/sessions
func (h *SessionHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	page := parseQueryInt(r, "page", 1)
	limit := parseQueryInt(r, "limit", 20)

	// Enforce max limit
	if limit > 100 {
		limit = 100
	}

	summaries, total, err := h.history.List(r.Context(), query.Get("target"), query.Get("outcome"), query.Get("origin"), page, limit)
	if err != nil {
		writeHistoryError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, SessionListResponse{
		Total:   total,
		Page:    page,
		Limit:   limit,
		Results: summaries,
	})
}

// Get handles GET /api/v1/sessions/{id}
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	record, err := h.history.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeHistoryError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, record)
}

func writeHistoryError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, model.ErrHistoryDisabled):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, model.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
