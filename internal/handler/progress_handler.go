package handler

import (
	"context"
	"net/http"

	"github.com/dandantas/refreshwatch/internal/model"
	"github.com/dandantas/refreshwatch/internal/render"
	"github.com/dandantas/refreshwatch/pkg/middleware"
)

// ProgressPath is where the target's progress is served
const ProgressPath = "/api/v1/progress"

// Monitor is the monitor surface exposed over HTTP
type Monitor interface {
	TriggerRefresh(ctx context.Context) *model.PollSession
	Active() (model.PollSession, bool)
	Phase() model.Phase
}

// ProgressHandler serves the render target and accepts refresh requests
type ProgressHandler struct {
	monitor Monitor
	target  *render.Target
}

// NewProgressHandler creates a new progress handler
func NewProgressHandler(monitor Monitor, target *render.Target) *ProgressHandler {
	return &ProgressHandler{
		monitor: monitor,
		target:  target,
	}
}

// ProgressResponse is the JSON view of the target
type ProgressResponse struct {
	Target  render.View        `json:"target"`
	Phase   string             `json:"phase"`
	Session *model.PollSession `json:"session,omitempty"`
}

// Get handles GET /api/v1/progress
func (h *ProgressHandler) Get(w http.ResponseWriter, r *http.Request) {
	response := ProgressResponse{
		Target: h.target.View(),
		Phase:  h.monitor.Phase().String(),
	}
	if session, ok := h.monitor.Active(); ok {
		response.Session = &session
	}

	writeJSON(w, http.StatusOK, response)
}

// Fragment handles GET /api/v1/progress/fragment
func (h *ProgressHandler) Fragment(w http.ResponseWriter, r *http.Request) {
	html, err := h.target.Fragment()
	if err != nil {
		middleware.Logger(r.Context()).Error("Failed to render fragment", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to render progress")
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(html))
}

// Refresh handles POST /api/v1/refresh
func (h *ProgressHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	session := h.monitor.TriggerRefresh(r.Context())
	if session == nil {
		writeError(w, http.StatusBadGateway, model.UnexpectedErrorMessage)
		return
	}

	middleware.Logger(r.Context()).Info("Refresh triggered over HTTP", "session_id", session.ID)

	w.Header().Set("Location", ProgressPath)
	writeJSON(w, http.StatusAccepted, session)
}
