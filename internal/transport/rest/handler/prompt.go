package handler

import (
	"net/http"
	"strconv"

	"promptcraft/internal/service"

	"github.com/gorilla/mux"
)

const (
	defaultPromptLimit = 20
	maxPromptLimit     = 100
)

// PromptHandler serves the archive of generated prompts
type PromptHandler struct {
	sessionSvc *service.SessionService
}

// NewPromptHandler creates a new prompt handler
func NewPromptHandler(sessionSvc *service.SessionService) *PromptHandler {
	return &PromptHandler{sessionSvc: sessionSvc}
}

// List handles GET /v1/prompts?limit=N
//
// @Summary Recently generated prompts
// @Tags prompts
// @Produce json
// @Param limit query int false "Max records"
// @Success 200 {array} model.PromptRecord
// @Failure 400 {object} errorResponse
// @Failure 503 {object} errorResponse
// @Router /prompts [get]
func (h *PromptHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := defaultPromptLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxPromptLimit)
	}

	records, err := h.sessionSvc.ListPrompts(r.Context(), int64(limit))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

// Get handles GET /v1/prompts/{sessionId}
//
// @Summary Archived prompt of a session
// @Tags prompts
// @Produce json
// @Param sessionId path string true "Session ID"
// @Success 200 {object} model.PromptRecord
// @Failure 404 {object} errorResponse
// @Failure 503 {object} errorResponse
// @Router /prompts/{sessionId} [get]
func (h *PromptHandler) Get(w http.ResponseWriter, r *http.Request) {
	record, err := h.sessionSvc.GetPrompt(r.Context(), mux.Vars(r)["sessionId"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}
