package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"promptcraft/internal/logger"
	"promptcraft/internal/model"
	"promptcraft/internal/service"

	"github.com/gorilla/mux"
)

type draftRequest struct {
	Draft string `json:"draft"`
}

type answerRequest struct {
	Answer string `json:"answer" validate:"required,notblank"`
}

// advanceRequest leaves answer out to retry a failed submission unchanged
type advanceRequest struct {
	Answer *string `json:"answer" validate:"omitempty,notblank"`
}

type retreatRequest struct {
	Draft *string `json:"draft"`
}

// SessionHandler handles questionnaire session endpoints
type SessionHandler struct {
	sessionSvc *service.SessionService
	log        *logger.Logger
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(sessionSvc *service.SessionService, log *logger.Logger) *SessionHandler {
	return &SessionHandler{
		sessionSvc: sessionSvc,
		log:        log.With("component", "session_handler"),
	}
}

// Create handles POST /v1/sessions
//
// @Summary Start a questionnaire session
// @Tags sessions
// @Produce json
// @Success 201 {object} model.SessionView
// @Failure 500 {object} errorResponse
// @Router /sessions [post]
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	view, err := h.sessionSvc.Create(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

// Get handles GET /v1/sessions/{id}
//
// @Summary Get a session
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} model.SessionView
// @Failure 404 {object} errorResponse
// @Router /sessions/{id} [get]
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	view, err := h.sessionSvc.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// SaveDraft handles PUT /v1/sessions/{id}/draft
//
// @Summary Save the draft of the current question
// @Tags sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param request body draftRequest true "Draft"
// @Success 200 {object} model.SessionView
// @Failure 409 {object} errorResponse
// @Router /sessions/{id}/draft [put]
func (h *SessionHandler) SaveDraft(w http.ResponseWriter, r *http.Request) {
	var req draftRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	view, err := h.sessionSvc.SaveDraft(r.Context(), mux.Vars(r)["id"], req.Draft)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// RecordAnswer handles POST /v1/sessions/{id}/answer
//
// @Summary Record an answer for the current question
// @Tags sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param request body answerRequest true "Answer"
// @Success 200 {object} model.SessionView
// @Failure 400 {object} errorResponse
// @Failure 409 {object} errorResponse
// @Router /sessions/{id}/answer [post]
func (h *SessionHandler) RecordAnswer(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	view, err := h.sessionSvc.RecordAnswer(r.Context(), mux.Vars(r)["id"], req.Answer)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// Advance handles POST /v1/sessions/{id}/advance
//
// @Summary Answer the current question and move on, submitting after the last one
// @Description Leave answer out to retry a failed submission with the answers unchanged.
// @Tags sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param request body advanceRequest true "Answer"
// @Success 200 {object} model.SessionView
// @Failure 400 {object} errorResponse
// @Failure 409 {object} errorResponse
// @Router /sessions/{id}/advance [post]
func (h *SessionHandler) Advance(w http.ResponseWriter, r *http.Request) {
	var req advanceRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	id := mux.Vars(r)["id"]
	var (
		view *model.SessionView
		err  error
	)
	if req.Answer == nil {
		view, err = h.sessionSvc.Retry(r.Context(), id)
	} else {
		view, err = h.sessionSvc.Advance(r.Context(), id, *req.Answer)
	}
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// Retreat handles POST /v1/sessions/{id}/retreat
//
// @Summary Go back one question
// @Tags sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param request body draftRequest false "Draft to keep"
// @Success 200 {object} model.SessionView
// @Failure 409 {object} errorResponse
// @Router /sessions/{id}/retreat [post]
func (h *SessionHandler) Retreat(w http.ResponseWriter, r *http.Request) {
	var req retreatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	view, err := h.sessionSvc.Retreat(r.Context(), mux.Vars(r)["id"], req.Draft)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// Reset handles POST /v1/sessions/{id}/reset
//
// @Summary Start the session over
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} model.SessionView
// @Failure 409 {object} errorResponse
// @Router /sessions/{id}/reset [post]
func (h *SessionHandler) Reset(w http.ResponseWriter, r *http.Request) {
	view, err := h.sessionSvc.Reset(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// ExportLinks handles GET /v1/sessions/{id}/export
//
// @Summary Deep links for the final prompt
// @Tags export
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {array} model.ExportLink
// @Failure 409 {object} errorResponse
// @Router /sessions/{id}/export [get]
func (h *SessionHandler) ExportLinks(w http.ResponseWriter, r *http.Request) {
	links, err := h.sessionSvc.ExportLinks(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, links)
}

// ExportLink handles GET /v1/sessions/{id}/export/{target}
//
// @Summary Deep link for one target
// @Tags export
// @Produce json
// @Param id path string true "Session ID"
// @Param target path string true "chatgpt, claude or gemini"
// @Success 200 {object} model.ExportLink
// @Failure 400 {object} errorResponse
// @Router /sessions/{id}/export/{target} [get]
func (h *SessionHandler) ExportLink(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	link, err := h.sessionSvc.ExportLink(r.Context(), vars["id"], vars["target"])
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, link)
}

func (h *SessionHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	h.log.Debug("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	writeServiceError(w, err)
}
