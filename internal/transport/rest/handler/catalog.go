package handler

import (
	"net/http"

	"promptcraft/internal/service"
)

// CatalogHandler serves the question catalog
type CatalogHandler struct {
	sessionSvc *service.SessionService
}

// NewCatalogHandler creates a new catalog handler
func NewCatalogHandler(sessionSvc *service.SessionService) *CatalogHandler {
	return &CatalogHandler{sessionSvc: sessionSvc}
}

// List handles GET /v1/questions
//
// @Summary List the question catalog
// @Tags questions
// @Produce json
// @Success 200 {array} model.Question
// @Router /questions [get]
func (h *CatalogHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.sessionSvc.Catalog())
}
