package handlers

import (
	"net/http"

	"github.com/dvloznov/finflow/internal/api/middleware"
	"github.com/dvloznov/finflow/internal/finance"
)

// DashboardHandler serves the cycle overview.
type DashboardHandler struct {
	svc *finance.Service
}

// NewDashboardHandler creates a new dashboard handler.
func NewDashboardHandler(svc *finance.Service) *DashboardHandler {
	return &DashboardHandler{svc: svc}
}

// GetDashboard handles GET /api/dashboard?month=&year=
func (h *DashboardHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	period, err := parsePeriod(r.URL.Query())
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	d, err := h.svc.Dashboard(r.Context(), middleware.UserFromContext(r.Context()), period)
	if err != nil {
		middleware.WriteServiceError(r.Context(), w, err, localeOf(r), "Failed to load dashboard")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, d)
}
