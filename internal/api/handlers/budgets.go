package handlers

import (
	"net/http"
	"strconv"

	"github.com/dvloznov/finflow/internal/api/middleware"
	"github.com/dvloznov/finflow/internal/domain"
	"github.com/dvloznov/finflow/internal/finance"
)

// BudgetsHandler handles budget endpoints.
type BudgetsHandler struct {
	svc *finance.Service
}

// NewBudgetsHandler creates a new budgets handler.
func NewBudgetsHandler(svc *finance.Service) *BudgetsHandler {
	return &BudgetsHandler{svc: svc}
}

// ListBudgets handles GET /api/budgets
func (h *BudgetsHandler) ListBudgets(w http.ResponseWriter, r *http.Request) {
	budgets, err := h.svc.ListBudgets(r.Context(), middleware.UserFromContext(r.Context()))
	if err != nil {
		middleware.WriteServiceError(r.Context(), w, err, localeOf(r), "Failed to list budgets")
		return
	}
	if budgets == nil {
		budgets = []*domain.Budget{}
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{"budgets": budgets})
}

// SaveBudget handles POST /api/budgets
func (h *BudgetsHandler) SaveBudget(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Category string  `json:"category"`
		Amount   float64 `json:"amount"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	b, err := h.svc.SaveBudget(r.Context(), middleware.UserFromContext(r.Context()), req.Category, req.Amount)
	if err != nil {
		middleware.WriteServiceError(r.Context(), w, err, localeOf(r), "Failed to save budget")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, b)
}

// DeleteBudget handles DELETE /api/budgets?id= or ?category=
func (h *BudgetsHandler) DeleteBudget(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if err := h.svc.DeleteBudget(r.Context(), middleware.UserFromContext(r.Context()), q.Get("id"), q.Get("category")); err != nil {
		middleware.WriteServiceError(r.Context(), w, err, localeOf(r), "Failed to delete budget")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// Status handles GET /api/budgets/status?month=&year=
func (h *BudgetsHandler) Status(w http.ResponseWriter, r *http.Request) {
	period, err := parsePeriod(r.URL.Query())
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	statuses, rng, err := h.svc.BudgetStatuses(r.Context(), middleware.UserFromContext(r.Context()), period)
	if err != nil {
		middleware.WriteServiceError(r.Context(), w, err, localeOf(r), "Failed to compute budget status")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"range":    rng,
		"statuses": statuses,
	})
}

// Suggest handles POST /api/budgets/suggest?apply=true
func (h *BudgetsHandler) Suggest(w http.ResponseWriter, r *http.Request) {
	apply := false
	if v := r.URL.Query().Get("apply"); v != "" {
		var err error
		if apply, err = strconv.ParseBool(v); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, "apply must be true or false")
			return
		}
	}

	suggestions, err := h.svc.SuggestBudgets(r.Context(), middleware.UserFromContext(r.Context()), apply)
	if err != nil {
		middleware.WriteServiceError(r.Context(), w, err, localeOf(r), "Failed to suggest budgets")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"suggestions": suggestions,
		"applied":     apply,
	})
}
