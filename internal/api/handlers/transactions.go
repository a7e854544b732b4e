package handlers

import (
	"net/http"
	"strconv"

	"github.com/dvloznov/finflow/internal/api/middleware"
	"github.com/dvloznov/finflow/internal/domain"
	"github.com/dvloznov/finflow/internal/finance"
	"github.com/dvloznov/finflow/internal/store"
)

// TransactionsHandler handles transaction-related endpoints.
type TransactionsHandler struct {
	svc *finance.Service
}

// NewTransactionsHandler creates a new transactions handler.
func NewTransactionsHandler(svc *finance.Service) *TransactionsHandler {
	return &TransactionsHandler{svc: svc}
}

// ListTransactions handles GET /api/transactions
func (h *TransactionsHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	period, err := parsePeriod(query)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	rng, err := parseRange(query)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	filter := store.TransactionFilter{
		UserEmail: middleware.UserFromContext(r.Context()),
		Search:    query.Get("search"),
		Category:  query.Get("category"),
		From:      rng.From,
		To:        rng.To,
		SortBy:    query.Get("sort"),
		Ascending: query.Get("order") == "asc",
	}
	if t := query.Get("type"); t != "" {
		filter.Type = domain.TransactionType(t)
		if !filter.Type.Valid() {
			middleware.WriteError(w, http.StatusBadRequest, "type must be income or expense")
			return
		}
	}
	if s := query.Get("source"); s != "" {
		filter.Source = domain.Source(s)
		if !filter.Source.Valid() {
			middleware.WriteError(w, http.StatusBadRequest, "source must be text, audio or image")
			return
		}
	}
	if v := query.Get("page"); v != "" {
		if filter.Page, err = strconv.Atoi(v); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, "page must be a number")
			return
		}
	}
	if v := query.Get("limit"); v != "" {
		if filter.Limit, err = strconv.Atoi(v); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, "limit must be a number")
			return
		}
	}

	page, err := h.svc.ListTransactions(r.Context(), filter, period)
	if err != nil {
		middleware.WriteServiceError(r.Context(), w, err, localeOf(r), "Failed to query transactions")
		return
	}
	if page.Transactions == nil {
		page.Transactions = []*domain.Transaction{}
	}
	middleware.WriteJSON(w, http.StatusOK, page)
}

// CreateTransaction handles POST /api/transactions
func (h *TransactionsHandler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	var in finance.TransactionInput
	if err := decodeJSON(w, r, &in); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	tx, err := h.svc.CreateTransaction(r.Context(), middleware.UserFromContext(r.Context()), in)
	if err != nil {
		middleware.WriteServiceError(r.Context(), w, err, localeOf(r), "Failed to create transaction")
		return
	}
	middleware.WriteJSON(w, http.StatusCreated, tx)
}

// UpdateTransaction handles PATCH /api/transactions
func (h *TransactionsHandler) UpdateTransaction(w http.ResponseWriter, r *http.Request) {
	var patch finance.TransactionPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	tx, err := h.svc.UpdateTransaction(r.Context(), middleware.UserFromContext(r.Context()), patch)
	if err != nil {
		middleware.WriteServiceError(r.Context(), w, err, localeOf(r), "Failed to update transaction")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, tx)
}

// DeleteTransaction handles DELETE /api/transactions?id=
func (h *TransactionsHandler) DeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if err := h.svc.DeleteTransaction(r.Context(), middleware.UserFromContext(r.Context()), id); err != nil {
		middleware.WriteServiceError(r.Context(), w, err, localeOf(r), "Failed to delete transaction")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}
