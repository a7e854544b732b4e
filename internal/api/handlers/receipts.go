package handlers

import (
	"context"
	"net/http"

	"github.com/dvloznov/finflow/internal/api/middleware"
	"github.com/dvloznov/finflow/internal/finance"
	"github.com/dvloznov/finflow/internal/logger"
)

// ReceiptFetcher reads an archived receipt or recording back.
type ReceiptFetcher interface {
	Fetch(ctx context.Context, uri string) ([]byte, error)
}

// ReceiptsHandler serves the archived original of a transaction.
type ReceiptsHandler struct {
	svc     *finance.Service
	fetcher ReceiptFetcher
}

// NewReceiptsHandler creates a new receipts handler. fetcher may be nil when
// archival is disabled.
func NewReceiptsHandler(svc *finance.Service, fetcher ReceiptFetcher) *ReceiptsHandler {
	return &ReceiptsHandler{svc: svc, fetcher: fetcher}
}

// GetReceipt handles GET /api/receipts?id=
func (h *ReceiptsHandler) GetReceipt(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	tx, err := h.svc.GetTransaction(ctx, middleware.UserFromContext(ctx), r.URL.Query().Get("id"))
	if err != nil {
		middleware.WriteServiceError(ctx, w, err, localeOf(r), "Failed to load transaction")
		return
	}
	if h.fetcher == nil || tx.ReceiptURI == "" {
		middleware.WriteError(w, http.StatusNotFound, "No archived file for this transaction")
		return
	}

	data, err := h.fetcher.Fetch(ctx, tx.ReceiptURI)
	if err != nil {
		log := logger.FromContext(ctx)
		log.Error().Err(err).Str("transaction_id", tx.ID).Str("uri", tx.ReceiptURI).Msg("Failed to fetch receipt")
		middleware.WriteError(w, http.StatusBadGateway, "Failed to fetch archived file")
		return
	}

	w.Header().Set("Content-Type", http.DetectContentType(data))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
