package handlers

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/dvloznov/finflow/internal/api/middleware"
	"github.com/dvloznov/finflow/internal/export"
	"github.com/dvloznov/finflow/internal/finance"
	"github.com/dvloznov/finflow/internal/logger"
)

// ExportHandler streams spreadsheet and PDF reports.
type ExportHandler struct {
	svc *finance.Service
}

// NewExportHandler creates a new export handler.
func NewExportHandler(svc *finance.Service) *ExportHandler {
	return &ExportHandler{svc: svc}
}

type renderFunc func(w io.Writer, r *finance.Report) error

// Excel handles GET /api/export/excel
func (h *ExportHandler) Excel(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, export.WriteExcel, export.ExcelContentType, export.ExcelFilename)
}

// PDF handles GET /api/export/pdf
func (h *ExportHandler) PDF(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, export.WritePDF, export.PDFContentType, export.PDFFilename)
}

func (h *ExportHandler) serve(w http.ResponseWriter, r *http.Request, render renderFunc, contentType string, filename func(*finance.Report) string) {
	ctx := r.Context()
	query := r.URL.Query()

	rng, err := parseRange(query)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if (rng.From == "") != (rng.To == "") {
		middleware.WriteError(w, http.StatusBadRequest, "from and to must be given together")
		return
	}
	period, err := parsePeriod(query)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	report, err := h.svc.Report(ctx, middleware.UserFromContext(ctx), rng, period)
	if err != nil {
		middleware.WriteServiceError(ctx, w, err, localeOf(r), "Failed to build report")
		return
	}

	// Render fully before writing headers so a failure can still produce a JSON error.
	var buf bytes.Buffer
	if err := render(&buf, report); err != nil {
		log := logger.FromContext(ctx)
		log.Error().Err(err).Str("content_type", contentType).Msg("Failed to render export")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to generate file")
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename(report)))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		log := logger.FromContext(ctx)
		log.Warn().Err(err).Msg("Export response interrupted")
	}
}
