package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/dvloznov/finflow/internal/api/middleware"
	"github.com/dvloznov/finflow/internal/domain"
	"github.com/dvloznov/finflow/internal/pipeline"
)

// MaxUploadBytes bounds receipt images and voice recordings.
const MaxUploadBytes = 10 << 20

// Submitter records a transaction from free text, a receipt or a recording.
type Submitter interface {
	Submit(ctx context.Context, req pipeline.Request) (*pipeline.Result, error)
}

// ChatHandler handles AI-assisted submissions.
type ChatHandler struct {
	submitter Submitter
}

// NewChatHandler creates a new chat handler.
func NewChatHandler(submitter Submitter) *ChatHandler {
	return &ChatHandler{submitter: submitter}
}

// ChatResponse is the body of a successful submission.
type ChatResponse struct {
	Success         bool                `json:"success"`
	TranscribedText string              `json:"transcribedText"`
	Data            *domain.Transaction `json:"data"`
}

// Submit handles POST /api/chat with multipart fields text, file and lang.
func (h *ChatHandler) Submit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadBytes+(1<<20))
	if err := r.ParseMultipartForm(MaxUploadBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			middleware.WriteError(w, http.StatusRequestEntityTooLarge, "File is too large")
			return
		}
		middleware.WriteError(w, http.StatusBadRequest, "Invalid form data")
		return
	}

	req := pipeline.Request{
		UserEmail: middleware.UserFromContext(r.Context()),
		Locale:    localeOf(r),
		Text:      r.FormValue("text"),
	}

	file, header, err := r.FormFile("file")
	switch {
	case err == nil:
		defer file.Close()
		data, err := io.ReadAll(file)
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, "Failed to read file")
			return
		}
		req.Data = data
		req.MIMEType = header.Header.Get("Content-Type")
		if req.MIMEType == "" || strings.HasPrefix(req.MIMEType, "application/octet-stream") {
			req.MIMEType = http.DetectContentType(data)
		}
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
		// text only
	default:
		middleware.WriteError(w, http.StatusBadRequest, "Invalid file upload")
		return
	}

	res, err := h.submitter.Submit(r.Context(), req)
	if err != nil {
		middleware.WriteServiceError(r.Context(), w, err, req.Locale, "Failed to process input")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, ChatResponse{
		Success:         true,
		TranscribedText: res.Transcription,
		Data:            res.Transaction,
	})
}
