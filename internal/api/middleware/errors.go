package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/dvloznov/finflow/internal/ai"
	"github.com/dvloznov/finflow/internal/entitlement"
	"github.com/dvloznov/finflow/internal/logger"
	"github.com/dvloznov/finflow/internal/pipeline"
	"github.com/dvloznov/finflow/internal/store"
)

// LimitResponse is the body of a 403 returned when a daily cap is reached.
type LimitResponse struct {
	Error          string `json:"error"`
	IsLimitReached bool   `json:"isLimitReached"`
}

// StatusFor maps a service error onto an HTTP status code.
func StatusFor(err error) int {
	var limitErr *pipeline.LimitError
	switch {
	case errors.As(err, &limitErr):
		return http.StatusForbidden
	case errors.Is(err, ai.ErrQuotaExceeded):
		return http.StatusTooManyRequests
	case errors.Is(err, pipeline.ErrNoInput), errors.Is(err, store.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// WriteServiceError logs err and writes the matching response. Internal failures
// get a generic message; the details only go to the log.
func WriteServiceError(ctx context.Context, w http.ResponseWriter, err error, locale, fallback string) {
	log := logger.FromContext(ctx)
	status := StatusFor(err)

	switch status {
	case http.StatusForbidden:
		var limitErr *pipeline.LimitError
		errors.As(err, &limitErr)
		WriteJSON(w, status, LimitResponse{Error: limitErr.Error(), IsLimitReached: true})
	case http.StatusTooManyRequests:
		log.Warn().Err(err).Msg("AI provider quota exceeded")
		WriteError(w, status, entitlement.BusyMessage(locale))
	case http.StatusBadRequest:
		if errors.Is(err, pipeline.ErrNoInput) {
			WriteError(w, status, "No input provided")
			return
		}
		WriteError(w, status, err.Error())
	case http.StatusNotFound:
		WriteError(w, status, "Not found")
	default:
		log.Error().Err(err).Msg(fallback)
		WriteError(w, status, fallback)
	}
}
