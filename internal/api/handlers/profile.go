package handlers

import (
	"net/http"

	"github.com/dvloznov/finflow/internal/api/middleware"
	"github.com/dvloznov/finflow/internal/finance"
)

// ProfileHandler handles the user profile, usage, config and feedback endpoints.
type ProfileHandler struct {
	svc *finance.Service
}

// NewProfileHandler creates a new profile handler.
func NewProfileHandler(svc *finance.Service) *ProfileHandler {
	return &ProfileHandler{svc: svc}
}

// GetProfile handles GET /api/user
func (h *ProfileHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	u, err := h.svc.Profile(r.Context(), middleware.UserFromContext(r.Context()))
	if err != nil {
		middleware.WriteServiceError(r.Context(), w, err, localeOf(r), "Failed to load profile")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, u)
}

// UpdateProfile handles PATCH /api/user
func (h *ProfileHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var upd finance.ProfileUpdate
	if err := decodeJSON(w, r, &upd); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	u, err := h.svc.UpdateProfile(r.Context(), middleware.UserFromContext(r.Context()), upd)
	if err != nil {
		middleware.WriteServiceError(r.Context(), w, err, localeOf(r), "Failed to update profile")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, u)
}

// GetUsage handles GET /api/usage
func (h *ProfileHandler) GetUsage(w http.ResponseWriter, r *http.Request) {
	usage, err := h.svc.Usage(r.Context(), middleware.UserFromContext(r.Context()))
	if err != nil {
		middleware.WriteServiceError(r.Context(), w, err, localeOf(r), "Failed to load usage")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, usage)
}

// GetConfig handles GET /api/config
func (h *ProfileHandler) GetConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.svc.AppConfig(r.Context())
	if err != nil {
		middleware.WriteServiceError(r.Context(), w, err, localeOf(r), "Failed to load config")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, cfg)
}

// SubmitFeedback handles POST /api/feedback
func (h *ProfileHandler) SubmitFeedback(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Message string `json:"message"`
		Rating  *int   `json:"rating"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	f, err := h.svc.SubmitFeedback(r.Context(), middleware.UserFromContext(r.Context()), req.Message, req.Rating)
	if err != nil {
		middleware.WriteServiceError(r.Context(), w, err, localeOf(r), "Failed to save feedback")
		return
	}
	middleware.WriteJSON(w, http.StatusCreated, f)
}
