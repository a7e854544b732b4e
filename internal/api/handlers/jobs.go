package handlers

import (
	"net/http"
	"strconv"

	"github.com/dvloznov/finflow/internal/api/middleware"
	"github.com/dvloznov/finflow/internal/jobs"
	"github.com/dvloznov/finflow/internal/logger"
)

// JobsHandler handles mirror job endpoints.
type JobsHandler struct {
	store jobs.JobStore
}

// NewJobsHandler creates a new jobs handler.
func NewJobsHandler(store jobs.JobStore) *JobsHandler {
	return &JobsHandler{store: store}
}

// GetJob handles GET /api/jobs/{id}
func (h *JobsHandler) GetJob(w http.ResponseWriter, r *http.Request, jobID string) {
	ctx := r.Context()

	job, err := h.store.GetJob(ctx, jobID)
	if err != nil || job.UserEmail != middleware.UserFromContext(ctx) {
		if err != nil {
			log := logger.FromContext(ctx)
			log.Debug().Err(err).Str("job_id", jobID).Msg("Job lookup failed")
		}
		middleware.WriteError(w, http.StatusNotFound, "Job not found")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, job)
}

// ListJobs handles GET /api/jobs
func (h *JobsHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	query := r.URL.Query()
	filter := jobs.JobFilter{
		UserEmail:     middleware.UserFromContext(ctx),
		TransactionID: query.Get("transaction_id"),
		Status:        jobs.JobStatus(query.Get("status")),
	}

	if limitStr := query.Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil {
			filter.Limit = limit
		}
	}

	if offsetStr := query.Get("offset"); offsetStr != "" {
		if offset, err := strconv.Atoi(offsetStr); err == nil {
			filter.Offset = offset
		}
	}

	jobsList, err := h.store.ListJobs(ctx, filter)
	if err != nil {
		log := logger.FromContext(ctx)
		log.Error().Err(err).Msg("Failed to list jobs")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list jobs")
		return
	}
	if jobsList == nil {
		jobsList = []*jobs.MirrorTransactionJob{}
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"jobs":  jobsList,
		"count": len(jobsList),
	})
}
