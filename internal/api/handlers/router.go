package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/dvloznov/finflow/internal/api/middleware"
	"github.com/dvloznov/finflow/internal/finance"
	"github.com/dvloznov/finflow/internal/jobs"
)

// Deps are the services the HTTP API is built on. Receipts and Jobs are optional.
type Deps struct {
	Finance   *finance.Service
	Submitter Submitter
	Receipts  ReceiptFetcher
	Jobs      jobs.JobStore
}

// methods dispatches on the request method and answers 405 for anything else.
type methods map[string]http.HandlerFunc

func (m methods) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h, ok := m[r.Method]; ok {
		h(w, r)
		return
	}
	middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
}

// NewRouter registers every API route on a new ServeMux.
func NewRouter(deps Deps) *http.ServeMux {
	chatHandler := NewChatHandler(deps.Submitter)
	transactionsHandler := NewTransactionsHandler(deps.Finance)
	dashboardHandler := NewDashboardHandler(deps.Finance)
	budgetsHandler := NewBudgetsHandler(deps.Finance)
	profileHandler := NewProfileHandler(deps.Finance)
	exportHandler := NewExportHandler(deps.Finance)
	receiptsHandler := NewReceiptsHandler(deps.Finance, deps.Receipts)

	mux := http.NewServeMux()

	mux.Handle("/api/chat", methods{http.MethodPost: chatHandler.Submit})

	mux.Handle("/api/transactions", methods{
		http.MethodGet:    transactionsHandler.ListTransactions,
		http.MethodPost:   transactionsHandler.CreateTransaction,
		http.MethodPatch:  transactionsHandler.UpdateTransaction,
		http.MethodDelete: transactionsHandler.DeleteTransaction,
	})

	mux.Handle("/api/dashboard", methods{http.MethodGet: dashboardHandler.GetDashboard})

	mux.Handle("/api/budgets", methods{
		http.MethodGet:    budgetsHandler.ListBudgets,
		http.MethodPost:   budgetsHandler.SaveBudget,
		http.MethodDelete: budgetsHandler.DeleteBudget,
	})
	mux.Handle("/api/budgets/status", methods{http.MethodGet: budgetsHandler.Status})
	mux.Handle("/api/budgets/suggest", methods{http.MethodPost: budgetsHandler.Suggest})

	mux.Handle("/api/user", methods{
		http.MethodGet:   profileHandler.GetProfile,
		http.MethodPatch: profileHandler.UpdateProfile,
	})
	mux.Handle("/api/usage", methods{http.MethodGet: profileHandler.GetUsage})
	mux.Handle("/api/config", methods{http.MethodGet: profileHandler.GetConfig})
	mux.Handle("/api/feedback", methods{http.MethodPost: profileHandler.SubmitFeedback})

	mux.Handle("/api/export/excel", methods{http.MethodGet: exportHandler.Excel})
	mux.Handle("/api/export/pdf", methods{http.MethodGet: exportHandler.PDF})

	mux.Handle("/api/receipts", methods{http.MethodGet: receiptsHandler.GetReceipt})

	if deps.Jobs != nil {
		jobsHandler := NewJobsHandler(deps.Jobs)
		mux.Handle("/api/jobs", methods{http.MethodGet: jobsHandler.ListJobs})
		mux.HandleFunc("/api/jobs/", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
				return
			}
			jobID := strings.TrimPrefix(r.URL.Path, "/api/jobs/")
			if jobID == "" {
				middleware.WriteError(w, http.StatusBadRequest, "Job ID is required")
				return
			}
			jobsHandler.GetJob(w, r, jobID)
		})
	}

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	return mux
}
