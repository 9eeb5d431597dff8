package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/dvloznov/expense-coach/internal/api/middleware"
)

// Set bundles every handler mounted by NewMux. Nil handlers leave their
// routes unmounted.
type Set struct {
	Summary       *SummaryHandler
	Notifications *NotificationsHandler
	Expenses      *ExpensesHandler
	Goals         *GoalsHandler
	BatchRuns     *BatchRunsHandler

	// Operators may list and trigger batch runs.
	Operators []string
}

// NewMux registers the /api/v1 routes and /health.
func NewMux(s Set) *http.ServeMux {
	mux := http.NewServeMux()

	if s.Summary != nil {
		mux.HandleFunc("/api/v1/summarize", method(http.MethodPost, s.Summary.Summarize))
		mux.HandleFunc("/api/v1/weekly-summary", method(http.MethodPost, s.Summary.WeeklySummary))
	}

	if s.Notifications != nil {
		mux.HandleFunc("/api/v1/notifications", method(http.MethodGet, s.Notifications.ListNotifications))
		mux.HandleFunc("/api/v1/notifications/", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPatch {
				middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
				return
			}
			// Extract notification ID from /api/v1/notifications/{id}/read
			rest := strings.TrimPrefix(r.URL.Path, "/api/v1/notifications/")
			id, action, found := strings.Cut(rest, "/")
			if !found || action != "read" || id == "" {
				middleware.WriteError(w, http.StatusNotFound, "Not found")
				return
			}
			s.Notifications.MarkRead(w, r, id)
		})
	}

	if s.Expenses != nil {
		mux.HandleFunc("/api/v1/expenses", method(http.MethodPost, s.Expenses.CreateExpense))
	}

	if s.Goals != nil {
		mux.HandleFunc("/api/v1/goals", method(http.MethodPut, s.Goals.PutGoal))
	}

	if s.BatchRuns != nil {
		operatorOnly := middleware.RequireOperator(s.Operators)
		mux.Handle("/api/v1/batch-runs", operatorOnly(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				s.BatchRuns.ListRuns(w, r)
			case http.MethodPost:
				s.BatchRuns.TriggerRun(w, r)
			default:
				middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
			}
		})))
		mux.Handle("/api/v1/batch-runs/", operatorOnly(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
				return
			}
			jobID := strings.TrimPrefix(r.URL.Path, "/api/v1/batch-runs/")
			if jobID == "" {
				middleware.WriteError(w, http.StatusBadRequest, "Batch run ID is required")
				return
			}
			s.BatchRuns.GetRun(w, r, jobID)
		})))
	}

	// Health check endpoint
	mux.HandleFunc(HealthPath, func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	return mux
}

// HealthPath is served without authentication.
const HealthPath = "/health"

func method(m string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != m {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		h(w, r)
	}
}
