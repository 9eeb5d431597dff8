package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/dvloznov/expense-coach/internal/api/middleware"
	"github.com/dvloznov/expense-coach/internal/chat"
	"github.com/dvloznov/expense-coach/internal/domain"
	"github.com/dvloznov/expense-coach/internal/ingest"
	"github.com/dvloznov/expense-coach/internal/jobs"
	"github.com/dvloznov/expense-coach/internal/llm"
	"github.com/dvloznov/expense-coach/internal/notify"
	"github.com/dvloznov/expense-coach/internal/store"
	"github.com/dvloznov/expense-coach/internal/summary"
)

// writeServiceError maps a pipeline error to a status code.
func writeServiceError(w http.ResponseWriter, log zerolog.Logger, err error, op string) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
	case llm.IsConfigurationError(err):
		log.Error().Err(err).Msg(op + ": AI service not configured")
		middleware.WriteError(w, http.StatusServiceUnavailable, "AI service is not configured")
	case errors.Is(err, summary.ErrGeneration):
		log.Error().Err(err).Msg(op + ": generation failed")
		middleware.WriteError(w, http.StatusBadGateway, "Failed to generate a response")
	case errors.Is(err, store.ErrNotFound), errors.Is(err, jobs.ErrJobNotFound):
		middleware.WriteError(w, http.StatusNotFound, "Not found")
	case errors.Is(err, notify.ErrForbidden):
		middleware.WriteError(w, http.StatusForbidden, "Forbidden")
	default:
		log.Error().Err(err).Msg(op + " failed")
		middleware.WriteError(w, http.StatusInternalServerError, op+" failed")
	}
}

// requireUser returns the authenticated user id or writes a 401.
func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		middleware.WriteError(w, http.StatusUnauthorized, "Authentication required")
	}
	return userID, ok
}

// CommandHandler answers free-text commands.
type CommandHandler interface {
	Handle(ctx context.Context, userID, command string) (*chat.Reply, error)
}

// WindowEvaluator computes totals and goal comparison without advice.
type WindowEvaluator interface {
	Evaluate(ctx context.Context, userID string, window domain.PeriodWindow) (*domain.SummaryResult, int, error)
}

// SummaryHandler handles summary and chat endpoints.
type SummaryHandler struct {
	router    CommandHandler
	evaluator WindowEvaluator
	loc       *time.Location
	now       func() time.Time
	log       zerolog.Logger
}

// NewSummaryHandler creates a new summary handler.
func NewSummaryHandler(router CommandHandler, evaluator WindowEvaluator, loc *time.Location, log zerolog.Logger) *SummaryHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &SummaryHandler{
		router:    router,
		evaluator: evaluator,
		loc:       loc,
		now:       time.Now,
		log:       log,
	}
}

// Summarize handles POST /api/v1/summarize
func (h *SummaryHandler) Summarize(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req struct {
		Command string `json:"command"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Command) == "" {
		middleware.WriteError(w, http.StatusBadRequest, "Command is required")
		return
	}

	reply, err := h.router.Handle(r.Context(), userID, req.Command)
	if err != nil {
		writeServiceError(w, h.log, err, "Summarize")
		return
	}

	var payload interface{} = reply.Summary
	if reply.Kind == chat.KindChat {
		payload = map[string]string{"text": reply.Text}
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"kind":    reply.Kind,
		"route":   reply.Route,
		"payload": payload,
	})
}

// WeeklySummary handles POST /api/v1/weekly-summary
func (h *SummaryHandler) WeeklySummary(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req struct {
		StartDate string `json:"startDate"`
		EndDate   string `json:"endDate"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	start, err := civil.ParseDate(req.StartDate)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid startDate format")
		return
	}
	end, err := civil.ParseDate(req.EndDate)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid endDate format")
		return
	}

	today := civil.DateOf(h.now().In(h.loc))
	if !domain.IsValidWeekRange(start, end, today) {
		middleware.WriteError(w, http.StatusBadRequest, "Dates must span a past Monday to Sunday week")
		return
	}

	window := domain.PeriodWindow{Kind: domain.PeriodWeek, Start: start, End: end}
	result, count, err := h.evaluator.Evaluate(r.Context(), userID, window)
	if err != nil {
		writeServiceError(w, h.log, err, "Weekly summary")
		return
	}
	if count == 0 {
		middleware.WriteError(w, http.StatusNotFound, "No transactions found for this week")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"totalExpense":      result.TotalExpense,
		"categoryBreakdown": result.CategoryBreakdown,
		"goalAmount":        result.GoalAmount,
		"difference":        result.Difference,
		"comparison":        result.Comparison,
	})
}

// NotificationsHandler handles the inbox endpoints.
type NotificationsHandler struct {
	inbox *notify.Inbox
	log   zerolog.Logger
}

// NewNotificationsHandler creates a new notifications handler.
func NewNotificationsHandler(inbox *notify.Inbox, log zerolog.Logger) *NotificationsHandler {
	return &NotificationsHandler{inbox: inbox, log: log}
}

// ListNotifications handles GET /api/v1/notifications
func (h *NotificationsHandler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	list, err := h.inbox.List(r.Context(), userID)
	if err != nil {
		writeServiceError(w, h.log, err, "List notifications")
		return
	}
	if list == nil {
		list = []*domain.Notification{}
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"notifications": list,
		"count":         len(list),
	})
}

// MarkRead handles PATCH /api/v1/notifications/{id}/read
func (h *NotificationsHandler) MarkRead(w http.ResponseWriter, r *http.Request, id string) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	n, err := h.inbox.MarkRead(r.Context(), userID, id)
	if err != nil {
		writeServiceError(w, h.log, err, "Mark notification read")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, n)
}

// Ingester records a new expense.
type Ingester interface {
	Ingest(ctx context.Context, req ingest.Request) (*domain.Transaction, error)
}

// ExpensesHandler handles expense ingestion.
type ExpensesHandler struct {
	ingester Ingester
	log      zerolog.Logger
}

// NewExpensesHandler creates a new expenses handler.
func NewExpensesHandler(ingester Ingester, log zerolog.Logger) *ExpensesHandler {
	return &ExpensesHandler{ingester: ingester, log: log}
}

// CreateExpense handles POST /api/v1/expenses
func (h *ExpensesHandler) CreateExpense(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req struct {
		Description string          `json:"description"`
		Amount      decimal.Decimal `json:"amount"`
		Date        string          `json:"date"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	in := ingest.Request{UserID: userID, Description: req.Description, Amount: req.Amount}
	if req.Date != "" {
		d, err := civil.ParseDate(req.Date)
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, "Invalid date format")
			return
		}
		in.Date = d
	}

	tx, err := h.ingester.Ingest(r.Context(), in)
	if err != nil {
		writeServiceError(w, h.log, err, "Create expense")
		return
	}
	middleware.WriteJSON(w, http.StatusCreated, tx)
}

// GoalsHandler handles goal management.
type GoalsHandler struct {
	repo store.GoalRepository
	log  zerolog.Logger
}

// NewGoalsHandler creates a new goals handler.
func NewGoalsHandler(repo store.GoalRepository, log zerolog.Logger) *GoalsHandler {
	return &GoalsHandler{repo: repo, log: log}
}

// PutGoal handles PUT /api/v1/goals
func (h *GoalsHandler) PutGoal(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req struct {
		Month  int             `json:"month"`
		Year   int             `json:"year"`
		Amount decimal.Decimal `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	goal := &domain.Goal{UserID: userID, Month: time.Month(req.Month), Year: req.Year, MonthlyAmount: req.Amount}
	if err := goal.Validate(); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.repo.SaveGoal(r.Context(), goal); err != nil {
		writeServiceError(w, h.log, err, "Save goal")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, goal)
}

// BatchRunsHandler handles batch run inspection and manual triggers.
type BatchRunsHandler struct {
	store     jobs.JobStore
	publisher jobs.Publisher
	log       zerolog.Logger
	now       func() time.Time
}

// NewBatchRunsHandler creates a new batch runs handler.
func NewBatchRunsHandler(store jobs.JobStore, publisher jobs.Publisher, log zerolog.Logger) *BatchRunsHandler {
	return &BatchRunsHandler{store: store, publisher: publisher, log: log, now: time.Now}
}

// GetRun handles GET /api/v1/batch-runs/{id}
func (h *BatchRunsHandler) GetRun(w http.ResponseWriter, r *http.Request, jobID string) {
	job, err := h.store.GetJob(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, jobs.ErrJobNotFound) {
			middleware.WriteError(w, http.StatusNotFound, "Batch run not found")
			return
		}
		writeServiceError(w, h.log, err, "Get batch run")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, job)
}

// ListRuns handles GET /api/v1/batch-runs
func (h *BatchRunsHandler) ListRuns(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := jobs.JobFilter{
		Status: jobs.JobStatus(query.Get("status")),
	}
	if k := query.Get("kind"); k != "" {
		kind, err := domain.ParsePeriodKind(k)
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		filter.Kind = kind
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

	runs, err := h.store.ListJobs(r.Context(), filter)
	if err != nil {
		writeServiceError(w, h.log, err, "List batch runs")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"runs":  runs,
		"count": len(runs),
	})
}

// TriggerRun handles POST /api/v1/batch-runs
func (h *BatchRunsHandler) TriggerRun(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Kind string `json:"kind"`
		// Reference is an optional RFC 3339 tick instant; the run covers the
		// period completed before it.
		Reference string `json:"reference"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	kind, err := domain.ParsePeriodKind(req.Kind)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	ref := h.now()
	if req.Reference != "" {
		if ref, err = time.Parse(time.RFC3339, req.Reference); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, "Invalid reference format")
			return
		}
	}

	job := &jobs.BatchJob{Kind: kind, Reference: ref, Trigger: jobs.TriggerManual}
	if err := h.publisher.PublishBatch(r.Context(), job); err != nil {
		h.log.Error().Err(err).Msg("Failed to enqueue batch run")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to enqueue batch run")
		return
	}

	h.log.Info().Str("job_id", job.JobID).Str("kind", string(kind)).Msg("Batch run enqueued")

	middleware.WriteJSON(w, http.StatusAccepted, map[string]string{
		"job_id": job.JobID,
		"kind":   string(job.Kind),
		"status": string(job.Status),
	})
}
