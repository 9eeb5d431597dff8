// Package notify runs period summaries for every user and manages the
// resulting inbox.
package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/dvloznov/expense-coach/internal/domain"
	"github.com/dvloznov/expense-coach/internal/logger"
)

// Status is the terminal state of one tick.
type Status string

const (
	StatusCompleted       Status = "completed"
	StatusPartiallyFailed Status = "partially_failed"
	// StatusSkipped means the period was already claimed by an earlier tick.
	StatusSkipped Status = "skipped"
	// StatusFailed means the batch aborted before summarizing anyone.
	StatusFailed Status = "failed"
)

// UserLister enumerates the users to summarize.
type UserLister interface {
	FindUsers(ctx context.Context) ([]*domain.User, error)
}

// NotificationCreator appends one inbox message.
type NotificationCreator interface {
	CreateNotification(ctx context.Context, n *domain.Notification) error
}

// WindowSummarizer runs the summary pipeline for an explicit window.
type WindowSummarizer interface {
	SummarizeWindow(ctx context.Context, userID string, window domain.PeriodWindow) (*domain.SummaryResult, error)
}

// RunLedger records which periods have been claimed and completed so that a
// period is summarized at most once.
type RunLedger interface {
	// Claim returns false when (kind, start) was already claimed.
	Claim(ctx context.Context, kind domain.PeriodKind, start civil.Date) (bool, error)
	// Complete marks a claimed period as done.
	Complete(ctx context.Context, kind domain.PeriodKind, start civil.Date) error
	// Release drops a claim so the period can run again.
	Release(ctx context.Context, kind domain.PeriodKind, start civil.Date) error
}

// ReportSink receives every finished report.
type ReportSink interface {
	Archive(ctx context.Context, report *Report) error
}

// UserFailure records why one user's summary was skipped.
type UserFailure struct {
	UserID string `json:"userId"`
	Error  string `json:"error"`
}

// Report describes one tick.
type Report struct {
	RunID          string              `json:"runId"`
	Kind           domain.PeriodKind   `json:"kind"`
	Window         domain.PeriodWindow `json:"window"`
	Status         Status              `json:"status"`
	StartedAt      time.Time           `json:"startedAt"`
	FinishedAt     time.Time           `json:"finishedAt"`
	UsersTotal     int                 `json:"usersTotal"`
	UsersSucceeded int                 `json:"usersSucceeded"`
	UsersFailed    int                 `json:"usersFailed"`
	Failures       []UserFailure       `json:"failures,omitempty"`
	Error          string              `json:"error,omitempty"`
}

// Options tunes a BatchNotifier.
type Options struct {
	// Concurrency bounds how many users are summarized at once. Values below
	// one mean sequential.
	Concurrency int
	Location    *time.Location
	// Sink is optional.
	Sink ReportSink
}

// BatchNotifier summarizes a completed period for every user and stores one
// notification per successful user.
type BatchNotifier struct {
	users    UserLister
	notes    NotificationCreator
	pipeline WindowSummarizer
	ledger   RunLedger
	sink     ReportSink
	limit    int
	loc      *time.Location
	now      func() time.Time
	newID    func() string
}

func NewBatchNotifier(users UserLister, notes NotificationCreator, pipeline WindowSummarizer, ledger RunLedger, opts Options) *BatchNotifier {
	limit := opts.Concurrency
	if limit < 1 {
		limit = 1
	}
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	return &BatchNotifier{
		users:    users,
		notes:    notes,
		pipeline: pipeline,
		ledger:   ledger,
		sink:     opts.Sink,
		limit:    limit,
		loc:      loc,
		now:      time.Now,
		newID:    func() string { return uuid.New().String() },
	}
}

// RunTick summarizes the most recently completed period of kind before ref.
// Per-user failures are recorded in the report; only an aborted batch returns
// an error.
func (b *BatchNotifier) RunTick(ctx context.Context, kind domain.PeriodKind, ref time.Time) (*Report, error) {
	window, err := domain.PreviousWindow(kind, ref, b.loc)
	if err != nil {
		return nil, err
	}

	report := &Report{
		RunID:     b.newID(),
		Kind:      kind,
		Window:    window,
		StartedAt: b.now().UTC(),
	}
	log := logger.WithFields(logger.FromContext(ctx), map[string]interface{}{
		"component": "batch",
		"run_id":    report.RunID,
		"kind":      string(kind),
		"window":    window.String(),
	})
	ctx = logger.WithContext(ctx, log)

	claimed, err := b.ledger.Claim(ctx, kind, window.Start)
	if err != nil {
		return b.fail(ctx, log, report, fmt.Errorf("RunTick: claim period: %w", err), false)
	}
	if !claimed {
		report.Status = StatusSkipped
		report.FinishedAt = b.now().UTC()
		log.Info().Msg("Period already claimed, skipping tick")
		return report, nil
	}

	users, err := b.users.FindUsers(ctx)
	if err != nil {
		return b.fail(ctx, log, report, fmt.Errorf("RunTick: find users: %w", err), true)
	}
	report.UsersTotal = len(users)
	log.Info().Int("users", len(users)).Int("concurrency", b.limit).Msg("Batch started")

	b.summarizeAll(ctx, log, window, users, report)

	report.Status = StatusCompleted
	if report.UsersFailed > 0 {
		report.Status = StatusPartiallyFailed
	}
	if err := b.ledger.Complete(ctx, kind, window.Start); err != nil {
		log.Error().Err(err).Msg("Failed to mark period completed")
	}
	report.FinishedAt = b.now().UTC()

	log.Info().
		Str("status", string(report.Status)).
		Int("succeeded", report.UsersSucceeded).
		Int("failed", report.UsersFailed).
		Dur("elapsed", report.FinishedAt.Sub(report.StartedAt)).
		Msg("Batch finished")

	b.archive(ctx, log, report)
	return report, nil
}

func (b *BatchNotifier) summarizeAll(ctx context.Context, log zerolog.Logger, window domain.PeriodWindow, users []*domain.User, report *Report) {
	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	g.SetLimit(b.limit)

	for _, u := range users {
		u := u
		g.Go(func() error {
			err := b.notifyUser(ctx, window, u)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				report.UsersFailed++
				report.Failures = append(report.Failures, UserFailure{UserID: u.ID, Error: err.Error()})
				log.Warn().Err(err).Str("user_id", u.ID).Msg("Summary failed for user, continuing")
				return nil
			}
			report.UsersSucceeded++
			return nil
		})
	}
	// Workers never return errors so one user cannot stop the others.
	_ = g.Wait()
}

func (b *BatchNotifier) notifyUser(ctx context.Context, window domain.PeriodWindow, u *domain.User) error {
	result, err := b.pipeline.SummarizeWindow(ctx, u.ID, window)
	if err != nil {
		return err
	}

	n := &domain.Notification{
		ID:        b.newID(),
		UserID:    u.ID,
		Title:     Title(window.Kind),
		Message:   Message(result),
		CreatedAt: b.now().UTC(),
	}
	if err := b.notes.CreateNotification(ctx, n); err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	return nil
}

func (b *BatchNotifier) fail(ctx context.Context, log zerolog.Logger, report *Report, err error, release bool) (*Report, error) {
	if release {
		if relErr := b.ledger.Release(ctx, report.Kind, report.Window.Start); relErr != nil {
			log.Error().Err(relErr).Msg("Failed to release period claim")
		}
	}
	report.Status = StatusFailed
	report.Error = err.Error()
	report.FinishedAt = b.now().UTC()
	log.Error().Err(err).Msg("Batch aborted")
	b.archive(ctx, log, report)
	return report, err
}

func (b *BatchNotifier) archive(ctx context.Context, log zerolog.Logger, report *Report) {
	if b.sink == nil {
		return
	}
	if err := b.sink.Archive(ctx, report); err != nil {
		log.Warn().Err(err).Msg("Failed to archive batch report")
	}
}

// Title is the notification title for a period kind.
func Title(kind domain.PeriodKind) string {
	return kind.Adjective() + " Expense Summary"
}

// Message formats the notification body.
func Message(r *domain.SummaryResult) string {
	return fmt.Sprintf("Total expense: $%s. %s. Advice: %s", r.TotalExpense.StringFixed(2), r.Comparison, r.Advice)
}
