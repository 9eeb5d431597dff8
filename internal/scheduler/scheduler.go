// Package scheduler fires weekly and monthly batch summary jobs and records
// which periods have run.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/dvloznov/expense-coach/internal/domain"
	"github.com/dvloznov/expense-coach/internal/jobs"
	"github.com/dvloznov/expense-coach/internal/logger"
)

// Default schedules, standard five-field cron syntax.
const (
	DefaultWeeklySpec  = "0 8 * * 1"
	DefaultMonthlySpec = "0 8 1 * *"
)

// Options configures a Scheduler.
type Options struct {
	WeeklySpec  string
	MonthlySpec string
	Location    *time.Location
}

// CompletionReader is the part of the ledger the scheduler reads.
type CompletionReader interface {
	LastCompleted(ctx context.Context, kind domain.PeriodKind) (civil.Date, bool, error)
}

// Scheduler publishes a BatchJob whenever a schedule fires.
type Scheduler struct {
	cron      *cron.Cron
	publisher jobs.Publisher
	ledger    CompletionReader
	specs     map[domain.PeriodKind]string
	loc       *time.Location
	log       zerolog.Logger
	now       func() time.Time
}

// New validates both schedules and builds a stopped scheduler.
func New(publisher jobs.Publisher, ledger CompletionReader, opts Options, log zerolog.Logger) (*Scheduler, error) {
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	specs := map[domain.PeriodKind]string{
		domain.PeriodWeek:  opts.WeeklySpec,
		domain.PeriodMonth: opts.MonthlySpec,
	}
	if specs[domain.PeriodWeek] == "" {
		specs[domain.PeriodWeek] = DefaultWeeklySpec
	}
	if specs[domain.PeriodMonth] == "" {
		specs[domain.PeriodMonth] = DefaultMonthlySpec
	}

	log = logger.WithComponent(log, "scheduler")
	s := &Scheduler{
		cron:      cron.New(cron.WithLocation(loc), cron.WithLogger(cronLogger{log})),
		publisher: publisher,
		ledger:    ledger,
		specs:     specs,
		loc:       loc,
		log:       log,
		now:       time.Now,
	}

	for _, kind := range []domain.PeriodKind{domain.PeriodWeek, domain.PeriodMonth} {
		kind := kind
		if _, err := s.cron.AddFunc(specs[kind], func() { s.fire(context.Background(), kind) }); err != nil {
			return nil, fmt.Errorf("scheduler: invalid %s schedule %q: %w", kind, specs[kind], err)
		}
	}
	return s, nil
}

// Start begins firing schedules in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
	for _, e := range s.cron.Entries() {
		s.log.Info().Time("next", e.Next).Msg("Schedule armed")
	}
}

// Stop halts the cron loop and waits for running firings, bounded by ctx.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scheduler) fire(ctx context.Context, kind domain.PeriodKind) {
	job := &jobs.BatchJob{
		Kind:      kind,
		Reference: s.now().In(s.loc),
		Trigger:   jobs.TriggerCron,
	}
	if err := s.publisher.PublishBatch(ctx, job); err != nil {
		s.log.Error().Err(err).Str("kind", string(kind)).Msg("Failed to publish scheduled batch")
		return
	}
	s.log.Info().Str("kind", string(kind)).Str("job_id", job.JobID).Msg("Scheduled batch published")
}

// CatchUp publishes a catch-up job for each kind whose most recent completed
// period is missing from the ledger. Kinds that have never run are left
// to the schedule.
func (s *Scheduler) CatchUp(ctx context.Context) ([]*jobs.BatchJob, error) {
	now := s.now()
	var published []*jobs.BatchJob

	for _, kind := range []domain.PeriodKind{domain.PeriodWeek, domain.PeriodMonth} {
		expected, err := domain.PreviousWindow(kind, now, s.loc)
		if err != nil {
			return published, err
		}

		last, ok, err := s.ledger.LastCompleted(ctx, kind)
		if err != nil {
			return published, fmt.Errorf("CatchUp: read ledger: %w", err)
		}
		if !ok || !last.Before(expected.Start) {
			continue
		}

		// Anchor the job just after the missed window so it targets exactly that window.
		after := expected.End.AddDays(1)
		job := &jobs.BatchJob{
			Kind:      kind,
			Reference: time.Date(after.Year, after.Month, after.Day, 0, 0, 0, 0, s.loc),
			Trigger:   jobs.TriggerCatchUp,
		}
		if err := s.publisher.PublishBatch(ctx, job); err != nil {
			return published, fmt.Errorf("CatchUp: publish %s: %w", kind, err)
		}
		s.log.Info().
			Str("kind", string(kind)).
			Str("last_completed", last.String()).
			Str("missed", expected.String()).
			Msg("Published catch-up batch")
		published = append(published, job)
	}
	return published, nil
}

// cronLogger routes robfig/cron's internal logging through zerolog.
type cronLogger struct {
	log zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
