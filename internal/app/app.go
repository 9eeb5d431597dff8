// Package app wires configuration, storage, the text service and the
// pipeline components into one object shared by every binary.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/dvloznov/expense-coach/internal/api/handlers"
	"github.com/dvloznov/expense-coach/internal/categorize"
	"github.com/dvloznov/expense-coach/internal/chat"
	"github.com/dvloznov/expense-coach/internal/config"
	infraBQ "github.com/dvloznov/expense-coach/internal/infra/bigquery"
	"github.com/dvloznov/expense-coach/internal/infra/gcs"
	"github.com/dvloznov/expense-coach/internal/infra/memory"
	"github.com/dvloznov/expense-coach/internal/infra/postgres"
	"github.com/dvloznov/expense-coach/internal/ingest"
	"github.com/dvloznov/expense-coach/internal/jobs"
	"github.com/dvloznov/expense-coach/internal/jobs/inmemory"
	"github.com/dvloznov/expense-coach/internal/llm"
	"github.com/dvloznov/expense-coach/internal/logger"
	"github.com/dvloznov/expense-coach/internal/notify"
	"github.com/dvloznov/expense-coach/internal/scheduler"
	"github.com/dvloznov/expense-coach/internal/store"
	"github.com/dvloznov/expense-coach/internal/summary"
)

// postgresConnectAttempts is how many pings Connect tries before giving up.
const postgresConnectAttempts = 5

// queueBuffer is how many batch jobs may wait before publishing blocks.
const queueBuffer = 100

// App holds every long-lived component.
type App struct {
	Config *config.Config
	Log    zerolog.Logger

	Store store.Datastore
	// AIConfigured is false when no credentials were found; classification
	// then uses the keyword rules and advice calls fail with a
	// configuration error.
	AIConfigured bool

	Resolver *categorize.Resolver
	Advice   *summary.AdviceGenerator
	Pipeline *summary.Pipeline
	Router   *chat.Router
	Inbox    *notify.Inbox
	Ingest   *ingest.Service

	Ledger scheduler.Ledger
	Batch  *notify.BatchNotifier
	Jobs   *inmemory.Store
	Queue  *inmemory.Queue

	closers []func() error
}

// Deps are the externally backed components. New builds them from the
// configuration; tests pass their own to Build.
type Deps struct {
	Store  store.Datastore
	Text   llm.TextGenerator
	Ledger scheduler.Ledger
	Sink   notify.ReportSink
}

// New connects every backend named by cfg and builds the App.
func New(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*App, error) {
	ctx = logger.WithContext(ctx, log)
	var closers []func() error
	fail := func(err error) (*App, error) {
		for i := len(closers) - 1; i >= 0; i-- {
			_ = closers[i]()
		}
		return nil, err
	}

	ds, err := openDatastore(ctx, cfg)
	if err != nil {
		return fail(err)
	}
	closers = append(closers, ds.Close)

	deps := Deps{Store: ds}

	gen, err := llm.NewGeminiClient(ctx, llm.Config{
		APIKey:          cfg.LLM.APIKey,
		CredentialsFile: cfg.LLM.CredentialsFile,
		Project:         cfg.LLM.Project,
		Location:        cfg.LLM.Location,
		Model:           cfg.LLM.Model,
		Timeout:         cfg.LLM.Timeout,
	})
	var cfgErr *llm.ConfigurationError
	switch {
	case err == nil:
		deps.Text = gen
	case errors.As(err, &cfgErr):
		log.Warn().Str("reason", cfgErr.Reason).Str("guidance", cfgErr.Guidance).
			Msg("AI service not configured, using keyword rules for categories")
		deps.Text = llm.NewUnconfigured(cfgErr)
	default:
		return fail(fmt.Errorf("app: create text client: %w", err))
	}

	if cfg.LedgerRedisURL != "" {
		ledger, err := scheduler.NewRedisLedger(ctx, cfg.LedgerRedisURL)
		if err != nil {
			return fail(fmt.Errorf("app: connect ledger: %w", err))
		}
		closers = append(closers, ledger.Close)
		deps.Ledger = ledger
	} else {
		deps.Ledger = scheduler.NewMemoryLedger()
	}

	if cfg.ReportBucket != "" {
		archiver, err := gcs.NewReportArchiver(ctx, cfg.ReportBucket)
		if err != nil {
			return fail(fmt.Errorf("app: report archive: %w", err))
		}
		closers = append(closers, archiver.Close)
		deps.Sink = archiver
	}

	a := Build(cfg, log, deps)
	a.closers = append(a.closers, closers...)
	return a, nil
}

// Build assembles the pipeline around already constructed dependencies.
func Build(cfg *config.Config, log zerolog.Logger, deps Deps) *App {
	_, unconfigured := deps.Text.(*llm.Unconfigured)

	var ai categorize.Classifier
	if deps.Text != nil && !unconfigured {
		ai = categorize.NewAIClassifier(deps.Text)
	}
	text := deps.Text
	if text == nil {
		text = llm.NewUnconfigured(nil)
	}

	advice := summary.NewAdviceGenerator(text)
	pipeline := summary.NewPipeline(
		summary.NewAggregator(deps.Store, cfg.Location),
		summary.NewGoalComparator(deps.Store, cfg.DefaultMonthlyGoal),
		advice,
		cfg.Location,
	)
	resolver := categorize.NewResolver(ai, categorize.NewRuleClassifier())

	ledger := deps.Ledger
	if ledger == nil {
		ledger = scheduler.NewMemoryLedger()
	}

	jobStore := inmemory.NewStore()
	queue := inmemory.NewQueue(queueBuffer, 1, jobStore)
	queue.SetMaxRetries(cfg.BatchMaxRetries)

	return &App{
		Config:       cfg,
		Log:          log,
		Store:        deps.Store,
		AIConfigured: ai != nil,
		Resolver:     resolver,
		Advice:       advice,
		Pipeline:     pipeline,
		Router:       chat.NewRouter(pipeline, advice),
		Inbox:        notify.NewInbox(deps.Store),
		Ingest:       ingest.NewService(resolver, deps.Store, cfg.Location),
		Ledger:       ledger,
		Batch: notify.NewBatchNotifier(deps.Store, deps.Store, pipeline, ledger, notify.Options{
			Concurrency: cfg.BatchConcurrency,
			Location:    cfg.Location,
			Sink:        deps.Sink,
		}),
		Jobs:  jobStore,
		Queue: queue,
	}
}

func openDatastore(ctx context.Context, cfg *config.Config) (store.Datastore, error) {
	switch cfg.Datastore {
	case config.DatastoreBigQuery:
		ds, err := infraBQ.NewDatastore(ctx, cfg.GCPProject, cfg.BigQueryDataset)
		if err != nil {
			return nil, fmt.Errorf("app: bigquery datastore: %w", err)
		}
		return ds, nil
	case config.DatastorePostgres:
		ds, err := postgres.Connect(ctx, cfg.DatabaseURL, postgresConnectAttempts)
		if err != nil {
			return nil, fmt.Errorf("app: postgres datastore: %w", err)
		}
		if err := ds.Migrate(ctx); err != nil {
			ds.Close()
			return nil, fmt.Errorf("app: postgres datastore: %w", err)
		}
		return ds, nil
	case config.DatastoreMemory:
		return memory.NewDatastore(), nil
	}
	return nil, fmt.Errorf("app: unknown datastore %q", cfg.Datastore)
}

// BatchHandler runs one queued batch job through the notifier. Only an
// aborted batch is reported as an error, which makes the queue retry it.
func (a *App) BatchHandler() jobs.JobHandler {
	return func(ctx context.Context, job *jobs.BatchJob) (*jobs.Result, error) {
		ctx = logger.WithContext(ctx, a.Log.With().
			Str("job_id", job.JobID).
			Str("trigger", string(job.Trigger)).
			Logger())

		report, err := a.Batch.RunTick(ctx, job.Kind, job.Reference)
		if report == nil {
			return nil, err
		}

		result := &jobs.Result{
			Status:         jobStatus(report.Status),
			WindowStart:    report.Window.Start,
			WindowEnd:      report.Window.End,
			UsersTotal:     report.UsersTotal,
			UsersSucceeded: report.UsersSucceeded,
			UsersFailed:    report.UsersFailed,
		}
		if err == nil && report.Status == notify.StatusFailed {
			err = errors.New(report.Error)
		}
		return result, err
	}
}

func jobStatus(s notify.Status) jobs.JobStatus {
	switch s {
	case notify.StatusCompleted:
		return jobs.JobStatusCompleted
	case notify.StatusPartiallyFailed:
		return jobs.JobStatusPartiallyFailed
	case notify.StatusSkipped:
		return jobs.JobStatusSkipped
	}
	return jobs.JobStatusFailed
}

// Handlers builds the HTTP handler set.
func (a *App) Handlers() handlers.Set {
	return handlers.Set{
		Summary:       handlers.NewSummaryHandler(a.Router, a.Pipeline, a.Config.Location, a.Log),
		Notifications: handlers.NewNotificationsHandler(a.Inbox, a.Log),
		Expenses:      handlers.NewExpensesHandler(a.Ingest, a.Log),
		Goals:         handlers.NewGoalsHandler(a.Store, a.Log),
		BatchRuns:     handlers.NewBatchRunsHandler(a.Jobs, a.Queue, a.Log),
		Operators:     a.Config.OperatorIDs,
	}
}

// NewScheduler builds the cron scheduler publishing to the App's queue.
func (a *App) NewScheduler() (*scheduler.Scheduler, error) {
	if !a.Config.SharedLedger() {
		a.Log.Warn().Msg("Run ledger is process-local; run a single scheduler and expect no catch-up after restarts")
	}
	return scheduler.New(a.Queue, a.Ledger, scheduler.Options{
		WeeklySpec:  a.Config.WeeklySchedule,
		MonthlySpec: a.Config.MonthlySchedule,
		Location:    a.Config.Location,
	}, a.Log)
}

// Close releases every backend in reverse order of creation.
func (a *App) Close() error {
	var errs []error
	if err := a.Queue.Close(); err != nil {
		errs = append(errs, err)
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
