package jobs

import (
	"context"
	"errors"
	"time"

	"cloud.google.com/go/civil"

	"github.com/dvloznov/expense-coach/internal/domain"
)

// ErrJobNotFound is returned by a JobStore for unknown IDs.
var ErrJobNotFound = errors.New("job not found")

// JobType represents the type of job to be executed.
type JobType string

const (
	// JobTypeBatchSummary summarizes one period for every user.
	JobTypeBatchSummary JobType = "batch_summary"
)

// JobStatus represents the current status of a job.
type JobStatus string

const (
	// JobStatusPending indicates the job is waiting to be processed.
	JobStatusPending JobStatus = "pending"
	// JobStatusRunning indicates the job is currently being processed.
	JobStatusRunning JobStatus = "running"
	// JobStatusCompleted indicates every user was summarized.
	JobStatusCompleted JobStatus = "completed"
	// JobStatusPartiallyFailed indicates some users failed. It is not retried.
	JobStatusPartiallyFailed JobStatus = "partially_failed"
	// JobStatusSkipped indicates the period had already been claimed.
	JobStatusSkipped JobStatus = "skipped"
	// JobStatusFailed indicates the batch aborted and retries are exhausted.
	JobStatusFailed JobStatus = "failed"
	// JobStatusRetrying indicates the job failed and is being retried.
	JobStatusRetrying JobStatus = "retrying"
)

// Trigger records what caused a job.
type Trigger string

const (
	TriggerCron    Trigger = "cron"
	TriggerManual  Trigger = "manual"
	TriggerCatchUp Trigger = "catch-up"
)

// DefaultMaxRetries applies when a job is published without MaxRetries.
const DefaultMaxRetries = 2

// BatchJob represents one scheduled or manual batch summary run.
type BatchJob struct {
	// JobID is the unique identifier for this job.
	JobID string `json:"job_id"`

	// Kind is the period being summarized.
	Kind domain.PeriodKind `json:"kind"`

	// Reference is the tick instant. The job summarizes the period that
	// completed before it.
	Reference time.Time `json:"reference"`

	Trigger Trigger `json:"trigger"`

	// Status is the current status of the job.
	Status JobStatus `json:"status"`

	WindowStart civil.Date `json:"window_start"`
	WindowEnd   civil.Date `json:"window_end"`

	UsersTotal     int `json:"users_total"`
	UsersSucceeded int `json:"users_succeeded"`
	UsersFailed    int `json:"users_failed"`

	// CreatedAt is when the job was created.
	CreatedAt time.Time `json:"created_at"`

	// StartedAt is when the job started processing.
	StartedAt *time.Time `json:"started_at,omitempty"`

	// CompletedAt is when the job reached a terminal state.
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// Error contains error details if the job failed.
	Error string `json:"error,omitempty"`

	// RetryCount is the number of times this job has been retried.
	RetryCount int `json:"retry_count"`

	// MaxRetries is the maximum number of retries allowed.
	MaxRetries int `json:"max_retries"`
}

// Result is what a handler reports about a finished run.
type Result struct {
	Status         JobStatus
	WindowStart    civil.Date
	WindowEnd      civil.Date
	UsersTotal     int
	UsersSucceeded int
	UsersFailed    int
}

// Publisher defines the interface for publishing jobs to a queue.
type Publisher interface {
	// PublishBatch enqueues a batch summary job.
	PublishBatch(ctx context.Context, job *BatchJob) error

	// Close closes the publisher and releases resources.
	Close() error
}

// Consumer defines the interface for consuming jobs from a queue.
type Consumer interface {
	// Start begins consuming jobs from the queue.
	// The handler function is called for each job received.
	Start(ctx context.Context, handler JobHandler) error

	// Stop stops consuming jobs and waits for in-flight jobs to complete.
	Stop(ctx context.Context) error
}

// JobHandler processes a job. A non-nil error means the whole batch failed
// and the job may be retried; partial failures are reported in the Result.
type JobHandler func(ctx context.Context, job *BatchJob) (*Result, error)

// JobStore defines the interface for storing and retrieving job status.
type JobStore interface {
	// SaveJob saves or updates a job's state.
	SaveJob(ctx context.Context, job *BatchJob) error

	// GetJob retrieves a job by ID. It returns ErrJobNotFound for unknown IDs.
	GetJob(ctx context.Context, jobID string) (*BatchJob, error)

	// ListJobs retrieves jobs newest first with optional filtering.
	ListJobs(ctx context.Context, filter JobFilter) ([]*BatchJob, error)

	// UpdateJobStatus updates the status of a job.
	UpdateJobStatus(ctx context.Context, jobID string, status JobStatus, errorMsg string) error
}

// JobFilter defines filtering criteria for listing jobs.
type JobFilter struct {
	// Kind filters jobs by period kind.
	Kind domain.PeriodKind

	// Status filters jobs by status.
	Status JobStatus

	// Limit limits the number of results.
	Limit int

	// Offset for pagination.
	Offset int
}
