package handlers

import (
	"context"

	"github.com/dvloznov/expense-coach/internal/chat"
	"github.com/dvloznov/expense-coach/internal/domain"
	"github.com/dvloznov/expense-coach/internal/ingest"
	"github.com/dvloznov/expense-coach/internal/jobs"
)

// MockCommandHandler is a mock implementation of CommandHandler.
type MockCommandHandler struct {
	HandleFunc func(ctx context.Context, userID, command string) (*chat.Reply, error)
}

func (m *MockCommandHandler) Handle(ctx context.Context, userID, command string) (*chat.Reply, error) {
	if m.HandleFunc != nil {
		return m.HandleFunc(ctx, userID, command)
	}
	return &chat.Reply{Kind: chat.KindChat, Route: chat.RouteGeneralChat, Text: "ok"}, nil
}

// MockWindowEvaluator is a mock implementation of WindowEvaluator.
type MockWindowEvaluator struct {
	EvaluateFunc func(ctx context.Context, userID string, window domain.PeriodWindow) (*domain.SummaryResult, int, error)
}

func (m *MockWindowEvaluator) Evaluate(ctx context.Context, userID string, window domain.PeriodWindow) (*domain.SummaryResult, int, error) {
	if m.EvaluateFunc != nil {
		return m.EvaluateFunc(ctx, userID, window)
	}
	return &domain.SummaryResult{}, 0, nil
}

// MockIngester is a mock implementation of Ingester.
type MockIngester struct {
	IngestFunc func(ctx context.Context, req ingest.Request) (*domain.Transaction, error)
}

func (m *MockIngester) Ingest(ctx context.Context, req ingest.Request) (*domain.Transaction, error) {
	if m.IngestFunc != nil {
		return m.IngestFunc(ctx, req)
	}
	return &domain.Transaction{UserID: req.UserID, Description: req.Description}, nil
}

// MockPublisher records published jobs.
type MockPublisher struct {
	Published []*jobs.BatchJob
	Err       error
}

func (m *MockPublisher) PublishBatch(ctx context.Context, job *jobs.BatchJob) error {
	if m.Err != nil {
		return m.Err
	}
	job.JobID = "job-1"
	job.Status = jobs.JobStatusPending
	m.Published = append(m.Published, job)
	return nil
}

func (m *MockPublisher) Close() error { return nil }
