package app

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/dvloznov/expense-coach/internal/config"
	"github.com/dvloznov/expense-coach/internal/domain"
	"github.com/dvloznov/expense-coach/internal/infra/memory"
	"github.com/dvloznov/expense-coach/internal/jobs"
	"github.com/dvloznov/expense-coach/internal/llm"
	"github.com/dvloznov/expense-coach/internal/logger"
	"github.com/dvloznov/expense-coach/internal/notify"
)

// MockTextGenerator is a mock implementation of llm.TextGenerator.
type MockTextGenerator struct {
	GenerateTextFunc func(ctx context.Context, prompt string) (string, error)
}

func (m *MockTextGenerator) GenerateText(ctx context.Context, prompt string) (string, error) {
	if m.GenerateTextFunc != nil {
		return m.GenerateTextFunc(ctx, prompt)
	}
	return "", nil
}

func testConfig() *config.Config {
	return &config.Config{
		Datastore:          config.DatastoreMemory,
		DefaultMonthlyGoal: decimal.NewFromInt(400),
		Location:           time.UTC,
		BatchConcurrency:   2,
		BatchMaxRetries:    0,
	}
}

func seed(t *testing.T, ds *memory.Datastore, user, desc, amount string, day civil.Date) {
	t.Helper()
	err := ds.SaveTransaction(context.Background(), &domain.Transaction{
		ID:          user + desc,
		UserID:      user,
		Description: desc,
		Category:    domain.CategoryFoodAndDrink,
		Amount:      decimal.RequireFromString(amount),
		OccurredAt:  day,
		CreatedAt:   time.Now(),
	})
	if err != nil {
		t.Fatalf("SaveTransaction: %v", err)
	}
}

func TestBatchHandler_EndToEnd(t *testing.T) {
	ds := memory.NewDatastore()
	day := civil.Date{Year: 2024, Month: time.June, Day: 4}
	seed(t, ds, "alice", "lunch", "60", day)
	seed(t, ds, "bob", "dinner", "150", day)
	seed(t, ds, "carol", "coffee", "5", day)

	gen := &MockTextGenerator{GenerateTextFunc: func(ctx context.Context, prompt string) (string, error) {
		if strings.Contains(prompt, "150.00") {
			return "", errors.New("quota exceeded")
		}
		return "Keep it up.", nil
	}}
	a := Build(testConfig(), logger.Nop(), Deps{Store: ds, Text: gen})
	handler := a.BatchHandler()

	job := &jobs.BatchJob{JobID: "j1", Kind: domain.PeriodWeek, Reference: time.Date(2024, time.June, 10, 8, 0, 0, 0, time.UTC)}
	result, err := handler(context.Background(), job)
	if err != nil {
		t.Fatalf("handler error = %v", err)
	}
	if result.Status != jobs.JobStatusPartiallyFailed || result.UsersSucceeded != 2 || result.UsersFailed != 1 {
		t.Errorf("unexpected result %+v", result)
	}
	if result.WindowStart != (civil.Date{Year: 2024, Month: time.June, Day: 3}) {
		t.Errorf("window start = %s", result.WindowStart)
	}

	list, _ := ds.ListNotifications(context.Background(), "alice")
	if len(list) != 1 || !strings.Contains(list[0].Message, "Advice: Keep it up.") {
		t.Errorf("alice notifications = %+v", list)
	}

	// Same period again is skipped by the ledger.
	result, err = handler(context.Background(), job)
	if err != nil || result.Status != jobs.JobStatusSkipped {
		t.Errorf("second run = %+v, %v", result, err)
	}
}

type failingUsers struct{ *memory.Datastore }

func (failingUsers) FindUsers(context.Context) ([]*domain.User, error) {
	return nil, errors.New("datastore unavailable")
}

func TestBatchHandler_AbortIsError(t *testing.T) {
	a := Build(testConfig(), logger.Nop(), Deps{Store: failingUsers{memory.NewDatastore()}, Text: &MockTextGenerator{}})

	result, err := a.BatchHandler()(context.Background(), &jobs.BatchJob{Kind: domain.PeriodMonth, Reference: time.Now()})
	if err == nil {
		t.Fatal("expected error for an aborted batch")
	}
	if result != nil && result.Status != jobs.JobStatusFailed {
		t.Errorf("status = %s, want failed", result.Status)
	}
}

func TestBuild_Unconfigured(t *testing.T) {
	ds := memory.NewDatastore()
	a := Build(testConfig(), logger.Nop(), Deps{Store: ds, Text: llm.NewUnconfigured(nil)})

	if a.AIConfigured {
		t.Error("AIConfigured = true, want false")
	}
	if got := a.Resolver.Resolve(context.Background(), "Netflix subscription"); got != domain.CategoryEntertainment {
		t.Errorf("Resolve() = %s, want Entertainment from rules", got)
	}

	_, err := a.Router.Handle(context.Background(), "alice", "how am I doing?")
	if !llm.IsConfigurationError(err) {
		t.Errorf("chat error = %v, want configuration error", err)
	}
}

func TestBuild_Handlers(t *testing.T) {
	a := Build(testConfig(), logger.Nop(), Deps{Store: memory.NewDatastore(), Text: &MockTextGenerator{}})
	defer a.Close()

	set := a.Handlers()
	if set.Summary == nil || set.Notifications == nil || set.Expenses == nil || set.Goals == nil || set.BatchRuns == nil {
		t.Errorf("incomplete handler set %+v", set)
	}

	s, err := a.NewScheduler()
	if err != nil || s == nil {
		t.Errorf("NewScheduler() = %v, %v", s, err)
	}
}

func TestHandlers_Operators(t *testing.T) {
	cfg := testConfig()
	cfg.OperatorIDs = []string{"ops"}
	a := Build(cfg, logger.Nop(), Deps{Store: memory.NewDatastore()})
	defer a.Close()

	if got := a.Handlers().Operators; len(got) != 1 || got[0] != "ops" {
		t.Errorf("Operators = %v, want [ops]", got)
	}
}

func TestNewScheduler_WarnsOnLocalLedger(t *testing.T) {
	tests := []struct {
		name     string
		redisURL string
		wantWarn bool
	}{
		{"memory ledger", "", true},
		{"shared ledger", "redis://localhost:6379/0", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			cfg := testConfig()
			cfg.LedgerRedisURL = tt.redisURL
			a := Build(cfg, logger.NewWithWriter(buf), Deps{Store: memory.NewDatastore()})
			defer a.Close()

			if _, err := a.NewScheduler(); err != nil {
				t.Fatalf("NewScheduler: %v", err)
			}
			if got := strings.Contains(buf.String(), "process-local"); got != tt.wantWarn {
				t.Errorf("warned = %v, want %v (%s)", got, tt.wantWarn, buf.String())
			}
		})
	}
}

func TestJobStatus(t *testing.T) {
	tests := map[string]jobs.JobStatus{
		"completed":        jobs.JobStatusCompleted,
		"partially_failed": jobs.JobStatusPartiallyFailed,
		"skipped":          jobs.JobStatusSkipped,
		"failed":           jobs.JobStatusFailed,
	}
	for in, want := range tests {
		if got := jobStatus(notify.Status(in)); got != want {
			t.Errorf("jobStatus(%s) = %s, want %s", in, got, want)
		}
	}
}
