package notify

import (
	"context"
	"sync"

	"cloud.google.com/go/civil"

	"github.com/dvloznov/expense-coach/internal/domain"
)

// MockSummarizer is a mock implementation of WindowSummarizer.
type MockSummarizer struct {
	SummarizeWindowFunc func(ctx context.Context, userID string, window domain.PeriodWindow) (*domain.SummaryResult, error)
}

func (m *MockSummarizer) SummarizeWindow(ctx context.Context, userID string, window domain.PeriodWindow) (*domain.SummaryResult, error) {
	if m.SummarizeWindowFunc != nil {
		return m.SummarizeWindowFunc(ctx, userID, window)
	}
	return &domain.SummaryResult{Period: window.Kind, Window: window}, nil
}

// MockUserLister is a mock implementation of UserLister.
type MockUserLister struct {
	FindUsersFunc func(ctx context.Context) ([]*domain.User, error)
}

func (m *MockUserLister) FindUsers(ctx context.Context) ([]*domain.User, error) {
	return m.FindUsersFunc(ctx)
}

type ledgerKey struct {
	kind  domain.PeriodKind
	start civil.Date
}

// fakeLedger is an in-memory RunLedger that records calls.
type fakeLedger struct {
	mu        sync.Mutex
	claimed   map[ledgerKey]bool
	completed map[ledgerKey]bool
	released  int
	claimErr  error
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{claimed: map[ledgerKey]bool{}, completed: map[ledgerKey]bool{}}
}

func (l *fakeLedger) Claim(ctx context.Context, kind domain.PeriodKind, start civil.Date) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.claimErr != nil {
		return false, l.claimErr
	}
	k := ledgerKey{kind, start}
	if l.claimed[k] {
		return false, nil
	}
	l.claimed[k] = true
	return true, nil
}

func (l *fakeLedger) Complete(ctx context.Context, kind domain.PeriodKind, start civil.Date) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.completed[ledgerKey{kind, start}] = true
	return nil
}

func (l *fakeLedger) Release(ctx context.Context, kind domain.PeriodKind, start civil.Date) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.claimed, ledgerKey{kind, start})
	l.released++
	return nil
}

// recordingSink captures archived reports.
type recordingSink struct {
	mu      sync.Mutex
	reports []*Report
}

func (s *recordingSink) Archive(ctx context.Context, r *Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports = append(s.reports, r)
	return nil
}
