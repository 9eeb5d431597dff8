package scheduler

import (
	"context"
	"sync"

	"cloud.google.com/go/civil"

	"github.com/dvloznov/expense-coach/internal/domain"
	"github.com/dvloznov/expense-coach/internal/notify"
)

// Ledger is the run ledger shared by the batch notifier and the scheduler.
type Ledger interface {
	notify.RunLedger
	// LastCompleted returns the start of the latest completed period of kind.
	LastCompleted(ctx context.Context, kind domain.PeriodKind) (civil.Date, bool, error)
}

type periodKey struct {
	kind  domain.PeriodKind
	start civil.Date
}

type periodState int

const (
	stateClaimed periodState = iota + 1
	stateCompleted
)

// MemoryLedger is a process-local Ledger. It does not survive restarts.
type MemoryLedger struct {
	mu      sync.Mutex
	periods map[periodKey]periodState
	last    map[domain.PeriodKind]civil.Date
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{
		periods: make(map[periodKey]periodState),
		last:    make(map[domain.PeriodKind]civil.Date),
	}
}

func (l *MemoryLedger) Claim(ctx context.Context, kind domain.PeriodKind, start civil.Date) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	k := periodKey{kind, start}
	if _, taken := l.periods[k]; taken {
		return false, nil
	}
	l.periods[k] = stateClaimed
	return true, nil
}

func (l *MemoryLedger) Complete(ctx context.Context, kind domain.PeriodKind, start civil.Date) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.periods[periodKey{kind, start}] = stateCompleted
	if last, ok := l.last[kind]; !ok || start.After(last) {
		l.last[kind] = start
	}
	return nil
}

func (l *MemoryLedger) Release(ctx context.Context, kind domain.PeriodKind, start civil.Date) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	k := periodKey{kind, start}
	if l.periods[k] == stateClaimed {
		delete(l.periods, k)
	}
	return nil
}

func (l *MemoryLedger) LastCompleted(ctx context.Context, kind domain.PeriodKind) (civil.Date, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	d, ok := l.last[kind]
	return d, ok, nil
}

var _ Ledger = (*MemoryLedger)(nil)
