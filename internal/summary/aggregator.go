package summary

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/dvloznov/expense-coach/internal/domain"
)

// TransactionFinder is the slice of the datastore the aggregator reads.
type TransactionFinder interface {
	FindTransactions(ctx context.Context, userID string, from, to civil.Date) ([]*domain.Transaction, error)
}

// Aggregate holds per-category and grand totals for one window.
// Total always equals Breakdown.Sum().
type Aggregate struct {
	Window    domain.PeriodWindow
	Total     decimal.Decimal
	Breakdown domain.Breakdown
	// Count is the number of transactions in the window.
	Count int
}

// Aggregator sums a user's transactions over a period window.
type Aggregator struct {
	txs TransactionFinder
	loc *time.Location
}

// NewAggregator computes windows in loc (UTC when nil).
func NewAggregator(txs TransactionFinder, loc *time.Location) *Aggregator {
	if loc == nil {
		loc = time.UTC
	}
	return &Aggregator{txs: txs, loc: loc}
}

// Aggregate sums the window of the given kind that contains ref.
func (a *Aggregator) Aggregate(ctx context.Context, userID string, kind domain.PeriodKind, ref time.Time) (*Aggregate, error) {
	window, err := domain.WindowFor(kind, ref, a.loc)
	if err != nil {
		return nil, err
	}
	return a.AggregateWindow(ctx, userID, window)
}

// AggregateWindow sums an explicit window. An empty window yields zeros.
func (a *Aggregator) AggregateWindow(ctx context.Context, userID string, window domain.PeriodWindow) (*Aggregate, error) {
	txs, err := a.txs.FindTransactions(ctx, userID, window.Start, window.End)
	if err != nil {
		return nil, fmt.Errorf("AggregateWindow: find transactions for %s: %w", userID, err)
	}

	agg := &Aggregate{
		Window:    window,
		Total:     decimal.Zero,
		Breakdown: domain.NewBreakdown(),
	}
	for _, tx := range txs {
		// Legacy or drifted labels land in Other so the total stays intact.
		category := domain.NormalizeCategory(string(tx.Category))
		agg.Breakdown[category] = agg.Breakdown[category].Add(tx.Amount)
		agg.Total = agg.Total.Add(tx.Amount)
		agg.Count++
	}
	return agg, nil
}
