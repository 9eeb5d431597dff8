package summary

import (
	"context"
	"time"

	"github.com/dvloznov/expense-coach/internal/domain"
	"github.com/dvloznov/expense-coach/internal/logger"
)

// Pipeline composes aggregation, goal comparison and advice into one
// "summarize period for user" operation.
type Pipeline struct {
	aggregator *Aggregator
	comparator *GoalComparator
	advice     *AdviceGenerator
	loc        *time.Location
}

func NewPipeline(aggregator *Aggregator, comparator *GoalComparator, advice *AdviceGenerator, loc *time.Location) *Pipeline {
	if loc == nil {
		loc = time.UTC
	}
	return &Pipeline{aggregator: aggregator, comparator: comparator, advice: advice, loc: loc}
}

// Location is the time zone windows are computed in.
func (p *Pipeline) Location() *time.Location {
	return p.loc
}

// Summarize runs the full pipeline for the window of kind containing ref.
func (p *Pipeline) Summarize(ctx context.Context, userID string, kind domain.PeriodKind, ref time.Time) (*domain.SummaryResult, error) {
	window, err := domain.WindowFor(kind, ref, p.loc)
	if err != nil {
		return nil, err
	}
	return p.SummarizeWindow(ctx, userID, window)
}

// SummarizeWindow runs the full pipeline, advice included, for an explicit window.
func (p *Pipeline) SummarizeWindow(ctx context.Context, userID string, window domain.PeriodWindow) (*domain.SummaryResult, error) {
	result, _, err := p.Evaluate(ctx, userID, window)
	if err != nil {
		return nil, err
	}

	advice, err := p.advice.Generate(ctx, AdviceInput{
		Kind:       window.Kind,
		Window:     window,
		Total:      result.TotalExpense,
		Breakdown:  result.CategoryBreakdown,
		GoalAmount: result.GoalAmount,
		Comparison: result.Comparison,
	})
	if err != nil {
		return nil, err
	}
	result.Advice = advice
	return result, nil
}

// Evaluate computes totals and the goal comparison without calling the text
// service. It also returns how many transactions fell in the window.
func (p *Pipeline) Evaluate(ctx context.Context, userID string, window domain.PeriodWindow) (*domain.SummaryResult, int, error) {
	log := logger.FromContext(ctx).With().
		Str("user_id", userID).
		Str("window", window.String()).
		Logger()

	agg, err := p.aggregator.AggregateWindow(ctx, userID, window)
	if err != nil {
		return nil, 0, err
	}

	monthly, found, err := p.comparator.MonthlyGoal(ctx, userID, window)
	if err != nil {
		return nil, 0, err
	}
	cmp := p.comparator.Compare(agg.Total, window.Kind, monthly)

	log.Debug().
		Int("transactions", agg.Count).
		Str("total", agg.Total.StringFixed(2)).
		Str("goal", cmp.GoalAmount.StringFixed(2)).
		Bool("default_goal", !found).
		Msg("Evaluated period")

	return &domain.SummaryResult{
		Period:            window.Kind,
		Window:            window,
		TotalExpense:      agg.Total,
		CategoryBreakdown: agg.Breakdown,
		GoalAmount:        cmp.GoalAmount,
		Difference:        cmp.Difference,
		Comparison:        cmp.Text,
	}, agg.Count, nil
}
