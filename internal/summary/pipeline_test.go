package summary

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/dvloznov/expense-coach/internal/domain"
)

func newTestPipeline(txs []*domain.Transaction, gen *MockTextGenerator) *Pipeline {
	finder := &MockTransactionFinder{
		FindTransactionsFunc: func(ctx context.Context, userID string, from, to civil.Date) ([]*domain.Transaction, error) {
			return txs, nil
		},
	}
	return NewPipeline(
		NewAggregator(finder, time.UTC),
		NewGoalComparator(&MockGoalFinder{}, decimal.NewFromInt(400)),
		NewAdviceGenerator(gen),
		time.UTC,
	)
}

func TestPipeline_Summarize_Scenarios(t *testing.T) {
	ref := time.Date(2024, time.June, 5, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		txs      []*domain.Transaction
		wantText string
	}{
		{
			name:     "on goal",
			txs:      []*domain.Transaction{tx("Food & Drink", "30"), tx("Travel", "70")},
			wantText: "You saved $0.00 compared to your week goal",
		},
		{
			name:     "over goal",
			txs:      []*domain.Transaction{tx("Food & Drink", "30"), tx("Travel", "120")},
			wantText: "You spent over your week goal by $50.00",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &MockTextGenerator{}
			result, err := newTestPipeline(tt.txs, gen).Summarize(context.Background(), "u1", domain.PeriodWeek, ref)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if result.Comparison != tt.wantText {
				t.Errorf("Comparison = %q, want %q", result.Comparison, tt.wantText)
			}
			if !result.GoalAmount.Equal(decimal.NewFromInt(100)) {
				t.Errorf("GoalAmount = %s, want 100", result.GoalAmount)
			}
			if result.Advice != "Keep it up!" {
				t.Errorf("Advice = %q", result.Advice)
			}
			if result.Window.Start != (civil.Date{Year: 2024, Month: time.June, Day: 3}) {
				t.Errorf("window start = %s, want 2024-06-03", result.Window.Start)
			}
			if len(gen.Prompts) != 1 || !strings.Contains(gen.Prompts[0], tt.wantText) {
				t.Errorf("advice prompt did not embed the comparison")
			}
		})
	}
}

func TestPipeline_AdviceFailurePropagates(t *testing.T) {
	gen := &MockTextGenerator{
		GenerateTextFunc: func(ctx context.Context, prompt string) (string, error) {
			return "", errors.New("quota exceeded")
		},
	}

	_, err := newTestPipeline(nil, gen).Summarize(context.Background(), "u1", domain.PeriodMonth, time.Now())
	if !errors.Is(err, ErrGeneration) {
		t.Fatalf("expected ErrGeneration, got %v", err)
	}
}

func TestPipeline_Evaluate_SkipsAdvice(t *testing.T) {
	gen := &MockTextGenerator{}
	p := newTestPipeline([]*domain.Transaction{tx("Clothes", "42")}, gen)

	window := domain.MonthWindow(civil.Date{Year: 2024, Month: time.February, Day: 10})
	result, count, err := p.Evaluate(context.Background(), "u1", window)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}
	if result.Advice != "" {
		t.Errorf("expected no advice, got %q", result.Advice)
	}
	if len(gen.Prompts) != 0 {
		t.Errorf("Evaluate called the text service %d times", len(gen.Prompts))
	}
	if window.End != (civil.Date{Year: 2024, Month: time.February, Day: 29}) {
		t.Errorf("leap-year month end = %s", window.End)
	}
}
