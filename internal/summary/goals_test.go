package summary

import (
	"context"
	"errors"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/dvloznov/expense-coach/internal/domain"
)

func TestCompare(t *testing.T) {
	tests := []struct {
		name     string
		total    string
		kind     domain.PeriodKind
		monthly  string
		wantGoal string
		wantDiff string
		wantText string
	}{
		{
			name: "week exactly on goal", total: "100", kind: domain.PeriodWeek, monthly: "400",
			wantGoal: "100", wantDiff: "0", wantText: "You saved $0.00 compared to your week goal",
		},
		{
			name: "week over goal", total: "150", kind: domain.PeriodWeek, monthly: "400",
			wantGoal: "100", wantDiff: "50", wantText: "You spent over your week goal by $50.00",
		},
		{
			name: "month under goal", total: "320.456", kind: domain.PeriodMonth, monthly: "400",
			wantGoal: "400", wantDiff: "-79.544", wantText: "You saved $79.54 compared to your month goal",
		},
		{
			name: "non divisible week goal", total: "0", kind: domain.PeriodWeek, monthly: "250",
			wantGoal: "62.5", wantDiff: "-62.5", wantText: "You saved $62.50 compared to your week goal",
		},
		{
			name: "tiny overspend", total: "100.001", kind: domain.PeriodMonth, monthly: "100",
			wantGoal: "100", wantDiff: "0.001", wantText: "You spent over your month goal by $0.00",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Compare(decimal.RequireFromString(tt.total), tt.kind, decimal.RequireFromString(tt.monthly))

			if !got.GoalAmount.Equal(decimal.RequireFromString(tt.wantGoal)) {
				t.Errorf("GoalAmount = %s, want %s", got.GoalAmount, tt.wantGoal)
			}
			if !got.Difference.Equal(decimal.RequireFromString(tt.wantDiff)) {
				t.Errorf("Difference = %s, want %s", got.Difference, tt.wantDiff)
			}
			if got.Text != tt.wantText {
				t.Errorf("Text = %q, want %q", got.Text, tt.wantText)
			}
		})
	}
}

func TestGoalComparator_MonthlyGoal(t *testing.T) {
	window := domain.WeekWindow(civil.Date{Year: 2024, Month: time.July, Day: 2})
	def := decimal.NewFromInt(400)

	tests := []struct {
		name      string
		goal      *domain.Goal
		err       error
		want      string
		wantFound bool
		wantErr   bool
	}{
		{name: "no goal uses default", want: "400"},
		{name: "stored goal", goal: &domain.Goal{MonthlyAmount: decimal.NewFromInt(800)}, want: "800", wantFound: true},
		{name: "zero goal uses default", goal: &domain.Goal{MonthlyAmount: decimal.Zero}, want: "400"},
		{name: "datastore error", err: errors.New("timeout"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotMonth time.Month
			var gotYear int
			finder := &MockGoalFinder{
				FindGoalFunc: func(ctx context.Context, userID string, month time.Month, year int) (*domain.Goal, error) {
					gotMonth, gotYear = month, year
					return tt.goal, tt.err
				},
			}
			c := NewGoalComparator(finder, def)

			monthly, found, err := c.MonthlyGoal(context.Background(), "u1", window)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			// The week of 2024-07-02 starts on Monday 2024-07-01.
			if gotMonth != time.July || gotYear != 2024 {
				t.Errorf("looked up %s %d, want July 2024", gotMonth, gotYear)
			}
			if !monthly.Equal(decimal.RequireFromString(tt.want)) {
				t.Errorf("monthly = %s, want %s", monthly, tt.want)
			}
			if found != tt.wantFound {
				t.Errorf("found = %v, want %v", found, tt.wantFound)
			}
		})
	}
}
