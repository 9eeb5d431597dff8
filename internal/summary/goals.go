package summary

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dvloznov/expense-coach/internal/domain"
)

// weeksPerMonth approximates a week goal from a monthly one.
var weeksPerMonth = decimal.NewFromInt(4)

// GoalFinder is the slice of the datastore the comparator reads.
type GoalFinder interface {
	FindGoal(ctx context.Context, userID string, month time.Month, year int) (*domain.Goal, error)
}

// Comparison is the outcome of measuring a total against a period goal.
type Comparison struct {
	GoalAmount decimal.Decimal
	// Difference is total minus goal; positive means over budget.
	Difference decimal.Decimal
	Text       string
}

// GoalComparator resolves monthly goals and compares totals against them.
type GoalComparator struct {
	goals          GoalFinder
	defaultMonthly decimal.Decimal
}

// NewGoalComparator uses defaultMonthly whenever a user has no stored goal.
func NewGoalComparator(goals GoalFinder, defaultMonthly decimal.Decimal) *GoalComparator {
	return &GoalComparator{goals: goals, defaultMonthly: defaultMonthly}
}

// DefaultMonthly returns the configured fallback goal.
func (c *GoalComparator) DefaultMonthly() decimal.Decimal {
	return c.defaultMonthly
}

// MonthlyGoal looks up the goal for the month the window starts in.
// found is false when the default was used.
func (c *GoalComparator) MonthlyGoal(ctx context.Context, userID string, window domain.PeriodWindow) (monthly decimal.Decimal, found bool, err error) {
	goal, err := c.goals.FindGoal(ctx, userID, window.Start.Month, window.Start.Year)
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("MonthlyGoal: find goal for %s: %w", userID, err)
	}
	if goal == nil || !goal.MonthlyAmount.IsPositive() {
		return c.defaultMonthly, false, nil
	}
	return goal.MonthlyAmount, true, nil
}

// Compare measures total against the goal for kind derived from monthly.
func (c *GoalComparator) Compare(total decimal.Decimal, kind domain.PeriodKind, monthly decimal.Decimal) Comparison {
	return Compare(total, kind, monthly)
}

// Compare is the pure comparison used by GoalComparator.
func Compare(total decimal.Decimal, kind domain.PeriodKind, monthly decimal.Decimal) Comparison {
	goal := PeriodGoal(kind, monthly)
	diff := total.Sub(goal)
	return Comparison{
		GoalAmount: goal,
		Difference: diff,
		Text:       ComparisonText(diff, kind),
	}
}

// PeriodGoal is monthly/4 for a week and monthly for a month.
func PeriodGoal(kind domain.PeriodKind, monthly decimal.Decimal) decimal.Decimal {
	if kind == domain.PeriodWeek {
		return monthly.Div(weeksPerMonth)
	}
	return monthly
}

// ComparisonText renders the over/under phrase. Only a positive difference
// counts as over budget.
func ComparisonText(diff decimal.Decimal, kind domain.PeriodKind) string {
	amount := diff.Abs().StringFixed(2)
	if diff.IsPositive() {
		return fmt.Sprintf("You spent over your %s goal by $%s", kind, amount)
	}
	return fmt.Sprintf("You saved $%s compared to your %s goal", amount, kind)
}
