package domain

import (
	"github.com/shopspring/decimal"
)

// Breakdown maps every fixed category to a total.
type Breakdown map[Category]decimal.Decimal

// NewBreakdown returns a breakdown with all seven categories at zero.
func NewBreakdown() Breakdown {
	b := make(Breakdown, len(categories))
	for _, c := range categories {
		b[c] = decimal.Zero
	}
	return b
}

// Sum adds up every bucket.
func (b Breakdown) Sum() decimal.Decimal {
	total := decimal.Zero
	for _, v := range b {
		total = total.Add(v)
	}
	return total
}

// SummaryResult is the outcome of summarizing one period for one user.
type SummaryResult struct {
	Period            PeriodKind      `json:"period"`
	Window            PeriodWindow    `json:"window"`
	TotalExpense      decimal.Decimal `json:"totalExpense"`
	CategoryBreakdown Breakdown       `json:"categoryBreakdown"`
	GoalAmount        decimal.Decimal `json:"goalAmount"`
	Difference        decimal.Decimal `json:"difference"`
	Comparison        string          `json:"comparison"`
	Advice            string          `json:"advice"`
}
