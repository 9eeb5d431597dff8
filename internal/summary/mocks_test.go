package summary

import (
	"context"
	"time"

	"cloud.google.com/go/civil"

	"github.com/dvloznov/expense-coach/internal/domain"
)

// MockTransactionFinder is a mock implementation of TransactionFinder.
type MockTransactionFinder struct {
	FindTransactionsFunc func(ctx context.Context, userID string, from, to civil.Date) ([]*domain.Transaction, error)
}

func (m *MockTransactionFinder) FindTransactions(ctx context.Context, userID string, from, to civil.Date) ([]*domain.Transaction, error) {
	if m.FindTransactionsFunc != nil {
		return m.FindTransactionsFunc(ctx, userID, from, to)
	}
	return nil, nil
}

// MockGoalFinder is a mock implementation of GoalFinder.
type MockGoalFinder struct {
	FindGoalFunc func(ctx context.Context, userID string, month time.Month, year int) (*domain.Goal, error)
}

func (m *MockGoalFinder) FindGoal(ctx context.Context, userID string, month time.Month, year int) (*domain.Goal, error) {
	if m.FindGoalFunc != nil {
		return m.FindGoalFunc(ctx, userID, month, year)
	}
	return nil, nil
}

// MockTextGenerator is a mock implementation of llm.TextGenerator.
type MockTextGenerator struct {
	GenerateTextFunc func(ctx context.Context, prompt string) (string, error)
	Prompts          []string
}

func (m *MockTextGenerator) GenerateText(ctx context.Context, prompt string) (string, error) {
	m.Prompts = append(m.Prompts, prompt)
	if m.GenerateTextFunc != nil {
		return m.GenerateTextFunc(ctx, prompt)
	}
	return "Keep it up!", nil
}
