package categorize

import (
	"context"

	"github.com/dvloznov/expense-coach/internal/domain"
)

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
	return "", nil
}

// MockClassifier is a mock implementation of Classifier.
type MockClassifier struct {
	ClassifyFunc func(ctx context.Context, description string) (domain.Category, error)
	Calls        int
}

func (m *MockClassifier) Classify(ctx context.Context, description string) (domain.Category, error) {
	m.Calls++
	if m.ClassifyFunc != nil {
		return m.ClassifyFunc(ctx, description)
	}
	return domain.CategoryOther, nil
}
