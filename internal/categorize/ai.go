package categorize

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dvloznov/expense-coach/internal/domain"
	"github.com/dvloznov/expense-coach/internal/llm"
)

// Failure reasons carried by ClassificationError.
const (
	ReasonTransport    = "transport"
	ReasonInvalidLabel = "invalid_label"
)

var (
	ErrTransport    = errors.New("classification transport failure")
	ErrInvalidLabel = errors.New("classification returned an invalid label")
)

// ClassificationError explains why the AI path produced no usable category.
type ClassificationError struct {
	Reason string
	// Raw is the model reply for invalid_label failures.
	Raw string
	Err error
}

func (e *ClassificationError) Error() string {
	switch e.Reason {
	case ReasonInvalidLabel:
		return fmt.Sprintf("classify: invalid label %q", e.Raw)
	default:
		return fmt.Sprintf("classify: %s: %v", e.Reason, e.Err)
	}
}

func (e *ClassificationError) Unwrap() error {
	return e.Err
}

func (e *ClassificationError) Is(target error) bool {
	switch target {
	case ErrTransport:
		return e.Reason == ReasonTransport
	case ErrInvalidLabel:
		return e.Reason == ReasonInvalidLabel
	}
	return false
}

// AIClassifier asks the text service to pick one of the fixed categories.
type AIClassifier struct {
	gen llm.TextGenerator
}

// NewAIClassifier wraps gen.
func NewAIClassifier(gen llm.TextGenerator) *AIClassifier {
	return &AIClassifier{gen: gen}
}

// Classify accepts only an exact, case-sensitive member of the category set
// after trimming whitespace.
func (c *AIClassifier) Classify(ctx context.Context, description string) (domain.Category, error) {
	raw, err := c.gen.GenerateText(ctx, classificationPrompt(description))
	if err != nil {
		return "", &ClassificationError{Reason: ReasonTransport, Err: err}
	}

	label := domain.Category(strings.TrimSpace(raw))
	if !label.IsValid() {
		return "", &ClassificationError{Reason: ReasonInvalidLabel, Raw: raw, Err: ErrInvalidLabel}
	}
	return label, nil
}

func classificationPrompt(description string) string {
	names := domain.CategoryNames()
	return fmt.Sprintf(
		"There are %d categories: %s. Categorize the following expense into one of these categories. "+
			"Only respond with the category name.\nExpense: %q",
		len(names), strings.Join(names, ", "), description,
	)
}
