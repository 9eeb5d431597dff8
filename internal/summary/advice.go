package summary

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/dvloznov/expense-coach/internal/domain"
	"github.com/dvloznov/expense-coach/internal/llm"
)

// ErrGeneration matches every *GenerationError via errors.Is.
var ErrGeneration = errors.New("advice generation failed")

// GenerationError reports that the text service could not produce advice.
// It wraps the underlying cause, which may be an *llm.ConfigurationError.
type GenerationError struct {
	Op  string
	Err error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

func (e *GenerationError) Is(target error) bool {
	return target == ErrGeneration
}

// AdviceInput is the summary data embedded in the advice prompt.
type AdviceInput struct {
	Kind       domain.PeriodKind
	Window     domain.PeriodWindow
	Total      decimal.Decimal
	Breakdown  domain.Breakdown
	GoalAmount decimal.Decimal
	Comparison string
}

// AdviceGenerator turns summaries and chat messages into generated prose.
// It has no deterministic fallback.
type AdviceGenerator struct {
	gen llm.TextGenerator
}

func NewAdviceGenerator(gen llm.TextGenerator) *AdviceGenerator {
	return &AdviceGenerator{gen: gen}
}

// Generate returns a short motivational message for the summary.
func (g *AdviceGenerator) Generate(ctx context.Context, in AdviceInput) (string, error) {
	return g.complete(ctx, "generate advice", advicePrompt(in))
}

// Chat answers a free-form message with the conversational prompt.
func (g *AdviceGenerator) Chat(ctx context.Context, message string) (string, error) {
	return g.complete(ctx, "chat", chatPrompt(message))
}

func (g *AdviceGenerator) complete(ctx context.Context, op, prompt string) (string, error) {
	raw, err := g.gen.GenerateText(ctx, prompt)
	if err != nil {
		return "", &GenerationError{Op: op, Err: err}
	}
	text := strings.TrimSpace(raw)
	if text == "" {
		return NoResponseText, nil
	}
	return text, nil
}
