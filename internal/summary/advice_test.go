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
	"github.com/dvloznov/expense-coach/internal/llm"
)

func TestAdviceGenerator_Generate(t *testing.T) {
	tests := []struct {
		name      string
		reply     string
		replyErr  error
		want      string
		wantErr   bool
		wantCfgEr bool
	}{
		{name: "trimmed text", reply: "  Great job this week!  \n", want: "Great job this week!"},
		{name: "empty reply uses sentinel", reply: "", want: NoResponseText},
		{name: "whitespace reply uses sentinel", reply: " \n\t ", want: NoResponseText},
		{name: "transport failure surfaces", replyErr: errors.New("503 unavailable"), wantErr: true},
		{name: "configuration error surfaces", replyErr: &llm.ConfigurationError{Reason: "missing credentials", Err: llm.ErrMissingCredentials}, wantErr: true, wantCfgEr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &MockTextGenerator{
				GenerateTextFunc: func(ctx context.Context, prompt string) (string, error) {
					return tt.reply, tt.replyErr
				},
			}
			got, err := NewAdviceGenerator(gen).Generate(context.Background(), AdviceInput{
				Kind:      domain.PeriodWeek,
				Breakdown: domain.NewBreakdown(),
			})

			if tt.wantErr {
				if !errors.Is(err, ErrGeneration) {
					t.Fatalf("expected ErrGeneration, got %v", err)
				}
				if tt.wantCfgEr && !llm.IsConfigurationError(err) {
					t.Errorf("expected wrapped configuration error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Generate() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAdvicePrompt(t *testing.T) {
	breakdown := domain.NewBreakdown()
	breakdown[domain.CategoryTravel] = decimal.NewFromInt(70)
	breakdown[domain.CategoryFoodAndDrink] = decimal.NewFromInt(30)

	prompt := advicePrompt(AdviceInput{
		Kind:       domain.PeriodWeek,
		Window:     domain.WeekWindow(civil.Date{Year: 2024, Month: time.June, Day: 5}),
		Total:      decimal.NewFromInt(100),
		Breakdown:  breakdown,
		GoalAmount: decimal.NewFromInt(100),
		Comparison: "You saved $0.00 compared to your week goal",
	})

	for _, want := range []string{
		"week summary",
		"Total expense: $100.00",
		"Travel: $70.00",
		"Food & Drink: $30.00",
		"Other: $0.00",
		"Week goal: $100.00",
		"You saved $0.00 compared to your week goal",
		"3-4 sentences",
		"next week",
		"2024-06-03 to 2024-06-09",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, prompt)
		}
	}

	if strings.Index(prompt, "Travel:") > strings.Index(prompt, "Entertainment:") {
		t.Error("breakdown is not in canonical category order")
	}
}

func TestAdviceGenerator_Chat(t *testing.T) {
	gen := &MockTextGenerator{
		GenerateTextFunc: func(ctx context.Context, prompt string) (string, error) {
			return "\nHi there!\n", nil
		},
	}

	got, err := NewAdviceGenerator(gen).Chat(context.Background(), "how am I doing")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "Hi there!" {
		t.Errorf("Chat() = %q, want %q", got, "Hi there!")
	}
	if !strings.Contains(gen.Prompts[0], `"how am I doing"`) {
		t.Errorf("chat prompt missing the message: %s", gen.Prompts[0])
	}
}
