package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/dvloznov/expense-coach/internal/chat"
	"github.com/dvloznov/expense-coach/internal/domain"
	"github.com/dvloznov/expense-coach/internal/jobs"
)

func TestReferenceTime(t *testing.T) {
	loc, err := time.LoadLocation("Europe/London")
	if err != nil {
		t.Skip("tzdata not available")
	}

	got, err := referenceTime("2024-06-10", loc)
	if err != nil {
		t.Fatalf("referenceTime() error = %v", err)
	}
	if got.Location() != loc || got.Day() != 10 || got.Hour() != 0 {
		t.Errorf("referenceTime() = %v", got)
	}

	if _, err := referenceTime("10/06/2024", loc); err == nil {
		t.Error("expected error for a non ISO date")
	}
}

func TestPrintSummary(t *testing.T) {
	b := domain.NewBreakdown()
	b[domain.CategoryFoodAndDrink] = decimal.NewFromInt(150)
	r := &domain.SummaryResult{
		Period:            domain.PeriodWeek,
		Window:            domain.WeekWindow(civil.Date{Year: 2024, Month: time.June, Day: 5}),
		TotalExpense:      decimal.NewFromInt(150),
		CategoryBreakdown: b,
		GoalAmount:        decimal.NewFromInt(100),
		Comparison:        "You spent over your week goal by $50.00",
		Advice:            "Cook at home more.",
	}

	var buf bytes.Buffer
	printReply(&buf, &chat.Reply{Kind: chat.KindSummary, Summary: r})
	out := buf.String()

	for _, want := range []string{
		"Weekly Summary (2024-06-03 to 2024-06-09)",
		"Total expense: $150.00",
		"Food & Drink   $150.00",
		"Week goal: $100.00",
		"You spent over your week goal by $50.00",
		"Advice: Cook at home more.",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Index(out, "Travel") > strings.Index(out, "Other") {
		t.Error("categories should print in canonical order")
	}
}

func TestPrintReply_Chat(t *testing.T) {
	var buf bytes.Buffer
	printReply(&buf, &chat.Reply{Kind: chat.KindChat, Text: "You are doing fine."})
	if strings.TrimSpace(buf.String()) != "You are doing fine." {
		t.Errorf("unexpected output %q", buf.String())
	}
}

func TestPrintBatchResult(t *testing.T) {
	var buf bytes.Buffer
	printBatchResult(&buf, domain.PeriodMonth, &jobs.Result{
		Status:         jobs.JobStatusPartiallyFailed,
		WindowStart:    civil.Date{Year: 2024, Month: time.May, Day: 1},
		WindowEnd:      civil.Date{Year: 2024, Month: time.May, Day: 31},
		UsersTotal:     3,
		UsersSucceeded: 2,
		UsersFailed:    1,
	})
	out := buf.String()
	if !strings.Contains(out, "Monthly batch for 2024-05-01 to 2024-05-31: partially_failed") ||
		!strings.Contains(out, "3 total, 2 notified, 1 failed") {
		t.Errorf("unexpected output %q", out)
	}
}

func TestPrintInbox(t *testing.T) {
	var buf bytes.Buffer
	printInbox(&buf, nil)
	if !strings.Contains(buf.String(), "No notifications.") {
		t.Errorf("unexpected empty output %q", buf.String())
	}

	buf.Reset()
	printInbox(&buf, []*domain.Notification{{Title: "Weekly Expense Summary", Message: "Total expense: $1.00", CreatedAt: time.Date(2024, 6, 10, 8, 0, 0, 0, time.UTC)}})
	if !strings.HasPrefix(buf.String(), "* 2024-06-10 08:00  Weekly Expense Summary") {
		t.Errorf("unexpected output %q", buf.String())
	}
}
