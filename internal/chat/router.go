// Package chat turns free-text commands into summaries or conversational replies.
package chat

import (
	"context"
	"strings"
	"time"

	"github.com/dvloznov/expense-coach/internal/domain"
	"github.com/dvloznov/expense-coach/internal/logger"
)

// Route is the destination of a command.
type Route string

const (
	RouteWeeklySummary  Route = "weekly_summary"
	RouteMonthlySummary Route = "monthly_summary"
	RouteGeneralChat    Route = "general_chat"
)

// Reply kinds let renderers tell the two output shapes apart.
const (
	KindSummary = "summary"
	KindChat    = "chat"
)

var (
	weekPhrases = []string{
		"summarize a week", "summarise a week", "summarize my week", "summarise my week",
		"weekly summary", "week summary", "this week",
	}
	monthPhrases = []string{
		"summarize a month", "summarise a month", "summarize my month", "summarise my month",
		"monthly summary", "month summary", "this month",
	}
)

// Summarizer produces a full period summary.
type Summarizer interface {
	Summarize(ctx context.Context, userID string, kind domain.PeriodKind, ref time.Time) (*domain.SummaryResult, error)
}

// Chatter answers a conversational message.
type Chatter interface {
	Chat(ctx context.Context, message string) (string, error)
}

// Reply is what Handle returns. Exactly one of Summary or Text is set.
type Reply struct {
	Kind    string                `json:"kind"`
	Route   Route                 `json:"route"`
	Summary *domain.SummaryResult `json:"summary,omitempty"`
	Text    string                `json:"text,omitempty"`
}

// Router dispatches commands. It keeps no per-user state.
type Router struct {
	summarizer Summarizer
	chatter    Chatter
	now        func() time.Time
}

func NewRouter(summarizer Summarizer, chatter Chatter) *Router {
	return &Router{summarizer: summarizer, chatter: chatter, now: time.Now}
}

// RouteCommand classifies a command by case-insensitive phrase search,
// week phrases first.
func RouteCommand(command string) Route {
	lower := strings.ToLower(command)
	for _, p := range weekPhrases {
		if strings.Contains(lower, p) {
			return RouteWeeklySummary
		}
	}
	for _, p := range monthPhrases {
		if strings.Contains(lower, p) {
			return RouteMonthlySummary
		}
	}
	return RouteGeneralChat
}

// Route classifies command.
func (r *Router) Route(command string) Route {
	return RouteCommand(command)
}

// Handle routes command and runs the matching path for userID.
func (r *Router) Handle(ctx context.Context, userID, command string) (*Reply, error) {
	command = strings.TrimSpace(command)
	if command == "" {
		return nil, domain.NewValidationError("command", "is required")
	}

	route := RouteCommand(command)
	log := logger.FromContext(ctx)
	log.Info().Str("user_id", userID).Str("route", string(route)).Msg("Routing command")

	switch route {
	case RouteWeeklySummary, RouteMonthlySummary:
		kind := domain.PeriodWeek
		if route == RouteMonthlySummary {
			kind = domain.PeriodMonth
		}
		result, err := r.summarizer.Summarize(ctx, userID, kind, r.now())
		if err != nil {
			return nil, err
		}
		return &Reply{Kind: KindSummary, Route: route, Summary: result}, nil
	default:
		text, err := r.chatter.Chat(ctx, command)
		if err != nil {
			return nil, err
		}
		return &Reply{Kind: KindChat, Route: route, Text: text}, nil
	}
}
