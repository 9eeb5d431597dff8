package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/dvloznov/expense-coach/internal/app"
	"github.com/dvloznov/expense-coach/internal/chat"
	"github.com/dvloznov/expense-coach/internal/config"
	"github.com/dvloznov/expense-coach/internal/domain"
	"github.com/dvloznov/expense-coach/internal/ingest"
	"github.com/dvloznov/expense-coach/internal/jobs"
	"github.com/dvloznov/expense-coach/internal/logger"
)

// commandTimeout bounds every CLI command.
const commandTimeout = 5 * time.Minute

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "help", "-h", "--help":
		printUsage()
		return
	}

	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New()
		bootLog.Fatal().Err(err).Msg("Invalid configuration")
	}
	log := logger.NewWithOptions(logger.Options{Level: cfg.LogLevel, JSON: cfg.JSONLogs()})

	switch os.Args[1] {
	case "categorize":
		runCategorize(cfg, log)
	case "add":
		runAdd(cfg, log)
	case "summarize":
		runSummarize(cfg, log)
	case "chat":
		runChat(cfg, log)
	case "batch":
		runBatch(cfg, log)
	case "inbox":
		runInbox(cfg, log)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Expense Coach CLI")
	fmt.Println("\nUsage:")
	fmt.Println("  cli <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  categorize  Classify an expense description")
	fmt.Println("  add         Categorize and store an expense")
	fmt.Println("  summarize   Summarize a user's week or month with advice")
	fmt.Println("  chat        Route a free-text command (summary or conversation)")
	fmt.Println("  batch       Run the batch summary for every user once")
	fmt.Println("  inbox       List a user's notifications")
	fmt.Println("  help        Show this help message")
	fmt.Println("\nStorage is chosen by DATASTORE (bigquery, postgres, memory).")
	fmt.Println("Run 'cli <command> -h' for more information on a command.")
}

// setup builds the App and a context bounded by commandTimeout.
func setup(cfg *config.Config, log zerolog.Logger) (context.Context, *app.App, func()) {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	ctx = logger.WithContext(ctx, log)

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		cancel()
		log.Fatal().Err(err).Msg("Failed to initialize application")
	}
	return ctx, a, func() {
		_ = a.Close()
		cancel()
	}
}

func runCategorize(cfg *config.Config, log zerolog.Logger) {
	fs := flag.NewFlagSet("categorize", flag.ExitOnError)
	description := fs.String("description", "", "Expense description to classify")
	fs.Parse(os.Args[2:])

	if strings.TrimSpace(*description) == "" {
		log.Fatal().Msg("Error: -description is required")
	}

	ctx, a, done := setup(cfg, log)
	defer done()

	fmt.Println(a.Resolver.Resolve(ctx, *description))
}

func runAdd(cfg *config.Config, log zerolog.Logger) {
	fs := flag.NewFlagSet("add", flag.ExitOnError)
	userID := fs.String("user", "", "User ID")
	description := fs.String("description", "", "Expense description")
	amount := fs.String("amount", "", "Amount, e.g. 12.50")
	date := fs.String("date", "", "Date YYYY-MM-DD (defaults to today)")
	fs.Parse(os.Args[2:])

	if *userID == "" || *description == "" || *amount == "" {
		log.Fatal().Msg("Usage: cli add -user ID -description TEXT -amount N [-date YYYY-MM-DD]")
	}

	value, err := decimal.NewFromString(*amount)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid -amount")
	}
	req := ingest.Request{UserID: *userID, Description: *description, Amount: value}
	if *date != "" {
		if req.Date, err = civil.ParseDate(*date); err != nil {
			log.Fatal().Err(err).Msg("Invalid -date")
		}
	}

	ctx, a, done := setup(cfg, log)
	defer done()

	tx, err := a.Ingest.Ingest(ctx, req)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to add expense")
	}
	fmt.Printf("Added %s: %s $%s on %s [%s]\n", tx.ID, tx.Description, tx.Amount.StringFixed(2), tx.OccurredAt, tx.Category)
}

func runSummarize(cfg *config.Config, log zerolog.Logger) {
	fs := flag.NewFlagSet("summarize", flag.ExitOnError)
	userID := fs.String("user", "", "User ID")
	period := fs.String("period", "week", "Period: week or month")
	date := fs.String("date", "", "Any date inside the period, YYYY-MM-DD (defaults to today)")
	fs.Parse(os.Args[2:])

	if *userID == "" {
		log.Fatal().Msg("Error: -user is required")
	}
	kind, err := domain.ParsePeriodKind(*period)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid -period")
	}
	ref, err := referenceTime(*date, cfg.Location)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid -date")
	}

	ctx, a, done := setup(cfg, log)
	defer done()

	result, err := a.Pipeline.Summarize(ctx, *userID, kind, ref)
	if err != nil {
		log.Fatal().Err(err).Msg("Summary failed")
	}
	printSummary(os.Stdout, result)
}

func runChat(cfg *config.Config, log zerolog.Logger) {
	fs := flag.NewFlagSet("chat", flag.ExitOnError)
	userID := fs.String("user", "", "User ID")
	command := fs.String("command", "", "Free-text command, e.g. \"summarize a week\"")
	fs.Parse(os.Args[2:])

	if *userID == "" || *command == "" {
		log.Fatal().Msg("Usage: cli chat -user ID -command TEXT")
	}

	ctx, a, done := setup(cfg, log)
	defer done()

	reply, err := a.Router.Handle(ctx, *userID, *command)
	if err != nil {
		log.Fatal().Err(err).Msg("Command failed")
	}
	printReply(os.Stdout, reply)
}

func runBatch(cfg *config.Config, log zerolog.Logger) {
	fs := flag.NewFlagSet("batch", flag.ExitOnError)
	period := fs.String("period", "week", "Period: week or month")
	date := fs.String("date", "", "Tick date YYYY-MM-DD; the run covers the period completed before it (defaults to today)")
	fs.Parse(os.Args[2:])

	kind, err := domain.ParsePeriodKind(*period)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid -period")
	}
	ref, err := referenceTime(*date, cfg.Location)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid -date")
	}

	ctx, a, done := setup(cfg, log)
	defer done()

	job := &jobs.BatchJob{JobID: "cli", Kind: kind, Reference: ref, Trigger: jobs.TriggerManual}
	result, err := a.BatchHandler()(ctx, job)
	if err != nil {
		log.Fatal().Err(err).Msg("Batch failed")
	}
	printBatchResult(os.Stdout, kind, result)
}

func runInbox(cfg *config.Config, log zerolog.Logger) {
	fs := flag.NewFlagSet("inbox", flag.ExitOnError)
	userID := fs.String("user", "", "User ID")
	fs.Parse(os.Args[2:])

	if *userID == "" {
		log.Fatal().Msg("Error: -user is required")
	}

	ctx, a, done := setup(cfg, log)
	defer done()

	list, err := a.Inbox.List(ctx, *userID)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to list notifications")
	}
	printInbox(os.Stdout, list)
}

// referenceTime parses an optional YYYY-MM-DD as midnight in loc.
func referenceTime(date string, loc *time.Location) (time.Time, error) {
	if date == "" {
		return time.Now().In(loc), nil
	}
	d, err := civil.ParseDate(date)
	if err != nil {
		return time.Time{}, err
	}
	return d.In(loc), nil
}

func printSummary(w io.Writer, r *domain.SummaryResult) {
	fmt.Fprintf(w, "\n=== %s Summary (%s to %s) ===\n", r.Period.Adjective(), r.Window.Start, r.Window.End)
	fmt.Fprintf(w, "Total expense: $%s\n", r.TotalExpense.StringFixed(2))
	fmt.Fprintln(w, "Category breakdown:")
	for _, c := range domain.Categories() {
		fmt.Fprintf(w, "  %-14s $%s\n", c, r.CategoryBreakdown[c].StringFixed(2))
	}
	fmt.Fprintf(w, "%s goal: $%s\n", r.Period.Title(), r.GoalAmount.StringFixed(2))
	fmt.Fprintln(w, r.Comparison)
	if r.Advice != "" {
		fmt.Fprintf(w, "\nAdvice: %s\n", r.Advice)
	}
}

func printReply(w io.Writer, reply *chat.Reply) {
	if reply.Kind == chat.KindSummary && reply.Summary != nil {
		printSummary(w, reply.Summary)
		return
	}
	fmt.Fprintln(w, reply.Text)
}

func printBatchResult(w io.Writer, kind domain.PeriodKind, r *jobs.Result) {
	fmt.Fprintf(w, "%s batch for %s to %s: %s\n", kind.Adjective(), r.WindowStart, r.WindowEnd, r.Status)
	fmt.Fprintf(w, "Users: %d total, %d notified, %d failed\n", r.UsersTotal, r.UsersSucceeded, r.UsersFailed)
}

func printInbox(w io.Writer, list []*domain.Notification) {
	if len(list) == 0 {
		fmt.Fprintln(w, "No notifications.")
		return
	}
	for _, n := range list {
		marker := "*"
		if n.Read {
			marker = " "
		}
		fmt.Fprintf(w, "%s %s  %s\n  %s\n", marker, n.CreatedAt.Format("2006-01-02 15:04"), n.Title, n.Message)
	}
}
