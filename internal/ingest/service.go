// Package ingest records new expenses, categorizing each description on the way in.
package ingest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dvloznov/expense-coach/internal/domain"
	"github.com/dvloznov/expense-coach/internal/logger"
)

// CategoryResolver always yields a member of the fixed set.
type CategoryResolver interface {
	Resolve(ctx context.Context, description string) domain.Category
}

// TransactionSaver persists a transaction.
type TransactionSaver interface {
	SaveTransaction(ctx context.Context, tx *domain.Transaction) error
}

// Request is an expense as submitted by the user.
type Request struct {
	UserID      string
	Description string
	Amount      decimal.Decimal
	// Date defaults to today when zero.
	Date civil.Date
}

// Service categorizes and stores expenses.
type Service struct {
	resolver CategoryResolver
	repo     TransactionSaver
	loc      *time.Location
	now      func() time.Time
}

func NewService(resolver CategoryResolver, repo TransactionSaver, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{resolver: resolver, repo: repo, loc: loc, now: time.Now}
}

// Ingest resolves the category of req and saves the resulting transaction.
func (s *Service) Ingest(ctx context.Context, req Request) (*domain.Transaction, error) {
	now := s.now()
	tx := &domain.Transaction{
		ID:          uuid.New().String(),
		UserID:      req.UserID,
		Description: strings.TrimSpace(req.Description),
		Amount:      req.Amount,
		OccurredAt:  req.Date,
		CreatedAt:   now.UTC(),
	}
	if tx.OccurredAt.IsZero() {
		tx.OccurredAt = civil.DateOf(now.In(s.loc))
	}
	if tx.Description == "" {
		return nil, domain.NewValidationError("description", "is required")
	}

	tx.Category = s.resolver.Resolve(ctx, tx.Description)
	if err := tx.Validate(); err != nil {
		return nil, err
	}

	if err := s.repo.SaveTransaction(ctx, tx); err != nil {
		return nil, fmt.Errorf("Ingest: save transaction: %w", err)
	}

	log := logger.FromContext(ctx)
	log.Info().
		Str("transaction_id", tx.ID).
		Str("user_id", tx.UserID).
		Str("category", tx.Category.String()).
		Msg("Expense recorded")

	return tx, nil
}
