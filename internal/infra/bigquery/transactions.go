package bigquery

import (
	"fmt"
	"math/big"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/dvloznov/expense-coach/internal/domain"
)

// numericScale is the number of fractional digits BigQuery NUMERIC keeps.
const numericScale = 9

type TransactionRow struct {
	TransactionID string `bigquery:"transaction_id"` // REQUIRED
	UserID        string `bigquery:"user_id"`        // REQUIRED

	Description string `bigquery:"description"` // REQUIRED
	Category    string `bigquery:"category"`    // REQUIRED, one of the fixed labels

	Amount          *big.Rat   `bigquery:"amount"`           // REQUIRED NUMERIC
	TransactionDate civil.Date `bigquery:"transaction_date"` // REQUIRED

	CreatedTS time.Time `bigquery:"created_ts"` // REQUIRED
}

type GoalRow struct {
	UserID        string                 `bigquery:"user_id"`
	Month         int64                  `bigquery:"month"`
	Year          int64                  `bigquery:"year"`
	MonthlyAmount *big.Rat               `bigquery:"monthly_amount"`
	UpdatedTS     bigquery.NullTimestamp `bigquery:"updated_ts"`
}

type UserRow struct {
	UserID string              `bigquery:"user_id"`
	Email  bigquery.NullString `bigquery:"email"`
	Name   bigquery.NullString `bigquery:"name"`
}

type NotificationRow struct {
	NotificationID string    `bigquery:"notification_id"`
	UserID         string    `bigquery:"user_id"`
	Title          string    `bigquery:"title"`
	Message        string    `bigquery:"message"`
	IsRead         bool      `bigquery:"is_read"`
	CreatedTS      time.Time `bigquery:"created_ts"`
}

func ratFromDecimal(d decimal.Decimal) *big.Rat {
	return d.Rat()
}

func decimalFromRat(r *big.Rat) (decimal.Decimal, error) {
	if r == nil {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(r.FloatString(numericScale))
	if err != nil {
		return decimal.Zero, fmt.Errorf("converting NUMERIC %s: %w", r.String(), err)
	}
	return d, nil
}

func transactionRowFromDomain(tx *domain.Transaction) *TransactionRow {
	return &TransactionRow{
		TransactionID:   tx.ID,
		UserID:          tx.UserID,
		Description:     tx.Description,
		Category:        tx.Category.String(),
		Amount:          ratFromDecimal(tx.Amount),
		TransactionDate: tx.OccurredAt,
		CreatedTS:       tx.CreatedAt,
	}
}

func (r *TransactionRow) toDomain() (*domain.Transaction, error) {
	amount, err := decimalFromRat(r.Amount)
	if err != nil {
		return nil, err
	}
	return &domain.Transaction{
		ID:          r.TransactionID,
		UserID:      r.UserID,
		Description: r.Description,
		// Stored labels may predate the fixed set; the aggregator normalizes them.
		Category:   domain.Category(r.Category),
		Amount:     amount,
		OccurredAt: r.TransactionDate,
		CreatedAt:  r.CreatedTS,
	}, nil
}

func (r *GoalRow) toDomain() (*domain.Goal, error) {
	amount, err := decimalFromRat(r.MonthlyAmount)
	if err != nil {
		return nil, err
	}
	return &domain.Goal{
		UserID:        r.UserID,
		Month:         time.Month(r.Month),
		Year:          int(r.Year),
		MonthlyAmount: amount,
	}, nil
}

func (r *UserRow) toDomain() *domain.User {
	u := &domain.User{ID: r.UserID}
	if r.Email.Valid {
		u.Email = r.Email.StringVal
	}
	if r.Name.Valid {
		u.Name = r.Name.StringVal
	}
	return u
}

func (r *NotificationRow) toDomain() *domain.Notification {
	return &domain.Notification{
		ID:        r.NotificationID,
		UserID:    r.UserID,
		Title:     r.Title,
		Message:   r.Message,
		Read:      r.IsRead,
		CreatedAt: r.CreatedTS,
	}
}
