package domain

import (
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

// Transaction is a single categorized expense owned by a user.
// Transactions are immutable once ingested.
type Transaction struct {
	ID          string          `json:"id"`
	UserID      string          `json:"userId"`
	Description string          `json:"description"`
	Category    Category        `json:"category"`
	Amount      decimal.Decimal `json:"amount"`
	OccurredAt  civil.Date      `json:"occurredAt"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// Validate checks the fields required before a transaction is saved.
func (t *Transaction) Validate() error {
	if t.UserID == "" {
		return NewValidationError("userId", "is required")
	}
	if t.Description == "" {
		return NewValidationError("description", "is required")
	}
	if !t.Category.IsValid() {
		return NewValidationError("category", "must be one of the fixed categories")
	}
	if t.Amount.IsNegative() {
		return NewValidationError("amount", "must not be negative")
	}
	if !t.OccurredAt.IsValid() {
		return NewValidationError("date", "is not a valid calendar date")
	}
	return nil
}

// User is an account the batch job summarizes for.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Goal is a user's monthly spending ceiling.
type Goal struct {
	UserID        string          `json:"userId"`
	Month         time.Month      `json:"month"`
	Year          int             `json:"year"`
	MonthlyAmount decimal.Decimal `json:"monthlyAmount"`
}

// Validate checks the goal before it is stored.
func (g *Goal) Validate() error {
	if g.UserID == "" {
		return NewValidationError("userId", "is required")
	}
	if g.Month < time.January || g.Month > time.December {
		return NewValidationError("month", "must be between 1 and 12")
	}
	if g.Year < 1970 {
		return NewValidationError("year", "is out of range")
	}
	if !g.MonthlyAmount.IsPositive() {
		return NewValidationError("amount", "must be positive")
	}
	return nil
}

// Notification is an inbox message produced by a summary run.
type Notification struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"createdAt"`
}
