// Package store defines the persistence contracts the pipeline consumes.
// Implementations live under internal/infra.
package store

import (
	"context"
	"errors"
	"time"

	"cloud.google.com/go/civil"

	"github.com/dvloznov/expense-coach/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// TransactionRepository reads and writes expenses.
type TransactionRepository interface {
	// FindTransactions returns the user's transactions with OccurredAt in
	// [from, to], both ends inclusive.
	FindTransactions(ctx context.Context, userID string, from, to civil.Date) ([]*domain.Transaction, error)

	// SaveTransaction persists a new transaction.
	SaveTransaction(ctx context.Context, tx *domain.Transaction) error
}

// GoalRepository reads and writes monthly goals.
type GoalRepository interface {
	// FindGoal returns nil, nil when the user has no goal for the month.
	FindGoal(ctx context.Context, userID string, month time.Month, year int) (*domain.Goal, error)

	// SaveGoal inserts or replaces the goal for (user, month, year).
	SaveGoal(ctx context.Context, goal *domain.Goal) error
}

// UserRepository enumerates accounts.
type UserRepository interface {
	FindUsers(ctx context.Context) ([]*domain.User, error)
}

// NotificationRepository stores inbox messages.
type NotificationRepository interface {
	CreateNotification(ctx context.Context, n *domain.Notification) error

	// ListNotifications returns the user's notifications, newest first.
	ListNotifications(ctx context.Context, userID string) ([]*domain.Notification, error)

	// GetNotification returns ErrNotFound when id is unknown.
	GetNotification(ctx context.Context, id string) (*domain.Notification, error)

	// MarkNotificationRead sets the read flag. It returns ErrNotFound when id is unknown.
	MarkNotificationRead(ctx context.Context, id string) error
}

// Datastore is the full persistence surface used by the application.
type Datastore interface {
	TransactionRepository
	GoalRepository
	UserRepository
	NotificationRepository
	Close() error
}
