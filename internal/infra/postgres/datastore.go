// Package postgres implements the datastore on PostgreSQL through a pgx pool.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/dvloznov/expense-coach/internal/domain"
	"github.com/dvloznov/expense-coach/internal/logger"
	"github.com/dvloznov/expense-coach/internal/store"
)

// Datastore is the PostgreSQL implementation of store.Datastore.
type Datastore struct {
	pool *pgxpool.Pool
}

// NormalizeURL rewrites postgresql:// to postgres:// and defaults sslmode to disable.
func NormalizeURL(databaseURL string) string {
	if strings.HasPrefix(databaseURL, "postgresql://") {
		databaseURL = "postgres://" + strings.TrimPrefix(databaseURL, "postgresql://")
	}
	if !strings.Contains(databaseURL, "sslmode=") {
		separator := "?"
		if strings.Contains(databaseURL, "?") {
			separator = "&"
		}
		databaseURL += separator + "sslmode=disable"
	}
	return databaseURL
}

// Connect opens a pool, waiting for the server to accept connections for up
// to attempts tries.
func Connect(ctx context.Context, databaseURL string, attempts int) (*Datastore, error) {
	cfg, err := pgxpool.ParseConfig(NormalizeURL(databaseURL))
	if err != nil {
		return nil, fmt.Errorf("Connect: parse database URL: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("Connect: create pool: %w", err)
	}

	log := logger.FromContext(ctx)
	retryDelay := 2 * time.Second
	if attempts < 1 {
		attempts = 1
	}
	for i := 0; i < attempts; i++ {
		err = pool.Ping(ctx)
		if err == nil {
			log.Info().Msg("Database connection established")
			return &Datastore{pool: pool}, nil
		}
		if i < attempts-1 {
			log.Warn().Err(err).Int("attempt", i+1).Dur("retry_in", retryDelay).Msg("Database not ready")
			select {
			case <-time.After(retryDelay):
			case <-ctx.Done():
				pool.Close()
				return nil, ctx.Err()
			}
		}
	}
	pool.Close()
	return nil, fmt.Errorf("Connect: database unreachable after %d attempts: %w", attempts, err)
}

// Migrate creates the tables if they do not exist.
func (d *Datastore) Migrate(ctx context.Context) error {
	if _, err := d.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("Migrate: %w", err)
	}
	return nil
}

// Close releases the pool.
func (d *Datastore) Close() error {
	d.pool.Close()
	return nil
}

func (d *Datastore) SaveTransaction(ctx context.Context, tx *domain.Transaction) error {
	_, err := d.pool.Exec(ctx, `
		INSERT INTO transactions (transaction_id, user_id, description, category, amount, transaction_date, created_at)
		VALUES ($1, $2, $3, $4, $5::numeric, $6, $7)
	`, tx.ID, tx.UserID, tx.Description, tx.Category.String(), tx.Amount.String(), dateParam(tx.OccurredAt), tx.CreatedAt)
	if err != nil {
		return fmt.Errorf("SaveTransaction: %w", err)
	}
	return nil
}

func (d *Datastore) FindTransactions(ctx context.Context, userID string, from, to civil.Date) ([]*domain.Transaction, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT transaction_id, user_id, description, category, amount::text, transaction_date, created_at
		FROM transactions
		WHERE user_id = $1 AND transaction_date BETWEEN $2 AND $3
		ORDER BY transaction_date, created_at
	`, userID, dateParam(from), dateParam(to))
	if err != nil {
		return nil, fmt.Errorf("FindTransactions: %w", err)
	}
	defer rows.Close()

	var out []*domain.Transaction
	for rows.Next() {
		var (
			tx       domain.Transaction
			category string
			amount   string
			occurred time.Time
		)
		if err := rows.Scan(&tx.ID, &tx.UserID, &tx.Description, &category, &amount, &occurred, &tx.CreatedAt); err != nil {
			return nil, fmt.Errorf("FindTransactions: scan: %w", err)
		}
		if tx.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("FindTransactions: amount %q: %w", amount, err)
		}
		tx.Category = domain.Category(category)
		tx.OccurredAt = civil.DateOf(occurred)
		out = append(out, &tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("FindTransactions: %w", err)
	}
	return out, nil
}

func (d *Datastore) FindGoal(ctx context.Context, userID string, month time.Month, year int) (*domain.Goal, error) {
	var amount string
	err := d.pool.QueryRow(ctx, `
		SELECT monthly_amount::text FROM goals WHERE user_id = $1 AND month = $2 AND year = $3
	`, userID, int(month), year).Scan(&amount)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("FindGoal: %w", err)
	}

	monthly, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("FindGoal: amount %q: %w", amount, err)
	}
	return &domain.Goal{UserID: userID, Month: month, Year: year, MonthlyAmount: monthly}, nil
}

func (d *Datastore) SaveGoal(ctx context.Context, goal *domain.Goal) error {
	_, err := d.pool.Exec(ctx, `
		INSERT INTO goals (user_id, month, year, monthly_amount, updated_at)
		VALUES ($1, $2, $3, $4::numeric, CURRENT_TIMESTAMP)
		ON CONFLICT (user_id, month, year)
		DO UPDATE SET monthly_amount = EXCLUDED.monthly_amount, updated_at = CURRENT_TIMESTAMP
	`, goal.UserID, int(goal.Month), goal.Year, goal.MonthlyAmount.String())
	if err != nil {
		return fmt.Errorf("SaveGoal: %w", err)
	}
	return nil
}

func (d *Datastore) FindUsers(ctx context.Context) ([]*domain.User, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT user_id, COALESCE(email, ''), COALESCE(name, '') FROM users
		UNION
		SELECT DISTINCT t.user_id, '', '' FROM transactions t
		WHERE NOT EXISTS (SELECT 1 FROM users u WHERE u.user_id = t.user_id)
		ORDER BY 1
	`)
	if err != nil {
		return nil, fmt.Errorf("FindUsers: %w", err)
	}
	defer rows.Close()

	var users []*domain.User
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(&u.ID, &u.Email, &u.Name); err != nil {
			return nil, fmt.Errorf("FindUsers: scan: %w", err)
		}
		users = append(users, &u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("FindUsers: %w", err)
	}
	return users, nil
}

func (d *Datastore) CreateNotification(ctx context.Context, n *domain.Notification) error {
	_, err := d.pool.Exec(ctx, `
		INSERT INTO notifications (notification_id, user_id, title, message, is_read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, n.ID, n.UserID, n.Title, n.Message, n.Read, n.CreatedAt)
	if err != nil {
		return fmt.Errorf("CreateNotification: %w", err)
	}
	return nil
}

func (d *Datastore) ListNotifications(ctx context.Context, userID string) ([]*domain.Notification, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT notification_id, user_id, title, message, is_read, created_at
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC, notification_id DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("ListNotifications: %w", err)
	}
	defer rows.Close()

	out := []*domain.Notification{}
	for rows.Next() {
		var n domain.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Title, &n.Message, &n.Read, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("ListNotifications: scan: %w", err)
		}
		out = append(out, &n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListNotifications: %w", err)
	}
	return out, nil
}

func (d *Datastore) GetNotification(ctx context.Context, id string) (*domain.Notification, error) {
	var n domain.Notification
	err := d.pool.QueryRow(ctx, `
		SELECT notification_id, user_id, title, message, is_read, created_at
		FROM notifications WHERE notification_id = $1
	`, id).Scan(&n.ID, &n.UserID, &n.Title, &n.Message, &n.Read, &n.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("GetNotification %s: %w", id, store.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("GetNotification: %w", err)
	}
	return &n, nil
}

func (d *Datastore) MarkNotificationRead(ctx context.Context, id string) error {
	tag, err := d.pool.Exec(ctx, `UPDATE notifications SET is_read = TRUE WHERE notification_id = $1`, id)
	if err != nil {
		return fmt.Errorf("MarkNotificationRead: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("MarkNotificationRead %s: %w", id, store.ErrNotFound)
	}
	return nil
}

// dateParam encodes a calendar date for a DATE column.
func dateParam(d civil.Date) time.Time {
	return d.In(time.UTC)
}

var _ store.Datastore = (*Datastore)(nil)
