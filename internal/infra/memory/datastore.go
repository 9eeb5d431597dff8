// Package memory is an in-process Datastore used by tests and local runs.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"cloud.google.com/go/civil"

	"github.com/dvloznov/expense-coach/internal/domain"
	"github.com/dvloznov/expense-coach/internal/store"
)

type goalKey struct {
	userID string
	month  time.Month
	year   int
}

// Datastore keeps every record in maps guarded by a single RWMutex.
// Data is lost on restart.
type Datastore struct {
	mu            sync.RWMutex
	users         map[string]*domain.User
	transactions  []*domain.Transaction
	goals         map[goalKey]*domain.Goal
	notifications map[string]*domain.Notification
}

// NewDatastore returns an empty store.
func NewDatastore() *Datastore {
	return &Datastore{
		users:         make(map[string]*domain.User),
		goals:         make(map[goalKey]*domain.Goal),
		notifications: make(map[string]*domain.Notification),
	}
}

// AddUser registers a user for batch enumeration.
func (d *Datastore) AddUser(u *domain.User) {
	d.mu.Lock()
	defer d.mu.Unlock()
	c := *u
	d.users[u.ID] = &c
}

func (d *Datastore) FindUsers(ctx context.Context) ([]*domain.User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]*domain.User, 0, len(d.users))
	for _, u := range d.users {
		c := *u
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (d *Datastore) SaveTransaction(ctx context.Context, tx *domain.Transaction) error {
	if tx.ID == "" {
		return fmt.Errorf("SaveTransaction: transaction ID is required")
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	c := *tx
	d.transactions = append(d.transactions, &c)
	if _, ok := d.users[tx.UserID]; !ok {
		d.users[tx.UserID] = &domain.User{ID: tx.UserID}
	}
	return nil
}

func (d *Datastore) FindTransactions(ctx context.Context, userID string, from, to civil.Date) ([]*domain.Transaction, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var out []*domain.Transaction
	for _, tx := range d.transactions {
		if tx.UserID != userID || tx.OccurredAt.Before(from) || tx.OccurredAt.After(to) {
			continue
		}
		c := *tx
		out = append(out, &c)
	}
	return out, nil
}

func (d *Datastore) FindGoal(ctx context.Context, userID string, month time.Month, year int) (*domain.Goal, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	g, ok := d.goals[goalKey{userID, month, year}]
	if !ok {
		return nil, nil
	}
	c := *g
	return &c, nil
}

func (d *Datastore) SaveGoal(ctx context.Context, goal *domain.Goal) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	c := *goal
	d.goals[goalKey{goal.UserID, goal.Month, goal.Year}] = &c
	return nil
}

func (d *Datastore) CreateNotification(ctx context.Context, n *domain.Notification) error {
	if n.ID == "" {
		return fmt.Errorf("CreateNotification: notification ID is required")
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.notifications[n.ID]; exists {
		return fmt.Errorf("CreateNotification: duplicate id %s", n.ID)
	}
	c := *n
	d.notifications[n.ID] = &c
	return nil
}

func (d *Datastore) ListNotifications(ctx context.Context, userID string) ([]*domain.Notification, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := []*domain.Notification{}
	for _, n := range d.notifications {
		if n.UserID != userID {
			continue
		}
		c := *n
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (d *Datastore) GetNotification(ctx context.Context, id string) (*domain.Notification, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	n, ok := d.notifications[id]
	if !ok {
		return nil, fmt.Errorf("GetNotification %s: %w", id, store.ErrNotFound)
	}
	c := *n
	return &c, nil
}

func (d *Datastore) MarkNotificationRead(ctx context.Context, id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	n, ok := d.notifications[id]
	if !ok {
		return fmt.Errorf("MarkNotificationRead %s: %w", id, store.ErrNotFound)
	}
	n.Read = true
	return nil
}

// Close is a no-op.
func (d *Datastore) Close() error {
	return nil
}

var _ store.Datastore = (*Datastore)(nil)
