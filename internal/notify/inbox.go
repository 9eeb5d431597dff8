package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/dvloznov/expense-coach/internal/domain"
	"github.com/dvloznov/expense-coach/internal/store"
)

// ErrForbidden is returned when a user touches someone else's notification.
var ErrForbidden = errors.New("forbidden")

// Inbox exposes a user's notifications.
type Inbox struct {
	repo store.NotificationRepository
}

func NewInbox(repo store.NotificationRepository) *Inbox {
	return &Inbox{repo: repo}
}

// List returns the user's notifications, newest first.
func (i *Inbox) List(ctx context.Context, userID string) ([]*domain.Notification, error) {
	list, err := i.repo.ListNotifications(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}
	return list, nil
}

// MarkRead sets the read flag. Only the owner may do so.
func (i *Inbox) MarkRead(ctx context.Context, userID, id string) (*domain.Notification, error) {
	n, err := i.repo.GetNotification(ctx, id)
	if err != nil {
		return nil, err
	}
	if n.UserID != userID {
		return nil, ErrForbidden
	}
	if n.Read {
		return n, nil
	}
	if err := i.repo.MarkNotificationRead(ctx, id); err != nil {
		return nil, err
	}
	n.Read = true
	return n, nil
}
