package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"

	"github.com/dvloznov/expense-coach/internal/domain"
	"github.com/dvloznov/expense-coach/internal/store"
)

const notificationColumns = `notification_id, user_id, title, message, is_read, created_ts`

// CreateNotification inserts with DML rather than the streaming inserter so
// the row can be updated right away.
func (d *Datastore) CreateNotification(ctx context.Context, n *domain.Notification) error {
	q := d.client.Query(fmt.Sprintf(`
		INSERT INTO %s (%s)
		VALUES (@notification_id, @user_id, @title, @message, @is_read, @created_ts)
	`, d.table(notificationsTable), notificationColumns))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "notification_id", Value: n.ID},
		{Name: "user_id", Value: n.UserID},
		{Name: "title", Value: n.Title},
		{Name: "message", Value: n.Message},
		{Name: "is_read", Value: n.Read},
		{Name: "created_ts", Value: n.CreatedAt},
	}

	if _, err := runDML(ctx, "CreateNotification", q); err != nil {
		return err
	}
	return nil
}

// ListNotifications returns the user's notifications, newest first.
func (d *Datastore) ListNotifications(ctx context.Context, userID string) ([]*domain.Notification, error) {
	q := d.client.Query(fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE user_id = @user_id
		ORDER BY created_ts DESC, notification_id DESC
	`, notificationColumns, d.table(notificationsTable)))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
	}

	return d.readNotifications(ctx, "ListNotifications", q)
}

// GetNotification returns store.ErrNotFound for unknown ids.
func (d *Datastore) GetNotification(ctx context.Context, id string) (*domain.Notification, error) {
	q := d.client.Query(fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE notification_id = @notification_id
		LIMIT 1
	`, notificationColumns, d.table(notificationsTable)))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "notification_id", Value: id},
	}

	list, err := d.readNotifications(ctx, "GetNotification", q)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, fmt.Errorf("GetNotification %s: %w", id, store.ErrNotFound)
	}
	return list[0], nil
}

// MarkNotificationRead sets is_read. Zero affected rows means the id is unknown.
func (d *Datastore) MarkNotificationRead(ctx context.Context, id string) error {
	q := d.client.Query(fmt.Sprintf(`
		UPDATE %s
		SET is_read = TRUE
		WHERE notification_id = @notification_id
	`, d.table(notificationsTable)))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "notification_id", Value: id},
	}

	affected, err := runDML(ctx, "MarkNotificationRead", q)
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("MarkNotificationRead %s: %w", id, store.ErrNotFound)
	}
	return nil
}

func (d *Datastore) readNotifications(ctx context.Context, op string, q *bigquery.Query) ([]*domain.Notification, error) {
	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: query read: %w", op, err)
	}

	out := []*domain.Notification{}
	for {
		var r NotificationRow
		err := it.Next(&r)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: iter next: %w", op, err)
		}
		out = append(out, r.toDomain())
	}
	return out, nil
}
