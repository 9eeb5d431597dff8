package bigquery

import (
	"context"
	"fmt"

	"google.golang.org/api/iterator"

	"github.com/dvloznov/expense-coach/internal/domain"
)

// FindUsers lists registered users plus anyone who owns transactions but has
// no users row yet.
func (d *Datastore) FindUsers(ctx context.Context) ([]*domain.User, error) {
	q := d.client.Query(fmt.Sprintf(`
		SELECT user_id, email, name
		FROM %s
		UNION ALL
		SELECT DISTINCT t.user_id, CAST(NULL AS STRING) AS email, CAST(NULL AS STRING) AS name
		FROM %s t
		WHERE t.user_id NOT IN (SELECT user_id FROM %s)
		ORDER BY user_id
	`, d.table(usersTable), d.table(transactionsTable), d.table(usersTable)))

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("FindUsers: query read: %w", err)
	}

	var users []*domain.User
	for {
		var r UserRow
		err := it.Next(&r)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("FindUsers: iter next: %w", err)
		}
		users = append(users, r.toDomain())
	}

	return users, nil
}
