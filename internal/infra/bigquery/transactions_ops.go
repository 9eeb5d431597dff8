package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"google.golang.org/api/iterator"

	"github.com/dvloznov/expense-coach/internal/domain"
)

// SaveTransaction inserts one transaction with a DML statement.
func (d *Datastore) SaveTransaction(ctx context.Context, tx *domain.Transaction) error {
	row := transactionRowFromDomain(tx)

	q := d.client.Query(fmt.Sprintf(`
		INSERT INTO %s (
			transaction_id, user_id, description, category,
			amount, transaction_date, created_ts
		)
		VALUES (
			@transaction_id, @user_id, @description, @category,
			@amount, @transaction_date, @created_ts
		)
	`, d.table(transactionsTable)))

	q.Parameters = []bigquery.QueryParameter{
		{Name: "transaction_id", Value: row.TransactionID},
		{Name: "user_id", Value: row.UserID},
		{Name: "description", Value: row.Description},
		{Name: "category", Value: row.Category},
		{Name: "amount", Value: row.Amount},
		{Name: "transaction_date", Value: row.TransactionDate},
		{Name: "created_ts", Value: row.CreatedTS},
	}

	if _, err := runDML(ctx, "SaveTransaction", q); err != nil {
		return err
	}
	return nil
}

// FindTransactions returns the user's transactions dated within [from, to].
func (d *Datastore) FindTransactions(ctx context.Context, userID string, from, to civil.Date) ([]*domain.Transaction, error) {
	q := d.client.Query(fmt.Sprintf(`
		SELECT
			transaction_id,
			user_id,
			description,
			category,
			amount,
			transaction_date,
			created_ts
		FROM %s
		WHERE user_id = @user_id
		  AND transaction_date >= @start_date
		  AND transaction_date <= @end_date
		ORDER BY transaction_date, created_ts
	`, d.table(transactionsTable)))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
		{Name: "start_date", Value: from},
		{Name: "end_date", Value: to},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("FindTransactions: query read: %w", err)
	}

	var out []*domain.Transaction
	for {
		var r TransactionRow
		err := it.Next(&r)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("FindTransactions: iter next: %w", err)
		}
		tx, err := r.toDomain()
		if err != nil {
			return nil, fmt.Errorf("FindTransactions: %w", err)
		}
		out = append(out, tx)
	}

	return out, nil
}
