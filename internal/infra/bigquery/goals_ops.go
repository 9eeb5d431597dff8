package bigquery

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"

	"github.com/dvloznov/expense-coach/internal/domain"
)

// FindGoal returns nil, nil when no goal exists for the month.
func (d *Datastore) FindGoal(ctx context.Context, userID string, month time.Month, year int) (*domain.Goal, error) {
	q := d.client.Query(fmt.Sprintf(`
		SELECT user_id, month, year, monthly_amount, updated_ts
		FROM %s
		WHERE user_id = @user_id
		  AND month = @month
		  AND year = @year
		LIMIT 1
	`, d.table(goalsTable)))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
		{Name: "month", Value: int64(month)},
		{Name: "year", Value: int64(year)},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("FindGoal: query read: %w", err)
	}

	var row GoalRow
	err = it.Next(&row)
	if err == iterator.Done {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("FindGoal: iter next: %w", err)
	}

	goal, err := row.toDomain()
	if err != nil {
		return nil, fmt.Errorf("FindGoal: %w", err)
	}
	return goal, nil
}

// SaveGoal upserts the goal for (user, month, year) with a MERGE statement.
func (d *Datastore) SaveGoal(ctx context.Context, goal *domain.Goal) error {
	q := d.client.Query(fmt.Sprintf(`
		MERGE %s g
		USING (
			SELECT @user_id AS user_id, @month AS month, @year AS year, @monthly_amount AS monthly_amount
		) s
		ON g.user_id = s.user_id AND g.month = s.month AND g.year = s.year
		WHEN MATCHED THEN
			UPDATE SET monthly_amount = s.monthly_amount, updated_ts = CURRENT_TIMESTAMP()
		WHEN NOT MATCHED THEN
			INSERT (user_id, month, year, monthly_amount, updated_ts)
			VALUES (s.user_id, s.month, s.year, s.monthly_amount, CURRENT_TIMESTAMP())
	`, d.table(goalsTable)))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "user_id", Value: goal.UserID},
		{Name: "month", Value: int64(goal.Month)},
		{Name: "year", Value: int64(goal.Year)},
		{Name: "monthly_amount", Value: ratFromDecimal(goal.MonthlyAmount)},
	}

	if _, err := runDML(ctx, "SaveGoal", q); err != nil {
		return err
	}
	return nil
}
