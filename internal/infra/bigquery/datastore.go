package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"

	"github.com/dvloznov/expense-coach/internal/store"
)

// Table names inside the dataset.
const (
	transactionsTable  = "transactions"
	goalsTable         = "goals"
	usersTable         = "users"
	notificationsTable = "notifications"
)

// Datastore is the BigQuery implementation of store.Datastore. It holds a
// shared client so each operation reuses one connection.
type Datastore struct {
	client    *bigquery.Client
	projectID string
	datasetID string
}

// NewDatastore creates a client for projectID and targets datasetID.
func NewDatastore(ctx context.Context, projectID, datasetID string) (*Datastore, error) {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("NewDatastore: creating client: %w", err)
	}
	return NewDatastoreWithClient(client, datasetID), nil
}

// NewDatastoreWithClient wraps an existing client.
func NewDatastoreWithClient(client *bigquery.Client, datasetID string) *Datastore {
	return &Datastore{
		client:    client,
		projectID: client.Project(),
		datasetID: datasetID,
	}
}

// Close closes the BigQuery client connection.
func (d *Datastore) Close() error {
	if d.client != nil {
		return d.client.Close()
	}
	return nil
}

// table returns the fully qualified, backquoted table name.
func (d *Datastore) table(name string) string {
	return tableRef(d.projectID, d.datasetID, name)
}

func tableRef(projectID, datasetID, name string) string {
	return "`" + projectID + "." + datasetID + "." + name + "`"
}

// runDML runs a DML statement and returns the number of affected rows.
func runDML(ctx context.Context, op string, q *bigquery.Query) (int64, error) {
	job, err := q.Run(ctx)
	if err != nil {
		return 0, fmt.Errorf("%s: running query: %w", op, err)
	}

	status, err := job.Wait(ctx)
	if err != nil {
		return 0, fmt.Errorf("%s: waiting for job: %w", op, err)
	}
	if err := status.Err(); err != nil {
		return 0, fmt.Errorf("%s: job error: %w", op, err)
	}

	if status.Statistics != nil {
		if qs, ok := status.Statistics.Details.(*bigquery.QueryStatistics); ok {
			return qs.NumDMLAffectedRows, nil
		}
	}
	return 0, nil
}

var _ store.Datastore = (*Datastore)(nil)
