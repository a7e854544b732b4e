package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"github.com/dvloznov/finflow/internal/store"
)

// Table names inside the configured dataset.
const (
	transactionsTable = "transactions"
	budgetsTable      = "budgets"
	usersTable        = "users"
	appConfigsTable   = "app_configs"
	feedbackTable     = "feedback"
)

// Repository is the BigQuery implementation of store.Repository.
// It holds a shared client to avoid creating a connection per operation.
type Repository struct {
	client    *bigquery.Client
	projectID string
	datasetID string
}

// NewRepository creates a Repository with its own BigQuery client.
func NewRepository(ctx context.Context, projectID, datasetID string) (*Repository, error) {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("NewRepository: creating client: %w", err)
	}
	return NewRepositoryWithClient(client, projectID, datasetID), nil
}

// NewRepositoryWithClient wraps an existing client.
func NewRepositoryWithClient(client *bigquery.Client, projectID, datasetID string) *Repository {
	return &Repository{
		client:    client,
		projectID: projectID,
		datasetID: datasetID,
	}
}

// Close closes the BigQuery client connection.
func (r *Repository) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

// table returns the fully qualified, backtick-quoted table name.
func (r *Repository) table(name string) string {
	return fmt.Sprintf("`%s.%s.%s`", r.projectID, r.datasetID, name)
}

// runDML runs a DML statement, waits for it and returns the number of affected rows.
func runDML(ctx context.Context, q *bigquery.Query, op string) (int64, error) {
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

// Ensure Repository implements the Repository interface.
var _ store.Repository = (*Repository)(nil)
