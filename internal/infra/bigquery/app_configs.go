package bigquery

import (
	"context"
	"fmt"

	"google.golang.org/api/iterator"
)

// ListAppConfig reads the whole key-value table. It is small and read per request.
func (r *Repository) ListAppConfig(ctx context.Context) (map[string]string, error) {
	q := r.client.Query(fmt.Sprintf(`
		SELECT key, value
		FROM %s
	`, r.table(appConfigsTable)))

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListAppConfig: query read: %w", err)
	}

	config := make(map[string]string)
	for {
		var row struct {
			Key   string `bigquery:"key"`
			Value string `bigquery:"value"`
		}
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListAppConfig: iter next: %w", err)
		}
		config[row.Key] = row.Value
	}
	return config, nil
}
