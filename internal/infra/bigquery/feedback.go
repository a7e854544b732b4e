package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"github.com/dvloznov/finflow/internal/domain"
)

// InsertFeedback stores one feedback message.
func (r *Repository) InsertFeedback(ctx context.Context, f *domain.Feedback) error {
	rating := bigquery.NullInt64{}
	if f.Rating != nil {
		rating = bigquery.NullInt64{Int64: int64(*f.Rating), Valid: true}
	}

	q := r.client.Query(fmt.Sprintf(`
		INSERT INTO %s (id, user_email, message, rating, created_at)
		VALUES (@id, @user_email, @message, @rating, @created_at)
	`, r.table(feedbackTable)))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "id", Value: f.ID},
		{Name: "user_email", Value: f.UserEmail},
		{Name: "message", Value: f.Message},
		{Name: "rating", Value: rating},
		{Name: "created_at", Value: f.CreatedAt},
	}

	if _, err := runDML(ctx, q, "InsertFeedback"); err != nil {
		return err
	}
	return nil
}
