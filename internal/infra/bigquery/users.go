package bigquery

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/dvloznov/finflow/internal/domain"
	"github.com/dvloznov/finflow/internal/store"
	"google.golang.org/api/iterator"
)

// UserRow mirrors the users table, keyed by email.
type UserRow struct {
	Email                string              `bigquery:"email"`
	Name                 bigquery.NullString `bigquery:"name"`
	IsPremium            bool                `bigquery:"is_premium"`
	BillingCycleStartDay int64               `bigquery:"billing_cycle_start_day"`
	CreatedAt            time.Time           `bigquery:"created_at"`
	UpdatedAt            time.Time           `bigquery:"updated_at"`
}

// GetUser returns store.ErrNotFound when the email has no profile row.
func (r *Repository) GetUser(ctx context.Context, email string) (*domain.User, error) {
	q := r.client.Query(fmt.Sprintf(`
		SELECT email, name, is_premium, billing_cycle_start_day, created_at, updated_at
		FROM %s
		WHERE email = @email
		LIMIT 1
	`, r.table(usersTable)))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "email", Value: email},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("GetUser: query read: %w", err)
	}

	var row UserRow
	err = it.Next(&row)
	if err == iterator.Done {
		return nil, fmt.Errorf("GetUser: %s: %w", email, store.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("GetUser: iter next: %w", err)
	}

	return &domain.User{
		Email:                row.Email,
		Name:                 row.Name.StringVal,
		IsPremium:            row.IsPremium,
		BillingCycleStartDay: int(row.BillingCycleStartDay),
		CreatedAt:            row.CreatedAt,
		UpdatedAt:            row.UpdatedAt,
	}, nil
}

// SaveUser creates or replaces the profile row keyed by email.
func (r *Repository) SaveUser(ctx context.Context, u *domain.User) error {
	now := time.Now().UTC()
	created := u.CreatedAt
	if created.IsZero() {
		created = now
	}

	q := r.client.Query(fmt.Sprintf(`
		MERGE %s T
		USING (SELECT @email AS email) S
		ON T.email = S.email
		WHEN MATCHED THEN
		  UPDATE SET name = @name,
		             is_premium = @is_premium,
		             billing_cycle_start_day = @start_day,
		             updated_at = @now
		WHEN NOT MATCHED THEN
		  INSERT (email, name, is_premium, billing_cycle_start_day, created_at, updated_at)
		  VALUES (@email, @name, @is_premium, @start_day, @created_at, @now)
	`, r.table(usersTable)))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "email", Value: u.Email},
		{Name: "name", Value: nullString(u.Name)},
		{Name: "is_premium", Value: u.IsPremium},
		{Name: "start_day", Value: u.CycleStartDay()},
		{Name: "created_at", Value: created},
		{Name: "now", Value: now},
	}

	if _, err := runDML(ctx, q, "SaveUser"); err != nil {
		return err
	}
	return nil
}
