package bigquery

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/dvloznov/finflow/internal/domain"
	"github.com/dvloznov/finflow/internal/store"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
)

// BudgetRow mirrors the budgets table. (user_email, category) is unique.
type BudgetRow struct {
	ID        string    `bigquery:"id"`
	UserEmail string    `bigquery:"user_email"`
	Category  string    `bigquery:"category"`
	Amount    float64   `bigquery:"amount"`
	CreatedAt time.Time `bigquery:"created_at"`
	UpdatedAt time.Time `bigquery:"updated_at"`
}

func (row *BudgetRow) toDomain() *domain.Budget {
	return &domain.Budget{
		ID:        row.ID,
		UserEmail: row.UserEmail,
		Category:  row.Category,
		Amount:    row.Amount,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
}

// ListBudgets returns a user's budgets ordered by category.
func (r *Repository) ListBudgets(ctx context.Context, userEmail string) ([]*domain.Budget, error) {
	q := r.client.Query(fmt.Sprintf(`
		SELECT id, user_email, category, amount, created_at, updated_at
		FROM %s
		WHERE user_email = @user_email
		ORDER BY category
	`, r.table(budgetsTable)))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "user_email", Value: userEmail},
	}
	return r.readBudgets(ctx, q, "ListBudgets")
}

// UpsertBudget merges on (user_email, category) and reads the stored row back.
func (r *Repository) UpsertBudget(ctx context.Context, b *domain.Budget) (*domain.Budget, error) {
	id := b.ID
	if id == "" {
		id = uuid.NewString()
	}
	now := time.Now().UTC()

	q := r.client.Query(fmt.Sprintf(`
		MERGE %s T
		USING (SELECT @user_email AS user_email, @category AS category) S
		ON T.user_email = S.user_email AND T.category = S.category
		WHEN MATCHED THEN
		  UPDATE SET amount = @amount, updated_at = @now
		WHEN NOT MATCHED THEN
		  INSERT (id, user_email, category, amount, created_at, updated_at)
		  VALUES (@id, @user_email, @category, @amount, @now, @now)
	`, r.table(budgetsTable)))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "id", Value: id},
		{Name: "user_email", Value: b.UserEmail},
		{Name: "category", Value: b.Category},
		{Name: "amount", Value: b.Amount},
		{Name: "now", Value: now},
	}
	if _, err := runDML(ctx, q, "UpsertBudget"); err != nil {
		return nil, err
	}

	read := r.client.Query(fmt.Sprintf(`
		SELECT id, user_email, category, amount, created_at, updated_at
		FROM %s
		WHERE user_email = @user_email AND category = @category
		LIMIT 1
	`, r.table(budgetsTable)))
	read.Parameters = []bigquery.QueryParameter{
		{Name: "user_email", Value: b.UserEmail},
		{Name: "category", Value: b.Category},
	}
	budgets, err := r.readBudgets(ctx, read, "UpsertBudget")
	if err != nil {
		return nil, err
	}
	if len(budgets) == 0 {
		return nil, fmt.Errorf("UpsertBudget: row missing after merge: %w", store.ErrNotFound)
	}
	return budgets[0], nil
}

// DeleteBudget removes a budget by id, or by category when id is empty.
func (r *Repository) DeleteBudget(ctx context.Context, userEmail, id, category string) error {
	column, value := "id", id
	if id == "" {
		column, value = "category", category
	}
	if value == "" {
		return fmt.Errorf("DeleteBudget: id or category required: %w", store.ErrInvalidInput)
	}

	q := r.client.Query(fmt.Sprintf(`
		DELETE FROM %s
		WHERE user_email = @user_email AND %s = @value
	`, r.table(budgetsTable), column))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "user_email", Value: userEmail},
		{Name: "value", Value: value},
	}

	affected, err := runDML(ctx, q, "DeleteBudget")
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("DeleteBudget: %w", store.ErrNotFound)
	}
	return nil
}

func (r *Repository) readBudgets(ctx context.Context, q *bigquery.Query, op string) ([]*domain.Budget, error) {
	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: query read: %w", op, err)
	}

	var budgets []*domain.Budget
	for {
		var row BudgetRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: iter next: %w", op, err)
		}
		budgets = append(budgets, row.toDomain())
	}
	return budgets, nil
}
