// Package store defines the persistence contracts shared by the BigQuery, SQLite
// and in-memory backends. Every method is scoped to one user's email except the
// app config table, which is global.
package store

import (
	"context"
	"errors"

	"github.com/dvloznov/finflow/internal/domain"
)

var (
	// ErrNotFound is returned when a row does not exist or belongs to another user.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput is returned for requests a backend refuses before touching storage.
	ErrInvalidInput = errors.New("invalid input")
)

// TransactionRepository provides transaction CRUD and the filtered list used by
// the dashboard, exports and the transactions page.
type TransactionRepository interface {
	// InsertTransaction stores a new transaction. ID and CreatedAt must be set.
	InsertTransaction(ctx context.Context, tx *domain.Transaction) error

	// UpdateTransaction replaces every editable field of the transaction with the same
	// id and owner. Returns ErrNotFound when no such row exists.
	UpdateTransaction(ctx context.Context, tx *domain.Transaction) error

	// DeleteTransaction removes one transaction. Returns ErrNotFound when no such row exists.
	DeleteTransaction(ctx context.Context, userEmail, id string) error

	// GetTransaction fetches one transaction.
	GetTransaction(ctx context.Context, userEmail, id string) (*domain.Transaction, error)

	// ListTransactions returns one page of transactions matching the filter.
	ListTransactions(ctx context.Context, filter TransactionFilter) (*TransactionPage, error)

	// CountTransactions counts a user's transactions recorded with source on date.
	// It backs the daily usage limits and never loads rows.
	CountTransactions(ctx context.Context, userEmail string, source domain.Source, date string) (int, error)
}

// BudgetRepository stores per-category monthly limits.
type BudgetRepository interface {
	// ListBudgets returns a user's budgets ordered by category.
	ListBudgets(ctx context.Context, userEmail string) ([]*domain.Budget, error)

	// UpsertBudget creates or updates the budget keyed by (user_email, category)
	// and returns the stored row.
	UpsertBudget(ctx context.Context, b *domain.Budget) (*domain.Budget, error)

	// DeleteBudget removes a budget by id, or by category when id is empty.
	DeleteBudget(ctx context.Context, userEmail, id, category string) error
}

// ConfigRepository reads the global app_configs key-value table.
type ConfigRepository interface {
	ListAppConfig(ctx context.Context) (map[string]string, error)
}

// UserRepository stores user profiles.
type UserRepository interface {
	// GetUser returns ErrNotFound for an email with no profile yet.
	GetUser(ctx context.Context, email string) (*domain.User, error)

	// SaveUser creates or replaces the profile keyed by email.
	SaveUser(ctx context.Context, u *domain.User) error
}

// FeedbackRepository stores user feedback messages.
type FeedbackRepository interface {
	InsertFeedback(ctx context.Context, f *domain.Feedback) error
}

// Repository is the full set of contracts a backend provides.
type Repository interface {
	TransactionRepository
	BudgetRepository
	ConfigRepository
	UserRepository
	FeedbackRepository

	// Close releases the backend's connections.
	Close() error
}
