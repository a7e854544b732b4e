package inmemory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dvloznov/finflow/internal/domain"
	"github.com/dvloznov/finflow/internal/store"
	"github.com/google/uuid"
)

// Store is an in-memory implementation of store.Repository.
// It is safe for concurrent use. Data is lost on restart; it backs tests,
// the CLI's offline mode and the "memory" backend for local development.
type Store struct {
	mu           sync.RWMutex
	transactions map[string]*domain.Transaction
	budgets      map[string]*domain.Budget
	users        map[string]*domain.User
	config       map[string]string
	feedback     []*domain.Feedback
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		transactions: make(map[string]*domain.Transaction),
		budgets:      make(map[string]*domain.Budget),
		users:        make(map[string]*domain.User),
		config:       make(map[string]string),
	}
}

// SetAppConfig sets one app_configs entry.
func (s *Store) SetAppConfig(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.config[key] = value
}

// Feedback returns a copy of every stored feedback entry.
func (s *Store) Feedback() []*domain.Feedback {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.Feedback, 0, len(s.feedback))
	for _, f := range s.feedback {
		fCopy := *f
		out = append(out, &fCopy)
	}
	return out
}

// InsertTransaction implements store.TransactionRepository.
func (s *Store) InsertTransaction(ctx context.Context, tx *domain.Transaction) error {
	if tx.ID == "" {
		return fmt.Errorf("InsertTransaction: id is required: %w", store.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.transactions[tx.ID]; exists {
		return fmt.Errorf("InsertTransaction: duplicate id %s: %w", tx.ID, store.ErrInvalidInput)
	}
	s.transactions[tx.ID] = copyTransaction(tx)
	return nil
}

// UpdateTransaction implements store.TransactionRepository.
func (s *Store) UpdateTransaction(ctx context.Context, tx *domain.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.transactions[tx.ID]
	if !ok || existing.UserEmail != tx.UserEmail {
		return fmt.Errorf("UpdateTransaction: %s: %w", tx.ID, store.ErrNotFound)
	}

	updated := copyTransaction(tx)
	updated.CreatedAt = existing.CreatedAt
	s.transactions[tx.ID] = updated
	return nil
}

// DeleteTransaction implements store.TransactionRepository.
func (s *Store) DeleteTransaction(ctx context.Context, userEmail, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.transactions[id]
	if !ok || existing.UserEmail != userEmail {
		return fmt.Errorf("DeleteTransaction: %s: %w", id, store.ErrNotFound)
	}
	delete(s.transactions, id)
	return nil
}

// GetTransaction implements store.TransactionRepository.
func (s *Store) GetTransaction(ctx context.Context, userEmail, id string) (*domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tx, ok := s.transactions[id]
	if !ok || tx.UserEmail != userEmail {
		return nil, fmt.Errorf("GetTransaction: %s: %w", id, store.ErrNotFound)
	}
	return copyTransaction(tx), nil
}

// ListTransactions implements store.TransactionRepository.
func (s *Store) ListTransactions(ctx context.Context, filter store.TransactionFilter) (*store.TransactionPage, error) {
	filter = filter.Normalize()

	s.mu.RLock()
	var matched []*domain.Transaction
	for _, tx := range s.transactions {
		if filter.Match(tx) {
			matched = append(matched, copyTransaction(tx))
		}
	}
	s.mu.RUnlock()

	store.SortTransactions(matched, filter.SortBy, filter.Ascending)

	page := &store.TransactionPage{
		Total: len(matched),
		Page:  filter.Page,
		Limit: filter.Limit,
	}
	if filter.Unpaged {
		page.Page, page.Limit = 1, len(matched)
		page.Transactions = matched
		return page, nil
	}

	offset := filter.Offset()
	if offset >= len(matched) {
		page.Transactions = []*domain.Transaction{}
		return page, nil
	}
	end := offset + filter.Limit
	if end > len(matched) {
		end = len(matched)
	}
	page.Transactions = matched[offset:end]
	return page, nil
}

// CountTransactions implements store.TransactionRepository.
func (s *Store) CountTransactions(ctx context.Context, userEmail string, source domain.Source, date string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, tx := range s.transactions {
		if tx.UserEmail == userEmail && tx.Source == source && tx.Date == date {
			count++
		}
	}
	return count, nil
}

// ListBudgets implements store.BudgetRepository.
func (s *Store) ListBudgets(ctx context.Context, userEmail string) ([]*domain.Budget, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.Budget
	for _, b := range s.budgets {
		if b.UserEmail == userEmail {
			bCopy := *b
			out = append(out, &bCopy)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out, nil
}

// UpsertBudget implements store.BudgetRepository.
func (s *Store) UpsertBudget(ctx context.Context, b *domain.Budget) (*domain.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	for _, existing := range s.budgets {
		if existing.UserEmail == b.UserEmail && existing.Category == b.Category {
			existing.Amount = b.Amount
			existing.UpdatedAt = now
			out := *existing
			return &out, nil
		}
	}

	stored := *b
	if stored.ID == "" {
		stored.ID = uuid.New().String()
	}
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = now
	}
	stored.UpdatedAt = now
	s.budgets[stored.ID] = &stored

	out := stored
	return &out, nil
}

// DeleteBudget implements store.BudgetRepository.
func (s *Store) DeleteBudget(ctx context.Context, userEmail, id, category string) error {
	if id == "" && category == "" {
		return fmt.Errorf("DeleteBudget: id or category required: %w", store.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for key, b := range s.budgets {
		if b.UserEmail != userEmail {
			continue
		}
		if (id != "" && b.ID == id) || (id == "" && b.Category == category) {
			delete(s.budgets, key)
			return nil
		}
	}
	return fmt.Errorf("DeleteBudget: %w", store.ErrNotFound)
}

// ListAppConfig implements store.ConfigRepository.
func (s *Store) ListAppConfig(ctx context.Context) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]string, len(s.config))
	for k, v := range s.config {
		out[k] = v
	}
	return out, nil
}

// GetUser implements store.UserRepository.
func (s *Store) GetUser(ctx context.Context, email string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[email]
	if !ok {
		return nil, fmt.Errorf("GetUser: %s: %w", email, store.ErrNotFound)
	}
	uCopy := *u
	return &uCopy, nil
}

// SaveUser implements store.UserRepository.
func (s *Store) SaveUser(ctx context.Context, u *domain.User) error {
	if u.Email == "" {
		return fmt.Errorf("SaveUser: email is required: %w", store.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	uCopy := *u
	s.users[u.Email] = &uCopy
	return nil
}

// InsertFeedback implements store.FeedbackRepository.
func (s *Store) InsertFeedback(ctx context.Context, f *domain.Feedback) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	fCopy := *f
	s.feedback = append(s.feedback, &fCopy)
	return nil
}

// Close implements store.Repository.
func (s *Store) Close() error {
	return nil
}

func copyTransaction(tx *domain.Transaction) *domain.Transaction {
	out := *tx
	if tx.Items != nil {
		out.Items = append([]domain.LineItem(nil), tx.Items...)
	}
	return &out
}

// Ensure Store implements the Repository interface.
var _ store.Repository = (*Store)(nil)
