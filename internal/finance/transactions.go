package finance

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/dvloznov/finflow/internal/ai"
	"github.com/dvloznov/finflow/internal/domain"
	"github.com/dvloznov/finflow/internal/jobs"
	"github.com/dvloznov/finflow/internal/store"
	"github.com/google/uuid"
)

// ListTransactions returns one page for the user. When period is set it replaces
// the filter's date bounds with the billing-cycle window.
func (s *Service) ListTransactions(ctx context.Context, filter store.TransactionFilter, period *Period) (*store.TransactionPage, error) {
	if period != nil {
		r, err := s.CycleRange(ctx, filter.UserEmail, period)
		if err != nil {
			return nil, fmt.Errorf("ListTransactions: %w", err)
		}
		filter.From, filter.To = r.From, r.To
	}
	if filter.From != "" && !domain.ValidDate(filter.From) {
		return nil, fmt.Errorf("ListTransactions: invalid from date %q: %w", filter.From, store.ErrInvalidInput)
	}
	if filter.To != "" && !domain.ValidDate(filter.To) {
		return nil, fmt.Errorf("ListTransactions: invalid to date %q: %w", filter.To, store.ErrInvalidInput)
	}

	page, err := s.repo.ListTransactions(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("ListTransactions: %w", err)
	}
	return page, nil
}

// TransactionInput is a manually entered transaction.
type TransactionInput struct {
	Date        string                 `json:"date"`
	Amount      float64                `json:"amount"`
	Type        domain.TransactionType `json:"type"`
	Category    string                 `json:"category"`
	Description string                 `json:"description"`
}

// CreateTransaction records a manual entry. Manual entries count as text and never
// consume AI quota.
func (s *Service) CreateTransaction(ctx context.Context, email string, in TransactionInput) (*domain.Transaction, error) {
	now := s.now()
	if in.Date == "" {
		in.Date = domain.FormatDate(now)
	}
	tx := &domain.Transaction{
		ID:          uuid.NewString(),
		UserEmail:   email,
		Date:        in.Date,
		CreatedAt:   now.UTC(),
		Amount:      in.Amount,
		Type:        in.Type,
		Category:    ai.CanonicalCategory(in.Category),
		Description: strings.TrimSpace(in.Description),
		Source:      domain.SourceText,
	}
	if err := validateTransaction(tx); err != nil {
		return nil, fmt.Errorf("CreateTransaction: %w", err)
	}

	if err := s.repo.InsertTransaction(ctx, tx); err != nil {
		return nil, fmt.Errorf("CreateTransaction: %w", err)
	}
	s.publish(ctx, email, tx.ID, jobs.MirrorUpsert)
	return tx, nil
}

// TransactionPatch carries the editable fields of an existing transaction.
// Nil fields are left unchanged.
type TransactionPatch struct {
	ID          string                  `json:"id"`
	Date        *string                 `json:"date,omitempty"`
	Amount      *float64                `json:"amount,omitempty"`
	Type        *domain.TransactionType `json:"type,omitempty"`
	Category    *string                 `json:"category,omitempty"`
	Description *string                 `json:"description,omitempty"`
	Source      *domain.Source          `json:"source,omitempty"`
	Items       *[]domain.LineItem      `json:"items,omitempty"`
	Tax         *float64                `json:"tax,omitempty"`
	Discount    *float64                `json:"discount,omitempty"`
}

// UpdateTransaction applies patch to the user's transaction. Every field except id
// and owner is editable.
func (s *Service) UpdateTransaction(ctx context.Context, email string, patch TransactionPatch) (*domain.Transaction, error) {
	if err := ValidateID(patch.ID); err != nil {
		return nil, fmt.Errorf("UpdateTransaction: %w", err)
	}

	tx, err := s.repo.GetTransaction(ctx, email, patch.ID)
	if err != nil {
		return nil, fmt.Errorf("UpdateTransaction: %w", err)
	}

	if patch.Date != nil {
		tx.Date = strings.TrimSpace(*patch.Date)
	}
	if patch.Amount != nil {
		tx.Amount = *patch.Amount
	}
	if patch.Type != nil {
		tx.Type = *patch.Type
	}
	if patch.Category != nil {
		tx.Category = strings.TrimSpace(*patch.Category)
	}
	if patch.Description != nil {
		tx.Description = strings.TrimSpace(*patch.Description)
	}
	if patch.Source != nil {
		tx.Source = *patch.Source
	}
	if patch.Items != nil {
		tx.Items = *patch.Items
	}
	if patch.Tax != nil {
		tx.Tax = patch.Tax
	}
	if patch.Discount != nil {
		tx.Discount = patch.Discount
	}

	if err := validateTransaction(tx); err != nil {
		return nil, fmt.Errorf("UpdateTransaction: %w", err)
	}
	if err := s.repo.UpdateTransaction(ctx, tx); err != nil {
		return nil, fmt.Errorf("UpdateTransaction: %w", err)
	}
	s.publish(ctx, email, tx.ID, jobs.MirrorUpsert)
	return tx, nil
}

// DeleteTransaction removes one of the user's transactions.
func (s *Service) DeleteTransaction(ctx context.Context, email, id string) error {
	if err := ValidateID(id); err != nil {
		return fmt.Errorf("DeleteTransaction: %w", err)
	}
	if err := s.repo.DeleteTransaction(ctx, email, id); err != nil {
		return fmt.Errorf("DeleteTransaction: %w", err)
	}
	s.publish(ctx, email, id, jobs.MirrorArchive)
	return nil
}

// GetTransaction fetches one of the user's transactions.
func (s *Service) GetTransaction(ctx context.Context, email, id string) (*domain.Transaction, error) {
	if err := ValidateID(id); err != nil {
		return nil, fmt.Errorf("GetTransaction: %w", err)
	}
	tx, err := s.repo.GetTransaction(ctx, email, id)
	if err != nil {
		return nil, fmt.Errorf("GetTransaction: %w", err)
	}
	return tx, nil
}

// ValidateID rejects ids that are not UUIDs before they reach the store.
func ValidateID(id string) error {
	if id == "" {
		return fmt.Errorf("id is required: %w", store.ErrInvalidInput)
	}
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("invalid id %q: %w", id, store.ErrInvalidInput)
	}
	return nil
}

func validateTransaction(tx *domain.Transaction) error {
	var problems []string
	if !domain.ValidDate(tx.Date) {
		problems = append(problems, fmt.Sprintf("date %q is not YYYY-MM-DD", tx.Date))
	}
	if math.IsNaN(tx.Amount) || math.IsInf(tx.Amount, 0) || tx.Amount < 0 {
		problems = append(problems, "amount must be a non-negative number")
	}
	if !tx.Type.Valid() {
		problems = append(problems, fmt.Sprintf("type must be income or expense, got %q", tx.Type))
	}
	if !tx.Source.Valid() {
		problems = append(problems, fmt.Sprintf("source must be text, audio or image, got %q", tx.Source))
	}
	if tx.Category == "" {
		problems = append(problems, "category is required")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%s: %w", strings.Join(problems, "; "), store.ErrInvalidInput)
	}
	return nil
}
