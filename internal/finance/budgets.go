package finance

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/dvloznov/finflow/internal/analytics"
	"github.com/dvloznov/finflow/internal/billing"
	"github.com/dvloznov/finflow/internal/domain"
	"github.com/dvloznov/finflow/internal/logger"
	"github.com/dvloznov/finflow/internal/store"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// ListBudgets returns the user's budgets ordered by category.
func (s *Service) ListBudgets(ctx context.Context, email string) ([]*domain.Budget, error) {
	budgets, err := s.repo.ListBudgets(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("ListBudgets: %w", err)
	}
	return budgets, nil
}

// SaveBudget creates or replaces the budget for a category.
func (s *Service) SaveBudget(ctx context.Context, email, category string, amount float64) (*domain.Budget, error) {
	category = strings.TrimSpace(category)
	if category == "" {
		return nil, fmt.Errorf("SaveBudget: category is required: %w", store.ErrInvalidInput)
	}
	if amount <= 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return nil, fmt.Errorf("SaveBudget: amount must be positive: %w", store.ErrInvalidInput)
	}

	now := s.now().UTC()
	saved, err := s.repo.UpsertBudget(ctx, &domain.Budget{
		ID:        uuid.NewString(),
		UserEmail: email,
		Category:  category,
		Amount:    amount,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return nil, fmt.Errorf("SaveBudget: %w", err)
	}
	return saved, nil
}

// DeleteBudget removes a budget by id, or by category when id is empty.
func (s *Service) DeleteBudget(ctx context.Context, email, id, category string) error {
	if id == "" && strings.TrimSpace(category) == "" {
		return fmt.Errorf("DeleteBudget: id or category is required: %w", store.ErrInvalidInput)
	}
	if err := s.repo.DeleteBudget(ctx, email, id, strings.TrimSpace(category)); err != nil {
		return fmt.Errorf("DeleteBudget: %w", err)
	}
	return nil
}

// BudgetStatuses evaluates every budget against the expenses of the selected cycle.
func (s *Service) BudgetStatuses(ctx context.Context, email string, period *Period) ([]domain.BudgetStatus, billing.Range, error) {
	r, err := s.CycleRange(ctx, email, period)
	if err != nil {
		return nil, billing.Range{}, fmt.Errorf("BudgetStatuses: %w", err)
	}

	var (
		budgets  []*domain.Budget
		expenses []*domain.Transaction
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		b, err := s.repo.ListBudgets(gctx, email)
		budgets = b
		return err
	})
	g.Go(func() error {
		txs, err := s.transactionsIn(gctx, email, r, domain.TypeExpense)
		expenses = txs
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, billing.Range{}, fmt.Errorf("BudgetStatuses: %w", err)
	}

	return analytics.EvaluateBudgets(budgets, analytics.CategorySpend(expenses)), r, nil
}

// SuggestBudgets proposes a budget per category from the last 90 days of expenses.
// Users with no history get the default set. When apply is true every suggestion
// is saved.
func (s *Service) SuggestBudgets(ctx context.Context, email string, apply bool) ([]domain.BudgetSuggestion, error) {
	log := logger.FromContext(ctx)

	today := s.now()
	history := billing.Range{
		From: domain.FormatDate(today.AddDate(0, 0, -(analytics.SuggestionHistoryDays - 1))),
		To:   domain.FormatDate(today),
	}
	expenses, err := s.transactionsIn(ctx, email, history, domain.TypeExpense)
	if err != nil {
		return nil, fmt.Errorf("SuggestBudgets: %w", err)
	}

	var suggestions []domain.BudgetSuggestion
	if len(expenses) == 0 {
		suggestions = analytics.DefaultBudgets()
	} else {
		averages, err := s.averager.MonthlyAverages(ctx, expenses, analytics.SuggestionHistoryDays)
		if err != nil {
			return nil, fmt.Errorf("SuggestBudgets: %w", err)
		}
		suggestions = analytics.SuggestBudgets(averages)
	}
	log.Debug().Str("user", email).Int("history", len(expenses)).Int("suggestions", len(suggestions)).Msg("Computed budget suggestions")

	if !apply {
		return suggestions, nil
	}
	for _, sg := range suggestions {
		if _, err := s.SaveBudget(ctx, email, sg.Category, sg.Amount); err != nil {
			return nil, fmt.Errorf("SuggestBudgets: applying %s: %w", sg.Category, err)
		}
	}
	log.Info().Str("user", email).Int("count", len(suggestions)).Msg("Applied budget suggestions")
	return suggestions, nil
}
