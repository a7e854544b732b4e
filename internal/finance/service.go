// Package finance holds the per-user operations behind the HTTP API and the CLI:
// profile, transactions, dashboard, budgets, usage and feedback. Every call reads
// fresh data from the store; nothing is cached between requests.
package finance

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dvloznov/finflow/internal/ai"
	"github.com/dvloznov/finflow/internal/billing"
	"github.com/dvloznov/finflow/internal/domain"
	"github.com/dvloznov/finflow/internal/jobs"
	"github.com/dvloznov/finflow/internal/logger"
	"github.com/dvloznov/finflow/internal/store"
)

// MirrorPublisher queues transaction changes for the external mirror.
type MirrorPublisher interface {
	PublishMirrorTransaction(ctx context.Context, job *jobs.MirrorTransactionJob) error
}

// Service implements the finance operations on top of a store.Repository.
type Service struct {
	repo      store.Repository
	averager  ai.Averager
	publisher MirrorPublisher
	now       func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithAverager replaces the local averaging used for budget suggestions.
func WithAverager(a ai.Averager) Option {
	return func(s *Service) { s.averager = a }
}

// WithPublisher mirrors manual edits and deletions.
func WithPublisher(p MirrorPublisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a Service.
func NewService(repo store.Repository, opts ...Option) *Service {
	s := &Service{
		repo:     repo,
		averager: ai.LocalAverager{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Period selects a billing month. Month is 0-11.
type Period struct {
	Month int
	Year  int
}

// Profile returns the user, creating it with defaults on first access.
func (s *Service) Profile(ctx context.Context, email string) (*domain.User, error) {
	if strings.TrimSpace(email) == "" {
		return nil, fmt.Errorf("Profile: email is required: %w", store.ErrInvalidInput)
	}

	u, err := s.repo.GetUser(ctx, email)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("Profile: %w", err)
	}

	now := s.now().UTC()
	u = &domain.User{
		Email:                email,
		BillingCycleStartDay: domain.DefaultCycleStartDay,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	if err := s.repo.SaveUser(ctx, u); err != nil {
		return nil, fmt.Errorf("Profile: creating user: %w", err)
	}
	log := logger.FromContext(ctx)
	log.Info().Str("user", email).Msg("Created user profile")
	return u, nil
}

// ProfileUpdate carries the user-editable profile fields. Nil means unchanged.
type ProfileUpdate struct {
	Name                 *string `json:"name,omitempty"`
	BillingCycleStartDay *int    `json:"billing_cycle_start_day,omitempty"`
}

// UpdateProfile applies a partial update. The start day must be within 1-31.
func (s *Service) UpdateProfile(ctx context.Context, email string, upd ProfileUpdate) (*domain.User, error) {
	if upd.BillingCycleStartDay != nil {
		if day := *upd.BillingCycleStartDay; day < 1 || day > 31 {
			return nil, fmt.Errorf("UpdateProfile: billing_cycle_start_day must be between 1 and 31, got %d: %w", day, store.ErrInvalidInput)
		}
	}

	u, err := s.Profile(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("UpdateProfile: %w", err)
	}
	if upd.Name != nil {
		u.Name = strings.TrimSpace(*upd.Name)
	}
	if upd.BillingCycleStartDay != nil {
		u.BillingCycleStartDay = *upd.BillingCycleStartDay
	}
	u.UpdatedAt = s.now().UTC()

	if err := s.repo.SaveUser(ctx, u); err != nil {
		return nil, fmt.Errorf("UpdateProfile: %w", err)
	}
	return u, nil
}

// CycleRange resolves the date window for period, or the cycle containing today
// when period is nil, using the user's billing-cycle start day.
func (s *Service) CycleRange(ctx context.Context, email string, period *Period) (billing.Range, error) {
	u, err := s.Profile(ctx, email)
	if err != nil {
		return billing.Range{}, fmt.Errorf("CycleRange: %w", err)
	}
	return s.rangeFor(u, period), nil
}

func (s *Service) rangeFor(u *domain.User, period *Period) billing.Range {
	if period == nil {
		return billing.CurrentCycle(s.now(), u.CycleStartDay())
	}
	return billing.CycleRange(period.Month, period.Year, u.CycleStartDay())
}

// transactionsIn loads every transaction of the user inside r.
func (s *Service) transactionsIn(ctx context.Context, email string, r billing.Range, txType domain.TransactionType) ([]*domain.Transaction, error) {
	page, err := s.repo.ListTransactions(ctx, store.TransactionFilter{
		UserEmail: email,
		Type:      txType,
		From:      r.From,
		To:        r.To,
		Unpaged:   true,
	})
	if err != nil {
		return nil, err
	}
	return page.Transactions, nil
}

func (s *Service) publish(ctx context.Context, email, id string, action jobs.MirrorAction) {
	if s.publisher == nil {
		return
	}
	err := s.publisher.PublishMirrorTransaction(ctx, &jobs.MirrorTransactionJob{
		TransactionID: id,
		UserEmail:     email,
		Action:        action,
	})
	if err != nil {
		log := logger.FromContext(ctx)
		log.Warn().Err(err).Str("transaction_id", id).Msg("Failed to queue mirror job")
	}
}
