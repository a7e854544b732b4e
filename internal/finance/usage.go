package finance

import (
	"context"
	"fmt"
	"strings"

	"github.com/dvloznov/finflow/internal/domain"
	"github.com/dvloznov/finflow/internal/entitlement"
	"github.com/dvloznov/finflow/internal/store"
	"github.com/google/uuid"
)

// Usage is today's AI-assisted submission count against the caps.
type Usage struct {
	Date      string             `json:"date"`
	IsPremium bool               `json:"isPremium"`
	Image     int                `json:"image"`
	Audio     int                `json:"audio"`
	Limits    entitlement.Limits `json:"limits"`
}

// Usage reports how many counted submissions the user made today.
func (s *Service) Usage(ctx context.Context, email string) (*Usage, error) {
	u, err := s.Profile(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("Usage: %w", err)
	}
	cfg, err := s.repo.ListAppConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("Usage: %w", err)
	}

	today := domain.FormatDate(s.now().UTC())
	out := &Usage{Date: today, IsPremium: u.IsPremium, Limits: entitlement.ParseLimits(cfg)}
	if out.Image, err = s.repo.CountTransactions(ctx, email, domain.SourceImage, today); err != nil {
		return nil, fmt.Errorf("Usage: %w", err)
	}
	if out.Audio, err = s.repo.CountTransactions(ctx, email, domain.SourceAudio, today); err != nil {
		return nil, fmt.Errorf("Usage: %w", err)
	}
	return out, nil
}

// AppConfig is the public view of the global config table.
type AppConfig struct {
	Values map[string]string  `json:"values"`
	Limits entitlement.Limits `json:"limits"`
}

// AppConfig returns the raw key-value config plus the effective daily caps.
func (s *Service) AppConfig(ctx context.Context) (*AppConfig, error) {
	cfg, err := s.repo.ListAppConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("AppConfig: %w", err)
	}
	if cfg == nil {
		cfg = map[string]string{}
	}
	return &AppConfig{Values: cfg, Limits: entitlement.ParseLimits(cfg)}, nil
}

// SubmitFeedback stores a feedback message. Rating is optional and must be 1-5.
func (s *Service) SubmitFeedback(ctx context.Context, email, message string, rating *int) (*domain.Feedback, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, fmt.Errorf("SubmitFeedback: message is required: %w", store.ErrInvalidInput)
	}
	if rating != nil && (*rating < 1 || *rating > 5) {
		return nil, fmt.Errorf("SubmitFeedback: rating must be between 1 and 5: %w", store.ErrInvalidInput)
	}

	f := &domain.Feedback{
		ID:        uuid.NewString(),
		UserEmail: email,
		Message:   message,
		Rating:    rating,
		CreatedAt: s.now().UTC(),
	}
	if err := s.repo.InsertFeedback(ctx, f); err != nil {
		return nil, fmt.Errorf("SubmitFeedback: %w", err)
	}
	return f, nil
}
