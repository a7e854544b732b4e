package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dvloznov/finflow/internal/ai"
	"github.com/dvloznov/finflow/internal/domain"
	"github.com/dvloznov/finflow/internal/entitlement"
	"github.com/dvloznov/finflow/internal/gcsuploader"
	"github.com/dvloznov/finflow/internal/jobs"
	"github.com/dvloznov/finflow/internal/logger"
	"github.com/dvloznov/finflow/internal/store"
)

// Step 1: ValidateInputStep rejects empty submissions and classifies the source.
type ValidateInputStep struct{}

func (s *ValidateInputStep) Execute(ctx context.Context, state *PipelineState) error {
	if strings.TrimSpace(state.UserEmail) == "" {
		return fmt.Errorf("ValidateInput: user email is required: %w", store.ErrInvalidInput)
	}
	if state.Input.Empty() {
		return ErrNoInput
	}
	state.Source = domain.SourceFromMIME(state.Input.MIMEType, state.Input.HasFile())
	state.Locale = entitlement.NormalizeLocale(state.Locale)
	if state.Input.Today.IsZero() {
		state.Input.Today = state.Now
	}
	return nil
}

// Step 2: LoadEntitlementStep reads the user, the configured limits and today's count.
// Text submissions skip the count since they are never capped.
type LoadEntitlementStep struct {
	Users        UserStore
	Config       ConfigStore
	Transactions TransactionStore
}

func (s *LoadEntitlementStep) Execute(ctx context.Context, state *PipelineState) error {
	user, err := s.Users.GetUser(ctx, state.UserEmail)
	switch {
	case errors.Is(err, store.ErrNotFound):
		user = &domain.User{Email: state.UserEmail, BillingCycleStartDay: domain.DefaultCycleStartDay}
	case err != nil:
		return fmt.Errorf("LoadEntitlement: %w", err)
	}
	state.User = user

	if user.IsPremium {
		return nil
	}
	if _, counted := entitlement.DefaultLimits().For(state.Source); !counted {
		return nil
	}

	cfg, err := s.Config.ListAppConfig(ctx)
	if err != nil {
		return fmt.Errorf("LoadEntitlement: %w", err)
	}
	state.Limits = entitlement.ParseLimits(cfg)

	count, err := s.Transactions.CountTransactions(ctx, state.UserEmail, state.Source, state.Today())
	if err != nil {
		return fmt.Errorf("LoadEntitlement: %w", err)
	}
	state.CountToday = count
	return nil
}

// Step 3: CheckLimitStep applies the daily cap before any AI call is made.
type CheckLimitStep struct{}

func (s *CheckLimitStep) Execute(ctx context.Context, state *PipelineState) error {
	isPremium := state.User != nil && state.User.IsPremium
	state.Decision = entitlement.Check(isPremium, state.Source, state.CountToday, state.Limits, state.Locale)
	if !state.Decision.Allowed {
		log := logger.FromContext(ctx)
		log.Info().
			Str("source", string(state.Source)).
			Int("used", state.Decision.Used).
			Int("limit", state.Decision.Limit).
			Msg("Daily limit reached")
		return &LimitError{Decision: state.Decision}
	}
	return nil
}

// Step 4: ArchiveReceiptStep keeps a copy of the uploaded file. Archival is best
// effort; a failed upload is logged and the submission carries on.
type ArchiveReceiptStep struct {
	Archiver Archiver
}

func (s *ArchiveReceiptStep) Execute(ctx context.Context, state *PipelineState) error {
	if s.Archiver == nil || !state.Input.HasFile() {
		return nil
	}
	uri, err := s.Archiver.Archive(ctx, gcsuploader.ArchiveRequest{
		UserEmail: state.UserEmail,
		Source:    state.Source,
		MIMEType:  state.Input.MIMEType,
		Data:      state.Input.Data,
		At:        state.Now,
	})
	if err != nil {
		log := logger.FromContext(ctx)
		log.Warn().Err(err).Msg("Failed to archive upload")
		return nil
	}
	state.ReceiptURI = uri
	return nil
}

// Step 5: ExtractStep asks the model for the transaction details.
type ExtractStep struct {
	Extractor ai.Extractor
}

func (s *ExtractStep) Execute(ctx context.Context, state *PipelineState) error {
	extraction, err := s.Extractor.Extract(ctx, state.Input)
	if err != nil {
		return fmt.Errorf("Extract: %w", err)
	}
	state.Extraction = extraction
	return nil
}

// Step 6: BuildTransactionStep normalises the extraction into a transaction.
type BuildTransactionStep struct{}

func (s *BuildTransactionStep) Execute(ctx context.Context, state *PipelineState) error {
	if state.Extraction == nil {
		return fmt.Errorf("BuildTransaction: %w", ai.ErrEmptyResponse)
	}
	tx := state.Extraction.Transaction(state.UserEmail, state.Source, state.Now)
	tx.ReceiptURI = state.ReceiptURI
	state.Transaction = tx
	return nil
}

// Step 7: InsertTransactionStep stores the transaction.
type InsertTransactionStep struct {
	Transactions TransactionStore
}

func (s *InsertTransactionStep) Execute(ctx context.Context, state *PipelineState) error {
	if err := s.Transactions.InsertTransaction(ctx, state.Transaction); err != nil {
		return fmt.Errorf("InsertTransaction: %w", err)
	}
	log := logger.FromContext(ctx)
	log.Info().
		Str("transaction_id", state.Transaction.ID).
		Str("source", string(state.Source)).
		Msg("Transaction recorded")
	return nil
}

// Step 8: PublishMirrorStep queues the new transaction for the external mirror.
// The transaction is already stored, so a failed publish is only logged.
type PublishMirrorStep struct {
	Publisher MirrorPublisher
}

func (s *PublishMirrorStep) Execute(ctx context.Context, state *PipelineState) error {
	if s.Publisher == nil {
		return nil
	}
	err := s.Publisher.PublishMirrorTransaction(ctx, &jobs.MirrorTransactionJob{
		TransactionID: state.Transaction.ID,
		UserEmail:     state.UserEmail,
		Action:        jobs.MirrorUpsert,
	})
	if err != nil {
		log := logger.FromContext(ctx)
		log.Warn().Err(err).
			Str("transaction_id", state.Transaction.ID).
			Msg("Failed to queue mirror job")
	}
	return nil
}
