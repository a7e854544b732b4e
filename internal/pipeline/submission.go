package pipeline

import (
	"context"
	"time"

	"github.com/dvloznov/finflow/internal/ai"
	"github.com/dvloznov/finflow/internal/domain"
)

// Deps are the collaborators of a submission. Archiver and Publisher are optional.
type Deps struct {
	Transactions TransactionStore
	Users        UserStore
	Config       ConfigStore
	Extractor    ai.Extractor
	Archiver     Archiver
	Publisher    MirrorPublisher
}

// Request is one submission from an authenticated user.
type Request struct {
	UserEmail string
	Locale    string
	Text      string
	Data      []byte
	MIMEType  string
}

// Result is what the caller gets back after a successful submission.
type Result struct {
	Transaction   *domain.Transaction
	Transcription string
}

// Submitter records transactions from AI-assisted submissions.
type Submitter struct {
	pipeline *Pipeline
	now      func() time.Time
}

// NewSubmitter wires the standard submission pipeline.
func NewSubmitter(deps Deps) *Submitter {
	return &Submitter{
		pipeline: NewSubmissionPipeline(deps),
		now:      time.Now,
	}
}

// NewSubmissionPipeline creates the standard 8-step pipeline. The usage gate runs
// before the archive and the model call so a denied request costs nothing.
func NewSubmissionPipeline(deps Deps) *Pipeline {
	return NewPipeline(
		&ValidateInputStep{},
		&LoadEntitlementStep{Users: deps.Users, Config: deps.Config, Transactions: deps.Transactions},
		&CheckLimitStep{},
		&ArchiveReceiptStep{Archiver: deps.Archiver},
		&ExtractStep{Extractor: deps.Extractor},
		&BuildTransactionStep{},
		&InsertTransactionStep{Transactions: deps.Transactions},
		&PublishMirrorStep{Publisher: deps.Publisher},
	)
}

// Submit runs the pipeline. Usage is counted and dates default on the UTC day.
// Errors wrap ErrNoInput, *LimitError, ai.ErrQuotaExceeded or a storage failure.
func (s *Submitter) Submit(ctx context.Context, req Request) (*Result, error) {
	now := s.now().UTC()
	state := &PipelineState{
		UserEmail: req.UserEmail,
		Locale:    req.Locale,
		Now:       now,
		Input: ai.Input{
			Text:     req.Text,
			Data:     req.Data,
			MIMEType: req.MIMEType,
			Today:    now,
		},
	}

	if err := s.pipeline.Execute(ctx, state); err != nil {
		return nil, err
	}

	return &Result{
		Transaction:   state.Transaction,
		Transcription: state.Extraction.Transcription,
	}, nil
}
