// Package pipeline runs an AI-assisted submission (free text, a voice note or a
// receipt photo) through validation, the daily usage gate, extraction and storage.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/dvloznov/finflow/internal/ai"
	"github.com/dvloznov/finflow/internal/domain"
	"github.com/dvloznov/finflow/internal/entitlement"
)

// PipelineStep represents a single step in the submission pipeline.
type PipelineStep interface {
	Execute(ctx context.Context, state *PipelineState) error
}

// PipelineState holds the shared state across all pipeline steps.
type PipelineState struct {
	// Request
	UserEmail string
	Locale    string
	Input     ai.Input
	Now       time.Time

	// Filled in by the steps
	Source      domain.Source
	User        *domain.User
	Limits      entitlement.Limits
	CountToday  int
	Decision    entitlement.Decision
	ReceiptURI  string
	Extraction  *ai.Extraction
	Transaction *domain.Transaction
}

// Today is the UTC submission date used for usage accounting.
func (s *PipelineState) Today() string {
	return domain.FormatDate(s.Now)
}

// Pipeline executes a sequence of steps in order.
type Pipeline struct {
	steps []PipelineStep
}

// NewPipeline creates a new pipeline with the given steps.
func NewPipeline(steps ...PipelineStep) *Pipeline {
	return &Pipeline{steps: steps}
}

// Execute runs all steps in the pipeline sequentially and stops at the first failure.
func (p *Pipeline) Execute(ctx context.Context, state *PipelineState) error {
	for i, step := range p.steps {
		if err := step.Execute(ctx, state); err != nil {
			return fmt.Errorf("pipeline step %d failed: %w", i+1, err)
		}
	}
	return nil
}
