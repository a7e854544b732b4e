package pipeline

import (
	"errors"

	"github.com/dvloznov/finflow/internal/entitlement"
)

// ErrNoInput is returned when a submission has neither text nor a file.
var ErrNoInput = errors.New("no input provided")

// LimitError is returned when a free user has used up today's quota for the source.
type LimitError struct {
	Decision entitlement.Decision
}

func (e *LimitError) Error() string {
	return e.Decision.Message
}
