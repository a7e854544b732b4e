// Package ai turns free text, voice notes and receipt photos into transactions, and
// estimates monthly spending per category for budget suggestions.
package ai

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/dvloznov/finflow/internal/analytics"
	"github.com/dvloznov/finflow/internal/domain"
	"github.com/google/uuid"
	"google.golang.org/genai"
)

var (
	// ErrQuotaExceeded is returned when the provider rejects a call for quota or rate reasons.
	ErrQuotaExceeded = errors.New("ai: quota exceeded")
	// ErrEmptyResponse is returned when the model answers with no usable content.
	ErrEmptyResponse = errors.New("ai: empty response")
)

// Input is one submission. Text and Data may both be set.
type Input struct {
	Text     string
	Data     []byte
	MIMEType string
	// Today is the date the model falls back to when the input names none.
	Today time.Time
}

// HasFile reports whether the input carries an attachment.
func (in Input) HasFile() bool { return len(in.Data) > 0 }

// Empty reports whether there is nothing to extract from.
func (in Input) Empty() bool {
	return strings.TrimSpace(in.Text) == "" && !in.HasFile()
}

// Extraction is the structured result the model returns for one submission.
type Extraction struct {
	Date          string            `json:"date"`
	Description   string            `json:"description"`
	Amount        float64           `json:"amount"`
	Category      string            `json:"category"`
	Type          string            `json:"type"`
	Transcription string            `json:"transcription"`
	Items         []domain.LineItem `json:"items,omitempty"`
	Tax           *float64          `json:"tax,omitempty"`
	Discount      *float64          `json:"discount,omitempty"`
}

// Transaction builds the record to store from the extraction. Dates the model got
// wrong fall back to today, amounts are made non-negative and the category is
// mapped onto the known set when it matches one.
func (e *Extraction) Transaction(userEmail string, source domain.Source, now time.Time) *domain.Transaction {
	date := strings.TrimSpace(e.Date)
	if !domain.ValidDate(date) {
		date = domain.FormatDate(now)
	}

	amount := math.Abs(e.Amount)
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		amount = 0
	}

	tx := &domain.Transaction{
		ID:          uuid.NewString(),
		UserEmail:   userEmail,
		Date:        date,
		CreatedAt:   now.UTC(),
		Amount:      math.Round(amount),
		Type:        domain.ParseTransactionType(e.Type),
		Category:    CanonicalCategory(e.Category),
		Description: strings.TrimSpace(e.Description),
		Source:      source,
	}
	if source == domain.SourceImage {
		tx.Items = e.Items
		tx.Tax = e.Tax
		tx.Discount = e.Discount
	}
	return tx
}

// Extractor reads a transaction out of a submission.
type Extractor interface {
	Extract(ctx context.Context, in Input) (*Extraction, error)
}

// Averager computes raw average monthly spend per category from expense history.
// Safety margin and rounding are applied by the caller.
type Averager interface {
	MonthlyAverages(ctx context.Context, expenses []*domain.Transaction, days int) (map[string]float64, error)
}

// LocalAverager computes averages arithmetically.
type LocalAverager struct{}

// MonthlyAverages implements Averager.
func (LocalAverager) MonthlyAverages(_ context.Context, expenses []*domain.Transaction, days int) (map[string]float64, error) {
	return analytics.MonthlyAverages(expenses, days), nil
}

// IsQuotaError reports whether err is a provider quota or rate-limit rejection.
func IsQuotaError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrQuotaExceeded) {
		return true
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) && apiErr.Code == 429 {
		return true
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil && apiErrPtr.Code == 429 {
		return true
	}

	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "429") ||
		strings.Contains(msg, "quota") ||
		strings.Contains(msg, "resource_exhausted")
}

// classify tags quota failures with ErrQuotaExceeded so callers can use errors.Is.
func classify(op string, err error) error {
	if IsQuotaError(err) {
		return errors.Join(ErrQuotaExceeded, wrap(op, err))
	}
	return wrap(op, err)
}
