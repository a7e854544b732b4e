package domain

import (
	"strings"
	"time"
)

// DateLayout is the calendar-date format used for every transaction date.
const DateLayout = "2006-01-02"

// TransactionType is the direction of a money movement.
type TransactionType string

const (
	TypeIncome  TransactionType = "income"
	TypeExpense TransactionType = "expense"
)

// Valid reports whether t is a known transaction type.
func (t TransactionType) Valid() bool {
	return t == TypeIncome || t == TypeExpense
}

// ParseTransactionType normalizes user or model supplied type strings.
// Anything that is not recognisably income is treated as an expense.
func ParseTransactionType(s string) TransactionType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "income", "pemasukan", "in":
		return TypeIncome
	default:
		return TypeExpense
	}
}

// Source is the input modality a transaction was recorded with.
// It only matters for daily usage accounting.
type Source string

const (
	SourceText  Source = "text"
	SourceAudio Source = "audio"
	SourceImage Source = "image"
)

// Valid reports whether s is a known source.
func (s Source) Valid() bool {
	return s == SourceText || s == SourceAudio || s == SourceImage
}

// SourceFromMIME maps an uploaded file's content type to a source.
// No file means text; images are receipts; everything else is treated as audio.
func SourceFromMIME(mimeType string, hasFile bool) Source {
	if !hasFile {
		return SourceText
	}
	if strings.HasPrefix(strings.ToLower(mimeType), "image/") {
		return SourceImage
	}
	return SourceAudio
}

// LineItem is one itemized row extracted from a receipt.
type LineItem struct {
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity"`
	Price    float64 `json:"price"`
}

// Transaction is a single recorded money movement owned by one user.
type Transaction struct {
	ID          string          `json:"id"`
	UserEmail   string          `json:"user_email"`
	Date        string          `json:"date"` // YYYY-MM-DD, no time component
	CreatedAt   time.Time       `json:"created_at"`
	Amount      float64         `json:"amount"`
	Type        TransactionType `json:"type"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	Source      Source          `json:"source"`

	// Itemization is only present for receipt-image extractions.
	Items    []LineItem `json:"items,omitempty"`
	Tax      *float64   `json:"tax,omitempty"`
	Discount *float64   `json:"discount,omitempty"`

	// ReceiptURI points at the archived receipt or recording, if any.
	ReceiptURI string `json:"receipt_uri,omitempty"`
}

// IsExpense reports whether the transaction is an expense.
func (t *Transaction) IsExpense() bool { return t.Type == TypeExpense }

// IsIncome reports whether the transaction is income.
func (t *Transaction) IsIncome() bool { return t.Type == TypeIncome }

// ValidDate reports whether s is a YYYY-MM-DD calendar date.
func ValidDate(s string) bool {
	_, err := time.Parse(DateLayout, s)
	return err == nil
}

// FormatDate renders t as a calendar date in its own location.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}
