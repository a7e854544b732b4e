package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/dvloznov/finflow/internal/domain"
	"google.golang.org/genai"
)

func TestExtraction_Transaction(t *testing.T) {
	now := time.Date(2025, 6, 14, 10, 30, 0, 0, time.UTC)
	tax := 1100.0

	tests := []struct {
		name         string
		extraction   Extraction
		source       domain.Source
		wantDate     string
		wantAmount   float64
		wantType     domain.TransactionType
		wantCategory string
		wantItems    int
	}{
		{
			name:         "well formed expense",
			extraction:   Extraction{Date: "2025-06-13", Description: "Kopi susu", Amount: 25000, Category: "Food", Type: "expense"},
			source:       domain.SourceText,
			wantDate:     "2025-06-13",
			wantAmount:   25000,
			wantType:     domain.TypeExpense,
			wantCategory: "Food",
		},
		{
			name:         "invalid date falls back to today",
			extraction:   Extraction{Date: "kemarin", Amount: 10000, Category: "transport", Type: "expense"},
			source:       domain.SourceAudio,
			wantDate:     "2025-06-14",
			wantAmount:   10000,
			wantType:     domain.TypeExpense,
			wantCategory: "Transport",
		},
		{
			name:         "negative amount made positive",
			extraction:   Extraction{Date: "2025-06-01", Amount: -5000000, Category: "SALARY", Type: "Income"},
			source:       domain.SourceText,
			wantDate:     "2025-06-01",
			wantAmount:   5000000,
			wantType:     domain.TypeIncome,
			wantCategory: "Salary",
		},
		{
			name:         "empty category becomes Other",
			extraction:   Extraction{Date: "2025-06-01", Amount: 7000, Type: "???"},
			source:       domain.SourceText,
			wantDate:     "2025-06-01",
			wantAmount:   7000,
			wantType:     domain.TypeExpense,
			wantCategory: "Other",
		},
		{
			name: "receipt keeps itemization",
			extraction: Extraction{Date: "2025-06-14", Amount: 111000, Category: "Food", Type: "expense",
				Items: []domain.LineItem{{Name: "Nasi goreng", Quantity: 2, Price: 50000}}, Tax: &tax},
			source:       domain.SourceImage,
			wantDate:     "2025-06-14",
			wantAmount:   111000,
			wantType:     domain.TypeExpense,
			wantCategory: "Food",
			wantItems:    1,
		},
		{
			name: "text submission drops itemization",
			extraction: Extraction{Date: "2025-06-14", Amount: 50000, Category: "Food", Type: "expense",
				Items: []domain.LineItem{{Name: "x", Price: 1}}},
			source:       domain.SourceText,
			wantDate:     "2025-06-14",
			wantAmount:   50000,
			wantType:     domain.TypeExpense,
			wantCategory: "Food",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := tt.extraction.Transaction("sari@example.com", tt.source, now)
			if tx.ID == "" {
				t.Error("expected an id")
			}
			if tx.UserEmail != "sari@example.com" || tx.Source != tt.source {
				t.Errorf("owner/source = %q/%q", tx.UserEmail, tx.Source)
			}
			if tx.Date != tt.wantDate {
				t.Errorf("Date = %q, want %q", tx.Date, tt.wantDate)
			}
			if tx.Amount != tt.wantAmount {
				t.Errorf("Amount = %v, want %v", tx.Amount, tt.wantAmount)
			}
			if tx.Type != tt.wantType {
				t.Errorf("Type = %q, want %q", tx.Type, tt.wantType)
			}
			if tx.Category != tt.wantCategory {
				t.Errorf("Category = %q, want %q", tx.Category, tt.wantCategory)
			}
			if len(tx.Items) != tt.wantItems {
				t.Errorf("Items = %d, want %d", len(tx.Items), tt.wantItems)
			}
			if !tx.CreatedAt.Equal(now) {
				t.Errorf("CreatedAt = %v, want %v", tx.CreatedAt, now)
			}
		})
	}
}

func TestCanonicalCategory(t *testing.T) {
	tests := map[string]string{
		"food":          "Food",
		"  BILLS ":      "Bills",
		"Entertainment": "Entertainment",
		"":              "Other",
		"Kesehatan":     "Kesehatan",
	}
	for in, want := range tests {
		if got := CanonicalCategory(in); got != want {
			t.Errorf("CanonicalCategory(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestIsQuotaError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"api error value", genai.APIError{Code: 429, Status: "RESOURCE_EXHAUSTED"}, true},
		{"api error pointer", &genai.APIError{Code: 429}, true},
		{"wrapped api error", fmt.Errorf("Extract: %w", genai.APIError{Code: 429}), true},
		{"other api error", genai.APIError{Code: 500, Message: "internal"}, false},
		{"message with quota", errors.New("You exceeded your current Quota"), true},
		{"message with status", errors.New("RESOURCE_EXHAUSTED"), true},
		{"sentinel", fmt.Errorf("x: %w", ErrQuotaExceeded), true},
		{"unrelated", errors.New("connection reset"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsQuotaError(tt.err); got != tt.want {
				t.Errorf("IsQuotaError() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClassify(t *testing.T) {
	err := classify("Extract", genai.APIError{Code: 429})
	if !errors.Is(err, ErrQuotaExceeded) {
		t.Errorf("expected ErrQuotaExceeded, got %v", err)
	}

	err = classify("Extract", errors.New("boom"))
	if errors.Is(err, ErrQuotaExceeded) {
		t.Error("plain failure must not be tagged as quota")
	}
	if !strings.HasPrefix(err.Error(), "Extract: ") {
		t.Errorf("missing op prefix: %v", err)
	}
}

func TestCleanModelJSON(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"plain", `{"a":1}`, `{"a":1}`},
		{"fenced", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"surrounding text", "Here you go: {\"a\":{\"b\":2}} thanks", `{"a":{"b":2}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cleanModelJSON(tt.raw); got != tt.want {
				t.Errorf("cleanModelJSON() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDecodeModelJSON_Empty(t *testing.T) {
	var e Extraction
	if err := decodeModelJSON("   ", &e); !errors.Is(err, ErrEmptyResponse) {
		t.Errorf("err = %v, want ErrEmptyResponse", err)
	}
}

func TestBuildExtractionPrompt(t *testing.T) {
	prompt := buildExtractionPrompt(Input{Today: time.Date(2025, 2, 3, 0, 0, 0, 0, time.UTC)})
	for _, want := range []string{"2025-02-03", "\"jt\" or \"juta\"", "- Food:", "- Other:"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestBuildAveragesPrompt_SkipsIncome(t *testing.T) {
	prompt, err := buildAveragesPrompt([]*domain.Transaction{
		{Date: "2025-01-02", Category: "Food", Amount: 10000, Type: domain.TypeExpense},
		{Date: "2025-01-01", Category: "Salary", Amount: 9000000, Type: domain.TypeIncome},
	}, 90)
	if err != nil {
		t.Fatalf("buildAveragesPrompt: %v", err)
	}
	if strings.Contains(prompt, "Salary") {
		t.Error("income must not be sent to the advisor")
	}
	if !strings.Contains(prompt, "last 90 days") {
		t.Error("window length missing from prompt")
	}
}

func TestLocalAverager(t *testing.T) {
	got, err := LocalAverager{}.MonthlyAverages(context.Background(), []*domain.Transaction{
		{Category: "Food", Amount: 900000, Type: domain.TypeExpense},
	}, 90)
	if err != nil {
		t.Fatal(err)
	}
	if got["Food"] != 300000 {
		t.Errorf("Food = %v, want 300000", got["Food"])
	}
}

func TestInput_Empty(t *testing.T) {
	if !(Input{Text: "  "}).Empty() {
		t.Error("blank text should be empty")
	}
	if (Input{Data: []byte{1}}).Empty() {
		t.Error("file input should not be empty")
	}
}
