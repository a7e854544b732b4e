package store

import (
	"testing"
	"time"

	"github.com/dvloznov/finflow/internal/domain"
)

func TestTransactionFilter_Normalize(t *testing.T) {
	tests := []struct {
		name      string
		in        TransactionFilter
		wantSort  string
		wantPage  int
		wantLimit int
	}{
		{"defaults", TransactionFilter{}, SortByDate, 1, DefaultPageSize},
		{"amount sort kept", TransactionFilter{SortBy: SortByAmount}, SortByAmount, 1, DefaultPageSize},
		{"unknown sort", TransactionFilter{SortBy: "created_at"}, SortByDate, 1, DefaultPageSize},
		{"limit capped", TransactionFilter{Page: 3, Limit: 10000}, SortByDate, 3, MaxPageSize},
		{"negative page", TransactionFilter{Page: -2, Limit: 20}, SortByDate, 1, 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.in.Normalize()
			if got.SortBy != tt.wantSort || got.Page != tt.wantPage || got.Limit != tt.wantLimit {
				t.Errorf("Normalize() = sort %q page %d limit %d, want %q %d %d",
					got.SortBy, got.Page, got.Limit, tt.wantSort, tt.wantPage, tt.wantLimit)
			}
		})
	}

	if off := (TransactionFilter{Page: 3, Limit: 20}).Offset(); off != 40 {
		t.Errorf("Offset() = %d, want 40", off)
	}
}

func TestTransactionFilter_Match(t *testing.T) {
	tx := &domain.Transaction{
		UserEmail:   "a@example.com",
		Date:        "2025-01-15",
		Type:        domain.TypeExpense,
		Category:    "Food",
		Description: "Nasi Goreng Pak Kumis",
		Source:      domain.SourceImage,
	}

	tests := []struct {
		name   string
		filter TransactionFilter
		want   bool
	}{
		{"empty filter", TransactionFilter{}, true},
		{"owner", TransactionFilter{UserEmail: "a@example.com"}, true},
		{"other owner", TransactionFilter{UserEmail: "b@example.com"}, false},
		{"type", TransactionFilter{Type: domain.TypeIncome}, false},
		{"category case-insensitive", TransactionFilter{Category: "food"}, true},
		{"source", TransactionFilter{Source: domain.SourceAudio}, false},
		{"inside range", TransactionFilter{From: "2025-01-01", To: "2025-01-31"}, true},
		{"range inclusive", TransactionFilter{From: "2025-01-15", To: "2025-01-15"}, true},
		{"before range", TransactionFilter{From: "2025-01-16"}, false},
		{"after range", TransactionFilter{To: "2025-01-14"}, false},
		{"search description", TransactionFilter{Search: "goreng"}, true},
		{"search category", TransactionFilter{Search: "FOO"}, true},
		{"search miss", TransactionFilter{Search: "sate"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.filter.Match(tx); got != tt.want {
				t.Errorf("Match() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSortTransactions(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	txs := []*domain.Transaction{
		{ID: "a", Date: "2025-01-02", Amount: 300, CreatedAt: base},
		{ID: "b", Date: "2025-01-03", Amount: 100, CreatedAt: base},
		{ID: "c", Date: "2025-01-02", Amount: 200, CreatedAt: base.Add(time.Hour)},
	}

	SortTransactions(txs, SortByDate, false)
	assertOrder(t, txs, "b", "c", "a")

	SortTransactions(txs, SortByAmount, true)
	assertOrder(t, txs, "b", "c", "a")

	SortTransactions(txs, SortByAmount, false)
	assertOrder(t, txs, "a", "c", "b")
}

func assertOrder(t *testing.T, txs []*domain.Transaction, ids ...string) {
	t.Helper()
	for i, id := range ids {
		if txs[i].ID != id {
			t.Fatalf("position %d = %q, want %q", i, txs[i].ID, id)
		}
	}
}
