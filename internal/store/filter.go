package store

import (
	"sort"
	"strings"

	"github.com/dvloznov/finflow/internal/domain"
)

// Pagination bounds for transaction lists.
const (
	DefaultPage     = 1
	DefaultPageSize = 50
	MaxPageSize     = 500
)

// Sort keys accepted by ListTransactions.
const (
	SortByDate   = "date"
	SortByAmount = "amount"
)

// TransactionFilter narrows a transaction list. Zero values mean "no constraint".
// From and To are inclusive YYYY-MM-DD bounds.
type TransactionFilter struct {
	UserEmail string
	Search    string
	Type      domain.TransactionType
	Category  string
	Source    domain.Source
	From      string
	To        string

	SortBy    string
	Ascending bool

	Page  int
	Limit int

	// Unpaged returns every match. Used for aggregation and exports.
	Unpaged bool
}

// TransactionPage is one page of a filtered list plus the total match count.
type TransactionPage struct {
	Transactions []*domain.Transaction `json:"transactions"`
	Total        int                   `json:"total"`
	Page         int                   `json:"page"`
	Limit        int                   `json:"limit"`
}

// Normalize applies defaults and bounds to sort and pagination fields.
func (f TransactionFilter) Normalize() TransactionFilter {
	f.Search = strings.TrimSpace(f.Search)
	f.Category = strings.TrimSpace(f.Category)
	if f.SortBy != SortByAmount {
		f.SortBy = SortByDate
	}
	if f.Page < 1 {
		f.Page = DefaultPage
	}
	if f.Limit < 1 {
		f.Limit = DefaultPageSize
	}
	if f.Limit > MaxPageSize {
		f.Limit = MaxPageSize
	}
	return f
}

// Offset is the number of rows skipped before the current page.
func (f TransactionFilter) Offset() int {
	if f.Page < 1 {
		return 0
	}
	return (f.Page - 1) * f.Limit
}

// Match reports whether tx satisfies every constraint of the filter.
// Backends that cannot push a constraint down to SQL use it as a post-filter.
func (f TransactionFilter) Match(tx *domain.Transaction) bool {
	if tx == nil {
		return false
	}
	if f.UserEmail != "" && tx.UserEmail != f.UserEmail {
		return false
	}
	if f.Type != "" && tx.Type != f.Type {
		return false
	}
	if f.Category != "" && !strings.EqualFold(tx.Category, f.Category) {
		return false
	}
	if f.Source != "" && tx.Source != f.Source {
		return false
	}
	if f.From != "" && tx.Date < f.From {
		return false
	}
	if f.To != "" && tx.Date > f.To {
		return false
	}
	if f.Search != "" {
		needle := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(tx.Description), needle) &&
			!strings.Contains(strings.ToLower(tx.Category), needle) {
			return false
		}
	}
	return true
}

// SortTransactions orders txs in place by the filter's sort key. Ties on the key
// fall back to created_at in the same direction.
func SortTransactions(txs []*domain.Transaction, sortBy string, ascending bool) {
	less := func(a, b *domain.Transaction) bool {
		if sortBy == SortByAmount && a.Amount != b.Amount {
			return a.Amount < b.Amount
		}
		if a.Date != b.Date {
			return a.Date < b.Date
		}
		return a.CreatedAt.Before(b.CreatedAt)
	}
	sort.SliceStable(txs, func(i, j int) bool {
		if ascending {
			return less(txs[i], txs[j])
		}
		return less(txs[j], txs[i])
	})
}
