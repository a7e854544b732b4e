package analytics

import (
	"sort"

	"github.com/dvloznov/finflow/internal/domain"
	"github.com/shopspring/decimal"
)

// Suggestion policy.
const (
	SuggestionHistoryDays = 90
	SuggestionStep        = 50000
)

var suggestionMargin = decimal.RequireFromString("1.10")

// DefaultBudgets is proposed to users with no expense history.
func DefaultBudgets() []domain.BudgetSuggestion {
	return []domain.BudgetSuggestion{
		{Category: "Food", Amount: 1500000},
		{Category: "Transport", Amount: 500000},
		{Category: "Entertainment", Amount: 500000},
		{Category: "Bills", Amount: 1000000},
		{Category: "Other", Amount: 500000},
	}
}

// MonthlyAverages sums expenses per category over a days-long history and scales
// the totals to a 30-day month.
func MonthlyAverages(txs []*domain.Transaction, days int) map[string]float64 {
	if days <= 0 {
		days = SuggestionHistoryDays
	}
	months := float64(days) / 30
	avg := make(map[string]float64)
	for category, total := range CategorySpend(txs) {
		avg[category] = total / months
	}
	return avg
}

// SuggestBudgets applies the safety margin and rounding to raw monthly averages,
// whichever component computed them. Categories with no spending are dropped.
// The result is ordered by amount descending, then category name.
func SuggestBudgets(averages map[string]float64) []domain.BudgetSuggestion {
	out := make([]domain.BudgetSuggestion, 0, len(averages))
	for category, avg := range averages {
		if category == "" || avg <= 0 {
			continue
		}
		out = append(out, domain.BudgetSuggestion{
			Category: category,
			Amount:   RoundToStep(avg),
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Amount != out[j].Amount {
			return out[i].Amount > out[j].Amount
		}
		return out[i].Category < out[j].Category
	})
	return out
}

// RoundToStep adds the 10% margin and rounds half-up to the nearest 50,000.
// Any positive average yields at least one step.
func RoundToStep(avg float64) float64 {
	if avg <= 0 {
		return 0
	}
	step := decimal.NewFromInt(SuggestionStep)
	target := decimal.NewFromFloat(avg).Mul(suggestionMargin)
	rounded := target.Div(step).Round(0).Mul(step)
	if rounded.LessThan(step) {
		rounded = step
	}
	return rounded.InexactFloat64()
}
