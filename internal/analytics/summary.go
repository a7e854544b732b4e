// Package analytics turns plain transaction and budget lists into the totals, breakdowns
// and statuses shown on the dashboard, the budget page and exported reports.
// Every function here is pure and works on data fetched fresh by the caller.
package analytics

import (
	"sort"

	"github.com/dvloznov/finflow/internal/domain"
)

// DefaultTopExpenses is how many expenses the dashboard highlights.
const DefaultTopExpenses = 5

// CategoryTotal is the summed expense amount for one category.
type CategoryTotal struct {
	Category string  `json:"name"`
	Amount   float64 `json:"value"`
}

// Summary is the headline view over a set of transactions.
type Summary struct {
	TotalIncome  float64         `json:"totalIncome"`
	TotalExpense float64         `json:"totalExpense"`
	Balance      float64         `json:"balance"`
	SavingsRate  float64         `json:"savingsRate"`
	PerCategory  []CategoryTotal `json:"perCategory"`
}

// Aggregate computes totals, balance, savings rate and the per-category expense breakdown.
func Aggregate(txs []*domain.Transaction) Summary {
	var s Summary
	for _, tx := range txs {
		if tx == nil {
			continue
		}
		switch tx.Type {
		case domain.TypeIncome:
			s.TotalIncome += tx.Amount
		case domain.TypeExpense:
			s.TotalExpense += tx.Amount
		}
	}
	s.Balance = s.TotalIncome - s.TotalExpense
	s.SavingsRate = SavingsRate(s.TotalIncome, s.TotalExpense)
	s.PerCategory = CategoryBreakdown(txs)
	return s
}

// SavingsRate is the share of income not spent, in percent, floored at zero.
func SavingsRate(income, expense float64) float64 {
	if income <= 0 {
		return 0
	}
	rate := (income - expense) * 100 / income
	if rate < 0 {
		return 0
	}
	return rate
}

// CategoryBreakdown sums expenses per category and sorts the groups by amount descending.
// Equal totals keep the order in which the category first appeared.
func CategoryBreakdown(txs []*domain.Transaction) []CategoryTotal {
	index := make(map[string]int)
	totals := make([]CategoryTotal, 0)
	for _, tx := range txs {
		if tx == nil || !tx.IsExpense() {
			continue
		}
		i, ok := index[tx.Category]
		if !ok {
			i = len(totals)
			index[tx.Category] = i
			totals = append(totals, CategoryTotal{Category: tx.Category})
		}
		totals[i].Amount += tx.Amount
	}

	sort.SliceStable(totals, func(i, j int) bool {
		return totals[i].Amount > totals[j].Amount
	})
	return totals
}

// CategorySpend returns the breakdown as a lookup map for budget evaluation.
func CategorySpend(txs []*domain.Transaction) map[string]float64 {
	spend := make(map[string]float64)
	for _, c := range CategoryBreakdown(txs) {
		spend[c.Category] = c.Amount
	}
	return spend
}

// TopExpenses returns the n largest expenses. Ties keep their original order.
func TopExpenses(txs []*domain.Transaction, n int) []*domain.Transaction {
	if n <= 0 {
		n = DefaultTopExpenses
	}
	expenses := make([]*domain.Transaction, 0, len(txs))
	for _, tx := range txs {
		if tx != nil && tx.IsExpense() {
			expenses = append(expenses, tx)
		}
	}

	sort.SliceStable(expenses, func(i, j int) bool {
		return expenses[i].Amount > expenses[j].Amount
	})
	if len(expenses) > n {
		expenses = expenses[:n]
	}
	return expenses
}
