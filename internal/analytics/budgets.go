package analytics

import (
	"math"
	"sort"

	"github.com/dvloznov/finflow/internal/domain"
)

// Thresholds, in percent of the limit, between budget levels.
const (
	WarningThreshold = 80.0
	DangerThreshold  = 100.0
)

// EvaluateBudgets compares each budget against category spending and orders the
// result by percentage used, most exceeded first.
func EvaluateBudgets(budgets []*domain.Budget, spend map[string]float64) []domain.BudgetStatus {
	statuses := make([]domain.BudgetStatus, 0, len(budgets))
	for _, b := range budgets {
		if b == nil {
			continue
		}
		spent := spend[b.Category]
		st := domain.BudgetStatus{
			Category: b.Category,
			Limit:    b.Amount,
			Spent:    spent,
		}

		if b.Amount <= 0 || math.IsNaN(b.Amount) || math.IsInf(b.Amount, 0) {
			st.Invalid = true
			st.Percentage = 0
		} else {
			st.Percentage = spent * 100 / b.Amount
		}
		st.Status = Level(st.Percentage)
		statuses = append(statuses, st)
	}

	sort.SliceStable(statuses, func(i, j int) bool {
		return statuses[i].Percentage > statuses[j].Percentage
	})
	return statuses
}

// Level classifies a usage percentage.
func Level(percentage float64) domain.BudgetLevel {
	switch {
	case percentage >= DangerThreshold:
		return domain.LevelDanger
	case percentage >= WarningThreshold:
		return domain.LevelWarning
	default:
		return domain.LevelSafe
	}
}
