package analytics

import (
	"time"

	"github.com/dvloznov/finflow/internal/domain"
)

// DefaultSeriesDays is the length of the dashboard activity window.
const DefaultSeriesDays = 31

// DailyPoint is the income and expense booked on one calendar day.
type DailyPoint struct {
	Date    string  `json:"date"`
	Income  float64 `json:"income"`
	Expense float64 `json:"expense"`
}

// DailySeries buckets transactions per day over the days-long window ending on end.
// Every day in the window gets a row, zero-filled when nothing was booked.
func DailySeries(txs []*domain.Transaction, end time.Time, days int) []DailyPoint {
	if days <= 0 {
		days = DefaultSeriesDays
	}

	last := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)
	first := last.AddDate(0, 0, -(days - 1))

	points := make([]DailyPoint, days)
	index := make(map[string]int, days)
	for i := 0; i < days; i++ {
		date := domain.FormatDate(first.AddDate(0, 0, i))
		points[i] = DailyPoint{Date: date}
		index[date] = i
	}

	for _, tx := range txs {
		if tx == nil {
			continue
		}
		i, ok := index[tx.Date]
		if !ok {
			continue
		}
		switch tx.Type {
		case domain.TypeIncome:
			points[i].Income += tx.Amount
		case domain.TypeExpense:
			points[i].Expense += tx.Amount
		}
	}

	return points
}
