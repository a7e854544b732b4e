package finance

import (
	"context"
	"fmt"
	"time"

	"github.com/dvloznov/finflow/internal/analytics"
	"github.com/dvloznov/finflow/internal/billing"
	"github.com/dvloznov/finflow/internal/domain"
	"golang.org/x/sync/errgroup"
)

// Dashboard is everything the dashboard page shows for one billing cycle.
type Dashboard struct {
	Range       billing.Range          `json:"range"`
	Summary     analytics.Summary      `json:"summary"`
	Daily       []analytics.DailyPoint `json:"daily"`
	TopExpenses []*domain.Transaction  `json:"topExpenses"`
	Count       int                    `json:"count"`
}

// Dashboard aggregates the cycle selected by period. The activity series covers the
// trailing 31 days ending today, or ending on the cycle's last day for past cycles.
func (s *Service) Dashboard(ctx context.Context, email string, period *Period) (*Dashboard, error) {
	r, err := s.CycleRange(ctx, email, period)
	if err != nil {
		return nil, fmt.Errorf("Dashboard: %w", err)
	}

	end := s.now()
	if last, err := time.Parse(domain.DateLayout, r.To); err == nil && domain.FormatDate(end) > r.To {
		end = last
	}
	seriesStart := domain.FormatDate(end.AddDate(0, 0, -(analytics.DefaultSeriesDays - 1)))

	// The series window can reach back before the cycle, so it is fetched separately.
	var cycleTxs, seriesTxs []*domain.Transaction
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		txs, err := s.transactionsIn(gctx, email, r, "")
		cycleTxs = txs
		return err
	})
	g.Go(func() error {
		txs, err := s.transactionsIn(gctx, email, billing.Range{From: seriesStart, To: domain.FormatDate(end)}, "")
		seriesTxs = txs
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("Dashboard: %w", err)
	}

	return &Dashboard{
		Range:       r,
		Summary:     analytics.Aggregate(cycleTxs),
		Daily:       analytics.DailySeries(seriesTxs, end, analytics.DefaultSeriesDays),
		TopExpenses: analytics.TopExpenses(cycleTxs, analytics.DefaultTopExpenses),
		Count:       len(cycleTxs),
	}, nil
}

// Report is the data behind the spreadsheet and PDF exports.
type Report struct {
	UserEmail    string                `json:"userEmail"`
	Range        billing.Range         `json:"range"`
	Summary      analytics.Summary     `json:"summary"`
	TopExpenses  []*domain.Transaction `json:"topExpenses"`
	Transactions []*domain.Transaction `json:"transactions"`
	GeneratedAt  time.Time             `json:"generatedAt"`
}

// Report collects every transaction in r, or in the cycle of period when r is empty.
func (s *Service) Report(ctx context.Context, email string, r billing.Range, period *Period) (*Report, error) {
	if r.From == "" || r.To == "" {
		cycle, err := s.CycleRange(ctx, email, period)
		if err != nil {
			return nil, fmt.Errorf("Report: %w", err)
		}
		r = cycle
	}

	txs, err := s.transactionsIn(ctx, email, r, "")
	if err != nil {
		return nil, fmt.Errorf("Report: %w", err)
	}
	return &Report{
		UserEmail:    email,
		Range:        r,
		Summary:      analytics.Aggregate(txs),
		TopExpenses:  analytics.TopExpenses(txs, analytics.DefaultTopExpenses),
		Transactions: txs,
		GeneratedAt:  s.now(),
	}, nil
}
