package finance

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dvloznov/finflow/internal/domain"
	"github.com/dvloznov/finflow/internal/entitlement"
	"github.com/dvloznov/finflow/internal/jobs"
	"github.com/dvloznov/finflow/internal/store"
	"github.com/dvloznov/finflow/internal/store/inmemory"
	"github.com/google/uuid"
)

const email = "sari@example.com"

var now = time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC)

type recordingPublisher struct {
	jobs []*jobs.MirrorTransactionJob
}

func (p *recordingPublisher) PublishMirrorTransaction(ctx context.Context, job *jobs.MirrorTransactionJob) error {
	p.jobs = append(p.jobs, job)
	return nil
}

func newService(t *testing.T, startDay int) (*Service, *inmemory.Store, *recordingPublisher) {
	t.Helper()
	repo := inmemory.NewStore()
	if err := repo.SaveUser(context.Background(), &domain.User{Email: email, BillingCycleStartDay: startDay}); err != nil {
		t.Fatalf("SaveUser: %v", err)
	}
	pub := &recordingPublisher{}
	svc := NewService(repo, WithPublisher(pub), WithClock(func() time.Time { return now }))
	return svc, repo, pub
}

func addTx(t *testing.T, repo *inmemory.Store, date string, txType domain.TransactionType, category string, amount float64) *domain.Transaction {
	t.Helper()
	tx := &domain.Transaction{
		ID:        uuid.NewString(),
		UserEmail: email,
		Date:      date,
		CreatedAt: now,
		Amount:    amount,
		Type:      txType,
		Category:  category,
		Source:    domain.SourceText,
	}
	if err := repo.InsertTransaction(context.Background(), tx); err != nil {
		t.Fatalf("InsertTransaction: %v", err)
	}
	return tx
}

func TestService_ProfileCreatesDefaults(t *testing.T) {
	repo := inmemory.NewStore()
	svc := NewService(repo, WithClock(func() time.Time { return now }))

	u, err := svc.Profile(context.Background(), "new@example.com")
	if err != nil {
		t.Fatalf("Profile: %v", err)
	}
	if u.BillingCycleStartDay != domain.DefaultCycleStartDay || u.IsPremium {
		t.Errorf("profile = %+v", u)
	}
	if _, err := repo.GetUser(context.Background(), "new@example.com"); err != nil {
		t.Errorf("profile was not persisted: %v", err)
	}

	if _, err := svc.Profile(context.Background(), " "); !errors.Is(err, store.ErrInvalidInput) {
		t.Errorf("blank email: err = %v", err)
	}
}

func TestService_UpdateProfile(t *testing.T) {
	day := func(d int) *int { return &d }
	tests := []struct {
		name    string
		day     *int
		wantErr bool
	}{
		{"first of month", day(1), false},
		{"end of month", day(31), false},
		{"zero", day(0), true},
		{"too large", day(32), true},
		{"unchanged", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, _ := newService(t, 25)
			name := "Sari"
			u, err := svc.UpdateProfile(context.Background(), email, ProfileUpdate{Name: &name, BillingCycleStartDay: tt.day})
			if tt.wantErr {
				if !errors.Is(err, store.ErrInvalidInput) {
					t.Fatalf("err = %v, want ErrInvalidInput", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("UpdateProfile: %v", err)
			}
			want := 25
			if tt.day != nil {
				want = *tt.day
			}
			if u.BillingCycleStartDay != want || u.Name != "Sari" {
				t.Errorf("profile = %+v", u)
			}
		})
	}
}

func TestService_DashboardCurrentCycle(t *testing.T) {
	svc, repo, _ := newService(t, 25)
	addTx(t, repo, "2025-02-24", domain.TypeExpense, "Food", 100)
	addTx(t, repo, "2025-02-25", domain.TypeIncome, "Salary", 5000000)
	addTx(t, repo, "2025-03-01", domain.TypeExpense, "Food", 200000)
	addTx(t, repo, "2025-03-10", domain.TypeExpense, "Transport", 50000)

	d, err := svc.Dashboard(context.Background(), email, nil)
	if err != nil {
		t.Fatalf("Dashboard: %v", err)
	}

	if d.Range.From != "2025-02-25" || d.Range.To != "2025-03-24" {
		t.Errorf("range = %+v", d.Range)
	}
	if d.Count != 3 {
		t.Errorf("count = %d, want 3", d.Count)
	}
	if d.Summary.TotalIncome != 5000000 || d.Summary.TotalExpense != 250000 || d.Summary.Balance != 4750000 {
		t.Errorf("summary = %+v", d.Summary)
	}
	if d.Summary.SavingsRate != 95 {
		t.Errorf("savings rate = %v, want 95", d.Summary.SavingsRate)
	}
	if len(d.TopExpenses) != 2 || d.TopExpenses[0].Category != "Food" {
		t.Errorf("top expenses = %+v", d.TopExpenses)
	}

	if len(d.Daily) != 31 {
		t.Fatalf("series has %d points, want 31", len(d.Daily))
	}
	last := d.Daily[len(d.Daily)-1]
	if last.Date != "2025-03-10" || last.Expense != 50000 {
		t.Errorf("last point = %+v", last)
	}
	// The series reaches back before the cycle start.
	var before float64
	for _, p := range d.Daily {
		if p.Date == "2025-02-24" {
			before = p.Expense
		}
	}
	if before != 100 {
		t.Errorf("expense on 2025-02-24 = %v, want 100", before)
	}
}

func TestService_DashboardPastPeriodEndsSeriesAtCycleEnd(t *testing.T) {
	svc, repo, _ := newService(t, 1)
	addTx(t, repo, "2025-01-31", domain.TypeExpense, "Bills", 300000)

	d, err := svc.Dashboard(context.Background(), email, &Period{Month: 0, Year: 2025})
	if err != nil {
		t.Fatalf("Dashboard: %v", err)
	}
	if d.Range.From != "2025-01-01" || d.Range.To != "2025-01-31" {
		t.Errorf("range = %+v", d.Range)
	}
	last := d.Daily[len(d.Daily)-1]
	if last.Date != "2025-01-31" || last.Expense != 300000 {
		t.Errorf("last point = %+v", last)
	}
}

func TestService_BudgetStatuses(t *testing.T) {
	svc, repo, _ := newService(t, 1)
	ctx := context.Background()
	addTx(t, repo, "2025-03-02", domain.TypeExpense, "Food", 200000)
	addTx(t, repo, "2025-03-03", domain.TypeExpense, "Transport", 600000)
	addTx(t, repo, "2025-02-27", domain.TypeExpense, "Food", 999999)
	addTx(t, repo, "2025-03-04", domain.TypeIncome, "Food", 1000000)

	if _, err := svc.SaveBudget(ctx, email, "Food", 250000); err != nil {
		t.Fatalf("SaveBudget: %v", err)
	}
	if _, err := svc.SaveBudget(ctx, email, "Transport", 500000); err != nil {
		t.Fatalf("SaveBudget: %v", err)
	}
	if _, err := repo.UpsertBudget(ctx, &domain.Budget{UserEmail: email, Category: "Bills", Amount: 0}); err != nil {
		t.Fatalf("UpsertBudget: %v", err)
	}

	statuses, r, err := svc.BudgetStatuses(ctx, email, nil)
	if err != nil {
		t.Fatalf("BudgetStatuses: %v", err)
	}
	if r.From != "2025-03-01" {
		t.Errorf("range = %+v", r)
	}
	if len(statuses) != 3 {
		t.Fatalf("got %d statuses, want 3", len(statuses))
	}

	want := []struct {
		category string
		pct      float64
		level    domain.BudgetLevel
		invalid  bool
	}{
		{"Transport", 120, domain.LevelDanger, false},
		{"Food", 80, domain.LevelWarning, false},
		{"Bills", 0, domain.LevelSafe, true},
	}
	for i, w := range want {
		st := statuses[i]
		if st.Category != w.category || st.Percentage != w.pct || st.Status != w.level || st.Invalid != w.invalid {
			t.Errorf("status[%d] = %+v, want %+v", i, st, w)
		}
	}
}

func TestService_SaveBudgetValidation(t *testing.T) {
	svc, _, _ := newService(t, 1)
	tests := []struct {
		name     string
		category string
		amount   float64
	}{
		{"blank category", "  ", 100000},
		{"zero amount", "Food", 0},
		{"negative amount", "Food", -5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.SaveBudget(context.Background(), email, tt.category, tt.amount); !errors.Is(err, store.ErrInvalidInput) {
				t.Errorf("err = %v, want ErrInvalidInput", err)
			}
		})
	}
}

func TestService_SaveBudgetReplacesCategory(t *testing.T) {
	svc, _, _ := newService(t, 1)
	ctx := context.Background()
	if _, err := svc.SaveBudget(ctx, email, "Food", 100000); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.SaveBudget(ctx, email, "Food", 400000); err != nil {
		t.Fatal(err)
	}
	budgets, err := svc.ListBudgets(ctx, email)
	if err != nil {
		t.Fatal(err)
	}
	if len(budgets) != 1 || budgets[0].Amount != 400000 {
		t.Errorf("budgets = %+v", budgets)
	}

	if err := svc.DeleteBudget(ctx, email, "", "Food"); err != nil {
		t.Fatalf("DeleteBudget: %v", err)
	}
	if err := svc.DeleteBudget(ctx, email, "", "Food"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("second delete: err = %v, want ErrNotFound", err)
	}
}

func TestService_SuggestBudgetsDefaults(t *testing.T) {
	svc, repo, _ := newService(t, 1)
	addTx(t, repo, "2024-10-01", domain.TypeExpense, "Food", 5000000)

	got, err := svc.SuggestBudgets(context.Background(), email, false)
	if err != nil {
		t.Fatalf("SuggestBudgets: %v", err)
	}
	if len(got) != 5 || got[0].Category != "Food" || got[0].Amount != 1500000 {
		t.Errorf("suggestions = %+v", got)
	}
	budgets, _ := repo.ListBudgets(context.Background(), email)
	if len(budgets) != 0 {
		t.Error("suggestions must not be saved without apply")
	}
}

func TestService_SuggestBudgetsFromHistoryAndApply(t *testing.T) {
	svc, repo, _ := newService(t, 1)
	ctx := context.Background()
	addTx(t, repo, "2025-01-05", domain.TypeExpense, "Food", 400000)
	addTx(t, repo, "2025-02-05", domain.TypeExpense, "Food", 500000)
	addTx(t, repo, "2025-03-01", domain.TypeExpense, "Transport", 30000)
	addTx(t, repo, "2025-03-02", domain.TypeIncome, "Salary", 9000000)

	got, err := svc.SuggestBudgets(ctx, email, true)
	if err != nil {
		t.Fatalf("SuggestBudgets: %v", err)
	}
	// Food: 900000 over 90 days is 300000 a month, +10% rounds to 350000.
	// Transport: 10000 a month rounds up to the 50000 floor.
	want := []domain.BudgetSuggestion{{Category: "Food", Amount: 350000}, {Category: "Transport", Amount: 50000}}
	if len(got) != len(want) {
		t.Fatalf("suggestions = %+v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("suggestion[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}

	budgets, err := repo.ListBudgets(ctx, email)
	if err != nil {
		t.Fatal(err)
	}
	if len(budgets) != 2 || budgets[0].Category != "Food" || budgets[0].Amount != 350000 {
		t.Errorf("applied budgets = %+v", budgets)
	}
}

func TestService_TransactionLifecycle(t *testing.T) {
	svc, repo, pub := newService(t, 1)
	ctx := context.Background()

	tx, err := svc.CreateTransaction(ctx, email, TransactionInput{
		Amount: 75000, Type: domain.TypeExpense, Category: "food", Description: " Bakso ",
	})
	if err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}
	if tx.Date != "2025-03-10" || tx.Category != "Food" || tx.Description != "Bakso" || tx.Source != domain.SourceText {
		t.Errorf("created = %+v", tx)
	}

	amount := 80000.0
	category := "Entertainment"
	updated, err := svc.UpdateTransaction(ctx, email, TransactionPatch{ID: tx.ID, Amount: &amount, Category: &category})
	if err != nil {
		t.Fatalf("UpdateTransaction: %v", err)
	}
	if updated.Amount != 80000 || updated.Category != "Entertainment" || updated.Description != "Bakso" {
		t.Errorf("updated = %+v", updated)
	}
	stored, _ := repo.GetTransaction(ctx, email, tx.ID)
	if stored.Amount != 80000 {
		t.Errorf("stored amount = %v", stored.Amount)
	}

	if err := svc.DeleteTransaction(ctx, email, tx.ID); err != nil {
		t.Fatalf("DeleteTransaction: %v", err)
	}
	if _, err := svc.GetTransaction(ctx, email, tx.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("after delete: err = %v, want ErrNotFound", err)
	}

	actions := make([]jobs.MirrorAction, 0, len(pub.jobs))
	for _, j := range pub.jobs {
		actions = append(actions, j.Action)
	}
	if len(actions) != 3 || actions[0] != jobs.MirrorUpsert || actions[1] != jobs.MirrorUpsert || actions[2] != jobs.MirrorArchive {
		t.Errorf("mirror actions = %v", actions)
	}
}

func TestService_TransactionValidation(t *testing.T) {
	svc, repo, _ := newService(t, 1)
	ctx := context.Background()
	existing := addTx(t, repo, "2025-03-01", domain.TypeExpense, "Food", 1000)

	badDate := "03/01/2025"
	badType := domain.TransactionType("transfer")
	tests := []struct {
		name string
		run  func() error
	}{
		{"negative amount", func() error {
			_, err := svc.CreateTransaction(ctx, email, TransactionInput{Amount: -1, Type: domain.TypeExpense})
			return err
		}},
		{"unknown type", func() error {
			_, err := svc.CreateTransaction(ctx, email, TransactionInput{Amount: 1, Type: badType})
			return err
		}},
		{"bad date on update", func() error {
			_, err := svc.UpdateTransaction(ctx, email, TransactionPatch{ID: existing.ID, Date: &badDate})
			return err
		}},
		{"non uuid id", func() error {
			_, err := svc.UpdateTransaction(ctx, email, TransactionPatch{ID: "1; DROP TABLE"})
			return err
		}},
		{"missing id on delete", func() error {
			return svc.DeleteTransaction(ctx, email, "")
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.run(); !errors.Is(err, store.ErrInvalidInput) {
				t.Errorf("err = %v, want ErrInvalidInput", err)
			}
		})
	}
}

func TestService_ListTransactionsByPeriod(t *testing.T) {
	svc, repo, _ := newService(t, 15)
	addTx(t, repo, "2025-01-14", domain.TypeExpense, "Food", 1)
	addTx(t, repo, "2025-01-15", domain.TypeExpense, "Food", 2)
	addTx(t, repo, "2025-02-14", domain.TypeExpense, "Food", 3)
	addTx(t, repo, "2025-02-15", domain.TypeExpense, "Food", 4)

	page, err := svc.ListTransactions(context.Background(), store.TransactionFilter{UserEmail: email, From: "ignored"}, &Period{Month: 0, Year: 2025})
	if err != nil {
		t.Fatalf("ListTransactions: %v", err)
	}
	if page.Total != 2 {
		t.Fatalf("total = %d, want 2", page.Total)
	}
	for _, tx := range page.Transactions {
		if tx.Date < "2025-01-15" || tx.Date > "2025-02-14" {
			t.Errorf("transaction %s outside the cycle", tx.Date)
		}
	}

	if _, err := svc.ListTransactions(context.Background(), store.TransactionFilter{UserEmail: email, To: "tomorrow"}, nil); !errors.Is(err, store.ErrInvalidInput) {
		t.Errorf("bad to date: err = %v", err)
	}
}

func TestService_Usage(t *testing.T) {
	svc, repo, _ := newService(t, 1)
	repo.SetAppConfig(entitlement.KeyImageLimit, "5")
	for i := 0; i < 2; i++ {
		tx := addTx(t, repo, "2025-03-10", domain.TypeExpense, "Food", 1000)
		tx.Source = domain.SourceImage
		if err := repo.UpdateTransaction(context.Background(), tx); err != nil {
			t.Fatal(err)
		}
	}
	yesterday := addTx(t, repo, "2025-03-09", domain.TypeExpense, "Food", 1000)
	yesterday.Source = domain.SourceAudio
	if err := repo.UpdateTransaction(context.Background(), yesterday); err != nil {
		t.Fatal(err)
	}

	u, err := svc.Usage(context.Background(), email)
	if err != nil {
		t.Fatalf("Usage: %v", err)
	}
	if u.Date != "2025-03-10" || u.Image != 2 || u.Audio != 0 || u.IsPremium {
		t.Errorf("usage = %+v", u)
	}
	if u.Limits != (entitlement.Limits{Image: 5, Audio: entitlement.DefaultAudioLimit}) {
		t.Errorf("limits = %+v", u.Limits)
	}
}

func TestService_SubmitFeedback(t *testing.T) {
	svc, repo, _ := newService(t, 1)
	ctx := context.Background()
	four, six := 4, 6

	if _, err := svc.SubmitFeedback(ctx, email, "  ", nil); !errors.Is(err, store.ErrInvalidInput) {
		t.Errorf("empty message: err = %v", err)
	}
	if _, err := svc.SubmitFeedback(ctx, email, "mantap", &six); !errors.Is(err, store.ErrInvalidInput) {
		t.Errorf("rating 6: err = %v", err)
	}
	if _, err := svc.SubmitFeedback(ctx, email, "mantap", &four); err != nil {
		t.Fatalf("SubmitFeedback: %v", err)
	}
	if fb := repo.Feedback(); len(fb) != 1 || fb[0].Message != "mantap" || *fb[0].Rating != 4 {
		t.Errorf("stored feedback = %+v", fb)
	}
}

func TestService_UsageCountsUTCDay(t *testing.T) {
	repo := inmemory.NewStore()
	// 05:00 on the 11th in Jakarta is 22:00 on the 10th in UTC.
	jakarta := time.Date(2025, 3, 11, 5, 0, 0, 0, time.FixedZone("WIB", 7*60*60))
	svc := NewService(repo, WithClock(func() time.Time { return jakarta }))

	tx := addTx(t, repo, "2025-03-10", domain.TypeExpense, "Food", 1000)
	tx.Source = domain.SourceAudio
	if err := repo.UpdateTransaction(context.Background(), tx); err != nil {
		t.Fatal(err)
	}

	u, err := svc.Usage(context.Background(), email)
	if err != nil {
		t.Fatalf("Usage: %v", err)
	}
	if u.Date != "2025-03-10" || u.Audio != 1 {
		t.Errorf("usage = %+v, want the UTC day 2025-03-10 with one audio entry", u)
	}
}

func TestService_SuggestBudgetsHistorySpans90Days(t *testing.T) {
	tests := []struct {
		name        string
		date        string
		wantHistory bool
	}{
		{name: "first day of the window", date: "2024-12-11", wantHistory: true},
		{name: "day before the window", date: "2024-12-10", wantHistory: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo, _ := newService(t, 1)
			addTx(t, repo, tt.date, domain.TypeExpense, "Shopping", 300000)

			got, err := svc.SuggestBudgets(context.Background(), email, false)
			if err != nil {
				t.Fatalf("SuggestBudgets: %v", err)
			}
			usedHistory := len(got) == 1 && got[0].Category == "Shopping"
			if usedHistory != tt.wantHistory {
				t.Errorf("suggestions = %+v, want history used: %v", got, tt.wantHistory)
			}
		})
	}
}
