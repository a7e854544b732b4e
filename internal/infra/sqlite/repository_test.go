package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/dvloznov/finflow/internal/domain"
	"github.com/dvloznov/finflow/internal/entitlement"
	"github.com/dvloznov/finflow/internal/store"
)

const email = "dewi@example.com"

func setupTestDB(t *testing.T) *Repository {
	t.Helper()
	repo, err := Open(filepath.Join(t.TempDir(), "finflow.db"), false)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestRepository_SeedsLimits(t *testing.T) {
	repo := setupTestDB(t)

	cfg, err := repo.ListAppConfig(context.Background())
	if err != nil {
		t.Fatalf("ListAppConfig: %v", err)
	}
	limits := entitlement.ParseLimits(cfg)
	if limits != entitlement.DefaultLimits() {
		t.Errorf("limits = %+v, want defaults", limits)
	}

	if err := repo.SetAppConfig(context.Background(), entitlement.KeyImageLimit, "7"); err != nil {
		t.Fatalf("SetAppConfig: %v", err)
	}
	cfg, _ = repo.ListAppConfig(context.Background())
	if cfg[entitlement.KeyImageLimit] != "7" {
		t.Errorf("image limit = %q, want 7", cfg[entitlement.KeyImageLimit])
	}
}

func TestRepository_Transactions(t *testing.T) {
	ctx := context.Background()
	repo := setupTestDB(t)
	now := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)

	txs := []*domain.Transaction{
		{ID: "11111111-1111-1111-1111-111111111111", Date: "2025-04-28", Amount: 15000, Type: domain.TypeExpense, Category: "Food", Description: "Es teh", Source: domain.SourceText},
		{ID: "22222222-2222-2222-2222-222222222222", Date: "2025-05-01", Amount: 90000, Type: domain.TypeExpense, Category: "Transport", Description: "Bensin", Source: domain.SourceImage,
			Items: []domain.LineItem{{Name: "Pertalite", Quantity: 9, Price: 10000}}},
		{ID: "33333333-3333-3333-3333-333333333333", Date: "2025-05-01", Amount: 5000000, Type: domain.TypeIncome, Category: "Salary", Source: domain.SourceAudio},
	}
	for i, tx := range txs {
		tx.UserEmail = email
		tx.CreatedAt = now.Add(time.Duration(i) * time.Minute)
		if err := repo.InsertTransaction(ctx, tx); err != nil {
			t.Fatalf("InsertTransaction: %v", err)
		}
	}

	n, err := repo.CountTransactions(ctx, email, domain.SourceImage, "2025-05-01")
	if err != nil || n != 1 {
		t.Errorf("CountTransactions = %d, %v; want 1", n, err)
	}

	page, err := repo.ListTransactions(ctx, store.TransactionFilter{UserEmail: email, From: "2025-05-01", To: "2025-05-31"})
	if err != nil {
		t.Fatalf("ListTransactions: %v", err)
	}
	if page.Total != 2 || len(page.Transactions) != 2 {
		t.Fatalf("page = %+v", page)
	}
	if page.Transactions[0].ID != txs[2].ID {
		t.Errorf("newest first expected, got %s", page.Transactions[0].ID)
	}

	page, _ = repo.ListTransactions(ctx, store.TransactionFilter{UserEmail: email, Search: "bens"})
	if page.Total != 1 || len(page.Transactions[0].Items) != 1 {
		t.Errorf("search result = %+v", page.Transactions)
	}

	got, err := repo.GetTransaction(ctx, email, txs[0].ID)
	if err != nil {
		t.Fatalf("GetTransaction: %v", err)
	}
	got.Amount = 18000
	got.Category = "Drinks"
	if err := repo.UpdateTransaction(ctx, got); err != nil {
		t.Fatalf("UpdateTransaction: %v", err)
	}
	got, _ = repo.GetTransaction(ctx, email, txs[0].ID)
	if got.Amount != 18000 || got.Category != "Drinks" {
		t.Errorf("update not applied: %+v", got)
	}

	foreign := *got
	foreign.UserEmail = "intruder@example.com"
	if err := repo.UpdateTransaction(ctx, &foreign); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("foreign update err = %v, want ErrNotFound", err)
	}

	if err := repo.DeleteTransaction(ctx, email, txs[0].ID); err != nil {
		t.Fatalf("DeleteTransaction: %v", err)
	}
	if _, err := repo.GetTransaction(ctx, email, txs[0].ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("get after delete err = %v, want ErrNotFound", err)
	}
}

func TestRepository_Budgets(t *testing.T) {
	ctx := context.Background()
	repo := setupTestDB(t)

	first, err := repo.UpsertBudget(ctx, &domain.Budget{UserEmail: email, Category: "Food", Amount: 1000000})
	if err != nil {
		t.Fatalf("UpsertBudget: %v", err)
	}
	second, err := repo.UpsertBudget(ctx, &domain.Budget{UserEmail: email, Category: "Food", Amount: 1200000})
	if err != nil {
		t.Fatalf("UpsertBudget: %v", err)
	}
	if second.ID != first.ID || second.Amount != 1200000 {
		t.Errorf("upsert = %+v, want same id with new amount", second)
	}

	list, _ := repo.ListBudgets(ctx, email)
	if len(list) != 1 {
		t.Fatalf("ListBudgets returned %d rows", len(list))
	}

	if err := repo.DeleteBudget(ctx, email, "", "Food"); err != nil {
		t.Fatalf("DeleteBudget: %v", err)
	}
	if err := repo.DeleteBudget(ctx, email, "", "Food"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("second delete err = %v, want ErrNotFound", err)
	}
}

func TestRepository_UsersAndFeedback(t *testing.T) {
	ctx := context.Background()
	repo := setupTestDB(t)

	if _, err := repo.GetUser(ctx, email); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("GetUser err = %v, want ErrNotFound", err)
	}
	if err := repo.SaveUser(ctx, &domain.User{Email: email, BillingCycleStartDay: 25}); err != nil {
		t.Fatalf("SaveUser: %v", err)
	}
	if err := repo.SaveUser(ctx, &domain.User{Email: email, IsPremium: true, BillingCycleStartDay: 25}); err != nil {
		t.Fatalf("SaveUser (update): %v", err)
	}
	u, err := repo.GetUser(ctx, email)
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if !u.IsPremium || u.BillingCycleStartDay != 25 {
		t.Errorf("user = %+v", u)
	}

	rating := 5
	if err := repo.InsertFeedback(ctx, &domain.Feedback{ID: "f1", UserEmail: email, Message: "Mantap", Rating: &rating, CreatedAt: time.Now()}); err != nil {
		t.Errorf("InsertFeedback: %v", err)
	}
}
