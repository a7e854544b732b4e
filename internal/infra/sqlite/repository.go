package sqlite

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dvloznov/finflow/internal/domain"
	"github.com/dvloznov/finflow/internal/store"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository is the gorm implementation of store.Repository.
type Repository struct {
	db *gorm.DB
}

// NewRepository wraps an already migrated connection.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Close closes the underlying connection pool.
func (r *Repository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("Close: %w", err)
	}
	return sqlDB.Close()
}

// InsertTransaction implements store.TransactionRepository.
func (r *Repository) InsertTransaction(ctx context.Context, tx *domain.Transaction) error {
	m, err := toTransactionModel(tx)
	if err != nil {
		return fmt.Errorf("InsertTransaction: %w", err)
	}
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return fmt.Errorf("InsertTransaction: %w", err)
	}
	return nil
}

// UpdateTransaction implements store.TransactionRepository.
func (r *Repository) UpdateTransaction(ctx context.Context, tx *domain.Transaction) error {
	m, err := toTransactionModel(tx)
	if err != nil {
		return fmt.Errorf("UpdateTransaction: %w", err)
	}

	res := r.db.WithContext(ctx).
		Model(&transactionModel{}).
		Where("id = ? AND user_email = ?", tx.ID, tx.UserEmail).
		Updates(map[string]interface{}{
			"date":        m.Date,
			"source":      m.Source,
			"type":        m.Type,
			"amount":      m.Amount,
			"category":    m.Category,
			"description": m.Description,
			"items":       m.ItemsJSON,
			"tax":         m.Tax,
			"discount":    m.Discount,
			"receipt_uri": m.ReceiptURI,
		})
	if res.Error != nil {
		return fmt.Errorf("UpdateTransaction: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("UpdateTransaction: %s: %w", tx.ID, store.ErrNotFound)
	}
	return nil
}

// DeleteTransaction implements store.TransactionRepository.
func (r *Repository) DeleteTransaction(ctx context.Context, userEmail, id string) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND user_email = ?", id, userEmail).
		Delete(&transactionModel{})
	if res.Error != nil {
		return fmt.Errorf("DeleteTransaction: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("DeleteTransaction: %s: %w", id, store.ErrNotFound)
	}
	return nil
}

// GetTransaction implements store.TransactionRepository.
func (r *Repository) GetTransaction(ctx context.Context, userEmail, id string) (*domain.Transaction, error) {
	var m transactionModel
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_email = ?", id, userEmail).
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("GetTransaction: %s: %w", id, store.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("GetTransaction: %w", err)
	}
	return m.toDomain()
}

// ListTransactions implements store.TransactionRepository.
func (r *Repository) ListTransactions(ctx context.Context, filter store.TransactionFilter) (*store.TransactionPage, error) {
	filter = filter.Normalize()
	if filter.UserEmail == "" {
		return nil, fmt.Errorf("ListTransactions: user email is required: %w", store.ErrInvalidInput)
	}

	var total int64
	countQ := applyFilter(r.db.WithContext(ctx).Model(&transactionModel{}), filter)
	if err := countQ.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("ListTransactions: count: %w", err)
	}

	q := applyFilter(r.db.WithContext(ctx).Model(&transactionModel{}), filter)
	dir := "DESC"
	if filter.Ascending {
		dir = "ASC"
	}
	if filter.SortBy == store.SortByAmount {
		q = q.Order("amount " + dir)
	}
	q = q.Order("date " + dir).Order("created_at " + dir)
	if !filter.Unpaged {
		q = q.Limit(filter.Limit).Offset(filter.Offset())
	}

	var rows []transactionModel
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("ListTransactions: find: %w", err)
	}

	txs := make([]*domain.Transaction, 0, len(rows))
	for i := range rows {
		tx, err := rows[i].toDomain()
		if err != nil {
			return nil, fmt.Errorf("ListTransactions: %w", err)
		}
		txs = append(txs, tx)
	}

	page := &store.TransactionPage{
		Transactions: txs,
		Total:        int(total),
		Page:         filter.Page,
		Limit:        filter.Limit,
	}
	if filter.Unpaged {
		page.Page, page.Limit = 1, len(txs)
	}
	return page, nil
}

func applyFilter(q *gorm.DB, f store.TransactionFilter) *gorm.DB {
	q = q.Where("user_email = ?", f.UserEmail)
	if f.Type != "" {
		q = q.Where("type = ?", string(f.Type))
	}
	if f.Category != "" {
		q = q.Where("LOWER(category) = LOWER(?)", f.Category)
	}
	if f.Source != "" {
		q = q.Where("source = ?", string(f.Source))
	}
	if f.From != "" {
		q = q.Where("date >= ?", f.From)
	}
	if f.To != "" {
		q = q.Where("date <= ?", f.To)
	}
	if f.Search != "" {
		pattern := "%" + strings.ToLower(f.Search) + "%"
		q = q.Where("(LOWER(description) LIKE ? OR LOWER(category) LIKE ?)", pattern, pattern)
	}
	return q
}

// CountTransactions implements store.TransactionRepository.
func (r *Repository) CountTransactions(ctx context.Context, userEmail string, source domain.Source, date string) (int, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&transactionModel{}).
		Where("user_email = ? AND source = ? AND date = ?", userEmail, string(source), date).
		Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("CountTransactions: %w", err)
	}
	return int(n), nil
}

// ListBudgets implements store.BudgetRepository.
func (r *Repository) ListBudgets(ctx context.Context, userEmail string) ([]*domain.Budget, error) {
	var rows []budgetModel
	err := r.db.WithContext(ctx).
		Where("user_email = ?", userEmail).
		Order("category").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("ListBudgets: %w", err)
	}

	out := make([]*domain.Budget, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toDomain())
	}
	return out, nil
}

// UpsertBudget implements store.BudgetRepository.
func (r *Repository) UpsertBudget(ctx context.Context, b *domain.Budget) (*domain.Budget, error) {
	now := time.Now().UTC()
	m := budgetModel{
		ID:        b.ID,
		UserEmail: b.UserEmail,
		Category:  b.Category,
		Amount:    b.Amount,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if m.ID == "" {
		m.ID = uuid.NewString()
	}

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_email"}, {Name: "category"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"amount":     b.Amount,
			"updated_at": now,
		}),
	}).Create(&m).Error
	if err != nil {
		return nil, fmt.Errorf("UpsertBudget: %w", err)
	}

	var stored budgetModel
	err = r.db.WithContext(ctx).
		Where("user_email = ? AND category = ?", b.UserEmail, b.Category).
		First(&stored).Error
	if err != nil {
		return nil, fmt.Errorf("UpsertBudget: reading back: %w", err)
	}
	return stored.toDomain(), nil
}

// DeleteBudget implements store.BudgetRepository.
func (r *Repository) DeleteBudget(ctx context.Context, userEmail, id, category string) error {
	q := r.db.WithContext(ctx).Where("user_email = ?", userEmail)
	switch {
	case id != "":
		q = q.Where("id = ?", id)
	case category != "":
		q = q.Where("category = ?", category)
	default:
		return fmt.Errorf("DeleteBudget: id or category required: %w", store.ErrInvalidInput)
	}

	res := q.Delete(&budgetModel{})
	if res.Error != nil {
		return fmt.Errorf("DeleteBudget: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("DeleteBudget: %w", store.ErrNotFound)
	}
	return nil
}

// ListAppConfig implements store.ConfigRepository.
func (r *Repository) ListAppConfig(ctx context.Context) (map[string]string, error) {
	var rows []appConfigModel
	if err := r.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("ListAppConfig: %w", err)
	}
	out := make(map[string]string, len(rows))
	for _, row := range rows {
		out[row.Key] = row.Value
	}
	return out, nil
}

// SetAppConfig writes one app_configs entry. Used by the CLI.
func (r *Repository) SetAppConfig(ctx context.Context, key, value string) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(&appConfigModel{Key: key, Value: value}).Error
	if err != nil {
		return fmt.Errorf("SetAppConfig: %w", err)
	}
	return nil
}

// GetUser implements store.UserRepository.
func (r *Repository) GetUser(ctx context.Context, email string) (*domain.User, error) {
	var m userModel
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("GetUser: %s: %w", email, store.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("GetUser: %w", err)
	}
	return &domain.User{
		Email:                m.Email,
		Name:                 m.Name,
		IsPremium:            m.IsPremium,
		BillingCycleStartDay: m.BillingCycleStartDay,
		CreatedAt:            m.CreatedAt,
		UpdatedAt:            m.UpdatedAt,
	}, nil
}

// SaveUser implements store.UserRepository.
func (r *Repository) SaveUser(ctx context.Context, u *domain.User) error {
	m := userModel{
		Email:                u.Email,
		Name:                 u.Name,
		IsPremium:            u.IsPremium,
		BillingCycleStartDay: u.CycleStartDay(),
		CreatedAt:            u.CreatedAt,
		UpdatedAt:            time.Now().UTC(),
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = m.UpdatedAt
	}

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "email"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "is_premium", "billing_cycle_start_day", "updated_at"}),
	}).Create(&m).Error
	if err != nil {
		return fmt.Errorf("SaveUser: %w", err)
	}
	return nil
}

// InsertFeedback implements store.FeedbackRepository.
func (r *Repository) InsertFeedback(ctx context.Context, f *domain.Feedback) error {
	m := feedbackModel{
		ID:        f.ID,
		UserEmail: f.UserEmail,
		Message:   f.Message,
		Rating:    f.Rating,
		CreatedAt: f.CreatedAt,
	}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return fmt.Errorf("InsertFeedback: %w", err)
	}
	return nil
}

// Ensure Repository implements the Repository interface.
var _ store.Repository = (*Repository)(nil)
