package sqlite

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dvloznov/finflow/internal/domain"
)

// transactionModel stores dates as YYYY-MM-DD text so range filters compare lexically.
type transactionModel struct {
	ID          string    `gorm:"primaryKey;size:36"`
	UserEmail   string    `gorm:"size:255;not null;index:idx_tx_user_date;index:idx_tx_usage"`
	Date        string    `gorm:"size:10;not null;index:idx_tx_user_date;index:idx_tx_usage"`
	Source      string    `gorm:"size:8;not null;index:idx_tx_usage"`
	Type        string    `gorm:"size:8;not null"`
	Amount      float64   `gorm:"not null"`
	Category    string    `gorm:"size:64"`
	Description string    `gorm:"size:512"`
	ItemsJSON   string    `gorm:"column:items"`
	Tax         *float64
	Discount    *float64
	ReceiptURI  string    `gorm:"size:512"`
	CreatedAt   time.Time `gorm:"not null"`
}

func (transactionModel) TableName() string { return "transactions" }

type budgetModel struct {
	ID        string  `gorm:"primaryKey;size:36"`
	UserEmail string  `gorm:"size:255;not null;uniqueIndex:idx_budget_user_category"`
	Category  string  `gorm:"size:64;not null;uniqueIndex:idx_budget_user_category"`
	Amount    float64 `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (budgetModel) TableName() string { return "budgets" }

type userModel struct {
	Email                string `gorm:"primaryKey;size:255"`
	Name                 string `gorm:"size:255"`
	IsPremium            bool   `gorm:"not null;default:false"`
	BillingCycleStartDay int    `gorm:"not null;default:1"`
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

func (userModel) TableName() string { return "users" }

type appConfigModel struct {
	Key   string `gorm:"primaryKey;size:64"`
	Value string `gorm:"size:255;not null"`
}

func (appConfigModel) TableName() string { return "app_configs" }

type feedbackModel struct {
	ID        string `gorm:"primaryKey;size:36"`
	UserEmail string `gorm:"size:255;not null;index"`
	Message   string `gorm:"not null"`
	Rating    *int
	CreatedAt time.Time
}

func (feedbackModel) TableName() string { return "feedback" }

func toTransactionModel(tx *domain.Transaction) (*transactionModel, error) {
	m := &transactionModel{
		ID:          tx.ID,
		UserEmail:   tx.UserEmail,
		Date:        tx.Date,
		Source:      string(tx.Source),
		Type:        string(tx.Type),
		Amount:      tx.Amount,
		Category:    tx.Category,
		Description: tx.Description,
		Tax:         tx.Tax,
		Discount:    tx.Discount,
		ReceiptURI:  tx.ReceiptURI,
		CreatedAt:   tx.CreatedAt,
	}
	if len(tx.Items) > 0 {
		data, err := json.Marshal(tx.Items)
		if err != nil {
			return nil, fmt.Errorf("toTransactionModel: marshaling items: %w", err)
		}
		m.ItemsJSON = string(data)
	}
	return m, nil
}

func (m *transactionModel) toDomain() (*domain.Transaction, error) {
	tx := &domain.Transaction{
		ID:          m.ID,
		UserEmail:   m.UserEmail,
		Date:        m.Date,
		CreatedAt:   m.CreatedAt,
		Amount:      m.Amount,
		Type:        domain.TransactionType(m.Type),
		Category:    m.Category,
		Description: m.Description,
		Source:      domain.Source(m.Source),
		Tax:         m.Tax,
		Discount:    m.Discount,
		ReceiptURI:  m.ReceiptURI,
	}
	if m.ItemsJSON != "" {
		if err := json.Unmarshal([]byte(m.ItemsJSON), &tx.Items); err != nil {
			return nil, fmt.Errorf("decoding items of %s: %w", m.ID, err)
		}
	}
	return tx, nil
}

func (m *budgetModel) toDomain() *domain.Budget {
	return &domain.Budget{
		ID:        m.ID,
		UserEmail: m.UserEmail,
		Category:  m.Category,
		Amount:    m.Amount,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}
