package domain

import "time"

// Budget is a monthly spending limit for one category.
// At most one budget exists per (user, category).
type Budget struct {
	ID        string    `json:"id"`
	UserEmail string    `json:"user_email"`
	Category  string    `json:"category"`
	Amount    float64   `json:"amount"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BudgetLevel classifies how close spending is to the limit.
type BudgetLevel string

const (
	LevelSafe    BudgetLevel = "safe"
	LevelWarning BudgetLevel = "warning"
	LevelDanger  BudgetLevel = "danger"
)

// BudgetStatus is a computed view of a budget against current spending.
// It is never stored.
type BudgetStatus struct {
	Category   string      `json:"category"`
	Limit      float64     `json:"limit"`
	Spent      float64     `json:"spent"`
	Percentage float64     `json:"percentage"`
	Status     BudgetLevel `json:"status"`
	// Invalid is set when the stored limit is zero or negative.
	Invalid bool `json:"invalid,omitempty"`
}

// BudgetSuggestion is a proposed budget that has not been saved yet.
type BudgetSuggestion struct {
	Category string  `json:"category"`
	Amount   float64 `json:"amount"`
}
