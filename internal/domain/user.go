package domain

import "time"

// DefaultCycleStartDay is the billing-cycle start used when a user never set one.
const DefaultCycleStartDay = 1

// User holds entitlement and preference data keyed by email.
type User struct {
	Email                string    `json:"email"`
	Name                 string    `json:"name,omitempty"`
	IsPremium            bool      `json:"is_premium"`
	BillingCycleStartDay int       `json:"billing_cycle_start_day"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// CycleStartDay returns the configured start day, defaulting to 1 when unset or out of range.
func (u *User) CycleStartDay() int {
	if u == nil || u.BillingCycleStartDay < 1 || u.BillingCycleStartDay > 31 {
		return DefaultCycleStartDay
	}
	return u.BillingCycleStartDay
}

// Feedback is a free-form message left by a user.
type Feedback struct {
	ID        string    `json:"id"`
	UserEmail string    `json:"user_email"`
	Message   string    `json:"message"`
	Rating    *int      `json:"rating,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
