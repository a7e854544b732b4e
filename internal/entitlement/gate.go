// Package entitlement decides whether a free user may run another AI-assisted
// submission today.
package entitlement

import (
	"fmt"

	"github.com/dvloznov/finflow/internal/domain"
)

// Supported message locales.
const (
	LocaleID = "id"
	LocaleEN = "en"
)

// Decision is the outcome of a limit check.
type Decision struct {
	Allowed        bool   `json:"allowed"`
	IsLimitReached bool   `json:"isLimitReached"`
	Message        string `json:"message,omitempty"`
	Limit          int    `json:"limit,omitempty"`
	Used           int    `json:"used"`
}

// Check evaluates the daily cap for one submission.
// Premium users and text submissions are always allowed.
func Check(isPremium bool, source domain.Source, countToday int, limits Limits, locale string) Decision {
	if isPremium {
		return Decision{Allowed: true, Used: countToday}
	}

	limit, counted := limits.For(source)
	if !counted {
		return Decision{Allowed: true, Used: countToday}
	}

	if countToday >= limit {
		return Decision{
			Allowed:        false,
			IsLimitReached: true,
			Message:        denyMessage(source, limit, locale),
			Limit:          limit,
			Used:           countToday,
		}
	}

	return Decision{Allowed: true, Limit: limit, Used: countToday}
}

// NormalizeLocale maps any request locale onto a supported one, defaulting to Indonesian.
func NormalizeLocale(locale string) string {
	if locale == LocaleEN {
		return LocaleEN
	}
	return LocaleID
}

func denyMessage(source domain.Source, limit int, locale string) string {
	en := NormalizeLocale(locale) == LocaleEN
	switch source {
	case domain.SourceImage:
		if en {
			return fmt.Sprintf("Daily receipt scanning limit reached (%d/%d). Upgrade to Premium for unlimited scans!", limit, limit)
		}
		return fmt.Sprintf("Batas harian scan struk telah tercapai (%d/%d). Upgrade ke Premium untuk scan tanpa batas!", limit, limit)
	default:
		if en {
			return fmt.Sprintf("Daily voice input limit reached (%d/%d). Upgrade to Premium for unlimited voice recording!", limit, limit)
		}
		return fmt.Sprintf("Batas harian input suara telah tercapai (%d/%d). Upgrade ke Premium untuk input suara tanpa batas!", limit, limit)
	}
}

// BusyMessage is returned when the AI provider rejects a call for quota or rate reasons.
func BusyMessage(locale string) string {
	if NormalizeLocale(locale) == LocaleEN {
		return "AI service is busy or quota exceeded. Please try again later."
	}
	return "Layanan AI sedang sibuk atau limit kuota tercapai. Silakan coba lagi nanti."
}
