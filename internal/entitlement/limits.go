package entitlement

import (
	"strconv"
	"strings"

	"github.com/dvloznov/finflow/internal/domain"
)

// Config keys read from the app_configs table.
const (
	KeyImageLimit = "free_image_limit"
	KeyAudioLimit = "free_voice_limit"
)

// Default daily caps for free users.
const (
	DefaultImageLimit = 3
	DefaultAudioLimit = 10
)

// Limits holds the daily caps per counted source.
type Limits struct {
	Image int `json:"image"`
	Audio int `json:"audio"`
}

// DefaultLimits returns the caps used when nothing is configured.
func DefaultLimits() Limits {
	return Limits{Image: DefaultImageLimit, Audio: DefaultAudioLimit}
}

// For returns the cap for source. ok is false for sources that are not counted.
func (l Limits) For(source domain.Source) (limit int, ok bool) {
	switch source {
	case domain.SourceImage:
		return l.Image, true
	case domain.SourceAudio:
		return l.Audio, true
	default:
		return 0, false
	}
}

// ParseLimits reads the caps out of the key-value config.
// Missing keys and values that are not non-negative integers fall back to the defaults.
func ParseLimits(config map[string]string) Limits {
	limits := DefaultLimits()
	if v, ok := parseLimit(config[KeyImageLimit]); ok {
		limits.Image = v
	}
	if v, ok := parseLimit(config[KeyAudioLimit]); ok {
		limits.Audio = v
	}
	return limits
}

func parseLimit(raw string) (int, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
