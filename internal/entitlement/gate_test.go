package entitlement

import (
	"strings"
	"testing"

	"github.com/dvloznov/finflow/internal/domain"
)

func TestCheck(t *testing.T) {
	limits := Limits{Image: 3, Audio: 10}

	tests := []struct {
		name        string
		premium     bool
		source      domain.Source
		count       int
		wantAllowed bool
	}{
		{"free image below limit", false, domain.SourceImage, 2, true},
		{"free image at limit", false, domain.SourceImage, 3, false},
		{"free image above limit", false, domain.SourceImage, 7, false},
		{"free audio below limit", false, domain.SourceAudio, 9, true},
		{"free audio at limit", false, domain.SourceAudio, 10, false},
		{"premium image far above limit", true, domain.SourceImage, 500, true},
		{"premium audio at limit", true, domain.SourceAudio, 10, true},
		{"text is never counted", false, domain.SourceText, 1000, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Check(tt.premium, tt.source, tt.count, limits, LocaleEN)
			if d.Allowed != tt.wantAllowed {
				t.Errorf("Allowed = %v, want %v", d.Allowed, tt.wantAllowed)
			}
			if d.IsLimitReached == tt.wantAllowed {
				t.Errorf("IsLimitReached = %v, want %v", d.IsLimitReached, !tt.wantAllowed)
			}
			if !tt.wantAllowed && d.Message == "" {
				t.Error("denied decision must carry a message")
			}
		})
	}
}

func TestCheck_MessageEmbedsLimitTwice(t *testing.T) {
	limits := Limits{Image: 5, Audio: 12}

	tests := []struct {
		source domain.Source
		count  int
		locale string
		want   string
		phrase string
	}{
		{domain.SourceImage, 5, LocaleEN, "(5/5)", "receipt scanning"},
		{domain.SourceImage, 5, LocaleID, "(5/5)", "scan struk"},
		{domain.SourceAudio, 12, LocaleEN, "(12/12)", "voice input"},
		{domain.SourceAudio, 12, LocaleID, "(12/12)", "input suara"},
		{domain.SourceAudio, 12, "fr", "(12/12)", "input suara"},
	}

	for _, tt := range tests {
		t.Run(string(tt.source)+"_"+tt.locale, func(t *testing.T) {
			d := Check(false, tt.source, tt.count, limits, tt.locale)
			if !strings.Contains(d.Message, tt.want) {
				t.Errorf("message %q does not contain %q", d.Message, tt.want)
			}
			if !strings.Contains(d.Message, tt.phrase) {
				t.Errorf("message %q is not in the expected locale (missing %q)", d.Message, tt.phrase)
			}
		})
	}
}

func TestParseLimits(t *testing.T) {
	tests := []struct {
		name   string
		config map[string]string
		want   Limits
	}{
		{"nil config", nil, Limits{3, 10}},
		{"both configured", map[string]string{KeyImageLimit: "5", KeyAudioLimit: "20"}, Limits{5, 20}},
		{"only image", map[string]string{KeyImageLimit: "1"}, Limits{1, 10}},
		{"non numeric falls back", map[string]string{KeyImageLimit: "abc", KeyAudioLimit: "ten"}, Limits{3, 10}},
		{"negative falls back", map[string]string{KeyImageLimit: "-2"}, Limits{3, 10}},
		{"whitespace tolerated", map[string]string{KeyAudioLimit: " 15 "}, Limits{3, 15}},
		{"zero is a valid cap", map[string]string{KeyImageLimit: "0"}, Limits{0, 10}},
		{"unrelated keys ignored", map[string]string{"theme": "dark"}, Limits{3, 10}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseLimits(tt.config); got != tt.want {
				t.Errorf("ParseLimits() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestBusyMessage(t *testing.T) {
	if !strings.Contains(BusyMessage(LocaleEN), "try again later") {
		t.Errorf("unexpected english busy message: %q", BusyMessage(LocaleEN))
	}
	if !strings.Contains(BusyMessage(LocaleID), "coba lagi") {
		t.Errorf("unexpected indonesian busy message: %q", BusyMessage(LocaleID))
	}
}
