package logger

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestNew_Level(t *testing.T) {
	log := New("warn")
	if log.GetLevel() != zerolog.WarnLevel {
		t.Errorf("level = %v, want warn", log.GetLevel())
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]zerolog.Level{
		"":        zerolog.InfoLevel,
		"debug":   zerolog.DebugLevel,
		" ERROR ": zerolog.ErrorLevel,
		"verbose": zerolog.InfoLevel,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewWithWriter(t *testing.T) {
	buf := &bytes.Buffer{}
	log := NewWithWriter(buf)

	log.Info().Msg("transaction saved")

	if !strings.Contains(buf.String(), "transaction saved") {
		t.Errorf("Expected output to contain message, got: %s", buf.String())
	}
}

func TestContextRoundTrip(t *testing.T) {
	buf := &bytes.Buffer{}
	ctx := WithContext(context.Background(), NewWithWriter(buf))

	if ctx.Value(LoggerKey) == nil {
		t.Fatal("Expected logger in context, got nil")
	}

	log := FromContext(ctx)
	log.Info().Msg("from context")

	if buf.Len() == 0 {
		t.Error("Expected log output from retrieved logger")
	}
}

func TestFromContext_DefaultLogger(t *testing.T) {
	log := FromContext(context.Background())

	if log.GetLevel() == zerolog.Disabled {
		t.Error("Expected default logger to be enabled")
	}
}

func TestWithFields(t *testing.T) {
	buf := &bytes.Buffer{}
	log := WithFields(NewWithWriter(buf), map[string]interface{}{
		"user_email": "sari@example.com",
		"source":     "image",
	})

	log.Info().Msg("submission")

	out := buf.String()
	for _, want := range []string{"user_email", "sari@example.com", "source", "image"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected output to contain %q, got: %s", want, out)
		}
	}
}
