package ai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dvloznov/finflow/internal/domain"
)

// fakeGemini answers generateContent calls with a fixed model text, or with status when set.
func fakeGemini(t *testing.T, modelText string, status int) (*httptest.Server, *[]string) {
	t.Helper()
	var bodies []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		bodies = append(bodies, string(body))

		if !strings.HasSuffix(r.URL.Path, ":generateContent") {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if status != 0 {
			w.WriteHeader(status)
			_, _ = io.WriteString(w, `{"error":{"code":429,"message":"Resource has been exhausted (e.g. check quota).","status":"RESOURCE_EXHAUSTED"}}`)
			return
		}
		resp := map[string]any{
			"candidates": []any{
				map[string]any{
					"content": map[string]any{
						"role":  "model",
						"parts": []any{map[string]any{"text": modelText}},
					},
				},
			},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return srv, &bodies
}

func newTestGemini(t *testing.T, srv *httptest.Server) *Gemini {
	t.Helper()
	g, err := NewGemini(context.Background(), "", "test-key", WithBaseURL(srv.URL))
	if err != nil {
		t.Fatalf("NewGemini: %v", err)
	}
	return g
}

func TestGemini_Extract(t *testing.T) {
	srv, bodies := fakeGemini(t, `{"date":"2025-06-14","description":"Bensin","amount":100000,"category":"Transport","type":"expense","transcription":"isi bensin 100rb"}`, 0)
	g := newTestGemini(t, srv)

	got, err := g.Extract(context.Background(), Input{Text: "isi bensin 100rb", Today: time.Date(2025, 6, 14, 0, 0, 0, 0, time.UTC)})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if got.Amount != 100000 || got.Category != "Transport" || got.Transcription != "isi bensin 100rb" {
		t.Errorf("extraction = %+v", got)
	}

	if len(*bodies) != 1 {
		t.Fatalf("expected one request, got %d", len(*bodies))
	}
	if !strings.Contains((*bodies)[0], "isi bensin 100rb") || !strings.Contains((*bodies)[0], "application/json") {
		t.Errorf("request body missing input or response mime type: %s", (*bodies)[0])
	}
}

func TestGemini_Extract_Quota(t *testing.T) {
	srv, _ := fakeGemini(t, "", http.StatusTooManyRequests)
	g := newTestGemini(t, srv)

	_, err := g.Extract(context.Background(), Input{Text: "makan 20k"})
	if !errors.Is(err, ErrQuotaExceeded) {
		t.Errorf("err = %v, want ErrQuotaExceeded", err)
	}
}

func TestGemini_Extract_EmptyInput(t *testing.T) {
	srv, bodies := fakeGemini(t, "{}", 0)
	g := newTestGemini(t, srv)

	if _, err := g.Extract(context.Background(), Input{}); err == nil {
		t.Error("expected error for empty input")
	}
	if len(*bodies) != 0 {
		t.Error("no request should be sent for empty input")
	}
}

func TestGemini_MonthlyAverages(t *testing.T) {
	srv, _ := fakeGemini(t, "```json\n{\"averages\":[{\"category\":\"Food\",\"amount\":1000000},{\"category\":\"\",\"amount\":5},{\"category\":\"Bills\",\"amount\":0}]}\n```", 0)
	g := newTestGemini(t, srv)

	got, err := g.MonthlyAverages(context.Background(), []*domain.Transaction{
		{Date: "2025-05-01", Category: "Food", Amount: 3000000, Type: domain.TypeExpense},
	}, 90)
	if err != nil {
		t.Fatalf("MonthlyAverages: %v", err)
	}
	if len(got) != 1 || got["Food"] != 1000000 {
		t.Errorf("averages = %v, want only Food 1000000", got)
	}
}

func TestGemini_MonthlyAverages_NoHistory(t *testing.T) {
	srv, bodies := fakeGemini(t, "{}", 0)
	g := newTestGemini(t, srv)

	got, err := g.MonthlyAverages(context.Background(), nil, 90)
	if err != nil || len(got) != 0 {
		t.Errorf("got %v, %v; want empty map", got, err)
	}
	if len(*bodies) != 0 {
		t.Error("no request should be sent without history")
	}
}

func TestBuildExtractionPrompt_DefaultsToUTCDay(t *testing.T) {
	jakarta := time.Date(2025, 7, 3, 6, 0, 0, 0, time.FixedZone("WIB", 7*60*60))
	prompt := buildExtractionPrompt(Input{Text: "kopi 25rb", Today: jakarta})
	if !strings.Contains(prompt, "use today's date: 2025-07-02.") {
		t.Errorf("prompt does not default to the UTC day:\n%s", prompt)
	}
}
