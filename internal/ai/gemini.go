package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dvloznov/finflow/internal/domain"
	"google.golang.org/genai"
)

// DefaultModelName is the Gemini model used when none is configured.
const DefaultModelName = "gemini-2.5-flash"

// Gemini implements Extractor and Averager on top of the Gemini API.
type Gemini struct {
	client *genai.Client
	model  string
}

// GeminiOption customises the client configuration.
type GeminiOption func(*genai.ClientConfig)

// WithBaseURL points the client at another endpoint.
func WithBaseURL(url string) GeminiOption {
	return func(cfg *genai.ClientConfig) { cfg.HTTPOptions.BaseURL = url }
}

// NewGemini creates a client. With an empty apiKey the SDK falls back to the
// GEMINI_API_KEY / GOOGLE_API_KEY environment variables.
func NewGemini(ctx context.Context, model, apiKey string, opts ...GeminiOption) (*Gemini, error) {
	if model == "" {
		model = DefaultModelName
	}

	// Structured output needs v1beta.
	cfg := &genai.ClientConfig{
		APIKey:      apiKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1beta"},
	}
	for _, opt := range opts {
		opt(cfg)
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("NewGemini: create genai client: %w", err)
	}
	return &Gemini{client: client, model: model}, nil
}

// Extract implements Extractor.
func (g *Gemini) Extract(ctx context.Context, in Input) (*Extraction, error) {
	if in.Empty() {
		return nil, fmt.Errorf("Extract: no text or file provided")
	}

	parts := []*genai.Part{{Text: buildExtractionPrompt(in)}}
	if text := strings.TrimSpace(in.Text); text != "" {
		parts = append(parts, &genai.Part{Text: fmt.Sprintf("Input text: %q", text)})
	}
	if in.HasFile() {
		parts = append(parts, &genai.Part{
			InlineData: &genai.Blob{
				MIMEType: attachmentMIME(in.MIMEType),
				Data:     in.Data,
			},
		})
	}

	contents := []*genai.Content{{Role: "user", Parts: parts}}
	cfg := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   extractionSchema,
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, cfg)
	if err != nil {
		return nil, classify("Extract: generate content", err)
	}

	var out Extraction
	if err := decodeModelJSON(resp.Text(), &out); err != nil {
		return nil, fmt.Errorf("Extract: %w", err)
	}
	return &out, nil
}

// MonthlyAverages implements Averager by asking the model to read the history.
func (g *Gemini) MonthlyAverages(ctx context.Context, expenses []*domain.Transaction, days int) (map[string]float64, error) {
	if len(expenses) == 0 {
		return map[string]float64{}, nil
	}

	prompt, err := buildAveragesPrompt(expenses, days)
	if err != nil {
		return nil, fmt.Errorf("MonthlyAverages: %w", err)
	}

	contents := []*genai.Content{{Role: "user", Parts: []*genai.Part{{Text: prompt}}}}
	cfg := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   averagesSchema,
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, cfg)
	if err != nil {
		return nil, classify("MonthlyAverages: generate content", err)
	}

	var parsed struct {
		Averages []struct {
			Category string  `json:"category"`
			Amount   float64 `json:"amount"`
		} `json:"averages"`
	}
	if err := decodeModelJSON(resp.Text(), &parsed); err != nil {
		return nil, fmt.Errorf("MonthlyAverages: %w", err)
	}

	out := make(map[string]float64, len(parsed.Averages))
	for _, a := range parsed.Averages {
		category := strings.TrimSpace(a.Category)
		if category == "" || a.Amount <= 0 {
			continue
		}
		out[category] += a.Amount
	}
	return out, nil
}

var extractionSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"date":        {Type: genai.TypeString, Description: "YYYY-MM-DD"},
		"description": {Type: genai.TypeString},
		"amount":      {Type: genai.TypeNumber},
		"category": {
			Type:        genai.TypeString,
			Description: "One of: " + categoryNames(),
		},
		"type": {Type: genai.TypeString, Description: "income or expense"},
		"transcription": {
			Type:        genai.TypeString,
			Description: "The verbatim transcription of the input text or audio",
		},
		"items": {
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"name":     {Type: genai.TypeString},
					"quantity": {Type: genai.TypeNumber},
					"price":    {Type: genai.TypeNumber},
				},
				Required: []string{"name", "price"},
			},
		},
		"tax":      {Type: genai.TypeNumber},
		"discount": {Type: genai.TypeNumber},
	},
	Required: []string{"date", "description", "amount", "category", "type", "transcription"},
}

var averagesSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"averages": {
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"category": {Type: genai.TypeString},
					"amount":   {Type: genai.TypeNumber},
				},
				Required: []string{"category", "amount"},
			},
		},
	},
	Required: []string{"averages"},
}

func buildExtractionPrompt(in Input) string {
	now := in.Today
	if now.IsZero() {
		now = time.Now()
	}
	today := domain.FormatDate(now.UTC())

	basePrompt :=
		"You are an AI financial assistant named Finflow.\n" +
			"Analyze the provided input (audio, text, or image of a receipt).\n\n" +
			"1. If the input is an image of a receipt, perform OCR to extract the total amount, merchant name/description, date, and items.\n" +
			"2. If the input is audio/text, transcribe or use the text directly.\n" +
			"3. Transcribe the input verbatim in the \"transcription\" field.\n" +
			"4. Extract transaction details (date, description, amount, category, type).\n" +
			"5. For receipts, list each line in \"items\" and fill \"tax\" and \"discount\" when printed.\n\n"

	amountRules :=
		"IMPORTANT: Amount Format Conversion Rules (Indonesian Number Formats):\n" +
			"- \"k\", \"rb\", or \"ribu\" means thousand (1,000). Examples: \"10k\" = 10000, \"5rb\" = 5000, \"3 ribu\" = 3000\n" +
			"- \"jt\" or \"juta\" means million (1,000,000). Examples: \"10jt\" = 10000000, \"5 juta\" = 5000000\n" +
			"- Always convert these formats to the actual numeric value in the \"amount\" field\n" +
			"- The amount is always positive; use \"type\" for the direction.\n\n"

	dateRules :=
		"Date Handling:\n" +
			"- If the date is not specified, use today's date: " + today + ".\n" +
			"- Convert any mentioned date to YYYY-MM-DD format.\n\n"

	return basePrompt + amountRules + dateRules + buildCategoriesPrompt()
}

type expenseLine struct {
	Date     string  `json:"date"`
	Category string  `json:"category"`
	Amount   float64 `json:"amount"`
}

func buildAveragesPrompt(expenses []*domain.Transaction, days int) (string, error) {
	lines := make([]expenseLine, 0, len(expenses))
	for _, tx := range expenses {
		if tx == nil || !tx.IsExpense() {
			continue
		}
		lines = append(lines, expenseLine{Date: tx.Date, Category: tx.Category, Amount: tx.Amount})
	}
	sort.SliceStable(lines, func(i, j int) bool { return lines[i].Date < lines[j].Date })

	history, err := json.Marshal(lines)
	if err != nil {
		return "", fmt.Errorf("marshal expenses: %w", err)
	}

	return fmt.Sprintf(
		"You are a financial advisor. Analyze the user's expense history from the last %d days.\n\n"+
			"Expenses:\n%s\n\n"+
			"Rules:\n"+
			"1. Calculate the average monthly spending for each category found (30-day months).\n"+
			"2. Do NOT add any margin and do NOT round; return the plain average.\n"+
			"3. Amounts are in IDR (numeric).\n"+
			"Return ONLY valid raw JSON.\n",
		days, history,
	), nil
}

// attachmentMIME fills in a type when the upload did not carry one.
func attachmentMIME(mimeType string) string {
	if mimeType == "" {
		return "audio/mp3"
	}
	return mimeType
}

func decodeModelJSON(raw string, v any) error {
	if strings.TrimSpace(raw) == "" {
		return ErrEmptyResponse
	}
	clean := cleanModelJSON(raw)
	if err := json.Unmarshal([]byte(clean), v); err != nil {
		return fmt.Errorf("unmarshal JSON: %w\nraw response: %s", err, raw)
	}
	return nil
}

// cleanModelJSON strips Markdown fences and any text around the outermost JSON object.
func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			return s
		}
		s = strings.TrimSpace(s)
	}
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}
	s = strings.TrimSpace(s)

	if start := strings.Index(s, "{"); start != -1 {
		if end := strings.LastIndex(s, "}"); end != -1 && end > start {
			s = strings.TrimSpace(s[start : end+1])
		}
	}
	return s
}

func wrap(op string, err error) error {
	return fmt.Errorf("%s: %w", op, err)
}
