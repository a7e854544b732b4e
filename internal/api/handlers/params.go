package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/dvloznov/finflow/internal/billing"
	"github.com/dvloznov/finflow/internal/domain"
	"github.com/dvloznov/finflow/internal/entitlement"
	"github.com/dvloznov/finflow/internal/finance"
)

// maxJSONBody bounds JSON request bodies.
const maxJSONBody = 1 << 20

// parsePeriod reads month (0-11) and year. Both absent means the current cycle.
func parsePeriod(q url.Values) (*finance.Period, error) {
	monthStr, yearStr := q.Get("month"), q.Get("year")
	if monthStr == "" && yearStr == "" {
		return nil, nil
	}
	if monthStr == "" || yearStr == "" {
		return nil, fmt.Errorf("month and year must be given together")
	}

	month, err := strconv.Atoi(monthStr)
	if err != nil || month < 0 || month > 11 {
		return nil, fmt.Errorf("month must be between 0 and 11")
	}
	year, err := strconv.Atoi(yearStr)
	if err != nil || year < 1970 || year > 9999 {
		return nil, fmt.Errorf("invalid year %q", yearStr)
	}
	return &finance.Period{Month: month, Year: year}, nil
}

// parseRange reads an explicit from/to date window. Both are optional.
func parseRange(q url.Values) (billing.Range, error) {
	r := billing.Range{From: q.Get("from"), To: q.Get("to")}
	if r.From != "" && !domain.ValidDate(r.From) {
		return r, fmt.Errorf("from must be YYYY-MM-DD")
	}
	if r.To != "" && !domain.ValidDate(r.To) {
		return r, fmt.Errorf("to must be YYYY-MM-DD")
	}
	if r.From != "" && r.To != "" && r.From > r.To {
		return r, fmt.Errorf("from must not be after to")
	}
	return r, nil
}

// localeOf picks the message locale from the lang parameter, then Accept-Language.
func localeOf(r *http.Request) string {
	lang := r.FormValue("lang")
	if lang == "" {
		lang = r.Header.Get("Accept-Language")
	}
	if strings.HasPrefix(strings.ToLower(lang), entitlement.LocaleEN) {
		return entitlement.LocaleEN
	}
	return entitlement.LocaleID
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody)).Decode(v)
}
