package http

import (
	"encoding/json"
	"html/template"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"petspese/internal/core"
	applog "petspese/internal/log"
)

var templateFuncs = template.FuncMap{
	"amount":    formatAmount,
	"monthName": monthName,
	"date":      formatDate,
	"photoURL":  photoURL,
}

// formatAmount renders an amount with two decimals and a euro sign.
func formatAmount(d decimal.Decimal) string {
	return "€" + core.FormatAmount(d)
}

func monthName(m int) string {
	if m < 1 || m > 12 {
		return ""
	}
	return time.Month(m).String()
}

func formatDate(d core.Date) string {
	if d.IsZero() {
		return "Unknown"
	}
	return d.String()
}

func photoURL(pet string) string {
	return "/photos/" + url.PathEscape(pet)
}

// parseMonth reads a 1-12 month from the query. ok is false when the value is
// absent or out of range.
func parseMonth(r *http.Request) (int, bool) {
	v := strings.TrimSpace(r.URL.Query().Get("month"))
	if v == "" {
		return 0, false
	}
	m, err := strconv.Atoi(v)
	if err != nil || m < 1 || m > 12 {
		return 0, false
	}
	return m, true
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' {
			return -1
		}
		return r
	}, s)
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Failed to encode JSON response", applog.FieldError, err)
	}
}

type apiError struct {
	Error string `json:"error"`
}

func writeJSONError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, r, status, apiError{Error: msg})
}
