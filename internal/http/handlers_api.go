package http

import (
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	applog "petspese/internal/log"
	"petspese/internal/services"
)

type trendResponse struct {
	Pets []string `json:"pets"`
	// Series holds twelve values per pet, January first, plus the "All" total.
	Series map[string][]decimal.Decimal `json:"series"`
}

type categoryJSON struct {
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
}

type breakdownResponse struct {
	Pet        string          `json:"pet"`
	Month      int             `json:"month"`
	Total      decimal.Decimal `json:"total"`
	Categories []categoryJSON  `json:"categories"`
}

func (s *Server) handleAPITrend(w http.ResponseWriter, r *http.Request) {
	log, err := s.svc.Log(r.Context())
	if err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Failed to load log", applog.FieldError, err)
		writeJSONError(w, r, http.StatusInternalServerError, "could not load expenses")
		return
	}

	trend := services.ComputeMonthlyTrend(log)
	resp := trendResponse{
		Pets:   services.Entities(log),
		Series: map[string][]decimal.Decimal{},
	}
	if resp.Pets == nil {
		resp.Pets = []string{}
	}
	for _, pet := range append(append([]string{}, resp.Pets...), services.AllPets) {
		resp.Series[pet] = trend.Series(pet)
	}
	writeJSON(w, r, http.StatusOK, resp)
}

func (s *Server) handleAPIBreakdown(w http.ResponseWriter, r *http.Request) {
	pet := strings.TrimSpace(r.URL.Query().Get("pet"))
	if pet == "" {
		writeJSONError(w, r, http.StatusBadRequest, "pet is required")
		return
	}
	month, ok := parseMonth(r)
	if !ok {
		writeJSONError(w, r, http.StatusBadRequest, "month must be between 1 and 12")
		return
	}

	log, err := s.svc.Log(r.Context())
	if err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Failed to load log", applog.FieldError, err)
		writeJSONError(w, r, http.StatusInternalServerError, "could not load expenses")
		return
	}

	b := services.ComputeCategoryBreakdown(log, pet, month)
	resp := breakdownResponse{
		Pet:        pet,
		Month:      month,
		Total:      b.Total(),
		Categories: []categoryJSON{},
	}
	for _, c := range b.Sorted() {
		resp.Categories = append(resp.Categories, categoryJSON{Name: c.Name, Amount: c.Amount})
	}
	writeJSON(w, r, http.StatusOK, resp)
}
