package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/catalyst-alpha/internal/catalyst"
	"github.com/wonny/catalyst-alpha/internal/external/ctgov"
	"github.com/wonny/catalyst-alpha/internal/study"
	"github.com/wonny/catalyst-alpha/pkg/logger"
)

// CatalystRefresher builds upcoming catalyst events from the trial registry
type CatalystRefresher interface {
	Refresh(ctx context.Context, q ctgov.Query, daysAhead int, scores map[string]string) (*catalyst.RefreshResult, error)
}

// MarketHandler serves prices and upcoming catalysts
// ⭐ SSOT: 가격/카탈리스트 API 핸들러는 이 구조체에서만
type MarketHandler struct {
	prices    study.PriceSource
	refresher CatalystRefresher
	query     ctgov.Query
	daysAhead int
	logger    *logger.Logger
}

// NewMarketHandler creates a new market handler. refresher may be nil.
func NewMarketHandler(prices study.PriceSource, refresher CatalystRefresher, query ctgov.Query, daysAhead int, log *logger.Logger) *MarketHandler {
	return &MarketHandler{
		prices:    prices,
		refresher: refresher,
		query:     query,
		daysAhead: daysAhead,
		logger:    log,
	}
}

// PricePointResponse is one close in the price response
type PricePointResponse struct {
	Date     string  `json:"date"`
	AdjClose float64 `json:"adj_close"`
}

// GetDailyCloses returns adjusted daily closes for a symbol
// GET /api/prices/{symbol}?from=2024-01-01&to=2025-01-01
func (h *MarketHandler) GetDailyCloses(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(mux.Vars(r)["symbol"])

	to, ok, err := parseDateParam(r, "to")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid 'to' date format (expected YYYY-MM-DD)")
		return
	}
	if !ok {
		to = time.Now().UTC()
	}

	from, ok, err := parseDateParam(r, "from")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid 'from' date format (expected YYYY-MM-DD)")
		return
	}
	if !ok {
		// Default: last 365 days
		from = to.AddDate(0, 0, -365)
	}
	if !from.Before(to) {
		respondError(w, http.StatusBadRequest, "'from' must be before 'to'")
		return
	}

	points, err := h.prices.DailyCloses(r.Context(), symbol, from, to)
	if err != nil {
		h.logger.WithError(err).WithField("symbol", symbol).Error("Failed to get daily closes")
		respondError(w, http.StatusBadGateway, "Failed to retrieve prices")
		return
	}
	if len(points) == 0 {
		respondError(w, http.StatusNotFound, "no prices for "+symbol)
		return
	}

	result := make([]PricePointResponse, len(points))
	for i, p := range points {
		result[i] = PricePointResponse{Date: p.Date.Format("2006-01-02"), AdjClose: p.AdjClose}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"symbol": symbol,
		"prices": result,
		"count":  len(result),
	})
}

// GetUpcomingCatalysts fetches registry trials and returns mapped upcoming events
// GET /api/catalysts/upcoming?days=180&condition=oncology
func (h *MarketHandler) GetUpcomingCatalysts(w http.ResponseWriter, r *http.Request) {
	if h.refresher == nil {
		respondError(w, http.StatusServiceUnavailable, "Sponsor map is not configured")
		return
	}

	q := h.query
	if c := r.URL.Query().Get("condition"); c != "" {
		q.Condition = c
	}
	days := parseIntParam(r, "days", h.daysAhead)

	result, err := h.refresher.Refresh(r.Context(), q, days, nil)
	if err != nil {
		h.logger.WithError(err).Error("Failed to refresh catalysts")
		respondError(w, http.StatusBadGateway, "Failed to fetch trials")
		return
	}

	respondJSON(w, http.StatusOK, result)
}
