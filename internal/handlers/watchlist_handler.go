package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/stockbrief/internal/common"
	"github.com/ternarybob/stockbrief/internal/interfaces"
)

// WatchlistHandler serves the watchlist API.
type WatchlistHandler struct {
	watchlist interfaces.WatchlistStorage
	logger    arbor.ILogger
}

// NewWatchlistHandler creates a new WatchlistHandler instance
func NewWatchlistHandler(watchlist interfaces.WatchlistStorage, logger arbor.ILogger) *WatchlistHandler {
	return &WatchlistHandler{
		watchlist: watchlist,
		logger:    logger,
	}
}

// ListHandler handles GET /api/watchlist.
func (h *WatchlistHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	entries, err := h.watchlist.ListTickers(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list watchlist")
		WriteError(w, http.StatusInternalServerError, "failed to list watchlist")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"count":   len(entries),
		"tickers": entries,
	})
}

// AddHandler handles POST /api/watchlist with body {"ticker": "AAPL"}.
func (h *WatchlistHandler) AddHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	var body struct {
		Ticker string `json:"ticker"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ticker, err := common.ValidateTicker(body.Ticker)
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.watchlist.AddTicker(r.Context(), ticker); err != nil {
		h.logger.Error().Err(err).Str("ticker", ticker).Msg("Failed to add ticker to watchlist")
		WriteError(w, http.StatusInternalServerError, "failed to add ticker to watchlist")
		return
	}

	WriteSuccess(w, ticker+" added to watchlist")
}

// RemoveHandler handles DELETE /api/watchlist/{ticker}.
func (h *WatchlistHandler) RemoveHandler(w http.ResponseWriter, r *http.Request, ticker string) {
	if !RequireMethod(w, r, "DELETE") {
		return
	}

	normalized, err := common.ValidateTicker(ticker)
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.watchlist.RemoveTicker(r.Context(), normalized); err != nil {
		h.logger.Error().Err(err).Str("ticker", normalized).Msg("Failed to remove ticker from watchlist")
		WriteError(w, http.StatusInternalServerError, "failed to remove ticker from watchlist")
		return
	}

	WriteSuccess(w, normalized+" removed from watchlist")
}
