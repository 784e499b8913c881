package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/wonny/smart-portfolio/internal/contracts"
	"github.com/wonny/smart-portfolio/pkg/logger"
)

// MarketHandler exposes the raw market snapshot
type MarketHandler struct {
	provider contracts.MarketDataProvider
	logger   *logger.Logger
}

// NewMarketHandler creates a new market handler
func NewMarketHandler(provider contracts.MarketDataProvider, log *logger.Logger) *MarketHandler {
	return &MarketHandler{provider: provider, logger: log}
}

// Get returns the snapshot for one symbol. A failed fetch is still 200 with zeros.
// GET /api/market/{market}/{symbol}
func (h *MarketHandler) Get(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	market, err := contracts.ParseMarket(vars["market"])
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, h.provider.Fetch(r.Context(), vars["symbol"], market))
}
