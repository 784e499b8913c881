package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/wonny/smart-portfolio/internal/contracts"
	"github.com/wonny/smart-portfolio/pkg/logger"
)

// StockHandler handles held-position CRUD
// ⭐ SSOT: 보유 종목 API 핸들러는 이 구조체에서만
type StockHandler struct {
	repo   contracts.StockRepository
	logger *logger.Logger
}

// NewStockHandler creates a new stock handler
func NewStockHandler(repo contracts.StockRepository, log *logger.Logger) *StockHandler {
	return &StockHandler{repo: repo, logger: log}
}

// List returns all held stocks, newest first
// GET /api/stocks
func (h *StockHandler) List(w http.ResponseWriter, r *http.Request) {
	stocks, err := h.repo.List(r.Context())
	if err != nil {
		respondStoreError(w, h.logger, err, "list stocks")
		return
	}
	respondJSON(w, http.StatusOK, stocks)
}

// Get returns one stock
// GET /api/stocks/{id}
func (h *StockHandler) Get(w http.ResponseWriter, r *http.Request) {
	stock, err := h.repo.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondStoreError(w, h.logger, err, "get stock")
		return
	}
	respondJSON(w, http.StatusOK, stock)
}

// Create adds a stock (max 15)
// POST /api/stocks
func (h *StockHandler) Create(w http.ResponseWriter, r *http.Request) {
	var stock contracts.Stock
	if err := decodeJSON(r, &stock); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := stock.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	stock.Market, _ = contracts.ParseMarket(string(stock.Market))

	if err := h.repo.Create(r.Context(), &stock); err != nil {
		respondStoreError(w, h.logger, err, "create stock")
		return
	}

	h.logger.WithFields(map[string]interface{}{
		"id":     stock.ID,
		"symbol": stock.Symbol,
	}).Info("Stock created")
	respondJSON(w, http.StatusCreated, stock)
}

// Update replaces the editable fields of a stock
// PUT /api/stocks/{id}
func (h *StockHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := mux.Vars(r)["id"]

	stock, err := h.repo.Get(ctx, id)
	if err != nil {
		respondStoreError(w, h.logger, err, "get stock")
		return
	}

	// 보낸 필드만 덮어씀
	if err := decodeJSON(r, stock); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	stock.ID = id
	if err := stock.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	stock.Market, _ = contracts.ParseMarket(string(stock.Market))

	if err := h.repo.Update(ctx, stock); err != nil {
		respondStoreError(w, h.logger, err, "update stock")
		return
	}
	respondJSON(w, http.StatusOK, stock)
}

// Delete removes a stock
// DELETE /api/stocks/{id}
func (h *StockHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.repo.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		respondStoreError(w, h.logger, err, "delete stock")
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}
