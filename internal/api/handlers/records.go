package handlers

import (
	"net/http"

	"github.com/wonny/smart-portfolio/internal/contracts"
	"github.com/wonny/smart-portfolio/pkg/logger"
)

// RecordHandler handles the buy/sell journal
type RecordHandler struct {
	repo   contracts.RecordRepository
	logger *logger.Logger
}

// NewRecordHandler creates a new record handler
func NewRecordHandler(repo contracts.RecordRepository, log *logger.Logger) *RecordHandler {
	return &RecordHandler{repo: repo, logger: log}
}

// RecordBuy journals a purchase; averaging_down also updates the stock
// POST /api/records/buy
func (h *RecordHandler) RecordBuy(w http.ResponseWriter, r *http.Request) {
	var rec contracts.BuyRecord
	if err := decodeJSON(r, &rec); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := rec.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.repo.RecordBuy(r.Context(), &rec); err != nil {
		respondStoreError(w, h.logger, err, "record buy")
		return
	}

	h.logger.WithFields(map[string]interface{}{
		"symbol":   rec.Symbol,
		"type":     rec.Type,
		"quantity": rec.Quantity,
	}).Info("Buy recorded")
	respondJSON(w, http.StatusCreated, rec)
}

// RecordSell journals a sale and reduces (or removes) the stock
// POST /api/records/sell
func (h *RecordHandler) RecordSell(w http.ResponseWriter, r *http.Request) {
	var rec contracts.SellRecord
	if err := decodeJSON(r, &rec); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := rec.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.repo.RecordSell(r.Context(), &rec); err != nil {
		respondStoreError(w, h.logger, err, "record sell")
		return
	}

	h.logger.WithFields(map[string]interface{}{
		"symbol":   rec.Symbol,
		"quantity": rec.Quantity,
		"profit":   rec.Profit,
	}).Info("Sell recorded")
	respondJSON(w, http.StatusCreated, rec)
}

// ListBuys returns purchases, newest first
// GET /api/records/buy
func (h *RecordHandler) ListBuys(w http.ResponseWriter, r *http.Request) {
	records, err := h.repo.ListBuys(r.Context())
	if err != nil {
		respondStoreError(w, h.logger, err, "list buy records")
		return
	}
	respondJSON(w, http.StatusOK, records)
}

// ListSells returns sales, newest first
// GET /api/records/sell
func (h *RecordHandler) ListSells(w http.ResponseWriter, r *http.Request) {
	records, err := h.repo.ListSells(r.Context())
	if err != nil {
		respondStoreError(w, h.logger, err, "list sell records")
		return
	}
	respondJSON(w, http.StatusOK, records)
}
