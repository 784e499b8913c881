package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/wonny/smart-portfolio/internal/contracts"
	"github.com/wonny/smart-portfolio/pkg/logger"
)

// WatchlistHandler handles watchlist CRUD
type WatchlistHandler struct {
	repo   contracts.WatchlistRepository
	logger *logger.Logger
}

// NewWatchlistHandler creates a new watchlist handler
func NewWatchlistHandler(repo contracts.WatchlistRepository, log *logger.Logger) *WatchlistHandler {
	return &WatchlistHandler{repo: repo, logger: log}
}

// List returns watched symbols, newest first. ?category= filters.
// GET /api/watchlist
func (h *WatchlistHandler) List(w http.ResponseWriter, r *http.Request) {
	var (
		items []contracts.WatchlistItem
		err   error
	)
	if category := r.URL.Query().Get("category"); category != "" {
		items, err = h.repo.ListByCategory(r.Context(), contracts.WatchCategory(category))
	} else {
		items, err = h.repo.List(r.Context())
	}
	if err != nil {
		respondStoreError(w, h.logger, err, "list watchlist")
		return
	}
	respondJSON(w, http.StatusOK, items)
}

// Create adds a watchlist entry (max 20)
// POST /api/watchlist
func (h *WatchlistHandler) Create(w http.ResponseWriter, r *http.Request) {
	var item contracts.WatchlistItem
	if err := decodeJSON(r, &item); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := item.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	item.Market, _ = contracts.ParseMarket(string(item.Market))

	if err := h.repo.Create(r.Context(), &item); err != nil {
		respondStoreError(w, h.logger, err, "create watchlist item")
		return
	}
	respondJSON(w, http.StatusCreated, item)
}

// Update merges the sent fields into a watchlist entry
// PUT /api/watchlist/{id}
func (h *WatchlistHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := mux.Vars(r)["id"]

	item, err := h.repo.Get(ctx, id)
	if err != nil {
		respondStoreError(w, h.logger, err, "get watchlist item")
		return
	}
	if err := decodeJSON(r, item); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	item.ID = id
	if err := item.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	item.Market, _ = contracts.ParseMarket(string(item.Market))

	if err := h.repo.Update(ctx, item); err != nil {
		respondStoreError(w, h.logger, err, "update watchlist item")
		return
	}
	respondJSON(w, http.StatusOK, item)
}

// Delete removes a watchlist entry
// DELETE /api/watchlist/{id}
func (h *WatchlistHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.repo.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		respondStoreError(w, h.logger, err, "delete watchlist item")
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}
