package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/wonny/smart-portfolio/internal/dashboard"
	"github.com/wonny/smart-portfolio/pkg/logger"
)

// ScoreHandler serves the ranked candidate lists and per-symbol scores
// ⭐ SSOT: 점수 API 핸들러는 이 구조체에서만
type ScoreHandler struct {
	service *dashboard.Service
	logger  *logger.Logger
}

// NewScoreHandler creates a new score handler
func NewScoreHandler(service *dashboard.Service, log *logger.Logger) *ScoreHandler {
	return &ScoreHandler{service: service, logger: log}
}

// Sell returns sell candidates with the daily target allocated
// GET /api/score/sell
func (h *ScoreHandler) Sell(w http.ResponseWriter, r *http.Request) {
	candidates, err := h.service.SellCandidates(r.Context())
	if err != nil {
		respondStoreError(w, h.logger, err, "score sell candidates")
		return
	}
	respondJSON(w, http.StatusOK, candidates)
}

// Averaging returns losing positions ranked for 물타기
// GET /api/score/averaging
func (h *ScoreHandler) Averaging(w http.ResponseWriter, r *http.Request) {
	candidates, err := h.service.AveragingCandidates(r.Context())
	if err != nil {
		respondStoreError(w, h.logger, err, "score averaging candidates")
		return
	}
	respondJSON(w, http.StatusOK, candidates)
}

// Buy returns buy_interest watchlist items ranked by buy timing
// GET /api/score/buy
func (h *ScoreHandler) Buy(w http.ResponseWriter, r *http.Request) {
	candidates, err := h.service.BuyCandidates(r.Context())
	if err != nil {
		respondStoreError(w, h.logger, err, "score buy candidates")
		return
	}
	respondJSON(w, http.StatusOK, candidates)
}

// StockDetail scores one held stock
// GET /api/score/{kind:sell|averaging}/{id}
func (h *ScoreHandler) StockDetail(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	kind, err := dashboard.ParseKind(vars["kind"])
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	scored, err := h.service.ScoreStock(r.Context(), vars["id"], kind)
	if err != nil {
		respondStoreError(w, h.logger, err, "score stock")
		return
	}
	respondJSON(w, http.StatusOK, scored)
}

// WatchDetail scores one watchlist entry
// GET /api/score/buy/{id}
func (h *ScoreHandler) WatchDetail(w http.ResponseWriter, r *http.Request) {
	scored, err := h.service.ScoreWatchItem(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondStoreError(w, h.logger, err, "score watchlist item")
		return
	}
	respondJSON(w, http.StatusOK, scored)
}
