package handlers

import (
	"net/http"

	"github.com/wonny/smart-portfolio/internal/contracts"
	"github.com/wonny/smart-portfolio/pkg/logger"
)

// SettingsHandler reads and edits the scoring settings
type SettingsHandler struct {
	repo   contracts.SettingsRepository
	logger *logger.Logger
}

// NewSettingsHandler creates a new settings handler
func NewSettingsHandler(repo contracts.SettingsRepository, log *logger.Logger) *SettingsHandler {
	return &SettingsHandler{repo: repo, logger: log}
}

func (h *SettingsHandler) current(r *http.Request) (contracts.Settings, error) {
	saved, err := h.repo.Get(r.Context())
	if err != nil {
		return contracts.Settings{}, err
	}
	if saved == nil {
		return contracts.DefaultSettings(), nil
	}
	return *saved, nil
}

// Get returns the saved settings, or the defaults
// GET /api/settings
func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	settings, err := h.current(r)
	if err != nil {
		respondStoreError(w, h.logger, err, "load settings")
		return
	}
	respondJSON(w, http.StatusOK, settings)
}

// Update merges the sent fields over the current settings. Weight groups
// must still sum to 100 afterwards.
// PUT /api/settings
func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	settings, err := h.current(r)
	if err != nil {
		respondStoreError(w, h.logger, err, "load settings")
		return
	}

	if err := decodeJSON(r, &settings); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := settings.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.repo.Save(r.Context(), &settings); err != nil {
		respondStoreError(w, h.logger, err, "save settings")
		return
	}

	h.logger.Info("Settings updated")
	respondJSON(w, http.StatusOK, settings)
}
