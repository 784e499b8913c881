package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/wonny/smart-portfolio/internal/store"
	"github.com/wonny/smart-portfolio/pkg/logger"
)

// maxBodyBytes caps request bodies
const maxBodyBytes = 1 << 20

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}

// decodeJSON decodes a request body into dest
func decodeJSON(r *http.Request, dest interface{}) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

// respondStoreError maps repository errors onto HTTP statuses
func respondStoreError(w http.ResponseWriter, log *logger.Logger, err error, action string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		respondError(w, http.StatusNotFound, "not found")
	case errors.Is(err, store.ErrLimitExceeded):
		// 사용자에게 보여줄 한도 메시지
		respondError(w, http.StatusBadRequest, err.Error())
	default:
		log.WithError(err).Error("Failed to " + action)
		respondError(w, http.StatusInternalServerError, "Failed to "+action)
	}
}
