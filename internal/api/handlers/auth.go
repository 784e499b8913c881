package handlers

import (
	"errors"
	"net/http"

	"github.com/wonny/smart-portfolio/internal/auth"
	"github.com/wonny/smart-portfolio/pkg/logger"
)

// AuthHandler handles login/logout
type AuthHandler struct {
	auth   *auth.Authenticator
	logger *logger.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(a *auth.Authenticator, log *logger.Logger) *AuthHandler {
	return &AuthHandler{auth: a, logger: log}
}

type loginRequest struct {
	Password string `json:"password"`
}

// Login checks the shared password and sets the session cookie
// POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	cookie, err := h.auth.Login(req.Password)
	if errors.Is(err, auth.ErrInvalidPassword) {
		h.logger.Warn("Login rejected")
		respondError(w, http.StatusUnauthorized, "비밀번호가 틀렸습니다.")
		return
	}
	if err != nil {
		h.logger.WithError(err).Error("Failed to issue session token")
		respondError(w, http.StatusInternalServerError, "Failed to log in")
		return
	}

	http.SetCookie(w, cookie)
	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// Logout clears the session cookie
// POST /api/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, h.auth.LogoutCookie())
	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}
