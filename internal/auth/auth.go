// Package auth implements the single shared-password gate: a login that
// checks APP_PASSWORD and an HS256 session token carried in a cookie.
package auth

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/wonny/smart-portfolio/pkg/config"
	"github.com/wonny/smart-portfolio/pkg/logger"
)

// CookieName is the session cookie
const CookieName = "auth-token"

var (
	// ErrInvalidPassword is returned by Login on a wrong password
	ErrInvalidPassword = errors.New("invalid password")
	// ErrInvalidToken covers missing, malformed, expired and forged tokens
	ErrInvalidToken = errors.New("invalid token")
)

// Claims is the session payload
type Claims struct {
	Authenticated bool `json:"authenticated"`
	jwt.RegisteredClaims
}

// Authenticator issues and verifies session tokens
// ⭐ SSOT: 인증 토큰 발급/검증은 여기서만
type Authenticator struct {
	password []byte
	secret   []byte
	ttl      time.Duration
	secure   bool
	now      func() time.Time
	logger   *logger.Logger
}

// New creates an authenticator from config
func New(cfg *config.Config, log *logger.Logger) *Authenticator {
	return &Authenticator{
		password: []byte(cfg.Auth.Password),
		secret:   []byte(cfg.Auth.JWTSecret),
		ttl:      cfg.Auth.SessionTTL,
		secure:   cfg.IsProduction(),
		now:      time.Now,
		logger:   log,
	}
}

// CheckPassword compares in constant time. An unset APP_PASSWORD rejects everything.
func (a *Authenticator) CheckPassword(password string) bool {
	if len(a.password) == 0 {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(password), a.password) == 1
}

// IssueToken signs a new session token
func (a *Authenticator) IssueToken() (string, error) {
	now := a.now()
	claims := Claims{
		Authenticated: true,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return token, nil
}

// VerifyToken checks signature, algorithm and expiry
func (a *Authenticator) VerifyToken(tokenString string) error {
	if tokenString == "" {
		return ErrInvalidToken
	}

	claims := &Claims{}
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	parser.SkipClaimsValidation = true

	token, err := parser.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return a.secret, nil
	})
	if err != nil || !token.Valid {
		return ErrInvalidToken
	}

	// 만료는 주입된 시계로 직접 검사
	if claims.ExpiresAt == nil || !a.now().Before(claims.ExpiresAt.Time) {
		return ErrInvalidToken
	}
	if !claims.Authenticated {
		return ErrInvalidToken
	}
	return nil
}

// Login checks the password and returns a session cookie
func (a *Authenticator) Login(password string) (*http.Cookie, error) {
	if !a.CheckPassword(password) {
		return nil, ErrInvalidPassword
	}

	token, err := a.IssueToken()
	if err != nil {
		return nil, err
	}

	return &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(a.ttl.Seconds()),
		HttpOnly: true,
		Secure:   a.secure,
		SameSite: http.SameSiteLaxMode,
	}, nil
}

// LogoutCookie expires the session cookie
func (a *Authenticator) LogoutCookie() *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   a.secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// Middleware rejects requests without a valid session cookie (401 JSON)
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(CookieName)
		if err != nil || a.VerifyToken(cookie.Value) != nil {
			a.logger.WithFields(map[string]interface{}{
				"method": r.Method,
				"path":   r.URL.Path,
			}).Debug("Unauthorized request")

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{
				"error": "Unauthorized",
			})
			return
		}

		next.ServeHTTP(w, r)
	})
}
