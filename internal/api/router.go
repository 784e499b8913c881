package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/smart-portfolio/internal/api/handlers"
	"github.com/wonny/smart-portfolio/internal/auth"
	"github.com/wonny/smart-portfolio/pkg/logger"
)

// Handlers bundles every endpoint group the router mounts
type Handlers struct {
	Auth      *handlers.AuthHandler
	Stocks    *handlers.StockHandler
	Watchlist *handlers.WatchlistHandler
	Settings  *handlers.SettingsHandler
	Records   *handlers.RecordHandler
	Scores    *handlers.ScoreHandler
	Market    *handlers.MarketHandler
	Hub       *handlers.Hub
}

// NewRouter creates and configures the HTTP router
// ⭐ SSOT: 라우팅 설정은 이 함수에서만
func NewRouter(h Handlers, authn *auth.Authenticator, log *logger.Logger) http.Handler {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", healthCheckHandler).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()

	// Public
	api.HandleFunc("/auth/login", h.Auth.Login).Methods("POST")
	api.HandleFunc("/auth/logout", h.Auth.Logout).Methods("POST")

	// 이하 전부 세션 쿠키 필요
	protected := api.NewRoute().Subrouter()
	protected.Use(authn.Middleware)

	// Stocks
	protected.HandleFunc("/stocks", h.Stocks.List).Methods("GET")
	protected.HandleFunc("/stocks", h.Stocks.Create).Methods("POST")
	protected.HandleFunc("/stocks/{id}", h.Stocks.Get).Methods("GET")
	protected.HandleFunc("/stocks/{id}", h.Stocks.Update).Methods("PUT")
	protected.HandleFunc("/stocks/{id}", h.Stocks.Delete).Methods("DELETE")

	// Watchlist
	protected.HandleFunc("/watchlist", h.Watchlist.List).Methods("GET")
	protected.HandleFunc("/watchlist", h.Watchlist.Create).Methods("POST")
	protected.HandleFunc("/watchlist/{id}", h.Watchlist.Update).Methods("PUT")
	protected.HandleFunc("/watchlist/{id}", h.Watchlist.Delete).Methods("DELETE")

	// Settings
	protected.HandleFunc("/settings", h.Settings.Get).Methods("GET")
	protected.HandleFunc("/settings", h.Settings.Update).Methods("PUT")

	// Trade records
	protected.HandleFunc("/records/buy", h.Records.ListBuys).Methods("GET")
	protected.HandleFunc("/records/buy", h.Records.RecordBuy).Methods("POST")
	protected.HandleFunc("/records/sell", h.Records.ListSells).Methods("GET")
	protected.HandleFunc("/records/sell", h.Records.RecordSell).Methods("POST")

	// Scores
	protected.HandleFunc("/score/sell", h.Scores.Sell).Methods("GET")
	protected.HandleFunc("/score/averaging", h.Scores.Averaging).Methods("GET")
	protected.HandleFunc("/score/buy", h.Scores.Buy).Methods("GET")
	protected.HandleFunc("/score/buy/{id}", h.Scores.WatchDetail).Methods("GET")
	protected.HandleFunc("/score/{kind:sell|averaging}/{id}", h.Scores.StockDetail).Methods("GET")

	// Market snapshot
	protected.HandleFunc("/market/{market}/{symbol}", h.Market.Get).Methods("GET")

	// Live score stream
	r.Handle("/ws/scores", authn.Middleware(http.HandlerFunc(h.Hub.ServeWS))).Methods("GET")

	// Apply middleware
	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))

	return r
}

// healthCheckHandler returns server health status
func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "ok",
		"service": "smart-portfolio-api",
	})
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			next.ServeHTTP(w, r)

			log.WithFields(map[string]interface{}{
				"method":   r.Method,
				"path":     r.URL.Path,
				"duration": time.Since(start),
			}).Debug("HTTP request")
		})
	}
}

// recoveryMiddleware recovers from panics
func recoveryMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.WithFields(map[string]interface{}{
						"error": err,
						"path":  r.URL.Path,
					}).Error("Panic recovered")

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					json.NewEncoder(w).Encode(map[string]string{
						"error": "Internal server error",
					})
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
