package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/smart-portfolio/internal/api/handlers"
	"github.com/wonny/smart-portfolio/internal/auth"
	"github.com/wonny/smart-portfolio/internal/contracts"
	"github.com/wonny/smart-portfolio/internal/dashboard"
	"github.com/wonny/smart-portfolio/internal/store"
	"github.com/wonny/smart-portfolio/pkg/config"
	"github.com/wonny/smart-portfolio/pkg/logger"
)

type stubMarket struct {
	data map[string]contracts.MarketData
}

func (s *stubMarket) Fetch(ctx context.Context, symbol string, market contracts.Market) contracts.MarketData {
	if md, ok := s.data[symbol]; ok {
		return md
	}
	return contracts.DefaultMarketData()
}

type testEnv struct {
	router http.Handler
	mem    *store.Memory
	hub    *handlers.Hub
	cookie *http.Cookie
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	log := logger.Nop()
	cfg := &config.Config{
		Env: "development",
		Auth: config.AuthConfig{
			Password:   "pw",
			JWTSecret:  "secret",
			SessionTTL: time.Hour,
		},
	}

	mem := store.NewMemory()
	market := &stubMarket{data: map[string]contracts.MarketData{
		"WIN": {CurrentPrice: 120, High52w: 120, McapHistory: []contracts.McapPoint{}},
	}}
	svc := dashboard.NewService(mem.Stocks, mem.Watchlist, mem.Settings, market, 4, log)
	authn := auth.New(cfg, log)
	hub := handlers.NewHub(log)

	router := NewRouter(Handlers{
		Auth:      handlers.NewAuthHandler(authn, log),
		Stocks:    handlers.NewStockHandler(mem.Stocks, log),
		Watchlist: handlers.NewWatchlistHandler(mem.Watchlist, log),
		Settings:  handlers.NewSettingsHandler(mem.Settings, log),
		Records:   handlers.NewRecordHandler(mem.Records, log),
		Scores:    handlers.NewScoreHandler(svc, log),
		Market:    handlers.NewMarketHandler(market, log),
		Hub:       hub,
	}, authn, log)

	cookie, err := authn.Login("pw")
	require.NoError(t, err)

	return &testEnv{router: router, mem: mem, hub: hub, cookie: cookie}
}

func (e *testEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	req.AddCookie(e.cookie)

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dest interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dest), rec.Body.String())
}

func TestHealthIsPublic(t *testing.T) {
	env := newTestEnv(t)

	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestProtectedRoutesRequireSession(t *testing.T) {
	env := newTestEnv(t)

	paths := []string{
		"/api/stocks",
		"/api/watchlist",
		"/api/settings",
		"/api/records/buy",
		"/api/score/sell",
		"/api/market/KR/005930",
		"/ws/scores",
	}
	for _, path := range paths {
		t.Run(path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			env.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)

	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"password":"wrong"}`)))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	env.router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"password":"pw"}`)))
	require.Equal(t, http.StatusOK, rec.Code)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, auth.CookieName, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)

	rec = httptest.NewRecorder()
	env.router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Less(t, rec.Result().Cookies()[0].MaxAge, 0)
}

func TestStockCRUD(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/stocks", `{"symbol":"005930","name":"삼성전자","market":"kr","avg_price":70000,"quantity":10}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created contracts.Stock
	decode(t, rec, &created)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, contracts.MarketKR, created.Market)

	rec = env.do(t, http.MethodPut, "/api/stocks/"+created.ID, `{"quantity":12}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var updated contracts.Stock
	decode(t, rec, &updated)
	assert.Equal(t, 12.0, updated.Quantity)
	assert.Equal(t, "삼성전자", updated.Name)

	rec = env.do(t, http.MethodGet, "/api/stocks", "")
	var list []contracts.Stock
	decode(t, rec, &list)
	assert.Len(t, list, 1)

	assert.Equal(t, http.StatusOK, env.do(t, http.MethodDelete, "/api/stocks/"+created.ID, "").Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/api/stocks/"+created.ID, "").Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodDelete, "/api/stocks/"+created.ID, "").Code)
}

func TestStockValidationAndLimit(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name string
		body string
	}{
		{"bad json", `{`},
		{"missing symbol", `{"name":"x","market":"KR"}`},
		{"bad market", `{"symbol":"x","name":"x","market":"JP"}`},
		{"negative price", `{"symbol":"x","name":"x","market":"US","avg_price":-1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodPost, "/api/stocks", tt.body).Code)
		})
	}

	for i := 0; i < store.MaxStocks; i++ {
		body := fmt.Sprintf(`{"symbol":"S%d","name":"n","market":"US"}`, i)
		require.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, "/api/stocks", body).Code)
	}

	rec := env.do(t, http.MethodPost, "/api/stocks", `{"symbol":"X","name":"n","market":"US"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "15")
}

func TestWatchlistCategoryFilter(t *testing.T) {
	env := newTestEnv(t)

	require.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, "/api/watchlist",
		`{"symbol":"AAPL","name":"Apple","market":"US","category":"buy_interest","target_price":150}`).Code)
	require.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, "/api/watchlist",
		`{"symbol":"MSFT","name":"Microsoft","market":"US"}`).Code)

	var all, buy []contracts.WatchlistItem
	decode(t, env.do(t, http.MethodGet, "/api/watchlist", ""), &all)
	decode(t, env.do(t, http.MethodGet, "/api/watchlist?category=buy_interest", ""), &buy)

	assert.Len(t, all, 2)
	require.Len(t, buy, 1)
	assert.Equal(t, "AAPL", buy[0].Symbol)
	assert.Equal(t, contracts.CategoryMonitoring, all[0].Category)
}

func TestSettingsPartialUpdate(t *testing.T) {
	env := newTestEnv(t)

	var got contracts.Settings
	decode(t, env.do(t, http.MethodGet, "/api/settings", ""), &got)
	assert.Equal(t, contracts.DefaultSettings().SellWPeak, got.SellWPeak)

	rec := env.do(t, http.MethodPut, "/api/settings", `{"daily_sell_target": 250000}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decode(t, rec, &got)
	assert.Equal(t, 250000.0, got.DailySellTarget)
	assert.Equal(t, 40.0, got.SellWPeak)

	// 가중치 합이 100 이 아니면 거부되고 저장값은 그대로
	rec = env.do(t, http.MethodPut, "/api/settings", `{"sell_w_peak": 50}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	saved, err := env.mem.Settings.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 40.0, saved.SellWPeak)
	assert.Equal(t, 250000.0, saved.DailySellTarget)
}

func TestRecordsSideEffects(t *testing.T) {
	env := newTestEnv(t)

	var stock contracts.Stock
	decode(t, env.do(t, http.MethodPost, "/api/stocks", `{"symbol":"WIN","name":"Winner","market":"US","avg_price":100,"quantity":10}`), &stock)

	rec := env.do(t, http.MethodPost, "/api/records/buy", fmt.Sprintf(
		`{"stock_id":%q,"symbol":"WIN","name":"Winner","buy_price":70,"quantity":10,"type":"averaging_down","buy_date":"2024-03-01"}`, stock.ID))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var after contracts.Stock
	decode(t, env.do(t, http.MethodGet, "/api/stocks/"+stock.ID, ""), &after)
	assert.Equal(t, 85.0, after.AvgPrice)
	assert.Equal(t, 20.0, after.Quantity)

	rec = env.do(t, http.MethodPost, "/api/records/sell", fmt.Sprintf(
		`{"stock_id":%q,"symbol":"WIN","name":"Winner","sell_price":120,"quantity":20,"sell_date":"2024-03-02"}`, stock.ID))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/api/stocks/"+stock.ID, "").Code)

	var buys []contracts.BuyRecord
	decode(t, env.do(t, http.MethodGet, "/api/records/buy", ""), &buys)
	assert.Len(t, buys, 1)

	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodPost, "/api/records/sell", `{"symbol":"WIN","sell_price":0,"quantity":1,"sell_date":"2024-03-02"}`).Code)
}

func TestScoreEndpoints(t *testing.T) {
	env := newTestEnv(t)

	var stock contracts.Stock
	decode(t, env.do(t, http.MethodPost, "/api/stocks", `{"symbol":"WIN","name":"Winner","market":"US","avg_price":100,"quantity":10}`), &stock)
	var item contracts.WatchlistItem
	decode(t, env.do(t, http.MethodPost, "/api/watchlist", `{"symbol":"AAPL","name":"Apple","market":"US","category":"buy_interest"}`), &item)

	var sell []contracts.ScoredStock
	rec := env.do(t, http.MethodGet, "/api/score/sell", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decode(t, rec, &sell)
	require.Len(t, sell, 1)
	assert.Equal(t, 20.0, sell[0].ProfitRate)
	assert.Len(t, sell[0].Breakdown, 4)

	var averaging []contracts.ScoredStock
	decode(t, env.do(t, http.MethodGet, "/api/score/averaging", ""), &averaging)
	assert.Empty(t, averaging)

	var buy []contracts.ScoredWatchItem
	decode(t, env.do(t, http.MethodGet, "/api/score/buy", ""), &buy)
	require.Len(t, buy, 1)
	assert.Len(t, buy[0].Breakdown, 6)

	var detail contracts.ScoredStock
	rec = env.do(t, http.MethodGet, "/api/score/averaging/"+stock.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &detail)
	assert.Len(t, detail.Breakdown, 5)

	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/api/score/buy/"+item.ID, "").Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/api/score/sell/missing", "").Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/api/score/buy/missing", "").Code)
}

func TestMarketEndpoint(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/market/us/WIN", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var md contracts.MarketData
	decode(t, rec, &md)
	assert.Equal(t, 120.0, md.CurrentPrice)

	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodGet, "/api/market/jp/7203", "").Code)
}

func TestScoreStream(t *testing.T) {
	env := newTestEnv(t)
	server := httptest.NewServer(env.router)
	defer server.Close()

	header := http.Header{}
	header.Add("Cookie", (&http.Cookie{Name: env.cookie.Name, Value: env.cookie.Value}).String())
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/scores"

	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	defer conn.Close()

	var event handlers.ScoreEvent
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, conn.ReadJSON(&event))
	assert.Equal(t, "connected", event.Type)

	require.Eventually(t, func() bool { return env.hub.Len() == 1 }, time.Second, 10*time.Millisecond)
	env.hub.Broadcast("sell_candidates", []string{"WIN"})

	var pushed struct {
		Type string   `json:"type"`
		Data []string `json:"data"`
	}
	require.NoError(t, conn.ReadJSON(&pushed))
	assert.Equal(t, "sell_candidates", pushed.Type)
	assert.Equal(t, []string{"WIN"}, pushed.Data)
}
