package naver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/smart-portfolio/pkg/config"
	"github.com/wonny/smart-portfolio/pkg/httputil"
	"github.com/wonny/smart-portfolio/pkg/logger"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := &config.Config{Market: config.MarketConfig{RateLimit: 0}}
	hc := httputil.New(cfg, logger.Nop()).DisableRetry()
	return NewClient(hc, config.NaverConfig{
		BaseURL:   server.URL,
		MobileURL: server.URL,
		ChartURL:  server.URL,
	}, logger.Nop())
}

func TestFetchBasic(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/stock/005930/basic", r.URL.Path)
		assert.Equal(t, "https://finance.naver.com/", r.Header.Get("Referer"))
		w.Write([]byte(`{
			"itemCode": "005930",
			"stockName": "삼성전자",
			"closePrice": "72,500",
			"compareToPreviousClosePrice": "-500",
			"accumulatedTradingVolume": "12,345,678",
			"marketCap": 432800000000000,
			"industryCodeType": {"industryGroupKor": "반도체와반도체장비"}
		}`))
	})

	basic, err := c.FetchBasic(context.Background(), "005930")
	require.NoError(t, err)

	assert.Equal(t, "005930", basic.StockCode)
	assert.Equal(t, "삼성전자", basic.StockName)
	assert.Equal(t, 72500.0, basic.CurrentPrice)
	assert.Equal(t, 73000.0, basic.PreviousClose)
	assert.InDelta(t, -0.6849, basic.ChangeRate, 1e-3)
	assert.Equal(t, 12345678.0, basic.Volume)
	assert.Equal(t, 4.328e14, basic.MarketCap)
	assert.Equal(t, "반도체와반도체장비", basic.SectorName)
}

func TestFetchBasicBadStatus(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := c.FetchBasic(context.Background(), "005930")
	var statusErr *httputil.StatusError
	assert.ErrorAs(t, err, &statusErr)
}

func TestFetchPrices(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/siseJson.naver", r.URL.Path)
		assert.Equal(t, "20240101", r.URL.Query().Get("startTime"))
		assert.Equal(t, "20240131", r.URL.Query().Get("endTime"))
		w.Write([]byte(`[['날짜', '시가', '고가', '저가', '종가', '거래량'],
["20240115", 72300, 73000, 72000, 72500, 1000000]]`))
	})

	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
	prices, err := c.FetchPrices(context.Background(), "005930", from, to)
	require.NoError(t, err)

	require.Len(t, prices, 1)
	assert.Equal(t, "005930", prices[0].StockCode)
	assert.Equal(t, int64(72500), prices[0].ClosePrice)
}

func TestFetchInvestorFlowStopsWithoutPaging(t *testing.T) {
	calls := 0
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, "/item/frgn.naver", r.URL.Path)
		assert.Equal(t, "005930", r.URL.Query().Get("code"))
		w.Write([]byte(sampleInvestorHTML))
	})

	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
	flows, err := c.FetchInvestorFlow(context.Background(), "005930", from, to)
	require.NoError(t, err)

	assert.Len(t, flows, 2)
	assert.Equal(t, 1, calls)
	assert.Equal(t, "2024-01-16", flows[0].TradeDate.Format("2006-01-02"))
}

func TestFlexNumber(t *testing.T) {
	tests := map[string]float64{
		`"72,500"`: 72500,
		`72500`:    72500,
		`"+1.5"`:   1.5,
		`"-"`:      0,
		`null`:     0,
		`""`:       0,
	}
	for in, want := range tests {
		var n flexNumber
		require.NoError(t, n.UnmarshalJSON([]byte(in)), in)
		assert.Equal(t, want, float64(n), in)
	}

	var bad flexNumber
	assert.Error(t, bad.UnmarshalJSON([]byte(`"abc"`)))
}
