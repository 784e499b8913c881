package yahoo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/smart-portfolio/pkg/config"
	"github.com/wonny/smart-portfolio/pkg/httputil"
	"github.com/wonny/smart-portfolio/pkg/logger"
)

const sampleChart = `{
  "chart": {
    "result": [{
      "meta": {"symbol": "AAPL", "regularMarketPrice": 190.5, "chartPreviousClose": 188.0, "marketCap": 3000000000000},
      "timestamp": [1704844800, 1704931200, 1705017600],
      "indicators": {"quote": [{
        "open":   [185.0, null, 189.0],
        "high":   [187.0, null, 191.0],
        "low":    [184.0, null, 188.5],
        "close":  [186.0, null, 190.0],
        "volume": [1000, null, 1200]
      }]}
    }],
    "error": null
  }
}`

func TestParseChart(t *testing.T) {
	chart, err := parseChart([]byte(sampleChart))
	require.NoError(t, err)

	assert.Equal(t, "AAPL", chart.Symbol)
	assert.Equal(t, 190.5, chart.RegularMarketPrice)
	assert.Equal(t, 188.0, chart.PreviousClose)
	assert.Equal(t, 3e12, chart.MarketCap)

	// null 종가 행은 제외
	require.Len(t, chart.Candles, 2)
	assert.Equal(t, "2024-01-10", chart.Candles[0].Date)
	assert.Equal(t, 186.0, chart.Candles[0].Close)
	assert.Equal(t, "2024-01-12", chart.Candles[1].Date)
	assert.Equal(t, 1200.0, chart.Candles[1].Volume)
}

func TestParseChartErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", `<html>`},
		{"api error", `{"chart": {"result": null, "error": {"code": "Not Found"}}}`},
		{"empty result", `{"chart": {"result": [], "error": null}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseChart([]byte(tt.body))
			assert.Error(t, err)
		})
	}
}

func TestParseChartPreviousCloseFallback(t *testing.T) {
	body := `{"chart": {"result": [{"meta": {"regularMarketPrice": 10, "previousClose": 9}}], "error": null}}`

	chart, err := parseChart([]byte(body))
	require.NoError(t, err)
	assert.Equal(t, 9.0, chart.PreviousClose)
	assert.Empty(t, chart.Candles)
}

func TestFetchChart(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v8/finance/chart/AAPL", r.URL.Path)
		assert.Equal(t, "1y", r.URL.Query().Get("range"))
		assert.Equal(t, "1d", r.URL.Query().Get("interval"))
		w.Write([]byte(sampleChart))
	}))
	defer server.Close()

	hc := httputil.New(&config.Config{}, logger.Nop()).DisableRetry()
	c := NewClient(hc, config.YahooConfig{BaseURL: server.URL + "/"}, logger.Nop())

	chart, err := c.FetchChart(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Len(t, chart.Candles, 2)
}
