// Package yahoo fetches US market data from the Yahoo Finance chart API.
package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/wonny/smart-portfolio/pkg/config"
	"github.com/wonny/smart-portfolio/pkg/httputil"
	"github.com/wonny/smart-portfolio/pkg/logger"
)

// Client is a Yahoo Finance chart API client
// ⭐ SSOT: Yahoo Finance 호출은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
}

// NewClient creates a new Yahoo Finance client
func NewClient(httpClient *httputil.Client, cfg config.YahooConfig, log *logger.Logger) *Client {
	return &Client{
		httpClient: httpClient.Clone().WithHeader("Accept", "application/json"),
		logger:     log,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
	}
}

// Candle is one daily bar
type Candle struct {
	Date   string // YYYY-MM-DD (UTC)
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Chart is the parsed chart response, candles oldest first
type Chart struct {
	Symbol             string
	RegularMarketPrice float64
	PreviousClose      float64
	MarketCap          float64
	Candles            []Candle
}

type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol             string  `json:"symbol"`
				RegularMarketPrice float64 `json:"regularMarketPrice"`
				ChartPreviousClose float64 `json:"chartPreviousClose"`
				PreviousClose      float64 `json:"previousClose"`
				MarketCap          float64 `json:"marketCap"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []float64 `json:"open"`
					High   []float64 `json:"high"`
					Low    []float64 `json:"low"`
					Close  []float64 `json:"close"`
					Volume []float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error interface{} `json:"error"`
	} `json:"chart"`
}

// FetchChart fetches one year of daily bars
func (c *Client) FetchChart(ctx context.Context, symbol string) (*Chart, error) {
	params := url.Values{}
	params.Set("range", "1y")
	params.Set("interval", "1d")
	reqURL := fmt.Sprintf("%s/v8/finance/chart/%s?%s", c.baseURL, url.PathEscape(symbol), params.Encode())

	body, err := c.httpClient.GetBytes(ctx, reqURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch chart: %w", err)
	}

	chart, err := parseChart(body)
	if err != nil {
		return nil, err
	}

	c.logger.WithFields(map[string]interface{}{
		"symbol": symbol,
		"count":  len(chart.Candles),
	}).Debug("Fetched chart")
	return chart, nil
}

func parseChart(body []byte) (*Chart, error) {
	var resp chartResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse chart response: %w", err)
	}

	if resp.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo chart error: %v", resp.Chart.Error)
	}
	if len(resp.Chart.Result) == 0 {
		return nil, fmt.Errorf("yahoo chart returned no result")
	}

	result := resp.Chart.Result[0]
	chart := &Chart{
		Symbol:             result.Meta.Symbol,
		RegularMarketPrice: result.Meta.RegularMarketPrice,
		PreviousClose:      result.Meta.ChartPreviousClose,
		MarketCap:          result.Meta.MarketCap,
		Candles:            make([]Candle, 0, len(result.Timestamp)),
	}
	if chart.PreviousClose == 0 {
		chart.PreviousClose = result.Meta.PreviousClose
	}

	if len(result.Indicators.Quote) == 0 {
		return chart, nil
	}
	q := result.Indicators.Quote[0]

	for i, ts := range result.Timestamp {
		// null 종가(거래정지/장중) 는 버림
		close := at(q.Close, i)
		if close <= 0 {
			continue
		}
		chart.Candles = append(chart.Candles, Candle{
			Date:   time.Unix(ts, 0).UTC().Format("2006-01-02"),
			Open:   at(q.Open, i),
			High:   at(q.High, i),
			Low:    at(q.Low, i),
			Close:  close,
			Volume: at(q.Volume, i),
		})
	}

	return chart, nil
}

func at(values []float64, i int) float64 {
	if i < len(values) {
		return values[i]
	}
	return 0
}
