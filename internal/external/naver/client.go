// Package naver fetches KR market data from Naver Finance.
package naver

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/wonny/smart-portfolio/pkg/config"
	"github.com/wonny/smart-portfolio/pkg/httputil"
	"github.com/wonny/smart-portfolio/pkg/logger"
)

// Client handles communication with Naver Finance
// ⭐ SSOT: Naver Finance API 호출은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string // finance.naver.com
	mobileURL  string // m.stock.naver.com
	chartURL   string // fchart.stock.naver.com
}

// NewClient creates a new Naver Finance client
func NewClient(httpClient *httputil.Client, cfg config.NaverConfig, log *logger.Logger) *Client {
	return &Client{
		httpClient: httpClient.Clone().WithHeader("Referer", "https://finance.naver.com/"),
		logger:     log,
		baseURL:    cfg.BaseURL,
		mobileURL:  cfg.MobileURL,
		chartURL:   cfg.ChartURL,
	}
}

// fetchHTML fetches an HTML page from finance.naver.com
func (c *Client) fetchHTML(ctx context.Context, path string, params url.Values) (string, error) {
	fullURL := fmt.Sprintf("%s%s", c.baseURL, path)
	if len(params) > 0 {
		fullURL = fmt.Sprintf("%s?%s", fullURL, params.Encode())
	}

	body, err := c.httpClient.GetBytes(ctx, fullURL)
	if err != nil {
		return "", fmt.Errorf("HTTP request failed: %w", err)
	}

	return string(body), nil
}

// PriceData is one daily candle (원, 주)
type PriceData struct {
	StockCode  string
	TradeDate  time.Time
	OpenPrice  int64
	HighPrice  int64
	LowPrice   int64
	ClosePrice int64
	Volume     int64
}

// InvestorFlowData represents one session of investor net buying (shares)
type InvestorFlowData struct {
	StockCode      string
	TradeDate      time.Time
	ClosePrice     int64
	ForeignNet     int64 // 외국인 순매수
	InstitutionNet int64 // 기관 순매수
	IndividualNet  int64 // 개인 순매수 (계산)
}
