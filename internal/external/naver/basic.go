package naver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Basic is the quote summary from m.stock.naver.com/api/stock/{code}/basic
type Basic struct {
	StockCode     string
	StockName     string
	CurrentPrice  float64
	PreviousClose float64
	ChangeRate    float64 // %
	Volume        float64
	MarketCap     float64 // 원
	SectorName    string
}

// flexNumber accepts 72500, "72500" and "72,500"
type flexNumber float64

func (n *flexNumber) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*n = 0
		return nil
	}

	s := strings.Trim(string(b), `"`)
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimPrefix(s, "+")
	if s == "" || s == "-" {
		*n = 0
		return nil
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("parse number %q: %w", s, err)
	}
	*n = flexNumber(v)
	return nil
}

type basicResponse struct {
	ItemCode                    string     `json:"itemCode"`
	StockName                   string     `json:"stockName"`
	ClosePrice                  flexNumber `json:"closePrice"`
	CurrentPrice                flexNumber `json:"currentPrice"`
	PreviousClosePrice          flexNumber `json:"previousClosePrice"`
	PrevClose                   flexNumber `json:"prevClose"`
	CompareToPreviousClosePrice flexNumber `json:"compareToPreviousClosePrice"`
	AccumulatedTradingVolume    flexNumber `json:"accumulatedTradingVolume"`
	MarketCap                   flexNumber `json:"marketCap"`
	SectorName                  string     `json:"sectorName"`
	IndustryCodeType            struct {
		IndustryGroupKor string `json:"industryGroupKor"`
	} `json:"industryCodeType"`
}

// FetchBasic fetches the current quote of a KR stock
func (c *Client) FetchBasic(ctx context.Context, stockCode string) (*Basic, error) {
	fullURL := fmt.Sprintf("%s/api/stock/%s/basic", c.mobileURL, stockCode)

	body, err := c.httpClient.GetBytes(ctx, fullURL)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}

	basic, err := parseBasic(body)
	if err != nil {
		return nil, err
	}
	basic.StockCode = stockCode

	c.logger.WithFields(map[string]interface{}{
		"stock_code": stockCode,
		"price":      basic.CurrentPrice,
	}).Debug("Fetched basic quote")
	return basic, nil
}

func parseBasic(body []byte) (*Basic, error) {
	var raw basicResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decode basic response: %w", err)
	}

	price := float64(raw.ClosePrice)
	if price == 0 {
		price = float64(raw.CurrentPrice)
	}

	prev := float64(raw.PreviousClosePrice)
	if prev == 0 {
		prev = float64(raw.PrevClose)
	}
	// 전일가 필드가 없으면 전일대비로 역산
	if prev == 0 && price > 0 && raw.CompareToPreviousClosePrice != 0 {
		prev = price - float64(raw.CompareToPreviousClosePrice)
	}

	changeRate := 0.0
	if prev != 0 {
		changeRate = (price - prev) / prev * 100
	}

	sector := raw.SectorName
	if sector == "" {
		sector = raw.IndustryCodeType.IndustryGroupKor
	}

	return &Basic{
		StockName:     raw.StockName,
		CurrentPrice:  price,
		PreviousClose: prev,
		ChangeRate:    changeRate,
		Volume:        float64(raw.AccumulatedTradingVolume),
		MarketCap:     float64(raw.MarketCap),
		SectorName:    sector,
	}, nil
}
