package naver

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// siseJson 행: ["20240115", 시가, 고가, 저가, 종가, 거래량, ...]
var siseRowRe = regexp.MustCompile(`\[\s*"(\d{8})"\s*,\s*([\d.]+)\s*,\s*([\d.]+)\s*,\s*([\d.]+)\s*,\s*([\d.]+)\s*,\s*([\d.]+)`)

// FetchPrices fetches daily candles for [from, to], oldest first
// ⭐ SSOT: Naver 일봉 호출은 이 함수에서만
func (c *Client) FetchPrices(ctx context.Context, stockCode string, from, to time.Time) ([]PriceData, error) {
	q := fmt.Sprintf(
		"%s/siseJson.naver?symbol=%s&requestType=1&startTime=%s&endTime=%s&timeframe=day",
		c.chartURL, stockCode, from.Format("20060102"), to.Format("20060102"),
	)

	body, err := c.httpClient.GetBytes(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch daily prices for %s: %w", stockCode, err)
	}

	prices := parseSise(string(body))
	for i := range prices {
		prices[i].StockCode = stockCode
	}

	c.logger.WithSymbol(stockCode, "KR").WithField("count", len(prices)).Debug("Fetched daily prices")
	return prices, nil
}

// parseSise reads the single-quoted pseudo-JSON table served by siseJson.
// Rows that do not start with a yyyymmdd date (the header included) are skipped.
func parseSise(body string) []PriceData {
	body = strings.ReplaceAll(strings.TrimSpace(body), "'", `"`)

	var table [][]any
	if err := json.Unmarshal([]byte(body), &table); err != nil {
		// 후행 컬럼(외국인소진율 등) 형식이 깨진 경우 정규식으로 행만 추출
		return scanSiseRows(body)
	}

	out := make([]PriceData, 0, len(table))
	for _, row := range table {
		if len(row) < 6 {
			continue
		}
		cells := make([]string, 6)
		for i := range cells {
			cells[i] = cellString(row[i])
		}
		if pd, ok := priceFromCells(cells); ok {
			out = append(out, pd)
		}
	}
	return out
}

func scanSiseRows(body string) []PriceData {
	var out []PriceData
	for _, m := range siseRowRe.FindAllStringSubmatch(body, -1) {
		if pd, ok := priceFromCells(m[1:7]); ok {
			out = append(out, pd)
		}
	}
	return out
}

// priceFromCells maps [date, open, high, low, close, volume]
func priceFromCells(cells []string) (PriceData, bool) {
	day, err := time.Parse("20060102", strings.TrimSpace(cells[0]))
	if err != nil {
		return PriceData{}, false
	}
	return PriceData{
		TradeDate:  day,
		OpenPrice:  parseInt(cells[1]),
		HighPrice:  parseInt(cells[2]),
		LowPrice:   parseInt(cells[3]),
		ClosePrice: parseInt(cells[4]),
		Volume:     parseInt(cells[5]),
	}, true
}

func cellString(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return ""
	}
}

// parseInt accepts "72500", "72,500" and "72500.0"; anything else is 0
func parseInt(s string) int64 {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return int64(f)
	}
	return 0
}
