package naver

import (
	"context"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// maxInvestorPages bounds pagination of frgn.naver (20 sessions per page)
const maxInvestorPages = 10

var investorDateRe = regexp.MustCompile(`^\d{4}\.\d{2}\.\d{2}$`)

// FetchInvestorFlow fetches foreign/institution net buying for [from, to],
// newest first, from the frgn.naver HTML table
// ⭐ SSOT: Naver Finance 투자자 수급 데이터 호출은 이 함수에서만
func (c *Client) FetchInvestorFlow(ctx context.Context, stockCode string, from, to time.Time) ([]InvestorFlowData, error) {
	var allTrades []InvestorFlowData
	noDataPages := 0

	for page := 1; page <= maxInvestorPages; page++ {
		select {
		case <-ctx.Done():
			return allTrades, ctx.Err()
		default:
		}

		params := url.Values{}
		params.Set("code", stockCode)
		params.Set("page", strconv.Itoa(page))

		html, err := c.fetchHTML(ctx, "/item/frgn.naver", params)
		if err != nil {
			return allTrades, err
		}

		trades, lastDate, hasMore := c.parseInvestorHTML(html, stockCode, from, to)
		allTrades = append(allTrades, trades...)

		// 기준일보다 이전 데이터면 종료
		if !lastDate.IsZero() && lastDate.Before(from) {
			break
		}
		if !hasMore {
			break
		}

		// 연속으로 데이터 없으면 종료
		if lastDate.IsZero() {
			noDataPages++
			if noDataPages >= 3 {
				break
			}
		} else {
			noDataPages = 0
		}
	}

	c.logger.WithFields(map[string]interface{}{
		"stock_code": stockCode,
		"count":      len(allTrades),
	}).Debug("Fetched investor flow")
	return allTrades, nil
}

// parseInvestorHTML parses one frgn.naver page
func (c *Client) parseInvestorHTML(html string, stockCode string, from, to time.Time) ([]InvestorFlowData, time.Time, bool) {
	var trades []InvestorFlowData
	var lastDate time.Time

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return trades, lastDate, false
	}

	// 두번째 table.type2 가 일별 데이터
	tables := doc.Find("table.type2")
	if tables.Length() < 2 {
		return trades, lastDate, false
	}

	tables.Eq(1).Find("tr").Each(func(i int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 7 {
			return
		}

		dateText := strings.TrimSpace(cells.Eq(0).Text())
		if !investorDateRe.MatchString(dateText) {
			return
		}

		tradeDate, err := time.Parse("2006.01.02", dateText)
		if err != nil {
			return
		}
		lastDate = tradeDate

		if tradeDate.Before(from) || tradeDate.After(to) {
			return
		}

		// 컬럼: 날짜 | 종가 | 대비 | 등락률 | 거래량 | 기관 | 외국인
		instNet := parseNum(cells.Eq(5).Text())
		foreignNet := parseNum(cells.Eq(6).Text())

		trades = append(trades, InvestorFlowData{
			StockCode:      stockCode,
			TradeDate:      tradeDate,
			ClosePrice:     parseNum(cells.Eq(1).Text()),
			ForeignNet:     foreignNet,
			InstitutionNet: instNet,
			IndividualNet:  -(foreignNet + instNet),
		})
	})

	hasMore := doc.Find(".pgRR").Length() > 0
	return trades, lastDate, hasMore
}

// NetBuyValue sums the most recent `sessions` rows of net buying, converted
// from shares to currency at each session's close. flows must be newest first.
func NetBuyValue(flows []InvestorFlowData, sessions int) (foreign, institution float64) {
	if sessions > len(flows) {
		sessions = len(flows)
	}
	for _, f := range flows[:sessions] {
		foreign += float64(f.ForeignNet) * float64(f.ClosePrice)
		institution += float64(f.InstitutionNet) * float64(f.ClosePrice)
	}
	return foreign, institution
}

func parseNum(s string) int64 {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, "+", "")
	if s == "" || s == "-" {
		return 0
	}
	n, _ := strconv.ParseInt(s, 10, 64)
	return n
}
