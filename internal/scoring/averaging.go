package scoring

import (
	"fmt"
	"math"

	"github.com/wonny/smart-portfolio/internal/contracts"
	"github.com/wonny/smart-portfolio/internal/indicators"
)

// Averaging scores how attractive it is to add to a losing position (물타기).
// Factors: 시총 추세, 시총 안정성, 업종 모멘텀, 수급, 기술적 반등.
// Filtering to losing positions is the caller's job.
func Averaging(stock contracts.Stock, settings contracts.Settings, md contracts.MarketData) contracts.ScoredStock {
	price := md.CurrentPrice
	rate := profitRate(price, stock.AvgPrice)
	mcaps := md.Mcaps()

	// 1. 시총 추세
	trendRate := mcapTrendRate(mcaps, false)

	// 2. 시총 안정성
	stability, cv := mcapStability(mcaps)
	stabilityDetail := "높음"
	switch {
	case cv < 0.02:
		stabilityDetail = "낮음(안정)"
	case cv < 0.05:
		stabilityDetail = "중간"
	}

	// 3. 업종 모멘텀
	sectorDetail := md.SectorName
	if sectorDetail == "" {
		sectorDetail = "업종"
	}

	// 4. 수급: 순매도 구간도 연속적으로 감점
	net := md.NetFlow5d()
	var flowScore float64
	flowDetail := "순매도"
	if net > 0 {
		flowScore = math.Min(70+net/flowUnit*30, 100)
		flowDetail = "순매수"
	} else {
		flowScore = math.Max(30+net/flowUnit*30, 0)
	}

	// 5. 기술적 반등
	rsi := indicators.RSI(md.Closes(), indicators.DefaultRSIPeriod)
	var technical float64
	switch {
	case rsi < 30:
		technical = (30 - rsi) / 30 * 100
	case rsi < 40:
		technical = 30
	}
	technical = math.Min(technical, 100)

	total, breakdown := compose([]factor{
		{name: "시총 추세", sub: mcapTrendScore(trendRate), weight: settings.AvgWMcapTrend, detail: signedPct(trendRate), color: colorGreen},
		{name: "시총 안정성", sub: stability, weight: settings.AvgWMcapStability, detail: stabilityDetail, color: colorGreen},
		{name: "업종 모멘텀", sub: sectorScore(md.SectorReturn20d), weight: settings.AvgWSector, detail: sectorDetail, color: colorBlue},
		{name: "수급", sub: flowScore, weight: settings.AvgWFlow, detail: flowDetail, color: colorPurple},
		{name: "기술적 반등", sub: technical, weight: settings.AvgWTechnical, detail: fmt.Sprintf("RSI %.0f", rsi), color: colorAmber},
	})

	return contracts.ScoredStock{
		Stock:        stock,
		CurrentPrice: price,
		ProfitRate:   rate,
		ProfitAmount: (price - stock.AvgPrice) * stock.Quantity,
		TotalScore:   total,
		Breakdown:    breakdown,
		RSI:          rsi,
	}
}
