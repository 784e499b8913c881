package scoring

import (
	"fmt"
	"math"

	"github.com/wonny/smart-portfolio/internal/contracts"
	"github.com/wonny/smart-portfolio/internal/indicators"
)

// Sell scores how ready a held position is to be (partially) sold.
// Factors: 고점 근접도, 수익률, RSI 과매수, 추세 약화.
// ⭐ SSOT: 매도 점수 계산은 여기서만
func Sell(stock contracts.Stock, settings contracts.Settings, md contracts.MarketData) contracts.ScoredStock {
	price := md.CurrentPrice
	rate := profitRate(price, stock.AvgPrice)
	closes := md.Closes()

	// 1. 고점 근접도
	peakPct := 50.0
	if md.High52w > 0 {
		peakPct = price / md.High52w * 100
	}
	peakScore := math.Min(peakPct, 100)

	// 2. 수익률: 최소 수익률 위로 25%p 에서 만점
	profitScore := clamp((rate-settings.MinSellProfitRate)/25, 0, 1) * 100

	// 3. RSI 과매수
	rsi := indicators.RSI(closes, indicators.DefaultRSIPeriod)
	rsiScore := 0.0
	if rsi > 70 {
		rsiScore = math.Min((rsi-70)/30, 1) * 100
	}

	// 4. 추세 약화 (3단계)
	ma5 := indicators.MA(closes, 5)
	ma20 := indicators.MA(closes, 20)
	trendScore := 0.0
	trendDetail := "상승 유지"
	switch {
	case ma5 < ma20:
		trendScore = 100
		trendDetail = "5일선<20일선"
	case ma5 < ma20*1.02:
		trendScore = 50
	}

	total, breakdown := compose([]factor{
		{name: "고점 근접도", sub: peakScore, weight: settings.SellWPeak, detail: fmt.Sprintf("현재가/고점 %.0f%%", peakPct), color: colorRed},
		{name: "수익률", sub: profitScore, weight: settings.SellWProfit, detail: signedPct(rate), color: colorAmber},
		{name: "RSI 과매수", sub: rsiScore, weight: settings.SellWRSI, detail: fmt.Sprintf("RSI %.0f", rsi), color: colorRed},
		{name: "추세 약화", sub: trendScore, weight: settings.SellWTrend, detail: trendDetail, color: colorAmber},
	})

	return contracts.ScoredStock{
		Stock:        stock,
		CurrentPrice: price,
		ProfitRate:   rate,
		ProfitAmount: (price - stock.AvgPrice) * stock.Quantity,
		TotalScore:   total,
		Breakdown:    breakdown,
		High52w:      md.High52w,
		RSI:          rsi,
		Status:       SellStatusFor(total),
	}
}

// SellStatusFor maps a sell score to its label
func SellStatusFor(total int) contracts.SellStatus {
	switch {
	case total >= 90:
		return contracts.StatusStrongRecommend
	case total >= 70:
		return contracts.StatusRecommend
	case total >= 50:
		return contracts.StatusConsider
	default:
		return contracts.StatusHold
	}
}
