package scoring

import (
	"fmt"
	"math"

	"github.com/wonny/smart-portfolio/internal/contracts"
	"github.com/wonny/smart-portfolio/internal/indicators"
)

// Buy scores how close a watch item is to a good entry.
// Factors: 목표가 근접도, 시총 추세, 시총 안정성, RSI, 업종, 수급.
func Buy(item contracts.WatchlistItem, settings contracts.Settings, md contracts.MarketData) contracts.ScoredWatchItem {
	price := md.CurrentPrice

	// 목표가 미설정 → 현재가 (괴리 0)
	target := price
	if item.TargetPrice != nil && *item.TargetPrice > 0 {
		target = *item.TargetPrice
	}
	gapRate := 0.0
	if target > 0 {
		gapRate = (price - target) / target * 100
	}

	// 1. 목표가 근접도
	targetScore := 100.0
	if gapRate > 0 {
		targetScore = math.Max(0, 100-gapRate*5)
	}

	// 2. 시총 추세 (이전 구간이 없으면 앞 5개 기준)
	mcaps := md.Mcaps()
	trendRate := mcapTrendRate(mcaps, true)

	// 3. 시총 안정성
	stability, cv := mcapStability(mcaps)
	stabilityDetail := "보통"
	if cv < 0.02 {
		stabilityDetail = "안정"
	}

	// 4. RSI
	rsi := indicators.RSI(md.Closes(), indicators.DefaultRSIPeriod)
	var rsiScore float64
	switch {
	case rsi < 30:
		rsiScore = 100
	case rsi < 40:
		rsiScore = 70
	case rsi < 50:
		rsiScore = 40
	}

	// 5. 업종
	sectorDetail := md.SectorName
	if sectorDetail == "" {
		sectorDetail = "-"
	}

	// 6. 수급: 순매도는 감점 없이 30 고정
	net := md.NetFlow5d()
	flowScore := 30.0
	flowDetail := "-"
	if net > 0 {
		flowScore = math.Min(70+net/flowUnit*30, 100)
		flowDetail = "순매수"
	}

	total, breakdown := compose([]factor{
		{name: "목표가 근접도", sub: targetScore, weight: settings.BuyWTargetGap, detail: "괴리 " + signedPct(gapRate), color: colorPurple},
		{name: "시총 추세", sub: mcapTrendScore(trendRate), weight: settings.BuyWMcapTrend, detail: signedPct(trendRate), color: colorGreen},
		{name: "시총 안정성", sub: stability, weight: settings.BuyWMcapStability, detail: stabilityDetail, color: colorGreen},
		{name: "RSI", sub: rsiScore, weight: settings.BuyWRSI, detail: fmt.Sprintf("RSI %.0f", rsi), color: colorAmber},
		{name: "업종", sub: sectorScore(md.SectorReturn20d), weight: settings.BuyWSector, detail: sectorDetail, color: colorBlue},
		{name: "수급", sub: flowScore, weight: settings.BuyWFlow, detail: flowDetail, color: colorPurple},
	})

	return contracts.ScoredWatchItem{
		WatchlistItem: item,
		CurrentPrice:  price,
		ChangeRate:    md.ChangeRate,
		GapRate:       gapRate,
		TotalScore:    total,
		Breakdown:     breakdown,
		Signal:        BuySignalFor(total, gapRate),
	}
}

// BuySignalFor maps a buy score and target gap to its label
func BuySignalFor(total int, gapRate float64) contracts.BuySignal {
	switch {
	case total >= 80:
		return contracts.SignalBuyNear
	case total >= 60:
		return contracts.SignalWatch
	case gapRate <= 5:
		return contracts.SignalClose
	default:
		return contracts.SignalWait
	}
}
